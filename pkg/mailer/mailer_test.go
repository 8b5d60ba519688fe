package mailer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/otomasyon-magazasi/config"
)

type recordingPublisher struct {
	jobs []any
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.jobs = append(p.jobs, body)
	return p.err
}

func TestQueueEnqueue(t *testing.T) {
	pub := &recordingPublisher{}
	q := NewQueue(pub, true)

	require.NoError(t, q.Enqueue(context.Background(), "a@example.test", map[string]any{"Type": "welcome"}))
	require.Len(t, pub.jobs, 1)
	job := pub.jobs[0].(EmailJob)
	assert.Equal(t, "a@example.test", job.To)
	assert.Equal(t, "universal", job.Template)

	assert.Error(t, q.EnqueueJob(context.Background(), EmailJob{}))
}

func TestQueueDisabled(t *testing.T) {
	pub := &recordingPublisher{}
	assert.ErrorIs(t, NewQueue(pub, false).Enqueue(context.Background(), "a@example.test", nil), ErrDisabled)
	assert.ErrorIs(t, NewQueue(nil, true).Enqueue(context.Background(), "a@example.test", nil), ErrDisabled)
	var q *Queue
	assert.False(t, q.Enabled())
	assert.Empty(t, pub.jobs)
}

func TestQueuePropagatesPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	assert.EqualError(t, NewQueue(pub, true).Enqueue(context.Background(), "a@example.test", nil), "channel closed")
}

func TestNewSender(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{name: "mailgun", cfg: config.Config{MailProvider: "mailgun", MailgunDomain: "mg.test", MailgunAPIKey: "k", MailgunSender: "no-reply@mg.test"}, want: "mailgun"},
		{name: "mailgun missing key", cfg: config.Config{MailProvider: "mailgun"}, wantErr: true},
		{name: "sendgrid", cfg: config.Config{MailProvider: "sendgrid", SendGridAPIKey: "k", SupportEmail: "s@example.test"}, want: "sendgrid"},
		{name: "smtp", cfg: config.Config{MailProvider: "smtp", SMTPHost: "localhost", SMTPPort: 1025, SMTPFrom: "a@example.test"}, want: "smtp"},
		{name: "unknown", cfg: config.Config{MailProvider: "pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSender(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
		})
	}
}

func TestSenderAddressPrefersSMTPFrom(t *testing.T) {
	cfg := &config.Config{SMTPFrom: "smtp@example.test", MailgunSender: "mg@example.test", SupportEmail: "s@example.test"}
	assert.Equal(t, "smtp@example.test", senderAddress(cfg))
	cfg.SMTPFrom = ""
	assert.Equal(t, "mg@example.test", senderAddress(cfg))
}

func TestMailgunSend(t *testing.T) {
	var form map[string]string
	var user string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mg.test/messages", r.URL.Path)
		user, _, _ = r.BasicAuth()
		form = map[string]string{}
		for _, k := range []string{"from", "to", "subject", "text", "html", "o:tag"} {
			form[k] = r.FormValue(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"<1@mg.test>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	m := NewMailgun("mg.test", "key-1", "no-reply@mg.test", srv.URL+"/v3")
	require.NoError(t, m.Send(context.Background(), "ayse@example.test", "Merhaba", "düz metin", "<p>html</p>"))

	assert.Equal(t, "api", user)
	assert.Equal(t, map[string]string{
		"from":    "no-reply@mg.test",
		"to":      "ayse@example.test",
		"subject": "Merhaba",
		"text":    "düz metin",
		"html":    "<p>html</p>",
		"o:tag":   "transactional",
	}, form)
}

func TestMailgunSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"forbidden"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewMailgun("mg.test", "bad", "no-reply@mg.test", srv.URL+"/v3")
	err := m.Send(context.Background(), "a@example.test", "s", "t", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailgun:")
}
