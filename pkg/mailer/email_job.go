package mailer

import (
	"context"
	"errors"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Html is optional; Text is recommended as fallback.
// You can also use a template by specifying Template and Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "universal" or one of the typed names, e.g. "purchase_receipt"
	Data     map[string]any `json:"data,omitempty"`
}

// Publisher puts a JSON encoded message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// ErrDisabled is returned by Queue when sending is switched off.
var ErrDisabled = errors.New("email sending disabled")

// Queue enqueues jobs for the email worker.
type Queue struct {
	pub     Publisher
	enabled bool
}

func NewQueue(pub Publisher, enabled bool) *Queue {
	return &Queue{pub: pub, enabled: enabled}
}

// Enabled reports whether jobs will actually be published.
func (q *Queue) Enabled() bool {
	return q != nil && q.enabled && q.pub != nil
}

// Enqueue publishes a templated job addressed to to.
func (q *Queue) Enqueue(ctx context.Context, to string, data map[string]any) error {
	return q.EnqueueJob(ctx, EmailJob{To: to, Template: "universal", Data: data})
}

func (q *Queue) EnqueueJob(ctx context.Context, job EmailJob) error {
	if !q.Enabled() {
		return ErrDisabled
	}
	if job.To == "" {
		return errors.New("email job has no recipient")
	}
	return q.pub.PublishJSON(ctx, job)
}
