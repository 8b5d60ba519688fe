package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/otomasyon-magazasi/pkg/mailer"
)

func TestRenderJobMapsTypedTemplate(t *testing.T) {
	job := &mailer.EmailJob{To: "a@example.test", Template: "welcome", Data: map[string]any{"Name": "Ali"}}

	require.NoError(t, RenderJob(job))
	assert.Equal(t, "universal", job.Template)
	assert.Equal(t, "welcome", job.Data["Type"])
	assert.Equal(t, "a@example.test", job.Data["RecipientEmail"])
	assert.Equal(t, "Otomasyon Mağazası'na hoş geldiniz", job.Subject)
	assert.Contains(t, job.Text, "Merhaba Ali")
	assert.NotEmpty(t, job.HTML)
}

func TestRenderJobKeepsExplicitSubject(t *testing.T) {
	job := &mailer.EmailJob{To: "a@example.test", Subject: "Özel", Template: "universal", Data: map[string]any{"Type": "welcome"}}
	require.NoError(t, RenderJob(job))
	assert.Equal(t, "Özel", job.Subject)
}

func TestRenderJobRawPassthrough(t *testing.T) {
	job := &mailer.EmailJob{To: "a@example.test", Subject: "s", Text: "t"}
	require.NoError(t, RenderJob(job))
	assert.Equal(t, "t", job.Text)
}

func TestRenderJobUnknownTemplate(t *testing.T) {
	assert.Error(t, RenderJob(&mailer.EmailJob{To: "a@example.test", Template: "login_otp"}))
}
