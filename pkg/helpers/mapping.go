package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/otomasyon-magazasi/pkg/mailer"
	mailtpl "github.com/oksasatya/otomasyon-magazasi/pkg/mailer/templates"
)

// EnsureRecipientAndEmail fills Email/RecipientEmail in the template data from job.To.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

// MapTypedToUniversal rewrites jobs that name a typed template ("welcome",
// "purchase_receipt", ...) to the universal layout with Data.Type set.
func MapTypedToUniversal(job *mailer.EmailJob) {
	name := strings.ToLower(job.Template)
	if !mailtpl.KnownType(name) {
		return
	}
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Type"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Type"] = name
	}
	job.Template = mailtpl.Universal
}

// RenderJob resolves the subject and bodies of a templated job in place.
// Jobs without a template are left untouched.
func RenderJob(job *mailer.EmailJob) error {
	MapTypedToUniversal(job)
	if job.Template == "" {
		return nil
	}
	if job.Template != mailtpl.Universal {
		return fmt.Errorf("unknown template %q", job.Template)
	}
	EnsureRecipientAndEmail(job)
	subject, text, html, err := mailtpl.Render(job.Data)
	if err != nil {
		return err
	}
	if job.Subject == "" {
		job.Subject = subject
	}
	job.Text, job.HTML = text, html
	return nil
}
