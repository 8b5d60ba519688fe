package mailer

import (
	"context"
	"fmt"

	"github.com/oksasatya/otomasyon-magazasi/config"
)

// Sender delivers a rendered email. html is optional.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
	Name() string
}

// NewSender returns the provider selected by MAIL_PROVIDER.
func NewSender(cfg *config.Config) (Sender, error) {
	switch cfg.MailProvider {
	case "", "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			return nil, fmt.Errorf("mailgun requires MAILGUN_DOMAIN, MAILGUN_API_KEY and MAILGUN_SENDER")
		}
		return NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.MailgunAPIBase), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid requires SENDGRID_API_KEY")
		}
		return NewSendGrid(cfg.SendGridAPIKey, cfg.CompanyName, senderAddress(cfg)), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp requires SMTP_HOST")
		}
		return NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, senderAddress(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}

func senderAddress(cfg *config.Config) string {
	if cfg.SMTPFrom != "" {
		return cfg.SMTPFrom
	}
	if cfg.MailgunSender != "" {
		return cfg.MailgunSender
	}
	return cfg.SupportEmail
}
