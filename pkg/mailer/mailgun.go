package mailer

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const mailgunTimeout = 10 * time.Second

// Mailgun sends through the Mailgun HTTP API. One client is shared by all sends.
type Mailgun struct {
	client mg.Mailgun
	sender string
}

// NewMailgun builds a sender for domain. apiBase selects the region
// ("https://api.eu.mailgun.net/v3"); empty keeps the library default.
func NewMailgun(domain, apiKey, sender, apiBase string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if apiBase != "" {
		client.SetAPIBase(apiBase)
	}
	return &Mailgun{client: client, sender: sender}
}

func (m *Mailgun) Name() string { return "mailgun" }

func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	if err := msg.AddTag("transactional"); err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, mailgunTimeout)
	defer cancel()
	if _, _, err := m.client.Send(c, msg); err != nil {
		return fmt.Errorf("mailgun: %w", err)
	}
	return nil
}
