package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGrid struct {
	APIKey   string
	FromName string
	From     string
}

func NewSendGrid(apiKey, fromName, from string) *SendGrid {
	return &SendGrid{APIKey: apiKey, FromName: fromName, From: from}
}

func (s *SendGrid) Name() string { return "sendgrid" }

func (s *SendGrid) Send(ctx context.Context, to, subject, text, html string) error {
	msg := sgmail.NewSingleEmail(
		sgmail.NewEmail(s.FromName, s.From),
		subject,
		sgmail.NewEmail("", to),
		text,
		html,
	)
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, err := sendgrid.NewSendClient(s.APIKey).SendWithContext(c, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
