package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridSendPath = "/v3/mail/send"

type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGrid builds a SendGrid sender. An empty host uses the public API.
func NewSendGrid(apiKey, fromAddress, fromName, host string) *SendGrid {
	request := sendgrid.GetRequest(apiKey, sendGridSendPath, host)
	request.Method = "POST"

	return &SendGrid{
		client: &sendgrid.Client{Request: request},
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail("", msg.To), "", msg.HTML)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
