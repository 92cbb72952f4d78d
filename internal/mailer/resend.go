package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

type Resend struct {
	client *resend.Client
	from   string
}

// NewResend builds a Resend sender. An empty baseURL uses the public API.
func NewResend(apiKey, fromAddress, fromName, baseURL string) (*Resend, error) {
	client := resend.NewClient(apiKey)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid resend base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Resend{
		client: client,
		from:   formatFrom(fromName, fromAddress),
	}, nil
}

func (r *Resend) Send(ctx context.Context, msg Message) error {
	_, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	return nil
}
