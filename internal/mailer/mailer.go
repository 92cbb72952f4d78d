// Package mailer sends the transactional "your video is ready" emails through
// SendGrid or Resend.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/princekumarofficial/screencast-service/internal/config"
)

var ErrUnknownProvider = errors.New("unknown email provider")

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender dispatches a single email. Implementations make exactly one provider
// call per Send and do not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the sender for cfg.Provider. Missing credentials are reported
// with the config package errors so callers can surface them as configuration
// failures.
func New(cfg config.Email) (Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "sendgrid":
		return NewSendGrid(cfg.SendGridAPIKey, cfg.FromAddress, cfg.FromName, cfg.BaseURL), nil
	case "resend":
		return NewResend(cfg.ResendAPIKey, cfg.FromAddress, cfg.FromName, cfg.BaseURL)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
}

// UploadComplete is sent once a clip has been marked completed.
func UploadComplete(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Your Video Upload is Complete",
		HTML: fmt.Sprintf(`<h1>Video Upload Complete</h1>
<p>Your video has been successfully uploaded and processed.</p>
<p><a href="%s">View your video</a></p>`, html.EscapeString(link)),
	}
}

// VideoReady is sent by the processing function after a transcode.
func VideoReady(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Your video is ready!",
		HTML: fmt.Sprintf(`<h2>Processing Completed</h2>
<p>Your video has been processed and is ready to view.</p>
<p><a href="%s">Click here to view your video</a></p>`, html.EscapeString(link)),
	}
}

func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}
