// Package mailer delivers transactional email over SMTP or the Mailtrap
// send API.
package mailer

import (
	"context"
	"fmt"

	"agromart.store/app/internal/config"
)

type Service interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	FromName string
	From     string

	To  []string
	Cc  []string
	Bcc []string

	ReplyTo string
	Subject string

	TextBody string
	HTMLBody string

	Headers map[string]string
}

func (e Email) AllRecipients() []string {
	out := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	out = append(out, e.To...)
	out = append(out, e.Cc...)
	out = append(out, e.Bcc...)
	return out
}

// New returns the transport selected by cfg.Driver.
func New(cfg config.SMTPConfig) (Service, error) {
	switch cfg.Driver {
	case "", "smtp":
		return NewSMTPMailer(cfg), nil
	case "mailtrap":
		return NewMailtrap(cfg.MailtrapURL, cfg.MailtrapToken), nil
	case "mock":
		return &Mock{}, nil
	default:
		return nil, fmt.Errorf("mailer: unknown MAIL_DRIVER %q", cfg.Driver)
	}
}
