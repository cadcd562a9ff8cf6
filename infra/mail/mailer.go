// Package mail delivers the emails the donation finalizer decides on.
// Delivery mechanics are deliberately thin: the default implementation
// hands the message to a local sendmail-style SMTP relay, and the log
// mailer stands in wherever no relay is available.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/infra/logger"
	"github.com/mstgnz/donate/provider"
)

// SMTPMailer sends finalizer emails through a plain SMTP relay.
type SMTPMailer struct {
	addr        string
	defaultFrom string
}

// NewSMTPMailer creates a mailer for the relay at addr (host:port).
func NewSMTPMailer(addr string) *SMTPMailer {
	return &SMTPMailer{
		addr:        addr,
		defaultFrom: config.GetEnv("MAIL_FROM", "donations@localhost"),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg provider.EmailMessage) error {
	from := msg.SenderEmail
	if from == "" {
		from = m.defaultFrom
	}

	fromHeader := from
	if msg.SenderName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", msg.SenderName, from)
	}

	contentType := msg.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", fromHeader)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Content-Type: %s; charset=utf-8\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return smtp.SendMail(m.addr, nil, from, []string{msg.To}, []byte(b.String()))
}

// LogMailer records emails instead of sending them. Used in development
// and in tests.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg provider.EmailMessage) error {
	logger.Info("email suppressed", logger.LogContext{
		Fields: map[string]any{
			"to":      msg.To,
			"subject": msg.Subject,
		},
	})
	return nil
}
