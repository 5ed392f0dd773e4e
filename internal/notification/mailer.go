// Package notification delivers transactional email for the security
// workflows. Templates render offline so delivery failures are the only
// runtime error source.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	dErrors "gatekey/pkg/domain-errors"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends messages to a single recipient.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig carries the connection settings for the SMTP relay.
type SMTPConfig struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
}

// SMTPMailer delivers mail through a plain SMTP relay with optional AUTH.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
		send:   smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient is required")
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		host := m.cfg.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, host)
	}

	payload := buildPayload(m.cfg.From, msg)
	if err := m.send(m.cfg.Addr, auth, m.cfg.From, []string{msg.To}, payload); err != nil {
		m.logger.ErrorContext(ctx, "mail delivery failed",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()))
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "mail delivery failed")
	}

	m.logger.InfoContext(ctx, "mail sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject))
	return nil
}

func buildPayload(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
