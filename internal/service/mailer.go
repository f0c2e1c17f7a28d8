package service

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/spec-kit/bug-tracker/internal/config"
)

// Mailer delivers a single outbound message. Implementations must be safe
// for concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// smtpMailer sends through a plain SMTP relay.
type smtpMailer struct {
	cfg config.MailConfig
}

// NewSMTPMailer builds a Mailer backed by the configured SMTP host.
func NewSMTPMailer(cfg config.MailConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}

// logMailer records sends instead of delivering them; used when no SMTP
// host is configured.
type logMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a Mailer that only logs.
func NewLogMailer(logger *zap.Logger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Debug("mail send skipped, no transport configured",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
