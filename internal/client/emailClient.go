package client

import (
	"context"
	"fmt"
	"net/smtp"

	"codehut/internal/config"

	"github.com/jordan-wright/email"
	log "github.com/sirupsen/logrus"
)

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type smtpEmailSender struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewEmailSender returns an SMTP sender, or a sender that only logs when SMTP is not configured.
func NewEmailSender(cfg *config.SMTP) EmailSender {
	if !cfg.Enabled() {
		return &logEmailSender{}
	}
	return &smtpEmailSender{
		host: cfg.Host,
		port: cfg.Port,
		user: cfg.User,
		pass: cfg.Password,
		from: cfg.From,
	}
}

func (s *smtpEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	return e.Send(addr, auth)
}

type logEmailSender struct{}

func (s *logEmailSender) SendEmail(_ context.Context, to, subject, _ string) error {
	log.WithFields(log.Fields{
		"to":      to,
		"subject": subject,
	}).Debug("SMTP not configured, email skipped")
	return nil
}
