package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"atelier-auth/internal/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends sign-in codes over SMTP.
type Mailer struct {
	from     string
	loginURL string
	dialer   *gomail.Dialer
}

// New creates a Mailer from SMTP configuration. origin is the public origin
// the login page is served from.
func New(cfg config.SMTPConfig, origin string) (*Mailer, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &Mailer{
		from:     cfg.From,
		loginURL: strings.TrimRight(origin, "/") + "/login",
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// SendCode emails a one-time sign-in code.
func (m *Mailer) SendCode(_ context.Context, email, code string) error {
	return m.dialer.DialAndSend(m.codeMessage(email, code))
}

func (m *Mailer) codeMessage(email, code string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Your sign-in code")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your sign-in code is %s.\n\nEnter it at %s. It expires shortly. If you did not request it, you can ignore this email.\n",
		code, m.loginURL,
	))
	msg.AddAlternative("text/html", fmt.Sprintf(
		"<p>Your sign-in code is <strong>%s</strong>.</p><p>Enter it at <a href=\"%s\">%s</a>. If you did not request it, you can ignore this email.</p>",
		code, m.loginURL, m.loginURL,
	))
	return msg
}

func validate(cfg config.SMTPConfig) error {
	if cfg.Host == "" {
		return errors.New("missing SMTP_HOST environment variable")
	}
	if cfg.Port == 0 {
		return errors.New("missing SMTP_PORT environment variable")
	}
	if cfg.From == "" {
		return errors.New("missing SMTP_FROM environment variable")
	}
	return nil
}

// LogSender writes codes to the log instead of sending mail.
// Only wired in development.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendCode(_ context.Context, email, code string) error {
	s.log.Info("sign-in code issued", zap.String("email", email), zap.String("code", code))
	return nil
}
