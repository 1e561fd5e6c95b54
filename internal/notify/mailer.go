package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/pkg/errors"
)

type SMTP struct {
	Host     string        `yaml:"host" envconfig:"SMTP_HOST"`
	Port     string        `yaml:"port" envconfig:"SMTP_PORT" default:"587"`
	From     string        `yaml:"from" envconfig:"SMTP_FROM"`
	Username string        `yaml:"username" envconfig:"SMTP_USERNAME"`
	Password string        `yaml:"password" envconfig:"SMTP_PASSWORD"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"SMTP_TIMEOUT" default:"10s"`
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type smtpMailer struct {
	cfg SMTP
}

func NewMailer(cfg SMTP) *smtpMailer {
	return &smtpMailer{cfg: cfg}
}

// Send delivers one plain-text message through the configured relay. The
// connection deadline is bounded by cfg.Timeout and the caller's context.
func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	conn, err := net.DialTimeout("tcp", addr, m.cfg.Timeout)
	if err != nil {
		return errors.Wrap(err, "smtp dial")
	}
	deadline := time.Now().Add(m.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "smtp client")
	}
	defer client.Close()

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return errors.Wrap(err, "smtp auth")
			}
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return errors.Wrap(err, "smtp mail")
	}
	if err := client.Rcpt(to); err != nil {
		return errors.Wrap(err, "smtp rcpt")
	}
	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "smtp data")
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		return errors.Wrap(err, "smtp write")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "smtp close data")
	}
	return client.Quit()
}
