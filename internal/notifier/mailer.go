package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/inkdesk/storefront/internal/circuitbreaker"
	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers through an SMTP relay behind a circuit breaker.
type SMTPMailer struct {
	cfg     SMTPConfig
	breaker *circuitbreaker.Breaker
	send    func(e *email.Email) error
}

func NewSMTPMailer(cfg SMTPConfig, log zerolog.Logger) *SMTPMailer {
	m := &SMTPMailer{
		cfg:     cfg,
		breaker: circuitbreaker.New("smtp", circuitbreaker.DefaultSettings(), log),
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	m.send = func(e *email.Email) error {
		return e.Send(addr, auth)
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)

	if err := m.breaker.Do(func() error { return m.send(e) }); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
