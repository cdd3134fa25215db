// Package mailer defines the transactional mail collaborator. Send failures
// are non-fatal side effects: logged by the caller, never blocking.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends transactional mail
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Noop discards every message, used when no SMTP server is configured
type Noop struct{}

func (Noop) Send(context.Context, string, string, string) error {
	return nil
}

// SMTP sends mail through a plain SMTP relay
type SMTP struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTP creates an SMTP mailer. Auth is skipped when user is empty.
func NewSMTP(addr, from, user, password string) *SMTP {
	m := &SMTP{addr: addr, from: from}
	if user != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		m.auth = smtp.PlainAuth("", user, password, host)
	}
	return m
}

func (m *SMTP) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
