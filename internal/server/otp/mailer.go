package otp

import (
	"context"
	"fmt"
	"net/smtp"
)

// Mailer delivers a passcode to an address. Implementations must treat the
// code as sensitive and not log it.
type Mailer interface {
	Send(ctx context.Context, to string, code string) error
}

// SMTPMailer sends passcodes through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) Send(ctx context.Context, to string, code string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Your sign-in code\r\n\r\nYour one-time passcode is %s. It expires shortly.\r\n",
		m.from, to, code)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
