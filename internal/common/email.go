package common

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// EmailSender delivers transactional email.
type EmailSender interface {
	Send(to, subject, body string) error
}

// NopEmailSender drops messages. Used when SMTP is not configured.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(string, string, string) error { return nil }

// SMTPEmailSender sends plain-text mail through a single SMTP relay.
type SMTPEmailSender struct {
	Addr string
	From string
	Auth smtp.Auth
}

// NewEmailSender builds the sender both binaries share. Without an SMTP
// address every message is dropped. Credentials are read from SMTP_USER and
// SMTP_PASS when present.
func NewEmailSender(addr, from string) EmailSender {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return NopEmailSender{}
	}
	var auth smtp.Auth
	if user := os.Getenv("SMTP_USER"); user != "" {
		host := addr
		if idx := strings.IndexByte(host, ':'); idx >= 0 {
			host = host[:idx]
		}
		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASS"), host)
	}
	return SMTPEmailSender{Addr: addr, From: from, Auth: auth}
}

// Send implements EmailSender.
func (s SMTPEmailSender) Send(to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("email: recipient is required")
	}
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	return smtp.SendMail(s.Addr, s.Auth, s.From, []string{to}, []byte(msg))
}
