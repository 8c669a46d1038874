package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailSenderWithoutAddrDropsMail(t *testing.T) {
	sender := NewEmailSender("", "no-reply@wovenshop.dev")
	assert.IsType(t, NopEmailSender{}, sender)
}

func TestNewEmailSenderUsesConfiguredRelay(t *testing.T) {
	t.Setenv("SMTP_USER", "")
	sender := NewEmailSender("mail.wovenshop.dev:587", "no-reply@wovenshop.dev")
	smtpSender, ok := sender.(SMTPEmailSender)
	require.True(t, ok)
	assert.Equal(t, "mail.wovenshop.dev:587", smtpSender.Addr)
	assert.Equal(t, "no-reply@wovenshop.dev", smtpSender.From)
	assert.Nil(t, smtpSender.Auth)
}

func TestNewEmailSenderPicksUpCredentials(t *testing.T) {
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SMTP_PASS", "secret")
	sender := NewEmailSender("mail.wovenshop.dev:587", "no-reply@wovenshop.dev")
	smtpSender, ok := sender.(SMTPEmailSender)
	require.True(t, ok)
	assert.NotNil(t, smtpSender.Auth)
}

func TestSMTPEmailSenderRequiresRecipient(t *testing.T) {
	err := SMTPEmailSender{Addr: "localhost:25", From: "no-reply@wovenshop.dev"}.Send("  ", "subject", "body")
	require.Error(t, err)
}
