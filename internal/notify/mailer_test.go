package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_Send(t *testing.T) {
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "alerts@example.com", Password: "secret"})
	m.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	m.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), Message{To: "a@x.com", Subject: "⚠️ Pollutant Alert for Oslo", Body: "line one\nline two\n"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "alerts@example.com", gotFrom)
	assert.Equal(t, []string{"a@x.com"}, gotTo)
	assert.Contains(t, gotMsg, "From: alerts@example.com\r\n")
	assert.Contains(t, gotMsg, "To: a@x.com\r\n")
	assert.Contains(t, gotMsg, "Subject: =?utf-8?q?")
	assert.Contains(t, gotMsg, "Date: Mon, 10 Mar 2025 12:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nline one\r\nline two\r\n"))
}

func TestSMTPMailer_DefaultSender(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25})
	assert.Equal(t, DefaultSender, m.cfg.From)

	m = NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25, Username: "u@example.com", From: "alerts@example.com"})
	assert.Equal(t, "alerts@example.com", m.cfg.From)
}

func TestSMTPMailer_SendError(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25, Username: "u", Password: "p"})
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("535 auth failed") }

	err := m.Send(context.Background(), Message{To: "a@x.com"})
	assert.ErrorContains(t, err, "535")
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	called := false
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25})
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error { called = true; return nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "a@x.com"}), context.Canceled)
	assert.False(t, called)
}

func TestSMTPConfig_Configured(t *testing.T) {
	assert.False(t, SMTPConfig{Host: "h"}.Configured())
	assert.True(t, SMTPConfig{Host: "h", Username: "u", Password: "p"}.Configured())
}
