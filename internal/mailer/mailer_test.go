package mailer

import (
	"bytes"
	"context"
	"testing"

	"atelier-auth/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewValidates(t *testing.T) {
	_, err := New(config.SMTPConfig{Port: 587, From: "a@b"}, "")
	assert.ErrorContains(t, err, "SMTP_HOST")

	_, err = New(config.SMTPConfig{Host: "smtp", From: "a@b"}, "")
	assert.ErrorContains(t, err, "SMTP_PORT")

	m, err := New(config.SMTPConfig{Host: "smtp", Port: 587, From: "no-reply@atelier.test"}, "https://atelier.test/")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestCodeMessage(t *testing.T) {
	m, err := New(config.SMTPConfig{Host: "smtp", Port: 587, From: "no-reply@atelier.test"}, "https://atelier.test/")
	require.NoError(t, err)

	msg := m.codeMessage("ada@atelier.test", "482913")
	assert.Equal(t, []string{"no-reply@atelier.test"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"ada@atelier.test"}, msg.GetHeader("To"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "482913")
	assert.Equal(t, "https://atelier.test/login", m.loginURL)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.SendCode(context.Background(), "ada@atelier.test", "482913"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "482913", logs.All()[0].ContextMap()["code"])
}
