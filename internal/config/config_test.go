package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", "postgres://app@localhost/atelier")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
		assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
		assert.Equal(t, 587, cfg.SMTP.Port)
		assert.Equal(t, 5, cfg.OTPRateLimit)
		assert.Equal(t, 10, cfg.OTPVerifyRateLimit)
		assert.Equal(t, cfg.DatabaseDSN, cfg.DatabaseAdminDSN)
	})

	t.Run("keeps explicit admin dsn", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", "postgres://app@localhost/atelier")
		t.Setenv("DATABASE_ADMIN_DSN", "postgres://service_role@localhost/atelier")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "postgres://service_role@localhost/atelier", cfg.DatabaseAdminDSN)
	})

	t.Run("splits log suppress list", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", "postgres://app@localhost/atelier")
		t.Setenv("LOG_SUPPRESS", "getSession,insecure")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"getSession", "insecure"}, cfg.LogSuppress)
	})

	t.Run("requires database dsn", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_DSN")
	})

	t.Run("wraps parse errors", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", "postgres://app@localhost/atelier")
		t.Setenv("SESSION_TTL", "forever")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})
}

func TestProviderEnabled(t *testing.T) {
	cfg := Config{
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		GoogleRedirectURL:  "http://localhost/auth/callback?provider=google",
	}
	assert.True(t, cfg.GoogleEnabled())
	assert.False(t, cfg.KeycloakEnabled())
}
