package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`
	AppEnv  string `env:"APP_ENV" envDefault:"production"`

	// PublicOrigin is the externally visible origin used for absolute links in emails.
	PublicOrigin string `env:"PUBLIC_ORIGIN" envDefault:"http://localhost:8080"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	KeycloakIssuer        string `env:"KEYCLOAK_ISSUER"`
	KeycloakClientID      string `env:"KEYCLOAK_CLIENT_ID"`
	KeycloakRedirectURL   string `env:"KEYCLOAK_REDIRECT_URL"`
	KeycloakPublicBaseURL string `env:"KEYCLOAK_PUBLIC_BASE_URL"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DatabaseDSN string `env:"DATABASE_DSN"`
	// DatabaseAdminDSN connects with elevated credentials for first-login bootstrap.
	// Falls back to DatabaseDSN when unset.
	DatabaseAdminDSN string `env:"DATABASE_ADMIN_DSN"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	OTPTTL     time.Duration `env:"OTP_TTL" envDefault:"10m"`

	// OTPRateLimit bounds code requests per IP; OTPVerifyRateLimit bounds
	// code checks. Both share OTPRateLimitWindow.
	OTPRateLimit       int           `env:"OTP_RATE_LIMIT" envDefault:"5"`
	OTPVerifyRateLimit int           `env:"OTP_VERIFY_RATE_LIMIT" envDefault:"10"`
	OTPRateLimitWindow time.Duration `env:"OTP_RATE_LIMIT_WINDOW" envDefault:"15m"`

	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogSuppress []string `env:"LOG_SUPPRESS" envSeparator:","`

	SMTP SMTPConfig `envPrefix:"SMTP_"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@localhost"`
}

// Load reads configuration from the environment and validates required fields.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DatabaseAdminDSN == "" {
		cfg.DatabaseAdminDSN = cfg.DatabaseDSN
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("missing DATABASE_DSN environment variable")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.OTPTTL <= 0 {
		return errors.New("OTP_TTL must be positive")
	}
	return nil
}

// GoogleEnabled reports whether the Google provider has a complete configuration.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// KeycloakEnabled reports whether the Keycloak provider has a complete configuration.
func (c Config) KeycloakEnabled() bool {
	return c.KeycloakIssuer != "" && c.KeycloakClientID != "" &&
		c.KeycloakRedirectURL != "" && c.KeycloakPublicBaseURL != ""
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
