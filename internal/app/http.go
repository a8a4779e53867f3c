package app

import (
	"context"
	"net/http"

	"atelier-auth/internal/auth/exchange"
	"atelier-auth/internal/auth/handler"
	"atelier-auth/internal/auth/otp"
	"atelier-auth/internal/auth/provider"
	"atelier-auth/internal/auth/provider/google"
	"atelier-auth/internal/auth/provider/keycloak"
	"atelier-auth/internal/auth/resolver"
	"atelier-auth/internal/config"
	"atelier-auth/internal/mailer"
	"atelier-auth/internal/middleware"
	"atelier-auth/internal/session"
	"atelier-auth/internal/team"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupHTTP(ctx context.Context, cfg config.Config, log *zap.Logger) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	fail := func(err error) (*gin.Engine, func() error, error) {
		_ = infra.Close()
		return nil, nil, err
	}

	// ----------------------------
	// Providers
	// ----------------------------

	var providers []provider.OAuthProvider

	if cfg.GoogleEnabled() {
		p, err := google.New(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, log)
		if err != nil {
			return fail(err)
		}
		providers = append(providers, p)
	}

	if cfg.KeycloakEnabled() {
		p, err := keycloak.New(ctx, cfg.KeycloakIssuer, cfg.KeycloakClientID,
			cfg.KeycloakRedirectURL, cfg.KeycloakPublicBaseURL, log)
		if err != nil {
			return fail(err)
		}
		providers = append(providers, p)
	}

	registry := provider.NewRegistry(providers...)
	log.Info("oauth providers configured", zap.Strings("providers", registry.Names()))

	// ----------------------------
	// One-time codes
	// ----------------------------

	var sender otp.Sender
	if cfg.IsDevelopment() && cfg.SMTP.Host == "" {
		log.Warn("SMTP_HOST unset; sign-in codes are written to the log")
		sender = mailer.NewLogSender(log)
	} else {
		m, err := mailer.New(cfg.SMTP, cfg.PublicOrigin)
		if err != nil {
			return fail(err)
		}
		sender = m
	}

	codes := otp.NewService(otp.NewRedisStore(infra.Redis.Client), sender, cfg.OTPTTL)

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	identityResolver := resolver.NewDBResolver(infra.AdminDB)

	exchanger := exchange.New(
		registry,
		identityResolver,
		codes,
		sessionStore,
		cfg.SessionTTL,
		log.Named("exchange"),
	)

	teamStore := team.NewPostgresStore(infra.DB, infra.AdminDB)
	teamResolver := team.NewResolver(teamStore, log.Named("team"))

	authMiddleware := middleware.NewAuthMiddleware(exchanger, log)
	issueLimiter := middleware.NewRateLimiter(
		infra.Redis.Client,
		"otp-issue",
		cfg.OTPRateLimit,
		cfg.OTPRateLimitWindow,
		log,
	)
	verifyLimiter := middleware.NewRateLimiter(
		infra.Redis.Client,
		"otp-verify",
		cfg.OTPVerifyRateLimit,
		cfg.OTPRateLimitWindow,
		log,
	)

	authHandler := handler.NewHandler(
		registry,
		exchanger,
		teamResolver,
		teamStore,
		log.Named("http"),
		handler.Options{
			SecureCookies: !cfg.IsDevelopment(),
			IssueLimit:    issueLimiter,
			VerifyLimit:   verifyLimiter,
		},
	)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(log.Named("access")),
		middleware.SecureHeaders(!cfg.IsDevelopment()),
	)

	authHandler.RegisterRoutes(router, authMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, infra.Close, nil
}
