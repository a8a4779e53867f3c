package handler

import (
	"context"
	"net/http"

	"atelier-auth/internal/auth"
	"atelier-auth/internal/auth/exchange"
	"atelier-auth/internal/auth/provider"
	"atelier-auth/internal/middleware"
	"atelier-auth/internal/session"
	"atelier-auth/internal/team"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionExchanger converts provider proof into identities and sessions.
type SessionExchanger interface {
	ExchangeCode(ctx context.Context, provider, code, codeVerifier string) (*exchange.Result, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, token string) (*exchange.Result, error)
	CurrentIdentity(ctx context.Context, sessionID string) (*auth.Identity, error)
	SignOut(ctx context.Context, sessionID string) error
}

// TeamResolver decides where an authenticated user goes next.
type TeamResolver interface {
	Bootstrap(ctx context.Context, identity auth.Identity) error
	ResolveNextRoute(ctx context.Context, identity auth.Identity, returnTo string) (team.RedirectTarget, error)
}

type Options struct {
	// SecureCookies marks every cookie Secure. Disable only for plain-http development.
	SecureCookies bool

	// IssueLimit and VerifyLimit guard code requests and code checks.
	// Nil disables limiting.
	IssueLimit  *middleware.RateLimiter
	VerifyLimit *middleware.RateLimiter
}

type Handler struct {
	providers *provider.Registry
	exchanger SessionExchanger
	resolver  TeamResolver
	teams     team.Store
	log       *zap.Logger
	opts      Options
}

func NewHandler(
	registry *provider.Registry,
	exchanger SessionExchanger,
	resolver TeamResolver,
	teams team.Store,
	log *zap.Logger,
	opts Options,
) *Handler {
	return &Handler{
		providers: registry,
		exchanger: exchanger,
		resolver:  resolver,
		teams:     teams,
		log:       log,
		opts:      opts,
	}
}

// RegisterRoutes mounts the auth and team routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, authMiddleware *middleware.AuthMiddleware) {
	issueLimit := limit(h.opts.IssueLimit, nil)
	// code checks are browser form posts, so rejections go back to the login page
	verifyLimit := limit(h.opts.VerifyLimit, func(c *gin.Context) {
		otpFailed(c, "Too many requests")
	})

	r.GET("/oauth/login/:provider", h.login)
	r.GET("/auth/callback", h.callback)
	r.POST("/auth/verify-otp", verifyLimit, h.verifyOTPAction)
	r.POST("/auth/logout", h.logout)

	api := r.Group("/api")
	api.POST("/auth/otp", issueLimit, h.sendOTP)
	api.POST("/auth/verify-otp", verifyLimit, h.verifyOTP)
	api.POST("/teams/launch", h.launchTeam)

	protected := api.Group("")
	protected.Use(middleware.GinRequireAuth(authMiddleware, middleware.DenyJSON))
	protected.GET("/teams", h.listTeams)
	protected.GET("/me", h.me)

	for _, route := range r.Routes() {
		h.log.Debug("route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}
}

func limit(l *middleware.RateLimiter, deny gin.HandlerFunc) gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return l.MiddlewareWith(deny)
}

func (h *Handler) cookieOptions() session.CookieOptions {
	return session.CookieOptions{
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) setSessionCookie(c *gin.Context, s session.Session) {
	session.SetCookie(c.Writer, s.SessionID, s.ExpiresAt, h.cookieOptions())
}

// discardSession deletes a session whose user could not be bootstrapped and
// clears any cookie the browser may still hold for it.
func (h *Handler) discardSession(c *gin.Context, sessionID string) {
	if err := h.exchanger.SignOut(c.Request.Context(), sessionID); err != nil {
		h.log.Error("session discard failed", zap.Error(err))
	}
	session.ClearCookie(c.Writer, h.cookieOptions())
}

func (h *Handler) setPreferenceCookie(c *gin.Context, providerName string) {
	session.SetPreferenceCookie(c.Writer, providerName, h.opts.SecureCookies)
}
