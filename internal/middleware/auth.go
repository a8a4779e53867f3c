package middleware

import (
	"context"
	"net/http"

	"atelier-auth/internal/auth"
	"atelier-auth/internal/session"

	"go.uber.org/zap"
)

// unexported, collision-proof context key
type identityContextKeyType struct{}

var identityKey = identityContextKeyType{}

// IdentityFromContext extracts the authenticated identity from context.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentitySource resolves a session id to the current identity.
type IdentitySource interface {
	CurrentIdentity(ctx context.Context, sessionID string) (*auth.Identity, error)
}

type AuthMiddleware struct {
	source IdentitySource
	log    *zap.Logger
}

func NewAuthMiddleware(source IdentitySource, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{source: source, log: log}
}

// RequireAuth rejects requests without a live session using deny.
func (a *AuthMiddleware) RequireAuth(next http.Handler, deny http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read session cookie
		sessionID := session.FromRequest(r)
		if sessionID == "" {
			deny(w, r)
			return
		}

		// 2. Load identity (expired sessions come back nil)
		identity, err := a.source.CurrentIdentity(r.Context(), sessionID)
		if err != nil {
			a.log.Error("session lookup failed", zap.Error(err))
			deny(w, r)
			return
		}
		if identity == nil {
			deny(w, r)
			return
		}

		// 3. Continue with identity attached
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
	})
}

// DenyJSON answers API requests with 401.
func DenyJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}

// DenyRedirect sends top-level navigations to the login page.
func DenyRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}
