// Package exchange turns provider-issued proof (an OAuth authorization code
// or an emailed one-time code) into a verified identity and a server-side
// session. It never decides where the user goes next.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"atelier-auth/internal/auth"
	"atelier-auth/internal/auth/otp"
	"atelier-auth/internal/auth/provider"
	"atelier-auth/internal/auth/resolver"
	"atelier-auth/internal/session"

	"go.uber.org/zap"
)

// ProviderOTP is the preference cookie value for email code sign-in.
const ProviderOTP = "otp"

// CodeVerifier issues and checks one-time codes.
type CodeVerifier interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, token string) error
}

// Result is a verified identity with the session created for it.
type Result struct {
	Identity auth.Identity
	Session  session.Session
}

type Exchanger struct {
	providers *provider.Registry
	resolver  resolver.Resolver
	codes     CodeVerifier
	sessions  session.Store
	ttl       time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func New(
	providers *provider.Registry,
	resolver resolver.Resolver,
	codes CodeVerifier,
	sessions session.Store,
	ttl time.Duration,
	log *zap.Logger,
) *Exchanger {
	return &Exchanger{
		providers: providers,
		resolver:  resolver,
		codes:     codes,
		sessions:  sessions,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
	}
}

// ExchangeCode exchanges an OAuth authorization code with the named provider.
// Provider rejections are returned as *auth.ProviderError.
func (e *Exchanger) ExchangeCode(
	ctx context.Context,
	providerName string,
	code string,
	codeVerifier string,
) (*Result, error) {

	p, err := e.providers.Get(providerName)
	if err != nil {
		return nil, &auth.ProviderError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}

	external, err := p.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		var pe *auth.ProviderError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, provider.ExchangeError(err)
	}

	userID, err := e.resolver.Resolve(ctx, external)
	if err != nil {
		return nil, fmt.Errorf("exchange: resolve identity: %w", err)
	}

	identity := auth.Identity{ID: userID, Email: external.Email, Provider: p.Name()}

	sess, err := e.createSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &Result{Identity: identity, Session: sess}, nil
}

// SendOTP issues a one-time code for email.
func (e *Exchanger) SendOTP(ctx context.Context, email string) error {
	return e.codes.Issue(ctx, email)
}

// VerifyOTP validates a one-time code for email and opens a session.
//
// After the session is written it is read back and the identity reloaded;
// a missing session yields auth.ErrNoSession and a missing user
// auth.ErrNoIdentity.
func (e *Exchanger) VerifyOTP(ctx context.Context, email, token string) (*Result, error) {
	if err := e.codes.Verify(ctx, email, token); err != nil {
		return nil, otpError(err)
	}

	email = otp.NormalizeEmail(email)
	userID, err := e.resolver.Resolve(ctx, &auth.ExternalIdentity{
		Provider:       ProviderOTP,
		ProviderUserID: email,
		Email:          email,
		EmailVerified:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: resolve identity: %w", err)
	}

	sess, err := e.createSession(ctx, auth.Identity{ID: userID, Email: email, Provider: ProviderOTP})
	if err != nil {
		e.log.Error("otp session not created", zap.String("user_id", userID), zap.Error(err))
		return nil, auth.ErrNoSession
	}

	identity, err := e.CurrentIdentity(ctx, sess.SessionID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, auth.ErrNoIdentity
	}

	return &Result{Identity: *identity, Session: sess}, nil
}

// CurrentIdentity returns the identity behind a session id, or nil when the
// session is missing, expired, or its user no longer exists.
func (e *Exchanger) CurrentIdentity(ctx context.Context, sessionID string) (*auth.Identity, error) {
	if sessionID == "" {
		return nil, nil
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("exchange: load session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	if e.now().After(sess.ExpiresAt) {
		if err := e.sessions.Delete(ctx, sessionID); err != nil {
			e.log.Warn("expired session not deleted",
				zap.String("user_id", sess.UserID),
				zap.Error(err),
			)
		}
		return nil, nil
	}

	email, err := e.resolver.Lookup(ctx, sess.UserID)
	if errors.Is(err, auth.ErrNoIdentity) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &auth.Identity{ID: sess.UserID, Email: email, Provider: sess.Provider}, nil
}

// SignOut deletes the session. Missing sessions are not an error.
func (e *Exchanger) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return e.sessions.Delete(ctx, sessionID)
}

func (e *Exchanger) createSession(ctx context.Context, identity auth.Identity) (session.Session, error) {
	sessionID, err := session.GenerateID()
	if err != nil {
		return session.Session{}, err
	}

	now := e.now()
	sess := session.Session{
		SessionID: sessionID,
		UserID:    identity.ID,
		Email:     identity.Email,
		Provider:  identity.Provider,
		CreatedAt: now,
		ExpiresAt: now.Add(e.ttl),
	}

	if err := e.sessions.Create(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("exchange: persist session: %w", err)
	}

	return sess, nil
}

func otpError(err error) error {
	switch {
	case errors.Is(err, otp.ErrInvalidCode):
		return &auth.ProviderError{Status: http.StatusUnauthorized, Message: "Token has expired or is invalid", Err: err}
	case errors.Is(err, otp.ErrTooManyAttempts):
		return &auth.ProviderError{Status: http.StatusTooManyRequests, Message: "Too many attempts", Err: err}
	default:
		return &auth.ProviderError{Status: http.StatusInternalServerError, Message: "Verification unavailable", Err: err}
	}
}
