package provider

import (
	"context"
	"errors"
	"net/http"

	"atelier-auth/internal/auth"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OIDC implements the authorization-code + PKCE exchange shared by every
// OpenID Connect provider. Concrete providers only differ in discovery.
type OIDC struct {
	name        string
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	log         *zap.Logger
}

func NewOIDC(
	name string,
	oauthConfig *oauth2.Config,
	verifier *oidc.IDTokenVerifier,
	log *zap.Logger,
) *OIDC {
	return &OIDC{
		name:        name,
		oauthConfig: oauthConfig,
		verifier:    verifier,
		log:         log.With(zap.String("provider", name)),
	}
}

// Name returns the provider identifier used by the registry.
func (p *OIDC) Name() string {
	return p.name
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *OIDC) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *OIDC) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.ExternalIdentity, error) {

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		p.log.Warn("token exchange failed", zap.Error(err))
		return nil, ExchangeError(err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, &auth.ProviderError{
			Status:  http.StatusBadGateway,
			Message: "provider did not return id_token",
		}
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		p.log.Warn("id_token verification failed", zap.Error(err))
		return nil, &auth.ProviderError{
			Status:  http.StatusUnauthorized,
			Message: "id_token verification failed",
			Err:     err,
		}
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, &auth.ProviderError{
			Status:  http.StatusBadGateway,
			Message: "id_token claims parse failed",
			Err:     err,
		}
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, &auth.ProviderError{
			Status:  http.StatusBadGateway,
			Message: "id_token missing required claims",
		}
	}

	p.log.Info("oidc verified",
		zap.String("issuer", idToken.Issuer),
		zap.Bool("email_verified", claims.EmailVerified),
		zap.Strings("audience", idToken.Audience),
		zap.Int64("expiry_unix", idToken.Expiry.Unix()),
	)

	return &auth.ExternalIdentity{
		Provider:       p.name,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
	}, nil
}

// ExchangeError converts an oauth2 token endpoint failure into a
// ProviderError carrying the provider's status code and error text.
func ExchangeError(err error) *auth.ProviderError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := http.StatusBadRequest
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		msg := retrieveErr.ErrorCode
		if retrieveErr.ErrorDescription != "" {
			msg = retrieveErr.ErrorCode + ": " + retrieveErr.ErrorDescription
		}
		if msg == "" {
			msg = string(retrieveErr.Body)
		}
		return &auth.ProviderError{Status: status, Message: msg, Err: err}
	}

	return &auth.ProviderError{
		Status:  http.StatusBadGateway,
		Message: err.Error(),
		Err:     err,
	}
}
