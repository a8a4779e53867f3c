package keycloak

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"atelier-auth/internal/auth/provider"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const providerName = "keycloak"

// New initializes a Keycloak OIDC provider using discovery.
// issuer must be the realm issuer URL, e.g.
// http://keycloak:8080/realms/atelier
// publicBaseURL replaces the issuer host in the browser-facing
// authorization URL when Keycloak is reached through a different hostname.
func New(
	ctx context.Context,
	issuer string,
	clientID string,
	redirectURL string,
	publicBaseURL string,
	log *zap.Logger,
) (*provider.OIDC, error) {

	if issuer == "" || clientID == "" || redirectURL == "" || publicBaseURL == "" {
		return nil, errors.New("keycloak oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init keycloak oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	ep := oidcProvider.Endpoint()
	ep.AuthURL = PublicAuthURL(ep.AuthURL, issuer, publicBaseURL)

	oauthCfg := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Endpoint:    ep,
		Scopes: []string{
			oidc.ScopeOpenID,
			"email",
			"profile",
		},
	}

	return provider.NewOIDC(providerName, oauthCfg, verifier, log), nil
}

// PublicAuthURL rewrites the discovered authorization endpoint so that the
// issuer origin is replaced by publicBaseURL.
func PublicAuthURL(authURL, issuer, publicBaseURL string) string {
	publicBaseURL = strings.TrimRight(publicBaseURL, "/")

	idx := strings.Index(issuer, "/realms/")
	if idx < 0 {
		return authURL
	}
	issuerOrigin := issuer[:idx]

	if !strings.HasPrefix(authURL, issuerOrigin) {
		return authURL
	}
	return publicBaseURL + strings.TrimPrefix(authURL, issuerOrigin)
}
