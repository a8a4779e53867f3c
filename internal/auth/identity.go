package auth

// ExternalIdentity represents a normalized identity returned by an
// authentication provider. It contains facts only, no decisions.
type ExternalIdentity struct {
	Provider       string // e.g. "google", "keycloak", "otp"
	ProviderUserID string // provider-scoped unique user identifier (sub)
	Email          string // email returned by provider
	EmailVerified  bool   // whether provider asserts email ownership
}

// Identity is the authenticated principal after code or OTP exchange.
// ID is the auth user id and doubles as the local user record id.
type Identity struct {
	ID       string
	Email    string
	Provider string
}
