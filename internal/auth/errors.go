package auth

import (
	"errors"
	"fmt"
)

// ErrNoIdentity means verification succeeded but no identity could be
// loaded afterwards. Callers treat it as unauthenticated.
var ErrNoIdentity = errors.New("no identity after verification")

// ProviderError is returned when the identity provider rejects a code or
// one-time token. Status and Message are surfaced to the login page.
type ProviderError struct {
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%d): %s", e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// BootstrapError is returned when the local user record could not be
// created on first login.
type BootstrapError struct {
	UserID string
	Err    error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap user %s: %v", e.UserID, e.Err)
}

func (e *BootstrapError) Unwrap() error {
	return e.Err
}

// MembershipLookupError is returned when team membership or profile reads fail.
type MembershipLookupError struct {
	UserID string
	Err    error
}

func (e *MembershipLookupError) Error() string {
	return fmt.Sprintf("membership lookup for %s: %v", e.UserID, e.Err)
}

func (e *MembershipLookupError) Unwrap() error {
	return e.Err
}

// ErrNoSession means verification succeeded but no session could be
// established for the identity.
var ErrNoSession = errors.New("no session after verification")
