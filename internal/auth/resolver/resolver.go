package resolver

import (
	"context"

	"atelier-auth/internal/auth"
)

// Resolver determines which auth user an external identity belongs to.
// It is the only place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.ExternalIdentity,
	) (userID string, err error)

	// Lookup returns the auth user's email, or auth.ErrNoIdentity when the
	// user does not exist.
	Lookup(ctx context.Context, userID string) (email string, err error)
}
