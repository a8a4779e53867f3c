package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atelier-auth/internal/auth"
	"atelier-auth/internal/db"

	"github.com/google/uuid"
)

// DBResolver resolves identities using the auth_users and identities tables.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) Resolve(
	ctx context.Context,
	identity *auth.ExternalIdentity,
) (string, error) {

	if identity == nil {
		return "", errors.New("identity is nil")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("resolver: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// 1. Known identity
	var userID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		SELECT user_id
		FROM identities
		WHERE provider = $1
		  AND provider_user_id = $2
	`,
		identity.Provider,
		identity.ProviderUserID,
	).Scan(&userID)

	if err == nil {
		return userID.String(), tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("resolver: lookup identity: %w", err)
	}

	// 2. Existing user by email, else create. The upsert keeps concurrent
	// first logins for the same email on a single row.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO auth_users (email, email_verified)
		VALUES ($1, $2)
		ON CONFLICT ((LOWER(email))) DO UPDATE
		SET email_verified = auth_users.email_verified OR EXCLUDED.email_verified,
		    updated_at = NOW()
		RETURNING id
	`,
		identity.Email,
		identity.EmailVerified,
	).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("resolver: upsert auth user: %w", err)
	}

	// 3. Link identity
	_, err = tx.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, provider_user_id) DO NOTHING
	`,
		userID,
		identity.Provider,
		identity.ProviderUserID,
	)
	if err != nil {
		return "", fmt.Errorf("resolver: link identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("resolver: commit: %w", err)
	}

	return userID.String(), nil
}

func (r *DBResolver) Lookup(ctx context.Context, userID string) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx, `
		SELECT email FROM auth_users WHERE id = $1
	`, userID).Scan(&email)

	if errors.Is(err, sql.ErrNoRows) {
		return "", auth.ErrNoIdentity
	}
	if err != nil {
		return "", fmt.Errorf("resolver: lookup user: %w", err)
	}

	return email, nil
}
