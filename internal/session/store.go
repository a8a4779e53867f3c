package session

import (
	"context"
	"time"
)

// Session represents an authenticated user session.
// It stores identity pointers only; team state lives in the database.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"` // references auth_users.id
	Email     string    `json:"email"`
	Provider  string    `json:"provider"` // sign-in method that created the session
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"` // absolute expiry time
}

// Store defines how sessions are stored and retrieved.
type Store interface {
	Create(ctx context.Context, s Session) error
	// Get returns nil, nil when the session does not exist.
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}
