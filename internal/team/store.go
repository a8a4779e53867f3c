package team

import (
	"context"
	"time"
)

// UserRecord is the application's mirror of an authenticated identity.
type UserRecord struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	CurrentTeamID *string `json:"current_team_id"`
}

// Team is a tenant the user belongs to.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence contract used by the resolver and launch flow.
type Store interface {
	// UpsertUserBasic creates the user record if missing. It never touches
	// current_team_id of an existing row.
	UpsertUserBasic(ctx context.Context, id, email string) error

	// CountTeamMemberships returns how many teams the user belongs to.
	CountTeamMemberships(ctx context.Context, userID string) (int, error)

	// GetUserProfile returns nil, nil when the user record does not exist.
	GetUserProfile(ctx context.Context, userID string) (*UserRecord, error)

	IsMember(ctx context.Context, userID, teamID string) (bool, error)
	SetCurrentTeam(ctx context.Context, userID, teamID string) error
	ListTeams(ctx context.Context, userID string) ([]Team, error)
}
