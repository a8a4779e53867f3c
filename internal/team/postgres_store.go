package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atelier-auth/internal/db"

	"github.com/google/uuid"
)

// PostgresStore implements Store. Bootstrap writes go through the admin
// pool, which is connected with credentials that bypass row-level security;
// everything else uses the regular pool.
type PostgresStore struct {
	db    *db.DB
	admin *db.DB
}

func NewPostgresStore(db, admin *db.DB) *PostgresStore {
	if admin == nil {
		admin = db
	}
	return &PostgresStore{db: db, admin: admin}
}

func (s *PostgresStore) UpsertUserBasic(ctx context.Context, id, email string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("team: invalid user id %q: %w", id, err)
	}

	_, err := s.admin.ExecContext(ctx, `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, email)
	if err != nil {
		return fmt.Errorf("team: upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountTeamMemberships(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users_on_team WHERE user_id = $1
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("team: count memberships: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GetUserProfile(ctx context.Context, userID string) (*UserRecord, error) {
	var (
		u           UserRecord
		currentTeam sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, current_team_id
		FROM users
		WHERE id = $1
	`, userID).Scan(&u.ID, &u.Email, &currentTeam)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("team: get profile: %w", err)
	}

	if currentTeam.Valid {
		u.CurrentTeamID = &currentTeam.String
	}
	return &u, nil
}

func (s *PostgresStore) IsMember(ctx context.Context, userID, teamID string) (bool, error) {
	if _, err := uuid.Parse(teamID); err != nil {
		return false, nil
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users_on_team WHERE user_id = $1 AND team_id = $2
		)
	`, userID, teamID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("team: check membership: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SetCurrentTeam(ctx context.Context, userID, teamID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET current_team_id = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, teamID)
	if err != nil {
		return fmt.Errorf("team: set current team: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("team: set current team: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("team: set current team: user %s not found", userID)
	}
	return nil
}

func (s *PostgresStore) ListTeams(ctx context.Context, userID string) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, m.role, t.created_at
		FROM users_on_team m
		JOIN teams t ON t.id = m.team_id
		WHERE m.user_id = $1
		ORDER BY t.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("team: list teams: %w", err)
	}
	defer rows.Close()

	teams := []Team{}
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Role, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("team: scan team: %w", err)
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}
