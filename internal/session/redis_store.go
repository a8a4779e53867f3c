package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionExists is returned when a session id is already taken.
var ErrSessionExists = errors.New("session: id already in use")

const keyPrefix = "session:"

// RedisStore keeps sessions as JSON documents under session:<id>. Redis
// expiry is aligned with the absolute ExpiresAt so no sweeping is needed.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Create stores a new session. An existing session is never overwritten.
func (r *RedisStore) Create(ctx context.Context, s Session) error {
	if s.SessionID == "" || s.UserID == "" {
		return errors.New("session: session_id and user_id are required")
	}

	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("session: already expired")
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	created, err := r.client.SetNX(ctx, key(s.SessionID), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("session: store: %w", err)
	}
	if !created {
		return ErrSessionExists
	}
	return nil
}

// Get loads a session. Missing and expired sessions both yield nil, nil.
func (r *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	payload, err := r.client.Get(ctx, key(sessionID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("session: load: %w", err)
	}

	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}

	// Key TTL and ExpiresAt can drift by clock skew between instances.
	if !r.now().Before(s.ExpiresAt) {
		_ = r.client.Del(ctx, key(sessionID)).Err()
		return nil, nil
	}

	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
