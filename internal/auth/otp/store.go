package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Code is a pending one-time code for an email address.
type Code struct {
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists pending codes keyed by normalized email.
type Store interface {
	// Save replaces any pending code and resets its attempt counter.
	Save(ctx context.Context, email string, c Code) error
	// Get returns nil, nil when no code is pending.
	Get(ctx context.Context, email string) (*Code, error)
	// Attempt atomically records one verification attempt and returns the
	// running total for the pending code.
	Attempt(ctx context.Context, email string, ttl time.Duration) (int, error)
	// Consume removes the pending code. Only one caller ever gets true.
	Consume(ctx context.Context, email string) (bool, error)
}

// countAttempt increments the attempt counter, expiring it with the code.
var countAttempt = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func codeKey(email string) string {
	return "otp:" + NormalizeEmail(email)
}

func attemptsKey(email string) string {
	return "otp:attempts:" + NormalizeEmail(email)
}

func (r *RedisStore) Save(ctx context.Context, email string, c Code) error {
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return errors.New("otp: expires_at must be in the future")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("otp: marshal: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, codeKey(email), data, ttl)
		pipe.Del(ctx, attemptsKey(email))
		return nil
	})
	return err
}

func (r *RedisStore) Get(ctx context.Context, email string) (*Code, error) {
	val, err := r.client.Get(ctx, codeKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var c Code
	if err := json.Unmarshal(val, &c); err != nil {
		return nil, fmt.Errorf("otp: unmarshal: %w", err)
	}
	return &c, nil
}

func (r *RedisStore) Attempt(ctx context.Context, email string, ttl time.Duration) (int, error) {
	if ttl < time.Second {
		ttl = time.Second
	}
	n, err := countAttempt.Run(ctx, r.client, []string{attemptsKey(email)}, ttl.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("otp: count attempt: %w", err)
	}
	return n, nil
}

func (r *RedisStore) Consume(ctx context.Context, email string) (bool, error) {
	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, codeKey(email))
		pipe.Del(ctx, attemptsKey(email))
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
