package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atelier-auth/internal/utils"
)

var (
	ErrInvalidCode     = errors.New("invalid or expired code")
	ErrTooManyAttempts = errors.New("too many attempts")
)

const maxAttempts = 5

// Sender delivers a code to the user.
type Sender interface {
	SendCode(ctx context.Context, email, code string) error
}

type Service struct {
	store  Store
	sender Sender
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store Store, sender Sender, ttl time.Duration) *Service {
	return &Service{
		store:  store,
		sender: sender,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue generates a new code for email, replacing any pending one, and
// hands it to the sender.
func (s *Service) Issue(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return errors.New("otp: email is required")
	}

	code, err := utils.RandomDigits(CodeLength)
	if err != nil {
		return err
	}

	hash, err := hashCode(code)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, email, Code{
		Hash:      hash,
		ExpiresAt: s.now().Add(s.ttl),
	}); err != nil {
		return fmt.Errorf("otp: save: %w", err)
	}

	if err := s.sender.SendCode(ctx, email, code); err != nil {
		return fmt.Errorf("otp: send: %w", err)
	}

	return nil
}

// Verify checks token against the pending code for email. Every call counts
// as an attempt before the hash is compared, so concurrent guesses share the
// limit; once it is spent the code stays locked until it expires or a new
// one is issued. A matching code is consumed exactly once.
func (s *Service) Verify(ctx context.Context, email, token string) error {
	email = NormalizeEmail(email)

	pending, err := s.store.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("otp: load: %w", err)
	}
	now := s.now()
	if pending == nil || now.After(pending.ExpiresAt) {
		return ErrInvalidCode
	}

	n, err := s.store.Attempt(ctx, email, pending.ExpiresAt.Sub(now))
	if err != nil {
		return err
	}
	if n > maxAttempts {
		return ErrTooManyAttempts
	}

	if !verifyCode(pending.Hash, token) {
		return ErrInvalidCode
	}

	consumed, err := s.store.Consume(ctx, email)
	if err != nil {
		return fmt.Errorf("otp: consume: %w", err)
	}
	if !consumed {
		return ErrInvalidCode
	}
	return nil
}
