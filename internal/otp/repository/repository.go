package repository

import (
	"context"
	"errors"
	"time"

	"portfolio-cms/backend/internal/otp/domain"
)

// ErrChallengeNotFound is returned by updates that target a missing challenge.
var ErrChallengeNotFound = errors.New("otp: challenge not found")

// Repository persists OTP challenges keyed by (purpose, mobile). Implementations must make
// each method atomic for its key.
type Repository interface {
	// Save stores c, replacing any challenge with the same purpose and mobile.
	Save(ctx context.Context, c *domain.Challenge) error
	// Get returns the challenge, or nil if none exists. Expired challenges may still be returned.
	Get(ctx context.Context, purpose domain.Purpose, mobile string) (*domain.Challenge, error)
	// Attempt checks codeHash against the challenge at now and, on a mismatch, counts the
	// attempt, all as one atomic step. A missing challenge yields domain.NotFound.
	Attempt(ctx context.Context, purpose domain.Purpose, mobile, codeHash string, now time.Time) (domain.Outcome, error)
	// SetResetToken binds a reset token hash and its expiry to the challenge.
	SetResetToken(ctx context.Context, purpose domain.Purpose, mobile, tokenHash string, expiresAt time.Time) error
	// ConsumeResetToken deletes the challenge if tokenHash matches and the token has not expired
	// at now. Returns false without deleting otherwise.
	ConsumeResetToken(ctx context.Context, purpose domain.Purpose, mobile, tokenHash string, now time.Time) (bool, error)
	// Delete removes the challenge. Deleting a missing challenge is not an error.
	Delete(ctx context.Context, purpose domain.Purpose, mobile string) error
}
