// Package otp issues and verifies the one-time codes behind password reset and mobile change.
package otp

import (
	"context"
	"errors"
	"time"

	"portfolio-cms/backend/internal/metrics"
	"portfolio-cms/backend/internal/otp/domain"
	"portfolio-cms/backend/internal/otp/repository"
	"portfolio-cms/backend/internal/security"
)

// ErrInvalidResetToken is returned when a reset token is missing, wrong, expired or already used.
var ErrInvalidResetToken = errors.New("otp: invalid or expired reset token")

// DefaultResetTokenTTL is used when NewManager is given a non-positive TTL.
const DefaultResetTokenTTL = 5 * time.Minute

// Manager applies expiry, attempt and token policy on top of a challenge Repository.
type Manager struct {
	repo          repository.Repository
	resetTokenTTL time.Duration
	now           func() time.Time
}

// NewManager returns a Manager backed by repo. resetTokenTTL bounds how long a minted reset token stays usable.
func NewManager(repo repository.Repository, resetTokenTTL time.Duration) *Manager {
	if resetTokenTTL <= 0 {
		resetTokenTTL = DefaultResetTokenTTL
	}
	return &Manager{
		repo:          repo,
		resetTokenTTL: resetTokenTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a new code for (purpose, mobile), replacing any pending challenge for that key.
// The plaintext code is returned for delivery and never stored.
func (m *Manager) Issue(ctx context.Context, purpose domain.Purpose, mobile string) (code string, expiresAt time.Time, err error) {
	if !purpose.Valid() {
		return "", time.Time{}, domain.ErrUnknownPurpose
	}
	code, err = GenerateCode()
	if err != nil {
		return "", time.Time{}, err
	}
	now := m.now()
	c := &domain.Challenge{
		Purpose:   purpose,
		Mobile:    mobile,
		CodeHash:  HashCode(code),
		ExpiresAt: now.Add(purpose.TTL()),
		CreatedAt: now,
	}
	if err := m.repo.Save(ctx, c); err != nil {
		return "", time.Time{}, err
	}
	metrics.RecordOTPIssued(string(purpose))
	return code, c.ExpiresAt, nil
}

// Verify checks code against the pending challenge. Checks run in order: missing, expired,
// attempts exhausted, mismatch. A mismatch counts as an attempt, and the store checks and
// counts in one atomic step so parallel guesses cannot exceed MaxAttempts. Verify never deletes the
// challenge; callers Clear it once their flow completes.
func (m *Manager) Verify(ctx context.Context, purpose domain.Purpose, mobile, code string) (domain.Outcome, error) {
	outcome, err := m.verify(ctx, purpose, mobile, code)
	if err != nil {
		return outcome, err
	}
	metrics.RecordOTPVerification(string(purpose), outcome.String())
	return outcome, nil
}

func (m *Manager) verify(ctx context.Context, purpose domain.Purpose, mobile, code string) (domain.Outcome, error) {
	return m.repo.Attempt(ctx, purpose, mobile, HashCode(code), m.now())
}

// MintResetToken binds a fresh single-use reset token to the password reset challenge for
// mobile. Call only after Verify returned Accepted. The raw token is returned once; only its
// hash is stored.
func (m *Manager) MintResetToken(ctx context.Context, mobile string) (token string, expiresAt time.Time, err error) {
	token, hash, err := security.GenerateResetToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt = m.now().Add(m.resetTokenTTL)
	if err := m.repo.SetResetToken(ctx, domain.PurposePasswordReset, mobile, hash, expiresAt); err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			return "", time.Time{}, ErrInvalidResetToken
		}
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ConsumeResetToken redeems token for mobile. On success the password reset challenge is
// deleted, so the token cannot be used again.
func (m *Manager) ConsumeResetToken(ctx context.Context, mobile, token string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	ok, err := m.repo.ConsumeResetToken(ctx, domain.PurposePasswordReset, mobile, security.HashResetToken(token), m.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidResetToken
	}
	return nil
}

// Clear removes any challenge for (purpose, mobile). Clearing a missing challenge is a no-op.
func (m *Manager) Clear(ctx context.Context, purpose domain.Purpose, mobile string) error {
	return m.repo.Delete(ctx, purpose, mobile)
}
