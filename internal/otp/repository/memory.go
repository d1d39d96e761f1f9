package repository

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"portfolio-cms/backend/internal/otp/domain"
)

type memKey struct {
	purpose domain.Purpose
	mobile  string
}

// MemoryRepository is an in-process Repository. Challenges are lost on restart.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[memKey]domain.Challenge
}

// NewMemoryRepository returns an empty in-memory challenge store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[memKey]domain.Challenge)}
}

func (r *MemoryRepository) Save(ctx context.Context, c *domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[memKey{c.Purpose, c.Mobile}] = *c
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, purpose domain.Purpose, mobile string) (*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[memKey{purpose, mobile}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) Attempt(ctx context.Context, purpose domain.Purpose, mobile, codeHash string, now time.Time) (domain.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey{purpose, mobile}
	c, ok := r.m[k]
	if !ok {
		return domain.NotFound, nil
	}
	out := c.Check(codeHash, now)
	if out == domain.Mismatch {
		c.Attempts++
		r.m[k] = c
	}
	return out, nil
}

func (r *MemoryRepository) SetResetToken(ctx context.Context, purpose domain.Purpose, mobile, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey{purpose, mobile}
	c, ok := r.m[k]
	if !ok {
		return ErrChallengeNotFound
	}
	c.ResetTokenHash = tokenHash
	c.TokenExpiresAt = expiresAt
	r.m[k] = c
	return nil
}

func (r *MemoryRepository) ConsumeResetToken(ctx context.Context, purpose domain.Purpose, mobile, tokenHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey{purpose, mobile}
	c, ok := r.m[k]
	if !ok || c.ResetTokenHash == "" || now.After(c.TokenExpiresAt) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(c.ResetTokenHash), []byte(tokenHash)) != 1 {
		return false, nil
	}
	delete(r.m, k)
	return true, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, purpose domain.Purpose, mobile string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, memKey{purpose, mobile})
	return nil
}
