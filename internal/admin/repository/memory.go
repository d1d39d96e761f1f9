package repository

import (
	"context"
	"sync"
	"time"

	"portfolio-cms/backend/internal/admin/domain"
)

// MemoryRepository is an in-process Repository used by tests.
type MemoryRepository struct {
	mu   sync.Mutex
	cred *domain.Credential
}

// NewMemoryRepository returns an uninitialized in-memory credential store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Get(ctx context.Context) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cred == nil {
		return nil, nil
	}
	c := *r.cred
	return &c, nil
}

func (r *MemoryRepository) EnsureInitialized(ctx context.Context, mobile, passwordHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cred != nil {
		return false, nil
	}
	now := time.Now().UTC()
	r.cred = &domain.Credential{Mobile: mobile, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	return true, nil
}

func (r *MemoryRepository) SetPassword(ctx context.Context, passwordHash string) error {
	return r.update(func(c *domain.Credential) { c.PasswordHash = passwordHash })
}

func (r *MemoryRepository) SetMobile(ctx context.Context, mobile string) error {
	return r.update(func(c *domain.Credential) { c.Mobile = mobile })
}

func (r *MemoryRepository) SetMFASecret(ctx context.Context, secret string) error {
	return r.update(func(c *domain.Credential) { c.MFASecret = secret })
}

func (r *MemoryRepository) update(fn func(c *domain.Credential)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cred == nil {
		return domain.ErrNotInitialized
	}
	fn(r.cred)
	r.cred.UpdatedAt = time.Now().UTC()
	return nil
}
