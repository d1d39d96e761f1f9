package repository

import (
	"context"

	"portfolio-cms/backend/internal/admin/domain"
)

// Repository defines persistence for the singleton admin credential.
// Each setter replaces one field atomically; last write wins.
type Repository interface {
	// Get returns the credential, or nil if it has not been initialized.
	Get(ctx context.Context) (*domain.Credential, error)
	// EnsureInitialized inserts the credential if absent. Returns true when a row was created.
	EnsureInitialized(ctx context.Context, mobile, passwordHash string) (bool, error)
	SetPassword(ctx context.Context, passwordHash string) error
	SetMobile(ctx context.Context, mobile string) error
	// SetMFASecret stores secret; an empty secret disables MFA.
	SetMFASecret(ctx context.Context, secret string) error
}
