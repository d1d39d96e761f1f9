package repository

import (
	"context"

	"portfolio-cms/backend/internal/content/domain"
)

// Repository persists portfolio content sections.
type Repository interface {
	// List returns every section ordered by name.
	List(ctx context.Context) ([]*domain.Section, error)
	// Get returns the section, or nil, nil if it does not exist.
	Get(ctx context.Context, section string) (*domain.Section, error)
	// Upsert replaces the section's content, creating it if needed.
	Upsert(ctx context.Context, section string, content []byte) error
	// InsertIfMissing creates the section only when absent and reports whether it did.
	InsertIfMissing(ctx context.Context, section string, content []byte) (bool, error)
	Count(ctx context.Context) (int, error)
}
