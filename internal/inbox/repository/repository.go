package repository

import (
	"context"

	"portfolio-cms/backend/internal/inbox/domain"
)

// Repository persists contact messages.
type Repository interface {
	Create(ctx context.Context, m *domain.Message) error
	// List returns all messages, newest first.
	List(ctx context.Context) ([]*domain.Message, error)
	// UpdateStatus returns domain.ErrNotFound when id does not exist.
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	// Delete returns domain.ErrNotFound when id does not exist.
	Delete(ctx context.Context, id string) error
}
