package repository

import (
	"context"

	"portfolio-cms/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	List(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error)
	Create(ctx context.Context, a *domain.AuditLog) error
}
