package repository

import (
	"context"
	"time"

	"portfolio-cms/backend/internal/analytics/domain"
)

// Repository persists visitor logs and answers the aggregate queries behind the admin views.
type Repository interface {
	Create(ctx context.Context, v *domain.Visit) error
	// Recent returns up to limit visits, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.Visit, error)
	// CountRange counts visits with from <= created_at < to.
	CountRange(ctx context.Context, from, to time.Time) (int, error)
	// TopCountries returns up to limit countries by visit count, highest first. Visits without a country are ignored.
	TopCountries(ctx context.Context, limit int) ([]domain.CountryCount, error)
	Total(ctx context.Context) (int, error)
	UniqueIPs(ctx context.Context) (int, error)
}
