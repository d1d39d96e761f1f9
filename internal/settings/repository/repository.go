package repository

import (
	"context"
)

// Repository stores site settings as raw JSON values keyed by name.
type Repository interface {
	// All returns every stored setting.
	All(ctx context.Context) (map[string][]byte, error)
	// Set upserts all values atomically.
	Set(ctx context.Context, values map[string][]byte) error
	// SetIfMissing stores value only when key is absent and reports whether it did.
	SetIfMissing(ctx context.Context, key string, value []byte) (bool, error)
}
