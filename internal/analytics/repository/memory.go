package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"portfolio-cms/backend/internal/analytics/domain"
)

// MemoryRepository is an in-process Repository used by tests.
type MemoryRepository struct {
	mu     sync.Mutex
	visits []domain.Visit
}

// NewMemoryRepository returns an empty in-memory visitor log.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, v *domain.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, *v)
	return nil
}

func (r *MemoryRepository) Recent(ctx context.Context, limit int) ([]*domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Visit, 0, len(r.visits))
	for _, v := range r.visits {
		v := v
		out = append(out, &v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) CountRange(ctx context.Context, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.visits {
		if !v.CreatedAt.Before(from) && v.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) TopCountries(ctx context.Context, limit int) ([]domain.CountryCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, v := range r.visits {
		if v.Geo.Country != "" {
			counts[v.Geo.Country]++
		}
	}
	out := make([]domain.CountryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, domain.CountryCount{Country: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) Total(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visits), nil
}

func (r *MemoryRepository) UniqueIPs(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	for _, v := range r.visits {
		seen[v.IP] = struct{}{}
	}
	return len(seen), nil
}
