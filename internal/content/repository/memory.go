package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"portfolio-cms/backend/internal/content/domain"
)

// MemoryRepository is an in-process Repository used by tests and local tooling.
type MemoryRepository struct {
	mu       sync.Mutex
	sections map[string]domain.Section
}

// NewMemoryRepository returns an empty in-memory content store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sections: make(map[string]domain.Section)}
}

func (r *MemoryRepository) List(ctx context.Context) ([]*domain.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Section, 0, len(r.sections))
	for _, s := range r.sections {
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Section < out[j].Section })
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, section string) (*domain.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sections[section]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, section string, content []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections[section] = domain.Section{Section: section, Content: append([]byte(nil), content...), UpdatedAt: time.Now().UTC()}
	return nil
}

func (r *MemoryRepository) InsertIfMissing(ctx context.Context, section string, content []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sections[section]; ok {
		return false, nil
	}
	r.sections[section] = domain.Section{Section: section, Content: append([]byte(nil), content...), UpdatedAt: time.Now().UTC()}
	return true, nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sections), nil
}
