package repository

import (
	"context"
	"sort"
	"sync"

	"portfolio-cms/backend/internal/inbox/domain"
)

// MemoryRepository is an in-process Repository used by tests.
type MemoryRepository struct {
	mu   sync.Mutex
	msgs map[string]domain.Message
}

// NewMemoryRepository returns an empty in-memory inbox.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{msgs: make(map[string]domain.Message)}
}

func (r *MemoryRepository) Create(ctx context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs[m.ID] = *m
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Message, 0, len(r.msgs))
	for _, m := range r.msgs {
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Status = status
	r.msgs[id] = m
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.msgs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.msgs, id)
	return nil
}
