package declaration

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps declarations in process memory. Used when no database is configured.
type MemoryRepo struct {
	mu    sync.Mutex
	order []string
	byID  map[string]Declaration
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{byID: map[string]Declaration{}} }

func (r *MemoryRepo) Insert(ctx context.Context, d Declaration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[d.ID]; ok {
		return ErrDuplicate
	}
	r.byID[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Declaration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return Declaration{}, ErrNotFound
	}
	return d, nil
}

// List returns at most limit declarations, newest first.
func (r *MemoryRepo) List(ctx context.Context, limit int) ([]Declaration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Declaration, 0, n)
	for i := len(r.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.byID[r.order[i]])
	}
	return out, nil
}

// Commit holds the repository lock while apply runs, so a declaration is
// committed at most once.
func (r *MemoryRepo) Commit(ctx context.Context, id, by string, at time.Time, apply func(Declaration) error) (Declaration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[id]
	if !ok {
		return Declaration{}, ErrNotFound
	}
	if d.Status != StatusSubmitted {
		return Declaration{}, ErrAlreadyCommitted
	}
	if err := apply(d); err != nil {
		return Declaration{}, err
	}
	d.Status = StatusCommitted
	d.CommittedBy = by
	d.CommittedAt = &at
	r.byID[id] = d
	return d, nil
}
