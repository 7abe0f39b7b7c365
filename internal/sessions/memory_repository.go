package sessions

import (
	"context"
	"sync"
)

// MemoryRepository keeps sessions in process memory. Used when neither Redis
// nor MongoDB is configured; sessions do not survive a restart.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]Session)}
}

func (r *MemoryRepository) Create(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[s.ID] = *s
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.store[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, id)
	return nil
}
