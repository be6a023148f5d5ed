package history

import (
	"context"
	"sync"
)

// MemoryStore keeps transcripts in process memory. Useful for tests and
// single-instance deployments without persistence requirements.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: map[string][]Turn{}}
}

func (m *MemoryStore) Load(_ context.Context, id string) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns, ok := m.convs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, turns []Turn) error {
	cp := make([]Turn, len(turns))
	copy(cp, turns)
	m.mu.Lock()
	m.convs[id] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close(context.Context) error { return nil }
