package history

import (
	"context"
	"sync"
)

// MemoryStore keeps the most recent records in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []Record
	max  int
}

// NewMemoryStore returns a store holding at most capacity records.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{max: capacity}
}

func (m *MemoryStore) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	if over := len(m.recs) - m.max; over > 0 {
		m.recs = append(m.recs[:0:0], m.recs[over:]...)
	}
	return nil
}

func (m *MemoryStore) Query(_ context.Context, q Query) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return q.Filter(m.recs), nil
}

func (m *MemoryStore) Close() error { return nil }
