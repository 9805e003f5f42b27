package catalog

import (
	"context"
	"sync"
)

const defaultMemoryCapacity = 256

// MemoryStore keeps the most recent records in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	opens    []OpenRecord
	builds   []BuildRecord
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

func (m *MemoryStore) RecordOpen(ctx context.Context, rec OpenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens = appendBounded(m.opens, rec, m.capacity)
	return nil
}

func (m *MemoryStore) RecordBuild(ctx context.Context, rec BuildRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds = appendBounded(m.builds, rec, m.capacity)
	return nil
}

func (m *MemoryStore) RecentBuilds(ctx context.Context, archive string, limit int) ([]BuildRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []BuildRecord{}
	for i := len(m.builds) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if archive == "" || m.builds[i].Archive == archive {
			out = append(out, m.builds[i])
		}
	}
	return out, nil
}

// Opens returns every kept open record, oldest first.
func (m *MemoryStore) Opens() []OpenRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]OpenRecord(nil), m.opens...)
}

func appendBounded[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		s = append(s[:0:0], s[len(s)-capacity:]...)
	}
	return s
}
