package archive

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/errors"
)

// MemoryReader serves entries from an in-memory map. It backs tests and
// callers that already hold a decoded archive.
type MemoryReader struct {
	mu      sync.RWMutex
	entries map[string][]byte
	failing map[string]struct{}
}

// NewMemoryReader copies files, keyed by path, into a new reader.
func NewMemoryReader(files map[string][]byte) *MemoryReader {
	m := &MemoryReader{
		entries: make(map[string][]byte, len(files)),
		failing: make(map[string]struct{}),
	}
	for p, data := range files {
		m.entries[NormalizePath(p)] = data
	}
	return m
}

// Put adds or replaces an entry.
func (m *MemoryReader) Put(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[NormalizePath(p)] = data
}

// FailOn makes ReadEntry for p return ErrExtractionFailed while still
// listing it, mimicking a corrupt compressed block.
func (m *MemoryReader) FailOn(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[NormalizePath(p)] = struct{}{}
}

func (m *MemoryReader) ListEntries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]Entry, 0, len(m.entries))
	for p, data := range m.entries {
		entries = append(entries, Entry{Path: p, Length: int64(len(data))})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

func (m *MemoryReader) ReadEntry(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = NormalizePath(p)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, bad := m.failing[p]; bad {
		return nil, fmt.Errorf("reading %s: %w", p, apperrors.ErrExtractionFailed)
	}
	data, ok := m.entries[p]
	if !ok {
		return nil, fmt.Errorf("reading %s: %w", p, apperrors.ErrEntryNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
