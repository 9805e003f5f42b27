// Package index holds the in-memory inverted index for one open archive:
// term → set of page paths, plus the PageRecord for every page. The index is
// written by a single builder and read concurrently by queries.
package index

import (
	"sort"
	"strings"
	"sync"
)

type MemoryIndex struct {
	mu    sync.RWMutex
	index map[string]PostingSet
	pages map[string]PageRecord
	// vocab is every key of index, sorted, for prefix range lookups, except
	// the terms still waiting in pending.
	vocab   []string
	pending []string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]PostingSet),
		pages: make(map[string]PageRecord),
	}
}

// AddPage records rec and adds its path to the posting set of every term.
// All of a page becomes visible to readers at once. Paths are expected to be
// unique; adding a path twice replaces the record and keeps earlier postings.
func (m *MemoryIndex) AddPage(rec PageRecord, terms []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var fresh []string
	for _, term := range terms {
		set, exists := m.index[term]
		if !exists {
			set = make(PostingSet)
			m.index[term] = set
			fresh = append(fresh, term)
		}
		set[rec.Path] = struct{}{}
	}
	m.pages[rec.Path] = rec
	m.pending = append(m.pending, fresh...)
}

// Compact merges pending terms into the sorted vocabulary. Readers do this on
// demand; the builder calls it once the last page is in.
func (m *MemoryIndex) Compact() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compactLocked()
}

func (m *MemoryIndex) compactLocked() {
	if len(m.pending) > 0 {
		m.vocab = mergeSorted(m.vocab, m.pending)
		m.pending = nil
	}
}

// rlockSorted takes the read lock with no pending terms, so a reader sees
// every term of every page it can see.
func (m *MemoryIndex) rlockSorted() {
	m.mu.RLock()
	for len(m.pending) > 0 {
		m.mu.RUnlock()
		m.Compact()
		m.mu.RLock()
	}
}

// Page returns the record stored for path.
func (m *MemoryIndex) Page(path string) (PageRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.pages[path]
	return rec, ok
}

// Lookup returns a copy of the posting set for an exact term.
func (m *MemoryIndex) Lookup(term string) PostingSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(PostingSet, len(m.index[term]))
	for p := range m.index[term] {
		out[p] = struct{}{}
	}
	return out
}

// PrefixUnion returns every page containing at least one term that starts
// with prefix. The result is a fresh set owned by the caller.
func (m *MemoryIndex) PrefixUnion(prefix string) PostingSet {
	m.rlockSorted()
	defer m.mu.RUnlock()
	out := make(PostingSet)
	for i := sort.SearchStrings(m.vocab, prefix); i < len(m.vocab); i++ {
		term := m.vocab[i]
		if !strings.HasPrefix(term, prefix) {
			break
		}
		for p := range m.index[term] {
			out[p] = struct{}{}
		}
	}
	return out
}

// Terms returns the vocabulary in sorted order.
func (m *MemoryIndex) Terms() []string {
	m.rlockSorted()
	defer m.mu.RUnlock()
	out := make([]string, len(m.vocab))
	copy(out, m.vocab)
	return out
}

func (m *MemoryIndex) PageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pages)
}

func (m *MemoryIndex) TermCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

func (m *MemoryIndex) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Pages: len(m.pages), Terms: len(m.index)}
}

func (m *MemoryIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = make(map[string]PostingSet)
	m.pages = make(map[string]PageRecord)
	m.vocab = nil
	m.pending = nil
}

// mergeSorted merges unsorted, duplicate-free fresh terms into the sorted
// vocabulary. None of fresh is already present in vocab. fresh is sorted in
// place.
func mergeSorted(vocab, fresh []string) []string {
	sort.Strings(fresh)
	out := make([]string, 0, len(vocab)+len(fresh))
	i, j := 0, 0
	for i < len(vocab) && j < len(fresh) {
		if vocab[i] < fresh[j] {
			out = append(out, vocab[i])
			i++
		} else {
			out = append(out, fresh[j])
			j++
		}
	}
	out = append(out, vocab[i:]...)
	return append(out, fresh[j:]...)
}
