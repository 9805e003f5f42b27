package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/resilience"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", pkgredis.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func builtResult(q string) *executor.QueryResult {
	return &executor.QueryResult{
		Query:     q,
		TotalHits: 1,
		Built:     true,
		Results:   []executor.SearchResult{{Title: "A", Path: "/a.htm", Snippet: "alpha"}},
	}
}

func TestQueryCache_GetOrCompute(t *testing.T) {
	store := newMemStore()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	c := New(store, time.Minute, "arch1", WithMetrics(m))
	ctx := context.Background()

	var calls atomic.Int32
	compute := func() (*executor.QueryResult, error) {
		calls.Add(1)
		return builtResult("alpha"), nil
	}

	res, hit, err := c.GetOrCompute(ctx, "alpha", 10, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "/a.htm", res.Results[0].Path)

	res, hit, err = c.GetOrCompute(ctx, "  ALPHA ", 10, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, builtResult("alpha"), res)
	assert.Equal(t, int32(1), calls.Load())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
}

func TestQueryCache_LimitIsPartOfKey(t *testing.T) {
	c := New(newMemStore(), time.Minute, "arch1")
	c.Set(context.Background(), "alpha", 10, builtResult("alpha"))
	_, ok := c.Get(context.Background(), "alpha", 5)
	assert.False(t, ok)
}

func TestQueryCache_SkipsUnbuiltResults(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, "arch1")
	partial := builtResult("alpha")
	partial.Built = false
	c.Set(context.Background(), "alpha", 0, partial)
	assert.Zero(t, store.len())
}

func TestQueryCache_NamespacesIsolated(t *testing.T) {
	store := newMemStore()
	a := New(store, time.Minute, "arch-a")
	b := New(store, time.Minute, "arch-b")
	a.Set(context.Background(), "alpha", 0, builtResult("alpha"))

	_, ok := b.Get(context.Background(), "alpha", 0)
	assert.False(t, ok)

	b.Set(context.Background(), "alpha", 0, builtResult("alpha"))
	require.NoError(t, a.Invalidate(context.Background()))
	assert.Equal(t, 1, store.len())
	_, ok = b.Get(context.Background(), "alpha", 0)
	assert.True(t, ok)
}

func TestQueryCache_ComputeError(t *testing.T) {
	c := New(newMemStore(), time.Minute, "arch1")
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "q", 0, func() (*executor.QueryResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestQueryCache_StoreFailureOpensBreaker(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection refused")
	cb := resilience.NewCircuitBreaker("test", resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	c := New(store, time.Minute, "arch1", WithBreaker(cb))

	for i := 0; i < 3; i++ {
		res, hit, err := c.GetOrCompute(context.Background(), "alpha", 0, func() (*executor.QueryResult, error) {
			return builtResult("alpha"), nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.NotNil(t, res)
	}
	assert.Equal(t, resilience.StateOpen, cb.GetState())
}
