// Package cache keeps query results for a built index in Redis. Concurrent
// identical queries are collapsed with singleflight, and Redis calls go
// through a circuit breaker so an unreachable cache degrades to direct
// execution instead of adding latency to every search.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/resilience"
)

const keyPrefix = "helpviewer:search:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store     Store
	ttl       time.Duration
	namespace string
	group     singleflight.Group
	breaker   *resilience.CircuitBreaker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// Option customises a QueryCache.
type Option func(*QueryCache)

// WithMetrics records hits, misses and breaker state on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *QueryCache) {
		c.metrics = m
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *QueryCache) {
		c.breaker = cb
	}
}

// New creates a cache whose keys are scoped to namespace, normally a
// fingerprint of the open archive, so results never leak between archives.
func New(store Store, ttl time.Duration, namespace string, opts ...Option) *QueryCache {
	c := &QueryCache{
		store:     store,
		ttl:       ttl,
		namespace: namespace,
		breaker:   resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{}),
		logger:    slog.Default().With("component", "query-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get looks up a cached result. Any failure, including an open breaker, is a
// miss.
func (c *QueryCache) Get(ctx context.Context, query string, limit int) (*executor.QueryResult, bool) {
	key := c.buildKey(query, limit)
	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if errors.Is(err, pkgredis.ErrNotFound) {
			return nil
		}
		return err
	})
	c.recordBreaker()
	if err != nil {
		c.logger.Debug("cache get failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	if data == "" {
		c.miss()
		return nil, false
	}
	var result executor.QueryResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &result, true
}

// Set stores result. Results from an index that is still building are not
// cached; they would go stale as soon as more pages arrive.
func (c *QueryCache) Set(ctx context.Context, query string, limit int, result *executor.QueryResult) {
	if result == nil || !result.Built {
		return
	}
	key := c.buildKey(query, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	c.recordBreaker()
	if err != nil {
		c.logger.Debug("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or runs computeFn once per key no
// matter how many callers ask at the same time. The bool reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn func() (*executor.QueryResult, error),
) (*executor.QueryResult, bool, error) {
	if result, ok := c.Get(ctx, query, limit); ok {
		return result, true, nil
	}
	key := c.buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.QueryResult), false, nil
}

// Invalidate drops every cached result of this namespace.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + c.namespace + ":*"
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.store.FlushByPattern(ctx, pattern)
		return err
	})
	c.recordBreaker()
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "namespace", c.namespace, "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *QueryCache) recordBreaker() {
	if c.metrics != nil {
		c.metrics.CircuitBreakerState.WithLabelValues("redis-cache").Set(float64(c.breaker.GetState()))
	}
}

func (c *QueryCache) buildKey(query string, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d", normalizeQuery(query), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.namespace, hash[:16])
}

// normalizeQuery folds case and trims the ends. Inner spacing, word order and
// punctuation are kept because the snippet searches for the query as typed.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
