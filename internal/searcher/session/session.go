// Package session drives search-as-you-type. Every Submit supersedes the
// previous query: the older one is cancelled and can no longer publish, and
// the newer one only runs once input has been quiet for the debounce period.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/executor"
)

// DefaultDebounce is the quiet period before a submitted query runs.
const DefaultDebounce = 200 * time.Millisecond

// Searcher runs one query.
type Searcher interface {
	Execute(ctx context.Context, query string, limit int) (*executor.QueryResult, error)
}

// Session is one search box. It is safe for concurrent use.
type Session struct {
	searcher Searcher
	debounce time.Duration
	limit    int
	results  chan *executor.QueryResult
	logger   *slog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	closed     bool
	wg         sync.WaitGroup
}

// New creates a session. A negative debounce is treated as zero; limit is
// passed through to the searcher.
func New(searcher Searcher, debounce time.Duration, limit int) *Session {
	if debounce < 0 {
		debounce = 0
	}
	return &Session{
		searcher: searcher,
		debounce: debounce,
		limit:    limit,
		results:  make(chan *executor.QueryResult, 1),
		logger:   slog.Default().With("component", "search-session"),
	}
}

// Results delivers the outcome of the latest query. Only the newest result
// is kept if the reader falls behind. The channel is closed by Close.
func (s *Session) Results() <-chan *executor.QueryResult {
	return s.results
}

// Submit replaces the current query. A blank query is answered at once with
// an empty result; anything else runs after the debounce period unless a
// newer Submit arrives first.
func (s *Session) Submit(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if strings.TrimSpace(query) == "" {
		s.mu.Unlock()
		res, err := s.searcher.Execute(context.Background(), query, s.limit)
		if err == nil {
			s.publish(gen, res)
		}
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, gen, query)
}

func (s *Session) run(ctx context.Context, gen uint64, query string) {
	defer s.wg.Done()

	timer := time.NewTimer(s.debounce)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return
	}

	res, err := s.searcher.Execute(ctx, query, s.limit)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("search failed", "query", query, "error", err)
		}
		return
	}
	s.publish(gen, res)
}

// publish delivers res if gen is still the current generation, replacing
// any result the reader has not taken yet.
func (s *Session) publish(gen uint64, res *executor.QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		return
	}
	for {
		select {
		case s.results <- res:
			return
		default:
		}
		select {
		case <-s.results:
		default:
		}
	}
}

// Flush waits until the current query has run and published, or was
// superseded. It must not be called concurrently with Submit.
func (s *Session) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any pending query and closes the results channel.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	close(s.results)
}
