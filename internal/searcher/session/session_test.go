package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/executor"
)

// recordingSearcher answers every query with its own text and records what
// actually ran. With block set it waits for ctx to be cancelled instead.
type recordingSearcher struct {
	mu    sync.Mutex
	ran   []string
	block map[string]bool
}

func (r *recordingSearcher) Execute(ctx context.Context, query string, limit int) (*executor.QueryResult, error) {
	r.mu.Lock()
	r.ran = append(r.ran, query)
	blocking := r.block[query]
	r.mu.Unlock()
	if blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &executor.QueryResult{Query: query, Results: []executor.SearchResult{}}, nil
}

func (r *recordingSearcher) queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func receive(t *testing.T, s *Session) *executor.QueryResult {
	t.Helper()
	select {
	case res := <-s.Results():
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no result published")
		return nil
	}
}

func assertNoResult(t *testing.T, s *Session, wait time.Duration) {
	t.Helper()
	select {
	case res := <-s.Results():
		t.Fatalf("unexpected result for %q", res.Query)
	case <-time.After(wait):
	}
}

func TestSession_DebounceKeepsLastQuery(t *testing.T) {
	searcher := &recordingSearcher{}
	s := New(searcher, 50*time.Millisecond, 0)
	defer s.Close()

	s.Submit("c")
	s.Submit("ca")
	s.Submit("cal")

	res := receive(t, s)
	assert.Equal(t, "cal", res.Query)
	assertNoResult(t, s, 150*time.Millisecond)
	assert.Equal(t, []string{"cal"}, searcher.queries())
}

func TestSession_BlankQueryIsImmediate(t *testing.T) {
	searcher := &recordingSearcher{}
	s := New(searcher, time.Hour, 0)
	defer s.Close()

	s.Submit("pending")
	s.Submit("   ")

	res := receive(t, s)
	assert.Equal(t, "   ", res.Query)
	assert.Equal(t, []string{"   "}, searcher.queries())
}

func TestSession_InFlightQueryIsCancelled(t *testing.T) {
	searcher := &recordingSearcher{block: map[string]bool{"slow": true}}
	s := New(searcher, 0, 0)
	defer s.Close()

	s.Submit("slow")
	require.Eventually(t, func() bool {
		return len(searcher.queries()) == 1
	}, time.Second, 5*time.Millisecond)

	s.Submit("fast")
	res := receive(t, s)
	assert.Equal(t, "fast", res.Query)
	assertNoResult(t, s, 50*time.Millisecond)
}

func TestSession_CloseStopsPending(t *testing.T) {
	searcher := &recordingSearcher{}
	s := New(searcher, time.Hour, 0)

	s.Submit("never")
	s.Close()

	_, open := <-s.Results()
	assert.False(t, open)
	assert.Empty(t, searcher.queries())

	s.Submit("after close")
	s.Close()
}

func TestSession_NegativeDebounce(t *testing.T) {
	s := New(&recordingSearcher{}, -time.Second, 0)
	defer s.Close()
	s.Submit("now")
	assert.Equal(t, "now", receive(t, s).Query)
}

func TestSession_FlushWaitsForPending(t *testing.T) {
	searcher := &recordingSearcher{}
	s := New(searcher, 20*time.Millisecond, 0)
	defer s.Close()

	s.Submit("last")
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []string{"last"}, searcher.queries())
	assert.Equal(t, "last", receive(t, s).Query)
}

func TestSession_FlushHonoursContext(t *testing.T) {
	s := New(&recordingSearcher{block: map[string]bool{"stuck": true}}, 0, 0)
	defer s.Close()

	s.Submit("stuck")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
}
