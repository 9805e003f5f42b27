package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_RecordSearch(t *testing.T) {
	agg := NewAggregator()
	agg.RecordSearch(SearchEvent{Type: EventSearch, Query: "Calendar", TotalHits: 3, LatencyMs: 10})
	agg.RecordSearch(SearchEvent{Type: EventSearch, Query: " calendar ", TotalHits: 3, LatencyMs: 20, CacheHit: true})
	agg.RecordSearch(SearchEvent{Type: EventZeroResult, Query: "zzz", LatencyMs: 30})

	stats := agg.Stats()
	assert.Equal(t, int64(3), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(2), stats.CacheMisses)
	assert.Equal(t, int64(1), stats.ZeroResultCount)
	assert.InDelta(t, 20.0, stats.AvgLatencyMs, 0.001)
	assert.Equal(t, int64(20), stats.P50LatencyMs)
	assert.Equal(t, int64(30), stats.P99LatencyMs)
	assert.Equal(t, []QueryCount{{Query: "calendar", Count: 2}, {Query: "zzz", Count: 1}}, stats.TopQueries)
	assert.Equal(t, []QueryCount{{Query: "zzz", Count: 1}}, stats.ZeroResultQueries)
}

func TestAggregator_BlankQueriesNotRanked(t *testing.T) {
	agg := NewAggregator()
	agg.RecordSearch(SearchEvent{Type: EventZeroResult, Query: "   "})
	stats := agg.Stats()
	assert.Equal(t, int64(1), stats.TotalSearches)
	assert.Zero(t, stats.ZeroResultCount)
	assert.Empty(t, stats.TopQueries)
}

func TestAggregator_RecordBuild(t *testing.T) {
	agg := NewAggregator()
	agg.RecordBuild(BuildEvent{Type: EventArchiveOpen, Archive: "help"})
	agg.RecordBuild(BuildEvent{Type: EventIndexBuild, Status: "success", Indexed: 40, Skipped: 2})
	agg.RecordBuild(BuildEvent{Type: EventIndexBuild, Status: "cancelled", Indexed: 5})

	stats := agg.Stats()
	assert.Equal(t, int64(1), stats.ArchivesOpened)
	assert.Equal(t, int64(2), stats.IndexBuilds)
	assert.Equal(t, int64(1), stats.FailedBuilds)
	assert.Equal(t, int64(45), stats.PagesIndexed)
	assert.Equal(t, int64(2), stats.PagesSkipped)
}

func TestAggregator_Record(t *testing.T) {
	agg := NewAggregator()
	search, err := json.Marshal(SearchEvent{Type: EventSearch, Query: "help", TotalHits: 1})
	require.NoError(t, err)
	build, err := json.Marshal(BuildEvent{Type: EventIndexBuild, Status: "success", Indexed: 3})
	require.NoError(t, err)

	require.NoError(t, agg.Record(search))
	require.NoError(t, agg.Record(build))
	assert.Error(t, agg.Record([]byte(`{"type":"mystery"}`)))
	assert.Error(t, agg.Record([]byte(`not json`)))

	stats := agg.Stats()
	assert.Equal(t, int64(1), stats.TotalSearches)
	assert.Equal(t, int64(3), stats.PagesIndexed)
}

func TestHandleEvent_SwallowsBadMessages(t *testing.T) {
	agg := NewAggregator()
	handle := HandleEvent(agg)
	assert.NoError(t, handle(context.Background(), []byte("k"), []byte("garbage")))
	assert.Zero(t, agg.Stats().TotalSearches)
}

func TestAggregator_QueriesPerMinute(t *testing.T) {
	agg := NewAggregator()
	start := agg.startTime
	agg.now = func() time.Time { return start.Add(2 * time.Minute) }
	for range 4 {
		agg.RecordSearch(SearchEvent{Type: EventSearch, Query: "q", TotalHits: 1})
	}
	assert.InDelta(t, 2.0, agg.Stats().QueriesPerMinute, 0.001)
}

func TestAggregator_LatencyWindow(t *testing.T) {
	agg := NewAggregator()
	for i := range latencyWindow + 10 {
		agg.RecordSearch(SearchEvent{Type: EventSearch, LatencyMs: int64(i)})
	}
	agg.mu.RLock()
	defer agg.mu.RUnlock()
	assert.Len(t, agg.latencies, latencyWindow)
}

func TestHandler_Stats(t *testing.T) {
	agg := NewAggregator()
	agg.RecordSearch(SearchEvent{Type: EventSearch, Query: "x", TotalHits: 1})

	mux := http.NewServeMux()
	NewHandler(agg).RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats AggregatedStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalSearches)
}
