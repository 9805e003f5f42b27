package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer"
)

func TestNewBuildRecord(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	report := indexer.BuildReport{Entries: 10, Pages: 8, Indexed: 6, Unreadable: 1, Undecodable: 1, Terms: 42, Duration: 1500 * time.Millisecond}

	rec := NewBuildRecord("manual", report, nil, at)
	assert.Equal(t, "success", rec.Status)
	assert.Equal(t, 6, rec.Indexed)
	assert.Equal(t, int64(1500), rec.DurationMs)
	assert.Equal(t, time.UTC, rec.FinishedAt.Location())

	rec = NewBuildRecord("manual", report, fmt.Errorf("building index: %w", context.Canceled), at)
	assert.Equal(t, "cancelled", rec.Status)
}

func TestMemoryStore_RecentBuilds(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)
	for i, archive := range []string{"a", "b", "a", "a"} {
		require.NoError(t, s.RecordBuild(ctx, BuildRecord{Archive: archive, Terms: i}))
	}

	all, err := s.RecentBuilds(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Terms)
	assert.Equal(t, 1, all[2].Terms)

	onlyA, err := s.RecentBuilds(ctx, "a", 1)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, 3, onlyA[0].Terms)

	none, err := s.RecentBuilds(ctx, "missing", 5)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemoryStore_Opens(t *testing.T) {
	s := NewMemoryStore(0)
	require.NoError(t, s.RecordOpen(context.Background(), OpenRecord{Archive: "manual", TOCSource: "hhc"}))
	opens := s.Opens()
	require.Len(t, opens, 1)
	assert.Equal(t, "hhc", opens[0].TOCSource)
}

type failingStore struct{ MemoryStore }

func (f *failingStore) RecentBuilds(ctx context.Context, archive string, limit int) ([]BuildRecord, error) {
	return nil, errors.New("down")
}

func TestHandler_Builds(t *testing.T) {
	s := NewMemoryStore(0)
	require.NoError(t, s.RecordBuild(context.Background(), BuildRecord{Archive: "manual", Status: "success"}))
	mux := http.NewServeMux()
	NewHandler(s).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/builds?archive=manual", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Builds []BuildRecord `json:"builds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Builds, 1)
	assert.Equal(t, "success", body.Builds[0].Status)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/builds?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_StoreFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&failingStore{}).Builds(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/builds", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
