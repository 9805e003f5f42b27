package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewServeMux_OnlyMetrics(t *testing.T) {
	mux := NewServeMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewWithRegistry_Isolated(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.PagesIndexedTotal.Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PagesIndexedTotal))
}
