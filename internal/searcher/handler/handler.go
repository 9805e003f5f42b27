// Package handler exposes an open archive over HTTP: search, table of
// contents, status and the raw content pages the browser renders.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/toc"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/viewer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/resilience"
)

// Viewer is the open archive the handler serves.
type Viewer interface {
	Name() string
	TOC() []toc.TopicNode
	Status() viewer.Status
	Search(ctx context.Context, query string, limit int) (*executor.QueryResult, error)
	Content(ctx context.Context, path string) (viewer.Content, error)
}

// Tracker receives analytics events.
type Tracker interface {
	Track(key string, event any)
}

type Handler struct {
	viewer  Viewer
	cache   *cache.QueryCache
	tracker Tracker
	metrics *metrics.Metrics
	cfg     config.SearchConfig
	logger  *slog.Logger
}

// Option customises a Handler.
type Option func(*Handler)

// WithCache answers repeated searches from queryCache.
func WithCache(queryCache *cache.QueryCache) Option {
	return func(h *Handler) {
		h.cache = queryCache
	}
}

// WithTracker reports every search to t.
func WithTracker(t Tracker) Option {
	return func(h *Handler) {
		h.tracker = t
	}
}

// WithMetrics records search latency by cache status on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func New(v Viewer, cfg config.SearchConfig, opts ...Option) *Handler {
	h := &Handler{
		viewer: v,
		cfg:    cfg,
		logger: slog.Default().With("component", "viewer-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the viewer endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/toc", h.TOC)
	mux.HandleFunc("GET /api/v1/status", h.Status)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /content/{path...}", h.Content)
}

// Search serves GET /api/v1/search?q=&limit=. A blank or too-short query is
// not an error; it simply matches nothing.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	limit, err := h.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var result *executor.QueryResult
	cacheStatus := "disabled"
	run := func() (*executor.QueryResult, error) {
		var res *executor.QueryResult
		err := resilience.WithTimeout(ctx, h.cfg.Timeout, "search", func(ctx context.Context) error {
			var err error
			res, err = h.viewer.Search(ctx, query, limit)
			return err
		})
		return res, err
	}
	if h.cache != nil && strings.TrimSpace(query) != "" {
		var hit bool
		result, hit, err = h.cache.GetOrCompute(ctx, query, limit, run)
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
	} else {
		result, err = run()
	}
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.writeError(w, err)
		return
	}

	latency := time.Since(start)
	if h.metrics != nil {
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	}
	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"built", result.Built,
		"cache", cacheStatus,
		"latency_ms", latency.Milliseconds(),
	)
	if h.tracker != nil {
		h.tracker.Track(h.viewer.Name(), analytics.SearchEvent{
			Type:      analytics.SearchEventType(result.TotalHits),
			Archive:   h.viewer.Name(),
			Query:     query,
			Terms:     result.Terms,
			TotalHits: result.TotalHits,
			Returned:  len(result.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheStatus == "hit",
			Built:     result.Built,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}
	h.writeJSON(w, http.StatusOK, result)
}

// parseLimit applies the configured default and ceiling. Zero means
// unlimited on either side.
func (h *Handler) parseLimit(raw string) (int, error) {
	limit := h.cfg.DefaultLimit
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	if h.cfg.MaxResults > 0 && (limit == 0 || limit > h.cfg.MaxResults) {
		limit = h.cfg.MaxResults
	}
	return limit, nil
}

// TOC serves the table of contents as a JSON forest.
func (h *Handler) TOC(w http.ResponseWriter, r *http.Request) {
	forest := h.viewer.TOC()
	if forest == nil {
		forest = []toc.TopicNode{}
	}
	h.writeJSON(w, http.StatusOK, forest)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.viewer.Status())
}

// Content serves one archive entry. /content/ alone redirects to the
// archive's default page.
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	p := r.PathValue("path")
	if p == "" {
		def := h.viewer.Status().DefaultPage
		if def == "" {
			h.writeError(w, apperrors.New(apperrors.ErrEntryNotFound, http.StatusNotFound, "archive has no default page"))
			return
		}
		http.Redirect(w, r, "/content"+def, http.StatusFound)
		return
	}
	content, err := h.viewer.Content(r.Context(), "/"+p)
	if err != nil {
		if errors.Is(err, apperrors.ErrEntryNotFound) {
			logger.FromContext(r.Context()).Debug("content not found", "path", p)
		} else {
			logger.FromContext(r.Context()).Error("reading content failed", "path", p, "error", err)
		}
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", content.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(content.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content.Data); err != nil {
		h.logger.Debug("writing content failed", "path", p, "error", err)
	}
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrCacheUnavailable, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrCacheUnavailable, http.StatusServiceUnavailable, "cache invalidation failed"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to a status code. Internal errors are not echoed.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := http.StatusText(status)
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		message = appErr.Message
	case status == http.StatusNotFound:
		message = "entry not found"
	case errors.Is(err, apperrors.ErrTimeout):
		message = "search timed out"
	case status == http.StatusInternalServerError:
		message = apperrors.ErrInternal.Error()
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
