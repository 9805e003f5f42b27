package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store) *Handler {
	return &Handler{
		store:  store,
		logger: slog.Default().With("component", "catalog-handler"),
	}
}

// RegisterRoutes mounts GET /api/v1/catalog/builds?archive=&limit=.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/catalog/builds", h.Builds)
}

func (h *Handler) Builds(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	builds, err := h.store.RecentBuilds(r.Context(), r.URL.Query().Get("archive"), limit)
	if err != nil {
		h.logger.Error("listing builds failed", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "catalog unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"builds": builds})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
