package api

import (
	"net/http"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/metrics"
)

// CacheStatsResponse reports cache occupancy grouped by type.
type CacheStatsResponse struct {
	TotalEntries int                        `json:"total_entries"`
	ByType       map[string]cache.TypeStats `json:"by_type"`
}

// CacheStats returns current cache statistics. Expiry is judged against
// the moment of the call, not the last sweep.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, CacheStatsResponse{
		TotalEntries: stats.TotalEntries,
		ByType:       stats.ByType,
	})
}

// SweepResponse reports what a maintenance sweep removed.
type SweepResponse struct {
	CacheEntriesRemoved int `json:"cache_entries_removed"`
	SessionsRemoved     int `json:"sessions_removed"`
}

// Sweep purges expired cache entries and sessions.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.cache.SweepExpired(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sessions, err := h.sessions.SweepExpired(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.SessionsSwept.Add(float64(sessions))

	if active, err := h.sessions.ActiveCount(ctx); err == nil {
		metrics.ActiveSessions.Set(float64(active))
	}

	h.writeJSON(w, http.StatusOK, SweepResponse{
		CacheEntriesRemoved: entries,
		SessionsRemoved:     sessions,
	})
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz is the readiness probe; it exercises the cache backend.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.cache.Stats(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
