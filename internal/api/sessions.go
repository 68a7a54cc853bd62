package api

import (
	"net/http"

	"github.com/fundlens/fundlens/internal/httputil"
	"github.com/fundlens/fundlens/internal/observability"
	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

// GetSession returns session metadata.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

// DeleteSessionResponse reports what a cascade delete removed.
type DeleteSessionResponse struct {
	SessionID       string `json:"session_id"`
	AnalysesRemoved int    `json:"analyses_removed"`
}

// DeleteSession removes a session and everything it owns, including the
// cached copies of its analyses.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	// Collect the analyses before the cascade removes them; the cache
	// must not keep serving records the store no longer has.
	analyses, err := h.store.ListBySession(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	removed, err := h.sessions.Delete(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	for _, a := range analyses {
		if _, err := h.cache.Delete(ctx, analysisCacheType, analysisCacheParams(a.ID)); err != nil {
			h.logger.WithRequestID(ctx).Warn("cache invalidate",
				"analysis_id", a.ID, "error", err)
		}
	}

	h.writeJSON(w, http.StatusOK, DeleteSessionResponse{
		SessionID:       id,
		AnalysesRemoved: removed,
	})
}

// SessionAnalysesResponse lists a session's analyses.
type SessionAnalysesResponse struct {
	SessionID string            `json:"session_id"`
	Analyses  []*types.Analysis `json:"analyses"`
}

// ListSessionAnalyses returns the session's analyses in insertion order.
func (h *Handler) ListSessionAnalyses(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	analyses, err := h.store.ListBySession(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if analyses == nil {
		analyses = []*types.Analysis{}
	}
	h.writeJSON(w, http.StatusOK, SessionAnalysesResponse{
		SessionID: id,
		Analyses:  analyses,
	})
}

// RankingResponse carries a computed ranking.
type RankingResponse struct {
	SessionID   string               `json:"session_id"`
	RankingType string               `json:"ranking_type"`
	Entries     []types.RankingEntry `json:"entries"`
}

// GetRanking recomputes and returns the session's ranking for a criterion.
// Rankings are cheap relative to their staleness cost, so the read path
// recomputes from current analyses instead of serving the stored copy.
func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	criterion := r.PathValue("criterion")

	ctx, span := observability.StartAnalysisSpan(r.Context(), h.tracer, "analysis.rank", id)
	defer span.End()
	r = r.WithContext(ctx)

	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		h.writeError(w, r, errors.NewInvalidInput("api.ranking", "limit must be an integer"))
		return
	}

	entries, err := h.rankings.ComputeRanking(r.Context(), id, criterion, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []types.RankingEntry{}
	}
	h.writeJSON(w, http.StatusOK, RankingResponse{
		SessionID:   id,
		RankingType: criterion,
		Entries:     entries,
	})
}
