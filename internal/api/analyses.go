package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/embedding"
	"github.com/fundlens/fundlens/internal/httputil"
	"github.com/fundlens/fundlens/internal/observability"
	"github.com/fundlens/fundlens/internal/similarity"
	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

// analysisCacheType groups cached analysis payloads in the content cache.
const analysisCacheType = "fund_analysis"

// analysisCacheParams keys one stored analysis in the content cache.
func analysisCacheParams(id string) cache.Params {
	return cache.Params{"analysis_id": id}
}

// CreateAnalysisRequest is the ingestion payload.
type CreateAnalysisRequest struct {
	// SessionID is optional; a fresh session is created when absent.
	SessionID string              `json:"session_id"`
	Analysis  types.AnalysisInput `json:"analysis"`
}

// CreateAnalysisResponse echoes the stored record and its session.
type CreateAnalysisResponse struct {
	SessionID string          `json:"session_id"`
	Analysis  *types.Analysis `json:"analysis"`
	CacheKey  string          `json:"cache_key,omitempty"`
}

// CreateAnalysis ingests a pre-extracted fund analysis into a session.
func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := httputil.ReadLimitedBody(r.Body, httputil.DefaultMaxRequestBodyBytes)
	if err != nil {
		h.writeError(w, r, errors.NewInvalidInput("api.create_analysis", "request body too large or unreadable"))
		return
	}

	var req CreateAnalysisRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, r, errors.NewInvalidInput("api.create_analysis", "malformed JSON body"))
		return
	}

	ctx, span := observability.StartAnalysisSpan(ctx, h.tracer, "analysis.ingest", req.SessionID)
	defer span.End()
	r = r.WithContext(ctx)

	sess, err := h.sessions.Touch(ctx, req.SessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	analysis, err := req.Analysis.ToAnalysis(sess.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.store.SaveAnalysis(ctx, analysis); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.sessions.IncrementAnalyses(ctx, sess.ID); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Embedding failures degrade the record, not the request: the
	// analysis is stored either way, it just won't show up in
	// similarity queries.
	if h.embedder != nil {
		h.embedAnalysis(r, analysis)
	}

	key, err := h.cache.Set(ctx, analysisCacheType, analysisCacheParams(analysis.ID), analysis, h.cacheTTL)
	if err != nil {
		h.logger.WithRequestID(ctx).Warn("cache analysis", "error", err)
		key = ""
	}

	h.writeJSON(w, http.StatusCreated, CreateAnalysisResponse{
		SessionID: sess.ID,
		Analysis:  analysis,
		CacheKey:  key,
	})
}

func (h *Handler) embedAnalysis(r *http.Request, analysis *types.Analysis) {
	ctx := r.Context()
	text := embedding.TextRepresentation(analysis)

	vector, err := h.embedder.Embed(ctx, text)
	if err != nil {
		h.logger.WithRequestID(ctx).Warn("embed analysis",
			"fund_code", analysis.FundCode, "error", err)
		return
	}
	if err := h.store.UpdateEmbedding(ctx, analysis.ID, vector, h.embedder.Model()); err != nil {
		h.logger.WithRequestID(ctx).Warn("store embedding",
			"analysis_id", analysis.ID, "error", err)
		return
	}
	analysis.Embedding = vector
	analysis.EmbeddingModel = h.embedder.Model()
}

// GetAnalysis returns a stored analysis by ID. Reads go through the
// content cache first; a hit serves the cached payload without touching
// the store, a miss repopulates the cache from the stored record.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	raw, ok, err := h.cache.Get(ctx, analysisCacheType, analysisCacheParams(id))
	if err != nil {
		h.logger.WithRequestID(ctx).Warn("cache read", "error", err)
	}
	if ok {
		h.writeRawJSON(w, http.StatusOK, raw)
		return
	}

	analysis, err := h.store.GetAnalysis(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if analysis == nil {
		h.writeError(w, r, errors.NewNotFound("api.get_analysis", "analysis not found"))
		return
	}

	if _, err := h.cache.Set(ctx, analysisCacheType, analysisCacheParams(id), analysis, h.cacheTTL); err != nil {
		h.logger.WithRequestID(ctx).Warn("cache analysis", "error", err)
	}
	h.writeJSON(w, http.StatusOK, analysis)
}

// SimilarResponse lists matches for a similarity query.
type SimilarResponse struct {
	AnalysisID string                  `json:"analysis_id"`
	Matches    []types.SimilarityMatch `json:"matches"`
}

// GetSimilar returns analyses similar to the given one.
func (h *Handler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		h.writeError(w, r, errors.NewInvalidInput("api.similar", "limit must be an integer"))
		return
	}
	minSim, err := httputil.QueryFloat(r, "min_similarity", 0)
	if err != nil {
		h.writeError(w, r, errors.NewInvalidInput("api.similar", "min_similarity must be a number"))
		return
	}
	scope := r.URL.Query().Get("scope")
	if scope != "" && scope != "session" && scope != "global" {
		h.writeError(w, r, errors.NewInvalidInput("api.similar", "scope must be session or global"))
		return
	}

	matches, err := h.similarity.FindSimilar(r.Context(), id, similarity.Query{
		Limit:         limit,
		MinSimilarity: minSim,
		Global:        scope == "global",
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []types.SimilarityMatch{}
	}
	h.writeJSON(w, http.StatusOK, SimilarResponse{AnalysisID: id, Matches: matches})
}
