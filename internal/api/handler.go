// Package api provides the HTTP surface of the analysis service.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/embedding"
	"github.com/fundlens/fundlens/internal/market"
	"github.com/fundlens/fundlens/internal/observability"
	"github.com/fundlens/fundlens/internal/ranking"
	"github.com/fundlens/fundlens/internal/session"
	"github.com/fundlens/fundlens/internal/similarity"
	"github.com/fundlens/fundlens/internal/store"
	"github.com/fundlens/fundlens/pkg/errors"
)

// Handler serves the v1 API.
type Handler struct {
	logger     *observability.Logger
	sessions   session.Registry
	store      store.Store
	cache      cache.Store
	rankings   *ranking.Engine
	similarity *similarity.Engine

	// embedder may be nil; analyses are then stored without vectors and
	// similarity queries against them come back empty.
	embedder embedding.Embedder

	// market may be nil; the quote endpoint then reports not found.
	market market.Provider

	tracer   trace.Tracer
	cacheTTL time.Duration
}

// HandlerConfig wires the handler's collaborators.
type HandlerConfig struct {
	Logger     *observability.Logger
	Sessions   session.Registry
	Store      store.Store
	Cache      cache.Store
	Rankings   *ranking.Engine
	Similarity *similarity.Engine
	Embedder   embedding.Embedder
	Market     market.Provider

	// Tracer defaults to the globally registered tracer when nil.
	Tracer   trace.Tracer
	CacheTTL time.Duration
}

// NewHandler creates the API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(observability.TracerName)
	}
	return &Handler{
		logger:     cfg.Logger,
		sessions:   cfg.Sessions,
		store:      cfg.Store,
		cache:      cfg.Cache,
		rankings:   cfg.Rankings,
		similarity: cfg.Similarity,
		embedder:   cfg.Embedder,
		market:     cfg.Market,
		tracer:     cfg.Tracer,
		cacheTTL:   cfg.CacheTTL,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/analyses", h.CreateAnalysis)
	mux.HandleFunc("GET /v1/analyses/{id}", h.GetAnalysis)
	mux.HandleFunc("GET /v1/analyses/{id}/similar", h.GetSimilar)

	mux.HandleFunc("GET /v1/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("GET /v1/sessions/{id}/analyses", h.ListSessionAnalyses)
	mux.HandleFunc("GET /v1/sessions/{id}/rankings/{criterion}", h.GetRanking)

	mux.HandleFunc("GET /v1/market/quotes/{code}", h.GetQuote)

	mux.HandleFunc("GET /v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /v1/maintenance/sweep", h.Sweep)

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes the error payload.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

// writeRawJSON serves an already-marshaled payload, e.g. a cache hit.
func (h *Handler) writeRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		h.logger.Error("write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	kind := errors.KindInternal
	message := "internal error"

	var apiErr *errors.Error
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatusCode()
		kind = apiErr.Kind
		message = apiErr.Message
	}

	// Failures land on whatever span covers this request; without one
	// this records onto a no-op span.
	observability.RecordError(observability.SpanFromContext(r.Context()), err)

	if status >= http.StatusInternalServerError {
		h.logger.WithRequestID(r.Context()).Error("request failed",
			"path", r.URL.Path, "error", err)
	}

	h.writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    string(kind),
	}})
}
