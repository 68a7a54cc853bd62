// Package similarity finds analyses with semantically close embeddings.
package similarity

import (
	"context"
	"math"
	"sort"

	"github.com/fundlens/fundlens/internal/metrics"
	"github.com/fundlens/fundlens/internal/store"
	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

const (
	// DefaultLimit caps how many matches a query returns when the caller
	// does not say.
	DefaultLimit = 10

	// DefaultMinSimilarity is the score floor below which a candidate is
	// not considered a match. Cosine scores under it are noise for this
	// corpus rather than genuine neighbors.
	DefaultMinSimilarity = 0.3
)

// Engine scores stored analyses against a target by cosine similarity.
//
// Candidates are restricted to the target's embedding model: vectors from
// different models live in unrelated spaces and comparing them would
// produce plausible-looking nonsense.
type Engine struct {
	store store.Store
}

// NewEngine creates a similarity engine over the given store.
func NewEngine(st store.Store) *Engine {
	return &Engine{store: st}
}

// Query tunes a similarity lookup.
type Query struct {
	// Limit caps the number of matches; DefaultLimit when not positive.
	Limit int

	// MinSimilarity is the inclusive score floor. Zero means
	// DefaultMinSimilarity; pass a negative value to disable the floor.
	MinSimilarity float64

	// Global widens the candidate set from the target's session to every
	// embedded analysis sharing the target's model.
	Global bool
}

// FindSimilar returns the analyses whose cosine similarity to the target is
// at least the query's score floor, best first. The target itself is never
// included. An empty result is not an error.
func (e *Engine) FindSimilar(ctx context.Context, analysisID string, q Query) ([]types.SimilarityMatch, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	minSim := q.MinSimilarity
	if minSim == 0 {
		minSim = DefaultMinSimilarity
	}

	target, err := e.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errors.NewNotFound("similarity.find", "analysis not found")
	}
	// A target without an embedding has no position in the vector space;
	// that is a normal empty result, not a failure.
	if !target.HasEmbedding() {
		return nil, nil
	}

	scope := target.SessionID
	if q.Global {
		scope = ""
	}
	candidates, err := e.store.ListEmbedded(ctx, scope, target.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	metrics.SimilarityQueries.Inc()

	var matches []types.SimilarityMatch
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		score, ok := Cosine(target.Embedding, c.Embedding)
		if !ok || score < minSim {
			continue
		}
		matches = append(matches, types.SimilarityMatch{
			AnalysisID:     c.ID,
			FundCode:       c.FundCode,
			FundName:       c.FundName,
			Score:          score,
			Recommendation: c.Recommendation,
			RiskRating:     c.RiskRating,
		})
	}

	// Stable keeps candidates with equal scores in insertion order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Cosine computes the cosine similarity of two vectors. It reports false
// when the vectors have different dimensions or either has zero norm.
func Cosine(a, b []float64) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
