// Package store persists analyses and their computed rankings.
// Two implementations exist: an insertion-ordered in-memory store for tests
// and single-process use, and a PostgreSQL store for shared deployments.
package store

import (
	"context"

	"github.com/fundlens/fundlens/pkg/types"
)

// Store is the persistence contract for analyses and rankings.
// List methods return analyses in insertion order; ranking engines rely on
// that order as the stable tie-break.
type Store interface {
	// SaveAnalysis persists a new analysis and assigns its ID.
	// Embedding fields are stored exactly as given; updating a record's
	// embedding replaces the previous vector wholesale.
	SaveAnalysis(ctx context.Context, a *types.Analysis) error

	// UpdateEmbedding replaces the stored embedding of an analysis.
	UpdateEmbedding(ctx context.Context, analysisID string, vector []float64, model string) error

	// GetAnalysis returns the analysis, or nil when absent.
	GetAnalysis(ctx context.Context, analysisID string) (*types.Analysis, error)

	// ListBySession returns all analyses of a session in insertion order.
	ListBySession(ctx context.Context, sessionID string) ([]*types.Analysis, error)

	// ListEmbedded returns analyses carrying an embedding produced by the
	// given model, in insertion order. An empty sessionID means all
	// sessions (global similarity scope).
	ListEmbedded(ctx context.Context, sessionID, model string) ([]*types.Analysis, error)

	// DeleteBySession removes every analysis of a session, including their
	// ranking entries, returning the number of analyses removed.
	DeleteBySession(ctx context.Context, sessionID string) (int, error)

	// ReplaceRankings atomically replaces all ranking entries of
	// (sessionID, rankingType) with the given set. Stale ranks never
	// survive a recompute.
	ReplaceRankings(ctx context.Context, sessionID, rankingType string, entries []types.RankingEntry) error

	// GetRankings returns the stored ranking ordered by position.
	GetRankings(ctx context.Context, sessionID, rankingType string) ([]types.RankingEntry, error)

	// Close releases resources held by the store.
	Close() error
}
