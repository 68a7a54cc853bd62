package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

// MemoryStore implements Store with insertion-ordered slices.
type MemoryStore struct {
	mu       sync.Mutex
	analyses []*types.Analysis
	byID     map[string]*types.Analysis

	// rankings keyed by sessionID then rankingType.
	rankings map[string]map[string][]types.RankingEntry
}

// NewMemoryStore creates an empty in-memory analysis store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*types.Analysis),
		rankings: make(map[string]map[string][]types.RankingEntry),
	}
}

// SaveAnalysis persists the analysis, assigning an ID when absent.
func (s *MemoryStore) SaveAnalysis(ctx context.Context, a *types.Analysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[a.ID]; exists {
		return errors.NewDataIntegrity("store.save", "analysis ID already exists", nil)
	}
	stored := *a
	s.analyses = append(s.analyses, &stored)
	s.byID[a.ID] = &stored
	return nil
}

// UpdateEmbedding replaces the stored embedding wholesale.
func (s *MemoryStore) UpdateEmbedding(ctx context.Context, analysisID string, vector []float64, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[analysisID]
	if !ok {
		return errors.NewNotFound("store.update_embedding", "analysis not found")
	}
	a.Embedding = append([]float64(nil), vector...)
	a.EmbeddingModel = model
	return nil
}

// GetAnalysis returns a copy of the analysis, or nil when absent.
func (s *MemoryStore) GetAnalysis(ctx context.Context, analysisID string) (*types.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[analysisID]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

// ListBySession returns the session's analyses in insertion order.
func (s *MemoryStore) ListBySession(ctx context.Context, sessionID string) ([]*types.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*types.Analysis
	for _, a := range s.analyses {
		if a.SessionID == sessionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListEmbedded returns embedded analyses of the given model in insertion order.
func (s *MemoryStore) ListEmbedded(ctx context.Context, sessionID, model string) ([]*types.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*types.Analysis
	for _, a := range s.analyses {
		if sessionID != "" && a.SessionID != sessionID {
			continue
		}
		if !a.HasEmbedding() || a.EmbeddingModel != model {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// DeleteBySession removes the session's analyses and rankings in one step.
func (s *MemoryStore) DeleteBySession(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.analyses[:0]
	removed := 0
	for _, a := range s.analyses {
		if a.SessionID == sessionID {
			delete(s.byID, a.ID)
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.analyses = kept
	delete(s.rankings, sessionID)
	return removed, nil
}

// ReplaceRankings swaps the whole (session, type) group.
func (s *MemoryStore) ReplaceRankings(ctx context.Context, sessionID, rankingType string, entries []types.RankingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.rankings[sessionID]
	if !ok {
		group = make(map[string][]types.RankingEntry)
		s.rankings[sessionID] = group
	}
	group[rankingType] = append([]types.RankingEntry(nil), entries...)
	return nil
}

// GetRankings returns the stored ranking ordered by position.
func (s *MemoryStore) GetRankings(ctx context.Context, sessionID, rankingType string) ([]types.RankingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.rankings[sessionID]
	if !ok {
		return nil, nil
	}
	return append([]types.RankingEntry(nil), group[rankingType]...), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
