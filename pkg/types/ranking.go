package types

import "time"

// RankingEntry is one row of a computed ranking. Positions run serially
// 1..N within their (session, ranking type) group, even across tied
// scores, and a recompute replaces the whole group.
type RankingEntry struct {
	SessionID   string `json:"session_id"`
	RankingType string `json:"ranking_type"`

	RankPosition int     `json:"rank_position"`
	Score        float64 `json:"score"`
	Description  string  `json:"description,omitempty"`

	AnalysisID string `json:"analysis_id"`
	FundCode   string `json:"fund_code"`
	FundName   string `json:"fund_name,omitempty"`

	// MetricDetails documents which raw inputs produced the score.
	MetricDetails map[string]any `json:"metric_details,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// SimilarityMatch is one neighbor returned by the similarity engine.
type SimilarityMatch struct {
	AnalysisID     string         `json:"analysis_id"`
	FundCode       string         `json:"fund_code"`
	FundName       string         `json:"fund_name,omitempty"`
	Score          float64        `json:"similarity_score"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
	RiskRating     RiskRating     `json:"risk_rating,omitempty"`
}
