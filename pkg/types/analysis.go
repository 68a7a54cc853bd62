// Package types defines the domain model shared by the analysis, ranking,
// and similarity components.
package types

import (
	"strings"
	"time"

	"github.com/fundlens/fundlens/pkg/errors"
)

// RiskRating is the categorical risk classification of a fund.
type RiskRating string

const (
	RiskLow    RiskRating = "LOW"
	RiskMedium RiskRating = "MEDIUM"
	RiskHigh   RiskRating = "HIGH"
)

// Recommendation is the categorical investment recommendation.
type Recommendation string

const (
	RecommendBuy  Recommendation = "BUY"
	RecommendHold Recommendation = "HOLD"
	RecommendSell Recommendation = "SELL"
)

// Metrics holds the financial metrics extracted from a fund report.
// All fields are pointers: nil means "not reported" and is never treated
// as zero by the ranking or embedding layers. Fields the extractor emits
// under names we do not model land in Extra untouched.
type Metrics struct {
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	PVPRatio      *float64 `json:"pvp_ratio,omitempty"`
	NetWorth      *float64 `json:"net_worth,omitempty"`
	Profitability *float64 `json:"profitability,omitempty"`
	Liquidity     *float64 `json:"liquidity,omitempty"`
	VacancyRate   *float64 `json:"vacancy_rate,omitempty"`

	Extra map[string]float64 `json:"extra,omitempty"`
}

// MarketData holds quote-level data fetched from market collaborators.
type MarketData struct {
	CurrentPrice   *float64 `json:"current_price,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"`
	PVPRatio       *float64 `json:"pvp_ratio,omitempty"`
	LiquidityScore *float64 `json:"liquidity_score,omitempty"`
	AvgVolume      *float64 `json:"avg_volume,omitempty"`
}

// Analysis is one analyzed fund report. Multiple analyses of the same fund
// may exist within a session; each participates independently in rankings.
type Analysis struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	FundCode  string `json:"fund_code"`
	FundName  string `json:"fund_name,omitempty"`

	Metrics Metrics    `json:"financial_metrics"`
	Market  MarketData `json:"market_data"`
	Summary string     `json:"summary,omitempty"`

	RiskRating     RiskRating     `json:"risk_rating,omitempty"`
	Recommendation Recommendation `json:"recommendation,omitempty"`

	// Embedding is derived data, regenerated (never merged) when the
	// analysis is updated. EmbeddingModel records which model produced it;
	// vectors from different models are not comparable.
	Embedding      []float64 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasEmbedding reports whether the analysis carries a usable embedding.
func (a *Analysis) HasEmbedding() bool {
	return len(a.Embedding) > 0 && a.EmbeddingModel != ""
}

// AnalysisInput is the ingestion contract with the upstream extraction
// pipeline: a loosely-typed record as produced by the PDF/LLM layer.
type AnalysisInput struct {
	FundCode         string         `json:"fund_code"`
	FundName         string         `json:"fund_name"`
	FinancialMetrics map[string]any `json:"financial_metrics"`
	MarketData       map[string]any `json:"market_data"`
	Summary          string         `json:"summary"`
	RiskRating       string         `json:"risk_rating"`
	Recommendation   string         `json:"recommendation"`
}

// metric field aliases accepted from the extraction layer.
var metricAliases = map[string][]string{
	"dividend_yield": {"dividend_yield", "dy"},
	"pvp_ratio":      {"pvp_ratio", "p_vp"},
	"net_worth":      {"net_worth", "patrimonio_liquido"},
	"profitability":  {"profitability", "rentabilidade"},
	"liquidity":      {"liquidity", "liquidez"},
	"vacancy_rate":   {"vacancy_rate", "vacancia"},
}

// Validate checks the ingestion contract: fund_code present, numeric fields
// actually numeric. Malformed records are rejected rather than coerced.
func (in *AnalysisInput) Validate() error {
	code := strings.TrimSpace(in.FundCode)
	if code == "" {
		return errors.NewInvalidInput("analysis.ingest", "fund_code is required")
	}
	for name, raw := range in.FinancialMetrics {
		if !numericOrMissing(raw) {
			return errors.NewInvalidInput("analysis.ingest",
				"financial_metrics."+name+" is not numeric")
		}
	}
	for name, raw := range in.MarketData {
		if !numericOrMissing(raw) {
			return errors.NewInvalidInput("analysis.ingest",
				"market_data."+name+" is not numeric")
		}
	}
	switch in.RiskRating {
	case "", string(RiskLow), string(RiskMedium), string(RiskHigh):
	default:
		return errors.NewInvalidInput("analysis.ingest", "risk_rating must be LOW, MEDIUM, or HIGH")
	}
	switch in.Recommendation {
	case "", string(RecommendBuy), string(RecommendHold), string(RecommendSell):
	default:
		return errors.NewInvalidInput("analysis.ingest", "recommendation must be BUY, HOLD, or SELL")
	}
	return nil
}

// ToAnalysis converts the raw input into a typed Analysis.
// Absent, "N/A", null, and zero-sentinel values all map to nil ("not
// reported"). The upstream extractor emits a literal 0 for fields it could
// not read, which conflates legitimate zeros (e.g. zero vacancy) with
// missing data; we inherit that convention at this boundary only.
func (in *AnalysisInput) ToAnalysis(sessionID string) (*Analysis, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	a := &Analysis{
		SessionID:      sessionID,
		FundCode:       normalizeFundCode(in.FundCode),
		FundName:       strings.TrimSpace(in.FundName),
		Summary:        in.Summary,
		RiskRating:     RiskRating(in.RiskRating),
		Recommendation: Recommendation(in.Recommendation),
	}

	claimed := make(map[string]bool)
	assign := func(field **float64, canonical string) {
		for _, alias := range metricAliases[canonical] {
			claimed[alias] = true
			if *field == nil {
				if v := ParseNumber(in.FinancialMetrics[alias]); v != nil {
					*field = v
				}
			}
		}
	}
	assign(&a.Metrics.DividendYield, "dividend_yield")
	assign(&a.Metrics.PVPRatio, "pvp_ratio")
	assign(&a.Metrics.NetWorth, "net_worth")
	assign(&a.Metrics.Profitability, "profitability")
	assign(&a.Metrics.Liquidity, "liquidity")
	assign(&a.Metrics.VacancyRate, "vacancy_rate")

	for name, raw := range in.FinancialMetrics {
		if claimed[name] {
			continue
		}
		if v := ParseNumber(raw); v != nil {
			if a.Metrics.Extra == nil {
				a.Metrics.Extra = make(map[string]float64)
			}
			a.Metrics.Extra[name] = *v
		}
	}

	a.Market.CurrentPrice = ParseNumber(in.MarketData["current_price"])
	a.Market.DividendYield = ParseNumber(in.MarketData["dividend_yield"])
	a.Market.PVPRatio = ParseNumber(in.MarketData["pvp_ratio"])
	a.Market.LiquidityScore = ParseNumber(in.MarketData["liquidity_score"])
	a.Market.AvgVolume = ParseNumber(in.MarketData["avg_volume"])

	return a, nil
}

func normalizeFundCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "N/A" {
		return "N/A"
	}
	return code
}

func numericOrMissing(raw any) bool {
	if raw == nil {
		return true
	}
	switch v := raw.(type) {
	case float64, float32, int, int32, int64:
		return true
	case string:
		// Strings must either parse as numbers or be an explicit
		// missing marker.
		if isMissingMarker(v) {
			return true
		}
		return ParseNumber(v) != nil
	default:
		return false
	}
}
