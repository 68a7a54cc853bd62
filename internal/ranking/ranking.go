// Package ranking orders a session's fund analyses by investment criteria.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fundlens/fundlens/internal/metrics"
	"github.com/fundlens/fundlens/internal/store"
	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

// Criterion names a ranking dimension.
type Criterion string

const (
	CriterionDividendYield  Criterion = "dividend_yield"
	CriterionPVPRatio       Criterion = "pvp_ratio"
	CriterionLiquidity      Criterion = "liquidity"
	CriterionRiskRating     Criterion = "risk_rating"
	CriterionRecommendation Criterion = "recommendation"
	CriterionComprehensive  Criterion = "comprehensive"
)

// Criteria lists every supported criterion.
func Criteria() []Criterion {
	return []Criterion{
		CriterionDividendYield,
		CriterionPVPRatio,
		CriterionLiquidity,
		CriterionRiskRating,
		CriterionRecommendation,
		CriterionComprehensive,
	}
}

func (c Criterion) valid() bool {
	for _, known := range Criteria() {
		if c == known {
			return true
		}
	}
	return false
}

// ascending reports whether lower scores rank better.
func (c Criterion) ascending() bool {
	return c == CriterionPVPRatio
}

// Engine computes and persists rankings over a session's analyses.
//
// Funds that do not report the criterion's underlying value are excluded
// from that ranking rather than scored as zero. A fund with no dividend
// data is unrankable by yield, not the worst payer in the session.
type Engine struct {
	store store.Store

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine creates a ranking engine over the given store.
func NewEngine(st store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// ComputeRanking scores the session's analyses by the criterion, persists
// the result in place of any previous ranking of the same criterion, and
// returns the entries in rank order. A positive limit keeps only the top
// entries; zero or negative keeps them all.
func (e *Engine) ComputeRanking(ctx context.Context, sessionID string, criterion string, limit int) ([]types.RankingEntry, error) {
	c := Criterion(criterion)
	if !c.valid() {
		return nil, errors.NewInvalidCriterion("ranking.compute", criterion)
	}

	analyses, err := e.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var items []scoredItem
	for _, a := range analyses {
		if item, ok := scoreAnalysis(c, a); ok {
			items = append(items, item)
		}
	}

	// Stable keeps equal scores in input order.
	sort.SliceStable(items, func(i, j int) bool {
		if c.ascending() {
			return items[i].score < items[j].score
		}
		return items[i].score > items[j].score
	})

	now := e.now()
	entries := make([]types.RankingEntry, 0, len(items))
	for i, it := range items {
		// Positions are serial even on tied scores, so each
		// (session, criterion, position) triple stays unique.
		entries = append(entries, types.RankingEntry{
			SessionID:     sessionID,
			RankingType:   string(c),
			RankPosition:  i + 1,
			Score:         it.score,
			Description:   it.description,
			AnalysisID:    it.analysis.ID,
			FundCode:      it.analysis.FundCode,
			FundName:      it.analysis.FundName,
			MetricDetails: it.details,
			CreatedAt:     now,
		})
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if err := e.store.ReplaceRankings(ctx, sessionID, string(c), entries); err != nil {
		return nil, err
	}
	metrics.RankingsComputed.WithLabelValues(string(c)).Inc()
	return entries, nil
}

// GetRanking returns the stored ranking for the criterion in rank order.
func (e *Engine) GetRanking(ctx context.Context, sessionID string, criterion string) ([]types.RankingEntry, error) {
	c := Criterion(criterion)
	if !c.valid() {
		return nil, errors.NewInvalidCriterion("ranking.get", criterion)
	}
	return e.store.GetRankings(ctx, sessionID, string(c))
}

type scoredItem struct {
	analysis    *types.Analysis
	score       float64
	description string
	details     map[string]any
}

func scoreAnalysis(c Criterion, a *types.Analysis) (scoredItem, bool) {
	switch c {
	case CriterionDividendYield:
		v := firstPresent(a.Metrics.DividendYield, a.Market.DividendYield)
		if v == nil {
			return scoredItem{}, false
		}
		return scoredItem{
			analysis:    a,
			score:       *v,
			description: describe(a, fmt.Sprintf("DY: %.2f%%", *v)),
			details:     map[string]any{"dividend_yield": *v},
		}, true

	case CriterionPVPRatio:
		v := types.PositiveOnly(firstPresent(a.Metrics.PVPRatio, a.Market.PVPRatio))
		if v == nil {
			return scoredItem{}, false
		}
		return scoredItem{
			analysis:    a,
			score:       *v,
			description: describe(a, fmt.Sprintf("P/VP: %.2f", *v)),
			details:     map[string]any{"pvp_ratio": *v},
		}, true

	case CriterionLiquidity:
		v := types.PositiveOnly(firstPresent(a.Metrics.Liquidity, a.Market.LiquidityScore, a.Market.AvgVolume))
		if v == nil {
			return scoredItem{}, false
		}
		return scoredItem{
			analysis:    a,
			score:       *v,
			description: describe(a, fmt.Sprintf("Liquidity: %.0f", *v)),
			details:     map[string]any{"liquidity": *v},
		}, true

	case CriterionRiskRating:
		score, ok := normalizeRisk(a.RiskRating)
		if !ok {
			return scoredItem{}, false
		}
		return scoredItem{
			analysis:    a,
			score:       score,
			description: describe(a, fmt.Sprintf("Risk: %s", a.RiskRating)),
			details:     map[string]any{"risk_rating": string(a.RiskRating)},
		}, true

	case CriterionRecommendation:
		score, ok := normalizeRecommendation(a.Recommendation)
		if !ok {
			return scoredItem{}, false
		}
		return scoredItem{
			analysis:    a,
			score:       score,
			description: describe(a, fmt.Sprintf("Rec: %s", a.Recommendation)),
			details:     map[string]any{"recommendation": string(a.Recommendation)},
		}, true

	case CriterionComprehensive:
		return scoreComprehensive(a)
	}
	return scoredItem{}, false
}

// scoreComprehensive blends the normalized components a fund reports,
// weighted and renormalized by the present-weight sum. The blend lands in
// [0, 1] and is reported as a percentage.
func scoreComprehensive(a *types.Analysis) (scoredItem, bool) {
	var weighted, weightSum float64
	details := map[string]any{}
	var parts []string

	if v := firstPresent(a.Metrics.DividendYield, a.Market.DividendYield); v != nil {
		n := normalizeDividendYield(*v)
		weighted += n * weightDividendYield
		weightSum += weightDividendYield
		details["dividend_yield"] = *v
		parts = append(parts, fmt.Sprintf("DY: %.2f%%", *v))
	}
	if v := types.PositiveOnly(firstPresent(a.Metrics.PVPRatio, a.Market.PVPRatio)); v != nil {
		n := normalizePVP(*v)
		weighted += n * weightPVPRatio
		weightSum += weightPVPRatio
		details["pvp_ratio"] = *v
		parts = append(parts, fmt.Sprintf("P/VP: %.2f", *v))
	}
	if v := types.PositiveOnly(firstPresent(a.Metrics.Liquidity, a.Market.LiquidityScore, a.Market.AvgVolume)); v != nil {
		n := normalizeLiquidity(*v)
		weighted += n * weightLiquidity
		weightSum += weightLiquidity
		details["liquidity"] = *v
		parts = append(parts, fmt.Sprintf("Liquidity: %.0f", *v))
	}
	if a.Market.CurrentPrice != nil {
		parts = append(parts, fmt.Sprintf("Price: R$ %.2f", *a.Market.CurrentPrice))
	}
	if n, ok := normalizeRisk(a.RiskRating); ok {
		weighted += n * weightRiskRating
		weightSum += weightRiskRating
		details["risk_rating"] = string(a.RiskRating)
		parts = append(parts, fmt.Sprintf("Risk: %s", a.RiskRating))
	}
	if n, ok := normalizeRecommendation(a.Recommendation); ok {
		weighted += n * weightRecommendation
		weightSum += weightRecommendation
		details["recommendation"] = string(a.Recommendation)
		parts = append(parts, fmt.Sprintf("Rec: %s", a.Recommendation))
	}

	if weightSum == 0 {
		return scoredItem{}, false
	}

	composite := weighted / weightSum
	details["composite"] = composite
	return scoredItem{
		analysis:    a,
		score:       composite * 100,
		description: describe(a, fmt.Sprintf("Score: %.1f%%", composite*100), parts...),
		details:     details,
	}, true
}

func describe(a *types.Analysis, lead string, parts ...string) string {
	all := make([]string, 0, len(parts)+2)
	name := a.FundCode
	if a.FundName != "" {
		name = fmt.Sprintf("%s (%s)", a.FundCode, a.FundName)
	}
	all = append(all, name, lead)
	all = append(all, parts...)
	return strings.Join(all, " | ")
}

func firstPresent(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
