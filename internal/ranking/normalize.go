package ranking

import (
	"math"

	"github.com/fundlens/fundlens/pkg/types"
)

// Composite weights. Renormalized at scoring time by the weight sum of the
// components a fund actually reports, so missing data shrinks the
// denominator instead of being imputed as zero.
const (
	weightDividendYield  = 0.30
	weightPVPRatio       = 0.25
	weightLiquidity      = 0.20
	weightRiskRating     = 0.15
	weightRecommendation = 0.10
)

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// normalizeDividendYield maps a yield percentage onto [0, 1] with 15%
// treated as the practical ceiling.
func normalizeDividendYield(v float64) float64 {
	return clamp01(v / 15.0)
}

// normalizePVP rewards discounts to book value. 0.5 or below scores 1.0,
// 2.0 or above scores 0.
func normalizePVP(v float64) float64 {
	return clamp01((2.0 - v) / 1.5)
}

// normalizeLiquidity compresses daily volume logarithmically; one million
// a day is already most of the way to the ceiling.
func normalizeLiquidity(v float64) float64 {
	return clamp01(math.Log10(v+1) / 6.0)
}

func normalizeRisk(r types.RiskRating) (float64, bool) {
	switch r {
	case types.RiskLow:
		return 1.0, true
	case types.RiskMedium:
		return 0.7, true
	case types.RiskHigh:
		return 0.3, true
	}
	return 0, false
}

func normalizeRecommendation(r types.Recommendation) (float64, bool) {
	switch r {
	case types.RecommendBuy:
		return 1.0, true
	case types.RecommendHold:
		return 0.6, true
	case types.RecommendSell:
		return 0.2, true
	}
	return 0, false
}
