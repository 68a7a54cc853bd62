package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	t.Run("native numbers", func(t *testing.T) {
		v := ParseNumber(float64(8.5))
		require.NotNil(t, v)
		assert.Equal(t, 8.5, *v)

		v = ParseNumber(12)
		require.NotNil(t, v)
		assert.Equal(t, 12.0, *v)
	})

	t.Run("percent and currency strings", func(t *testing.T) {
		v := ParseNumber("8,5%")
		require.NotNil(t, v)
		assert.Equal(t, 8.5, *v)

		v = ParseNumber("R$ 102,40")
		require.NotNil(t, v)
		assert.Equal(t, 102.40, *v)

		v = ParseNumber("1.234,56")
		require.NotNil(t, v)
		assert.Equal(t, 1234.56, *v)
	})

	t.Run("missing markers map to nil", func(t *testing.T) {
		for _, raw := range []any{nil, "N/A", "n/a", "", "-", "null"} {
			assert.Nil(t, ParseNumber(raw), "raw=%v", raw)
		}
	})

	t.Run("zero sentinel maps to nil", func(t *testing.T) {
		assert.Nil(t, ParseNumber(float64(0)))
		assert.Nil(t, ParseNumber("0"))
	})

	t.Run("garbage strings map to nil", func(t *testing.T) {
		assert.Nil(t, ParseNumber("not a number"))
	})
}

func TestPositiveOnly(t *testing.T) {
	neg := -0.5
	pos := 0.85
	assert.Nil(t, PositiveOnly(nil))
	assert.Nil(t, PositiveOnly(&neg))
	require.NotNil(t, PositiveOnly(&pos))
	assert.Equal(t, 0.85, *PositiveOnly(&pos))
}

func TestAnalysisInputValidate(t *testing.T) {
	t.Run("missing fund code rejected", func(t *testing.T) {
		in := &AnalysisInput{}
		assert.Error(t, in.Validate())
	})

	t.Run("non-numeric metric rejected", func(t *testing.T) {
		in := &AnalysisInput{
			FundCode:         "XPLG11",
			FinancialMetrics: map[string]any{"dividend_yield": []int{1, 2}},
		}
		assert.Error(t, in.Validate())
	})

	t.Run("invalid risk rating rejected", func(t *testing.T) {
		in := &AnalysisInput{FundCode: "XPLG11", RiskRating: "EXTREME"}
		assert.Error(t, in.Validate())
	})

	t.Run("valid input accepted", func(t *testing.T) {
		in := &AnalysisInput{
			FundCode:         "xplg11",
			FinancialMetrics: map[string]any{"dy": "8,5%", "p_vp": 0.92},
			MarketData:       map[string]any{"current_price": 102.4},
			RiskRating:       "LOW",
			Recommendation:   "BUY",
		}
		require.NoError(t, in.Validate())
	})
}

func TestAnalysisInputToAnalysis(t *testing.T) {
	in := &AnalysisInput{
		FundCode: "xplg11",
		FundName: "XP Log",
		FinancialMetrics: map[string]any{
			"dy":            "8,5%",
			"p_vp":          0.92,
			"cap_rate":      7.1, // unmodeled, lands in Extra
			"vacancia":      "N/A",
			"dividend_cagr": nil,
		},
		MarketData: map[string]any{
			"current_price": 102.4,
			"avg_volume":    float64(0), // sentinel, not reported
		},
		Summary:        "Logistics fund with long leases.",
		RiskRating:     "LOW",
		Recommendation: "BUY",
	}

	a, err := in.ToAnalysis("sess-1")
	require.NoError(t, err)

	assert.Equal(t, "XPLG11", a.FundCode)
	assert.Equal(t, "sess-1", a.SessionID)

	require.NotNil(t, a.Metrics.DividendYield)
	assert.Equal(t, 8.5, *a.Metrics.DividendYield)
	require.NotNil(t, a.Metrics.PVPRatio)
	assert.Equal(t, 0.92, *a.Metrics.PVPRatio)
	assert.Nil(t, a.Metrics.VacancyRate)

	assert.Equal(t, 7.1, a.Metrics.Extra["cap_rate"])
	_, hasCagr := a.Metrics.Extra["dividend_cagr"]
	assert.False(t, hasCagr)

	require.NotNil(t, a.Market.CurrentPrice)
	assert.Equal(t, 102.4, *a.Market.CurrentPrice)
	assert.Nil(t, a.Market.AvgVolume, "zero sentinel must not become a reported value")

	assert.Equal(t, RiskLow, a.RiskRating)
	assert.Equal(t, RecommendBuy, a.Recommendation)
}
