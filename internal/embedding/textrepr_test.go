package embedding

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/fundlens/fundlens/pkg/types"
)

func f(v float64) *float64 { return &v }

func TestTextRepresentation_IncludesReportedFields(t *testing.T) {
	a := &types.Analysis{
		FundCode: "HGLG11",
		FundName: "CSHG Logística",
		Metrics: types.Metrics{
			DividendYield: f(8.5),
			PVPRatio:      f(0.95),
		},
		RiskRating:     types.RiskLow,
		Recommendation: types.RecommendBuy,
		Summary:        "Solid logistics fund.",
	}

	text := TextRepresentation(a)
	assert.Contains(t, text, "FII: HGLG11 (CSHG Logística)")
	assert.Contains(t, text, "Dividend Yield: 8.50%")
	assert.Contains(t, text, "P/VP: 0.95")
	assert.Contains(t, text, "Risk: LOW")
	assert.Contains(t, text, "Recommendation: BUY")
	assert.Contains(t, text, "Summary: Solid logistics fund.")
}

func TestTextRepresentation_OmitsMissingFields(t *testing.T) {
	a := &types.Analysis{
		FundCode: "KNRI11",
		Metrics: types.Metrics{
			DividendYield: f(7.0),
			// P/VP not reported.
		},
	}

	text := TextRepresentation(a)
	assert.Contains(t, text, "Dividend Yield: 7.00%")
	assert.NotContains(t, text, "P/VP")
	assert.NotContains(t, text, "Vacancy")
	assert.NotContains(t, text, "Summary")
}

func TestTextRepresentation_ZeroTreatedAsNotInformed(t *testing.T) {
	missing := &types.Analysis{FundCode: "XPML11"}
	zero := &types.Analysis{FundCode: "XPML11", Metrics: types.Metrics{VacancyRate: f(0)}}

	// Upstream extraction uses 0 as a sentinel, so the text renders
	// neither; the two records embed identically.
	assert.Equal(t, TextRepresentation(missing), TextRepresentation(zero))
	assert.NotContains(t, TextRepresentation(zero), "Vacancy")
}

func TestTextRepresentation_TruncatesLongSummary(t *testing.T) {
	a := &types.Analysis{
		FundCode: "HGLG11",
		Summary:  strings.Repeat("x", 600),
	}

	text := TextRepresentation(a)
	assert.Contains(t, text, strings.Repeat("x", 500)+"...")
	assert.NotContains(t, text, strings.Repeat("x", 501))
}

func TestTextRepresentation_TruncationKeepsValidUTF8(t *testing.T) {
	// A multibyte run positioned so a byte-indexed cut would land inside
	// a rune. The cut must back up to the rune boundary.
	a := &types.Analysis{
		FundCode: "HGLG11",
		Summary:  "a" + strings.Repeat("ç", 400),
	}

	text := TextRepresentation(a)
	assert.True(t, utf8.ValidString(text))
	assert.True(t, strings.HasSuffix(text, "..."))
	assert.NotContains(t, text, string(utf8.RuneError))
}

func TestTruncate_BacksUpToRuneBoundary(t *testing.T) {
	s := strings.Repeat("ã", 10) // 20 bytes

	out := truncate(s, 5)
	assert.Equal(t, strings.Repeat("ã", 2)+"...", out)
	assert.True(t, utf8.ValidString(out))

	// Already short enough: returned untouched.
	assert.Equal(t, s, truncate(s, 20))
}

func TestTextRepresentation_CapsTotalLength(t *testing.T) {
	a := &types.Analysis{
		FundCode: strings.Repeat("A", 3000),
	}

	text := TextRepresentation(a)
	assert.LessOrEqual(t, len(text), maxTextLen+len("..."))
	assert.True(t, strings.HasSuffix(text, "..."))
}
