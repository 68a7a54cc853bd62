package embedding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fundlens/fundlens/pkg/types"
)

const (
	maxSummaryLen = 500
	maxTextLen    = 2000
)

// TextRepresentation builds the canonical text fed to the embedder.
//
// Only reported values appear: a nil metric is omitted entirely rather
// than rendered as zero, so two funds differing only in which fields they
// report produce genuinely different texts.
func TextRepresentation(a *types.Analysis) string {
	var b strings.Builder

	b.WriteString("FII: ")
	b.WriteString(a.FundCode)
	if a.FundName != "" {
		b.WriteString(" (")
		b.WriteString(a.FundName)
		b.WriteString(")")
	}
	b.WriteString("\n")

	writeMetric(&b, "Dividend Yield", a.Metrics.DividendYield, "%.2f%%")
	writeMetric(&b, "P/VP", a.Metrics.PVPRatio, "%.2f")
	writeMetric(&b, "Net Worth", a.Metrics.NetWorth, "%.2f")
	writeMetric(&b, "Profitability", a.Metrics.Profitability, "%.2f%%")
	writeMetric(&b, "Liquidity", a.Metrics.Liquidity, "%.2f")
	writeMetric(&b, "Vacancy Rate", a.Metrics.VacancyRate, "%.2f%%")

	writeMetric(&b, "Current Price", a.Market.CurrentPrice, "%.2f")
	writeMetric(&b, "Market Dividend Yield", a.Market.DividendYield, "%.2f%%")
	writeMetric(&b, "Market P/VP", a.Market.PVPRatio, "%.2f")
	writeMetric(&b, "Liquidity Score", a.Market.LiquidityScore, "%.2f")
	writeMetric(&b, "Average Volume", a.Market.AvgVolume, "%.0f")

	if a.RiskRating != "" {
		fmt.Fprintf(&b, "Risk: %s\n", a.RiskRating)
	}
	if a.Recommendation != "" {
		fmt.Fprintf(&b, "Recommendation: %s\n", a.Recommendation)
	}
	if a.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", truncate(a.Summary, maxSummaryLen))
	}

	return truncate(strings.TrimRight(b.String(), "\n"), maxTextLen)
}

// writeMetric renders one labeled value. Zero is skipped along with nil:
// upstream extraction uses 0 as a "not informed" sentinel, and a phantom
// "Dividend Yield: 0.00%" line would pull unrelated funds together.
func writeMetric(b *strings.Builder, label string, v *float64, format string) {
	if v == nil || *v == 0 {
		return
	}
	fmt.Fprintf(b, "%s: "+format+"\n", label, *v)
}

// truncate caps s at max bytes without splitting a multibyte rune, so the
// result is always valid UTF-8 for the embedding request body.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
