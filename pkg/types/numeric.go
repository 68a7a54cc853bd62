package types

import (
	"strconv"
	"strings"
)

// ParseNumber extracts an optional numeric value from the loosely-typed
// formats the extraction layer produces: native numbers, or strings such as
// "8,5%", "R$ 102,40", and "1.234". It returns nil for absent values,
// missing markers, and the extractor's zero sentinel.
func ParseNumber(raw any) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return nonZero(v)
	case float32:
		return nonZero(float64(v))
	case int:
		return nonZero(float64(v))
	case int32:
		return nonZero(float64(v))
	case int64:
		return nonZero(float64(v))
	case string:
		return parseNumericString(v)
	default:
		return nil
	}
}

// PositiveOnly returns v only if it is present and strictly positive.
// Ratio-like metrics (P/VP, liquidity) are meaningless at or below zero.
func PositiveOnly(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func parseNumericString(s string) *float64 {
	if isMissingMarker(s) {
		return nil
	}
	clean := strings.NewReplacer("%", "", "R$", "", " ", "").Replace(s)
	clean = strings.TrimSpace(clean)
	// Brazilian decimal comma: "8,5" means 8.5. A value with both
	// separators like "1.234,56" uses "." for thousands.
	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil
	}
	return nonZero(f)
}

func isMissingMarker(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "N/A", "NA", "-", "--", "NULL", "NONE":
		return true
	}
	return false
}

// nonZero maps the extractor's 0 sentinel to "not reported".
func nonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
