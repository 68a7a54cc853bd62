package api

import (
	"net/http"
	"strings"

	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

// QuoteResponse carries current market data for one fund.
type QuoteResponse struct {
	FundCode string           `json:"fund_code"`
	Quote    types.MarketData `json:"quote"`
}

// GetQuote returns current market data for the fund code.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	if code == "" {
		h.writeError(w, r, errors.NewInvalidInput("api.get_quote", "fund code is required"))
		return
	}
	if h.market == nil {
		h.writeError(w, r, errors.NewNotFound("api.get_quote", "no market data provider configured"))
		return
	}

	quote, err := h.market.FetchQuote(r.Context(), code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, QuoteResponse{
		FundCode: code,
		Quote:    *quote,
	})
}
