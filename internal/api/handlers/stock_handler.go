package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/ChatbotX/internal/core/market"
	"github.com/markdave123-py/ChatbotX/internal/models"
	"github.com/markdave123-py/ChatbotX/internal/services"
)

type StockHandler struct {
	gateway  *market.Gateway
	advisory *services.AdvisoryService
}

func NewStockHandler(gateway *market.Gateway, advisory *services.AdvisoryService) *StockHandler {
	return &StockHandler{gateway: gateway, advisory: advisory}
}

func (h *StockHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.gateway.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, q)
}

func (h *StockHandler) Historical(w http.ResponseWriter, r *http.Request) {
	gran, err := market.ParseGranularity(r.URL.Query().Get("period"))
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	bars, err := h.gateway.History(r.Context(), chi.URLParam(r, "symbol"), gran)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, bars)
}

func (h *StockHandler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.gateway.TopPerformers(r.Context()))
}

type symbolSentimentResponse struct {
	Symbol   string       `json:"symbol"`
	Quote    models.Quote `json:"quote"`
	Analysis string       `json:"analysis"`
}

// Sentiment quotes the symbol and asks the advisor for a short outlook on it.
func (h *StockHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	q, err := h.gateway.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	analysis, err := h.advisory.SymbolSentiment(r.Context(), q.Symbol, q)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, symbolSentimentResponse{Symbol: q.Symbol, Quote: q, Analysis: analysis})
}
