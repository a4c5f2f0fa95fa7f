package handlers

import (
	"net/http"

	"github.com/markdave123-py/ChatbotX/internal/services"
)

type WatchlistHandler struct {
	watchlist *services.WatchlistService
}

func NewWatchlistHandler(watchlist *services.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist}
}

type addWatchlistRequest struct {
	Symbol      string  `json:"symbol" validate:"required,max=10"`
	CompanyName *string `json:"companyName" validate:"omitempty,max=200"`
}

func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	items, err := h.watchlist.List(r.Context(), userID)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, items)
}

func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	var req addWatchlistRequest
	if err := decodeAndValidate(r, &req, "Invalid watchlist data"); err != nil {
		RespondErr(w, r, err)
		return
	}
	item, err := h.watchlist.Add(r.Context(), userID, req.Symbol, req.CompanyName)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, item)
}
