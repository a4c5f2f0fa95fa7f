package handlers

import (
	"net/http"
	"strings"

	"github.com/markdave123-py/ChatbotX/internal/services"
)

type EmotionalStateHandler struct {
	states   *services.EmotionalStateService
	advisory *services.AdvisoryService
}

func NewEmotionalStateHandler(states *services.EmotionalStateService, advisory *services.AdvisoryService) *EmotionalStateHandler {
	return &EmotionalStateHandler{states: states, advisory: advisory}
}

type recordStateRequest struct {
	Sentiment  string   `json:"sentiment" validate:"required,oneof=optimistic neutral pessimistic"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	Notes      *string  `json:"notes"`
}

type analyzeSentimentRequest struct {
	Text string `json:"text" validate:"required"`
	Save bool   `json:"save"`
}

// Latest answers JSON null when nothing has been recorded yet.
func (h *EmotionalStateHandler) Latest(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	state, err := h.states.Latest(r.Context(), userID)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, state)
}

func (h *EmotionalStateHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	var req recordStateRequest
	if err := decodeAndValidate(r, &req, "Invalid emotional state data"); err != nil {
		RespondErr(w, r, err)
		return
	}
	state, err := h.states.Record(r.Context(), userID, req.Sentiment, *req.Confidence, req.Notes)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, state)
}

// AnalyzeSentiment classifies free text. With save set, the result is also
// stored as the caller's latest emotional state.
func (h *EmotionalStateHandler) AnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	var req analyzeSentimentRequest
	if err := decodeJSON(r, &req, "Text is required"); err != nil {
		RespondErr(w, r, err)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := validateStruct(&req, "Text is required"); err != nil {
		RespondErr(w, r, err)
		return
	}

	if !req.Save {
		RespondJSON(w, http.StatusOK, h.advisory.ClassifySentiment(r.Context(), req.Text))
		return
	}
	_, sent, err := h.states.RecordFromText(r.Context(), userID, req.Text)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, sent)
}
