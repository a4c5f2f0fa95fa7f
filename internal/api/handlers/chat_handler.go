package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
	"github.com/markdave123-py/ChatbotX/internal/services"
)

type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type createConversationRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type postMessageRequest struct {
	ConversationID int64  `json:"conversationId" validate:"required,gt=0"`
	Role           string `json:"role" validate:"required,oneof=user assistant"`
	Content        string `json:"content" validate:"required"`
}

type postMessageResponse struct {
	UserMessage *models.Message `json:"userMessage"`
	AIMessage   *models.Message `json:"aiMessage"`
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	convs, err := h.chat.ListConversations(r.Context(), userID)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, convs)
}

func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	var req createConversationRequest
	if err := decodeAndValidate(r, &req, "Invalid conversation data"); err != nil {
		RespondErr(w, r, err)
		return
	}
	conv, err := h.chat.CreateConversation(r.Context(), userID, req.Title)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, conv)
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		RespondErr(w, r, &core.ValidationError{
			Message: "Invalid conversation id",
			Fields:  map[string]string{"id": "numeric"},
		})
		return
	}
	msgs, err := h.chat.ListMessages(r.Context(), userID, id)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, msgs)
}

// PostMessage runs one chat turn. A generation fault still answers 200 with
// the stored fallback reply.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	var req postMessageRequest
	if err := decodeAndValidate(r, &req, "Invalid message data"); err != nil {
		RespondErr(w, r, err)
		return
	}

	res, err := h.chat.PostMessage(r.Context(), userID, services.NewMessage{
		ConversationID: req.ConversationID,
		Role:           req.Role,
		Content:        req.Content,
	})
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, postMessageResponse{UserMessage: res.UserMessage, AIMessage: res.AIMessage})
}
