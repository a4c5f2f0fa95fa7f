package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/metrics"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

// FallbackReply is stored as the assistant turn when advice generation fails.
const FallbackReply = "I apologize, but I'm experiencing technical difficulties. Please try your question again."

// ContextWindow is how many stored messages are replayed to the model.
const ContextWindow = 10

type TurnOutcome string

const (
	Delivered             TurnOutcome = "delivered"
	DeliveredWithFallback TurnOutcome = "fallback"
)

// NewMessage is a validated chat post.
type NewMessage struct {
	ConversationID int64
	Role           string
	Content        string
}

// TurnResult is the outcome of one chat turn. Cause is set only for
// DeliveredWithFallback.
type TurnResult struct {
	UserMessage *models.Message
	AIMessage   *models.Message
	Outcome     TurnOutcome
	Cause       error
}

// Advisor is the slice of AdvisoryService the chat flow depends on.
type Advisor interface {
	GenerateAdvice(ctx context.Context, message, convContext string) (string, error)
}

var _ Advisor = (*AdvisoryService)(nil)

type ChatService struct {
	db      core.DbClient
	advisor Advisor
}

func NewChatService(db core.DbClient, advisor Advisor) *ChatService {
	return &ChatService{db: db, advisor: advisor}
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.db.ListConversations(ctx, userID)
}

func (s *ChatService) CreateConversation(ctx context.Context, userID, title string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &core.ValidationError{
			Message: "Invalid conversation data",
			Fields:  map[string]string{"title": "required"},
		}
	}
	return s.db.CreateConversation(ctx, &models.Conversation{UserID: userID, Title: title})
}

// ListMessages returns the conversation's messages oldest first, provided
// userID owns it.
func (s *ChatService) ListMessages(ctx context.Context, userID string, conversationID int64) ([]models.Message, error) {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.db.ListMessages(ctx, conversationID)
}

// PostMessage stores the user turn, asks the advisor for a reply and stores
// that reply. A failed generation still yields an assistant message carrying
// FallbackReply.
func (s *ChatService) PostMessage(ctx context.Context, userID string, in NewMessage) (*TurnResult, error) {
	if _, err := s.ownedConversation(ctx, userID, in.ConversationID); err != nil {
		return nil, err
	}

	userMsg, err := s.db.CreateMessage(ctx, &models.Message{
		ConversationID: in.ConversationID,
		Role:           in.Role,
		Content:        in.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("store user turn: %w", err)
	}

	outcome := Delivered
	reply, cause := s.reply(ctx, in)
	if cause != nil {
		outcome = DeliveredWithFallback
		reply = FallbackReply
		log.Warn().Err(cause).
			Str("user_id", userID).
			Int64("conversation_id", in.ConversationID).
			Msg("chat turn answered with fallback")
	}

	// The model call may have exhausted ctx; the reply is stored regardless.
	aiMsg, err := s.db.CreateMessage(context.WithoutCancel(ctx), &models.Message{
		ConversationID: in.ConversationID,
		Role:           models.RoleAssistant,
		Content:        reply,
	})
	if err != nil {
		return nil, fmt.Errorf("store assistant turn: %w", err)
	}

	metrics.ChatTurnsTotal.WithLabelValues(string(outcome)).Inc()
	return &TurnResult{UserMessage: userMsg, AIMessage: aiMsg, Outcome: outcome, Cause: cause}, nil
}

func (s *ChatService) reply(ctx context.Context, in NewMessage) (string, error) {
	history, err := s.db.ListMessages(ctx, in.ConversationID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	return s.advisor.GenerateAdvice(ctx, in.Content, RenderContext(history))
}

// RenderContext formats the last ContextWindow messages as "role: content"
// lines, oldest first.
func RenderContext(history []models.Message) string {
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}
	lines := make([]string, len(history))
	for i, m := range history {
		lines[i] = m.Role + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

func (s *ChatService) ownedConversation(ctx context.Context, userID string, id int64) (*models.Conversation, error) {
	conv, err := s.db.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil || conv.UserID != userID {
		return nil, &core.NotFoundError{Resource: "conversation"}
	}
	return conv, nil
}
