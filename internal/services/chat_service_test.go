package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/ChatbotX/internal/core"
	db "github.com/markdave123-py/ChatbotX/internal/core/database"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

// failingMessages rejects message writes once armed.
type failingMessages struct {
	*db.MemoryClient
	fail bool
}

func (f *failingMessages) CreateMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	if f.fail {
		return nil, &core.StorageError{Op: "create message", Err: errors.New("connection reset")}
	}
	return f.MemoryClient.CreateMessage(ctx, m)
}

// ctxStore refuses message writes on a finished context, as database/sql does.
type ctxStore struct {
	*db.MemoryClient
}

func (c ctxStore) CreateMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, &core.StorageError{Op: "create message", Err: err}
	}
	return c.MemoryClient.CreateMessage(ctx, m)
}

func newChatFixture(t *testing.T, llm *fakeLLM) (*ChatService, *db.MemoryClient, *models.Conversation) {
	t.Helper()
	store := db.NewMemoryClient()
	ctx := context.Background()
	for _, id := range []string{"alice", "bob"} {
		_, err := store.UpsertUser(ctx, &models.User{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}
	conv, err := store.CreateConversation(ctx, &models.Conversation{UserID: "alice", Title: "Tesla"})
	require.NoError(t, err)
	return NewChatService(store, NewAdvisoryService(llm)), store, conv
}

func TestPostMessage_Delivered(t *testing.T) {
	llm := &fakeLLM{text: "TSLA is volatile; size positions accordingly. Confidence: medium."}
	svc, store, conv := newChatFixture(t, llm)

	res, err := svc.PostMessage(context.Background(), "alice", NewMessage{
		ConversationID: conv.ID, Role: models.RoleUser, Content: "What do you think about TSLA?",
	})
	require.NoError(t, err)
	assert.Equal(t, Delivered, res.Outcome)
	assert.NoError(t, res.Cause)
	assert.Equal(t, models.RoleUser, res.UserMessage.Role)
	assert.Equal(t, models.RoleAssistant, res.AIMessage.Role)
	assert.Equal(t, llm.text, res.AIMessage.Content)
	assert.Greater(t, res.AIMessage.ID, res.UserMessage.ID)

	// The just-stored user turn is part of the rendered context.
	assert.Contains(t, llm.lastPrompt(), "user: What do you think about TSLA?")

	msgs, err := store.ListMessages(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestPostMessage_FallbackOnGenerationFailure(t *testing.T) {
	for name, llm := range map[string]*fakeLLM{
		"model error":  {err: errors.New("deadline exceeded")},
		"empty output": {text: ""},
	} {
		t.Run(name, func(t *testing.T) {
			svc, store, conv := newChatFixture(t, llm)

			res, err := svc.PostMessage(context.Background(), "alice", NewMessage{
				ConversationID: conv.ID, Role: models.RoleUser, Content: "Is now a good time to buy?",
			})
			require.NoError(t, err)
			assert.Equal(t, DeliveredWithFallback, res.Outcome)
			var gErr *core.GenerationError
			assert.ErrorAs(t, res.Cause, &gErr)
			assert.Equal(t, FallbackReply, res.AIMessage.Content)
			assert.Equal(t, models.RoleAssistant, res.AIMessage.Role)

			msgs, err := store.ListMessages(context.Background(), conv.ID)
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Equal(t, FallbackReply, msgs[1].Content)
		})
	}
}

func TestPostMessage_FallbackSurvivesDeadline(t *testing.T) {
	_, store, conv := newChatFixture(t, &fakeLLM{})
	svc := NewChatService(ctxStore{MemoryClient: store}, NewAdvisoryService(stallingLLM{}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := svc.PostMessage(ctx, "alice", NewMessage{
		ConversationID: conv.ID, Role: models.RoleUser, Content: "Should I buy TSLA?",
	})
	require.NoError(t, err)
	assert.Equal(t, DeliveredWithFallback, res.Outcome)
	assert.ErrorIs(t, res.Cause, context.DeadlineExceeded)
	assert.Equal(t, models.RoleAssistant, res.AIMessage.Role)

	msgs, err := store.ListMessages(context.Background(), conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, FallbackReply, msgs[1].Content)
}

func TestPostMessage_NotOwned(t *testing.T) {
	llm := &fakeLLM{text: "ok"}
	svc, store, conv := newChatFixture(t, llm)

	_, err := svc.PostMessage(context.Background(), "bob", NewMessage{
		ConversationID: conv.ID, Role: models.RoleUser, Content: "hi",
	})
	var nErr *core.NotFoundError
	require.ErrorAs(t, err, &nErr)

	_, err = svc.PostMessage(context.Background(), "alice", NewMessage{
		ConversationID: 9999, Role: models.RoleUser, Content: "hi",
	})
	require.ErrorAs(t, err, &nErr)

	msgs, err := store.ListMessages(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Zero(t, llm.calls())
}

func TestPostMessage_StorageFailureSkipsModel(t *testing.T) {
	llm := &fakeLLM{text: "ok"}
	_, store, conv := newChatFixture(t, llm)
	failing := &failingMessages{MemoryClient: store, fail: true}
	svc := NewChatService(failing, NewAdvisoryService(llm))

	_, err := svc.PostMessage(context.Background(), "alice", NewMessage{
		ConversationID: conv.ID, Role: models.RoleUser, Content: "hi",
	})
	var sErr *core.StorageError
	require.ErrorAs(t, err, &sErr)
	assert.Zero(t, llm.calls())
}

func TestListMessages_Ownership(t *testing.T) {
	svc, _, conv := newChatFixture(t, &fakeLLM{text: "ok"})

	_, err := svc.ListMessages(context.Background(), "bob", conv.ID)
	var nErr *core.NotFoundError
	require.ErrorAs(t, err, &nErr)

	msgs, err := svc.ListMessages(context.Background(), "alice", conv.ID)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
}

func TestCreateConversation(t *testing.T) {
	svc, _, _ := newChatFixture(t, &fakeLLM{})

	conv, err := svc.CreateConversation(context.Background(), "bob", "  Dividends ")
	require.NoError(t, err)
	assert.Equal(t, "Dividends", conv.Title)
	assert.Equal(t, "bob", conv.UserID)

	_, err = svc.CreateConversation(context.Background(), "bob", "   ")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	convs, err := svc.ListConversations(context.Background(), "bob")
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestRenderContext_KeepsLastTen(t *testing.T) {
	var history []models.Message
	for i := 1; i <= 14; i++ {
		role := models.RoleUser
		if i%2 == 0 {
			role = models.RoleAssistant
		}
		history = append(history, models.Message{Role: role, Content: fmt.Sprintf("m%d", i)})
	}

	lines := strings.Split(RenderContext(history), "\n")
	require.Len(t, lines, ContextWindow)
	assert.Equal(t, "user: m5", lines[0])
	assert.Equal(t, "assistant: m14", lines[9])

	assert.Equal(t, "", RenderContext(nil))
}
