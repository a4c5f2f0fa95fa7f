package db

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

// MemoryClient is an in-process DbClient with the same ordering and
// foreign-key behaviour as the Postgres schema. It backs STORE_DRIVER=memory
// and the service tests.
type MemoryClient struct {
	mu sync.RWMutex

	now    func() time.Time
	nextID int64

	users         map[string]models.User
	conversations map[int64]models.Conversation
	messages      map[int64][]models.Message
	watchlist     map[string][]models.WatchlistItem
	states        map[string][]models.EmotionalState
}

var _ core.DbClient = (*MemoryClient)(nil)

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[string]models.User),
		conversations: make(map[int64]models.Conversation),
		messages:      make(map[int64][]models.Message),
		watchlist:     make(map[string][]models.WatchlistItem),
		states:        make(map[string][]models.EmotionalState),
	}
}

func (c *MemoryClient) Close() error { return nil }

func (c *MemoryClient) id() int64 {
	c.nextID++
	return c.nextID
}

func (c *MemoryClient) requireUser(op, userID string) error {
	if _, ok := c.users[userID]; !ok {
		return storageErr(op, errors.New("foreign key violation: unknown user "+userID))
	}
	return nil
}

func (c *MemoryClient) GetUser(_ context.Context, id string) (*models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (c *MemoryClient) UpsertUser(_ context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.ID == "" {
		return nil, storageErr("upsert user", errors.New("user id is required"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stored, ok := c.users[user.ID]
	if !ok {
		stored = models.User{ID: user.ID, CreatedAt: now}
	}
	stored.Email = user.Email
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.ProfileImageURL = user.ProfileImageURL
	stored.UpdatedAt = now
	c.users[user.ID] = stored
	return &stored, nil
}

func (c *MemoryClient) ListConversations(_ context.Context, userID string) ([]models.Conversation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Conversation, 0)
	for _, cv := range c.conversations {
		if cv.UserID == userID {
			out = append(out, cv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (c *MemoryClient) GetConversation(_ context.Context, id int64) (*models.Conversation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cv, ok := c.conversations[id]
	if !ok {
		return nil, nil
	}
	return &cv, nil
}

func (c *MemoryClient) CreateConversation(_ context.Context, conv *models.Conversation) (*models.Conversation, error) {
	if conv == nil {
		return nil, storageErr("create conversation", errors.New("nil conversation"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireUser("create conversation", conv.UserID); err != nil {
		return nil, err
	}

	now := c.now()
	cv := models.Conversation{ID: c.id(), UserID: conv.UserID, Title: conv.Title, CreatedAt: now, UpdatedAt: now}
	c.conversations[cv.ID] = cv
	return &cv, nil
}

func (c *MemoryClient) ListMessages(_ context.Context, conversationID int64) ([]models.Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Appends happen in id order, which is creation order.
	msgs := c.messages[conversationID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (c *MemoryClient) CreateMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	if msg == nil {
		return nil, storageErr("create message", errors.New("nil message"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.conversations[msg.ConversationID]; !ok {
		return nil, storageErr("create message", errors.New("foreign key violation: unknown conversation"))
	}

	m := models.Message{
		ID:             c.id(),
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		CreatedAt:      c.now(),
	}
	c.messages[m.ConversationID] = append(c.messages[m.ConversationID], m)
	return &m, nil
}

func (c *MemoryClient) ListWatchlist(_ context.Context, userID string) ([]models.WatchlistItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := c.watchlist[userID]
	out := make([]models.WatchlistItem, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
	}
	return out, nil
}

func (c *MemoryClient) AddWatchlistItem(_ context.Context, item *models.WatchlistItem) (*models.WatchlistItem, error) {
	if item == nil {
		return nil, storageErr("add watchlist item", errors.New("nil watchlist item"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireUser("add watchlist item", item.UserID); err != nil {
		return nil, err
	}

	it := models.WatchlistItem{
		ID:          c.id(),
		UserID:      item.UserID,
		Symbol:      item.Symbol,
		CompanyName: item.CompanyName,
		AddedAt:     c.now(),
	}
	c.watchlist[it.UserID] = append(c.watchlist[it.UserID], it)
	return &it, nil
}

func (c *MemoryClient) GetLatestEmotionalState(_ context.Context, userID string) (*models.EmotionalState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	states := c.states[userID]
	if len(states) == 0 {
		return nil, nil
	}
	s := states[len(states)-1]
	return &s, nil
}

func (c *MemoryClient) CreateEmotionalState(_ context.Context, state *models.EmotionalState) (*models.EmotionalState, error) {
	if state == nil {
		return nil, storageErr("create emotional state", errors.New("nil emotional state"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireUser("create emotional state", state.UserID); err != nil {
		return nil, err
	}
	if !models.IsSentimentLabel(state.Sentiment) || state.Confidence < 0 || state.Confidence > 1 {
		return nil, storageErr("create emotional state", errors.New("check constraint violation"))
	}

	s := models.EmotionalState{
		ID:         c.id(),
		UserID:     state.UserID,
		Sentiment:  state.Sentiment,
		Confidence: state.Confidence,
		Notes:      state.Notes,
		CreatedAt:  c.now(),
	}
	c.states[s.UserID] = append(c.states[s.UserID], s)
	return &s, nil
}
