package core

import (
	"context"
	"io"

	"github.com/markdave123-py/ChatbotX/internal/models"
)

// DbClient defines all persistence operations the services need.
// Get* methods return (nil, nil) when the row does not exist; every other
// failure is a *StorageError.
type DbClient interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)

	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	GetConversation(ctx context.Context, id int64) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)

	ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error)
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)

	ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) (*models.WatchlistItem, error)

	GetLatestEmotionalState(ctx context.Context, userID string) (*models.EmotionalState, error)
	CreateEmotionalState(ctx context.Context, state *models.EmotionalState) (*models.EmotionalState, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
