package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/ChatbotX/internal/config"
	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		if _, err := os.Stat(cfg.SslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", cfg.SslCertPath, err)
		}
		// Append SSL params to the provided DATABASE_URL safely.
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func storageErr(op string, err error) error {
	return &core.StorageError{Op: op, Err: err}
}

// Users

const userColumns = `id, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
	COALESCE(profile_image_url, ''), created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) GetUser(ctx context.Context, id string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(c.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return u, nil
}

func (c *DatabaseClient) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.ID == "" {
		return nil, storageErr("upsert user", errors.New("user id is required"))
	}
	q := `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			profile_image_url = EXCLUDED.profile_image_url,
			updated_at = now()
		RETURNING ` + userColumns
	u, err := scanUser(c.db.QueryRowContext(ctx, q,
		user.ID, user.Email, user.FirstName, user.LastName, user.ProfileImageURL))
	if err != nil {
		return nil, storageErr("upsert user", err)
	}
	return u, nil
}

// Conversations

func (c *DatabaseClient) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	const q = `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_conversations
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, storageErr("list conversations", err)
	}
	defer rows.Close()

	out := make([]models.Conversation, 0)
	for rows.Next() {
		var cv models.Conversation
		if err := rows.Scan(&cv.ID, &cv.UserID, &cv.Title, &cv.CreatedAt, &cv.UpdatedAt); err != nil {
			return nil, storageErr("list conversations", err)
		}
		out = append(out, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list conversations", err)
	}
	return out, nil
}

func (c *DatabaseClient) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	const q = `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_conversations
		WHERE id = $1
	`
	var cv models.Conversation
	err := c.db.QueryRowContext(ctx, q, id).Scan(&cv.ID, &cv.UserID, &cv.Title, &cv.CreatedAt, &cv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get conversation", err)
	}
	return &cv, nil
}

func (c *DatabaseClient) CreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	if conv == nil {
		return nil, storageErr("create conversation", errors.New("nil conversation"))
	}
	const q = `
		INSERT INTO chat_conversations (user_id, title)
		VALUES ($1, $2)
		RETURNING id, user_id, title, created_at, updated_at
	`
	var cv models.Conversation
	err := c.db.QueryRowContext(ctx, q, conv.UserID, conv.Title).
		Scan(&cv.ID, &cv.UserID, &cv.Title, &cv.CreatedAt, &cv.UpdatedAt)
	if err != nil {
		return nil, storageErr("create conversation", err)
	}
	return &cv, nil
}

// Messages

func (c *DatabaseClient) ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	const q = `
		SELECT id, conversation_id, role, content, created_at
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := c.db.QueryContext(ctx, q, conversationID)
	if err != nil {
		return nil, storageErr("list messages", err)
	}
	defer rows.Close()

	out := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, storageErr("list messages", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list messages", err)
	}
	return out, nil
}

func (c *DatabaseClient) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg == nil {
		return nil, storageErr("create message", errors.New("nil message"))
	}
	const q = `
		INSERT INTO chat_messages (conversation_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, role, content, created_at
	`
	var m models.Message
	err := c.db.QueryRowContext(ctx, q, msg.ConversationID, msg.Role, msg.Content).
		Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, storageErr("create message", err)
	}
	return &m, nil
}

// Watchlist

func (c *DatabaseClient) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	const q = `
		SELECT id, user_id, symbol, company_name, added_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY added_at DESC, id DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, storageErr("list watchlist", err)
	}
	defer rows.Close()

	out := make([]models.WatchlistItem, 0)
	for rows.Next() {
		var it models.WatchlistItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Symbol, &it.CompanyName, &it.AddedAt); err != nil {
			return nil, storageErr("list watchlist", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list watchlist", err)
	}
	return out, nil
}

func (c *DatabaseClient) AddWatchlistItem(ctx context.Context, item *models.WatchlistItem) (*models.WatchlistItem, error) {
	if item == nil {
		return nil, storageErr("add watchlist item", errors.New("nil watchlist item"))
	}
	const q = `
		INSERT INTO watchlist (user_id, symbol, company_name)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, symbol, company_name, added_at
	`
	var it models.WatchlistItem
	err := c.db.QueryRowContext(ctx, q, item.UserID, item.Symbol, item.CompanyName).
		Scan(&it.ID, &it.UserID, &it.Symbol, &it.CompanyName, &it.AddedAt)
	if err != nil {
		return nil, storageErr("add watchlist item", err)
	}
	return &it, nil
}

// Emotional states

func (c *DatabaseClient) GetLatestEmotionalState(ctx context.Context, userID string) (*models.EmotionalState, error) {
	const q = `
		SELECT id, user_id, sentiment, confidence, notes, created_at
		FROM emotional_states
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var s models.EmotionalState
	err := c.db.QueryRowContext(ctx, q, userID).
		Scan(&s.ID, &s.UserID, &s.Sentiment, &s.Confidence, &s.Notes, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get latest emotional state", err)
	}
	return &s, nil
}

func (c *DatabaseClient) CreateEmotionalState(ctx context.Context, state *models.EmotionalState) (*models.EmotionalState, error) {
	if state == nil {
		return nil, storageErr("create emotional state", errors.New("nil emotional state"))
	}
	const q = `
		INSERT INTO emotional_states (user_id, sentiment, confidence, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, sentiment, confidence, notes, created_at
	`
	var s models.EmotionalState
	err := c.db.QueryRowContext(ctx, q, state.UserID, state.Sentiment, state.Confidence, state.Notes).
		Scan(&s.ID, &s.UserID, &s.Sentiment, &s.Confidence, &s.Notes, &s.CreatedAt)
	if err != nil {
		return nil, storageErr("create emotional state", err)
	}
	return &s, nil
}
