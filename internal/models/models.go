package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	SentimentOptimistic  = "optimistic"
	SentimentNeutral     = "neutral"
	SentimentPessimistic = "pessimistic"
)

// User is the locally stored copy of an externally asserted identity.
type User struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	FirstName       string    `db:"first_name" json:"firstName"`
	LastName        string    `db:"last_name" json:"lastName"`
	ProfileImageURL string    `db:"profile_image_url" json:"profileImageUrl"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// Conversation groups the messages of one chat thread.
type Conversation struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Message is a single turn. Messages are never updated once stored.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID int64     `db:"conversation_id" json:"conversationId"`
	Role           string    `db:"role" json:"role"`       // "user" or "assistant"
	Content        string    `db:"content" json:"content"` // message text
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

type WatchlistItem struct {
	ID          int64     `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Symbol      string    `db:"symbol" json:"symbol"`
	CompanyName *string   `db:"company_name" json:"companyName"`
	AddedAt     time.Time `db:"added_at" json:"addedAt"`
}

// EmotionalState is one self-reported or inferred sentiment sample.
type EmotionalState struct {
	ID         int64     `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	Sentiment  string    `db:"sentiment" json:"sentiment"`   // optimistic | neutral | pessimistic
	Confidence float64   `db:"confidence" json:"confidence"` // 0-1
	Notes      *string   `db:"notes" json:"notes"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Sentiment is the structured classification of a piece of free text.
type Sentiment struct {
	Sentiment  string  `json:"sentiment"`
	Rating     float64 `json:"rating"`
	Confidence float64 `json:"confidence"`
}

// DefaultSentiment is returned whenever classification cannot be trusted.
func DefaultSentiment() Sentiment {
	return Sentiment{Sentiment: SentimentNeutral, Rating: 3, Confidence: 0.5}
}

// IsSentimentLabel reports whether s is one of the three accepted labels.
func IsSentimentLabel(s string) bool {
	switch s {
	case SentimentOptimistic, SentimentNeutral, SentimentPessimistic:
		return true
	}
	return false
}

// Quote is a normalized point-in-time price snapshot for one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
	LastUpdate    string  `json:"lastUpdate"`
}

// Bar is one OHLCV candle; Date is formatted YYYY-MM-DD.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Principal is the identity asserted by a verified bearer token.
type Principal struct {
	UserID          string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}
