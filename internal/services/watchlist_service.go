package services

import (
	"context"
	"strings"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

type WatchlistService struct {
	db core.DbClient
}

func NewWatchlistService(db core.DbClient) *WatchlistService {
	return &WatchlistService{db: db}
}

func (s *WatchlistService) List(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	return s.db.ListWatchlist(ctx, userID)
}

// Add stores symbol upper-cased. Duplicates are allowed.
func (s *WatchlistService) Add(ctx context.Context, userID, symbol string, companyName *string) (*models.WatchlistItem, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &core.ValidationError{
			Message: "Invalid watchlist data",
			Fields:  map[string]string{"symbol": "required"},
		}
	}
	if companyName != nil {
		name := strings.TrimSpace(*companyName)
		if name == "" {
			companyName = nil
		} else {
			companyName = &name
		}
	}
	return s.db.AddWatchlistItem(ctx, &models.WatchlistItem{
		UserID:      userID,
		Symbol:      symbol,
		CompanyName: companyName,
	})
}
