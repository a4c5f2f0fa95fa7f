package market

import (
	"context"
	"strings"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

// HistoryLimit caps every history response.
const HistoryLimit = 120

type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts "daily" or "monthly"; empty means monthly.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case "", Monthly:
		return Monthly, nil
	case Daily:
		return Daily, nil
	}
	return "", &core.ValidationError{
		Message: "invalid period",
		Fields:  map[string]string{"period": "oneof=daily monthly"},
	}
}

// Provider is a quote source. Implementations return *core.UpstreamError for
// provider or transport faults and *core.NotFoundError when the payload has
// no data for the symbol.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	// History returns bars most-recent-first, at most HistoryLimit of them.
	History(ctx context.Context, symbol string, g Granularity) ([]models.Bar, error)
}
