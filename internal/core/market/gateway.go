package market

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/metrics"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

// DefaultTopPerformers is the fixed basket reported by TopPerformers.
var DefaultTopPerformers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "NFLX", "CRM", "AMD"}

// Gateway normalizes symbols and records lookups in front of a Provider.
type Gateway struct {
	provider Provider
	symbols  []string
}

func NewGateway(provider Provider, topSymbols []string) *Gateway {
	if len(topSymbols) == 0 {
		topSymbols = DefaultTopPerformers
	}
	return &Gateway{provider: provider, symbols: topSymbols}
}

func (g *Gateway) ProviderName() string { return g.provider.Name() }

func (g *Gateway) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	sym, err := requireSymbol(symbol)
	if err != nil {
		return models.Quote{}, err
	}
	q, err := g.provider.Quote(ctx, sym)
	g.observe("quote", err)
	return q, err
}

func (g *Gateway) History(ctx context.Context, symbol string, gran Granularity) ([]models.Bar, error) {
	sym, err := requireSymbol(symbol)
	if err != nil {
		return nil, err
	}
	bars, err := g.provider.History(ctx, sym, gran)
	g.observe("history", err)
	if err != nil {
		return nil, err
	}
	if len(bars) > HistoryLimit {
		bars = bars[:HistoryLimit]
	}
	return bars, nil
}

// TopPerformers quotes the configured basket concurrently. Symbols that fail
// are dropped; the rest keep basket order.
func (g *Gateway) TopPerformers(ctx context.Context) []models.Quote {
	results := make([]*models.Quote, len(g.symbols))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, sym := range g.symbols {
		eg.Go(func() error {
			q, err := g.Quote(egCtx, sym)
			if err != nil {
				log.Warn().Err(err).Str("symbol", sym).Msg("top performers: quote skipped")
				return nil
			}
			results[i] = &q
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]models.Quote, 0, len(results))
	for _, q := range results {
		if q != nil {
			out = append(out, *q)
		}
	}
	return out
}

func (g *Gateway) observe(op string, err error) {
	result := "ok"
	var nErr *core.NotFoundError
	switch {
	case err == nil:
	case errors.As(err, &nErr):
		result = "not_found"
	default:
		result = "error"
	}
	metrics.MarketLookupsTotal.WithLabelValues(g.provider.Name(), op, result).Inc()
}

func requireSymbol(symbol string) (string, error) {
	sym := normalizeSymbol(symbol)
	if sym == "" {
		return "", &core.ValidationError{
			Message: "symbol is required",
			Fields:  map[string]string{"symbol": "required"},
		}
	}
	return sym, nil
}
