package market

import (
	"context"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

const alpacaName = "alpaca"

// alpacaData is the subset of the Alpaca market data client used here.
type alpacaData interface {
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Alpaca implements Provider on the Alpaca market data API. The SDK does
// not take a context, so cancellation is only observed between calls.
type Alpaca struct {
	md  alpacaData
	now func() time.Time
}

var _ Provider = (*Alpaca)(nil)

func NewAlpaca(apiKey, apiSecret string) *Alpaca {
	return &Alpaca{
		md: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		now: time.Now,
	}
}

func (a *Alpaca) Name() string { return alpacaName }

func (a *Alpaca) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	trade, err := a.md.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return models.Quote{}, alpacaErr("latest trade", "stock", err)
	}
	if trade == nil {
		return models.Quote{}, &core.NotFoundError{Resource: "stock"}
	}
	if err := ctx.Err(); err != nil {
		return models.Quote{}, err
	}

	// The second most recent daily bar gives the previous close.
	bars, err := a.md.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     a.now().AddDate(0, 0, -10),
	})
	if err != nil {
		return models.Quote{}, alpacaErr("daily bars", "stock", err)
	}
	return quoteFromTrade(symbol, trade, bars), nil
}

func quoteFromTrade(symbol string, trade *marketdata.Trade, bars []marketdata.Bar) models.Quote {
	q := models.Quote{
		Symbol:     symbol,
		Price:      trade.Price,
		LastUpdate: trade.Timestamp.UTC().Format("2006-01-02"),
	}
	n := len(bars)
	if n > 0 {
		q.Volume = int64(bars[n-1].Volume)
	}
	// Without a previous session there is no change to report.
	if n > 1 && bars[n-2].Close != 0 {
		prevClose := bars[n-2].Close
		q.Change = trade.Price - prevClose
		q.ChangePercent = q.Change / prevClose * 100
	}
	return q
}

// alpacaErr reports rejected symbols as not found and anything else as an
// unidentified upstream fault.
func alpacaErr(op, resource string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "invalid symbol") || strings.Contains(msg, "not found") {
		return &core.NotFoundError{Resource: resource}
	}
	return &core.UpstreamError{Provider: alpacaName, Message: op, Err: err}
}

func (a *Alpaca) History(ctx context.Context, symbol string, g Granularity) ([]models.Bar, error) {
	req := marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     a.now().AddDate(0, 0, -HistoryLimit*2),
	}
	if g == Monthly {
		req.TimeFrame = marketdata.NewTimeFrame(1, marketdata.Month)
		req.Start = a.now().AddDate(0, -HistoryLimit, 0)
	}

	bars, err := a.md.GetBars(symbol, req)
	if err != nil {
		return nil, alpacaErr("bars", "historical data", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, &core.NotFoundError{Resource: "historical data"}
	}
	return barsFromAlpaca(bars), nil
}

// barsFromAlpaca reverses the SDK's ascending order and applies HistoryLimit.
func barsFromAlpaca(bars []marketdata.Bar) []models.Bar {
	n := len(bars)
	if n > HistoryLimit {
		n = HistoryLimit
	}
	out := make([]models.Bar, 0, n)
	for i := len(bars) - 1; i >= 0 && len(out) < n; i-- {
		b := bars[i]
		out = append(out, models.Bar{
			Date:   b.Timestamp.UTC().Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return out
}
