package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

const alphaVantageName = "alphavantage"

// AlphaVantage implements Provider against the Alpha Vantage query API.
type AlphaVantage struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
}

var _ Provider = (*AlphaVantage)(nil)

func NewAlphaVantage(baseURL, apiKey string, timeout time.Duration) *AlphaVantage {
	client := resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &AlphaVantage{
		httpClient: client,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (a *AlphaVantage) Name() string { return alphaVantageName }

func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	payload, err := a.query(ctx, "GLOBAL_QUOTE", symbol)
	if err != nil {
		return models.Quote{}, err
	}

	var fields map[string]string
	raw, ok := payload["Global Quote"]
	if !ok || json.Unmarshal(raw, &fields) != nil || len(fields) == 0 {
		return models.Quote{}, &core.NotFoundError{Resource: "stock"}
	}

	price, err := parseNumber(fields["05. price"])
	if err != nil {
		return models.Quote{}, &core.UpstreamError{Provider: alphaVantageName, Message: "malformed price", Err: err}
	}
	// The remaining fields are informational; a malformed one reads as zero.
	change, _ := parseNumber(fields["09. change"])
	changePct, _ := parseNumber(fields["10. change percent"])
	volume, _ := parseVolume(fields["06. volume"])

	sym := fields["01. symbol"]
	if sym == "" {
		sym = symbol
	}
	return models.Quote{
		Symbol:        sym,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Volume:        volume,
		LastUpdate:    fields["07. latest trading day"],
	}, nil
}

func (a *AlphaVantage) History(ctx context.Context, symbol string, g Granularity) ([]models.Bar, error) {
	function, seriesKey := "TIME_SERIES_MONTHLY_ADJUSTED", "Monthly Adjusted Time Series"
	if g == Daily {
		function, seriesKey = "TIME_SERIES_DAILY_ADJUSTED", "Time Series (Daily)"
	}

	payload, err := a.query(ctx, function, symbol)
	if err != nil {
		return nil, err
	}

	var series map[string]map[string]string
	raw, ok := payload[seriesKey]
	if !ok || json.Unmarshal(raw, &series) != nil || len(series) == 0 {
		return nil, &core.NotFoundError{Resource: "historical data"}
	}

	type dated struct {
		at  time.Time
		bar models.Bar
	}
	rows := make([]dated, 0, len(series))
	for date, v := range series {
		at, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		bar, ok := barFromFields(date, v)
		if !ok {
			continue
		}
		rows = append(rows, dated{at: at, bar: bar})
	}
	if len(rows) == 0 {
		return nil, &core.NotFoundError{Resource: "historical data"}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].at.After(rows[j].at) })
	if len(rows) > HistoryLimit {
		rows = rows[:HistoryLimit]
	}

	out := make([]models.Bar, len(rows))
	for i, r := range rows {
		out[i] = r.bar
	}
	return out, nil
}

func barFromFields(date string, v map[string]string) (models.Bar, bool) {
	open, err1 := parseNumber(v["1. open"])
	high, err2 := parseNumber(v["2. high"])
	low, err3 := parseNumber(v["3. low"])
	closePx, err4 := parseNumber(v["4. close"])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return models.Bar{}, false
	}

	volRaw, ok := v["6. volume"]
	if !ok {
		volRaw = v["5. volume"]
	}
	volume, _ := parseVolume(volRaw)

	return models.Bar{Date: date, Open: open, High: high, Low: low, Close: closePx, Volume: volume}, true
}

// query performs one call and classifies provider-level failures. The
// returned map holds the top-level payload objects undecoded.
func (a *AlphaVantage) query(ctx context.Context, function, symbol string) (map[string]json.RawMessage, error) {
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": function,
			"symbol":   symbol,
			"apikey":   a.apiKey,
		}).
		Get(a.baseURL)
	if err != nil {
		return nil, &core.UpstreamError{Provider: alphaVantageName, Message: "request failed", Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &core.UpstreamError{
			Provider: alphaVantageName,
			Message:  fmt.Sprintf("unexpected status %d", resp.StatusCode()),
		}
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &core.UpstreamError{Provider: alphaVantageName, Message: "malformed response", Err: err}
	}

	// Explicit provider messages: bad symbol/call, or throttling notices.
	for _, key := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := payload[key]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			if msg == "" {
				msg = key
			}
			return nil, &core.UpstreamError{Provider: alphaVantageName, Message: msg, Identified: true}
		}
	}
	return payload, nil
}
