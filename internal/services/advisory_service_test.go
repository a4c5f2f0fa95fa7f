package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

func TestClassifySentiment_Valid(t *testing.T) {
	llm := &fakeLLM{jsonText: `{"sentiment":"optimistic","rating":4,"confidence":0.82}`}
	s := NewAdvisoryService(llm)

	got := s.ClassifySentiment(context.Background(), "Tech earnings look strong this quarter")
	assert.Equal(t, models.Sentiment{Sentiment: "optimistic", Rating: 4, Confidence: 0.82}, got)
	assert.Equal(t, "Tech earnings look strong this quarter", llm.lastPrompt())
}

func TestClassifySentiment_RepairsMalformedJSON(t *testing.T) {
	llm := &fakeLLM{jsonText: `{sentiment: "pessimistic", rating: 2, confidence: 0.7,}`}
	s := NewAdvisoryService(llm)

	got := s.ClassifySentiment(context.Background(), "I keep losing money")
	assert.Equal(t, models.Sentiment{Sentiment: "pessimistic", Rating: 2, Confidence: 0.7}, got)
}

func TestClassifySentiment_Defaults(t *testing.T) {
	cases := map[string]*fakeLLM{
		"model error":         {jsonErr: errors.New("quota exceeded")},
		"empty output":        {jsonText: "   "},
		"unknown label":       {jsonText: `{"sentiment":"ecstatic","rating":5,"confidence":0.9}`},
		"rating too high":     {jsonText: `{"sentiment":"optimistic","rating":7,"confidence":0.9}`},
		"rating too low":      {jsonText: `{"sentiment":"optimistic","rating":0,"confidence":0.9}`},
		"confidence too high": {jsonText: `{"sentiment":"neutral","rating":3,"confidence":1.5}`},
		"negative confidence": {jsonText: `{"sentiment":"neutral","rating":3,"confidence":-0.1}`},
		"wrong types":         {jsonText: `{"sentiment":"neutral","rating":"three","confidence":0.4}`},
		"missing confidence":  {jsonText: `{"sentiment":"optimistic","rating":4}`},
		"missing rating":      {jsonText: `{"sentiment":"optimistic","confidence":0.9}`},
		"missing label":       {jsonText: `{"rating":4,"confidence":0.9}`},
		"null confidence":     {jsonText: `{"sentiment":"optimistic","rating":4,"confidence":null}`},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			got := NewAdvisoryService(llm).ClassifySentiment(context.Background(), "hmm")
			assert.Equal(t, models.DefaultSentiment(), got)
		})
	}
}

func TestGenerateAdvice_IncludesContext(t *testing.T) {
	llm := &fakeLLM{text: "Diversify across sectors."}
	s := NewAdvisoryService(llm)

	out, err := s.GenerateAdvice(context.Background(), "Should I buy TSLA?", "user: hi\nassistant: hello")
	require.NoError(t, err)
	assert.Equal(t, "Diversify across sectors.", out)
	assert.Contains(t, llm.lastPrompt(), "user: hi\nassistant: hello")
	assert.Contains(t, llm.lastPrompt(), "Should I buy TSLA?")
	assert.Contains(t, llm.systems[0], "disclaimers")
}

func TestGenerateAdvice_Failures(t *testing.T) {
	var gErr *core.GenerationError

	_, err := NewAdvisoryService(&fakeLLM{err: errors.New("unavailable")}).GenerateAdvice(context.Background(), "q", "")
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, "advice", gErr.Op)

	_, err = NewAdvisoryService(&fakeLLM{text: " \n"}).GenerateAdvice(context.Background(), "q", "")
	require.ErrorAs(t, err, &gErr)
	assert.Nil(t, gErr.Err)
}

func TestAdvise_ReturnsApologyOnFailure(t *testing.T) {
	s := NewAdvisoryService(&fakeLLM{err: errors.New("unavailable")})
	assert.Equal(t, AdviceApology, s.Advise(context.Background(), "q", ""))

	s = NewAdvisoryService(&fakeLLM{text: "Hold."})
	assert.Equal(t, "Hold.", s.Advise(context.Background(), "q", ""))
}

func TestSymbolSentiment(t *testing.T) {
	llm := &fakeLLM{text: "Bullish short term."}
	s := NewAdvisoryService(llm)

	out, err := s.SymbolSentiment(context.Background(), "AAPL", models.Quote{Symbol: "AAPL", Price: 190.64, Change: 0.8, ChangePercent: 0.42, Volume: 1000})
	require.NoError(t, err)
	assert.Equal(t, "Bullish short term.", out)
	assert.Contains(t, llm.lastPrompt(), "AAPL")
	assert.Contains(t, llm.lastPrompt(), "$190.64")

	_, err = NewAdvisoryService(&fakeLLM{}).SymbolSentiment(context.Background(), "AAPL", models.Quote{})
	var gErr *core.GenerationError
	assert.ErrorAs(t, err, &gErr)
}

func TestRecommendPortfolio(t *testing.T) {
	llm := &fakeLLM{text: "60/40 split."}
	s := NewAdvisoryService(llm)

	value := 25000.0
	out, err := s.RecommendPortfolio(context.Background(), PortfolioRequest{
		PortfolioValue:   &value,
		RiskProfile:      "conservative",
		MarketConditions: []models.Quote{{Symbol: "MSFT", Price: 420}},
	})
	require.NoError(t, err)
	assert.Equal(t, "60/40 split.", out)
	assert.Contains(t, llm.lastPrompt(), "$25000.00")
	assert.Contains(t, llm.lastPrompt(), "conservative")
	assert.Contains(t, llm.lastPrompt(), `"symbol":"MSFT"`)

	_, err = s.RecommendPortfolio(context.Background(), PortfolioRequest{RiskProfile: "aggressive"})
	require.NoError(t, err)
	assert.Contains(t, llm.lastPrompt(), "Portfolio Value: N/A")
	assert.Contains(t, llm.lastPrompt(), "Current Market Conditions: []")
}

func TestSummarize(t *testing.T) {
	llm := &fakeLLM{text: "Rates unchanged."}
	out, err := NewAdvisoryService(llm).Summarize(context.Background(), "The Fed held rates steady today.")
	require.NoError(t, err)
	assert.Equal(t, "Rates unchanged.", out)

	_, err = NewAdvisoryService(&fakeLLM{err: errors.New("boom")}).Summarize(context.Background(), "x")
	var gErr *core.GenerationError
	assert.ErrorAs(t, err, &gErr)
}
