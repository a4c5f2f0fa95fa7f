package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/metrics"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

// AdviceApology is what Advise returns when generation fails.
const AdviceApology = "I apologize, but I'm having trouble processing your request right now. Please try again."

const adviceSystemPrompt = `You are ChatbotX, an expert AI financial advisor specializing in stock market analysis and investment guidance.

Please provide a comprehensive response that includes:
1. Direct answer to the user's question
2. Relevant market analysis if applicable
3. Risk assessment and recommendations
4. Any relevant emotional trading considerations
5. Confidence levels for any predictions made

Keep responses informative but concise. Use professional financial terminology but explain complex concepts clearly. Always include appropriate disclaimers about investment risks.`

const sentimentSystemPrompt = `You are a sentiment analysis expert specializing in financial and trading psychology.
Analyze the sentiment of the following text and determine the emotional state that could affect trading decisions.

Classify the sentiment as one of: "optimistic", "neutral", "pessimistic"
Provide a confidence score between 0 and 1.
Provide a rating from 1 to 5 stars.

Respond with JSON in this exact format:
{"sentiment": "optimistic|neutral|pessimistic", "rating": number, "confidence": number}`

const symbolSystemPrompt = `You are a financial analyst. Provide a brief sentiment analysis including:
1. Short-term outlook (bullish/bearish/neutral)
2. Key factors influencing the sentiment
3. Risk level assessment
4. Confidence level in your analysis

Keep the response concise and professional and include a short risk disclaimer.`

const portfolioSystemPrompt = `You are an investment advisor. Please provide:
1. Asset allocation recommendations
2. Specific stock suggestions with rationale
3. Risk management strategies
4. Market timing considerations
5. Diversification advice

Format the response in a clear, actionable manner suitable for the investor's risk profile. State confidence levels and include appropriate risk disclaimers.`

const summarySystemPrompt = `Summarize the following financial news or market analysis concisely while maintaining key points. Note any claims that carry investment risk.`

var sentimentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"sentiment":  {Type: genai.TypeString, Enum: []string{models.SentimentOptimistic, models.SentimentNeutral, models.SentimentPessimistic}},
		"rating":     {Type: genai.TypeNumber},
		"confidence": {Type: genai.TypeNumber},
	},
	Required: []string{"sentiment", "rating", "confidence"},
}

// PortfolioRequest carries the inputs of a portfolio recommendation.
// PortfolioValue is optional; MarketConditions is rendered as JSON.
type PortfolioRequest struct {
	PortfolioValue   *float64
	RiskProfile      string
	MarketConditions []models.Quote
}

// AdvisoryService turns prompts into advice, classifications and summaries.
type AdvisoryService struct {
	llm core.LLMProvider
}

func NewAdvisoryService(llm core.LLMProvider) *AdvisoryService {
	return &AdvisoryService{llm: llm}
}

// GenerateAdvice answers message in the light of the rendered conversation
// context. Empty model output is a *core.GenerationError.
func (s *AdvisoryService) GenerateAdvice(ctx context.Context, message, convContext string) (string, error) {
	var b strings.Builder
	if convContext != "" {
		b.WriteString("Context from previous conversation:\n")
		b.WriteString(convContext)
		b.WriteString("\n\n")
	}
	b.WriteString("User question: ")
	b.WriteString(message)

	return s.generate(ctx, "advice", adviceSystemPrompt, b.String())
}

// Advise is GenerateAdvice with the apology text in place of any failure.
func (s *AdvisoryService) Advise(ctx context.Context, message, convContext string) string {
	text, err := s.GenerateAdvice(ctx, message, convContext)
	if err != nil {
		log.Warn().Err(err).Msg("advice generation failed")
		return AdviceApology
	}
	return text
}

// ClassifySentiment never fails: anything untrustworthy yields the neutral default.
func (s *AdvisoryService) ClassifySentiment(ctx context.Context, text string) models.Sentiment {
	raw, err := s.llm.GenerateJSON(ctx, sentimentSystemPrompt, text, sentimentSchema)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("sentiment", "error").Inc()
		return defaultSentiment(err)
	}

	sent, err := parseSentiment(raw)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("sentiment", "invalid").Inc()
		return defaultSentiment(err)
	}
	metrics.GenerationsTotal.WithLabelValues("sentiment", "ok").Inc()
	return sent
}

func defaultSentiment(cause error) models.Sentiment {
	log.Warn().Err(cause).Msg("sentiment classification defaulted")
	metrics.SentimentDefaultsTotal.Inc()
	return models.DefaultSentiment()
}

// rawSentiment distinguishes absent fields from zero values.
type rawSentiment struct {
	Sentiment  *string  `json:"sentiment"`
	Rating     *float64 `json:"rating"`
	Confidence *float64 `json:"confidence"`
}

// parseSentiment decodes and range-checks a classification, repairing
// malformed JSON once before giving up.
func parseSentiment(raw string) (models.Sentiment, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Sentiment{}, fmt.Errorf("empty classification")
	}

	var in rawSentiment
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		repaired, rErr := jsonrepair.JSONRepair(raw)
		if rErr != nil {
			return models.Sentiment{}, fmt.Errorf("decode classification: %w", err)
		}
		in = rawSentiment{}
		if err := json.Unmarshal([]byte(repaired), &in); err != nil {
			return models.Sentiment{}, fmt.Errorf("decode repaired classification: %w", err)
		}
	}
	if in.Sentiment == nil || in.Rating == nil || in.Confidence == nil {
		return models.Sentiment{}, fmt.Errorf("classification missing fields")
	}

	out := models.Sentiment{Sentiment: *in.Sentiment, Rating: *in.Rating, Confidence: *in.Confidence}
	switch {
	case !models.IsSentimentLabel(out.Sentiment):
		return models.Sentiment{}, fmt.Errorf("unknown sentiment label %q", out.Sentiment)
	case out.Rating < 1 || out.Rating > 5:
		return models.Sentiment{}, fmt.Errorf("rating %v out of range", out.Rating)
	case out.Confidence < 0 || out.Confidence > 1:
		return models.Sentiment{}, fmt.Errorf("confidence %v out of range", out.Confidence)
	}
	return out, nil
}

// SymbolSentiment is a short outlook for one symbol based on its quote.
func (s *AdvisoryService) SymbolSentiment(ctx context.Context, symbol string, q models.Quote) (string, error) {
	prompt := fmt.Sprintf(`Analyze the sentiment and outlook for %s based on the following market data:

Current Price: $%.2f
Change: %.2f (%.2f%%)
Volume: %d
Last Updated: %s`, symbol, q.Price, q.Change, q.ChangePercent, q.Volume, q.LastUpdate)

	return s.generate(ctx, "symbol_sentiment", symbolSystemPrompt, prompt)
}

func (s *AdvisoryService) RecommendPortfolio(ctx context.Context, req PortfolioRequest) (string, error) {
	value := "N/A"
	if req.PortfolioValue != nil {
		value = fmt.Sprintf("$%.2f", *req.PortfolioValue)
	}
	conditions := req.MarketConditions
	if conditions == nil {
		conditions = []models.Quote{}
	}
	snapshot, err := json.Marshal(conditions)
	if err != nil {
		return "", fmt.Errorf("encode market conditions: %w", err)
	}

	prompt := fmt.Sprintf(`Provide personalized investment recommendations based on:

Portfolio Value: %s
Risk Profile: %s
Current Market Conditions: %s`, value, req.RiskProfile, snapshot)

	return s.generate(ctx, "portfolio", portfolioSystemPrompt, prompt)
}

func (s *AdvisoryService) Summarize(ctx context.Context, text string) (string, error) {
	return s.generate(ctx, "summary", summarySystemPrompt, text)
}

func (s *AdvisoryService) generate(ctx context.Context, op, system, prompt string) (string, error) {
	text, err := s.llm.Generate(ctx, system, prompt)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(op, "error").Inc()
		return "", &core.GenerationError{Op: op, Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.GenerationsTotal.WithLabelValues(op, "empty").Inc()
		return "", &core.GenerationError{Op: op}
	}
	metrics.GenerationsTotal.WithLabelValues(op, "ok").Inc()
	return text, nil
}
