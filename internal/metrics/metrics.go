package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatTurnsTotal counts chat turns by outcome (delivered, fallback).
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatbotx",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by outcome",
		},
		[]string{"outcome"},
	)

	MarketLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatbotx",
			Subsystem: "market",
			Name:      "lookups_total",
			Help:      "Market data lookups by provider, operation and result",
		},
		[]string{"provider", "operation", "result"},
	)

	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatbotx",
			Subsystem: "advisory",
			Name:      "generations_total",
			Help:      "Model invocations by operation and result",
		},
		[]string{"operation", "result"},
	)

	// SentimentDefaultsTotal counts classifications that fell back to the neutral default.
	SentimentDefaultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatbotx",
			Subsystem: "advisory",
			Name:      "sentiment_defaults_total",
			Help:      "Sentiment classifications answered with the neutral default",
		},
	)
)
