package core

import (
	"context"

	"github.com/google/generative-ai-go/genai"
)

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	// GenerateJSON asks for a response constrained to schema and returns the raw JSON text.
	GenerateJSON(ctx context.Context, systemPrompt string, userPrompt string, schema *genai.Schema) (string, error)
}
