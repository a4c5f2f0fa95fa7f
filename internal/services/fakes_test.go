package services

import (
	"context"
	"sync"

	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/ChatbotX/internal/core"
)

// fakeLLM answers Generate with text/err and GenerateJSON with jsonText/jsonErr,
// recording every prompt it sees.
type fakeLLM struct {
	mu sync.Mutex

	text     string
	err      error
	jsonText string
	jsonErr  error

	systems []string
	prompts []string
}

var _ core.LLMProvider = (*fakeLLM)(nil)

func (f *fakeLLM) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, systemPrompt)
	f.prompts = append(f.prompts, userPrompt)
	return f.text, f.err
}

func (f *fakeLLM) GenerateJSON(_ context.Context, systemPrompt, userPrompt string, _ *genai.Schema) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, systemPrompt)
	f.prompts = append(f.prompts, userPrompt)
	return f.jsonText, f.jsonErr
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// stallingLLM blocks until the caller's context ends.
type stallingLLM struct{}

func (stallingLLM) Generate(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (stallingLLM) GenerateJSON(ctx context.Context, _, _ string, _ *genai.Schema) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
