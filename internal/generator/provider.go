package generator

import (
	"context"
	"fmt"
	"strings"
)

// Model is the single call boundary to an LLM provider: one prompt in,
// raw text out. Implementations classify their SDK failures into *Error
// so callers can surface them without provider knowledge.
type Model interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configure a model provider.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	APIKey      string
	// BaseURL points Ollama at a non-default host. Ignored elsewhere.
	BaseURL string
}

// NewModel builds the provider with the given name. An empty name means
// anthropic, the default.
func NewModel(provider string, opts Options) (Model, error) {
	switch strings.ToLower(provider) {
	case "", "anthropic":
		return NewAnthropicModel(opts), nil
	case "openai":
		return NewOpenAIModel(opts), nil
	case "gemini", "google":
		return NewGeminiModel(opts)
	case "ollama":
		return NewOllamaModel(opts)
	default:
		return nil, fmt.Errorf("unknown model provider %q", provider)
	}
}
