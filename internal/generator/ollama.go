package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaModel runs against a local Ollama daemon. No API key involved,
// so it is always considered configured.
type OllamaModel struct {
	client *api.Client
	opts   Options
}

func NewOllamaModel(opts Options) (*OllamaModel, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama base url %q: %w", baseURL, err)
	}

	httpClient := &http.Client{
		Timeout: 5 * time.Minute, // local inference can be slow
	}
	return &OllamaModel{client: api.NewClient(parsedURL, httpClient), opts: opts}, nil
}

func (m *OllamaModel) Name() string { return "ollama" }

func (m *OllamaModel) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    m.opts.Model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]any{
			"temperature": m.opts.Temperature,
		},
	}
	if m.opts.MaxTokens > 0 {
		req.Options["num_predict"] = m.opts.MaxTokens
	}

	var sb strings.Builder
	err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", classifyOllama(err)
	}
	return sb.String(), nil
}

func classifyOllama(err error) *Error {
	var serr api.StatusError
	if errors.As(err, &serr) {
		return statusError(serr.StatusCode, err)
	}
	if isConnectionError(err) {
		return connectionError(err)
	}
	return unexpectedError(err)
}
