package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiModel talks to the Google Generative Language API.
type GeminiModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
	opts   Options
}

func NewGeminiModel(opts Options) (*GeminiModel, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	model := client.GenerativeModel(opts.Model)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	return &GeminiModel{client: client, model: model, opts: opts}, nil
}

func (m *GeminiModel) Name() string { return "gemini" }

func (m *GeminiModel) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGemini(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

func (m *GeminiModel) Close() error {
	return m.client.Close()
}

func classifyGemini(err error) *Error {
	var apierr *googleapi.Error
	if errors.As(err, &apierr) {
		return statusError(apierr.Code, err)
	}
	if isConnectionError(err) {
		return connectionError(err)
	}
	return unexpectedError(err)
}
