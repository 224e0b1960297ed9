package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel talks to the Claude API using the official SDK.
type AnthropicModel struct {
	client anthropic.Client
	opts   Options
}

func NewAnthropicModel(opts Options) *AnthropicModel {
	client := anthropic.NewClient(option.WithAPIKey(opts.APIKey))
	return &AnthropicModel{client: client, opts: opts}
}

func (m *AnthropicModel) Name() string { return "anthropic" }

func (m *AnthropicModel) Complete(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.opts.Model),
		MaxTokens:   int64(m.opts.MaxTokens),
		Temperature: anthropic.Float(m.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	msg, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyAnthropic(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}
	return sb.String(), nil
}

func classifyAnthropic(err error) *Error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return statusError(apierr.StatusCode, err)
	}
	if isConnectionError(err) {
		return connectionError(err)
	}
	return unexpectedError(err)
}
