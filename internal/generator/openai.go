package generator

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIModel talks to the chat completions API using the official SDK.
type OpenAIModel struct {
	client openai.Client
	opts   Options
}

func NewOpenAIModel(opts Options) *OpenAIModel {
	client := openai.NewClient(option.WithAPIKey(opts.APIKey))
	return &OpenAIModel{client: client, opts: opts}
}

func (m *OpenAIModel) Name() string { return "openai" }

func (m *OpenAIModel) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(m.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(m.opts.Temperature),
	}
	if m.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(m.opts.MaxTokens))
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

func classifyOpenAI(err error) *Error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return statusError(apierr.StatusCode, err)
	}
	if isConnectionError(err) {
		return connectionError(err)
	}
	return unexpectedError(err)
}
