package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// ErrAPIKeyNotSet is returned when the configured key env var is empty.
var ErrAPIKeyNotSet = errors.New("generator API key not set")

// OpenAI generates answers through the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	return &OpenAI{client: openai.NewClient(option.WithAPIKey(apiKey)), model: model}, nil
}

// Generate returns the completion text for the prompt. Failures are
// returned as is; the caller decides whether to retry.
func (g *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai completion: no choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}
