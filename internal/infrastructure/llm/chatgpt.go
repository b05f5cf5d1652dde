package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"ContentEngine/internal/config"
)

// completer sends one system+user exchange and returns the raw reply.
type completer interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// ChatGPTClient talks to OpenAI-compatible chat completion APIs in JSON mode.
type ChatGPTClient struct {
	client openai.Client
	model  string
}

var _ completer = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.OpenAIConfig) *ChatGPTClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &ChatGPTClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Complete asks for a JSON object reply.
func (c *ChatGPTClient) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.model == "" {
		return "", fmt.Errorf("chatgpt client misconfigured")
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(safePrompt(system)),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a helpful assistant that answers with a single JSON object."
	}
	return prompt
}
