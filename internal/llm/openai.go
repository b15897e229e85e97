package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openAITemperature = 0.3

type implOpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a chat-completion client. baseURL may be empty to use the
// public API.
func NewOpenAI(apiKey, model, baseURL string) (Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: no API key")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &implOpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (o *implOpenAI) Name() string { return "openai/" + o.model }

func (o *implOpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: openAITemperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
