package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"quizmaster/internal/generation"
)

const systemPrompt = "You are an expert quiz generator. Reply with a single JSON object and nothing else. The object must match this JSON schema:\n"

// Model generates quizzes through the OpenAI chat completions API in JSON mode.
type Model struct {
	client    *openai.Client
	modelName string
}

// New creates an OpenAI-backed model. baseURL may point at any compatible endpoint.
func New(apiKey, modelName, baseURL string) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key cannot be empty")
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Model{client: openai.NewClientWithConfig(cfg), modelName: modelName}, nil
}

func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt + generation.SchemaJSON()},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ generation.Model = (*Model)(nil)
