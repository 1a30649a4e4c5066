package ollama

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"quizmaster/internal/generation"
)

// Model generates quizzes with a local Ollama server through langchaingo.
type Model struct {
	llm *ollama.LLM
}

// New creates an Ollama-backed model in JSON output mode.
func New(serverURL, modelName string) (*Model, error) {
	if serverURL == "" {
		return nil, errors.New("ollama server url cannot be empty")
	}
	if modelName == "" {
		return nil, errors.New("ollama model name cannot be empty")
	}
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(modelName),
		ollama.WithFormat("json"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &Model{llm: llm}, nil
}

func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	full := prompt + "\n\nJSON schema:\n" + generation.SchemaJSON()
	out, err := llms.GenerateFromSinglePrompt(ctx, m.llm, full, llms.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out, nil
}

var _ generation.Model = (*Model)(nil)
