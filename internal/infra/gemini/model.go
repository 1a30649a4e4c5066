package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"quizmaster/internal/generation"
)

// Model generates quizzes with the Gemini API using a response schema.
type Model struct {
	client    *genai.Client
	modelName string
}

// Option adjusts the Gemini client configuration.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at another API endpoint, e.g. a proxy.
func WithBaseURL(baseURL string) Option {
	return func(c *genai.ClientConfig) { c.HTTPOptions.BaseURL = baseURL }
}

// New creates a Gemini-backed model. It refuses to construct without an API key.
func New(ctx context.Context, apiKey, modelName string, opts ...Option) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if modelName == "" {
		return nil, errors.New("gemini model name cannot be empty")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Model{client: client, modelName: modelName}, nil
}

func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := m.client.Models.GenerateContent(ctx, m.modelName, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   quizSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return result.Text(), nil
}

func quizSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: generation.TitleDescription,
			},
			"questions": {
				Type:        genai.TypeArray,
				Description: generation.QuestionsDescription,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"questionText": {
							Type:        genai.TypeString,
							Description: generation.QuestionTextDescription,
						},
						"options": {
							Type:        genai.TypeArray,
							Description: generation.OptionsDescription,
							Items:       &genai.Schema{Type: genai.TypeString},
						},
						"correctAnswer": {
							Type:        genai.TypeString,
							Description: generation.CorrectAnswerDescription,
						},
						"explanation": {
							Type:        genai.TypeString,
							Description: generation.ExplanationDescription,
						},
					},
					Required: generation.QuestionFields,
				},
			},
		},
		Required: generation.QuizFields,
	}
}

var _ generation.Model = (*Model)(nil)
