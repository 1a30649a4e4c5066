package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quizmaster/internal/domain"
)

var (
	errEmptyResponse    = errors.New("empty response from model")
	errMissingTitle     = errors.New("quiz title is missing")
	errQuestionsNotList = errors.New("quiz questions are not an array")
	errNoQuestions      = errors.New("quiz has no questions")
)

// ParseQuiz decodes a model response into a Quiz. Only the top-level shape is
// checked: a non-empty title and a non-empty questions array. Option counts, correct-answer
// membership and question count are taken as returned.
func ParseQuiz(raw string) (domain.Quiz, error) {
	clean := stripFence(raw)
	if clean == "" {
		return domain.Quiz{}, errEmptyResponse
	}

	var envelope struct {
		Title     string          `json:"title"`
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal([]byte(clean), &envelope); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz json: %w", err)
	}
	if envelope.Title == "" {
		return domain.Quiz{}, errMissingTitle
	}
	questionsJSON := bytes.TrimSpace(envelope.Questions)
	if len(questionsJSON) == 0 || questionsJSON[0] != '[' {
		return domain.Quiz{}, errQuestionsNotList
	}

	var questions []domain.Question
	if err := json.Unmarshal(questionsJSON, &questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz questions: %w", err)
	}
	// An empty quiz cannot be taken; the session needs at least one question index.
	if len(questions) == 0 {
		return domain.Quiz{}, errNoQuestions
	}
	return domain.Quiz{Title: envelope.Title, Questions: questions}, nil
}

// stripFence removes surrounding whitespace and a markdown code fence some
// models add even in JSON mode.
func stripFence(raw string) string {
	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(clean, "```")
		clean = strings.TrimSpace(clean)
	}
	return clean
}
