// Package generationtest provides canned generation.Model implementations for tests.
package generationtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"quizmaster/internal/domain"
)

// StaticModel returns the same response for every prompt.
type StaticModel struct {
	Response string
	Err      error

	calls   atomic.Int64
	mu      sync.Mutex
	prompts []string
}

func (m *StaticModel) Generate(_ context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.Response, m.Err
}

// Calls reports how many times Generate ran.
func (m *StaticModel) Calls() int {
	return int(m.calls.Load())
}

// Prompts returns the prompts seen so far.
func (m *StaticModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CountingModel answers every prompt with a well-formed quiz of the requested size.
// The count is read from the prompt so tests exercise the real prompt builder.
type CountingModel struct {
	calls atomic.Int64
}

func (m *CountingModel) Generate(_ context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	rest, ok := strings.CutPrefix(prompt, "Create a quiz about ")
	topic, rest, found := strings.Cut(rest, " with exactly ")
	if !ok || !found {
		return "", fmt.Errorf("unexpected prompt %q", prompt)
	}
	var count int
	if _, err := fmt.Sscanf(rest, "%d", &count); err != nil {
		return "", fmt.Errorf("unexpected prompt: %w", err)
	}
	b, err := json.Marshal(SampleQuiz(topic, count))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Calls reports how many times Generate ran.
func (m *CountingModel) Calls() int {
	return int(m.calls.Load())
}

// SampleQuiz builds a deterministic quiz whose correct answer is always the second option.
func SampleQuiz(topic string, count int) domain.Quiz {
	quiz := domain.Quiz{Title: "All about " + topic}
	for i := 0; i < count; i++ {
		quiz.Questions = append(quiz.Questions, domain.Question{
			QuestionText:  fmt.Sprintf("%s question %d?", topic, i+1),
			Options:       []string{fmt.Sprintf("a%d", i), fmt.Sprintf("b%d", i), fmt.Sprintf("c%d", i), fmt.Sprintf("d%d", i)},
			CorrectAnswer: fmt.Sprintf("b%d", i),
			Explanation:   fmt.Sprintf("b%d is right.", i),
		})
	}
	return quiz
}
