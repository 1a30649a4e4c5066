package generation_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizmaster/internal/domain"
	"quizmaster/internal/generation"
	"quizmaster/internal/generation/generationtest"
)

func TestGenerateQuizReturnsRequestedCount(t *testing.T) {
	model := &generationtest.CountingModel{}
	gen := generation.NewGenerator(model, "stub")

	for _, count := range []int{domain.MinQuestions, 10, domain.MaxQuestions} {
		quiz, err := gen.GenerateQuiz(context.Background(), "Roman History", count)
		require.NoError(t, err)
		assert.Len(t, quiz.Questions, count)
		assert.Equal(t, "All about Roman History", quiz.Title)
	}
	assert.Equal(t, 3, model.Calls(), "one model call per quiz")
}

func TestGenerateQuizPrompt(t *testing.T) {
	model := &generationtest.StaticModel{Response: `{"title":"T","questions":[{"questionText":"Q","options":["a","b","c","d"],"correctAnswer":"a","explanation":"e"}]}`}
	gen := generation.NewGenerator(model, "stub")

	_, err := gen.GenerateQuiz(context.Background(), "React.js Hooks", 7)
	require.NoError(t, err)

	prompts := model.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Create a quiz about React.js Hooks with exactly 7 multiple-choice questions.")
	assert.Contains(t, prompts[0], "exactly 4 options")
	assert.Contains(t, prompts[0], "'correctAnswer'")
}

func TestGenerateQuizWrapsFailures(t *testing.T) {
	tests := []struct {
		name     string
		model    *generationtest.StaticModel
		contains string
	}{
		{name: "provider error", model: &generationtest.StaticModel{Err: errors.New("503 unavailable")}, contains: "503"},
		{name: "not json", model: &generationtest.StaticModel{Response: "Sure! Here is your quiz"}, contains: "decode quiz json"},
		{name: "missing title", model: &generationtest.StaticModel{Response: `{"questions":[]}`}, contains: "title"},
		{name: "empty title", model: &generationtest.StaticModel{Response: `{"title":"","questions":[]}`}, contains: "title"},
		{name: "questions object", model: &generationtest.StaticModel{Response: `{"title":"T","questions":{}}`}, contains: "not an array"},
		{name: "questions missing", model: &generationtest.StaticModel{Response: `{"title":"T"}`}, contains: "not an array"},
		{name: "questions null", model: &generationtest.StaticModel{Response: `{"title":"T","questions":null}`}, contains: "not an array"},
		{name: "empty", model: &generationtest.StaticModel{Response: "   "}, contains: "empty response"},
		{name: "no questions", model: &generationtest.StaticModel{Response: `{"title":"T","questions":[]}`}, contains: "no questions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := generation.NewGenerator(tt.model, "stub")
			_, err := gen.GenerateQuiz(context.Background(), "Go", 3)
			require.Error(t, err)

			var genErr *domain.GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, domain.GenerationFailedMessage, err.Error())
			assert.Contains(t, genErr.Cause(), tt.contains)
		})
	}
}

func TestGenerateQuizAppliesTimeout(t *testing.T) {
	model := modelFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	gen := generation.NewGenerator(model, "stub", generation.WithTimeout(10*time.Millisecond))

	_, err := gen.GenerateQuiz(context.Background(), "Go", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseQuizKeepsProviderData(t *testing.T) {
	// Three options and a correct answer outside them are passed through untouched.
	raw := "```json\n" + `{"title":"Odd","questions":[{"questionText":"Q","options":["a","b","c"],"correctAnswer":"z","explanation":"e"}]}` + "\n```"

	quiz, err := generation.ParseQuiz(raw)
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, []string{"a", "b", "c"}, quiz.Questions[0].Options)
	assert.Equal(t, "z", quiz.Questions[0].CorrectAnswer)
}

func TestSchemaJSONListsRequiredFields(t *testing.T) {
	schema := generation.SchemaJSON()
	for _, field := range append(generation.QuizFields, generation.QuestionFields...) {
		assert.True(t, strings.Contains(schema, `"`+field+`"`), "schema missing %s", field)
	}
}

type modelFunc func(ctx context.Context, prompt string) (string, error)

func (f modelFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
