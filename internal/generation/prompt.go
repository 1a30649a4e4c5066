package generation

import (
	"encoding/json"
	"fmt"
)

// Field descriptions shared by every backend's structured-output schema.
const (
	TitleDescription         = "A creative and relevant title for the quiz."
	QuestionsDescription     = "An array of quiz questions."
	QuestionTextDescription  = "The text of the question."
	OptionsDescription       = "An array of 4 possible answers as strings."
	CorrectAnswerDescription = "The correct answer, which must exactly match one of the items in the 'options' array."
	ExplanationDescription   = "A brief, professor-like explanation for why the correct answer is correct."
)

// QuestionFields lists the required keys of each question object, in schema order.
var QuestionFields = []string{"questionText", "options", "correctAnswer", "explanation"}

// QuizFields lists the required top-level keys.
var QuizFields = []string{"title", "questions"}

// Schema is the JSON schema the response must follow, for backends that take a
// plain JSON schema document.
var Schema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{
			"type":        "string",
			"description": TitleDescription,
		},
		"questions": map[string]any{
			"type":        "array",
			"description": QuestionsDescription,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"questionText": map[string]any{
						"type":        "string",
						"description": QuestionTextDescription,
					},
					"options": map[string]any{
						"type":        "array",
						"description": OptionsDescription,
						"items":       map[string]any{"type": "string"},
					},
					"correctAnswer": map[string]any{
						"type":        "string",
						"description": CorrectAnswerDescription,
					},
					"explanation": map[string]any{
						"type":        "string",
						"description": ExplanationDescription,
					},
				},
				"required": QuestionFields,
			},
		},
	},
	"required": QuizFields,
}

// SchemaJSON renders Schema for embedding in a prompt.
func SchemaJSON() string {
	b, err := json.MarshalIndent(Schema, "", "  ")
	if err != nil {
		// Schema is a static literal of maps, slices and strings.
		panic(err)
	}
	return string(b)
}

// BuildPrompt is the instruction sent to the model for one quiz.
func BuildPrompt(topic string, count int) string {
	return fmt.Sprintf(
		"Create a quiz about %s with exactly %d multiple-choice questions. "+
			"Each question must have exactly 4 options. "+
			"For each question, also provide a brief but insightful explanation for why the correct answer is correct, as if a professor were explaining it. "+
			"The response must be a JSON object that strictly adheres to the provided schema. "+
			"The 'correctAnswer' field for each question must be an exact string match to one of the provided options.",
		topic, count,
	)
}
