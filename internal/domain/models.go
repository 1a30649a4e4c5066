package domain

import "time"

const (
	// MinQuestions and MaxQuestions bound the question count a user may request.
	MinQuestions = 3
	MaxQuestions = 25
	// DefaultQuestions is the count offered before the user picks one.
	DefaultQuestions = 5
	// OptionsPerQuestion is what the generator asks for; it is not enforced on responses.
	OptionsPerQuestion = 4
)

// Question is a single multiple-choice question as returned by the generator.
type Question struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Quiz is an ordered set of questions plus a title. It is never mutated after generation.
type Quiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// AnswerRecord maps a question index to the option text the user picked.
type AnswerRecord map[int]string

// Record stores value for index unless that index already has an answer.
// It reports whether the record changed.
func (a AnswerRecord) Record(index int, value string) bool {
	if _, ok := a[index]; ok {
		return false
	}
	a[index] = value
	return true
}

// Has reports whether index has been answered.
func (a AnswerRecord) Has(index int) bool {
	_, ok := a[index]
	return ok
}

// Clone returns an independent copy.
func (a AnswerRecord) Clone() AnswerRecord {
	out := make(AnswerRecord, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ComputeScore counts the questions whose recorded answer equals the correct answer.
func ComputeScore(questions []Question, answers AnswerRecord) int {
	score := 0
	for i, q := range questions {
		if answer, ok := answers[i]; ok && answer == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// Phase is the quiz-taking lifecycle stage.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// Band groups a final score ratio for display.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// OptionStyle is how a single answer option should be rendered.
type OptionStyle string

const (
	OptionInteractive OptionStyle = "interactive"
	OptionCorrect     OptionStyle = "correct"
	OptionIncorrect   OptionStyle = "incorrect"
	OptionMuted       OptionStyle = "muted"
)

// AttemptOutcome is the result of one generation attempt.
type AttemptOutcome string

const (
	AttemptSucceeded AttemptOutcome = "succeeded"
	AttemptFailed    AttemptOutcome = "failed"
)

// GenerationAttempt is the audit record written for every call to the generator.
// It carries no quiz content.
type GenerationAttempt struct {
	ID        string
	Topic     string
	Count     int
	Backend   string
	Outcome   AttemptOutcome
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}
