package app

import (
	"fmt"

	"quizmaster/internal/domain"
)

// Band thresholds on the score ratio. high is inclusive of 0.7, medium of 0.4.
const (
	highBandRatio   = 0.7
	mediumBandRatio = 0.4
)

// NotAnswered is shown in the review for questions left blank.
const NotAnswered = "Not answered"

// Snapshot is everything a client needs to render a session. It is rebuilt from
// raw state on every read and never stored.
type Snapshot struct {
	SessionID      string        `json:"sessionId"`
	Phase          domain.Phase  `json:"phase"`
	Title          string        `json:"title"`
	TotalQuestions int           `json:"totalQuestions"`
	Intro          string        `json:"intro,omitempty"`
	ElapsedSeconds int           `json:"elapsedSeconds"`
	Elapsed        string        `json:"elapsed"`
	Current        *QuestionView `json:"current,omitempty"`
	Result         *ResultView   `json:"result,omitempty"`
}

// QuestionView is the in-progress screen for the current question.
type QuestionView struct {
	Index           int          `json:"index"`
	Number          int          `json:"number"`
	ProgressPercent float64      `json:"progressPercent"`
	Text            string       `json:"text"`
	Options         []OptionView `json:"options"`
	Answered        bool         `json:"answered"`
	Feedback        *Feedback    `json:"feedback,omitempty"`
	CanPrev         bool         `json:"canPrev"`
	CanNext         bool         `json:"canNext"`
	CanFinish       bool         `json:"canFinish"`
}

type OptionView struct {
	Text     string             `json:"text"`
	Style    domain.OptionStyle `json:"style"`
	Selected bool               `json:"selected"`
}

// Feedback is shown once the current question is answered.
type Feedback struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// ResultView is the finished screen.
type ResultView struct {
	Score   int          `json:"score"`
	Total   int          `json:"total"`
	Band    domain.Band  `json:"band"`
	Elapsed string       `json:"elapsed"`
	Review  []ReviewItem `json:"review"`
}

type ReviewItem struct {
	Number        int    `json:"number"`
	QuestionText  string `json:"questionText"`
	UserAnswer    string `json:"userAnswer"`
	Answered      bool   `json:"answered"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
	Explanation   string `json:"explanation"`
}

// Project derives the client view from a quiz and a raw state.
func Project(sessionID string, quiz domain.Quiz, state State) Snapshot {
	total := len(quiz.Questions)
	snap := Snapshot{
		SessionID:      sessionID,
		Phase:          state.Phase,
		Title:          quiz.Title,
		TotalQuestions: total,
		ElapsedSeconds: state.ElapsedSeconds,
		Elapsed:        FormatElapsed(state.ElapsedSeconds),
	}
	switch state.Phase {
	case domain.PhaseNotStarted:
		snap.Intro = IntroText(total)
	case domain.PhaseInProgress:
		if state.CurrentIndex >= 0 && state.CurrentIndex < total {
			snap.Current = projectQuestion(quiz, state)
		}
	case domain.PhaseFinished:
		snap.Result = projectResult(quiz, state)
	}
	return snap
}

func projectQuestion(quiz domain.Quiz, state State) *QuestionView {
	total := len(quiz.Questions)
	index := state.CurrentIndex
	question := quiz.Questions[index]
	selected, answered := state.Answers[index]

	view := &QuestionView{
		Index:           index,
		Number:          index + 1,
		ProgressPercent: ProgressPercent(index, total),
		Text:            question.QuestionText,
		Options:         make([]OptionView, 0, len(question.Options)),
		Answered:        answered,
		CanPrev:         index > 0,
		CanNext:         answered && index < total-1,
		CanFinish:       answered && index == total-1,
	}
	for _, option := range question.Options {
		view.Options = append(view.Options, OptionView{
			Text:     option,
			Style:    OptionStyleFor(option, question.CorrectAnswer, selected, answered),
			Selected: answered && option == selected,
		})
	}
	if answered {
		view.Feedback = &Feedback{
			Correct:       selected == question.CorrectAnswer,
			CorrectAnswer: question.CorrectAnswer,
			Explanation:   question.Explanation,
		}
	}
	return view
}

func projectResult(quiz domain.Quiz, state State) *ResultView {
	score := domain.ComputeScore(quiz.Questions, state.Answers)
	total := len(quiz.Questions)
	result := &ResultView{
		Score:   score,
		Total:   total,
		Band:    BandFor(score, total),
		Elapsed: FormatElapsed(state.ElapsedSeconds),
		Review:  make([]ReviewItem, 0, total),
	}
	for i, q := range quiz.Questions {
		answer, answered := state.Answers[i]
		item := ReviewItem{
			Number:       i + 1,
			QuestionText: q.QuestionText,
			UserAnswer:   answer,
			Answered:     answered,
			Correct:      answered && answer == q.CorrectAnswer,
			Explanation:  q.Explanation,
		}
		if !answered {
			item.UserAnswer = NotAnswered
		}
		if !item.Correct {
			item.CorrectAnswer = q.CorrectAnswer
		}
		result.Review = append(result.Review, item)
	}
	return result
}

// IntroText is shown before the quiz starts.
func IntroText(total int) string {
	return fmt.Sprintf("Ready to test your knowledge? There are %d questions.", total)
}

// ProgressPercent is the share of the quiz reached when viewing index.
func ProgressPercent(index, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(index+1) / float64(total) * 100
}

// OptionStyleFor picks how one option renders. Checks run in order: the correct
// option once answered, the wrong pick, every other option once answered, and
// finally the unanswered state.
func OptionStyleFor(option, correctAnswer, selected string, answered bool) domain.OptionStyle {
	switch {
	case !answered:
		return domain.OptionInteractive
	case option == correctAnswer:
		return domain.OptionCorrect
	case option == selected:
		return domain.OptionIncorrect
	default:
		return domain.OptionMuted
	}
}

// BandFor groups score/total. An empty quiz counts as ratio 0.
func BandFor(score, total int) domain.Band {
	if total <= 0 {
		return BandForRatio(0)
	}
	return BandForRatio(float64(score) / float64(total))
}

// BandForRatio: [0.7, ∞) high, [0.4, 0.7) medium, below 0.4 low.
func BandForRatio(ratio float64) domain.Band {
	switch {
	case ratio >= highBandRatio:
		return domain.BandHigh
	case ratio >= mediumBandRatio:
		return domain.BandMedium
	default:
		return domain.BandLow
	}
}

// FormatElapsed renders seconds as MM:SS.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
