package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no quiz session exists for an ID.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a question index outside the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidPhase is returned when an action does not apply to the current phase.
	ErrInvalidPhase = errors.New("action not allowed in current phase")
	// ErrNoNextQuestion is returned by next on the last question.
	ErrNoNextQuestion = errors.New("already on the last question")
	// ErrNoPreviousQuestion is returned by prev on the first question.
	ErrNoPreviousQuestion = errors.New("already on the first question")
	// ErrAnswerRequired gates moving forward past an unanswered question.
	ErrAnswerRequired = errors.New("answer the current question first")
	// ErrFinishNotAllowed is returned unless the last question is current and answered.
	ErrFinishNotAllowed = errors.New("finish requires the last question to be answered")
	// ErrGenerationInFlight rejects a submit while another one is pending for the same client.
	ErrGenerationInFlight = errors.New("a quiz is already being generated")
)

// ErrorCode classifies user-facing failures.
type ErrorCode string

const (
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeGenerationFailed ErrorCode = "GENERATION_FAILED"
)

// GenerationFailedMessage is the single message shown for any generation failure.
const GenerationFailedMessage = "Failed to generate the quiz. The model may have returned an invalid format. Please try again."

// InputValidationError is raised before any network call when the form input is unusable.
type InputValidationError struct {
	Message string
}

func (e *InputValidationError) Error() string { return e.Message }

// Code returns CodeInvalidInput.
func (e *InputValidationError) Code() ErrorCode { return CodeInvalidInput }

// NewInputValidationError builds an InputValidationError with a formatted message.
func NewInputValidationError(format string, args ...any) *InputValidationError {
	return &InputValidationError{Message: fmt.Sprintf(format, args...)}
}

// GenerationError wraps any provider, transport or shape failure. Error() is the
// user-facing message; the cause stays reachable through Unwrap for logs.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return GenerationFailedMessage }

func (e *GenerationError) Unwrap() error { return e.Err }

// Code returns CodeGenerationFailed.
func (e *GenerationError) Code() ErrorCode { return CodeGenerationFailed }

// Cause returns the detailed error text for logging.
func (e *GenerationError) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// NewGenerationError wraps err.
func NewGenerationError(err error) *GenerationError {
	return &GenerationError{Err: err}
}
