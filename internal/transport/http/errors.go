package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"quizmaster/internal/domain"
	"quizmaster/internal/logger"
)

// Transport-level error codes. Input and generation failures use the domain codes.
const (
	codeBadRequest         domain.ErrorCode = "BAD_REQUEST"
	codeSessionNotFound    domain.ErrorCode = "SESSION_NOT_FOUND"
	codeGenerationInFlight domain.ErrorCode = "GENERATION_IN_FLIGHT"
	codeTransition         domain.ErrorCode = "TRANSITION_REJECTED"
	codeInternal           domain.ErrorCode = "INTERNAL"
)

type errorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// classify maps an error to its status and wire body.
func classify(err error) (int, errorBody) {
	var inputErr *domain.InputValidationError
	var genErr *domain.GenerationError
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, errorBody{Code: inputErr.Code(), Message: inputErr.Error()}
	case errors.As(err, &genErr):
		return http.StatusBadGateway, errorBody{Code: genErr.Code(), Message: genErr.Error()}
	case errors.Is(err, domain.ErrGenerationInFlight):
		return http.StatusConflict, errorBody{Code: codeGenerationInFlight, Message: err.Error()}
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, errorBody{Code: codeSessionNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusBadRequest, errorBody{Code: codeBadRequest, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidPhase),
		errors.Is(err, domain.ErrNoNextQuestion),
		errors.Is(err, domain.ErrNoPreviousQuestion),
		errors.Is(err, domain.ErrAnswerRequired),
		errors.Is(err, domain.ErrFinishNotAllowed):
		return http.StatusConflict, errorBody{Code: codeTransition, Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Code: codeInternal, Message: "internal server error"}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		logger.Get().Error("unhandled request error", zap.Error(err))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Warn("encode response", zap.Error(err))
	}
}
