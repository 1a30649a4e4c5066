package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/logger"
)

// QuizHandler serves the REST surface of the quiz service.
type QuizHandler struct {
	service          *app.QuizService
	clients          *ClientBinder
	defaultQuestions int
}

func NewQuizHandler(service *app.QuizService, clients *ClientBinder, defaultQuestions int) *QuizHandler {
	if defaultQuestions == 0 {
		defaultQuestions = domain.DefaultQuestions
	}
	return &QuizHandler{service: service, clients: clients, defaultQuestions: defaultQuestions}
}

type createRequest struct {
	Topic string `json:"topic"`
	Count *int   `json:"count"`
}

type answerRequest struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

type creatorResponse struct {
	Loading          bool   `json:"loading"`
	LastError        string `json:"lastError,omitempty"`
	DefaultQuestions int    `json:"defaultQuestions"`
	MinQuestions     int    `json:"minQuestions"`
	MaxQuestions     int    `json:"maxQuestions"`
}

// Creator reports the creation form state for this client.
func (h *QuizHandler) Creator(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.bind(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, creatorResponse{
		Loading:          h.service.Loading(clientID),
		LastError:        h.service.LastError(clientID),
		DefaultQuestions: h.defaultQuestions,
		MinQuestions:     domain.MinQuestions,
		MaxQuestions:     domain.MaxQuestions,
	})
}

// Create generates a quiz and opens a new session for this client.
func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.bind(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: codeBadRequest, Message: "invalid request body"})
		return
	}
	count := h.defaultQuestions
	if req.Count != nil {
		count = *req.Count
	}

	snap, err := h.service.Create(r.Context(), clientID, req.Topic, count)
	if err != nil {
		logger.Get().Info("quiz create rejected", zap.String("client_id", clientID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// Get returns the current snapshot.
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.Snapshot)
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.Start)
}

func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: codeBadRequest, Message: "invalid request body"})
		return
	}
	h.run(w, r, func(ctx context.Context, clientID string) (app.Snapshot, error) {
		return h.service.SelectAnswer(ctx, clientID, req.Index, req.Value)
	})
}

func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.Next)
}

func (h *QuizHandler) Prev(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.Prev)
}

func (h *QuizHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.Finish)
}

// Reset drops the client's quiz. It always succeeds.
func (h *QuizHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if clientID, ok := h.clients.Lookup(r); ok {
		h.service.Reset(r.Context(), clientID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuizHandler) run(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (app.Snapshot, error)) {
	clientID, ok := h.clients.Lookup(r)
	if !ok {
		writeError(w, domain.ErrSessionNotFound)
		return
	}
	snap, err := op(r.Context(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *QuizHandler) bind(w http.ResponseWriter, r *http.Request) (string, bool) {
	clientID, err := h.clients.Bind(w, r)
	if err != nil {
		logger.Get().Error("bind client cookie", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: codeInternal, Message: "internal server error"})
		return "", false
	}
	return clientID, true
}
