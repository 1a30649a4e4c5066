package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"quizmaster/internal/logger"
)

// NewRouter wires the REST and websocket handlers.
func NewRouter(quiz *QuizHandler, ws *WSHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/quiz", func(r chi.Router) {
		r.Get("/", quiz.Get)
		r.Post("/", quiz.Create)
		r.Delete("/", quiz.Reset)
		r.Get("/creator", quiz.Creator)
		r.Post("/start", quiz.Start)
		r.Post("/answer", quiz.Answer)
		r.Post("/next", quiz.Next)
		r.Post("/prev", quiz.Prev)
		r.Post("/finish", quiz.Finish)
	})

	r.Get("/ws", ws.ServeWS)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Get().Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}
