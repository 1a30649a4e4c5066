package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/logger"
)

// errStreamDone ends the connection's goroutine group without being a failure.
var errStreamDone = errors.New("stream done")

type WSHandler struct {
	service  *app.QuizService
	clients  *ClientBinder
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, clients *ClientBinder) *WSHandler {
	return &WSHandler{
		service: service,
		clients: clients,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS streams the client's session snapshots, one per change including every
// tick, and accepts start, answer, next, prev, finish and reset commands. The
// stream ends with a "closed" message when the session is reset or replaced.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clients.Lookup(r)
	if !ok {
		writeError(w, domain.ErrSessionNotFound)
		return
	}
	updates, cancel, err := h.service.Subscribe(r.Context(), clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Get().Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := logger.Get().With(zap.String("client_id", clientID))
	replies := make(chan outboundMessage[any], 16)
	g, ctx := errgroup.WithContext(r.Context())

	// Only this goroutine writes to conn.
	g.Go(func() error {
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					_ = conn.WriteJSON(outboundMessage[any]{Type: "closed", Payload: nil})
					return errStreamDone
				}
				if err := conn.WriteJSON(outboundMessage[any]{Type: "snapshot", Payload: snap}); err != nil {
					return err
				}
			case msg := <-replies:
				if err := conn.WriteJSON(msg); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	g.Go(func() error {
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				return err
			}
			if err := h.dispatch(ctx, clientID, inbound); err != nil {
				_, body := classify(err)
				select {
				case replies <- outboundMessage[any]{Type: "error", Payload: body}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	// ReadJSON does not observe ctx; closing the connection unblocks it.
	g.Go(func() error {
		<-ctx.Done()
		return conn.Close()
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, errStreamDone) && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Debug("ws connection ended", zap.Error(err))
	}
}

type answerPayload struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

var errUnsupportedMessage = errors.New("unsupported message type")

func (h *WSHandler) dispatch(ctx context.Context, clientID string, msg inboundMessage) error {
	var err error
	switch msg.Type {
	case "start":
		_, err = h.service.Start(ctx, clientID)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return domain.NewInputValidationError("invalid answer payload")
		}
		_, err = h.service.SelectAnswer(ctx, clientID, payload.Index, payload.Value)
	case "next":
		_, err = h.service.Next(ctx, clientID)
	case "prev":
		_, err = h.service.Prev(ctx, clientID)
	case "finish":
		_, err = h.service.Finish(ctx, clientID)
	case "reset":
		h.service.Reset(ctx, clientID)
	default:
		return domain.NewInputValidationError("%s", errUnsupportedMessage)
	}
	return err
}
