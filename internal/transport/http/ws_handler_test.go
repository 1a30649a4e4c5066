package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/generation/generationtest"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func TestWebSocketQuizFlow(t *testing.T) {
	srv := newTestServer(t, &generationtest.CountingModel{})
	srv.snapshot(t, http.MethodPost, "/api/quiz", map[string]any{"topic": "Go", "count": 3})

	dialer := websocket.Dialer{Jar: srv.client.Jar, HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	snap := readSnapshot(t, conn)
	if snap.Phase != domain.PhaseNotStarted {
		t.Fatalf("expected initial not_started snapshot, got %s", snap.Phase)
	}

	send(t, conn, "start", nil)
	snap = readSnapshot(t, conn)
	if snap.Phase != domain.PhaseInProgress {
		t.Fatalf("expected in_progress after start, got %s", snap.Phase)
	}

	// Ticks are pushed without any request from the client.
	srv.ticks <- time.Now()
	snap = readSnapshot(t, conn)
	if snap.ElapsedSeconds != 1 || snap.Elapsed != "00:01" {
		t.Fatalf("expected tick snapshot, got %d %s", snap.ElapsedSeconds, snap.Elapsed)
	}

	send(t, conn, "next", nil)
	msg := readMessage(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error for unanswered next, got %s", msg.Type)
	}
	var body errorBody
	if err := json.Unmarshal(msg.Payload, &body); err != nil || body.Code != codeTransition {
		t.Fatalf("unexpected error payload %s", msg.Payload)
	}

	send(t, conn, "answer", map[string]any{"index": 0, "value": "a0"})
	snap = readSnapshot(t, conn)
	if snap.Current == nil || snap.Current.Feedback == nil || snap.Current.Feedback.Correct {
		t.Fatalf("expected incorrect feedback, got %+v", snap.Current)
	}

	send(t, conn, "bogus", nil)
	if msg := readMessage(t, conn); msg.Type != "error" {
		t.Fatalf("expected error for unknown command, got %s", msg.Type)
	}

	send(t, conn, "reset", nil)
	if msg := readMessage(t, conn); msg.Type != "closed" {
		t.Fatalf("expected closed after reset, got %s", msg.Type)
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	srv := newTestServer(t, &generationtest.CountingModel{})
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err == nil {
		t.Fatalf("expected dial to fail without a session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	var msg wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

func readSnapshot(t *testing.T, conn *websocket.Conn) app.Snapshot {
	t.Helper()
	msg := readMessage(t, conn)
	if msg.Type != "snapshot" {
		t.Fatalf("expected snapshot, got %s (%s)", msg.Type, msg.Payload)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}
