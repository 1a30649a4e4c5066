package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"quizmaster/internal/app"
	"quizmaster/internal/generation"
	"quizmaster/internal/generation/generationtest"
	"quizmaster/internal/infra/memory"
)

func newTestConsole(t *testing.T, input string) (*Console, *bytes.Buffer, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	t.Cleanup(store.Close)
	idle := func(time.Duration) (<-chan time.Time, func()) { return make(chan time.Time), func() {} }
	service := app.NewQuizService(store, generation.NewGenerator(&generationtest.CountingModel{}, "stub"),
		app.WithSessionOptions(app.WithTicker(idle)))
	out := &bytes.Buffer{}
	return New(service, strings.NewReader(input), out, 5), out, store
}

func TestConsolePlaysFullQuiz(t *testing.T) {
	input := strings.Join([]string{
		"   ", "", // blank topic is rejected
		"Go", "3",
		"", // start
		"n", // gated: unanswered
		"2", "n",
		"1", "n",
		"2", "f",
		"n", // no new quiz
	}, "\n") + "\n"
	c, out, store := newTestConsole(t, input)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Please enter a topic.",
		"All about Go",
		"Ready to test your knowledge? There are 3 questions.",
		"answer the current question first",
		"Incorrect. The correct answer is: b1",
		"Score: 2 / 3 (medium)   Time: 00:00",
		"Your answer: a1",
		"Correct answer: b1",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("expected session dropped after run, got %d", store.Len())
	}
}

func TestConsoleUsesDefaultCount(t *testing.T) {
	c, out, _ := newTestConsole(t, "Rust\n\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "There are 5 questions.") {
		t.Fatalf("expected default count, got:\n%s", out.String())
	}
}

func TestConsoleQuitsOnEOF(t *testing.T) {
	c, _, store := newTestConsole(t, "Go\n3\n\n2\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected session dropped on quit")
	}
}
