package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/generation/generationtest"
)

func newTestStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewSessionStore(client, ttl)
	t.Cleanup(store.Close)
	return store, mr
}

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)

	store.Save(app.NewSession("s-1", generationtest.SampleQuiz("Go", 3)))
	if !mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiz:session:s-1"); ttl != time.Minute {
		t.Fatalf("expected ttl of one minute, got %v", ttl)
	}

	store.Delete("s-1")
	if mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreGetRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	store.Save(app.NewSession("s-1", generationtest.SampleQuiz("Go", 3)))

	mr.FastForward(40 * time.Second)
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected live session")
	}
	if ttl := mr.TTL("quiz:session:s-1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed to one minute, got %v", ttl)
	}
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	session := app.NewSession("s-1", generationtest.SampleQuiz("Go", 3))
	store.Save(session)

	mr.FastForward(2 * time.Minute)
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected expired session to be dropped")
	}
	if err := session.Start(); err != domain.ErrInvalidPhase {
		t.Fatalf("expected expired session to be closed, got %v", err)
	}
}

func TestSessionStoreKeepsServingWhenRedisIsDown(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	store.Save(app.NewSession("s-1", generationtest.SampleQuiz("Go", 3)))

	mr.Close()
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected local session to be served without redis")
	}
}

func TestSweepClosesAbandonedSessions(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	abandoned := app.NewSession("abandoned", generationtest.SampleQuiz("Go", 3))
	watched := app.NewSession("watched", generationtest.SampleQuiz("Go", 3))
	store.Save(abandoned)
	store.Save(watched)
	if err := abandoned.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, cancel := watched.Subscribe()
	defer cancel()
	<-ch

	ctx := context.Background()
	if n := store.Sweep(ctx); n != 0 {
		t.Fatalf("live sessions must survive a sweep, dropped %d", n)
	}
	if ttl := mr.TTL("quiz:session:watched"); ttl != time.Minute {
		t.Fatalf("expected watched key refreshed, got %v", ttl)
	}

	mr.FastForward(40 * time.Second)
	_ = store.Sweep(ctx)
	mr.FastForward(40 * time.Second)
	if n := store.Sweep(ctx); n != 1 {
		t.Fatalf("expected abandoned session dropped, got %d", n)
	}
	select {
	case <-abandoned.Done():
	default:
		t.Fatalf("expected abandoned session closed")
	}
	if err := abandoned.GoNext(); err != domain.ErrInvalidPhase {
		t.Fatalf("expected closed session to reject actions, got %v", err)
	}
	if _, ok := store.Get("watched"); !ok {
		t.Fatalf("watched session should stay alive")
	}
}

func TestSweepKeepsSessionsWhenRedisIsDown(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	store.Save(app.NewSession("s-1", generationtest.SampleQuiz("Go", 3)))

	mr.Close()
	if n := store.Sweep(context.Background()); n != 0 {
		t.Fatalf("expected no drops while redis is unreachable, got %d", n)
	}
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session kept")
	}
}
