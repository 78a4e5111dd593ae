package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

func TestAttemptStoreSetsAndClearsKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewAttemptStore(newClient(mr), time.Minute)

	store.Put(&app.Attempt{ID: "attempt-1", QuizID: "quiz-1", UserID: "u1", StartedAt: time.Now()})
	if !mr.Exists("quiz:attempt:attempt-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got := mr.HGet("quiz:attempt:attempt-1", "user_id"); got != "u1" {
		t.Fatalf("expected owner u1, got %q", got)
	}
	if _, ok := store.Get("attempt-1"); !ok {
		t.Fatalf("expected attempt in local map")
	}

	mr.FastForward(30 * time.Second)
	if err := store.Touch(context.Background(), "attempt-1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL("quiz:attempt:attempt-1"); ttl != time.Minute {
		t.Fatalf("expected refreshed ttl, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if mr.Exists("quiz:attempt:attempt-1") {
		t.Fatalf("expected marker to expire without activity")
	}
	if err := store.Touch(context.Background(), "attempt-1"); err != nil {
		t.Fatalf("touch after expiry: %v", err)
	}
	if got := mr.HGet("quiz:attempt:attempt-1", "quiz_id"); got != "quiz-1" {
		t.Fatalf("expected marker recreated, got quiz_id %q", got)
	}
	if mr.HGet("quiz:attempt:attempt-1", "last_seen") == "" {
		t.Fatalf("expected last_seen to be recorded")
	}

	store.Delete("attempt-1")
	if err := store.Touch(context.Background(), "attempt-1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
	if mr.Exists("quiz:attempt:attempt-1") {
		t.Fatalf("expected redis key to be removed")
	}
}
