package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Engine sessions own live timers and cannot leave the process, so attempts
// stay in a local map; Redis carries a liveness marker per attempt with the
// owning user so other instances and operators can see who is playing.
// The marker expires ttl after the last Put or Touch.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		now:      time.Now,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Put(attempt *app.Attempt) {
	s.mu.Lock()
	s.attempts[attempt.ID] = attempt
	s.mu.Unlock()

	// best-effort liveness marker
	_ = s.mark(context.Background(), attempt)
}

func (s *AttemptStore) Get(attemptID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	return attempt, ok
}

func (s *AttemptStore) Delete(attemptID string) {
	s.mu.Lock()
	_, ok := s.attempts[attemptID]
	delete(s.attempts, attemptID)
	s.mu.Unlock()
	if ok {
		_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
	}
}

// Touch rewrites the liveness marker with the current activity time and
// extends its expiry. A marker that already expired is recreated.
func (s *AttemptStore) Touch(ctx context.Context, attemptID string) error {
	attempt, ok := s.Get(attemptID)
	if !ok {
		return domain.ErrAttemptNotFound
	}
	return s.mark(ctx, attempt)
}

func (s *AttemptStore) mark(ctx context.Context, attempt *app.Attempt) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(attempt.ID), map[string]interface{}{
		"quiz_id":    attempt.QuizID,
		"user_id":    attempt.UserID,
		"started_at": attempt.StartedAt.UTC().Format(time.RFC3339),
		"last_seen":  s.now().UTC().Format(time.RFC3339),
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(attempt.ID), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AttemptStore) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
