package memory

import (
	"context"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

// ResultStore keeps completed attempt results in memory.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.AttemptResult
	now     func() time.Time
}

func NewResultStore() *ResultStore {
	return &ResultStore{now: time.Now}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.AttemptResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *ResultStore) Leaderboard(_ context.Context, quizID string, limit int) (domain.Leaderboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.BuildLeaderboard(quizID, s.results, limit, s.now()), nil
}

// Results returns a copy of every saved result.
func (s *ResultStore) Results() []domain.AttemptResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AttemptResult, len(s.results))
	copy(out, s.results)
	return out
}
