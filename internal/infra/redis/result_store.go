package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/domain"
)

// ResultStore keeps completed results in Redis.
// Every result:        SET quiz:result:{attemptID} <json>
// Best result per user: HSET quiz:{quizID}:best {userID} <json>
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl, now: time.Now}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.AttemptResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.client.Set(ctx, s.resultKey(result.AttemptID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	bestKey := s.bestKey(result.QuizID)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, bestKey, result.UserID).Bytes()
		if err != nil && !isMiss(err) {
			return err
		}
		if err == nil {
			var current domain.AttemptResult
			if json.Unmarshal(raw, &current) == nil && !result.Outranks(current) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, bestKey, result.UserID, data)
			return nil
		})
		return err
	}, bestKey)
}

func (s *ResultStore) Leaderboard(ctx context.Context, quizID string, limit int) (domain.Leaderboard, error) {
	raw, err := s.client.HGetAll(ctx, s.bestKey(quizID)).Result()
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load leaderboard: %w", err)
	}
	results := make([]domain.AttemptResult, 0, len(raw))
	for _, v := range raw {
		var r domain.AttemptResult
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			continue
		}
		results = append(results, r)
	}
	return domain.BuildLeaderboard(quizID, results, limit, s.now()), nil
}

func (s *ResultStore) resultKey(attemptID string) string {
	return "quiz:result:" + attemptID
}

func (s *ResultStore) bestKey(quizID string) string {
	return "quiz:" + quizID + ":best"
}
