package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"timed-quiz-service/internal/domain"
)

// ResultStore persists completed attempts in attempt_results.
type ResultStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool, now: time.Now}
}

func (s *ResultStore) SaveResult(ctx context.Context, r domain.AttemptResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attempt_results
			(attempt_id, quiz_id, user_id, display_name, correct, total, percentage, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (attempt_id) DO NOTHING`,
		r.AttemptID, r.QuizID, r.UserID, r.DisplayName, r.Correct, r.Total, r.Percentage, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// Leaderboard selects each user's best attempt; ordering and limit follow
// domain.BuildLeaderboard.
func (s *ResultStore) Leaderboard(ctx context.Context, quizID string, limit int) (domain.Leaderboard, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (user_id)
			attempt_id, quiz_id, user_id, display_name, correct, total, percentage, completed_at
		FROM attempt_results
		WHERE quiz_id = $1
		ORDER BY user_id, percentage DESC, completed_at ASC`, quizID)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var results []domain.AttemptResult
	for rows.Next() {
		var r domain.AttemptResult
		if err := rows.Scan(&r.AttemptID, &r.QuizID, &r.UserID, &r.DisplayName, &r.Correct, &r.Total, &r.Percentage, &r.CompletedAt); err != nil {
			return domain.Leaderboard{}, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return domain.Leaderboard{}, fmt.Errorf("iterate results: %w", err)
	}
	return domain.BuildLeaderboard(quizID, results, limit, s.now()), nil
}
