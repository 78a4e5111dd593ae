package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timed-quiz-service/internal/domain"
)

func TestResultStoreKeepsBestPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewResultStore(newClient(mr), time.Hour)
	ctx := context.Background()
	at := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

	results := []domain.AttemptResult{
		{AttemptID: "a1", QuizID: "quiz-1", UserID: "u1", DisplayName: "Alice", Correct: 2, Total: 3, Percentage: 67, CompletedAt: at},
		{AttemptID: "a2", QuizID: "quiz-1", UserID: "u1", DisplayName: "Alice", Correct: 1, Total: 3, Percentage: 33, CompletedAt: at.Add(time.Minute)},
		{AttemptID: "a3", QuizID: "quiz-1", UserID: "u2", DisplayName: "Bob", Correct: 3, Total: 3, Percentage: 100, CompletedAt: at},
	}
	for _, r := range results {
		require.NoError(t, store.SaveResult(ctx, r))
	}

	lb, err := store.Leaderboard(ctx, "quiz-1", 0)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "u2", lb.Entries[0].UserID)
	assert.Equal(t, 67, lb.Entries[1].Percentage, "a worse retry does not replace the best result")

	for _, id := range []string{"a1", "a2", "a3"} {
		assert.True(t, mr.Exists("quiz:result:"+id), "every attempt is kept")
	}
	assert.Equal(t, time.Hour, mr.TTL("quiz:result:a2"))
}

func TestResultStoreTieGoesToEarlierCompletion(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewResultStore(newClient(mr), 0)
	ctx := context.Background()
	at := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveResult(ctx, domain.AttemptResult{AttemptID: "late", QuizID: "quiz-1", UserID: "u1", Percentage: 50, CompletedAt: at.Add(time.Minute)}))
	require.NoError(t, store.SaveResult(ctx, domain.AttemptResult{AttemptID: "early", QuizID: "quiz-1", UserID: "u1", Percentage: 50, CompletedAt: at}))

	lb, err := store.Leaderboard(ctx, "quiz-1", 0)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 1)
	assert.True(t, lb.Entries[0].CompletedAt.Equal(at))
}
