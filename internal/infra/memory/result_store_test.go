package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timed-quiz-service/internal/domain"
)

func TestResultStoreLeaderboard(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()
	at := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveResult(ctx, domain.AttemptResult{AttemptID: "a1", QuizID: "quiz-1", UserID: "u1", DisplayName: "Alice", Correct: 1, Total: 3, Percentage: 33, CompletedAt: at}))
	require.NoError(t, store.SaveResult(ctx, domain.AttemptResult{AttemptID: "a2", QuizID: "quiz-1", UserID: "u2", DisplayName: "Bob", Correct: 3, Total: 3, Percentage: 100, CompletedAt: at}))

	lb, err := store.Leaderboard(ctx, "quiz-1", 10)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "u2", lb.Entries[0].UserID)
	assert.Len(t, store.Results(), 2)
}
