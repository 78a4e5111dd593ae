package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLeaderboardKeepsBestPerUser(t *testing.T) {
	base := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	results := []AttemptResult{
		{QuizID: "quiz-1", UserID: "u1", DisplayName: "Alice", Percentage: 33, CompletedAt: base},
		{QuizID: "quiz-1", UserID: "u1", DisplayName: "Alice", Percentage: 100, CompletedAt: base.Add(time.Minute)},
		{QuizID: "quiz-1", UserID: "u2", DisplayName: "Bob", Percentage: 100, CompletedAt: base.Add(30 * time.Second)},
		{QuizID: "quiz-1", UserID: "u3", DisplayName: "Carol", Percentage: 67, CompletedAt: base},
		{QuizID: "quiz-2", UserID: "u4", DisplayName: "Dave", Percentage: 100, CompletedAt: base},
	}

	lb := BuildLeaderboard("quiz-1", results, 0, base)
	require.Len(t, lb.Entries, 3)
	assert.Equal(t, "u2", lb.Entries[0].UserID, "earlier completion wins the tie")
	assert.Equal(t, "u1", lb.Entries[1].UserID)
	assert.Equal(t, 100, lb.Entries[1].Percentage)
	assert.Equal(t, "u3", lb.Entries[2].UserID)

	limited := BuildLeaderboard("quiz-1", results, 1, base)
	require.Len(t, limited.Entries, 1)
	assert.Equal(t, "u2", limited.Entries[0].UserID)
}

func TestOutranks(t *testing.T) {
	at := time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b AttemptResult
		want bool
	}{
		{"higher percentage", AttemptResult{Percentage: 80, CompletedAt: at.Add(time.Hour)}, AttemptResult{Percentage: 60, CompletedAt: at}, true},
		{"lower percentage", AttemptResult{Percentage: 60, CompletedAt: at}, AttemptResult{Percentage: 80, CompletedAt: at}, false},
		{"tie reached earlier", AttemptResult{Percentage: 50, CompletedAt: at}, AttemptResult{Percentage: 50, CompletedAt: at.Add(time.Minute)}, true},
		{"identical", AttemptResult{Percentage: 50, CompletedAt: at}, AttemptResult{Percentage: 50, CompletedAt: at}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Outranks(tt.b))
		})
	}
}
