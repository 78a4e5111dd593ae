package domain

import (
	"sort"
	"time"
)

// BuildLeaderboard keeps the best result per user and orders entries by
// percentage desc, then earliest completion, then display name.
func BuildLeaderboard(quizID string, results []AttemptResult, limit int, now time.Time) Leaderboard {
	best := make(map[string]AttemptResult, len(results))
	for _, r := range results {
		if r.QuizID != quizID {
			continue
		}
		cur, ok := best[r.UserID]
		if !ok || r.Outranks(cur) {
			best[r.UserID] = r
		}
	}

	entries := make([]LeaderboardEntry, 0, len(best))
	for _, r := range best {
		entries = append(entries, LeaderboardEntry{
			UserID:      r.UserID,
			DisplayName: r.DisplayName,
			Correct:     r.Correct,
			Total:       r.Total,
			Percentage:  r.Percentage,
			CompletedAt: r.CompletedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Percentage != entries[j].Percentage {
			return entries[i].Percentage > entries[j].Percentage
		}
		if !entries[i].CompletedAt.Equal(entries[j].CompletedAt) {
			return entries[i].CompletedAt.Before(entries[j].CompletedAt)
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return Leaderboard{QuizID: quizID, Entries: entries, UpdatedAt: now}
}

// Outranks reports whether r is a better result than other: a higher
// percentage, or the same percentage reached earlier.
func (r AttemptResult) Outranks(other AttemptResult) bool {
	if r.Percentage != other.Percentage {
		return r.Percentage > other.Percentage
	}
	return r.CompletedAt.Before(other.CompletedAt)
}
