package domain

import "time"

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id" validate:"required"`
	Text    string `json:"text" validate:"required"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string   `json:"id" validate:"required"`
	Prompt  string   `json:"prompt" validate:"required"`
	Options []Option `json:"options" validate:"required,min=2,unique=ID,dive"`
}

// CorrectOption returns the option flagged correct, if any.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, true
		}
	}
	return Option{}, false
}

// Option looks up an option by ID.
func (q Question) Option(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// Quiz is a collection of questions.
type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	TimeLimitSeconds int        `json:"timeLimitSeconds,omitempty"` // falls back to the configured limit if zero
	Questions        []Question `json:"questions"`
}

// AttemptResult is the persisted outcome of a completed attempt.
type AttemptResult struct {
	AttemptID   string    `json:"attemptId"`
	QuizID      string    `json:"quizId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
	Percentage  int       `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
}

// LeaderboardEntry is a snapshot-friendly view of a user's best attempt.
type LeaderboardEntry struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
	Percentage  int       `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
}

// Leaderboard captures the ordered ranking for a quiz.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
