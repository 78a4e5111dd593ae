package engine

import "timed-quiz-service/internal/domain"

// Phase is the state of a session.
type Phase string

const (
	PhaseAnswering Phase = "answering"
	PhaseFeedback  Phase = "feedback"
	PhaseCompleted Phase = "completed"
	PhaseClosed    Phase = "closed"
)

// EventType names a session event.
type EventType string

const (
	EventQuestion  EventType = "question"
	EventTick      EventType = "tick"
	EventFeedback  EventType = "feedback"
	EventCompleted EventType = "completed"
	EventRestarted EventType = "restarted"
	EventClosed    EventType = "closed"
)

// OptionView is an option without its correctness flag.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView is what a player sees while answering.
type QuestionView struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Options []OptionView `json:"options"`
}

func viewOf(q domain.Question) *QuestionView {
	opts := make([]OptionView, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, OptionView{ID: o.ID, Text: o.Text})
	}
	return &QuestionView{ID: q.ID, Prompt: q.Prompt, Options: opts}
}

// Feedback reveals the outcome of the question just finalized.
type Feedback struct {
	QuestionID      string `json:"questionId"`
	OptionID        string `json:"optionId"`
	CorrectOptionID string `json:"correctOptionId"`
	Correct         bool   `json:"correct"`
	TimedOut        bool   `json:"timedOut"`
}

// Event is emitted to the session listener on every transition and tick.
type Event struct {
	Type      EventType     `json:"type"`
	Attempt   int           `json:"attempt"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	Remaining int           `json:"remaining"`
	Question  *QuestionView `json:"question,omitempty"`
	Feedback  *Feedback     `json:"feedback,omitempty"`
	Summary   *Summary      `json:"summary,omitempty"`
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	Phase     Phase             `json:"phase"`
	Attempt   int               `json:"attempt"`
	Index     int               `json:"index"`
	Total     int               `json:"total"`
	Remaining int               `json:"remaining"`
	Question  *QuestionView     `json:"question,omitempty"`
	Staged    string            `json:"staged,omitempty"`
	Feedback  *Feedback         `json:"feedback,omitempty"`
	Summary   Summary           `json:"summary"`
	Answers   map[string]string `json:"answers"`
}
