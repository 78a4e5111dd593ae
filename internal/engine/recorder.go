package engine

import (
	"time"

	"timed-quiz-service/internal/domain"
)

// Answer is a finalized response to one question. OptionID is empty when the
// question timed out without a submission.
type Answer struct {
	QuestionID string    `json:"questionId"`
	OptionID   string    `json:"optionId"`
	Correct    bool      `json:"correct"`
	TimedOut   bool      `json:"timedOut"`
	At         time.Time `json:"at"`
}

// recorder is the answer record of one attempt. Entries are write-once.
type recorder struct {
	entries map[string]Answer
}

func newRecorder() *recorder {
	return &recorder{entries: make(map[string]Answer)}
}

func (r *recorder) record(a Answer) error {
	if _, ok := r.entries[a.QuestionID]; ok {
		return domain.ErrDuplicateSubmission
	}
	r.entries[a.QuestionID] = a
	return nil
}

func (r *recorder) get(questionID string) (Answer, bool) {
	a, ok := r.entries[questionID]
	return a, ok
}

// reset discards the whole record; a new attempt never sees old entries.
func (r *recorder) reset() {
	r.entries = make(map[string]Answer)
}

func (r *recorder) selections() map[string]string {
	out := make(map[string]string, len(r.entries))
	for id, a := range r.entries {
		out[id] = a.OptionID
	}
	return out
}
