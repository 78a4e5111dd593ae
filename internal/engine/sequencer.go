package engine

import "timed-quiz-service/internal/domain"

// sequencer walks an immutable, ordered list of questions.
type sequencer struct {
	questions []domain.Question
	index     int
}

func newSequencer(questions []domain.Question) *sequencer {
	cp := make([]domain.Question, len(questions))
	copy(cp, questions)
	return &sequencer{questions: cp}
}

func (s *sequencer) current() (domain.Question, error) {
	if s.index < 0 || s.index >= len(s.questions) {
		return domain.Question{}, domain.ErrOutOfRange
	}
	return s.questions[s.index], nil
}

// advance moves to the next question. It returns false when the sequence is
// exhausted; the index is then past the end and current reports ErrOutOfRange.
func (s *sequencer) advance() bool {
	if s.index < len(s.questions) {
		s.index++
	}
	return s.index < len(s.questions)
}

func (s *sequencer) reset() {
	s.index = 0
}

func (s *sequencer) total() int {
	return len(s.questions)
}
