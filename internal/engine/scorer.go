package engine

// Summary is the score of an attempt.
type Summary struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Percentage returns correct/total as a whole percent rounded half up, or 0
// for an empty sequence.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (total * 2)
}

type scorer struct {
	correct int
	total   int
}

func newScorer(total int) *scorer {
	return &scorer{total: total}
}

func (s *scorer) record(correct bool) {
	if correct {
		s.correct++
	}
}

func (s *scorer) reset() {
	s.correct = 0
}

func (s *scorer) summary() Summary {
	return Summary{
		Correct:    s.correct,
		Total:      s.total,
		Percentage: Percentage(s.correct, s.total),
	}
}
