package engine

// ExportItem is one question of an exported attempt.
type ExportItem struct {
	QuestionID      string `json:"questionId"`
	Question        string `json:"question"`
	Answered        bool   `json:"answered"`
	ChosenOptionID  string `json:"chosenOptionId,omitempty"`
	ChosenOption    string `json:"chosenOption,omitempty"`
	CorrectOptionID string `json:"correctOptionId"`
	CorrectOption   string `json:"correctOption"`
	Correct         bool   `json:"correct"`
	TimedOut        bool   `json:"timedOut"`
}

// AttemptExport is a plain-data record of an attempt, suitable for building
// study notes or persisting elsewhere.
type AttemptExport struct {
	Attempt   int          `json:"attempt"`
	Phase     Phase        `json:"phase"`
	Completed bool         `json:"completed"`
	Items     []ExportItem `json:"items"`
	Summary   Summary      `json:"summary"`
}

// Export returns the current attempt in question order. Questions that have
// not been finalized yet are listed with Answered set to false.
func (s *Session) Export() AttemptExport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportLocked()
}

func (s *Session) exportLocked() AttemptExport {
	out := AttemptExport{
		Attempt:   s.attempt,
		Phase:     s.phase,
		Completed: s.phase == PhaseCompleted,
		Items:     make([]ExportItem, 0, s.seq.total()),
		Summary:   s.score.summary(),
	}
	for _, q := range s.seq.questions {
		item := ExportItem{QuestionID: q.ID, Question: q.Prompt}
		if opt, ok := q.CorrectOption(); ok {
			item.CorrectOptionID = opt.ID
			item.CorrectOption = opt.Text
		}
		if a, ok := s.answers.get(q.ID); ok {
			item.Answered = true
			item.Correct = a.Correct
			item.TimedOut = a.TimedOut
			item.ChosenOptionID = a.OptionID
			if opt, ok := q.Option(a.OptionID); ok {
				item.ChosenOption = opt.Text
			}
		}
		out.Items = append(out.Items, item)
	}
	return out
}
