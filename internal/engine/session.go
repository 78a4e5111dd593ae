package engine

import (
	"log/slog"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

const (
	// DefaultTimeLimit is the per-question budget in seconds.
	DefaultTimeLimit = 30
	// DefaultFeedbackDelay is how long feedback stays visible before the next question.
	DefaultFeedbackDelay = 2 * time.Second
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTimeLimit sets the per-question budget in seconds. Zero or less
// finalizes every question as soon as it is shown.
func WithTimeLimit(seconds int) SessionOption {
	return func(s *Session) { s.timeLimit = seconds }
}

// WithFeedbackDelay sets the feedback display time. Zero or less disables the
// automatic advance; the host must call Advance.
func WithFeedbackDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.feedbackDelay = d }
}

// WithClock replaces the system clock.
func WithClock(c Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithOnComplete registers the completion callback. It runs once per completed
// attempt, outside the session lock.
func WithOnComplete(fn func(correct, total int)) SessionOption {
	return func(s *Session) { s.onComplete = fn }
}

// WithCompletionExport registers a callback that receives the export of each
// completed attempt. The export is taken when the attempt completes, so a
// restart racing the callback cannot change it. Like the completion callback
// it runs outside the session lock.
func WithCompletionExport(fn func(AttemptExport)) SessionOption {
	return func(s *Session) { s.onExport = fn }
}

// WithListener registers an event listener. It is called with the session lock
// held and must neither block nor call back into the session.
func WithListener(fn func(Event)) SessionOption {
	return func(s *Session) { s.listener = fn }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// Session is one player's run through a fixed question sequence.
type Session struct {
	mu sync.Mutex

	timeLimit     int
	feedbackDelay time.Duration
	clock         Clock
	onComplete    func(correct, total int)
	onExport      func(AttemptExport)
	listener      func(Event)
	logger        *slog.Logger

	seq     *sequencer
	timer   *countdown
	answers *recorder
	score   *scorer

	phase        Phase
	attempt      int
	staged       string
	feedback     *Feedback
	advanceTimer Timer
}

// New validates questions and starts the first attempt on question 0. An
// invalid sequence is rejected with an error wrapping domain.ErrConfiguration.
func New(questions []domain.Question, opts ...SessionOption) (*Session, error) {
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}

	s := &Session{
		timeLimit:     DefaultTimeLimit,
		feedbackDelay: DefaultFeedbackDelay,
		clock:         SystemClock,
		logger:        slog.New(slog.DiscardHandler),
		seq:           newSequencer(questions),
		answers:       newRecorder(),
		score:         newScorer(len(questions)),
		attempt:       1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timer = newCountdown(s.clock, s.timeLimit, s.onTick)

	s.mu.Lock()
	s.phase = PhaseAnswering
	s.activateLocked()
	s.mu.Unlock()
	return s, nil
}

// Current returns the active question.
func (s *Session) Current() (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return domain.Question{}, domain.ErrSessionClosed
	}
	return s.seq.current()
}

// Select stages optionID for the active question without finalizing it.
func (s *Session) Select(optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.answerableLocked()
	if err != nil {
		return err
	}
	if _, ok := q.Option(optionID); !ok {
		return domain.ErrInvalidSelection
	}
	s.staged = optionID
	return nil
}

// Submit finalizes the staged option. It returns domain.ErrNoSelection when
// nothing is staged and domain.ErrDuplicateSubmission once the question is
// already finalized; neither mutates the session.
func (s *Session) Submit() (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.answerableLocked(); err != nil {
		return Feedback{}, err
	}
	if s.staged == "" {
		return Feedback{}, domain.ErrNoSelection
	}
	return s.finalizeLocked(s.staged, false)
}

// Answer stages and submits optionID in one step.
func (s *Session) Answer(optionID string) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.answerableLocked()
	if err != nil {
		return Feedback{}, err
	}
	if _, ok := q.Option(optionID); !ok {
		return Feedback{}, domain.ErrInvalidSelection
	}
	s.staged = optionID
	return s.finalizeLocked(optionID, false)
}

// Advance leaves the feedback phase immediately.
func (s *Session) Advance() error {
	s.mu.Lock()
	switch s.phase {
	case PhaseClosed:
		s.mu.Unlock()
		return domain.ErrSessionClosed
	case PhaseFeedback:
	default:
		s.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	done, export := s.advanceLocked()
	s.mu.Unlock()

	if done {
		s.complete(export)
	}
	return nil
}

// Restart discards the current attempt, whatever its phase, and starts a new
// one on question 0.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed {
		return domain.ErrSessionClosed
	}
	s.cancelAdvanceLocked()
	s.timer.stop()
	s.seq.reset()
	s.answers.reset()
	s.score.reset()
	s.staged = ""
	s.feedback = nil
	s.attempt++
	s.phase = PhaseAnswering

	s.logger.Debug("attempt restarted", "attempt", s.attempt)
	s.emitLocked(Event{Type: EventRestarted})
	s.activateLocked()
	return nil
}

// Close abandons the session. Pending callbacks are cancelled and the
// completion callback is never invoked afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseClosed {
		return
	}
	s.cancelAdvanceLocked()
	s.timer.stop()
	s.phase = PhaseClosed
	s.emitLocked(Event{Type: EventClosed})
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Summary returns the running score.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score.summary()
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Phase:     s.phase,
		Attempt:   s.attempt,
		Index:     s.seq.index,
		Total:     s.seq.total(),
		Remaining: s.timer.remaining,
		Staged:    s.staged,
		Summary:   s.score.summary(),
		Answers:   s.answers.selections(),
	}
	if s.phase == PhaseAnswering || s.phase == PhaseFeedback {
		if q, err := s.seq.current(); err == nil {
			snap.Question = viewOf(q)
		}
	}
	if s.feedback != nil {
		fb := *s.feedback
		snap.Feedback = &fb
	}
	return snap
}

func (s *Session) answerableLocked() (domain.Question, error) {
	switch s.phase {
	case PhaseClosed:
		return domain.Question{}, domain.ErrSessionClosed
	case PhaseFeedback:
		return domain.Question{}, domain.ErrDuplicateSubmission
	}
	return s.seq.current()
}

// activateLocked shows the question at the current index and arms its countdown.
func (s *Session) activateLocked() {
	q, err := s.seq.current()
	if err != nil {
		return
	}
	expired := s.timer.arm()
	s.emitLocked(Event{Type: EventQuestion, Question: viewOf(q)})
	if expired {
		s.logger.Debug("question expired on arm", "question_id", q.ID)
		_, _ = s.finalizeLocked("", true)
	}
}

func (s *Session) finalizeLocked(optionID string, timedOut bool) (Feedback, error) {
	q, err := s.seq.current()
	if err != nil {
		return Feedback{}, err
	}
	correctOpt, _ := q.CorrectOption()
	correct := optionID != "" && optionID == correctOpt.ID

	if err := s.answers.record(Answer{
		QuestionID: q.ID,
		OptionID:   optionID,
		Correct:    correct,
		TimedOut:   timedOut,
		At:         s.clock.Now(),
	}); err != nil {
		return Feedback{}, err
	}
	s.timer.stop()
	s.score.record(correct)

	fb := Feedback{
		QuestionID:      q.ID,
		OptionID:        optionID,
		CorrectOptionID: correctOpt.ID,
		Correct:         correct,
		TimedOut:        timedOut,
	}
	s.feedback = &fb
	s.phase = PhaseFeedback

	s.logger.Debug("question finalized",
		"attempt", s.attempt,
		"question_id", q.ID,
		"option_id", optionID,
		"correct", correct,
		"timed_out", timedOut)
	s.emitLocked(Event{Type: EventFeedback, Feedback: &fb})
	s.scheduleAdvanceLocked()
	return fb, nil
}

func (s *Session) scheduleAdvanceLocked() {
	if s.feedbackDelay <= 0 {
		return
	}
	gen := s.timer.generation()
	s.advanceTimer = s.clock.AfterFunc(s.feedbackDelay, func() { s.autoAdvance(gen) })
}

func (s *Session) cancelAdvanceLocked() {
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
}

func (s *Session) autoAdvance(gen uint64) {
	s.mu.Lock()
	if s.phase != PhaseFeedback || gen != s.timer.generation() {
		s.mu.Unlock()
		return
	}
	s.advanceTimer = nil
	done, export := s.advanceLocked()
	s.mu.Unlock()

	if done {
		s.complete(export)
	}
}

// advanceLocked moves past the feedback phase. It reports true, with the
// export of the finished attempt, when the attempt has just completed.
func (s *Session) advanceLocked() (bool, AttemptExport) {
	s.cancelAdvanceLocked()
	s.staged = ""
	s.feedback = nil

	if !s.seq.advance() {
		s.timer.stop()
		s.phase = PhaseCompleted
		summary := s.score.summary()
		s.logger.Debug("attempt completed",
			"attempt", s.attempt,
			"correct", summary.Correct,
			"total", summary.Total)
		s.emitLocked(Event{Type: EventCompleted, Summary: &summary})
		return true, s.exportLocked()
	}

	s.phase = PhaseAnswering
	s.activateLocked()
	return false, AttemptExport{}
}

func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseAnswering {
		return
	}
	remaining, expired, ok := s.timer.tick(gen)
	if !ok {
		return
	}
	if expired {
		_, _ = s.finalizeLocked("", true)
		return
	}
	s.emitLocked(Event{Type: EventTick, Remaining: remaining})
}

func (s *Session) complete(export AttemptExport) {
	if s.onComplete != nil {
		s.onComplete(export.Summary.Correct, export.Summary.Total)
	}
	if s.onExport != nil {
		s.onExport(export)
	}
}

func (s *Session) emitLocked(ev Event) {
	if s.listener == nil {
		return
	}
	ev.Attempt = s.attempt
	ev.Index = s.seq.index
	ev.Total = s.seq.total()
	if ev.Type != EventTick {
		ev.Remaining = s.timer.remaining
	}
	s.listener(ev)
}
