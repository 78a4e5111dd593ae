package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/engine"
)

// AttemptRepository abstracts where live attempts are kept (in-memory, Redis-marked, etc).
type AttemptRepository interface {
	Put(attempt *Attempt)
	Get(attemptID string) (*Attempt, bool)
	Delete(attemptID string)
	// Touch records player activity and keeps the attempt's liveness fresh.
	Touch(ctx context.Context, attemptID string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResultRepository persists completed attempts and ranks them.
type ResultRepository interface {
	SaveResult(ctx context.Context, result domain.AttemptResult) error
	Leaderboard(ctx context.Context, quizID string, limit int) (domain.Leaderboard, error)
}

// CompletedEvent is published once per completed attempt.
type CompletedEvent struct {
	Result domain.AttemptResult `json:"result"`
	Export engine.AttemptExport `json:"export"`
}

// EventPublisher forwards completion events to downstream consumers.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, event CompletedEvent) error
}

// Option configures a QuizService.
type Option func(*QuizService)

// WithPublisher sets the completion event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(s *QuizService) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *QuizService) { s.logger = l }
}

// WithTimeLimit sets the default per-question limit in seconds for quizzes
// that do not carry their own.
func WithTimeLimit(seconds int) Option {
	return func(s *QuizService) { s.timeLimit = seconds }
}

// WithFeedbackDelay sets how long feedback is shown; zero or less means the
// client advances manually.
func WithFeedbackDelay(d time.Duration) Option {
	return func(s *QuizService) { s.feedbackDelay = d }
}

// WithClock replaces the clock used by sessions and timestamps.
func WithClock(c engine.Clock) Option {
	return func(s *QuizService) { s.clock = c }
}

// QuizService contains the timed quiz use cases. Every attempt owns an
// independent engine session; nothing is shared between attempts.
type QuizService struct {
	attempts  AttemptRepository
	quizzes   QuizRepository
	results   ResultRepository
	publisher EventPublisher
	logger    *slog.Logger

	timeLimit     int
	feedbackDelay time.Duration
	clock         engine.Clock
	saveTimeout   time.Duration
}

func NewQuizService(attempts AttemptRepository, quizzes QuizRepository, results ResultRepository, opts ...Option) *QuizService {
	s := &QuizService{
		attempts:      attempts,
		quizzes:       quizzes,
		results:       results,
		logger:        slog.New(slog.DiscardHandler),
		timeLimit:     engine.DefaultTimeLimit,
		feedbackDelay: engine.DefaultFeedbackDelay,
		clock:         engine.SystemClock,
		saveTimeout:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartAttempt loads the quiz and starts a fresh attempt on its first question.
func (s *QuizService) StartAttempt(ctx context.Context, quizID, userID, displayName string) (*Attempt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	limit := s.timeLimit
	if quiz.TimeLimitSeconds > 0 {
		limit = quiz.TimeLimitSeconds
	}

	attempt := newAttempt(uuid.NewString(), quizID, userID, displayName, s.clock.Now())
	logger := s.logger.With("attempt_id", attempt.ID, "quiz_id", quizID, "user_id", userID)

	session, err := engine.New(quiz.Questions,
		engine.WithTimeLimit(limit),
		engine.WithFeedbackDelay(s.feedbackDelay),
		engine.WithClock(s.clock),
		engine.WithLogger(logger),
		engine.WithListener(attempt.broadcast),
		engine.WithCompletionExport(func(export engine.AttemptExport) {
			s.completed(attempt, export, logger)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("start attempt for quiz %s: %w", quizID, err)
	}
	attempt.setSession(session)
	s.attempts.Put(attempt)

	logger.Info("attempt started", "questions", len(quiz.Questions), "time_limit", limit)
	return attempt, nil
}

// Select stages an option on the attempt's active question.
func (s *QuizService) Select(_ context.Context, attemptID, optionID string) error {
	session, err := s.session(attemptID)
	if err != nil {
		return err
	}
	return session.Select(optionID)
}

// Submit finalizes the staged option.
func (s *QuizService) Submit(_ context.Context, attemptID string) (engine.Feedback, error) {
	session, err := s.session(attemptID)
	if err != nil {
		return engine.Feedback{}, err
	}
	return session.Submit()
}

// Answer stages and submits optionID.
func (s *QuizService) Answer(_ context.Context, attemptID, optionID string) (engine.Feedback, error) {
	session, err := s.session(attemptID)
	if err != nil {
		return engine.Feedback{}, err
	}
	return session.Answer(optionID)
}

// Advance skips the remaining feedback display time.
func (s *QuizService) Advance(_ context.Context, attemptID string) error {
	session, err := s.session(attemptID)
	if err != nil {
		return err
	}
	return session.Advance()
}

// Restart discards the attempt's progress and starts over.
func (s *QuizService) Restart(_ context.Context, attemptID string) error {
	session, err := s.session(attemptID)
	if err != nil {
		return err
	}
	return session.Restart()
}

// Close abandons the attempt and forgets it. Closing an unknown attempt is a no-op.
func (s *QuizService) Close(_ context.Context, attemptID string) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return
	}
	if session := attempt.Session(); session != nil {
		session.Close()
	}
	attempt.closeSubscribers()
	s.attempts.Delete(attemptID)
	s.logger.Debug("attempt closed", "attempt_id", attemptID)
}

// KeepAlive marks the attempt as still being played.
func (s *QuizService) KeepAlive(ctx context.Context, attemptID string) error {
	if _, ok := s.attempts.Get(attemptID); !ok {
		return domain.ErrAttemptNotFound
	}
	return s.attempts.Touch(ctx, attemptID)
}

// Snapshot returns the attempt's current state.
func (s *QuizService) Snapshot(_ context.Context, attemptID string) (engine.Snapshot, error) {
	session, err := s.session(attemptID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Export returns the structured record of the attempt so far.
func (s *QuizService) Export(_ context.Context, attemptID string) (*Attempt, engine.AttemptExport, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, engine.AttemptExport{}, domain.ErrAttemptNotFound
	}
	return attempt, attempt.Session().Export(), nil
}

// Subscribe returns a channel that receives the attempt's events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, attemptID string) (<-chan engine.Event, func(), error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, nil, domain.ErrAttemptNotFound
	}
	ch, cancel := attempt.subscribe()
	return ch, cancel, nil
}

// Leaderboard ranks the best completed attempt of every user on a quiz.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string, limit int) (domain.Leaderboard, error) {
	return s.results.Leaderboard(ctx, quizID, limit)
}

func (s *QuizService) session(attemptID string) (*engine.Session, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt.Session(), nil
}

// completed runs outside the session lock, on whichever goroutine finished
// the attempt. export was captured when the attempt completed.
func (s *QuizService) completed(attempt *Attempt, export engine.AttemptExport, logger *slog.Logger) {
	correct, total := export.Summary.Correct, export.Summary.Total
	result := domain.AttemptResult{
		AttemptID:   attempt.ID,
		QuizID:      attempt.QuizID,
		UserID:      attempt.UserID,
		DisplayName: attempt.DisplayName,
		Correct:     correct,
		Total:       total,
		Percentage:  export.Summary.Percentage,
		CompletedAt: s.clock.Now(),
	}
	logger.Info("attempt completed", "attempt", export.Attempt, "correct", correct, "total", total, "percentage", result.Percentage)

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	if err := s.results.SaveResult(ctx, result); err != nil {
		logger.Error("save attempt result", "error", err)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCompleted(ctx, CompletedEvent{Result: result, Export: export}); err != nil {
		logger.Error("publish attempt completed", "error", err)
	}
}
