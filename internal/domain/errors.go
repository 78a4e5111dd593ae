package domain

import "errors"

var (
	// ErrConfiguration is returned when a question sequence cannot start an attempt.
	ErrConfiguration = errors.New("invalid quiz configuration")
	// ErrOutOfRange indicates there is no active question to serve.
	ErrOutOfRange = errors.New("no active question")
	// ErrInvalidSelection indicates an option ID that does not belong to the active question.
	ErrInvalidSelection = errors.New("option not found on current question")
	// ErrDuplicateSubmission is returned when the active question is already finalized.
	ErrDuplicateSubmission = errors.New("question already answered")
	// ErrNoSelection is returned by submit when no option has been staged.
	ErrNoSelection = errors.New("no option selected")
	// ErrSessionClosed is returned for any operation on an abandoned session.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrInvalidTransition is returned when an operation is not allowed in the current phase.
	ErrInvalidTransition = errors.New("operation not allowed in current phase")

	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when an attempt ID is unknown to the store.
	ErrAttemptNotFound = errors.New("attempt not found")
)

// IsInputError reports whether err is a recoverable input error that hosts
// should absorb instead of surfacing to the end user.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidSelection) ||
		errors.Is(err, ErrDuplicateSubmission) ||
		errors.Is(err, ErrNoSelection) ||
		errors.Is(err, ErrInvalidTransition)
}
