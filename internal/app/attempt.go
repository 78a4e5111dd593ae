package app

import (
	"sync"
	"time"

	"timed-quiz-service/internal/engine"
)

// Attempt binds one engine session to the player who owns it and fans its
// events out to subscribers.
type Attempt struct {
	ID          string
	QuizID      string
	UserID      string
	DisplayName string
	StartedAt   time.Time

	mu          sync.Mutex
	session     *engine.Session
	subscribers map[chan engine.Event]struct{}
	closed      bool
}

func newAttempt(id, quizID, userID, displayName string, startedAt time.Time) *Attempt {
	return &Attempt{
		ID:          id,
		QuizID:      quizID,
		UserID:      userID,
		DisplayName: displayName,
		StartedAt:   startedAt,
		subscribers: make(map[chan engine.Event]struct{}),
	}
}

// Session returns the underlying engine session.
func (a *Attempt) Session() *engine.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *Attempt) setSession(s *engine.Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

func (a *Attempt) subscribe() (<-chan engine.Event, func()) {
	ch := make(chan engine.Event, 16)

	a.mu.Lock()
	if a.closed {
		close(ch)
		a.mu.Unlock()
		return ch, func() {}
	}
	a.subscribers[ch] = struct{}{}
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

// broadcast is the session listener. It runs under the session lock, so it
// only performs non-blocking sends.
func (a *Attempt) broadcast(ev engine.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ch := range a.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow consumer: drop the oldest queued event to make room.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (a *Attempt) closeSubscribers() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
}
