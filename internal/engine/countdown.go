package engine

import "time"

const tickInterval = time.Second

// countdown is the per-question time budget. Every arm or stop starts a new
// generation; callbacks scheduled under an older generation are ignored.
// It is not safe for concurrent use and relies on the owning Session's lock.
type countdown struct {
	clock     Clock
	limit     int
	remaining int
	gen       uint64
	running   bool
	pending   Timer
	onTick    func(gen uint64)
}

func newCountdown(clock Clock, limit int, onTick func(gen uint64)) *countdown {
	return &countdown{clock: clock, limit: limit, remaining: limit, onTick: onTick}
}

// arm resets the budget for a new question. It reports true when the budget
// is already exhausted, in which case nothing is scheduled.
func (c *countdown) arm() (expired bool) {
	c.stop()
	if c.limit <= 0 {
		c.remaining = 0
		return true
	}
	c.remaining = c.limit
	c.running = true
	c.schedule()
	return false
}

// tick consumes one second for generation gen. ok is false when the callback
// is stale; expired is reported at most once per generation.
func (c *countdown) tick(gen uint64) (remaining int, expired, ok bool) {
	if gen != c.gen || !c.running {
		return c.remaining, false, false
	}
	c.pending = nil
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
		return 0, true, true
	}
	c.schedule()
	return c.remaining, false, true
}

// stop cancels the pending callback and invalidates the current generation.
// Calling it repeatedly is harmless.
func (c *countdown) stop() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.running = false
	c.gen++
}

func (c *countdown) generation() uint64 {
	return c.gen
}

func (c *countdown) schedule() {
	gen := c.gen
	c.pending = c.clock.AfterFunc(tickInterval, func() { c.onTick(gen) })
}
