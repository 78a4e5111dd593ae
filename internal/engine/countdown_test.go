package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownExpiresOnceAfterLimit(t *testing.T) {
	clock := newManualClock()
	var c *countdown
	expiries := 0
	ticks := 0
	c = newCountdown(clock, 3, func(gen uint64) {
		_, expired, ok := c.tick(gen)
		if !ok {
			return
		}
		ticks++
		if expired {
			expiries++
		}
	})

	require.False(t, c.arm())
	clock.Advance(2 * time.Second)
	assert.Equal(t, 0, expiries)
	assert.Equal(t, 1, c.remaining)

	clock.Advance(10 * time.Second)
	assert.Equal(t, 1, expiries)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 0, clock.Pending())
}

func TestCountdownIgnoresStaleGeneration(t *testing.T) {
	clock := newManualClock()
	c := newCountdown(clock, 5, func(uint64) {})
	c.arm()
	stale := c.generation()

	c.arm()
	_, expired, ok := c.tick(stale)
	assert.False(t, ok)
	assert.False(t, expired)
	assert.Equal(t, 5, c.remaining)
}

func TestCountdownNonPositiveLimitExpiresImmediately(t *testing.T) {
	clock := newManualClock()
	c := newCountdown(clock, 0, func(uint64) {})
	assert.True(t, c.arm())
	assert.Equal(t, 0, clock.Pending())

	c = newCountdown(clock, -4, func(uint64) {})
	assert.True(t, c.arm())
	assert.Equal(t, 0, c.remaining)
}

func TestCountdownStopIsIdempotent(t *testing.T) {
	clock := newManualClock()
	c := newCountdown(clock, 5, func(uint64) {})
	c.arm()
	gen := c.generation()
	c.stop()
	c.stop()
	assert.Equal(t, 0, clock.Pending())
	_, _, ok := c.tick(gen)
	assert.False(t, ok)
}
