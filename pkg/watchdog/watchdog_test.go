package watchdog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestWatchdog(timeout time.Duration) (*Watchdog, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	return NewWithClock(timeout, clock.now), clock
}

func TestNoTripWithinTimeout(t *testing.T) {
	w, clock := newTestWatchdog(2 * time.Second)

	for i := 0; i < 40; i++ {
		clock.advance(50 * time.Millisecond) // reaches exactly 2s, never beyond
		assert.False(t, w.Check(), "must not trip at or before the timeout")
	}
	assert.False(t, w.Tripped())
}

func TestTripOnceAfterTimeout(t *testing.T) {
	w, clock := newTestWatchdog(2 * time.Second)

	clock.advance(2*time.Second + time.Millisecond)
	assert.True(t, w.Check(), "first check past the timeout trips")
	assert.True(t, w.Tripped())

	// Continued silence: checks every tick, no second trip edge.
	for i := 0; i < 100; i++ {
		clock.advance(50 * time.Millisecond)
		assert.False(t, w.Check(), "one silence episode must trip exactly once")
	}
	assert.True(t, w.Tripped())
}

func TestFeedRearms(t *testing.T) {
	w, clock := newTestWatchdog(time.Second)

	clock.advance(1500 * time.Millisecond)
	assert.True(t, w.Check())

	w.Feed()
	assert.False(t, w.Tripped(), "accepted command re-arms immediately")
	assert.False(t, w.Check())

	// A second silence episode trips again.
	clock.advance(1100 * time.Millisecond)
	assert.True(t, w.Check())
}

func TestStartupGracePeriod(t *testing.T) {
	w, clock := newTestWatchdog(2 * time.Second)

	// No command ever accepted: the grace window equals the timeout,
	// measured from construction.
	clock.advance(1900 * time.Millisecond)
	assert.False(t, w.Check())
	clock.advance(200 * time.Millisecond)
	assert.True(t, w.Check())
}

func TestFeedBeforeTripKeepsArmed(t *testing.T) {
	w, clock := newTestWatchdog(time.Second)

	for i := 0; i < 50; i++ {
		clock.advance(500 * time.Millisecond)
		w.Feed()
		assert.False(t, w.Check())
	}
	assert.False(t, w.Tripped())
}

func TestSilentFor(t *testing.T) {
	w, clock := newTestWatchdog(time.Second)

	clock.advance(300 * time.Millisecond)
	assert.Equal(t, 300*time.Millisecond, w.SilentFor())

	w.Feed()
	assert.Equal(t, time.Duration(0), w.SilentFor())
}
