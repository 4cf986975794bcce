// Package watchdog implements the host's command-silence detector. It
// is a pure state machine: the host loop feeds it on every accepted
// command and checks it once per tick; the loop owns the side effects
// (de-powering actuators, logging).
package watchdog

import "time"

// Watchdog tracks the time of the most recently accepted command. It
// starts armed with a grace period equal to the timeout, so a client
// that takes a moment to send its first command doesn't cause a
// spurious trip at startup.
type Watchdog struct {
	timeout time.Duration
	now     func() time.Time
	last    time.Time
	tripped bool
}

// New creates an armed watchdog using the wall clock.
func New(timeout time.Duration) *Watchdog {
	return NewWithClock(timeout, time.Now)
}

// NewWithClock creates an armed watchdog with an injectable clock.
func NewWithClock(timeout time.Duration, now func() time.Time) *Watchdog {
	return &Watchdog{
		timeout: timeout,
		now:     now,
		last:    now(),
	}
}

// Feed records an accepted command and re-arms the watchdog. A trip
// clears only here — never by further timeout expiry.
func (w *Watchdog) Feed() {
	w.last = w.now()
	w.tripped = false
}

// Check evaluates the timeout and returns true exactly once per
// silence episode: on the armed-to-tripped transition. Subsequent
// checks during the same silence return false, so the caller's side
// effect (stopping motors) runs once, not once per tick. Never
// blocks or sleeps.
func (w *Watchdog) Check() bool {
	if w.tripped {
		return false
	}
	if w.now().Sub(w.last) > w.timeout {
		w.tripped = true
		return true
	}
	return false
}

// Tripped reports whether the watchdog is currently in the tripped
// state.
func (w *Watchdog) Tripped() bool {
	return w.tripped
}

// SilentFor returns how long it has been since the last accepted
// command (or since start, before any command).
func (w *Watchdog) SilentFor() time.Duration {
	return w.now().Sub(w.last)
}
