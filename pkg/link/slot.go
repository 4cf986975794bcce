// Package link moves commands and observations between the
// teleoperation client and the robot host with latest-wins delivery:
// a send overwrites whatever was pending, a receive never blocks, and
// silence is indistinguishable from a dropped payload. Stale control
// data is harmful and stale observations are uninteresting, so
// nothing is ever queued.
package link

import "sync"

// Slot is a single-value mailbox. Put unconditionally replaces the
// pending value; Take atomically takes-and-clears it. After any
// number of Puts without a Take, only the last value is observable.
// Safe for concurrent use by a loop thread and a transport pump.
type Slot[T any] struct {
	mu    sync.Mutex
	val   T
	full  bool
	ready chan struct{}
}

// NewSlot returns an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{ready: make(chan struct{}, 1)}
}

// Put stores v, discarding any unconsumed previous value. Never blocks.
func (s *Slot[T]) Put(v T) {
	s.mu.Lock()
	s.val = v
	s.full = true
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Take removes and returns the pending value, or (zero, false) when
// the slot is empty. Never blocks.
func (s *Slot[T]) Take() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.full {
		var zero T
		return zero, false
	}
	v := s.val
	var zero T
	s.val = zero
	s.full = false
	return v, true
}

// Ready signals when a Put may have made a value available. A wakeup
// with an empty slot is possible (the value was taken first); callers
// must treat Take's ok result as authoritative.
func (s *Slot[T]) Ready() <-chan struct{} {
	return s.ready
}
