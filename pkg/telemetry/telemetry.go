// Package telemetry fans observation snapshots and log lines out to a
// display without ever blocking the control loop: both channels hold
// one pending item and drop the older one when the display lags.
package telemetry

import (
	"time"

	"github.com/tarabotics/teleop/pkg/wire"
)

// Snapshot is one observation split for display: joint scalars for
// charting, encoded frames for whoever wants to render them.
type Snapshot struct {
	Scalars map[string]float64
	Frames  map[string][]byte
	Time    time.Time
}

// Feed is the bridge between the client loop and a display. It
// implements the loop's telemetry sink on one side and feeds a
// bubbletea program (or any consumer) on the other. It also works as
// an io.Writer so a logger's lines land in the display's log box.
type Feed struct {
	snapCh chan Snapshot
	logCh  chan string
}

// NewFeed creates a feed with a one-deep snapshot channel and a small
// log buffer.
func NewFeed() *Feed {
	return &Feed{
		snapCh: make(chan Snapshot, 1),
		logCh:  make(chan string, 10),
	}
}

// Observe accepts an observation from the client loop. Never blocks:
// if the display hasn't consumed the previous snapshot it is replaced
// by this one.
func (f *Feed) Observe(obs wire.Observation) {
	snap := Snapshot{
		Scalars: make(map[string]float64),
		Frames:  make(map[string][]byte),
		Time:    time.Now(),
	}
	for name, v := range obs {
		switch v.Kind {
		case wire.ScalarValue:
			snap.Scalars[name] = v.Scalar
		case wire.ImageValue:
			snap.Frames[name] = v.Image
		}
	}

	select {
	case f.snapCh <- snap:
	default:
		select {
		case <-f.snapCh:
		default:
		}
		f.snapCh <- snap
	}
}

// Snapshots returns the channel the display reads from.
func (f *Feed) Snapshots() <-chan Snapshot {
	return f.snapCh
}

// Write accepts one log line per call, for use as a zerolog output.
// Lines are dropped when the display lags.
func (f *Feed) Write(p []byte) (int, error) {
	line := string(p)
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	select {
	case f.logCh <- line:
	default:
	}
	return len(p), nil
}

// Logs returns the channel the display's log box reads from.
func (f *Feed) Logs() <-chan string {
	return f.logCh
}
