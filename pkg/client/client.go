// Package client runs the controller-resident loop: sample the input
// device, ship the newest command to the host, and surface whatever
// observation snapshot has come back.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tarabotics/teleop/pkg/wire"
)

// InputDevice produces the operator's current intent: a physical
// leader arm's joint angles, a gamepad's axis positions. Sample is
// called once per tick and must be bounded-time.
type InputDevice interface {
	Sample(ctx context.Context) (wire.Command, error)
}

// TelemetrySink receives observation snapshots for display. Observe
// is called from the loop thread and must not block it.
type TelemetrySink interface {
	Observe(wire.Observation)
}

// Endpoint is the transport seam, satisfied by *link.Client. Both
// operations are non-blocking by contract.
type Endpoint interface {
	SendCommand(wire.Command)
	TryRecvObservation() (wire.Observation, bool)
}

// Config tunes the loop.
type Config struct {
	Hz int // loop frequency, default 30
}

// Loop is the client control loop.
type Loop struct {
	cfg  Config
	log  zerolog.Logger
	dev  InputDevice
	ep   Endpoint
	sink TelemetrySink
}

// New creates a client loop. sink may be nil; observations are then
// drained and discarded so the transport slot always holds the
// newest snapshot.
func New(cfg Config, dev InputDevice, ep Endpoint, sink TelemetrySink, logger zerolog.Logger) *Loop {
	if cfg.Hz <= 0 {
		cfg.Hz = 30
	}
	return &Loop{cfg: cfg, log: logger, dev: dev, ep: ep, sink: sink}
}

// Run executes the loop until ctx is cancelled. Transport and device
// errors are logged and skipped, never fatal: the host's watchdog is
// what handles prolonged client silence.
func (l *Loop) Run(ctx context.Context) error {
	period := time.Second / time.Duration(l.cfg.Hz)
	l.log.Info().Int("hz", l.cfg.Hz).Msg("teleoperation loop started")

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("client loop: %w", err)
		}
		start := time.Now()

		cmd, err := l.dev.Sample(ctx)
		if err != nil {
			l.log.Warn().Err(err).Msg("input device read failed, skipping tick")
		} else {
			l.ep.SendCommand(cmd)
		}

		if obs, ok := l.ep.TryRecvObservation(); ok && l.sink != nil {
			l.sink.Observe(obs)
		}

		if remaining := period - time.Since(start); remaining > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("client loop: %w", ctx.Err())
			case <-time.After(remaining):
			}
		}
	}
}
