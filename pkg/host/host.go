// Package host runs the robot-resident control loop: pull the newest
// command, drive the actuators, publish an observation snapshot, and
// stop the motors when the command stream goes silent.
package host

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tarabotics/teleop/pkg/camera"
	"github.com/tarabotics/teleop/pkg/watchdog"
	"github.com/tarabotics/teleop/pkg/wire"
)

// Actuator is the hardware seam. The loop is the only caller while it
// runs; implementations need not be safe for concurrent use.
type Actuator interface {
	// Apply drives the axes named in cmd and returns the command as
	// actually applied (after clamping, axis filtering).
	Apply(ctx context.Context, cmd wire.Command) (wire.Command, error)

	// Sample reads the current state of all axes.
	Sample(ctx context.Context) (map[string]float64, error)

	// Disable de-powers the actuators. Must be safe to call multiple
	// times; the loop calls it on watchdog trips and again on shutdown.
	Disable(ctx context.Context) error
}

// Endpoint is the transport seam, satisfied by *link.Host. Both
// operations are non-blocking by contract.
type Endpoint interface {
	TryRecvCommand() (wire.Command, bool)
	SendObservation(wire.Observation)
}

// Config tunes the loop. Zero values get the defaults the Tara robots
// ship with.
type Config struct {
	Hz              int           // loop frequency, default 20
	WatchdogTimeout time.Duration // command silence budget, default 2s
	JPEGQuality     int           // camera frame encoding quality, default 90
	MaxFailures     int           // consecutive actuator failures before the loop gives up, default 5

	// Cameras maps observation channel names to their frame sources.
	Cameras map[string]camera.Camera
}

func (c *Config) applyDefaults() {
	if c.Hz <= 0 {
		c.Hz = 20
	}
	if c.WatchdogTimeout <= 0 {
		c.WatchdogTimeout = 2 * time.Second
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = 90
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
}

// Loop is the host control loop. Construct with New, drive with Run.
type Loop struct {
	cfg Config
	log zerolog.Logger
	act Actuator
	ep  Endpoint
	wd  *watchdog.Watchdog

	failures int
	lastErr  error

	shutdownOnce sync.Once
}

// New creates a host loop. The actuator and endpoint are owned by the
// loop for as long as Run executes.
func New(cfg Config, act Actuator, ep Endpoint, logger zerolog.Logger) *Loop {
	cfg.applyDefaults()
	return &Loop{
		cfg: cfg,
		log: logger,
		act: act,
		ep:  ep,
		wd:  watchdog.New(cfg.WatchdogTimeout),
	}
}

// Run executes the control loop until ctx is cancelled or consecutive
// actuator failures exceed the configured limit. On every exit path
// the actuators are de-powered exactly once before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()

	period := time.Second / time.Duration(l.cfg.Hz)
	l.log.Info().
		Int("hz", l.cfg.Hz).
		Dur("watchdog_timeout", l.cfg.WatchdogTimeout).
		Msg("host loop started, waiting for commands")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()

		l.tick(ctx)
		if l.failures >= l.cfg.MaxFailures {
			return fmt.Errorf("host: actuator failed %d consecutive ticks: %w", l.failures, l.lastErr)
		}

		// Sleep out the remainder of the period. A slow tick eats its
		// own budget only: the next tick starts late but no catch-up
		// burst follows.
		if remaining := period - time.Since(start); remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	var tickErr error

	if cmd, ok := l.ep.TryRecvCommand(); ok {
		if l.wd.Tripped() {
			l.log.Info().Msg("command stream resumed")
		}
		l.wd.Feed()
		if _, err := l.act.Apply(ctx, cmd); err != nil {
			tickErr = fmt.Errorf("apply command: %w", err)
		}
	}

	if l.wd.Check() {
		l.log.Warn().
			Dur("timeout", l.cfg.WatchdogTimeout).
			Msg("no command within watchdog timeout, stopping motors")
		if err := l.act.Disable(ctx); err != nil && tickErr == nil {
			tickErr = fmt.Errorf("watchdog disable: %w", err)
		}
	}

	obs, err := l.observe(ctx)
	if err != nil {
		if tickErr == nil {
			tickErr = err
		}
	} else {
		l.ep.SendObservation(obs)
	}

	// One verdict per tick: any failure above counts the whole tick as
	// failed, a clean tick re-arms the escalation counter.
	if tickErr != nil {
		l.recordFailure(tickErr)
	} else {
		l.failures = 0
	}
}

// observe samples actuator state and captures camera frames into one
// snapshot. Frames are JPEG-encoded here: raw pixels never reach the
// transport. A camera error drops that channel for this tick only.
func (l *Loop) observe(ctx context.Context) (wire.Observation, error) {
	state, err := l.act.Sample(ctx)
	if err != nil {
		return nil, fmt.Errorf("sample actuators: %w", err)
	}

	obs := make(wire.Observation, len(state)+len(l.cfg.Cameras))
	for name, v := range state {
		obs[name] = wire.Scalar(v)
	}

	for name, cam := range l.cfg.Cameras {
		img, err := cam.CaptureFrame(ctx)
		if err != nil {
			l.log.Warn().Err(err).Str("camera", name).Msg("frame capture failed")
			continue
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: l.cfg.JPEGQuality}); err != nil {
			l.log.Warn().Err(err).Str("camera", name).Msg("frame encoding failed")
			continue
		}
		obs[name] = wire.Image(buf.Bytes())
	}
	return obs, nil
}

func (l *Loop) recordFailure(err error) {
	l.failures++
	l.lastErr = err
	l.log.Error().Err(err).Int("consecutive", l.failures).Msg("actuator error")
}

// shutdown de-powers the actuators. Runs exactly once no matter how
// Run exits: cancellation, failure escalation, or panic unwinding.
func (l *Loop) shutdown() {
	l.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.act.Disable(ctx); err != nil {
			l.log.Error().Err(err).Msg("disable actuators on shutdown")
		} else {
			l.log.Info().Msg("actuators de-powered, host loop stopped")
		}
	})
}
