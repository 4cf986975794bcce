package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tarabotics/teleop/pkg/camera"
	"github.com/tarabotics/teleop/pkg/host"
	"github.com/tarabotics/teleop/pkg/link"
	"github.com/tarabotics/teleop/pkg/robot"
)

type RunCommand struct {
	Config  string `long:"config" default:"tara.json" description:"Path to the configuration file"`
	Verbose bool   `long:"verbose" short:"v" description:"Enable debug logging"`
}

func (c *RunCommand) Execute(args []string) error {
	logger := newLogger(c.Verbose)

	cfg, err := robot.LoadConfigFrom(c.Config)
	if err != nil {
		return fmt.Errorf("load config (run 'tara-host setup' first): %w", err)
	}
	if !cfg.Robot.IsCalibrated() {
		return errors.New("robot arm not calibrated, run 'tara-host setup' first")
	}
	if err := cfg.Robot.Calibration.Validate(); err != nil {
		return fmt.Errorf("robot calibration: %w", err)
	}

	arm, err := robot.NewArm(cfg.Robot.Port, cfg.Robot.Calibration)
	if err != nil {
		return fmt.Errorf("connect robot arm: %w", err)
	}
	defer arm.Close()

	cameras := make(map[string]camera.Camera, len(cfg.Host.Cameras))
	for _, cc := range cfg.Host.Cameras {
		w, h := cc.Width, cc.Height
		if w <= 0 || h <= 0 {
			w, h = 640, 480
		}
		cameras[cc.Name] = camera.NewSynthetic(w, h)
		logger.Info().Str("camera", cc.Name).Msg("serving synthetic frames for camera channel")
	}

	endpoint, err := link.NewHost(link.HostConfig{
		CommandAddr:     cfg.Network.CommandListenAddr(),
		ObservationAddr: cfg.Network.ObservationListenAddr(),
	}, logger.With().Str("component", "link").Logger())
	if err != nil {
		return err
	}
	logger.Info().
		Str("command", endpoint.CommandAddr()).
		Str("observation", endpoint.ObservationAddr()).
		Msg("listening")

	loop := host.New(host.Config{
		Hz:              cfg.Host.Hz,
		WatchdogTimeout: time.Duration(cfg.Host.WatchdogTimeoutMs) * time.Millisecond,
		JPEGQuality:     cfg.Host.JPEGQuality,
		Cameras:         cameras,
	}, arm, endpoint, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return endpoint.Run(ctx) })
	g.Go(func() error { return loop.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("host shut down cleanly")
	return nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}
