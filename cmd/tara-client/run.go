package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tarabotics/teleop/pkg/client"
	"github.com/tarabotics/teleop/pkg/link"
	"github.com/tarabotics/teleop/pkg/robot"
	"github.com/tarabotics/teleop/pkg/telemetry"
)

type RunCommand struct {
	Config   string `long:"config" default:"tara.json" description:"Path to the configuration file"`
	Host     string `long:"host" description:"Robot host address (overrides config)"`
	Headless bool   `long:"headless" description:"Run without the telemetry display"`
	Verbose  bool   `long:"verbose" short:"v" description:"Enable debug logging"`
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfigFrom(c.Config)
	if err != nil {
		return fmt.Errorf("load config (run 'tara-client setup' first): %w", err)
	}
	if c.Host != "" {
		cfg.Network.HostAddress = c.Host
	}
	if cfg.Network.HostAddress == "" {
		return errors.New("no robot host address configured, pass --host or run 'tara-client setup'")
	}
	if !cfg.Leader.IsCalibrated() {
		return errors.New("leader arm not calibrated, run 'tara-client setup' first")
	}

	level := zerolog.InfoLevel
	if c.Verbose {
		level = zerolog.DebugLevel
	}

	// In display mode log lines go into the TUI's log box instead of
	// fighting it for the terminal.
	feed := telemetry.NewFeed()
	var logger zerolog.Logger
	var sink client.TelemetrySink
	if c.Headless {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(level).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: feed, NoColor: true, TimeFormat: time.TimeOnly}).
			Level(level).With().Timestamp().Logger()
		sink = feed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	leader, err := robot.NewLeader(ctx, cfg.Leader.Port, cfg.Leader.Calibration)
	if err != nil {
		return fmt.Errorf("connect leader arm: %w", err)
	}
	defer leader.Close()

	endpoint := link.NewClient(link.ClientConfig{
		CommandAddr:     cfg.Network.CommandDialAddr(),
		ObservationAddr: cfg.Network.ObservationDialAddr(),
		PollTimeout:     time.Duration(cfg.Client.PollTimeoutMs) * time.Millisecond,
	}, logger.With().Str("component", "link").Logger())

	loop := client.New(client.Config{Hz: cfg.Client.Hz}, leader, endpoint, sink, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return endpoint.Run(gctx) })
	g.Go(func() error { return loop.Run(gctx) })

	if c.Headless {
		err = g.Wait()
	} else {
		p := tea.NewProgram(newTeleopModel(feed, cfg.Client.Hz), tea.WithAltScreen())
		go func() {
			<-gctx.Done()
			p.Quit()
		}()
		if _, tuiErr := p.Run(); tuiErr != nil {
			cancel()
			g.Wait()
			return fmt.Errorf("telemetry display: %w", tuiErr)
		}
		// Operator quit the display: wind the loops down too.
		cancel()
		err = g.Wait()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
