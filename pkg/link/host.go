package link

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tarabotics/teleop/pkg/wire"
)

// HostConfig addresses the host side of a teleoperation session. Each
// direction gets its own port: commands arrive on one, observations
// leave on the other. The directions share no backpressure.
type HostConfig struct {
	CommandAddr     string // listen address for inbound commands, e.g. ":6001"
	ObservationAddr string // listen address for outbound observations, e.g. ":6002"
}

// Host is the robot-resident endpoint. It accepts one client per
// direction at a time and conflates in both: the newest command
// overwrites an unconsumed one, and an observation written while the
// previous is still in flight replaces it.
type Host struct {
	log    zerolog.Logger
	cmdLn  net.Listener
	obsLn  net.Listener
	cmdIn  *Slot[wire.Command]
	obsOut *Slot[wire.Observation]
}

// NewHost binds both listeners. Call Run to start serving.
func NewHost(cfg HostConfig, logger zerolog.Logger) (*Host, error) {
	cmdLn, err := net.Listen("tcp", cfg.CommandAddr)
	if err != nil {
		return nil, fmt.Errorf("link: listen command %s: %w", cfg.CommandAddr, err)
	}
	obsLn, err := net.Listen("tcp", cfg.ObservationAddr)
	if err != nil {
		cmdLn.Close()
		return nil, fmt.Errorf("link: listen observation %s: %w", cfg.ObservationAddr, err)
	}
	return &Host{
		log:    logger,
		cmdLn:  cmdLn,
		obsLn:  obsLn,
		cmdIn:  NewSlot[wire.Command](),
		obsOut: NewSlot[wire.Observation](),
	}, nil
}

// CommandAddr returns the bound command listen address.
func (h *Host) CommandAddr() string { return h.cmdLn.Addr().String() }

// ObservationAddr returns the bound observation listen address.
func (h *Host) ObservationAddr() string { return h.obsLn.Addr().String() }

// TryRecvCommand returns the newest unconsumed command, if any.
// Never blocks.
func (h *Host) TryRecvCommand() (wire.Command, bool) {
	return h.cmdIn.Take()
}

// SendObservation stages obs for delivery, replacing any snapshot the
// client has not yet been sent. Never blocks and never fails: with no
// client connected the snapshot is simply superseded by the next one.
func (h *Host) SendObservation(obs wire.Observation) {
	h.obsOut.Put(obs)
}

// Run serves both directions until ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.acceptLoop(ctx, h.cmdLn, h.serveCommands) })
	g.Go(func() error { return h.acceptLoop(ctx, h.obsLn, h.serveObservations) })
	return g.Wait()
}

func (h *Host) acceptLoop(ctx context.Context, ln net.Listener, serve func(context.Context, net.Conn)) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("link: accept on %s: %w", ln.Addr(), err)
		}
		h.log.Info().Str("peer", conn.RemoteAddr().String()).Msg("client connected")
		h.serveConn(ctx, conn, serve)
		h.log.Info().Str("peer", conn.RemoteAddr().String()).Msg("client disconnected")
	}
}

func (h *Host) serveConn(ctx context.Context, conn net.Conn, serve func(context.Context, net.Conn)) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()
	serve(ctx, conn)
}

// serveCommands reads frames from one client connection into the
// command slot. A frame that fails to decode is dropped — to the
// control loop it looks the same as no command this tick. A read
// error means the connection is gone; the caller accepts the next one.
func (h *Host) serveCommands(ctx context.Context, conn net.Conn) {
	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			if ctx.Err() == nil {
				h.log.Debug().Err(err).Msg("command stream closed")
			}
			return
		}
		msg, err := wire.Decode(payload)
		if err != nil {
			h.log.Warn().Err(err).Msg("dropping undecodable command payload")
			continue
		}
		cmd, ok := msg.(wire.Command)
		if !ok {
			h.log.Warn().Msg("dropping non-command payload on command port")
			continue
		}
		h.cmdIn.Put(cmd)
	}
}

// serveObservations drains the observation slot to one client
// connection. Snapshots staged while a write is in progress conflate;
// only the newest goes out.
func (h *Host) serveObservations(ctx context.Context, conn net.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.obsOut.Ready():
		}
		for {
			obs, ok := h.obsOut.Take()
			if !ok {
				break
			}
			payload, err := wire.EncodeObservation(obs)
			if err != nil {
				h.log.Error().Err(err).Msg("encode observation")
				continue
			}
			if err := wire.WriteFrame(conn, payload); err != nil {
				if ctx.Err() == nil {
					h.log.Debug().Err(err).Msg("dropping observation, client send failed")
				}
				return
			}
		}
	}
}
