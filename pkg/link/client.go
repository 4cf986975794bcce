package link

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tarabotics/teleop/pkg/wire"
)

// ClientConfig addresses the controller side of a session.
type ClientConfig struct {
	CommandAddr     string        // host's command port, e.g. "192.168.1.20:6001"
	ObservationAddr string        // host's observation port, e.g. "192.168.1.20:6002"
	DialRetry       time.Duration // pause between reconnect attempts, default 1s
	PollTimeout     time.Duration // wait budget for RecvObservation, default 15ms
}

// Client is the controller-resident endpoint. SendCommand always
// succeeds regardless of connectivity: while the host is unreachable,
// commands conflate locally and the newest goes out the moment the
// connection is (re-)established. The host's watchdog covers the
// silence in between.
type Client struct {
	cfg    ClientConfig
	log    zerolog.Logger
	cmdOut *Slot[wire.Command]
	obsIn  *Slot[wire.Observation]
}

// NewClient creates a client endpoint. Call Run to start the pumps.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.DialRetry <= 0 {
		cfg.DialRetry = time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 15 * time.Millisecond
	}
	return &Client{
		cfg:    cfg,
		log:    logger,
		cmdOut: NewSlot[wire.Command](),
		obsIn:  NewSlot[wire.Observation](),
	}
}

// SendCommand stages cmd for delivery, replacing any command not yet
// on the wire. Never blocks, never fails.
func (c *Client) SendCommand(cmd wire.Command) {
	c.cmdOut.Put(cmd)
}

// TryRecvObservation returns the newest unconsumed observation
// snapshot, if any. Never blocks.
func (c *Client) TryRecvObservation() (wire.Observation, bool) {
	return c.obsIn.Take()
}

// RecvObservation waits up to the configured poll timeout for a
// snapshot. Useful for consumers that prefer a short block over
// spinning on TryRecvObservation.
func (c *Client) RecvObservation() (wire.Observation, bool) {
	if obs, ok := c.obsIn.Take(); ok {
		return obs, true
	}
	t := time.NewTimer(c.cfg.PollTimeout)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			return nil, false
		case <-c.obsIn.Ready():
			if obs, ok := c.obsIn.Take(); ok {
				return obs, true
			}
		}
	}
}

// Run maintains both connections until ctx is cancelled, redialing
// with a fixed pause whenever one drops.
func (c *Client) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.pump(ctx, c.cfg.CommandAddr, c.sendCommands) })
	g.Go(func() error { return c.pump(ctx, c.cfg.ObservationAddr, c.recvObservations) })
	return g.Wait()
}

func (c *Client) pump(ctx context.Context, addr string, serve func(context.Context, net.Conn)) error {
	for {
		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Debug().Err(err).Str("addr", addr).Msg("dial failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.DialRetry):
			}
			continue
		}

		c.log.Info().Str("addr", addr).Msg("connected to host")
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		serve(ctx, conn)
		stop()
		conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Str("addr", addr).Msg("connection to host lost, reconnecting")
	}
}

// sendCommands drains the command slot onto the wire, conflating
// anything staged while a write was in progress.
func (c *Client) sendCommands(ctx context.Context, conn net.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.cmdOut.Ready():
		}
		for {
			cmd, ok := c.cmdOut.Take()
			if !ok {
				break
			}
			payload, err := wire.EncodeCommand(cmd)
			if err != nil {
				c.log.Error().Err(err).Msg("encode command")
				continue
			}
			if err := wire.WriteFrame(conn, payload); err != nil {
				if ctx.Err() == nil {
					c.log.Debug().Err(err).Msg("command send failed")
				}
				return
			}
		}
	}
}

func (c *Client) recvObservations(ctx context.Context, conn net.Conn) {
	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			if ctx.Err() == nil {
				c.log.Debug().Err(err).Msg("observation stream closed")
			}
			return
		}
		msg, err := wire.Decode(payload)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping undecodable observation payload")
			continue
		}
		obs, ok := msg.(wire.Observation)
		if !ok {
			c.log.Warn().Msg("dropping non-observation payload on observation port")
			continue
		}
		c.obsIn.Put(obs)
	}
}
