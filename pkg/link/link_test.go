package link

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarabotics/teleop/pkg/wire"
)

// startSession wires a host and client over loopback TCP and tears
// both down when the test ends.
func startSession(t *testing.T) (*Host, *Client) {
	t.Helper()

	host, err := NewHost(HostConfig{
		CommandAddr:     "127.0.0.1:0",
		ObservationAddr: "127.0.0.1:0",
	}, zerolog.Nop())
	require.NoError(t, err)

	client := NewClient(ClientConfig{
		CommandAddr:     host.CommandAddr(),
		ObservationAddr: host.ObservationAddr(),
		DialRetry:       10 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = host.Run(ctx) }()
	go func() { _ = client.Run(ctx) }()

	return host, client
}

func TestCommandDelivery(t *testing.T) {
	host, client := startSession(t)

	client.SendCommand(wire.Command{"gripper": 42})

	var got wire.Command
	require.Eventually(t, func() bool {
		cmd, ok := host.TryRecvCommand()
		if ok {
			got = cmd
		}
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, wire.Command{"gripper": 42}, got)
}

func TestObservationDelivery(t *testing.T) {
	host, client := startSession(t)

	obs := wire.Observation{
		"gripper":      wire.Scalar(-3.5),
		"camera_front": wire.Image([]byte{0xff, 0xd8, 0x01}),
	}

	// The observation pump only has a connection once the client's
	// dial lands, so keep staging snapshots until one arrives.
	var got wire.Observation
	require.Eventually(t, func() bool {
		host.SendObservation(obs)
		o, ok := client.TryRecvObservation()
		if ok {
			got = o
		}
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, obs, got)
}

func TestRecvObservationWaits(t *testing.T) {
	host, client := startSession(t)

	// Nothing staged yet: the wait burns the poll timeout and gives up.
	start := time.Now()
	_, ok := client.RecvObservation()
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	obs := wire.Observation{"elbow_flex": wire.Scalar(7)}
	var got wire.Observation
	require.Eventually(t, func() bool {
		host.SendObservation(obs)
		o, ok := client.RecvObservation()
		if ok {
			got = o
		}
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, obs, got)
}

func TestSendCommandNeverBlocksWithoutHost(t *testing.T) {
	// No host anywhere near this address.
	client := NewClient(ClientConfig{
		CommandAddr:     "127.0.0.1:1",
		ObservationAddr: "127.0.0.1:1",
		DialRetry:       10 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 1000 {
			client.SendCommand(wire.Command{"a": float64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SendCommand blocked with host unreachable")
	}

	_, ok := client.TryRecvObservation()
	assert.False(t, ok)
}

func TestRunStopsOnCancel(t *testing.T) {
	host, err := NewHost(HostConfig{
		CommandAddr:     "127.0.0.1:0",
		ObservationAddr: "127.0.0.1:0",
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- host.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("host Run did not stop on cancel")
	}
}
