package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarabotics/teleop/pkg/wire"
)

type fakeDevice struct {
	mu    sync.Mutex
	pos   float64
	err   error
	reads int
}

func (f *fakeDevice) Sample(ctx context.Context) (wire.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	f.pos++
	return wire.Command{"shoulder_pan": f.pos}, nil
}

func (f *fakeDevice) sampleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

type fakeEndpoint struct {
	mu   sync.Mutex
	sent []wire.Command
	obs  *wire.Observation
}

func (e *fakeEndpoint) SendCommand(cmd wire.Command) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, cmd.Clone())
}

func (e *fakeEndpoint) TryRecvObservation() (wire.Observation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.obs == nil {
		return nil, false
	}
	obs := *e.obs
	e.obs = nil
	return obs, true
}

func (e *fakeEndpoint) stage(obs wire.Observation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.obs = &obs
}

func (e *fakeEndpoint) sentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sent)
}

type recordingSink struct {
	mu       sync.Mutex
	received []wire.Observation
}

func (s *recordingSink) Observe(obs wire.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, obs)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func TestSendsSampledCommands(t *testing.T) {
	dev := &fakeDevice{}
	ep := &fakeEndpoint{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{Hz: 200}, dev, ep, nil, zerolog.Nop()).Run(ctx) }()

	require.Eventually(t, func() bool { return ep.sentCount() >= 3 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	ep.mu.Lock()
	defer ep.mu.Unlock()
	assert.Equal(t, wire.Command{"shoulder_pan": 1}, ep.sent[0])
	assert.Equal(t, wire.Command{"shoulder_pan": 2}, ep.sent[1])
}

func TestForwardsObservationsToSink(t *testing.T) {
	dev := &fakeDevice{}
	ep := &fakeEndpoint{}
	sink := &recordingSink{}
	obs := wire.Observation{"gripper": wire.Scalar(9)}
	ep.stage(obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = New(Config{Hz: 200}, dev, ep, sink, zerolog.Nop()).Run(ctx) }()

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, obs, sink.received[0])
}

func TestDeviceErrorSkipsTick(t *testing.T) {
	dev := &fakeDevice{err: errors.New("serial port unplugged")}
	ep := &fakeEndpoint{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{Hz: 200}, dev, ep, nil, zerolog.Nop()).Run(ctx) }()

	// The loop keeps ticking through device failures but sends nothing.
	require.Eventually(t, func() bool { return dev.sampleCount() >= 5 }, time.Second, time.Millisecond)
	assert.Zero(t, ep.sentCount())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestClientLoopPacing(t *testing.T) {
	dev := &fakeDevice{}
	ep := &fakeEndpoint{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{Hz: 20}, dev, ep, nil, zerolog.Nop()).Run(ctx) }()

	time.Sleep(300 * time.Millisecond)
	cancel()
	<-done

	ticks := dev.sampleCount()
	assert.GreaterOrEqual(t, ticks, 4, "loop ran too slow: %d ticks", ticks)
	assert.LessOrEqual(t, ticks, 9, "loop ran too fast: %d ticks", ticks)
}
