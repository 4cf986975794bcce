package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarabotics/teleop/pkg/wire"
)

func TestObserveSplitsChannels(t *testing.T) {
	f := NewFeed()
	f.Observe(wire.Observation{
		"gripper":      wire.Scalar(12),
		"camera_front": wire.Image([]byte{0xff, 0xd8}),
	})

	snap := <-f.Snapshots()
	assert.Equal(t, map[string]float64{"gripper": 12}, snap.Scalars)
	assert.Equal(t, map[string][]byte{"camera_front": {0xff, 0xd8}}, snap.Frames)
	assert.False(t, snap.Time.IsZero())
}

func TestObserveLatestWins(t *testing.T) {
	f := NewFeed()
	for i := 1; i <= 5; i++ {
		f.Observe(wire.Observation{"gripper": wire.Scalar(float64(i))})
	}

	snap := <-f.Snapshots()
	assert.Equal(t, 5.0, snap.Scalars["gripper"])

	select {
	case extra := <-f.Snapshots():
		t.Fatalf("only the newest snapshot should be pending, got %v", extra)
	default:
	}
}

func TestWriteTrimsAndDrops(t *testing.T) {
	f := NewFeed()

	n, err := f.Write([]byte("motors stopped\n"))
	require.NoError(t, err)
	assert.Equal(t, len("motors stopped\n"), n)
	assert.Equal(t, "motors stopped", <-f.Logs())

	// Fill the buffer; further writes must not block.
	for range 100 {
		_, err := f.Write([]byte("spam"))
		require.NoError(t, err)
	}
}
