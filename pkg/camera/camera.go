// Package camera defines the capture seam between the host control
// loop and whatever produces frames. Implementations return raw pixel
// data only; compression is the host loop's job, so a camera never
// decides wire format or quality.
package camera

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"
)

// Camera produces raw frames for a single observation channel.
// CaptureFrame must be bounded-time: a hardware implementation is
// expected to return its most recent frame or an error, not wait for
// the next exposure.
type Camera interface {
	CaptureFrame(ctx context.Context) (image.Image, error)
}

// Synthetic generates a moving gradient. It stands in for capture
// hardware in demos and tests.
type Synthetic struct {
	Width  int
	Height int

	frame atomic.Uint64
}

// NewSynthetic returns a generator producing w×h frames.
func NewSynthetic(w, h int) *Synthetic {
	return &Synthetic{Width: w, Height: h}
}

// CaptureFrame returns the next frame in the sequence. The gradient
// shifts each call so consecutive frames differ.
func (s *Synthetic) CaptureFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := s.frame.Add(1)
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x + int(n)),
				G: uint8(y + int(n)),
				B: uint8(int(n)),
				A: 255,
			})
		}
	}
	return img, nil
}
