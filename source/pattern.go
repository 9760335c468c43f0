package source

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/Zereker/framerelay"
)

// Pattern generates a moving color gradient.
type Pattern struct {
	width  int
	height int
	limit  uint64

	seq    atomic.Uint64
	closed atomic.Bool
}

var _ framerelay.FrameSource = (*Pattern)(nil)

// NewPattern returns a pattern source of the given size. Non-positive sizes select
// DefaultWidth x DefaultHeight. A limit of zero produces frames forever; otherwise
// NextFrame returns io.EOF after limit frames.
func NewPattern(width, height int, limit uint64) *Pattern {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	return &Pattern{width: width, height: height, limit: limit}
}

// NextFrame renders the next frame.
func (p *Pattern) NextFrame(ctx context.Context) (*framerelay.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.closed.Load() {
		return nil, ErrClosed
	}

	seq := p.seq.Load()
	if p.limit > 0 && seq >= p.limit {
		return nil, io.EOF
	}
	p.seq.Add(1)

	shift := int(seq * 4)
	data := make([]byte, p.width*p.height*3)
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			i := (y*p.width + x) * 3
			data[i+0] = byte((x + shift) * 255 / p.width)
			data[i+1] = byte((y + shift) * 255 / p.height)
			data[i+2] = byte(seq)
		}
	}

	return &framerelay.Frame{
		Data:      data,
		Width:     p.width,
		Height:    p.height,
		Seq:       seq,
		Timestamp: time.Now(),
	}, nil
}

// Close stops the source.
func (p *Pattern) Close() error {
	p.closed.Store(true)
	return nil
}
