package codec

import (
	"github.com/Zereker/framerelay"
)

// Identity sends Frame.Data unchanged and decodes a payload into a frame that
// carries it as Data. Dimensions are not transmitted.
type Identity struct{}

var _ framerelay.Codec = Identity{}

// Encode returns frame.Data.
func (Identity) Encode(frame *framerelay.Frame) ([]byte, error) {
	if frame == nil {
		return nil, ErrInvalidFrame
	}
	return frame.Data, nil
}

// Decode wraps payload in a frame.
func (Identity) Decode(payload []byte) (*framerelay.Frame, error) {
	return &framerelay.Frame{Data: payload}, nil
}
