package framerelay

import (
	"context"
	"time"
)

// Frame is one image travelling through the relay.
//
// Raw frames produced by a FrameSource or returned by Codec.Decode carry packed
// RGB pixels (3 bytes per pixel, row-major) in Data. The transport itself never
// looks inside a frame; it only moves the bytes produced by Codec.Encode.
type Frame struct {
	// Data holds the pixel bytes. Codecs that do not interpret pixels, such as the
	// identity codec, put the whole payload here.
	Data []byte

	// Width of the frame in pixels.
	Width int

	// Height of the frame in pixels.
	Height int

	// Seq is assigned by the producer and increases by one per frame.
	Seq uint64

	// Timestamp is the capture time on the producer.
	Timestamp time.Time
}

// FrameSource yields raw frames on demand, e.g. from a camera or a screen grabber.
type FrameSource interface {
	// NextFrame blocks until a frame is available.
	// It returns io.EOF once the source is exhausted.
	NextFrame(ctx context.Context) (*Frame, error)
	// Close releases the underlying device or files.
	Close() error
}

// Codec compresses raw frames for the wire and restores them on the receiving side.
// The encoded bytes are the exact payload of one wire message.
type Codec interface {
	// Encode compresses a raw frame.
	Encode(*Frame) ([]byte, error)
	// Decode restores a raw frame from a payload produced by Encode.
	Decode([]byte) (*Frame, error)
}

// FrameSink presents decoded frames, e.g. in a window per connection.
type FrameSink interface {
	// Present displays a frame received on the connection identified by connID.
	// Returning ErrQuit asks the server to end the stream; any other error is
	// treated as a failure of that connection.
	Present(connID string, frame *Frame) error
	// ReleaseView frees whatever Present allocated for connID.
	// It is called exactly once when the connection terminates.
	ReleaseView(connID string)
}
