package framerelay

import (
	"io"
	"net"
	"syscall"

	"github.com/pkg/errors"
)

// Errors returned by connection, server and client operations.
var (
	// ErrConnectionClosed is returned when the peer closed the stream, including in
	// the middle of a frame, or when operating on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrAdmissionRejected is returned when every server slot is in use.
	ErrAdmissionRejected = errors.New("no free slots")
	// ErrFrameTooLarge is returned when a length prefix exceeds the configured frame limit.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrQuit is returned by a FrameSink to ask the server to stop the current stream.
	ErrQuit = errors.New("quit requested")
)

// ErrInvalidCodec is returned when no codec is provided.
var ErrInvalidCodec = errors.New("invalid codec")

// ErrInvalidSink is returned when the server has no frame sink.
var ErrInvalidSink = errors.New("invalid frame sink")

// ErrInvalidSource is returned when the client has no frame source.
var ErrInvalidSource = errors.New("invalid frame source")

// TransportError reports a failure of the underlying stream such as a reset,
// a broken pipe or an expired deadline. Callers treat it like ErrConnectionClosed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Cause is the pkg/errors counterpart of Unwrap.
func (e *TransportError) Cause() error {
	return e.Err
}

// IsStreamEnd reports whether err terminates a stream without being an application
// failure: a closed connection or a transport error.
func IsStreamEnd(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionClosed) {
		return true
	}
	var te *TransportError
	return errors.As(err, &te)
}

// classify maps a raw I/O error onto the error taxonomy.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrNoProgress), errors.Is(err, net.ErrClosed):
		return ErrConnectionClosed
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return &TransportError{Op: op, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransportError{Op: op, Err: err}
	}
	return errors.Wrap(err, op)
}
