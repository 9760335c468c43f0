package framerelay

import (
	"time"
)

// options holds the configuration for a connection.
type options struct {
	logger Logger

	readChunkSize int           // size of a single read from the stream
	maxFrameSize  int           // largest accepted payload, 0 accepts any 32-bit length
	idleTimeout   time.Duration // read deadline per read, 0 disables it
	writeTimeout  time.Duration // write deadline per frame, 0 disables it
}

// Option is a function that configures connection options.
type Option func(*options)

// defaultReadChunkSize is how many bytes a single read asks the stream for.
const defaultReadChunkSize = 4096

// checkOptions sets default values for connection options.
func checkOptions(opts *options) {
	if opts.readChunkSize <= 0 {
		opts.readChunkSize = defaultReadChunkSize
	}

	if opts.maxFrameSize < 0 {
		opts.maxFrameSize = 0
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}
}

func defaultOptions() options {
	return options{}
}

// ReadChunkSizeOption returns an Option that sets how many bytes a single read
// requests from the stream. Frames larger than the chunk are assembled over
// several reads.
func ReadChunkSizeOption(size int) Option {
	return func(o *options) {
		o.readChunkSize = size
	}
}

// MaxFrameSizeOption returns an Option that sets the largest accepted payload.
// A length prefix above the limit fails the read with ErrFrameTooLarge.
// The default, zero, accepts every length the 32-bit prefix can express.
func MaxFrameSizeOption(size int) Option {
	return func(o *options) {
		o.maxFrameSize = size
	}
}

// IdleTimeoutOption returns an Option that sets a read deadline for every read.
// The stream protocol has no heartbeat, so the default is no deadline.
func IdleTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = timeout
	}
}

// WriteTimeoutOption returns an Option that bounds how long WriteFrame may block
// on a full transport buffer. The default is to wait indefinitely.
func WriteTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = timeout
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
