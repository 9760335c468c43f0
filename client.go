package framerelay

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// defaultDialTimeout bounds how long Start waits for the server to accept.
const defaultDialTimeout = 10 * time.Second

// ClientStats counts what a client has sent during its current or last stream.
type ClientStats struct {
	Frames uint64
	Bytes  uint64
}

// Client pulls frames from a FrameSource, encodes them and streams them to a server.
type Client struct {
	source FrameSource
	codec  Codec
	logger Logger

	dialTimeout   time.Duration
	frameInterval time.Duration
	cleanup       func()
	connOpts      []Option

	running atomic.Bool
	frames  atomic.Uint64
	bytes   atomic.Uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// ClientLoggerOption sets the logger for the client and its connection.
func ClientLoggerOption(logger Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// DialTimeoutOption sets how long Start waits for the connection to be established.
func DialTimeoutOption(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.dialTimeout = timeout
	}
}

// FrameIntervalOption sets the minimum time between two frames.
// Zero sends frames as fast as the source and the connection allow.
func FrameIntervalOption(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.frameInterval = interval
	}
}

// CleanupOption registers a function run after the connection and the source
// have been released, e.g. to close a local preview window.
func CleanupOption(fn func()) ClientOption {
	return func(c *Client) {
		c.cleanup = fn
	}
}

// ClientConnOptions sets the options applied to the client connection.
func ClientConnOptions(opts ...Option) ClientOption {
	return func(c *Client) {
		c.connOpts = append(c.connOpts, opts...)
	}
}

// NewClient creates a client streaming frames from source encoded with codec.
func NewClient(source FrameSource, codec Codec, opts ...ClientOption) (*Client, error) {
	if source == nil {
		return nil, ErrInvalidSource
	}
	if codec == nil {
		return nil, ErrInvalidCodec
	}

	c := &Client{
		source:      source,
		codec:       codec,
		logger:      defaultLogger(),
		dialTimeout: defaultDialTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Start connects to addr and streams frames until Stop is called, ctx is canceled,
// the source is exhausted or the connection fails. It blocks for the whole stream.
//
// If the client is already streaming it reports so and returns false without error.
// A lost connection ends the stream without an error; dial, source and encode
// failures are returned. The connection and the source are released on every path.
func (c *Client) Start(ctx context.Context, addr string) (bool, error) {
	if c.running.Swap(true) {
		c.logger.Info("client is already streaming", "addr", addr)
		return false, nil
	}
	defer c.running.Store(false)

	c.frames.Store(0)
	c.bytes.Store(0)

	dialer := net.Dialer{Timeout: c.dialTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.release(nil)
		return true, errors.Wrapf(err, "dial %s", addr)
	}

	opts := append([]Option{LoggerOption(c.logger)}, c.connOpts...)
	conn := NewConn(rawConn, opts...)
	defer c.release(conn)

	c.logger.Info("streaming started", "conn_id", conn.ID(), "addr", conn.RemoteAddr())

	group, child := errgroup.WithContext(ctx)
	stopped := make(chan struct{})

	group.Go(func() error {
		defer close(stopped)
		return c.sendLoop(child, conn)
	})

	// Unblock an in-flight write when the caller cancels.
	group.Go(func() error {
		select {
		case <-child.Done():
			_ = conn.Close()
		case <-stopped:
		}
		return nil
	})

	err = group.Wait()
	stats := c.Stats()

	switch {
	case err == nil:
		c.logger.Info("streaming finished", "conn_id", conn.ID(), "frames", stats.Frames, "bytes", stats.Bytes)
		return true, nil
	case ctx.Err() != nil && IsStreamEnd(err), errors.Is(err, context.Canceled):
		c.logger.Info("streaming canceled", "conn_id", conn.ID(), "frames", stats.Frames)
		return true, nil
	case IsStreamEnd(err):
		c.logger.Warn("connection to server lost", "conn_id", conn.ID(), "frames", stats.Frames, "error", err)
		return true, nil
	default:
		c.logger.Error("streaming failed", "conn_id", conn.ID(), "frames", stats.Frames, "error", err)
		return true, err
	}
}

// sendLoop moves frames from the source to the connection, one at a time.
func (c *Client) sendLoop(ctx context.Context, conn *Conn) error {
	var ticker *time.Ticker
	if c.frameInterval > 0 {
		ticker = time.NewTicker(c.frameInterval)
		defer ticker.Stop()
	}

	for c.running.Load() {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			if !c.running.Load() {
				return nil
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		frame, err := c.source.NextFrame(ctx)
		if errors.Is(err, io.EOF) {
			c.logger.Debug("frame source exhausted", "conn_id", conn.ID())
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "next frame")
		}
		if frame == nil {
			c.logger.Debug("no frame available", "conn_id", conn.ID())
			return nil
		}

		payload, err := c.codec.Encode(frame)
		if err != nil {
			return errors.Wrap(err, "encode frame")
		}

		if err = conn.WriteFrame(payload); err != nil {
			return err
		}

		c.frames.Add(1)
		c.bytes.Add(uint64(len(payload)))
	}

	return nil
}

// Stop asks a running stream to end. The frame being written is completed first.
func (c *Client) Stop() {
	c.running.Store(false)
}

// IsStreaming reports whether Start is currently streaming.
func (c *Client) IsStreaming() bool {
	return c.running.Load()
}

// Stats returns the counters of the current or last stream.
func (c *Client) Stats() ClientStats {
	return ClientStats{Frames: c.frames.Load(), Bytes: c.bytes.Load()}
}

// release closes the connection, then the source, then runs the cleanup hook.
func (c *Client) release(conn *Conn) {
	if conn != nil {
		_ = conn.Close()
	}

	if err := c.source.Close(); err != nil {
		c.logger.Warn("release frame source", "error", err)
	}

	if c.cleanup != nil {
		c.cleanup()
	}
}
