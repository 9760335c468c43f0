// Package framerelay streams compressed image frames from producers to a
// slot-limited relay server over TCP.
//
// Every frame travels as one wire message: a 4-byte big-endian length followed by
// exactly that many payload bytes. The payload is whatever the configured Codec
// produced; the transport never interprets it.
package framerelay

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// maxConsecutiveEmptyReads bounds reads that return neither data nor an error.
const maxConsecutiveEmptyReads = 100

// Conn wraps one stream connection and moves whole frames over it.
//
// ReadFrame must be called by a single goroutine. WriteFrame may be called
// concurrently; writes are serialized so wire messages never interleave.
type Conn struct {
	id      string
	rawConn net.Conn
	logger  Logger
	opts    options

	// buf accumulates bytes read from the stream that have not been returned yet.
	buf   []byte
	chunk []byte

	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewConn creates a new connection wrapper around the given stream connection.
func NewConn(conn net.Conn, opt ...Option) *Conn {
	opts := defaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)

	return &Conn{
		id:      uuid.NewString(),
		rawConn: conn,
		logger:  opts.logger,
		opts:    opts,
		chunk:   make([]byte, opts.readChunkSize),
	}
}

// ID returns a unique identifier of this connection, used in logs.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the remote address of the connection.
func (c *Conn) RemoteAddr() net.Addr {
	return c.rawConn.RemoteAddr()
}

// LocalAddr returns the local address of the connection.
func (c *Conn) LocalAddr() net.Addr {
	return c.rawConn.LocalAddr()
}

// ReadFrame blocks until one complete wire message has arrived and returns its payload.
//
// Short reads are accumulated, so the result does not depend on how the transport
// chunks the stream. Bytes past the end of the frame are kept for the next call.
// If the peer closes the stream at any point, including in the middle of a frame,
// ReadFrame returns ErrConnectionClosed and the partial frame is discarded.
func (c *Conn) ReadFrame() ([]byte, error) {
	if c.closed.Load() {
		c.buf = nil
		return nil, ErrConnectionClosed
	}

	if err := c.fill(HeaderSize); err != nil {
		c.buf = nil
		return nil, err
	}

	var header [HeaderSize]byte
	copy(header[:], c.buf[:HeaderSize])
	length := DecodeLength(header)

	if c.opts.maxFrameSize > 0 && uint64(length) > uint64(c.opts.maxFrameSize) {
		return nil, errors.Wrapf(ErrFrameTooLarge, "length prefix %d exceeds limit %d", length, c.opts.maxFrameSize)
	}

	total := HeaderSize + int(length)
	if err := c.fill(total); err != nil {
		c.buf = nil
		return nil, err
	}

	payload := make([]byte, length)
	copy(payload, c.buf[HeaderSize:total])
	c.buf = append(c.buf[:0], c.buf[total:]...)

	return payload, nil
}

// fill reads from the stream until at least n bytes are buffered.
func (c *Conn) fill(n int) error {
	empty := 0
	for len(c.buf) < n {
		if c.opts.idleTimeout > 0 {
			_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.idleTimeout))
		}

		read, err := c.rawConn.Read(c.chunk)
		if read > 0 {
			c.buf = append(c.buf, c.chunk[:read]...)
			empty = 0
		}

		if err != nil {
			if len(c.buf) >= n {
				// The frame is complete; a pending EOF surfaces on the next read.
				return nil
			}
			c.logger.Debug("read error", "conn_id", c.id, "addr", c.RemoteAddr(), "buffered", len(c.buf), "error", err)
			return classify("read", err)
		}

		if read == 0 {
			empty++
			if empty >= maxConsecutiveEmptyReads {
				return classify("read", io.ErrNoProgress)
			}
		}
	}
	return nil
}

// WriteFrame sends payload as one wire message and returns once it is fully
// handed to the transport.
//
// The call blocks while the transport buffer is full, which applies the peer's
// backpressure to the caller instead of queueing frames without bound.
func (c *Conn) WriteFrame(payload []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	msg := EncodeMessage(payload)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.opts.writeTimeout > 0 {
		_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.writeTimeout))
	}

	for written := 0; written < len(msg); {
		n, err := c.rawConn.Write(msg[written:])
		written += n
		if err != nil {
			if errors.Is(err, io.ErrShortWrite) && n > 0 {
				continue
			}
			c.logger.Debug("write error", "conn_id", c.id, "addr", c.RemoteAddr(), "written", written, "error", err)
			return classify("write", err)
		}
		if n == 0 {
			return classify("write", io.ErrShortWrite)
		}
	}

	if f, ok := c.rawConn.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return classify("flush", err)
		}
	}

	return nil
}

// Close closes the underlying connection. The reading goroutine drops its
// accumulated bytes on its next ReadFrame, or right away if one is in progress.
// Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}
	return c.rawConn.Close()
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}
