package framerelay

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

// createTestTCPPair creates a connected pair of TCP connections for testing
func createTestTCPPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer listener.Close()

	// Connect client in goroutine
	clientChan := make(chan net.Conn, 1)
	errChan := make(chan error, 1)
	go func() {
		conn, err := net.DialTCP("tcp", nil, listener.Addr().(*net.TCPAddr))
		if err != nil {
			errChan <- err
			return
		}
		clientChan <- conn
	}()

	// Accept server side
	serverConn, err := listener.AcceptTCP()
	if err != nil {
		t.Fatalf("failed to accept: %v", err)
	}

	select {
	case clientConn := <-clientChan:
		return serverConn, clientConn
	case err := <-errChan:
		serverConn.Close()
		t.Fatalf("client dial failed: %v", err)
		return nil, nil
	case <-time.After(5 * time.Second):
		serverConn.Close()
		t.Fatal("timeout waiting for client connection")
		return nil, nil
	}
}

// chunkedConn is a net.Conn that replays a fixed byte stream, at most chunk
// bytes per Read, then reports EOF.
type chunkedConn struct {
	data   []byte
	chunk  int
	reads  int
	closed bool
}

func (c *chunkedConn) Read(p []byte) (int, error) {
	if c.closed {
		return 0, net.ErrClosed
	}
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.chunk
	if n > len(p) {
		n = len(p)
	}
	if n > len(c.data) {
		n = len(c.data)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	c.reads++
	return n, nil
}

func (c *chunkedConn) Write(p []byte) (int, error)        { return len(p), nil }
func (c *chunkedConn) Close() error                       { c.closed = true; return nil }
func (c *chunkedConn) LocalAddr() net.Addr                { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1} }
func (c *chunkedConn) RemoteAddr() net.Addr               { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 2} }
func (c *chunkedConn) SetDeadline(t time.Time) error      { return nil }
func (c *chunkedConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *chunkedConn) SetWriteDeadline(t time.Time) error { return nil }

// shortWriteConn accepts at most limit bytes per Write.
type shortWriteConn struct {
	chunkedConn
	limit   int
	written []byte
	writes  int
}

func (c *shortWriteConn) Write(p []byte) (int, error) {
	c.writes++
	n := len(p)
	if n > c.limit {
		n = c.limit
	}
	c.written = append(c.written, p[:n]...)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// mockCodec passes payloads through unchanged unless overridden.
type mockCodec struct {
	encodeFunc func(*Frame) ([]byte, error)
	decodeFunc func([]byte) (*Frame, error)
}

func (c *mockCodec) Encode(f *Frame) ([]byte, error) {
	if c.encodeFunc != nil {
		return c.encodeFunc(f)
	}
	return f.Data, nil
}

func (c *mockCodec) Decode(b []byte) (*Frame, error) {
	if c.decodeFunc != nil {
		return c.decodeFunc(b)
	}
	return &Frame{Data: b}, nil
}

type presented struct {
	connID string
	data   []byte
}

// mockSink records presented frames and released views.
type mockSink struct {
	mu        sync.Mutex
	frames    chan presented
	released  chan string
	releases  map[string]int
	quitAfter int
	count     map[string]int
}

func newMockSink() *mockSink {
	return &mockSink{
		frames:   make(chan presented, 100),
		released: make(chan string, 100),
		releases: make(map[string]int),
		count:    make(map[string]int),
	}
}

func (s *mockSink) Present(connID string, f *Frame) error {
	s.mu.Lock()
	s.count[connID]++
	n := s.count[connID]
	s.mu.Unlock()

	s.frames <- presented{connID: connID, data: f.Data}
	if s.quitAfter > 0 && n >= s.quitAfter {
		return ErrQuit
	}
	return nil
}

func (s *mockSink) ReleaseView(connID string) {
	s.mu.Lock()
	s.releases[connID]++
	s.mu.Unlock()
	s.released <- connID
}

func (s *mockSink) releaseCount(connID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases[connID]
}

func (s *mockSink) nextFrame(t *testing.T) presented {
	t.Helper()
	select {
	case p := <-s.frames:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for frame")
		return presented{}
	}
}

func (s *mockSink) nextRelease(t *testing.T) string {
	t.Helper()
	select {
	case id := <-s.released:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for view release")
		return ""
	}
}

// mockSource yields the given payloads, then io.EOF.
type mockSource struct {
	mu       sync.Mutex
	payloads [][]byte
	next     int
	err      error
	closed   int
	block    bool
}

func (s *mockSource) NextFrame(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next < len(s.payloads) {
		p := s.payloads[s.next]
		s.next++
		return &Frame{Data: p, Seq: uint64(s.next - 1)}, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.block {
		// Endless source: repeat the last payload.
		return &Frame{Data: s.payloads[len(s.payloads)-1]}, nil
	}
	return nil, io.EOF
}

func (s *mockSource) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *mockSource) closedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// mockLogger records logged messages.
type mockLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *mockLogger) record(msg string) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Debug(msg string, args ...any) { l.record(msg) }
func (l *mockLogger) Info(msg string, args ...any)  { l.record(msg) }
func (l *mockLogger) Warn(msg string, args ...any)  { l.record(msg) }
func (l *mockLogger) Error(msg string, args ...any) { l.record(msg) }

func (l *mockLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if m == msg {
			return true
		}
	}
	return false
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}
