package framerelay

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// State is the lifecycle state of a Server.
type State int32

// Server lifecycle: Stopped -> Starting -> Running -> Stopping -> Stopped.
const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// QuitScope selects what a FrameSink quit request terminates.
type QuitScope int

const (
	// QuitConnection ends only the connection whose frame triggered the quit.
	QuitConnection QuitScope = iota
	// QuitServer additionally stops the server from accepting new connections.
	QuitServer
)

// Server accepts producer connections, admits them against a fixed number of
// slots and hands every decoded frame to a FrameSink.
//
// Stop only closes the listener. Connections admitted earlier keep streaming
// until their producer disconnects or the sink asks to quit.
type Server struct {
	codec     Codec
	sink      FrameSink
	admission *Admission
	logger    Logger
	quitScope QuitScope
	connOpts  []Option

	mu        sync.Mutex
	state     State
	listener  net.Listener
	done      chan struct{} // closed when the accept loop exits
	acceptErr error
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server and its connections.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// CapacityOption sets the number of connections served at the same time.
// Non-positive values select DefaultCapacity.
func CapacityOption(capacity int) ServerOption {
	return func(s *Server) {
		s.admission = NewAdmission(capacity)
	}
}

// QuitScopeOption sets what a quit request from the sink terminates.
// Default is QuitConnection.
func QuitScopeOption(scope QuitScope) ServerOption {
	return func(s *Server) {
		s.quitScope = scope
	}
}

// ServerConnOptions sets the options applied to every admitted connection.
func ServerConnOptions(opts ...Option) ServerOption {
	return func(s *Server) {
		s.connOpts = append(s.connOpts, opts...)
	}
}

// NewServer creates a stopped server that decodes frames with codec and
// presents them on sink.
func NewServer(codec Codec, sink FrameSink, opts ...ServerOption) (*Server, error) {
	if codec == nil {
		return nil, ErrInvalidCodec
	}
	if sink == nil {
		return nil, ErrInvalidSink
	}

	s := &Server{
		codec:     codec,
		sink:      sink,
		admission: NewAdmission(DefaultCapacity),
		logger:    defaultLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start binds addr and begins accepting connections in the background.
// If the server is already running it reports so and returns false without error.
func (s *Server) Start(addr string) (bool, error) {
	s.mu.Lock()
	if s.state != StateStopped {
		state := s.state
		s.mu.Unlock()
		s.logger.Info(busyMessage(state), "state", state.String())
		return false, nil
	}
	s.state = StateStarting
	s.mu.Unlock()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.setState(StateStopped)
		return false, errors.Wrapf(err, "listen %s", addr)
	}

	done := make(chan struct{})

	s.mu.Lock()
	s.listener = listener
	s.done = done
	s.acceptErr = nil
	s.state = StateRunning
	s.mu.Unlock()

	s.logger.Info("server started", "addr", listener.Addr(), "capacity", s.admission.Capacity())
	go s.acceptLoop(listener, done)

	return true, nil
}

// Serve starts the server on addr and blocks until ctx is canceled or the
// accept loop ends, then stops the server.
// It returns ctx.Err() after a cancellation and the accept error otherwise.
func (s *Server) Serve(ctx context.Context, addr string) error {
	started, err := s.Start(addr)
	if err != nil || !started {
		return err
	}

	done := s.Done()
	select {
	case <-ctx.Done():
	case <-done:
	}

	if s.State() == StateRunning {
		if _, err := s.Stop(); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acceptErr
}

// Stop closes the listener and waits for the accept loop to exit.
// If the server is not running it reports so and returns false without error.
func (s *Server) Stop() (bool, error) {
	s.mu.Lock()
	if s.state != StateRunning {
		state := s.state
		s.mu.Unlock()
		s.logger.Info("server is not running", "state", state.String())
		return false, nil
	}
	s.state = StateStopping
	listener, done := s.listener, s.done
	s.mu.Unlock()

	err := listener.Close()
	<-done

	s.mu.Lock()
	s.listener = nil
	s.state = StateStopped
	s.mu.Unlock()

	s.logger.Info("server stopped", "addr", listener.Addr(), "used_slots", s.admission.Used())

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return true, errors.Wrap(err, "close listener")
	}
	return true, nil
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the listener's network address, or nil when the server is not listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Done returns a channel that is closed when the current accept loop exits.
// It returns nil if the server was never started.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// UsedSlots returns the number of admitted connections still streaming.
func (s *Server) UsedSlots() int {
	return s.admission.Used()
}

// Capacity returns the number of slots.
func (s *Server) Capacity() int {
	return s.admission.Capacity()
}

// busyMessage describes why Start has nothing to do in state.
func busyMessage(state State) string {
	switch state {
	case StateStarting:
		return "server is starting"
	case StateStopping:
		return "server is stopping"
	default:
		return "server is already running"
	}
}

func (s *Server) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// acceptLoop hands every accepted connection to its own goroutine.
// It never blocks on connection I/O.
func (s *Server) acceptLoop(listener net.Listener, done chan struct{}) {
	defer close(done)

	for {
		rawConn, err := listener.Accept()
		if err != nil {
			if s.State() == StateStopping || errors.Is(err, net.ErrClosed) {
				s.logger.Debug("accept loop stopped", "addr", listener.Addr())
				return
			}

			// Check if it's a temporary error
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			s.logger.Error("accept error", "error", err)
			s.fail(listener, errors.Wrap(err, "accept"))
			return
		}

		s.logger.Debug("accepted connection", "remote_addr", rawConn.RemoteAddr())
		if tcpConn, ok := rawConn.(*net.TCPConn); ok {
			_ = tcpConn.SetNoDelay(true)
		}
		go s.handle(rawConn)
	}
}

// fail records a fatal accept error and moves a running server to Stopped.
// A concurrent Stop owns the transition instead.
func (s *Server) fail(listener net.Listener, err error) {
	s.mu.Lock()
	s.acceptErr = err
	owned := s.state == StateRunning
	if owned {
		s.state = StateStopped
		s.listener = nil
	}
	s.mu.Unlock()

	if owned {
		_ = listener.Close()
		s.logger.Info("server stopped", "addr", listener.Addr(), "used_slots", s.admission.Used())
	}
}

// handle runs one connection from admission to cleanup.
func (s *Server) handle(rawConn net.Conn) {
	connID := rawConn.RemoteAddr().String()

	slot, err := s.admission.Acquire()
	if err != nil {
		s.logger.Warn("connection refused", "addr", connID, "error", err, "capacity", s.admission.Capacity())
		_ = rawConn.Close()
		return
	}

	opts := append([]Option{LoggerOption(s.logger)}, s.connOpts...)
	conn := NewConn(rawConn, opts...)
	s.logger.Info("new connection", "conn_id", conn.ID(), "addr", connID, "used_slots", s.admission.Used())

	frames, err := s.stream(slot, conn, connID)

	switch {
	case err == nil, errors.Is(err, ErrQuit):
		s.logger.Info("stream quit", "conn_id", conn.ID(), "addr", connID, "frames", frames)
	case IsStreamEnd(err):
		s.logger.Info("connection lost", "conn_id", conn.ID(), "addr", connID, "frames", frames, "error", err)
	default:
		s.logger.Warn("connection failed", "conn_id", conn.ID(), "addr", connID, "frames", frames, "error", err)
	}

	if errors.Is(err, ErrQuit) && s.quitScope == QuitServer {
		s.logger.Info("quit requested, stopping server", "addr", connID)
		if _, err := s.Stop(); err != nil {
			s.logger.Error("stop failed", "error", err)
		}
	}
}

// stream reads, decodes and presents frames until the stream ends.
// The slot, the connection and the sink view are released on every exit path.
func (s *Server) stream(slot *Slot, conn *Conn, connID string) (frames uint64, err error) {
	defer func() {
		slot.Release()
		_ = conn.Close()
		s.sink.ReleaseView(connID)
	}()

	for {
		payload, err := conn.ReadFrame()
		if err != nil {
			return frames, err
		}

		frame, err := s.codec.Decode(payload)
		if err != nil {
			return frames, errors.Wrap(err, "decode frame")
		}

		if err = s.sink.Present(connID, frame); err != nil {
			return frames, err
		}
		frames++
	}
}
