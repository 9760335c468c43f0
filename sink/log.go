// Package sink provides frame sinks for the relay server.
package sink

import (
	"sync"

	"github.com/Zereker/framerelay"
)

// Log reports every presented frame to a logger instead of drawing it.
type Log struct {
	logger framerelay.Logger

	mu     sync.Mutex
	frames map[string]uint64
}

var _ framerelay.FrameSink = (*Log)(nil)

// NewLog returns a sink that logs through logger.
func NewLog(logger framerelay.Logger) *Log {
	return &Log{logger: logger, frames: make(map[string]uint64)}
}

// Present logs the frame.
func (l *Log) Present(connID string, frame *framerelay.Frame) error {
	l.mu.Lock()
	l.frames[connID]++
	n := l.frames[connID]
	l.mu.Unlock()

	if n == 1 {
		l.logger.Info("view opened", "view", connID, "width", frame.Width, "height", frame.Height)
	}
	l.logger.Debug("frame", "view", connID, "n", n, "bytes", len(frame.Data), "width", frame.Width, "height", frame.Height)
	return nil
}

// ReleaseView logs the number of frames shown for connID and forgets it.
func (l *Log) ReleaseView(connID string) {
	l.mu.Lock()
	n := l.frames[connID]
	delete(l.frames, connID)
	l.mu.Unlock()

	l.logger.Info("view released", "view", connID, "frames", n)
}

// Frames returns how many frames connID presented so far.
func (l *Log) Frames(connID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames[connID]
}
