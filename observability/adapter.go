package observability

import (
	"go.uber.org/zap"

	"github.com/Zereker/framerelay"
)

// Logger adapts a zap logger to framerelay.Logger. Key-value arguments become
// zap fields.
type Logger struct {
	sugar *zap.SugaredLogger
}

var _ framerelay.Logger = (*Logger)(nil)

// NewLogger wraps l. The extra caller skip attributes log lines to the caller
// of the adapter rather than to this file.
func NewLogger(l *zap.Logger) *Logger {
	return &Logger{sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *Logger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }

func (l *Logger) Info(msg string, args ...any) { l.sugar.Infow(msg, args...) }

func (l *Logger) Warn(msg string, args ...any) { l.sugar.Warnw(msg, args...) }

func (l *Logger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

// Named returns a child logger with the given name segment.
func (l *Logger) Named(name string) *Logger {
	return &Logger{sugar: l.sugar.Named(name)}
}
