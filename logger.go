package framerelay

import "log/slog"

// Logger is the structured logger used by servers, clients and connections.
// *slog.Logger satisfies it, and so does the zap adapter in package observability.
// Arguments after msg are alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// defaultLogger returns the default slog logger from the standard library.
func defaultLogger() Logger {
	return slog.Default()
}
