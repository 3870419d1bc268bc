// SPDX-License-Identifier: GPL-3.0-or-later

package framer

// SLogger abstracts the [*slog.Logger] behavior.
//
// This package uses two log levels:
//   - Info for connection and framing events (connect, disconnect, clear,
//     blocking changes, framed reads)
//   - Debug for per-I/O events (read, write, set deadline, close)
//
// The [*slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns the default [SLogger] to use.
//
// The default is a no-op logger that discards all output. Use a
// custom [*slog.Logger] for emitting logs.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {}
