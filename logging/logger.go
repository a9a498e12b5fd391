// Package logging provides a tiny abstraction so downstream code can depend
// on a minimal interface (Logger) while allowing users to plug any structured
// logger. A zerolog-backed adapter is provided for applications; the no-op
// logger is the library default.
package logging

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Logger defines the minimal structured logging interface used throughout
// TaskWeave. Args are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}

// ZerologAdapter wraps a zerolog.Logger to implement the Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a Logger from an existing zerolog.Logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// New creates a zerolog-backed Logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) *ZerologAdapter {
	return &ZerologAdapter{logger: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func (z *ZerologAdapter) emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		ev = ev.Interface(fmt.Sprint(args[i]), args[i+1])
	}
	ev.Msg(msg)
}

// Debug logs at debug level.
func (z *ZerologAdapter) Debug(msg string, args ...any) { z.emit(z.logger.Debug(), msg, args) }

// Info logs at info level.
func (z *ZerologAdapter) Info(msg string, args ...any) { z.emit(z.logger.Info(), msg, args) }

// Warn logs at warn level.
func (z *ZerologAdapter) Warn(msg string, args ...any) { z.emit(z.logger.Warn(), msg, args) }

// Error logs at error level.
func (z *ZerologAdapter) Error(msg string, args ...any) { z.emit(z.logger.Error(), msg, args) }
