// Package log provides the structured logging interface used across goautoml.
//
// The Logger interface is a small, slog-compatible surface. The production
// implementation is backed by zerolog (see NewZerologProvider); tests use
// TestLogger which captures JSON lines in memory.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("pipeline").With(
//	    log.PipelineNameKey, p.Name(),
//	    log.PipelineIDKey, p.ID(),
//	)
//	logger.Info("pipeline fitted",
//	    log.SamplesKey, 1000,
//	    log.DurationMsKey, 42,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
// Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)

	// Error logs at error level. If the first field is an error it is
	// attached as the record's error, together with its stack trace.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates loggers. Packages hold a provider-derived logger
// rather than a concrete backend so tests can inject a TestLoggerProvider.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
