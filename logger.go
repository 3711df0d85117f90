package tabiter

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// LevelTrace is the log level of per-row diagnostics (verbosity >= 3).
const LevelTrace = slog.LevelDebug - 4

// Logger wraps slog.Logger with tabiter-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// VerbosityLevel maps a verbosity to the minimum log level:
// <0 silent, 0 errors, 1 info, 2 debug, >=3 trace.
func VerbosityLevel(verbosity int) slog.Level {
	switch {
	case verbosity < 0:
		return slog.LevelError + 4
	case verbosity == 0:
		return slog.LevelError
	case verbosity == 1:
		return slog.LevelInfo
	case verbosity == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// LogError logs a report at the level of its severity.
func (l *Logger) LogError(e *Error) {
	attrs := []any{"op", e.Op, "error", e.Err}
	if e.Name != "" {
		attrs = append(attrs, "attribute", e.Name)
	}
	if e.Row >= 0 {
		attrs = append(attrs, "row", e.Row)
	}
	l.Log(context.Background(), e.Severity.Level(), e.Op+" failed", attrs...)
}

// LogBind logs a new attribute binding.
func (l *Logger) LogBind(name, typ string, created, external bool) {
	switch {
	case external:
		l.Info("use existing address", "attribute", name, "type", typ)
	case created:
		l.Info("create column", "attribute", name, "type", typ)
	default:
		l.Info("bind column", "attribute", name, "type", typ)
	}
}

// LogRead logs a single attribute read.
func (l *Logger) LogRead(name string, row int64, bytes int) {
	l.Log(context.Background(), LevelTrace, "read attribute",
		"attribute", name,
		"row", row,
		"bytes", bytes,
	)
}

// LogFill logs an appended row.
func (l *Logger) LogFill(row int64, bytes int) {
	l.Debug("filled row",
		"row", row,
		"bytes", bytes,
	)
}

// LogDefault logs an attribute that was not set before its row was filled.
func (l *Logger) LogDefault(name string, row int64) {
	l.Log(context.Background(), LevelTrace, "attribute not set, use type default",
		"attribute", name,
		"row", row,
	)
}

// LogCatchUp logs default rows appended to a column created late.
func (l *Logger) LogCatchUp(name string, rows int64) {
	l.Info("catch up attribute",
		"attribute", name,
		"rows", rows,
	)
}

// LogRebind logs re-registration of addresses after the slot cache moved.
func (l *Logger) LogRebind(slots int) {
	l.Info("slot cache reallocated, re-register addresses",
		"slots", slots,
	)
}

// LogFlush logs a flush operation.
func (l *Logger) LogFlush(ctx context.Context, bytes int64, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "flush completed",
			"bytes", bytes,
			"duration", duration,
		)
	}
}

// LogStats logs the counters of a table.
func (l *Logger) LogStats(s Stats) {
	if s.Hits+s.Misses > 0 {
		l.Info("attribute lookup cache",
			"hits", s.Hits,
			"misses", s.Misses,
			"hit_rate", s.HitRate(),
		)
	}
	if s.BytesFilled > 0 || s.BytesFlushed > 0 {
		l.Info("table written",
			"bytes_filled", s.BytesFilled,
			"bytes_flushed", s.BytesFlushed,
		)
	}
	if s.BytesRead > 0 {
		l.Info("table read",
			"bytes_read", s.BytesRead,
		)
	}
}
