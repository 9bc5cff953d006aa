package msci

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with msci-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRunID tags the logger with the run identifier assigned at setup.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithRank adds the rank of the current process to the logger.
func (l *Logger) WithRank(rank int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rank", rank),
	}
}

// WithOrbitals adds an orbital count field to the logger.
func (l *Logger) WithOrbitals(n uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("n_orbs", n),
	}
}

// LogQueueBuild logs the outcome of an excitation queue build.
func (l *Logger) LogQueueBuild(ctx context.Context, entries uint64, maxAbs float64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "queue build failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "queue build completed",
			"entries", entries,
			"max_abs", maxAbs,
			"elapsed", elapsed,
		)
	}
}

// LogReplication logs a snapshot broadcast to the other ranks.
func (l *Logger) LogReplication(ctx context.Context, what string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "replication failed",
			"what", what,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "replication completed",
			"what", what,
			"bytes", bytes,
		)
	}
}

// LogGreenSolve logs one Green's-function run at a single frequency point.
func (l *Logger) LogGreenSolve(ctx context.Context, omega, eta float64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "green solve failed",
			"omega", omega,
			"eta", eta,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "green solve completed",
			"omega", omega,
			"eta", eta,
			"elapsed", elapsed,
		)
	}
}
