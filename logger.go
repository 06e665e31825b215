package tilefit

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with tilefit-specific context.
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

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithSamples adds a sample-count field to the logger.
func (l *Logger) WithSamples(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("samples", n),
	}
}

// LogBuild logs a model build.
func (l *Logger) LogBuild(ctx context.Context, leaves, maxDepth int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"leaves", leaves,
			"max_depth", maxDepth,
			"elapsed", elapsed,
		)
	}
}

// LogEvaluate logs a model evaluation.
func (l *Logger) LogEvaluate(ctx context.Context, tileID uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluate failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "evaluate completed",
			"tile", tileID,
		)
	}
}

// LogLocate logs a tile lookup.
func (l *Logger) LogLocate(ctx context.Context, tileID uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "locate failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "locate completed",
			"tile", tileID,
		)
	}
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op, target string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"target", target,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"op", op,
			"target", target,
			"bytes", size,
		)
	}
}
