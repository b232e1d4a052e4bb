package config

import (
	"context"
	"io"
	"log/slog"
)

// loggerKey is used to store the logger in a command context. It lives
// here so the commands package can retrieve it without an import cycle
// with the cli package.
type loggerKey struct{}

// NewLogger builds the CLI logger: a text handler on w, debug level when
// verbose.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithLogger stores the logger in a context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from a context, falling back to a discard
// logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
