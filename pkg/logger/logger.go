package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Log returns the process-wide structured logger. It discards output until InitLogger is called.
func Log() *slog.Logger {
	return current.Load()
}

// Options controls how the global logger is built
type Options struct {
	Debug  bool
	Format string    // "text" or "json"
	Output io.Writer // defaults to os.Stderr
}

// InitLogger initializes the global logger
func InitLogger(opts Options) {
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if opts.Debug {
		handlerOpts.Level = slog.LevelDebug
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	log := slog.New(handler)
	current.Store(log)
	slog.SetDefault(log)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Log().Info(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Log().Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Log().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Log().Error(msg, args...)
}

// With creates a new logger with additional context
func With(args ...any) *slog.Logger {
	return Log().With(args...)
}
