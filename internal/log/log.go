// Package log provides structured logging for go-posture.
// It wraps slog with sensible defaults and an optional rotating log file.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the global logger
type Options struct {
	Level string // "debug", "info", "warn", "error"
	JSON  bool   // Force JSON output; also enabled by GO_ENV=production

	// File enables a rotating log file next to stdout
	File       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

// DefaultOptions logs info to stdout only
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		MaxSizeMB:  100,
		MaxAgeDays: 7,
		MaxBackups: 3,
	}
}

var (
	logger *slog.Logger
	file   *lumberjack.Logger
	once   sync.Once
)

// Init initializes the global logger. Only the first call has an effect.
func Init(opts Options) {
	once.Do(func() {
		logger, file = New(opts, os.Stdout)
		slog.SetDefault(logger)
	})
}

// New builds a logger writing to out and, when opts.File is set, to a
// rotating file. The returned file is nil when no file is configured.
func New(opts Options, out io.Writer) (*slog.Logger, *lumberjack.Logger) {
	var rotating *lumberjack.Logger
	w := out
	if opts.File != "" {
		rotating = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxAge:     opts.MaxAgeDays,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
			Compress:   true,
		}
		w = io.MultiWriter(out, rotating)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	}

	// Use JSON in production, text in development
	if opts.JSON || os.Getenv("GO_ENV") == "production" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), rotating
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), rotating
}

// ParseLevel maps a level name to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Init(DefaultOptions())
	}
	return logger
}

// Close flushes and closes the log file, if any
func Close() error {
	if file == nil {
		return nil
	}
	return file.Close()
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
