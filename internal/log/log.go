// Package log is the process-wide structured logger. Messages go to stderr
// so that stdout stays free for command output and the MCP stdio transport.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// ParseLevel maps debug, info, warn and error to a slog level. Anything
// else is info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init sets up logging with the given level and optional extra writer.
func Init(level string, extra io.Writer) {
	var w io.Writer = os.Stderr
	if extra != nil {
		w = io.MultiWriter(os.Stderr, extra)
	}
	SetOutput(w, level)
}

// SetOutput replaces the destination entirely.
func SetOutput(w io.Writer, level string) {
	logger.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})))
}

// Logger returns the current logger, for components taking a *slog.Logger.
func Logger() *slog.Logger { return logger.Load() }

func Debug(msg string, args ...any) { logger.Load().Debug(msg, args...) }
func Info(msg string, args ...any)  { logger.Load().Info(msg, args...) }
func Warn(msg string, args ...any)  { logger.Load().Warn(msg, args...) }
func Error(msg string, args ...any) { logger.Load().Error(msg, args...) }
