package pulseout

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logLevel = new(slog.LevelVar)

	logMutex      sync.RWMutex
	defaultLogger *slog.Logger
)

func init() {
	logLevel.Set(slog.LevelWarn)
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// SetLogLevel sets the minimum level of the package logger.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLogger replaces the package logger. Outputs created with their own
// Config.Logger are not affected.
func SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	logMutex.Lock()
	defer logMutex.Unlock()
	defaultLogger = logger
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	logMutex.RLock()
	defer logMutex.RUnlock()

	return defaultLogger
}

// NewLogger creates a text logger writing to w at the package log level.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
