// Package logging provides the structured logger the rest of this
// module emits through. It mirrors the teacher's log/slog-based
// pkg/logger: a package-global logger, level/sink selectable by
// environment variable for operational convenience, falling back to an
// Info-level stdout writer when unconfigured so a caller that never
// calls Init still gets output instead of a nil-pointer panic.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu  sync.RWMutex
	log *slog.Logger = defaultLogger()
)

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Init initializes the global logger, honoring FOLLOWSTORE_LOG_LEVEL
// ("debug", "info", "warn", "error") and FOLLOWSTORE_LOG_SINK
// ("file:<path>") if set.
func Init() {
	level := parseLevel(os.Getenv("FOLLOWSTORE_LOG_LEVEL"))
	sink := os.Getenv("FOLLOWSTORE_LOG_SINK")

	if strings.HasPrefix(sink, "file:") {
		path := strings.TrimPrefix(sink, "file:")
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640); err == nil {
			setLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
			return
		}
	}
	setLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// SetLogger overrides the global logger directly, for callers embedding
// this module in a process with its own logging setup.
func SetLogger(l *slog.Logger) {
	if l != nil {
		setLogger(l)
	}
}

func setLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Debug logs with slog-style key/value pairs.
func Debug(msg string, args ...any) { current().Debug(msg, args...) }

// Info logs with slog-style key/value pairs.
func Info(msg string, args ...any) { current().Info(msg, args...) }

// Warn logs with slog-style key/value pairs.
func Warn(msg string, args ...any) { current().Warn(msg, args...) }

// Error logs with slog-style key/value pairs.
func Error(msg string, args ...any) { current().Error(msg, args...) }
