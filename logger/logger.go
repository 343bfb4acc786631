// Package logger configures the process-wide structured logger. Components
// take a named child via For so every line carries where it came from.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu    sync.RWMutex
	level = new(slog.LevelVar)
	base  = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
)

// Init replaces the base logger. Level is one of debug, info, warn, error;
// anything else falls back to info.
func Init(lvl string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	level.Set(ParseLevel(lvl))
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})

	mu.Lock()
	defer mu.Unlock()
	base = slog.New(h)
}

// SetLevel changes the level of every logger handed out so far.
func SetLevel(lvl string) {
	level.Set(ParseLevel(lvl))
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// For returns a logger tagged with component, e.g. "INDEXER" or "SERVICE".
func For(component string) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With("component", component)
}

// Discard silences all output. Tests use it to keep go test -v readable.
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	base = slog.New(slog.NewTextHandler(io.Discard, nil))
}
