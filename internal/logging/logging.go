// Package logging wires a single process-wide slog JSON logger. Components
// derive children with New("component") so log lines stay attributable
// without threading loggers through every constructor.
package logging

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once sync.Once
	base *slog.Logger
)

// Init configures the global logger exactly once.
func Init(component string) *slog.Logger {
	once.Do(func() {
		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
		base = slog.New(h).With("component", component)
	})
	return base
}

// Base returns the global logger, initializing a default one if needed.
func Base() *slog.Logger {
	if base == nil {
		return Init("app")
	}
	return base
}

// New returns a child logger derived from the global one.
func New(component string) *slog.Logger {
	return Base().With("component", component)
}
