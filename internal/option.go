package internal

import (
	"io"
	"time"

	"github.com/starford/fieldaudit/internal/clock"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	clock     clock.Clock
	heartbeat time.Duration
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput sets where structured logs are written. The MCP command
// keeps stdout for the protocol and logs to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithClock replaces the wall clock used for autosave and timestamps.
func WithClock(c clock.Clock) Option {
	return func(a *application) {
		a.clock = c
	}
}

// WithHeartbeat sets the SSE keep-alive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(a *application) {
		a.heartbeat = d
	}
}
