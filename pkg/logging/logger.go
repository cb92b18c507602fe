// Package logging configures the process-wide zerolog logger used by every
// collector component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelTrace adds per-request pacing waits.
	LevelTrace LogLevel = "trace"

	// LevelDebug adds per-request and per-page events.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs run milestones and progress snapshots.
	LevelInfo LogLevel = "info"

	// LevelWarn logs dropped records and failed items.
	LevelWarn LogLevel = "warn"

	// LevelError logs fatal run errors only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output is the destination (default: os.Stderr). Stdout stays free for
	// command output.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it. Call it before
// constructing components; they derive their loggers from the global one.
func Setup(cfg Config) zerolog.Logger {
	level, err := ParseLevel(string(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.TimeOnly}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to a zerolog.Level. The empty string
// means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q (want trace, debug, info, warn or error)", level)
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Trace: request pacing (time spent in the rate limiter)
//
// Debug: request URLs, pages fetched, detail cache hits
//
// Info: run start lines, per-prefecture summaries, progress snapshots,
// final "OK" lines, metrics server startup
//
// Warn: records dropped for an invalid corporate number, failed detail
// fetches (the run continues), non-2xx responses, cache errors, page cap
// reached
//
// Error: fatal run errors (configuration, page fetch, file I/O)
//
// Context Fields:
//   - component: gbiz-client, collector, cache, cli
//   - phase: dump or hydrate
//   - prefecture, page: list paging position
//   - corporate_number: the item a warning refers to
//   - endpoint, status, error_class: upstream request outcome
//   - processed, total, added, skipped, errors, rate, eta, elapsed: progress
