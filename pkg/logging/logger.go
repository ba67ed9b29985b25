// Package logging configures zerolog for the dye name fetcher.
//
// Logs go to stderr so stdout carries only the run report (banner, progress
// lines, summary) and can be redirected on its own.
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

// LogLevel is the value of --log-level / LOG_LEVEL.
type LogLevel string

const (
	// LevelDebug logs every request attempt and pacing decision.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs progress and the run summary.
	LevelInfo LogLevel = "info"

	// LevelWarn logs retries, skipped input entries and missing names.
	LevelWarn LogLevel = "warn"

	// LevelError logs exhausted fetches and fatal errors only.
	LevelError LogLevel = "error"
)

var zerologLevels = map[LogLevel]zerolog.Level{
	LevelDebug: zerolog.DebugLevel,
	LevelInfo:  zerolog.InfoLevel,
	LevelWarn:  zerolog.WarnLevel,
	LevelError: zerolog.ErrorLevel,
}

// ParseLevel validates a level name from the command line. Case is ignored
// and "warning" is accepted for warn.
func ParseLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if level == "warning" {
		level = LevelWarn
	}
	if _, ok := zerologLevels[level]; !ok {
		return "", fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
	return level, nil
}

// Config controls where run logs go and how they look.
type Config struct {
	Level LogLevel

	// Pretty selects the console writer; otherwise one JSON object per line.
	Pretty bool

	// NoColor disables ANSI colors in pretty output, e.g. when stderr is
	// captured to a file.
	NoColor bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig is the CLI's setup: info level, colored console on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: true,
		Output: os.Stderr,
	}
}

// Setup installs the global logger. Unknown levels log at info.
func Setup(cfg Config) zerolog.Logger {
	level, ok := zerologLevels[cfg.Level]
	if !ok {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: cfg.NoColor}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// NewLogger returns the global logger tagged with a component
// ("xivapi-client", "pacer", "batch").
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ForFetch scopes logger to one (item, language) fetch.
func ForFetch(logger zerolog.Logger, itemID int, language string) zerolog.Logger {
	return logger.With().Int("item_id", itemID).Str("language", language).Logger()
}

// Fields used across packages:
//   - item_id, language: the fetch (see ForFetch)
//   - status_code: HTTP status of the failed attempt
//   - error_class: rate_limit, server, timeout, not_found, client, network, missing_name, canceled
//   - attempt / retry / max_retries: retry loop position
//   - backoff: wait before the next attempt
//   - waited: time spent waiting on the pacer
