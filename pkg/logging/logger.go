// Package logging provides structured logging for propsync using zerolog.
// Console output is used when the log stream is a terminal, JSON everywhere
// else, so scheduled runs produce machine-readable logs by default.
//
// Example usage:
//
//	ctx = logging.WithRun(ctx, runID)
//	ctx = logging.WithPartition(ctx, "viwRenovation")
//	logging.FromContext(ctx).Debug().Int("records", 42).Msg("Partition fetched")
package logging

import (
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment variables read by the default logger.
const (
	EnvLevel  = "PROPSYNC_LOG_LEVEL"
	EnvFormat = "PROPSYNC_LOG_FORMAT"
	EnvFields = "PROPSYNC_LOG_FIELDS"
)

var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	SetDefault(NewLoggerFromConfig(FromEnv()))
}

// FromEnv returns the default configuration overlaid with PROPSYNC_LOG_*.
func FromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv(EnvLevel); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		cfg.Format = v
	}
	cfg.Fields = ParseFields(os.Getenv(EnvFields))
	return cfg
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger, including zerolog's global.
func SetDefault(logger zerolog.Logger) {
	defaultLogger.Store(&logger)
	log.Logger = logger
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event {
	return Default().Debug()
}

// Info starts an info event on the default logger.
func Info() *zerolog.Event {
	return Default().Info()
}

// Warn starts a warning event on the default logger.
func Warn() *zerolog.Event {
	return Default().Warn()
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
