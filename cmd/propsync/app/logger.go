package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/propsync/pkg/logging"
)

// NewLogger creates the CLI logger from the application configuration and
// installs it as the package default so library code logs through it.
// Log level precedence (highest to lowest):
//  1. --log-level flag
//  2. PROPSYNC_LOG_LEVEL or log_level in the config file (loaded into Config.LogLevel)
//  3. -v/--verbose flag (shortcut for debug)
//  4. -q/--quiet flag (shortcut for warn)
//  5. Default (info)
func NewLogger(config *Config) zerolog.Logger {
	// Resolve the level first
	level := determineLogLevel(config)

	// Build logging configuration
	logConfig := &logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: level == "debug" || level == "trace",
	}

	// Create the logger and make it the default for packages without a context logger
	logger := logging.NewLoggerFromConfig(logConfig)
	logging.SetDefault(logger)
	return logger
}

// determineLogLevel applies the precedence rules documented on NewLogger.
func determineLogLevel(config *Config) string {
	// An explicit level (flag, env or file) always wins
	if config.LogLevel != "" {
		validated := validateLogLevel(config.LogLevel)
		if validated != config.LogLevel {
			// Unknown level: tell the operator which one is used instead
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", config.LogLevel, validated)
		}
		return validated
	}

	// Conflicting shortcuts resolve to the quieter one
	if config.Verbose && config.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}

	// Boolean shortcuts
	if config.Verbose {
		return "debug"
	}
	if config.Quiet {
		return "warn"
	}

	// Default
	return "info"
}

// validateLogLevel returns level when zerolog knows it by that exact name
// and "info" otherwise. Matching is case sensitive.
func validateLogLevel(level string) string {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[level] {
		return level
	}

	return "info"
}
