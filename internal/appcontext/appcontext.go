// Package appcontext provides the shared application context interface
// used by all commands. Commands accept this interface rather than the
// concrete App so they can be tested against a mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/propsync"
)

// Interface defines what commands need from the application.
type Interface interface {
	// Engine returns the default engine, creating it lazily if needed.
	Engine() (propsync.Engine, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, markdown).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
