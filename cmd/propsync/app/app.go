// Package app provides the application context and dependency management
// for the propsync CLI. It centralizes configuration, logging and the
// lazily created engine.
package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/propsync"
	"github.com/agentstation/propsync/internal/appcontext"
	"github.com/agentstation/propsync/internal/sources/local"
	"github.com/agentstation/propsync/internal/sources/tableapi"
	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/sources"
	"github.com/agentstation/propsync/pkg/store"
	"github.com/agentstation/propsync/pkg/store/memory"
	"github.com/agentstation/propsync/pkg/store/sqlite"
)

// App represents the propsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Engine instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	engine propsync.Engine
}

var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Engine returns the engine instance, creating it lazily if needed.
func (a *App) Engine() (propsync.Engine, error) {
	a.mu.RLock()
	if a.engine != nil {
		e := a.engine
		a.mu.RUnlock()
		return e, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.engine != nil {
		return a.engine, nil
	}

	e, err := a.newEngine()
	if err != nil {
		return nil, err
	}
	a.engine = e
	return e, nil
}

// Shutdown closes the engine and its store.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	e := a.engine
	a.engine = nil
	a.mu.Unlock()

	if e == nil {
		return nil
	}
	if err := e.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close engine during shutdown")
		return err
	}
	return nil
}

func (a *App) newEngine() (propsync.Engine, error) {
	if err := a.config.Validate(); err != nil {
		return nil, errors.NewConfigError("app", err.Error(), nil)
	}

	cfg, err := a.loadMapping()
	if err != nil {
		return nil, err
	}
	backend, err := a.openBackend()
	if err != nil {
		return nil, err
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}

	opts := []propsync.Option{
		propsync.WithConfig(cfg),
		propsync.WithBackend(backend),
		propsync.WithStore(st),
		propsync.WithDryRun(a.config.DryRun),
		propsync.WithPropagation(a.config.Propagate),
		propsync.WithWriteConcurrency(a.config.WriteConcurrency),
	}
	if a.config.FetchTimeout > 0 {
		opts = append(opts, propsync.WithFetchTimeout(a.config.FetchTimeout))
	}

	e, err := propsync.New(opts...)
	if err != nil {
		_ = st.Close()
		return nil, errors.WrapResource("create", "engine", "", err)
	}
	return e, nil
}

func (a *App) loadMapping() (config.Config, error) {
	if a.config.MappingFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(a.config.MappingFile)
	if err != nil {
		return config.Config{}, errors.WrapResource("load", "mapping", a.config.MappingFile, err)
	}
	return cfg, nil
}

func (a *App) openBackend() (sources.Backend, error) {
	switch a.config.Source {
	case SourceLocal:
		src, err := local.Open(a.config.FixturePath)
		if err != nil {
			return nil, errors.WrapResource("open", "fixture", a.config.FixturePath, err)
		}
		return src, nil
	default:
		return tableapi.New(a.config.BaseURL, a.config.APIToken), nil
	}
}

func (a *App) openStore() (store.Store, error) {
	path := a.config.Database
	if path == DatabaseMemory {
		return memory.New(), nil
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", filepath.Dir(path), err)
		}
	}
	return sqlite.Open(path)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) error {
		a.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithEngine sets a custom engine instance (useful for testing).
func WithEngine(e propsync.Engine) Option {
	return func(a *App) error {
		a.engine = e
		return nil
	}
}
