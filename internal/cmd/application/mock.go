// Package application provides test doubles for the command application context.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/propsync"
	"github.com/agentstation/propsync/internal/appcontext"
)

// Mock provides a mock implementation of appcontext.Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	engine, _ := propsync.New(propsync.WithBackend(src), propsync.WithStore(memory.New()))
//	mock := &application.Mock{
//	    EngineFunc: func() (propsync.Engine, error) {
//	        return engine, nil
//	    },
//	}
//	cmd := reconcile.NewCommand(mock)
type Mock struct {
	EngineFunc       func() (propsync.Engine, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Engine returns an engine using the mock function or nil.
func (m *Mock) Engine() (propsync.Engine, error) {
	if m.EngineFunc != nil {
		return m.EngineFunc()
	}
	return nil, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

var _ appcontext.Interface = (*Mock)(nil)
