// Package application provides test doubles for the application interface
// consumed by stockguard commands.
package application

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/stockguard/cmd/application"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// Mock implements application.Application with overridable function fields.
// A nil field falls back to a default value.
//
//	mock := &application.Mock{
//	    StoreFunc: func() (inventory.Store, error) {
//	        return inventory.NewMemoryStore(), nil
//	    },
//	}
//	cmd := version.NewCommand(mock)
type Mock struct {
	StoreFunc   func() (inventory.Store, error)
	LoggerFunc  func() *zerolog.Logger
	VersionFunc func() string
	CommitFunc  func() string
	DateFunc    func() string
	BuiltByFunc func() string

	once  sync.Once
	store inventory.Store
}

var _ application.Application = (*Mock)(nil)

// Store returns the store from StoreFunc, or a lazily created memory store.
func (m *Mock) Store() (inventory.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	m.once.Do(func() { m.store = inventory.NewMemoryStore() })
	return m.store, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
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

// BuiltBy returns builder using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
