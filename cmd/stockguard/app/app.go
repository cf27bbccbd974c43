// Package app holds the stockguard CLI application: configuration, logging,
// the lazily opened inventory store and the root command.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/stockguard/cmd/application"
	"github.com/agentstation/stockguard/pkg/errors"
	"github.com/agentstation/stockguard/pkg/inventory"
)

// App is the stockguard application. Commands receive it through the
// application.Application interface.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// store is opened on first use
	mu    sync.RWMutex
	store inventory.Store
}

var _ application.Application = (*App)(nil)

// Option customizes an App during New.
type Option func(*App) error

// WithStore injects a pre-built store instead of opening one from config.
func WithStore(store inventory.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// WithLogger replaces the logger built from config.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = &logger
		return nil
	}
}

// New creates an App with configuration loaded from files and environment.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
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

// Store returns the inventory store, opening it on first use. A configured
// data file selects the YAML-backed store; otherwise data lives in memory.
func (a *App) Store() (inventory.Store, error) {
	a.mu.RLock()
	if a.store != nil {
		store := a.store
		a.mu.RUnlock()
		return store, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}

	if a.config.DataFile == "" {
		a.logger.Debug().Msg("Using in-memory inventory store")
		a.store = inventory.NewMemoryStore()
		return a.store, nil
	}

	store, err := inventory.OpenFileStore(a.config.DataFile)
	if err != nil {
		return nil, errors.WrapResource("open", "store", a.config.DataFile, err)
	}
	a.logger.Debug().Str("path", a.config.DataFile).Msg("Opened file inventory store")
	a.store = store
	return a.store, nil
}

// Shutdown releases resources held by the application.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if closer, ok := a.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return errors.WrapResource("close", "store", "", err)
		}
	}
	a.store = nil
	return nil
}
