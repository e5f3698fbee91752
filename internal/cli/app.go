package cli

import (
	"log/slog"

	"queuectl/internal/engine"
	"queuectl/internal/logger"
	"queuectl/internal/store"
)

// App carries the shared state behind every command: resolved paths,
// the lazily opened store, and the process logger.
type App struct {
	DBPath      string
	RegistryDir string
	Log         *slog.Logger

	st *store.Store
}

// NewApp returns an App with the default logger. Paths are filled in
// from flags, falling back to the ~/.queuectl defaults on first use.
func NewApp() *App {
	return &App{Log: logger.New()}
}

// Store opens the queue database on first use and reuses it afterwards.
func (a *App) Store() (*store.Store, error) {
	if a.st != nil {
		return a.st, nil
	}
	if a.DBPath == "" {
		path, err := store.DefaultPath()
		if err != nil {
			return nil, err
		}
		a.DBPath = path
	}
	st, err := store.NewStore(a.DBPath)
	if err != nil {
		return nil, err
	}
	a.st = st
	return st, nil
}

// Registry returns the worker liveness registry.
func (a *App) Registry() (engine.Registry, error) {
	if a.RegistryDir == "" {
		dir, err := engine.DefaultRegistryDir()
		if err != nil {
			return nil, err
		}
		a.RegistryDir = dir
	}
	return engine.NewFileRegistry(a.RegistryDir), nil
}

// Supervisor builds the worker supervisor. The store must have been
// opened first so spawned workers inherit a concrete database path.
func (a *App) Supervisor() (*engine.Supervisor, error) {
	if _, err := a.Store(); err != nil {
		return nil, err
	}
	reg, err := a.Registry()
	if err != nil {
		return nil, err
	}
	return engine.NewSupervisor(reg, a.DBPath, a.RegistryDir, a.Log), nil
}
