package cmd

import (
	"context"
	"fmt"

	"github.com/driftware/vaultindex/internal/chain/manifest"
	"github.com/driftware/vaultindex/internal/config"
	"github.com/driftware/vaultindex/internal/infrastructure/sqlite"
	"github.com/driftware/vaultindex/internal/log"
	"github.com/driftware/vaultindex/internal/registry/application"
	"github.com/driftware/vaultindex/internal/tracing"
)

// env bundles the wired subsystems behind a command: the registry
// database, the manifest-backed chain view, and the service on top.
type env struct {
	DB      *sqlite.DB
	Store   *manifest.Store
	Service *application.Service

	tracer  *tracing.Provider
	cleanup []func()
}

// openEnv wires the full stack from the loaded config. Callers must
// Close the returned env.
func openEnv() (*env, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	e := &env{}

	// The logger is process-global and init-once, so its file stays open
	// for the life of the process rather than the life of one env.
	_, _ = log.Init(cfg.LogFile)
	log.SetEnabled(cfg.Debug)

	tracingCfg := cfg.Tracing
	if tracingCfg.Enabled && tracingCfg.Exporter == "file" && tracingCfg.FilePath == "" {
		tracingCfg.FilePath = config.DefaultTracesFilePath()
	}
	tracer, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	e.tracer = tracer
	e.cleanup = append(e.cleanup, func() { _ = tracer.Shutdown(context.Background()) })

	store, err := manifest.Open(cfg.ManifestPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("load manifest %s: %w", cfg.ManifestPath, err)
	}
	e.Store = store

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open registry database %s: %w", cfg.DBPath, err)
	}
	e.DB = db
	e.cleanup = append(e.cleanup, func() { _ = db.Close() })

	service, err := application.NewService(application.Config{
		Repository: db.RegistryRepository(),
		Releases:   store,
		Factories:  manifest.NewDialer(store),
		Code:       manifest.NewCachedCodeReader(store, false),
		Strategies: manifest.NewCachedStrategyReader(store, false),
		EventLog:   db.EventLog(),
		Tracer:     tracer.Tracer(),
	})
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("build registry service: %w", err)
	}
	e.Service = service
	e.cleanup = append(e.cleanup, service.Close)

	return e, nil
}

// Close tears down everything openEnv wired, newest first.
func (e *env) Close() {
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
	e.cleanup = nil
}
