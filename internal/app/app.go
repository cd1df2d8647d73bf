package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keelproject/keel/internal/boot"
	"github.com/keelproject/keel/internal/catalog"
	"github.com/keelproject/keel/internal/config"
	"github.com/keelproject/keel/internal/container"
	"github.com/keelproject/keel/internal/ctxlog"
	"github.com/keelproject/keel/internal/manifest"
	"github.com/keelproject/keel/internal/metrics"
	"github.com/keelproject/keel/internal/registry"
)

// App encapsulates one keel runtime: its configuration, logger, component
// catalog, validated registry, container and bootstrap orchestrator.
type App struct {
	outW     io.Writer
	cfg      *config.Config
	logger   *slog.Logger
	catalog  *catalog.Catalog
	registry *registry.Registry
	report   *registry.Report

	collector    *metrics.Collector
	promRegistry *prometheus.Registry

	container *container.Container
	orch      *boot.Orchestrator

	httpServer *http.Server
	ready      atomic.Bool
}

// New is the constructor for the main application. It returns a fully
// initialized App instance with its manifests loaded, its component modules
// registered and its registry validated. Startup failures panic; the CLI
// entrypoint recovers them into a clean exit.
func New(outW io.Writer, cfg *config.Config, loader manifest.Loader, modules ...catalog.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the catalog with compiled-in component modules.
	cat := catalog.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(cat)
	}
	logger.Debug("Component modules registered.", "count", len(modules), "kinds", cat.Kinds())

	// Load all declarations into the format-agnostic model first.
	model, err := loader.Load(ctx, cfg.ManifestPaths...)
	if err != nil {
		// A failure to load manifests is a fatal startup error.
		panic(fmt.Errorf("failed to load manifests: %w", err))
	}
	logger.Debug("Manifests loaded.", "components", len(model.Components))

	// Translate the declarations into registry bindings.
	reg := registry.New()
	if err := manifest.Translate(ctx, model, cat, reg, cfg.Profiles); err != nil {
		panic(fmt.Errorf("failed to translate manifests: %w", err))
	}
	reg.Freeze()

	// Validate the integrity of the registry. The error aggregates every
	// problem found, so one failed start reports them all.
	report, err := reg.Validate(ctx)
	if err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.", "bindings", report.Checked, "duration", report.Duration)

	if reg.Len() == 0 {
		logger.Warn("No components declared in manifests.", "paths", cfg.ManifestPaths)
	}

	collector := metrics.NewCollector()
	promRegistry := prometheus.NewRegistry()
	collector.Register(promRegistry)

	return &App{
		outW:         outW,
		cfg:          cfg,
		logger:       logger,
		catalog:      cat,
		registry:     reg,
		report:       report,
		collector:    collector,
		promRegistry: promRegistry,
	}
}

// Registry returns the application's validated registry. This is primarily
// for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Container returns the built container. It is nil until Boot has run.
func (a *App) Container() *container.Container {
	return a.container
}

// Ready reports whether the bootstrap sequence has completed.
func (a *App) Ready() bool {
	return a.ready.Load()
}
