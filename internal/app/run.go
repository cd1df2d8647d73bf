package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/keelproject/keel/internal/boot"
	"github.com/keelproject/keel/internal/container"
	"github.com/keelproject/keel/internal/ctxlog"
	"github.com/keelproject/keel/internal/observability"
)

// Boot builds the container over the validated registry and drives the
// bootstrap phases: critical, parallel waves, background launch. On success
// the app flips to ready and the last-run metric gauges are refreshed.
func (a *App) Boot(ctx context.Context) (boot.StartupReport, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Building container from validated registry...")

	observer := observability.NewMultiObserver(
		observability.NewSlogObserver(a.logger),
		a.collector,
	)
	c, err := container.Build(a.registry, container.Options{Observer: observer})
	if err != nil {
		return boot.StartupReport{}, fmt.Errorf("failed to build container: %w", err)
	}
	a.container = c

	a.orch = boot.New(c, boot.Options{
		CriticalBudget:  a.cfg.CriticalBudget,
		Workers:         a.cfg.Workers,
		ParallelTimeout: a.cfg.PhaseTimeout,
	})

	report, err := a.orch.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("bootstrap failed: %w", err)
	}

	a.ready.Store(true)
	a.collector.RefreshSnapshot(a.orch.Metrics())
	a.logger.Info("🚀 Runtime ready.",
		"run_id", report.RunID,
		"bindings", a.registry.Len(),
		"background_tasks", report.BackgroundLaunched,
		"took", report.TotalDuration)
	return report, nil
}

// Run executes the full runtime lifecycle: boot, serve health endpoints,
// block until the context is cancelled, then release every constructed
// instance. With DryRun set it stops after validation without constructing
// anything.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.DryRun {
		a.logger.Info("Dry run complete, registry is valid.", "bindings", a.report.Checked)
		return nil
	}

	if a.cfg.HealthcheckAddr != "" {
		a.startHealthcheckServer(ctx)
	}

	if _, err := a.Boot(ctx); err != nil {
		return errors.Join(err, a.closeHealthcheckServer(context.WithoutCancel(ctx)))
	}

	<-ctx.Done()
	a.logger.Info("Shutdown requested.")
	return a.Close(context.WithoutCancel(ctx))
}

// Close releases the runtime: readiness drops, constructed instances close
// in reverse construction order, then the health server shuts down.
func (a *App) Close(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ready.Store(false)

	var errs []error
	if a.container != nil {
		errs = append(errs, a.container.Close(ctx))
	}
	errs = append(errs, a.closeHealthcheckServer(ctx))
	return errors.Join(errs...)
}
