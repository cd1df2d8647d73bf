package boot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keelproject/keel/internal/ctxlog"
	"github.com/keelproject/keel/internal/observability"
	"github.com/keelproject/keel/internal/registry"
)

// Handle observes the background phase without coupling to it. The phase
// itself is fire-and-forget; the handle exists for tests and operators who
// want to know when the dust settled.
type Handle struct {
	done     chan struct{}
	launched int
	failures atomic.Int64
}

// Done closes when every background task has reported.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the background tasks settle or the context ends.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Launched returns the number of background tasks started.
func (h *Handle) Launched() int {
	return h.launched
}

// Failures returns the number of background tasks that have failed so far.
func (h *Handle) Failures() int64 {
	return h.failures.Load()
}

// StartBackgroundPhase launches the background-placed constructions and
// returns immediately; the machine is Ready the moment the launches are
// away. Failures are logged and counted, never propagated. Each task's wait
// is bounded by the configured background timeout; the tasks are detached
// from the caller's cancellation, so they outlive the boot call.
func (o *Orchestrator) StartBackgroundPhase(ctx context.Context) (*Handle, error) {
	if err := o.advance(PhaseParallel, PhaseBackground); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)

	_, _, background := o.placements()
	o.emit(ctx, observability.EventPhaseStart, observability.LevelInfo, "background", map[string]any{
		"tasks": len(background),
	})
	logger.Debug("Background phase starting.", "tasks", len(background))

	handle := &Handle{done: make(chan struct{}), launched: len(background)}
	baseCtx := context.WithoutCancel(ctx)
	phaseStarted := time.Now()

	var wg sync.WaitGroup
	for _, key := range background {
		wg.Add(1)
		go func(key registry.Key) {
			defer wg.Done()
			o.runBackgroundTask(baseCtx, key, handle)
		}(key)
	}

	go func() {
		wg.Wait()
		o.mu.Lock()
		o.durations["background"] = time.Since(phaseStarted)
		o.mu.Unlock()
		o.emit(baseCtx, observability.EventPhaseComplete, observability.LevelInfo, "background", map[string]any{
			"duration": time.Since(phaseStarted),
			"failures": handle.Failures(),
		})
		close(handle.done)
	}()

	o.finishBoot(handle)
	o.emit(ctx, observability.EventBootReady, observability.LevelInfo, o.runID, map[string]any{
		"duration": o.Report().TotalDuration,
	})
	logger.Info("Boot complete.", "runID", o.runID, "background_tasks", len(background))
	return handle, nil
}

func (o *Orchestrator) runBackgroundTask(ctx context.Context, key registry.Key, handle *Handle) {
	logger := ctxlog.FromContext(ctx)
	taskCtx, cancel := context.WithTimeout(ctx, o.opts.BackgroundTimeout)
	defer cancel()

	started := time.Now()
	if _, err := o.container.Resolve(taskCtx, key); err != nil {
		handle.failures.Add(1)
		logger.Error("Background task failed.", "key", key.String(), "error", err)
		o.emit(taskCtx, observability.EventBackgroundFail, observability.LevelError, key.String(), map[string]any{
			"error": err.Error(),
		})
		return
	}
	o.emit(taskCtx, observability.EventBackgroundDone, observability.LevelVerbose, key.String(), map[string]any{
		"duration": time.Since(started),
	})
}

// finishBoot moves the machine to Ready and freezes the report totals.
func (o *Orchestrator) finishBoot(handle *Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = PhaseReady
	o.background = handle
	o.report.BackgroundLaunched = handle.launched
	o.report.TotalDuration = time.Since(o.report.StartedAt)
}
