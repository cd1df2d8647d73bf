package boot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/keelproject/keel/internal/ctxlog"
	"github.com/keelproject/keel/internal/observability"
	"github.com/keelproject/keel/internal/registry"
)

// RunParallelPhase constructs the parallel-placed bindings in ascending
// wave order. A wave settles completely, success or recorded failure,
// before the next starts; a failing task never aborts its siblings. The
// timeout bounds each wave's wait: on expiry the wave's stragglers are
// abandoned, a PhaseTimeoutError lands in the wave report, and the phase
// moves on. Zero timeout waits indefinitely.
func (o *Orchestrator) RunParallelPhase(ctx context.Context, timeout time.Duration) (ParallelReport, error) {
	if err := o.advance(PhaseCritical, PhaseParallel); err != nil {
		return ParallelReport{}, err
	}
	logger := ctxlog.FromContext(ctx)

	_, waves, _ := o.placements()
	nums := waveNumbers(waves)
	o.emit(ctx, observability.EventPhaseStart, observability.LevelInfo, "parallel", map[string]any{
		"waves":   len(nums),
		"workers": o.opts.Workers,
	})
	logger.Debug("Parallel phase starting.", "waves", len(nums), "workers", o.opts.Workers)

	started := time.Now()
	var report ParallelReport
	for _, num := range nums {
		report.Waves = append(report.Waves, o.runWave(ctx, num, waves[num], timeout))
	}
	report.Duration = time.Since(started)

	o.mu.Lock()
	o.report.Parallel = report
	o.durations["parallel"] = report.Duration
	o.mu.Unlock()

	o.emit(ctx, observability.EventPhaseComplete, observability.LevelInfo, "parallel", map[string]any{
		"duration": report.Duration,
		"failures": report.Failures(),
		"speedup":  report.Speedup(),
	})
	return report, nil
}

// runWave fans the wave's tasks out across the fixed worker pool and
// collects every outcome, or as many as settle before the timeout.
func (o *Orchestrator) runWave(ctx context.Context, wave int, keys []registry.Key, timeout time.Duration) WaveReport {
	logger := ctxlog.FromContext(ctx)
	o.emit(ctx, observability.EventWaveStart, observability.LevelInfo, fmt.Sprintf("wave-%d", wave), map[string]any{
		"tasks": len(keys),
	})
	started := time.Now()

	workers := o.opts.Workers
	if workers > len(keys) {
		workers = len(keys)
	}

	tasks := make(chan registry.Key, len(keys))
	// Buffered to the task count so workers finishing after an abandoned
	// wave never block on send.
	results := make(chan TaskRecord, len(keys))

	logger.Debug("Starting wave worker pool.", "wave", wave, "workers", workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range tasks {
				results <- o.runTask(ctx, key, wave)
			}
		}()
	}
	for _, key := range keys {
		tasks <- key
	}
	close(tasks)

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	report := WaveReport{Wave: wave}
	for settled := 0; settled < len(keys); {
		select {
		case rec := <-results:
			settled++
			report.Records = append(report.Records, rec)
			if rec.Err != nil {
				logger.Error("Wave task failed.", "wave", wave, "key", rec.Key.String(), "error", rec.Err)
			}
		case <-expired:
			report.Err = &PhaseTimeoutError{Wave: wave, Timeout: timeout}
			report.Duration = time.Since(started)
			logger.Warn("Wave wait expired; abandoning stragglers.",
				"wave", wave, "timeout", timeout, "settled", settled, "expected", len(keys))
			o.emitWaveComplete(ctx, wave, report)
			return report
		}
	}
	wg.Wait()

	report.Duration = time.Since(started)
	o.emitWaveComplete(ctx, wave, report)
	return report
}

func (o *Orchestrator) emitWaveComplete(ctx context.Context, wave int, report WaveReport) {
	data := map[string]any{
		"duration": report.Duration,
		"settled":  len(report.Records),
		"failures": report.Failures(),
	}
	level := observability.LevelInfo
	if report.Err != nil {
		data["error"] = report.Err.Error()
		level = observability.LevelWarning
	}
	o.emit(ctx, observability.EventWaveComplete, level, fmt.Sprintf("wave-%d", wave), data)
}
