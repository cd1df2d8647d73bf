package boot

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keelproject/keel/internal/container"
	"github.com/keelproject/keel/internal/ctxlog"
	"github.com/keelproject/keel/internal/observability"
	"github.com/keelproject/keel/internal/registry"
)

const (
	// DefaultCriticalBudget is the soft latency budget for the critical
	// phase. Exceeding it logs a warning; it never fails the boot.
	DefaultCriticalBudget = 2 * time.Millisecond

	// DefaultBackgroundTimeout bounds how long each background task waits
	// for its construction before being counted as failed.
	DefaultBackgroundTimeout = 30 * time.Second
)

// Options tunes one bootstrap run.
type Options struct {
	// CriticalBudget overrides the soft critical-phase budget.
	CriticalBudget time.Duration
	// Workers fixes the parallel-phase pool size. Zero means the available
	// parallelism.
	Workers int
	// ParallelTimeout bounds each wave's wait when Run drives the phases.
	// Zero waits indefinitely.
	ParallelTimeout time.Duration
	// BackgroundTimeout overrides the per-task background wait bound.
	BackgroundTimeout time.Duration
}

// Orchestrator drives a container through the bootstrap phases: a
// sequential critical phase, priority waves fanned out over a fixed worker
// pool, and fire-and-forget background tasks. Bindings marked lazy are left
// untouched by every phase.
type Orchestrator struct {
	container *container.Container
	observer  observability.Observer
	opts      Options
	runID     string

	mu         sync.Mutex
	phase      Phase
	report     StartupReport
	durations  map[string]time.Duration
	background *Handle
}

// New creates an orchestrator over the container with a fresh run ID.
func New(c *container.Container, opts Options) *Orchestrator {
	if opts.CriticalBudget <= 0 {
		opts.CriticalBudget = DefaultCriticalBudget
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.BackgroundTimeout <= 0 {
		opts.BackgroundTimeout = DefaultBackgroundTimeout
	}

	return &Orchestrator{
		container: c,
		observer:  c.Observer(),
		opts:      opts,
		runID:     uuid.NewString(),
		durations: make(map[string]time.Duration),
	}
}

// RunID returns the identifier stamped on this run's report and events.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Run drives all phases in order and returns the final report. The report
// is also returned on failure, describing how far the boot got.
func (o *Orchestrator) Run(ctx context.Context) (StartupReport, error) {
	if err := o.RunCriticalPhase(ctx); err != nil {
		return o.Report(), err
	}
	if _, err := o.RunParallelPhase(ctx, o.opts.ParallelTimeout); err != nil {
		return o.Report(), err
	}
	if _, err := o.StartBackgroundPhase(ctx); err != nil {
		return o.Report(), err
	}
	return o.Report(), nil
}

// RunCriticalPhase constructs the critical bindings sequentially, in key
// order. The first failure stops the phase: the runtime cannot come up
// without its critical set. Overrunning the soft budget only warns.
func (o *Orchestrator) RunCriticalPhase(ctx context.Context) error {
	if err := o.advance(PhaseNotStarted, PhaseCritical); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	o.mu.Lock()
	o.report.RunID = o.runID
	o.report.StartedAt = time.Now()
	o.mu.Unlock()

	critical, _, _ := o.placements()
	o.emit(ctx, observability.EventBootStart, observability.LevelInfo, o.runID, nil)
	o.emit(ctx, observability.EventPhaseStart, observability.LevelInfo, "critical", map[string]any{
		"tasks": len(critical),
	})
	logger.Debug("Critical phase starting.", "tasks", len(critical))

	started := time.Now()
	var records []TaskRecord
	for _, key := range critical {
		rec := o.runTask(ctx, key, 0)
		records = append(records, rec)
		if rec.Err != nil {
			o.storeCritical(records, time.Since(started), false)
			logger.Error("Critical task failed; aborting boot.", "key", key.String(), "error", rec.Err)
			return fmt.Errorf("critical phase: %s: %w", key, rec.Err)
		}
	}

	duration := time.Since(started)
	exceeded := duration > o.opts.CriticalBudget
	if exceeded {
		logger.Warn("Critical phase exceeded its soft budget.",
			"budget", o.opts.CriticalBudget, "took", duration)
		o.emit(ctx, observability.EventBudgetExceeded, observability.LevelWarning, "critical", map[string]any{
			"budget": o.opts.CriticalBudget,
			"took":   duration,
		})
	}

	o.storeCritical(records, duration, exceeded)
	o.emit(ctx, observability.EventPhaseComplete, observability.LevelInfo, "critical", map[string]any{
		"duration": duration,
		"tasks":    len(records),
	})
	return nil
}

func (o *Orchestrator) storeCritical(records []TaskRecord, duration time.Duration, exceeded bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report.Critical = records
	o.report.CriticalDuration = duration
	o.report.BudgetExceeded = exceeded
	o.durations["critical"] = duration
}

// runTask constructs one binding and records its outcome. Failures land in
// the record, never in a panic of the phase.
func (o *Orchestrator) runTask(ctx context.Context, key registry.Key, wave int) TaskRecord {
	started := time.Now()
	_, err := o.container.Resolve(ctx, key)
	return TaskRecord{Key: key, Wave: wave, Duration: time.Since(started), Err: err}
}

// placements partitions the non-lazy bindings by bootstrap placement. Keys
// come back sorted within each group; parallel waves below 1 are folded
// into wave 1.
func (o *Orchestrator) placements() (critical []registry.Key, waves map[int][]registry.Key, background []registry.Key) {
	waves = make(map[int][]registry.Key)
	reg := o.container.Registry()
	for _, key := range reg.Keys() {
		target, _ := reg.Lookup(key)
		if target.Lazy {
			continue
		}
		switch target.Placement.Phase {
		case registry.PlaceCritical:
			critical = append(critical, key)
		case registry.PlaceParallel:
			wave := target.Placement.Wave
			if wave < 1 {
				wave = 1
			}
			waves[wave] = append(waves[wave], key)
		case registry.PlaceBackground:
			background = append(background, key)
		}
	}
	return critical, waves, background
}

// waveNumbers returns the populated wave indices in ascending order.
func waveNumbers(waves map[int][]registry.Key) []int {
	nums := make([]int, 0, len(waves))
	for n := range waves {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Report snapshots the run's progress so far. TotalDuration is live until
// the machine reaches Ready.
func (o *Orchestrator) Report() StartupReport {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := o.report
	report.Phase = o.phase
	if report.TotalDuration == 0 && !report.StartedAt.IsZero() && o.phase != PhaseReady {
		report.TotalDuration = time.Since(report.StartedAt)
	}
	return report
}

// Metrics combines the container's counters with this run's per-phase
// durations.
func (o *Orchestrator) Metrics() observability.MetricsSnapshot {
	snap := o.container.Metrics()
	o.mu.Lock()
	snap.PhaseDurations = maps.Clone(o.durations)
	o.mu.Unlock()
	return snap
}

func (o *Orchestrator) emit(ctx context.Context, eventType observability.EventType, level observability.Level, source string, data map[string]any) {
	o.observer.OnEvent(ctx, observability.NewEvent(eventType, level, source, data))
}
