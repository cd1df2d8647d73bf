package boot

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelproject/keel/internal/container"
	"github.com/keelproject/keel/internal/observability"
	"github.com/keelproject/keel/internal/registry"
	"github.com/keelproject/keel/internal/testutil"
)

type probe struct{ name string }

// bootLog records construction order across goroutines.
type bootLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *bootLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, name)
}

func (l *bootLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *bootLog) index(name string) int {
	for i, entry := range l.list() {
		if entry == name {
			return i
		}
	}
	return -1
}

// probeBinding registers a named probe constructor that notes itself in the
// log when built.
func probeBinding(t *testing.T, r *registry.Registry, log *bootLog, name string, placement registry.Placement) {
	t.Helper()
	target := registry.Construct(func() *probe {
		if log != nil {
			log.add(name)
		}
		return &probe{name: name}
	}).WithPlacement(placement)
	require.NoError(t, r.Register(registry.Named[*probe](name), target))
}

func bootFixture(t *testing.T, opts Options, register func(r *registry.Registry)) (*Orchestrator, *observability.Recorder) {
	t.Helper()
	rec := observability.NewRecorder()

	reg := registry.New()
	register(reg)
	reg.Freeze()
	_, err := reg.Validate(testutil.Context())
	require.NoError(t, err)

	c, err := container.Build(reg, container.Options{Observer: rec})
	require.NoError(t, err)
	return New(c, opts), rec
}

func TestOrchestrator_EnforcesPhaseOrder(t *testing.T) {
	o, _ := bootFixture(t, Options{}, func(*registry.Registry) {})
	ctx := testutil.Context()

	_, err := o.RunParallelPhase(ctx, 0)
	var orderErr *PhaseOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, PhaseNotStarted, orderErr.Current)

	_, err = o.StartBackgroundPhase(ctx)
	require.ErrorAs(t, err, &orderErr)

	require.NoError(t, o.RunCriticalPhase(ctx))
	assert.ErrorAs(t, o.RunCriticalPhase(ctx), &orderErr, "critical phase must not run twice")
}

func TestRunCriticalPhase_ConstructsInKeyOrder(t *testing.T) {
	log := &bootLog{}
	o, _ := bootFixture(t, Options{}, func(r *registry.Registry) {
		probeBinding(t, r, log, "crit-b", registry.Placement{Phase: registry.PlaceCritical})
		probeBinding(t, r, log, "crit-a", registry.Placement{Phase: registry.PlaceCritical})
	})

	require.NoError(t, o.RunCriticalPhase(testutil.Context()))

	assert.Equal(t, []string{"crit-a", "crit-b"}, log.list())
	assert.Equal(t, PhaseCritical, o.Phase())

	report := o.Report()
	require.Len(t, report.Critical, 2)
	assert.Equal(t, "*boot.probe:crit-a", report.Critical[0].Key.String())
	assert.Zero(t, report.Failures())
}

func TestRunCriticalPhase_FirstFailureAborts(t *testing.T) {
	boom := errors.New("bind: address already in use")
	log := &bootLog{}
	o, _ := bootFixture(t, Options{}, func(r *registry.Registry) {
		require.NoError(t, r.Register(registry.Named[*probe]("crit-a"),
			registry.Construct(func() (*probe, error) { return nil, boom }).
				WithPlacement(registry.Placement{Phase: registry.PlaceCritical})))
		probeBinding(t, r, log, "crit-b", registry.Placement{Phase: registry.PlaceCritical})
	})

	err := o.RunCriticalPhase(testutil.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, log.list(), "tasks after the failure must not run")

	report := o.Report()
	assert.Equal(t, 1, report.Failures())
}

func TestRunCriticalPhase_SoftBudgetWarnsButPasses(t *testing.T) {
	o, rec := bootFixture(t, Options{CriticalBudget: time.Millisecond}, func(r *registry.Registry) {
		require.NoError(t, r.Register(registry.Named[*probe]("slow"),
			registry.Construct(func() *probe {
				time.Sleep(10 * time.Millisecond)
				return &probe{name: "slow"}
			}).WithPlacement(registry.Placement{Phase: registry.PlaceCritical})))
	})
	ctx, logs := testutil.CapturedContext()

	require.NoError(t, o.RunCriticalPhase(ctx), "budget overruns never fail the phase")

	report := o.Report()
	assert.True(t, report.BudgetExceeded)
	assert.Equal(t, int64(1), rec.Count(observability.EventBudgetExceeded))
	assert.True(t, logs.Contains("exceeded its soft budget"))
}

func TestRun_FullSequence(t *testing.T) {
	log := &bootLog{}
	lazyBuilds := 0
	o, _ := bootFixture(t, Options{Workers: 2}, func(r *registry.Registry) {
		probeBinding(t, r, log, "crit", registry.Placement{Phase: registry.PlaceCritical})
		probeBinding(t, r, log, "w1", registry.Placement{Phase: registry.PlaceParallel, Wave: 1})
		probeBinding(t, r, log, "w2", registry.Placement{Phase: registry.PlaceParallel, Wave: 2})
		probeBinding(t, r, log, "bg", registry.Placement{Phase: registry.PlaceBackground})
		require.NoError(t, r.Register(registry.Named[*probe]("sleeper"),
			registry.Construct(func() *probe {
				lazyBuilds++
				return &probe{name: "sleeper"}
			}).AsLazy()))
	})
	ctx := testutil.Context()

	report, err := o.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, o.Phase())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, o.RunID(), report.RunID)

	require.Len(t, report.Critical, 1)
	require.Len(t, report.Parallel.Waves, 2)
	assert.Equal(t, 1, report.BackgroundLaunched)
	assert.Zero(t, lazyBuilds, "lazy bindings are untouched by every phase")

	// Phase ordering holds across the whole run.
	require.NoError(t, o.background.Wait(testutil.Context()))
	assert.Less(t, log.index("crit"), log.index("w1"))
	assert.Less(t, log.index("w1"), log.index("w2"))

	metrics := o.Metrics()
	assert.Contains(t, metrics.PhaseDurations, "critical")
	assert.Contains(t, metrics.PhaseDurations, "parallel")
	assert.Positive(t, report.TotalDuration)
}
