package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keelproject/keel/internal/observability"
)

// Collector translates runtime events into prometheus series. It implements
// observability.Observer, so it is wired like any other observer; gauges that
// describe the last bootstrap run are refreshed from a MetricsSnapshot
// instead of individual events.
type Collector struct {
	once sync.Once

	constructions     *prometheus.CounterVec
	constructDuration prometheus.Histogram
	dispatches        *prometheus.CounterVec
	fallbacks         prometheus.Counter
	cacheHits         prometheus.Counter
	lazyForcings      prometheus.Counter
	sessions          *prometheus.CounterVec
	backgroundFails   prometheus.Counter
	phaseDuration     *prometheus.GaugeVec
}

// NewCollector creates the collector with all series unregistered; call
// Register before serving scrapes.
func NewCollector() *Collector {
	return &Collector{
		constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keel",
				Name:      "constructions_total",
				Help:      "Component constructions by outcome.",
			},
			[]string{"outcome"},
		),
		constructDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "keel",
				Name:      "construct_duration_seconds",
				Help:      "Duration of successful component constructions.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keel",
				Name:      "dispatch_total",
				Help:      "Provider invocations by winning dispatch tier.",
			},
			[]string{"tier"},
		),
		fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "keel",
				Name:      "dispatch_fallbacks_total",
				Help:      "Dispatch attempts that fell back to a slower tier.",
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "keel",
				Name:      "resolve_cache_hits_total",
				Help:      "Resolves served from an already-constructed instance.",
			},
		),
		lazyForcings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "keel",
				Name:      "lazy_forcings_total",
				Help:      "Lazy handles forced into construction.",
			},
		),
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "keel",
				Name:      "sessions_total",
				Help:      "Session lifecycle operations.",
			},
			[]string{"op"},
		),
		backgroundFails: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "keel",
				Name:      "background_failures_total",
				Help:      "Background-phase constructions that failed.",
			},
		),
		phaseDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "keel",
				Name:      "boot_phase_duration_seconds",
				Help:      "Duration of each phase in the last bootstrap run.",
			},
			[]string{"phase"},
		),
	}
}

// Register adds every series to the registerer. Repeat calls are no-ops, so
// the collector can be handed to multiple consumers safely.
func (c *Collector) Register(reg prometheus.Registerer) {
	c.once.Do(func() {
		reg.MustRegister(
			c.constructions,
			c.constructDuration,
			c.dispatches,
			c.fallbacks,
			c.cacheHits,
			c.lazyForcings,
			c.sessions,
			c.backgroundFails,
			c.phaseDuration,
		)
	})
}

// OnEvent implements observability.Observer.
func (c *Collector) OnEvent(_ context.Context, event observability.Event) {
	switch event.Type {
	case observability.EventConstructSuccess:
		c.constructions.WithLabelValues("success").Inc()
		if d, ok := event.Data["duration"].(time.Duration); ok {
			c.constructDuration.Observe(d.Seconds())
		}
	case observability.EventConstructFailure:
		c.constructions.WithLabelValues("failure").Inc()
	case observability.EventDispatchFast:
		c.dispatches.WithLabelValues("fast").Inc()
	case observability.EventDispatchGeneric:
		c.dispatches.WithLabelValues("generic").Inc()
	case observability.EventDispatchUniversal:
		c.dispatches.WithLabelValues("universal").Inc()
	case observability.EventDispatchFallback:
		c.fallbacks.Inc()
	case observability.EventCacheHit:
		c.cacheHits.Inc()
	case observability.EventLazyForced:
		c.lazyForcings.Inc()
	case observability.EventSessionOpen:
		c.sessions.WithLabelValues("open").Inc()
	case observability.EventSessionClose:
		c.sessions.WithLabelValues("close").Inc()
	case observability.EventBackgroundFail:
		c.backgroundFails.Inc()
	}
}

// RefreshSnapshot updates the last-run gauges from an aggregated snapshot.
// The app calls it once the orchestrator reports Ready.
func (c *Collector) RefreshSnapshot(snap observability.MetricsSnapshot) {
	for phase, d := range snap.PhaseDurations {
		c.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
	}
}
