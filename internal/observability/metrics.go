package observability

import "time"

// MetricsSnapshot is a point-in-time, read-only view of the runtime's
// counters. Collaborators consume it for reporting; mutating a snapshot has
// no effect on the live tallies.
type MetricsSnapshot struct {
	Constructions        int64
	ConstructionFailures int64
	CacheHits            int64
	LazyForcings         int64
	SessionsOpened       int64
	SessionsClosed       int64
	BackgroundFailures   int64
	TierFallbacks        int64

	// DispatchByTier counts completed invocations per winning tier.
	DispatchByTier map[string]int64

	// PhaseDurations is filled in by the bootstrap orchestrator; it stays
	// empty for snapshots taken before any boot ran.
	PhaseDurations map[string]time.Duration
}

// Snapshot assembles a metrics view from the recorder's tallies.
func (r *Recorder) Snapshot() MetricsSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return MetricsSnapshot{
		Constructions:        r.counts[EventConstructSuccess],
		ConstructionFailures: r.counts[EventConstructFailure],
		CacheHits:            r.counts[EventCacheHit],
		LazyForcings:         r.counts[EventLazyForced],
		SessionsOpened:       r.counts[EventSessionOpen],
		SessionsClosed:       r.counts[EventSessionClose],
		BackgroundFailures:   r.counts[EventBackgroundFail],
		TierFallbacks:        r.counts[EventDispatchFallback],
		DispatchByTier: map[string]int64{
			"fast":      r.counts[EventDispatchFast],
			"generic":   r.counts[EventDispatchGeneric],
			"universal": r.counts[EventDispatchUniversal],
		},
	}
}
