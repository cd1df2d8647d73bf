package observability

import (
	"context"
	"maps"
	"sync"
)

// Recorder is an observer that tallies events by type. The container reads
// these tallies to assemble its metrics snapshot, so the counts must stay
// cheap to update under concurrent load.
type Recorder struct {
	mu     sync.RWMutex
	counts map[EventType]int64
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[EventType]int64)}
}

// OnEvent increments the tally for the event's type.
func (r *Recorder) OnEvent(ctx context.Context, event Event) {
	r.mu.Lock()
	r.counts[event.Type]++
	r.mu.Unlock()
}

// Count returns the number of events observed for the given type.
func (r *Recorder) Count(eventType EventType) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[eventType]
}

// Counts returns a copy of all tallies.
func (r *Recorder) Counts() map[EventType]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.counts)
}
