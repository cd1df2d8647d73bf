package observability

import "context"

// MultiObserver fans a single event stream out to several observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates an observer that forwards each event to all given
// observers in order. Nil entries are skipped.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	return &MultiObserver{observers: filtered}
}

// OnEvent forwards the event to every registered observer.
func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, o := range m.observers {
		o.OnEvent(ctx, event)
	}
}
