package observability

import "context"

// NoopObserver discards all events. Useful as a default when no observer is
// configured and in tests that don't assert on events.
type NoopObserver struct{}

// NewNoopObserver creates an observer that does nothing.
func NewNoopObserver() *NoopObserver {
	return &NoopObserver{}
}

// OnEvent discards the event.
func (o *NoopObserver) OnEvent(ctx context.Context, event Event) {}
