package observability

import (
	"context"
	"log/slog"
)

// SlogObserver forwards events to a structured logger.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an observer that logs every event through the given
// logger. A nil logger falls back to slog.Default().
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

// OnEvent logs the event at the slog level derived from its severity.
func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]any, 0, 2+len(event.Data)*2)
	attrs = append(attrs, "source", event.Source)
	for k, v := range event.Data {
		attrs = append(attrs, k, v)
	}
	o.logger.Log(ctx, event.Level.SlogLevel(), string(event.Type), attrs...)
}
