package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level indicates the severity of an event. Values align with OpenTelemetry
// severity numbers so they can be mapped onto other telemetry systems.
type Level int

const (
	LevelVerbose Level = 5
	LevelInfo    Level = 9
	LevelWarning Level = 13
	LevelError   Level = 17
)

// SlogLevel maps an event level onto the standard library's slog levels.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l >= LevelError:
		return slog.LevelError
	case l >= LevelWarning:
		return slog.LevelWarn
	case l >= LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// EventType names a category of runtime event.
type EventType string

const (
	// Bootstrap lifecycle.
	EventBootStart      EventType = "boot.start"
	EventBootReady      EventType = "boot.ready"
	EventPhaseStart     EventType = "boot.phase.start"
	EventPhaseComplete  EventType = "boot.phase.complete"
	EventWaveStart      EventType = "boot.wave.start"
	EventWaveComplete   EventType = "boot.wave.complete"
	EventBudgetExceeded EventType = "boot.budget.exceeded"
	EventBackgroundDone EventType = "boot.background.done"
	EventBackgroundFail EventType = "boot.background.failure"

	// Instance lifecycle.
	EventConstructStart   EventType = "construct.start"
	EventConstructSuccess EventType = "construct.success"
	EventConstructFailure EventType = "construct.failure"
	EventCacheHit         EventType = "resolve.cache_hit"
	EventLazyForced       EventType = "lazy.forced"
	EventSessionOpen      EventType = "session.open"
	EventSessionClose     EventType = "session.close"

	// Invocation dispatch, one type per winning tier so tallies double as
	// tier-usage metrics.
	EventDispatchFast      EventType = "dispatch.invoke.fast"
	EventDispatchGeneric   EventType = "dispatch.invoke.generic"
	EventDispatchUniversal EventType = "dispatch.invoke.universal"
	EventDispatchFallback  EventType = "dispatch.fallback"
)

// Event is a single structured occurrence emitted by the runtime.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType, level Level, source string, data map[string]any) Event {
	return Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	}
}

// Observer receives runtime events. Implementations must be safe for
// concurrent use; OnEvent is called from resolver goroutines and from the
// bootstrap worker pool.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
