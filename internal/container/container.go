package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/keelproject/keel/internal/invoke"
	"github.com/keelproject/keel/internal/lazy"
	"github.com/keelproject/keel/internal/observability"
	"github.com/keelproject/keel/internal/registry"
	"github.com/keelproject/keel/internal/scope"
)

// Options configures a container build.
type Options struct {
	// Observer receives runtime events alongside the container's own
	// recorder. Leave nil to only keep internal tallies.
	Observer observability.Observer
}

// Container resolves bindings from a frozen, validated registry. It routes
// construction through the progressive dispatcher and holds the scoped
// instance stores; one container is the explicit context all resolution
// flows through.
type Container struct {
	registry   *registry.Registry
	dispatcher *invoke.Dispatcher
	singletons *scope.SingletonStore
	sessions   *scope.SessionStore
	recorder   *observability.Recorder
	observer   observability.Observer

	mu     sync.Mutex
	lazies map[registry.Key]*lazy.Handle
	closed atomic.Bool
}

// Build assembles a container over the registry. The registry must be
// frozen and validated; every provider is registered with the dispatcher
// here, so its fast invoker is prepared before the first resolve.
func Build(reg *registry.Registry, opts Options) (*Container, error) {
	if !reg.Frozen() {
		return nil, registry.ErrNotFrozen
	}
	if !reg.Validated() {
		return nil, ErrNotValidated
	}

	recorder := observability.NewRecorder()
	observer := observability.NewMultiObserver(recorder, opts.Observer)

	c := &Container{
		registry:   reg,
		dispatcher: invoke.NewDispatcher(observer),
		recorder:   recorder,
		observer:   observer,
		lazies:     make(map[registry.Key]*lazy.Handle),
	}

	var singletonKeys, sessionKeys []registry.Key
	for _, key := range reg.Keys() {
		target, _ := reg.Lookup(key)

		if fn := target.Provider(); fn != nil {
			if _, err := c.dispatcher.Register(key.String(), fn); err != nil {
				return nil, fmt.Errorf("build container: %w", err)
			}
		}

		switch target.Scope {
		case registry.ScopeSingleton:
			singletonKeys = append(singletonKeys, key)
		case registry.ScopeSession:
			sessionKeys = append(sessionKeys, key)
		}

		if target.Lazy {
			c.lazies[key] = lazy.NewHandle(key, c.lazySupplier(key))
		}
	}

	c.singletons = scope.NewSingletonStore(singletonKeys)
	c.sessions = scope.NewSessionStore(sessionKeys)
	return c, nil
}

// Resolve returns the value bound to the key, constructing it according to
// the binding's scope. Session-scoped keys must be resolved through a
// session.
func (c *Container) Resolve(ctx context.Context, key registry.Key) (any, error) {
	return c.resolveKey(ctx, key)
}

// resolver abstracts where dependency lookups land, so constructions inside
// a session resolve their session-scoped dependencies in that same session.
type resolver interface {
	resolveKey(ctx context.Context, key registry.Key) (any, error)
}

func (c *Container) resolveKey(ctx context.Context, key registry.Key) (any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	target, ok := c.registry.Lookup(key)
	if !ok {
		return nil, &NotBoundError{Key: key}
	}

	switch target.Scope {
	case registry.ScopePrototype:
		return c.construct(ctx, key, target, c)

	case registry.ScopeSession:
		return nil, &ScopeMismatchError{
			Key:   key,
			Scope: target.Scope,
			Hint:  "resolve it through a session",
		}

	default:
		if state, ok := c.singletons.State(key); ok && state == scope.StateReady {
			c.emit(ctx, observability.EventCacheHit, observability.LevelVerbose, key.String(), nil)
		}
		return c.singletons.Resolve(ctx, key, c.builder(key, target, c))
	}
}

// builder adapts the construction path into the scope store's shape.
func (c *Container) builder(key registry.Key, target registry.Target, res resolver) scope.Builder {
	return func(ctx context.Context) (any, error) {
		return c.construct(ctx, key, target, res)
	}
}

// ResolveLazy returns the handle standing in for the key. Repeated calls
// return the same handle, so handle identity is stable per container; the
// binding is constructed only when the handle's value is first demanded.
func (c *Container) ResolveLazy(ctx context.Context, key registry.Key) (*lazy.Handle, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	target, ok := c.registry.Lookup(key)
	if !ok {
		return nil, &NotBoundError{Key: key}
	}
	if target.Scope != registry.ScopeSingleton {
		return nil, &ScopeMismatchError{
			Key:   key,
			Scope: target.Scope,
			Hint:  "lazy handles require singleton lifetime",
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.lazies[key]; ok {
		return h, nil
	}
	h := lazy.NewHandle(key, c.lazySupplier(key))
	c.lazies[key] = h
	return h, nil
}

func (c *Container) lazySupplier(key registry.Key) lazy.Supplier {
	return func(ctx context.Context) (any, error) {
		c.emit(ctx, observability.EventLazyForced, observability.LevelVerbose, key.String(), nil)
		return c.resolveKey(ctx, key)
	}
}

// SingletonStates snapshots the lifecycle state of every singleton-scoped
// binding, for readiness reporting.
func (c *Container) SingletonStates() map[registry.Key]scope.State {
	return c.singletons.States()
}

// Registry returns the frozen registry the container resolves from.
func (c *Container) Registry() *registry.Registry {
	return c.registry
}

// Observer returns the container's event sink. Collaborators emit their own
// lifecycle events through it so a single recorder tallies everything.
func (c *Container) Observer() observability.Observer {
	return c.observer
}

// Metrics snapshots the container's runtime counters.
func (c *Container) Metrics() observability.MetricsSnapshot {
	return c.recorder.Snapshot()
}

// Close releases all constructed instances: open sessions first, then
// singletons, each set in reverse construction order so instances close
// before their dependencies. Instances that implement io.Closer are closed;
// their errors are joined, not short-circuited.
func (c *Container) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var errs []error
	for _, session := range c.sessions.Drain() {
		errs = append(errs, releaseValues(session.ConstructedInOrder(), session.Value))
		c.emit(ctx, observability.EventSessionClose, observability.LevelInfo, session.ID(), nil)
	}
	errs = append(errs, releaseValues(c.singletons.ConstructedInOrder(), c.singletons.Value))
	return errors.Join(errs...)
}

// releaseValues closes io.Closer instances in reverse completion order.
func releaseValues(order []registry.Key, valueOf func(registry.Key) (any, bool)) error {
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		value, ok := valueOf(order[i])
		if !ok {
			continue
		}
		closer, ok := value.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", order[i], err))
		}
	}
	return errors.Join(errs...)
}

func (c *Container) emit(ctx context.Context, eventType observability.EventType, level observability.Level, source string, data map[string]any) {
	c.observer.OnEvent(ctx, observability.NewEvent(eventType, level, source, data))
}
