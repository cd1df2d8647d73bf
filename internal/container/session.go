package container

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/keelproject/keel/internal/observability"
	"github.com/keelproject/keel/internal/registry"
	"github.com/keelproject/keel/internal/scope"
)

// Session is an isolated resolution context: session-scoped keys resolve to
// instances private to this session, everything else delegates to the
// container. Sessions are closed explicitly; closing releases the session's
// instances in reverse construction order.
type Session struct {
	container *Container
	scope     *scope.Session
	closed    atomic.Bool
}

// NewSession opens a session with a generated identifier.
func (c *Container) NewSession(ctx context.Context) (*Session, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	id := uuid.NewString()
	s, err := c.sessions.Open(id)
	if err != nil {
		return nil, err
	}

	c.emit(ctx, observability.EventSessionOpen, observability.LevelInfo, id, nil)
	return &Session{container: c, scope: s}, nil
}

// ID returns the session's identifier.
func (s *Session) ID() string {
	return s.scope.ID()
}

// Resolve returns the value bound to the key, constructing session-scoped
// instances within this session.
func (s *Session) Resolve(ctx context.Context, key registry.Key) (any, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	return sessionResolver{c: s.container, s: s.scope}.resolveKey(ctx, key)
}

// Close releases the session's instances and removes it from the container.
func (s *Session) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrSessionClosed
	}
	if s.container.closed.Load() {
		// The container already drained and released this session.
		return ErrClosed
	}

	if _, err := s.container.sessions.Close(s.scope.ID()); err != nil {
		return err
	}

	err := releaseValues(s.scope.ConstructedInOrder(), s.scope.Value)
	s.container.emit(ctx, observability.EventSessionClose, observability.LevelInfo, s.scope.ID(), nil)
	return err
}

// sessionResolver lands session-scoped lookups in its session and forwards
// the rest to the container.
type sessionResolver struct {
	c *Container
	s *scope.Session
}

func (r sessionResolver) resolveKey(ctx context.Context, key registry.Key) (any, error) {
	target, ok := r.c.registry.Lookup(key)
	if !ok {
		return nil, &NotBoundError{Key: key}
	}

	if target.Scope == registry.ScopeSession {
		if _, ready := r.s.Value(key); ready {
			r.c.emit(ctx, observability.EventCacheHit, observability.LevelVerbose, key.String(), nil)
		}
		return r.s.Resolve(ctx, key, r.c.builder(key, target, r))
	}
	return r.c.resolveKey(ctx, key)
}
