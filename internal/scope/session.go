package scope

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/keelproject/keel/internal/registry"
)

// Session is one isolated instance space over the session-scoped keys. Each
// session embeds its own SingletonStore, so the single-winner construction
// rule holds per (key, session) pair.
type Session struct {
	id    string
	store *SingletonStore
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Resolve returns the session's cached value for the key, constructing it
// on first demand within this session.
func (s *Session) Resolve(ctx context.Context, key registry.Key, build Builder) (any, error) {
	return s.store.Resolve(ctx, key, build)
}

// Value returns the session's constructed instance for the key if Ready.
func (s *Session) Value(key registry.Key) (any, bool) {
	return s.store.Value(key)
}

// ConstructedInOrder returns the session's completed keys in completion
// order, for reverse-order release on close.
func (s *Session) ConstructedInOrder() []registry.Key {
	return s.store.ConstructedInOrder()
}

// SessionStore tracks the open sessions and fans session-scoped resolves
// out to the owning session's records.
type SessionStore struct {
	keys []registry.Key

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a store for the given session-scoped keys with no
// open sessions.
func NewSessionStore(keys []registry.Key) *SessionStore {
	return &SessionStore{
		keys:     append([]registry.Key(nil), keys...),
		sessions: make(map[string]*Session),
	}
}

// Open creates a new empty session under the given identifier.
func (s *SessionStore) Open(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("session %q is already open", id)
	}

	session := &Session{id: id, store: NewSingletonStore(s.keys)}
	s.sessions[id] = session
	return session, nil
}

// Get returns the open session with the given identifier.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Close removes the session and returns it so the caller can release its
// instances. Resolving against a closed session fails with ErrUnknownSession
// at the call sites that look it up first.
func (s *SessionStore) Close(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("close session %q: %w", id, ErrUnknownSession)
	}
	delete(s.sessions, id)
	return session, nil
}

// Len returns the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Drain removes and returns every open session, sorted by identifier, so
// shutdown can release them all.
func (s *SessionStore) Drain() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	s.sessions = make(map[string]*Session)
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
