package scope

import (
	"context"
	"sort"
	"sync"

	"github.com/keelproject/keel/internal/registry"
)

// SingletonStore caches one instance per key for its own lifetime. The full
// key set is fixed at construction, so resolves index a read-only map and
// all synchronization happens inside the per-key records.
type SingletonStore struct {
	records map[registry.Key]*record

	mu        sync.Mutex
	completed []registry.Key
}

// NewSingletonStore creates a store with one uninitialized record per key.
func NewSingletonStore(keys []registry.Key) *SingletonStore {
	records := make(map[registry.Key]*record, len(keys))
	for _, key := range keys {
		records[key] = newRecord(key)
	}
	return &SingletonStore{records: records}
}

// Resolve returns the cached value for the key, constructing it through
// build on first demand. Exactly one concurrent caller constructs; the rest
// receive the identical value or the identical memoized error.
func (s *SingletonStore) Resolve(ctx context.Context, key registry.Key, build Builder) (any, error) {
	rec, ok := s.records[key]
	if !ok {
		return nil, &ResolutionError{Key: key, Reason: "key is not managed by this store"}
	}

	value, won, err := rec.resolve(ctx, build)
	if won && err == nil {
		s.mu.Lock()
		s.completed = append(s.completed, key)
		s.mu.Unlock()
	}
	return value, err
}

// Manages reports whether the store holds a record for the key.
func (s *SingletonStore) Manages(key registry.Key) bool {
	_, ok := s.records[key]
	return ok
}

// State returns the lifecycle state of the key's record.
func (s *SingletonStore) State(key registry.Key) (State, bool) {
	rec, ok := s.records[key]
	if !ok {
		return StateUninitialized, false
	}
	return State(rec.state.Load()), true
}

// States snapshots the lifecycle state of every record.
func (s *SingletonStore) States() map[registry.Key]State {
	out := make(map[registry.Key]State, len(s.records))
	for key, rec := range s.records {
		out[key] = State(rec.state.Load())
	}
	return out
}

// Value returns the constructed instance for the key if it is Ready.
func (s *SingletonStore) Value(key registry.Key) (any, bool) {
	rec, ok := s.records[key]
	if !ok || State(rec.state.Load()) != StateReady {
		return nil, false
	}
	return rec.value, true
}

// Keys returns all managed keys sorted by their rendered form.
func (s *SingletonStore) Keys() []registry.Key {
	keys := make([]registry.Key, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// ConstructedInOrder returns the keys whose construction has completed, in
// completion order. Shutdown walks this list in reverse so instances close
// before their dependencies.
func (s *SingletonStore) ConstructedInOrder() []registry.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]registry.Key(nil), s.completed...)
}
