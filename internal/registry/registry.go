package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// Registry holds the bindings of one runtime instance. It is mutable until
// Freeze is called and read-only forever after; resolution and validation
// both require the frozen form, so steady-state lookups run without locks.
type Registry struct {
	mu       sync.RWMutex
	bindings map[Key]Target
	byType   map[reflect.Type][]Key
	frozen   atomic.Bool
	valid    atomic.Bool
}

// New creates an empty, mutable registry.
func New() *Registry {
	return &Registry{
		bindings: make(map[Key]Target),
		byType:   make(map[reflect.Type][]Key),
	}
}

// Register adds a binding. It fails with DuplicateBindingError if the key is
// already bound and with ErrFrozen after Freeze.
func (r *Registry) Register(key Key, target Target) error {
	if r.frozen.Load() {
		return fmt.Errorf("cannot register %s: %w", key, ErrFrozen)
	}
	if key.Type == nil {
		return fmt.Errorf("cannot register binding with a nil type")
	}
	if err := checkShape(key, target); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[key]; exists {
		return &DuplicateBindingError{Key: key}
	}

	r.bindings[key] = target.normalize()
	r.byType[key.Type] = append(r.byType[key.Type], key)
	return nil
}

// checkShape rejects targets whose fields contradict their kind. Emptiness
// (a nil provider or instance) is left for validation to report, so that a
// full configuration pass can surface every problem at once.
func checkShape(key Key, target Target) error {
	switch target.Kind {
	case KindConstructor:
		if target.Constructor != nil && reflect.TypeOf(target.Constructor).Kind() != reflect.Func {
			return fmt.Errorf("binding %s: constructor must be a function, got %T", key, target.Constructor)
		}
	case KindFactory:
		if target.Factory != nil && reflect.TypeOf(target.Factory).Kind() != reflect.Func {
			return fmt.Errorf("binding %s: factory must be a function, got %T", key, target.Factory)
		}
	case KindInstance:
		// Nothing to check structurally; a nil instance is reported by
		// validation.
	default:
		return fmt.Errorf("binding %s: unknown target kind %d", key, target.Kind)
	}
	return nil
}

// Freeze forbids further registration. It is idempotent.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Validated reports whether the registry has passed validation since being
// frozen.
func (r *Registry) Validated() bool {
	return r.valid.Load()
}

// Lookup returns the target bound to the key. After Freeze the underlying
// map is immutable, so the read takes no lock.
func (r *Registry) Lookup(key Key) (Target, bool) {
	if r.frozen.Load() {
		t, ok := r.bindings[key]
		return t, ok
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bindings[key]
	return t, ok
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	if r.frozen.Load() {
		return len(r.bindings)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Keys returns all bound keys sorted by their rendered form, for
// deterministic iteration.
func (r *Registry) Keys() []Key {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	keys := make([]Key, 0, len(r.bindings))
	for k := range r.bindings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Snapshot returns a copy of all bindings; mutating it does not affect the
// registry.
func (r *Registry) Snapshot() map[Key]Target {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	out := make(map[Key]Target, len(r.bindings))
	for k, t := range r.bindings {
		out[k] = t
	}
	return out
}

// keysForType returns the keys bound for a type, sorted with the default
// (unqualified) key first.
func (r *Registry) keysForType(t reflect.Type) []Key {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	keys := append([]Key(nil), r.byType[t]...)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Qualifier < keys[j].Qualifier })
	return keys
}

// KeyForType resolves the key a dependency parameter of type t binds to:
// the default key when present, otherwise the sole qualified binding of the
// type. Ambiguity and absence are errors.
func (r *Registry) KeyForType(t reflect.Type) (Key, error) {
	keys := r.keysForType(t)
	switch {
	case len(keys) == 0:
		return Key{}, fmt.Errorf("no binding for type %s", t)
	case len(keys) == 1:
		return keys[0], nil
	default:
		for _, k := range keys {
			if k.Qualifier == "" {
				return k, nil
			}
		}
		return Key{}, fmt.Errorf("ambiguous dependency: %d qualified bindings for type %s and no default", len(keys), t)
	}
}
