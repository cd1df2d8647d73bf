package catalog

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/keelproject/keel/internal/invoke"
	"github.com/keelproject/keel/internal/ref"
)

// Entry describes one constructible component kind: the Go constructor a
// manifest block of this kind binds to, and the settings struct its
// `settings` block decodes into.
type Entry struct {
	Kind        string
	Constructor any
	Description string

	// Settings is a prototype value of the constructor's settings parameter.
	// Its concrete type is what manifest settings blocks decode into; nil
	// means the kind accepts no settings block.
	Settings any

	// Result is the constructor's return type, cached at registration. Keys
	// for components of this kind are (Result, name).
	Result reflect.Type
}

// Catalog maps component kinds to their constructors. It is the Go side of
// declarative registration: manifests name kinds, the catalog supplies the
// code behind them.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Option customizes a catalog entry at registration.
type Option func(*Entry)

// WithSettings declares the settings struct manifests may configure for this
// kind. The prototype's type must match the constructor's settings parameter.
func WithSettings(prototype any) Option {
	return func(e *Entry) { e.Settings = prototype }
}

// WithDescription attaches a human-readable description to the entry.
func WithDescription(desc string) Option {
	return func(e *Entry) { e.Description = desc }
}

// Register binds a component kind to its constructor. Kinds are registered by
// compiled-in modules at startup, so malformed registrations are programmer
// errors and panic.
func (c *Catalog) Register(kind string, ctor any, opts ...Option) {
	addr, err := ref.Parse(kind)
	if err != nil || addr.HasName() {
		panic(fmt.Sprintf("component kind %q must be a bare identifier", kind))
	}

	sig, err := invoke.ParseFunc(ctor)
	if err != nil {
		panic(fmt.Sprintf("constructor for component kind %q: %v", kind, err))
	}

	entry := Entry{Kind: kind, Constructor: ctor, Result: sig.Result()}
	for _, opt := range opts {
		opt(&entry)
	}

	if entry.Settings != nil && !sig.HasParam(reflect.TypeOf(entry.Settings)) {
		panic(fmt.Sprintf(
			"component kind %q declares settings of type %T, but its constructor takes no such parameter",
			kind, entry.Settings,
		))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[kind]; exists {
		panic(fmt.Sprintf("component kind %q is already registered", kind))
	}
	c.entries[kind] = entry
}

// Lookup returns the entry for a kind.
func (c *Catalog) Lookup(kind string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[kind]
	return e, ok
}

// Kinds returns all registered kinds, sorted.
func (c *Catalog) Kinds() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	kinds := make([]string, 0, len(c.entries))
	for k := range c.entries {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Len returns the number of registered kinds.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Module is one compiled-in bundle of component kinds. The app collects
// modules and registers each against the catalog it is building.
type Module interface {
	Register(c *Catalog)
}
