package lazy

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/keelproject/keel/internal/registry"
)

// Supplier produces the deferred value. The handle calls it at most once.
type Supplier func(ctx context.Context) (any, error)

// Handle defers construction of one binding until its value is first asked
// for. Identity operations (Key, String, Initialized) never trigger the
// supplier; handles compare by pointer identity.
type Handle struct {
	key         registry.Key
	initialized atomic.Bool

	mu       sync.Mutex
	supplier Supplier
	value    any
	err      error
}

// NewHandle creates an unforced handle for the key.
func NewHandle(key registry.Key, supplier Supplier) *Handle {
	return &Handle{key: key, supplier: supplier}
}

// Key returns the key the handle stands in for, without forcing it.
func (h *Handle) Key() registry.Key {
	return h.key
}

// String renders the handle without forcing it.
func (h *Handle) String() string {
	return "lazy[" + h.key.String() + "]"
}

// Initialized reports whether the value has been produced, without forcing.
func (h *Handle) Initialized() bool {
	return h.initialized.Load()
}

// Value forces the handle. The first call runs the supplier exactly once and
// memoizes its outcome, value or error; concurrent callers block until that
// single run completes. Every later call returns the memoized outcome
// through the lock-free fast path.
func (h *Handle) Value(ctx context.Context) (any, error) {
	if h.initialized.Load() {
		return h.value, h.err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Re-check under the lock: another caller may have forced the handle
	// between the fast-path load and acquiring the mutex.
	if h.initialized.Load() {
		return h.value, h.err
	}

	h.value, h.err = h.supplier(ctx)
	h.supplier = nil // release whatever the closure captured
	h.initialized.Store(true)
	return h.value, h.err
}
