package lazy

import (
	"context"
	"fmt"

	"github.com/keelproject/keel/internal/registry"
)

// Of is a typed view over a Handle. The zero value is unusable; create one
// with Wrap.
type Of[T any] struct {
	h *Handle
}

// Wrap gives an untyped handle a typed surface.
func Wrap[T any](h *Handle) Of[T] {
	return Of[T]{h: h}
}

// Handle returns the underlying untyped handle.
func (o Of[T]) Handle() *Handle {
	return o.h
}

// Key returns the wrapped handle's key without forcing it.
func (o Of[T]) Key() registry.Key {
	return o.h.Key()
}

// String renders the wrapped handle without forcing it.
func (o Of[T]) String() string {
	return o.h.String()
}

// Initialized reports whether the handle has been forced.
func (o Of[T]) Initialized() bool {
	return o.h.Initialized()
}

// Value forces the handle and asserts the produced value to T.
func (o Of[T]) Value(ctx context.Context) (T, error) {
	var zero T
	v, err := o.h.Value(ctx)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("lazy value for %s is %T, not %s", o.h.Key(), v, registry.TypeOf[T]())
	}
	return typed, nil
}
