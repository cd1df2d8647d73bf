package container

import (
	"context"
	"fmt"

	"github.com/keelproject/keel/internal/lazy"
	"github.com/keelproject/keel/internal/registry"
)

// ResolveAs resolves the key and asserts the value to T.
func ResolveAs[T any](ctx context.Context, c *Container, key registry.Key) (T, error) {
	var zero T
	v, err := c.Resolve(ctx, key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("value for %s is %T, not %s", key, v, registry.TypeOf[T]())
	}
	return typed, nil
}

// Get resolves a value of type T using the same rule constructor parameters
// follow: the default key when bound, otherwise the sole binding of the
// type.
func Get[T any](ctx context.Context, c *Container) (T, error) {
	key, err := c.registry.KeyForType(registry.TypeOf[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return ResolveAs[T](ctx, c, key)
}

// GetNamed resolves the qualified binding of type T.
func GetNamed[T any](ctx context.Context, c *Container, qualifier string) (T, error) {
	return ResolveAs[T](ctx, c, registry.Named[T](qualifier))
}

// LazyOf returns a typed lazy view over the key's handle.
func LazyOf[T any](ctx context.Context, c *Container, key registry.Key) (lazy.Of[T], error) {
	h, err := c.ResolveLazy(ctx, key)
	if err != nil {
		return lazy.Of[T]{}, err
	}
	return lazy.Wrap[T](h), nil
}
