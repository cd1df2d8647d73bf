package container

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/keelproject/keel/internal/observability"
	"github.com/keelproject/keel/internal/registry"
)

// construct produces one value for the key: resolve the provider's
// arguments through res, then call the provider through the dispatcher.
// Instance targets short-circuit to their fixed value.
func (c *Container) construct(ctx context.Context, key registry.Key, target registry.Target, res resolver) (any, error) {
	if target.Kind == registry.KindInstance {
		return target.Instance, nil
	}

	c.emit(ctx, observability.EventConstructStart, observability.LevelVerbose, key.String(), nil)
	started := time.Now()

	args, err := c.arguments(ctx, key, target, res)
	if err != nil {
		c.emitFailure(ctx, key, err)
		return nil, err
	}

	value, err := c.dispatcher.Invoke(ctx, key.String(), args)
	if err != nil {
		c.emitFailure(ctx, key, err)
		return nil, err
	}

	c.emit(ctx, observability.EventConstructSuccess, observability.LevelInfo, key.String(), map[string]any{
		"duration": time.Since(started),
	})
	return value, nil
}

// arguments resolves one value per provider parameter. A parameter matching
// the binding's settings type receives the decoded settings; every other
// parameter resolves by type through res, so session-scoped dependencies
// stay inside the calling session.
func (c *Container) arguments(ctx context.Context, key registry.Key, target registry.Target, res resolver) ([]any, error) {
	sig, ok := c.dispatcher.Signature(key.String())
	if !ok {
		return nil, fmt.Errorf("no provider registered for %s", key)
	}

	var settingsType reflect.Type
	if target.Settings != nil {
		settingsType = reflect.TypeOf(target.Settings)
	}

	params := sig.Params()
	args := make([]any, 0, len(params))
	for i, param := range params {
		if settingsType != nil && param == settingsType {
			args = append(args, target.Settings)
			continue
		}

		depKey, err := c.registry.KeyForType(param)
		if err != nil {
			return nil, fmt.Errorf("parameter %d of %s: %w", i, key, err)
		}
		dep, err := res.resolveKey(ctx, depKey)
		if err != nil {
			return nil, fmt.Errorf("parameter %d of %s: %w", i, key, err)
		}
		args = append(args, dep)
	}
	return args, nil
}

func (c *Container) emitFailure(ctx context.Context, key registry.Key, err error) {
	c.emit(ctx, observability.EventConstructFailure, observability.LevelError, key.String(), map[string]any{
		"error": err.Error(),
	})
}
