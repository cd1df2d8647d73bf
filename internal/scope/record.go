package scope

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/keelproject/keel/internal/registry"
)

// State is the lifecycle position of one scoped record.
type State int32

const (
	// StateUninitialized means no resolve has claimed the record yet.
	StateUninitialized State = iota
	// StateInProgress means a winner is constructing; waiters block.
	StateInProgress
	// StateReady means the value is cached and reads are lock-free.
	StateReady
	// StateFailed means construction failed and the error is memoized.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInProgress:
		return "in-progress"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Builder produces the value for a key. The store calls it at most once per
// record, on the goroutine that wins the construction claim.
type Builder func(ctx context.Context) (any, error)

// record carries the at-most-once construction state for a single key.
// The state field is the synchronization point: value and err are written
// before the state advances to Ready or Failed, and the done channel closes
// only after that, so both the lock-free fast path and blocked waiters
// observe fully written results.
type record struct {
	key   registry.Key
	state atomic.Int32
	done  chan struct{}
	value any
	err   error
}

func newRecord(key registry.Key) *record {
	return &record{key: key, done: make(chan struct{})}
}

// resolve returns the record's value, constructing it through build if this
// call wins the claim. The boolean reports whether this call was the winner.
func (r *record) resolve(ctx context.Context, build Builder) (any, bool, error) {
	switch State(r.state.Load()) {
	case StateReady:
		return r.value, false, nil
	case StateFailed:
		return nil, false, r.err
	}

	if r.state.CompareAndSwap(int32(StateUninitialized), int32(StateInProgress)) {
		value, err := r.construct(ctx, build)
		return value, true, err
	}

	// Lost the claim: block until the winner publishes an outcome. A
	// canceled waiter gives up on waiting, not on the construction itself.
	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}

	if State(r.state.Load()) == StateFailed {
		return nil, false, r.err
	}
	return r.value, false, nil
}

// construct runs the builder and publishes the outcome. Construction is
// detached from the caller's cancellation: a timeout on the resolving side
// means "not yet available", never "abort the shared instance". A panicking
// builder memoizes a failure for all waiters and then re-panics on the
// winning goroutine.
func (r *record) construct(ctx context.Context, build Builder) (any, error) {
	defer close(r.done)
	defer func() {
		if p := recover(); p != nil {
			r.err = &ConstructionError{Key: r.key, Cause: fmt.Errorf("constructor panicked: %v", p)}
			r.state.Store(int32(StateFailed))
			panic(p)
		}
	}()

	value, err := build(context.WithoutCancel(ctx))
	if err != nil {
		r.err = &ConstructionError{Key: r.key, Cause: err}
		r.state.Store(int32(StateFailed))
		return nil, r.err
	}

	r.value = value
	r.state.Store(int32(StateReady))
	return value, nil
}
