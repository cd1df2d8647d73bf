package scope

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelproject/keel/internal/registry"
)

type widget struct{ serial int64 }

func widgetBuilder(counter *atomic.Int64) Builder {
	return func(context.Context) (any, error) {
		return &widget{serial: counter.Add(1)}, nil
	}
}

func TestSingletonStore_CachesFirstValue(t *testing.T) {
	key := registry.For[*widget]()
	store := NewSingletonStore([]registry.Key{key})

	var builds atomic.Int64
	first, err := store.Resolve(context.Background(), key, widgetBuilder(&builds))
	require.NoError(t, err)

	second, err := store.Resolve(context.Background(), key, widgetBuilder(&builds))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, builds.Load())
}

func TestSingletonStore_ConcurrentResolvesConstructOnce(t *testing.T) {
	key := registry.For[*widget]()
	store := NewSingletonStore([]registry.Key{key})

	var builds atomic.Int64
	build := func(context.Context) (any, error) {
		time.Sleep(5 * time.Millisecond) // widen the race window
		return &widget{serial: builds.Add(1)}, nil
	}

	const resolvers = 32
	values := make([]any, resolvers)
	var wg sync.WaitGroup
	for i := 0; i < resolvers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := store.Resolve(context.Background(), key, build)
			assert.NoError(t, err)
			values[i] = v
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, builds.Load())
	for i := 1; i < resolvers; i++ {
		assert.Same(t, values[0], values[i])
	}
}

func TestSingletonStore_MemoizesFailure(t *testing.T) {
	key := registry.For[*widget]()
	store := NewSingletonStore([]registry.Key{key})

	boom := errors.New("boom")
	var builds atomic.Int64
	build := func(context.Context) (any, error) {
		builds.Add(1)
		return nil, boom
	}

	_, err1 := store.Resolve(context.Background(), key, build)
	require.Error(t, err1)

	_, err2 := store.Resolve(context.Background(), key, build)
	require.Error(t, err2)

	assert.Same(t, err1, err2, "the memoized error is returned verbatim")
	assert.EqualValues(t, 1, builds.Load(), "a failed constructor must not re-run")

	var cErr *ConstructionError
	require.ErrorAs(t, err1, &cErr)
	assert.Equal(t, key, cErr.Key)
	assert.ErrorIs(t, err1, boom)
}

func TestSingletonStore_UnknownKey(t *testing.T) {
	store := NewSingletonStore(nil)

	_, err := store.Resolve(context.Background(), registry.For[*widget](), widgetBuilder(&atomic.Int64{}))
	var rErr *ResolutionError
	require.ErrorAs(t, err, &rErr)
}

func TestSingletonStore_WaiterHonorsCancellation(t *testing.T) {
	key := registry.For[*widget]()
	store := NewSingletonStore([]registry.Key{key})

	started := make(chan struct{})
	release := make(chan struct{})
	build := func(context.Context) (any, error) {
		close(started)
		<-release
		return &widget{}, nil
	}

	winnerDone := make(chan error, 1)
	go func() {
		_, err := store.Resolve(context.Background(), key, build)
		winnerDone <- err
	}()
	<-started

	// A waiter that gives up stops waiting; the construction keeps going.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Resolve(ctx, key, build)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-winnerDone)

	value, ok := store.Value(key)
	assert.True(t, ok)
	assert.NotNil(t, value)
}

func TestSingletonStore_ConstructionDetachedFromCallerCancellation(t *testing.T) {
	key := registry.For[*widget]()
	store := NewSingletonStore([]registry.Key{key})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	build := func(buildCtx context.Context) (any, error) {
		assert.NoError(t, buildCtx.Err(), "construction must not see the caller's cancellation")
		return &widget{}, nil
	}

	_, err := store.Resolve(ctx, key, build)
	assert.NoError(t, err)
}

func TestSingletonStore_PanickingBuilder(t *testing.T) {
	key := registry.For[*widget]()
	store := NewSingletonStore([]registry.Key{key})

	var builds atomic.Int64
	build := func(context.Context) (any, error) {
		builds.Add(1)
		panic("constructor bug")
	}

	require.Panics(t, func() {
		_, _ = store.Resolve(context.Background(), key, build)
	})

	// The panic is memoized as a failure for everyone else.
	_, err := store.Resolve(context.Background(), key, build)
	var cErr *ConstructionError
	require.ErrorAs(t, err, &cErr)
	assert.Contains(t, err.Error(), "panicked")
	assert.EqualValues(t, 1, builds.Load())
}

func TestSingletonStore_CompletionOrder(t *testing.T) {
	keyA := registry.Named[*widget]("a")
	keyB := registry.Named[*widget]("b")
	store := NewSingletonStore([]registry.Key{keyA, keyB})

	var builds atomic.Int64
	_, err := store.Resolve(context.Background(), keyB, widgetBuilder(&builds))
	require.NoError(t, err)
	_, err = store.Resolve(context.Background(), keyA, widgetBuilder(&builds))
	require.NoError(t, err)

	assert.Equal(t, []registry.Key{keyB, keyA}, store.ConstructedInOrder())
}

func TestSingletonStore_States(t *testing.T) {
	keyA := registry.Named[*widget]("a")
	keyB := registry.Named[*widget]("b")
	store := NewSingletonStore([]registry.Key{keyA, keyB})

	state, ok := store.State(keyA)
	require.True(t, ok)
	assert.Equal(t, StateUninitialized, state)

	_, ok = store.State(registry.Named[*widget]("unknown"))
	assert.False(t, ok)

	_, err := store.Resolve(context.Background(), keyA, widgetBuilder(&atomic.Int64{}))
	require.NoError(t, err)

	_, _ = store.Resolve(context.Background(), keyB, func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})

	states := store.States()
	assert.Equal(t, StateReady, states[keyA])
	assert.Equal(t, StateFailed, states[keyB])
}
