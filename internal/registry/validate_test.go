package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelproject/keel/internal/testutil"
)

type journal interface {
	Append(line string)
}

type fileJournal struct{ lines []string }

func (j *fileJournal) Append(line string) { j.lines = append(j.lines, line) }

func newFileJournal() *fileJournal { return &fileJournal{} }

type reporter struct{ j journal }

func newReporter(j journal) *reporter { return &reporter{j: j} }

// frozen builds and freezes a registry from (key, target) pairs, failing the
// test on any registration error.
func frozen(t *testing.T, register func(r *Registry)) *Registry {
	t.Helper()
	r := New()
	register(r)
	r.Freeze()
	return r
}

func TestValidate_RequiresFrozenRegistry(t *testing.T) {
	r := New()
	_, err := r.Validate(testutil.Context())
	assert.ErrorIs(t, err, ErrNotFrozen)
}

func TestValidate_EmptyRegistry(t *testing.T) {
	r := frozen(t, func(*Registry) {})

	report, err := r.Validate(testutil.Context())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Zero(t, report.Checked)
	assert.True(t, r.Validated())
}

func TestValidate_WellFormedGraph(t *testing.T) {
	r := frozen(t, func(r *Registry) {
		require.NoError(t, r.Register(For[*tickClock](), Construct(newTickClock)))
		require.NoError(t, r.Register(For[*eventStore](), Construct(newEventStore)))
	})

	report, err := r.Validate(testutil.Context())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Checked)
	assert.True(t, r.Validated())
}

func TestValidate_AggregatesAllFailures(t *testing.T) {
	// Two independent problems: a nil constructor and a dangling depends_on.
	r := frozen(t, func(r *Registry) {
		require.NoError(t, r.Register(For[*tickClock](), Construct(nil)))
		require.NoError(t, r.Register(For[*eventStore](),
			Construct(newEventStore).WithDependsOn(Named[*fileJournal]("missing"))))
	})

	report, err := r.Validate(testutil.Context())
	require.Error(t, err)
	assert.False(t, report.OK())
	assert.Len(t, report.Errors, 2)
	assert.False(t, r.Validated())

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Errors, 2)
	assert.Contains(t, err.Error(), "no constructor provided")
	assert.Contains(t, err.Error(), "depends_on references unregistered key")
}

func TestValidate_ConstructorReturnMismatch(t *testing.T) {
	r := frozen(t, func(r *Registry) {
		require.NoError(t, r.Register(For[*eventStore](), Construct(newTickClock)))
	})

	_, err := r.Validate(testutil.Context())
	var unresolved *UnresolvedBindingError
	require.ErrorAs(t, err, &unresolved)
	assert.Contains(t, unresolved.Reason, "binding requires *registry.eventStore")
}

func TestValidate_RejectsVariadicProvider(t *testing.T) {
	r := frozen(t, func(r *Registry) {
		require.NoError(t, r.Register(For[*fileJournal](), Construct(func(lines ...string) *fileJournal {
			return &fileJournal{lines: lines}
		})))
	})

	_, err := r.Validate(testutil.Context())
	var unresolved *UnresolvedBindingError
	require.ErrorAs(t, err, &unresolved)
	assert.Contains(t, unresolved.Reason, "variadic")
}

func TestValidate_InstanceTypeMismatch(t *testing.T) {
	r := frozen(t, func(r *Registry) {
		require.NoError(t, r.Register(For[*eventStore](), Instance(&tickClock{})))
	})

	_, err := r.Validate(testutil.Context())
	var unresolved *UnresolvedBindingError
	require.ErrorAs(t, err, &unresolved)
	assert.Contains(t, unresolved.Reason, "binding requires *registry.eventStore")
}

func TestValidate_InterfaceKeys(t *testing.T) {
	t.Run("constructor returning an implementation passes", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			require.NoError(t, r.Register(For[journal](), Construct(newFileJournal)))
		})

		_, err := r.Validate(testutil.Context())
		assert.NoError(t, err)
	})

	t.Run("instance implementing the interface passes", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			require.NoError(t, r.Register(For[journal](), Instance(&fileJournal{})))
		})

		_, err := r.Validate(testutil.Context())
		assert.NoError(t, err)
	})

	t.Run("constructor returning a non-implementation fails", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			require.NoError(t, r.Register(For[journal](), Construct(newTickClock)))
		})

		_, err := r.Validate(testutil.Context())
		var missing *MissingImplementationError
		require.ErrorAs(t, err, &missing)
		assert.Contains(t, missing.Reason, "does not implement")
	})

	t.Run("nil instance fails", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			require.NoError(t, r.Register(For[journal](), Instance(nil)))
		})

		_, err := r.Validate(testutil.Context())
		var missing *MissingImplementationError
		require.ErrorAs(t, err, &missing)
	})
}

func TestValidate_CycleDetection(t *testing.T) {
	t.Run("two-node cycle is reported with its full path", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			a := For[*tickClock]()
			b := For[*eventStore]()
			require.NoError(t, r.Register(a, Construct(newTickClock).WithDependsOn(b)))
			require.NoError(t, r.Register(b, Construct(newEventStore).WithDependsOn(a)))
		})

		_, err := r.Validate(testutil.Context())
		var cycle *CircularDependencyError
		require.ErrorAs(t, err, &cycle)
		require.GreaterOrEqual(t, len(cycle.Path), 3)
		assert.Equal(t, cycle.Path[0], cycle.Path[len(cycle.Path)-1],
			"the entry key closes the reported path")
		assert.Contains(t, err.Error(), "circular dependency detected")
	})

	t.Run("self-reference is the minimal cycle", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			key := For[*tickClock]()
			require.NoError(t, r.Register(key, Construct(newTickClock).WithDependsOn(key)))
		})

		_, err := r.Validate(testutil.Context())
		var cycle *CircularDependencyError
		require.ErrorAs(t, err, &cycle)
		assert.Len(t, cycle.Path, 2)
	})

	t.Run("cycle through constructor parameters is found", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			// eventStore's constructor takes *tickClock; closing the loop via
			// depends_on makes the combined edge set cyclic.
			require.NoError(t, r.Register(For[*eventStore](), Construct(newEventStore)))
			require.NoError(t, r.Register(For[*tickClock](),
				Construct(newTickClock).WithDependsOn(For[*eventStore]())))
		})

		_, err := r.Validate(testutil.Context())
		var cycle *CircularDependencyError
		require.ErrorAs(t, err, &cycle)
	})
}

func TestValidate_UnboundParametersAreExternalLeaves(t *testing.T) {
	// newEventStore takes *tickClock, which is deliberately not registered.
	// The parameter is treated as externally supplied, not a broken edge.
	r := frozen(t, func(r *Registry) {
		require.NoError(t, r.Register(For[*eventStore](), Construct(newEventStore)))
	})

	report, err := r.Validate(testutil.Context())
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestValidate_AmbiguousParameterDependency(t *testing.T) {
	t.Run("two qualified candidates and no default fail", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			require.NoError(t, r.Register(Named[*tickClock]("wall"), Construct(newTickClock)))
			require.NoError(t, r.Register(Named[*tickClock]("monotonic"), Construct(newTickClock)))
			require.NoError(t, r.Register(For[*eventStore](), Construct(newEventStore)))
		})

		_, err := r.Validate(testutil.Context())
		var unresolved *UnresolvedBindingError
		require.ErrorAs(t, err, &unresolved)
		assert.Contains(t, unresolved.Reason, "ambiguous")
	})

	t.Run("a default binding disambiguates", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			require.NoError(t, r.Register(Named[*tickClock]("wall"), Construct(newTickClock)))
			require.NoError(t, r.Register(For[*tickClock](), Construct(newTickClock)))
			require.NoError(t, r.Register(For[*eventStore](), Construct(newEventStore)))
		})

		_, err := r.Validate(testutil.Context())
		assert.NoError(t, err)
	})
}

func TestDependencyKeys(t *testing.T) {
	t.Run("resolves parameter and explicit dependencies", func(t *testing.T) {
		r := frozen(t, func(r *Registry) {
			require.NoError(t, r.Register(For[*tickClock](), Construct(newTickClock)))
			require.NoError(t, r.Register(For[*fileJournal](), Construct(newFileJournal)))
			require.NoError(t, r.Register(For[*eventStore](),
				Construct(newEventStore).WithDependsOn(For[*fileJournal]())))
		})

		key := For[*eventStore]()
		target, ok := r.Lookup(key)
		require.True(t, ok)

		deps, problems := r.DependencyKeys(key, target)
		assert.Empty(t, problems)
		assert.ElementsMatch(t, []Key{For[*tickClock](), For[*fileJournal]()}, deps)
	})

	t.Run("skips the settings parameter", func(t *testing.T) {
		type storeSettings struct{ Path string }
		ctor := func(c *tickClock, s storeSettings) *eventStore { return &eventStore{clock: c} }

		r := frozen(t, func(r *Registry) {
			require.NoError(t, r.Register(For[*tickClock](), Construct(newTickClock)))
			require.NoError(t, r.Register(For[*eventStore](),
				Construct(ctor).WithSettings(storeSettings{Path: "/tmp/store"})))
		})

		key := For[*eventStore]()
		target, ok := r.Lookup(key)
		require.True(t, ok)

		deps, problems := r.DependencyKeys(key, target)
		assert.Empty(t, problems)
		assert.Equal(t, []Key{For[*tickClock]()}, deps)
	})
}
