package registry

import (
	"fmt"
	"slices"

	"github.com/keelproject/keel/internal/ref"
)

// Scope is the lifetime policy applied to a binding's instances.
type Scope int

const (
	// ScopeSingleton caches one instance per key for the container lifetime.
	ScopeSingleton Scope = iota
	// ScopePrototype constructs a fresh instance on every resolve.
	ScopePrototype
	// ScopeSession caches one instance per (key, session) pair.
	ScopeSession
	// ScopeLazy is singleton lifetime behind a lazy handle. Registration
	// normalizes it to ScopeSingleton with the Lazy flag set.
	ScopeLazy
)

func (s Scope) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopePrototype:
		return "prototype"
	case ScopeSession:
		return "session"
	case ScopeLazy:
		return "lazy"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope converts the manifest spelling of a scope into its value.
func ParseScope(raw string) (Scope, error) {
	switch raw {
	case "singleton", "":
		return ScopeSingleton, nil
	case "prototype":
		return ScopePrototype, nil
	case "session":
		return ScopeSession, nil
	case "lazy":
		return ScopeLazy, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", raw)
	}
}

// TargetKind discriminates what a binding resolves to.
type TargetKind int

const (
	// KindConstructor builds instances from an implementation constructor.
	KindConstructor TargetKind = iota
	// KindInstance returns a fixed, pre-built value.
	KindInstance
	// KindFactory invokes a factory function; pairing it with ScopePrototype
	// gives a fresh value per resolve.
	KindFactory
)

func (k TargetKind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindInstance:
		return "instance"
	case KindFactory:
		return "factory"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PlacementPhase assigns a binding to a bootstrap phase.
type PlacementPhase int

const (
	// PlaceOnDemand leaves construction to the first resolve.
	PlaceOnDemand PlacementPhase = iota
	// PlaceCritical constructs the binding during the sequential critical phase.
	PlaceCritical
	// PlaceParallel constructs the binding during its parallel wave.
	PlaceParallel
	// PlaceBackground constructs the binding after boot returns control.
	PlaceBackground
)

func (p PlacementPhase) String() string {
	switch p {
	case PlaceOnDemand:
		return "on-demand"
	case PlaceCritical:
		return "critical"
	case PlaceParallel:
		return "parallel"
	case PlaceBackground:
		return "background"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ParsePlacementPhase converts the manifest spelling of a bootstrap phase
// into its value.
func ParsePlacementPhase(raw string) (PlacementPhase, error) {
	switch raw {
	case "", "on-demand":
		return PlaceOnDemand, nil
	case "critical":
		return PlaceCritical, nil
	case "parallel":
		return PlaceParallel, nil
	case "background":
		return PlaceBackground, nil
	default:
		return 0, fmt.Errorf("unknown bootstrap phase %q", raw)
	}
}

// Placement positions a binding in the bootstrap sequence. Wave orders the
// parallel phase (1 loads before 2 before 3) and is meaningful only there.
type Placement struct {
	Phase PlacementPhase
	Wave  int
}

func (p Placement) String() string {
	if p.Phase == PlaceParallel {
		return fmt.Sprintf("parallel/wave-%d", p.Wave)
	}
	return p.Phase.String()
}

// Target describes what a Key resolves to and how its instances live.
type Target struct {
	Kind        TargetKind
	Constructor any
	Factory     any
	Instance    any

	Scope     Scope
	Profiles  []string
	Lazy      bool
	Placement Placement

	// DependsOn lists explicit dependency keys in addition to the ones
	// implied by the provider's parameters.
	DependsOn []Key

	// Settings is the decoded settings value handed to the provider's
	// settings parameter, when it declares one.
	Settings any

	// Origin records the declarative address the binding came from. It is
	// zero for bindings registered through the builder API.
	Origin ref.Address
}

// Construct creates a singleton-scoped target built by a constructor.
func Construct(fn any) Target {
	return Target{Kind: KindConstructor, Constructor: fn, Scope: ScopeSingleton}
}

// Instance creates a target that always resolves to the given value.
func Instance(value any) Target {
	return Target{Kind: KindInstance, Instance: value, Scope: ScopeSingleton}
}

// Factory creates a prototype-scoped target built by a factory function.
func Factory(fn any) Target {
	return Target{Kind: KindFactory, Factory: fn, Scope: ScopePrototype}
}

// WithScope returns a copy of the target with the scope replaced.
func (t Target) WithScope(s Scope) Target {
	t.Scope = s
	return t
}

// WithProfiles returns a copy of the target restricted to the given profiles.
func (t Target) WithProfiles(profiles ...string) Target {
	t.Profiles = profiles
	return t
}

// WithPlacement returns a copy of the target positioned in the bootstrap
// sequence.
func (t Target) WithPlacement(p Placement) Target {
	t.Placement = p
	return t
}

// WithDependsOn returns a copy of the target with explicit dependency keys.
func (t Target) WithDependsOn(keys ...Key) Target {
	t.DependsOn = keys
	return t
}

// WithSettings returns a copy of the target carrying a decoded settings value.
func (t Target) WithSettings(settings any) Target {
	t.Settings = settings
	return t
}

// AsLazy returns a copy of the target marked for lazy resolution.
func (t Target) AsLazy() Target {
	t.Lazy = true
	return t
}

// Provider returns the function that builds instances for this target, or
// nil for instance targets.
func (t Target) Provider() any {
	switch t.Kind {
	case KindConstructor:
		return t.Constructor
	case KindFactory:
		return t.Factory
	default:
		return nil
	}
}

// ActiveIn reports whether the target participates under the given active
// profiles. An empty profile set on the target means it is always active.
func (t Target) ActiveIn(active []string) bool {
	if len(t.Profiles) == 0 {
		return true
	}
	for _, p := range t.Profiles {
		if slices.Contains(active, p) {
			return true
		}
	}
	return false
}

// normalize folds the ScopeLazy spelling into singleton-plus-lazy so the
// rest of the runtime only deals with three store shapes.
func (t Target) normalize() Target {
	if t.Scope == ScopeLazy {
		t.Scope = ScopeSingleton
		t.Lazy = true
	}
	return t
}
