package registry

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/keelproject/keel/internal/ctxlog"
	"github.com/keelproject/keel/internal/graph"
	"github.com/keelproject/keel/internal/invoke"
)

// Report summarizes one validation run over a frozen registry.
type Report struct {
	Checked  int
	Errors   []error
	Duration time.Duration
}

// OK reports whether validation found no problems.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs four independent passes over the frozen registry: unresolved
// targets, dependency cycles, duplicate identities and interface keys
// without an implementation. Failures are aggregated rather than returned
// one at a time, so a single run reports everything that is wrong. The
// returned error, when non-nil, is a *ValidationError carrying the same
// failures as the report.
func (r *Registry) Validate(ctx context.Context) (*Report, error) {
	if !r.frozen.Load() {
		return nil, ErrNotFrozen
	}

	logger := ctxlog.FromContext(ctx)
	started := time.Now()
	keys := r.Keys()

	var errs []error
	errs = append(errs, r.checkResolvable(keys)...)
	errs = append(errs, r.checkCycles(keys)...)
	errs = append(errs, r.checkIdentityCollisions(keys)...)
	errs = append(errs, r.checkInterfacesImplemented(keys)...)

	report := &Report{Checked: len(keys), Errors: errs, Duration: time.Since(started)}
	if len(errs) > 0 {
		logger.Error("Registry validation failed.", "bindings", len(keys), "problems", len(errs))
		return report, &ValidationError{Errors: errs}
	}

	r.valid.Store(true)
	logger.Debug("Registry validated.", "bindings", len(keys), "duration", report.Duration)
	return report, nil
}

// checkResolvable is the unresolved-targets pass. Interface-typed keys are
// only checked for provider parseability here; their implementation checks
// belong to the dedicated interface pass.
func (r *Registry) checkResolvable(keys []Key) []error {
	var errs []error
	for _, key := range keys {
		target, _ := r.Lookup(key)
		isInterface := key.Type.Kind() == reflect.Interface

		switch target.Kind {
		case KindConstructor, KindFactory:
			fn := target.Provider()
			if fn == nil {
				if !isInterface {
					errs = append(errs, &UnresolvedBindingError{Key: key, Reason: missingProviderReason(target)})
				}
				break
			}
			sig, err := invoke.ParseFunc(fn)
			if err != nil {
				errs = append(errs, &UnresolvedBindingError{Key: key, Reason: err.Error()})
				break
			}
			if !isInterface && !sig.Result().AssignableTo(key.Type) {
				errs = append(errs, &UnresolvedBindingError{
					Key:    key,
					Reason: fmt.Sprintf("%s returns %s, binding requires %s", target.Kind, sig.Result(), key.Type),
				})
			}

		case KindInstance:
			if target.Instance == nil {
				if !isInterface {
					errs = append(errs, &UnresolvedBindingError{Key: key, Reason: "no instance provided"})
				}
				break
			}
			if instType := reflect.TypeOf(target.Instance); !isInterface && !instType.AssignableTo(key.Type) {
				errs = append(errs, &UnresolvedBindingError{
					Key:    key,
					Reason: fmt.Sprintf("instance of type %s, binding requires %s", instType, key.Type),
				})
			}
		}

		_, problems := r.DependencyKeys(key, target)
		errs = append(errs, problems...)
	}
	return errs
}

// missingProviderReason explains a nil provider. Bindings that came from a
// declarative manifest name their origin so the report points at the
// component declaration, not the synthetic key.
func missingProviderReason(target Target) string {
	if !target.Origin.IsZero() {
		return fmt.Sprintf("no %s registered for component %s", target.Kind, target.Origin)
	}
	return fmt.Sprintf("no %s provided", target.Kind)
}

// checkCycles is the cycle-detection pass. Only edges between registered
// keys are followed; dependencies on unregistered types are external leaves
// and terminate traversal.
func (r *Registry) checkCycles(keys []Key) []error {
	g := graph.New()
	for _, key := range keys {
		g.AddNode(key.String())
	}

	var errs []error
	for _, key := range keys {
		target, _ := r.Lookup(key)
		deps, _ := r.DependencyKeys(key, target)
		for _, dep := range deps {
			if err := g.AddEdge(key.String(), dep.String()); err != nil {
				// The only in-registry failure mode here is a self-reference,
				// which is the minimal cycle.
				errs = append(errs, &CircularDependencyError{Path: []string{key.String(), dep.String()}})
			}
		}
	}

	for _, cycle := range g.DetectCycles() {
		errs = append(errs, &CircularDependencyError{Path: cycle})
	}
	return errs
}

// checkIdentityCollisions re-verifies binding uniqueness at the identity
// level. The map rejects equal keys at registration, but two distinct types
// can render to the same identity string and would then be indistinguishable
// in reports and graph analysis.
func (r *Registry) checkIdentityCollisions(keys []Key) []error {
	var errs []error
	seen := make(map[string]Key, len(keys))
	for _, key := range keys {
		id := key.String()
		if _, dup := seen[id]; dup {
			errs = append(errs, &DuplicateBindingError{Key: key})
			continue
		}
		seen[id] = key
	}
	return errs
}

// checkInterfacesImplemented is the missing-implementation pass over
// interface-typed keys.
func (r *Registry) checkInterfacesImplemented(keys []Key) []error {
	var errs []error
	for _, key := range keys {
		if key.Type.Kind() != reflect.Interface {
			continue
		}
		target, _ := r.Lookup(key)

		switch target.Kind {
		case KindConstructor, KindFactory:
			fn := target.Provider()
			if fn == nil {
				errs = append(errs, &MissingImplementationError{Key: key, Reason: missingProviderReason(target)})
				break
			}
			sig, err := invoke.ParseFunc(fn)
			if err != nil {
				break // already reported by the unresolved pass
			}
			if !sig.Result().AssignableTo(key.Type) {
				errs = append(errs, &MissingImplementationError{
					Key:    key,
					Reason: fmt.Sprintf("%s returns %s, which does not implement %s", target.Kind, sig.Result(), key.Type),
				})
			}

		case KindInstance:
			if target.Instance == nil {
				errs = append(errs, &MissingImplementationError{Key: key, Reason: "binding provides a nil instance"})
				break
			}
			if instType := reflect.TypeOf(target.Instance); !instType.AssignableTo(key.Type) {
				errs = append(errs, &MissingImplementationError{
					Key:    key,
					Reason: fmt.Sprintf("instance of type %s does not implement %s", instType, key.Type),
				})
			}
		}
	}
	return errs
}

// DependencyKeys derives the registered keys a target depends on: one per
// provider parameter whose type is bound in the registry, plus the explicit
// DependsOn list. Parameters whose types are not bound at all are external
// leaves and produce no edge; ambiguous parameters and dangling DependsOn
// references are reported as problems.
func (r *Registry) DependencyKeys(key Key, target Target) ([]Key, []error) {
	var deps []Key
	var problems []error

	if fn := target.Provider(); fn != nil {
		if sig, err := invoke.ParseFunc(fn); err == nil {
			var settingsType reflect.Type
			if target.Settings != nil {
				settingsType = reflect.TypeOf(target.Settings)
			}

			for _, param := range sig.Params() {
				if settingsType != nil && param == settingsType {
					continue
				}
				candidates := r.keysForType(param)
				switch {
				case len(candidates) == 0:
					// External dependency; the graph treats it as a leaf.
				case len(candidates) == 1:
					deps = append(deps, candidates[0])
				default:
					dep, err := r.KeyForType(param)
					if err != nil {
						problems = append(problems, &UnresolvedBindingError{Key: key, Reason: err.Error()})
						continue
					}
					deps = append(deps, dep)
				}
			}
		}
	}

	for _, dep := range target.DependsOn {
		if _, ok := r.Lookup(dep); !ok {
			problems = append(problems, &UnresolvedBindingError{
				Key:    key,
				Reason: fmt.Sprintf("depends_on references unregistered key %s", dep),
			})
			continue
		}
		deps = append(deps, dep)
	}

	return deps, problems
}
