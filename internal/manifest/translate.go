package manifest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/keelproject/keel/internal/catalog"
	"github.com/keelproject/keel/internal/ctxlog"
	"github.com/keelproject/keel/internal/ref"
	"github.com/keelproject/keel/internal/registry"
)

// DefaultName is the reserved instance name that binds a component as its
// type's default, unqualified key.
const DefaultName = "default"

// unresolvedKind is the placeholder key type for components whose kind has no
// catalog constructor. Registering them keeps kind/constructor parity
// problems inside the registry validation pass, where they are reported
// together with every other configuration error.
type unresolvedKind struct{}

// plannedComponent is one active component with its manifest spellings
// already parsed against the registry vocabulary.
type plannedComponent struct {
	comp   *Component
	entry  catalog.Entry
	known  bool
	key    registry.Key
	target registry.Target
}

// Translate registers every active component of the model into the registry,
// resolving kinds through the catalog. Components whose profiles miss the
// active set are skipped. The registry is left unfrozen; the caller freezes
// and validates once all sources are registered.
func Translate(ctx context.Context, model *Model, cat *catalog.Catalog, reg *registry.Registry, active []string) error {
	logger := ctxlog.FromContext(ctx)

	// First pass decides which components are active and what key each one
	// registers under, so depends_on references resolve regardless of file
	// or declaration order.
	var plan []*plannedComponent
	keyByAddr := make(map[ref.Address]registry.Key)
	keysByKind := make(map[string][]registry.Key)
	skipped := 0

	for _, comp := range model.Components {
		addr := comp.Address()

		scope, err := registry.ParseScope(comp.Scope)
		if err != nil {
			return fmt.Errorf("component %s: %w", addr, err)
		}
		phase, err := registry.ParsePlacementPhase(comp.Phase)
		if err != nil {
			return fmt.Errorf("component %s: %w", addr, err)
		}

		entry, known := cat.Lookup(comp.Kind)
		var key registry.Key
		if known {
			key = registry.Key{Type: entry.Result, Qualifier: qualifier(comp.Name)}
		} else {
			key = registry.Key{Type: reflect.TypeOf(unresolvedKind{}), Qualifier: addr.String()}
		}

		target := registry.Target{
			Kind:        registry.KindConstructor,
			Constructor: entry.Constructor,
			Scope:       scope,
			Profiles:    comp.Profiles,
			Lazy:        comp.Lazy,
			Placement:   registry.Placement{Phase: phase, Wave: comp.Wave},
			Origin:      addr,
		}

		if !target.ActiveIn(active) {
			logger.Debug("Skipping component; no active profile matches.",
				"component", addr.String(), "profiles", comp.Profiles)
			skipped++
			continue
		}

		plan = append(plan, &plannedComponent{comp: comp, entry: entry, known: known, key: key, target: target})
		keyByAddr[addr] = key
		keysByKind[comp.Kind] = append(keysByKind[comp.Kind], key)
		if comp.Name == DefaultName {
			keyByAddr[ref.Default(comp.Kind)] = key
		}
	}

	// Second pass resolves references, decodes settings and registers.
	for _, p := range plan {
		addr := p.comp.Address()

		deps, err := dependsOnKeys(p.comp, cat, keyByAddr, keysByKind)
		if err != nil {
			return err
		}
		p.target.DependsOn = deps

		if p.known && p.comp.Settings != nil && p.entry.Settings == nil {
			return fmt.Errorf("component %s: kind %q does not accept settings", addr, p.comp.Kind)
		}
		if p.known && p.entry.Settings != nil {
			settings, err := decodeSettings(ctx, p.comp, p.entry)
			if err != nil {
				return err
			}
			p.target.Settings = settings
		}

		if err := reg.Register(p.key, p.target); err != nil {
			return fmt.Errorf("component %s: %w", addr, err)
		}
	}

	logger.Debug("Manifest translation complete.", "registered", len(plan), "skipped", skipped)
	return nil
}

// dependsOnKeys maps raw `kind.name` references onto registry keys. Named
// references are exact; a bare kind resolves to the declared default
// instance, or to the sole declared instance of that kind. References to a
// known kind with no matching declaration still produce a key, so validation
// reports them as dangling instead of translation aborting.
func dependsOnKeys(comp *Component, cat *catalog.Catalog, keyByAddr map[ref.Address]registry.Key, keysByKind map[string][]registry.Key) ([]registry.Key, error) {
	if len(comp.DependsOn) == 0 {
		return nil, nil
	}

	keys := make([]registry.Key, 0, len(comp.DependsOn))
	for _, raw := range comp.DependsOn {
		depAddr, err := ref.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("component %s depends_on: %w", comp.Address(), err)
		}

		if key, ok := keyByAddr[depAddr]; ok {
			keys = append(keys, key)
			continue
		}

		if !depAddr.HasName() {
			if candidates := keysByKind[depAddr.Kind]; len(candidates) == 1 {
				keys = append(keys, candidates[0])
				continue
			} else if len(candidates) > 1 {
				return nil, fmt.Errorf(
					"component %s depends_on %q: %d instances of kind %q declared and none named %s",
					comp.Address(), raw, len(candidates), depAddr.Kind, DefaultName,
				)
			}
		}

		entry, ok := cat.Lookup(depAddr.Kind)
		if !ok {
			return nil, fmt.Errorf("component %s depends_on %q: unknown component kind %q",
				comp.Address(), raw, depAddr.Kind)
		}
		keys = append(keys, registry.Key{Type: entry.Result, Qualifier: qualifier(depAddr.Name)})
	}
	return keys, nil
}

// decodeSettings produces the value handed to the constructor's settings
// parameter: a zero value of the entry's declared settings shape, overlaid
// with the component's settings block when one is present.
func decodeSettings(ctx context.Context, comp *Component, entry catalog.Entry) (any, error) {
	prototype := reflect.TypeOf(entry.Settings)
	base := prototype
	if prototype.Kind() == reflect.Pointer {
		base = prototype.Elem()
	}

	value := reflect.New(base)
	if comp.Settings != nil {
		if err := comp.Settings.Decode(ctx, value.Interface()); err != nil {
			return nil, fmt.Errorf("component %s settings: %w", comp.Address(), err)
		}
	}

	if prototype.Kind() == reflect.Pointer {
		return value.Interface(), nil
	}
	return value.Elem().Interface(), nil
}

// qualifier maps a manifest instance name to a registry qualifier. The
// reserved name `default` binds as the type's unqualified key.
func qualifier(name string) string {
	if name == DefaultName {
		return ""
	}
	return name
}
