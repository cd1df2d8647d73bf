package manifest

import (
	"context"

	"github.com/keelproject/keel/internal/ref"
)

// Model is the unified, format-agnostic representation of every component
// declaration loaded from manifest files.
type Model struct {
	Components []*Component
}

// Component is one declared component instance: a catalog kind, an instance
// name, and the lifecycle attributes the manifest set on it. Field values are
// raw manifest spellings; translation parses them against the registry's
// vocabulary.
type Component struct {
	Kind string
	Name string

	Scope    string
	Profiles []string
	Lazy     bool
	Phase    string
	Wave     int

	// DependsOn holds raw `kind.name` references to other declared
	// components.
	DependsOn []string

	// Settings carries the component's settings block, still in its source
	// format. It is nil when the block is absent.
	Settings Settings

	// Source names the file the declaration came from, for error reporting.
	Source string
}

// Address returns the component's declarative identity.
func (c *Component) Address() ref.Address {
	return ref.New(c.Kind, c.Name)
}

// Settings is a format-specific carrier for a component's settings block.
// Decode populates a settings struct, converting attribute values to the
// field types the struct declares.
type Settings interface {
	Decode(ctx context.Context, target any) error
}

// Loader is the interface for a format-specific manifest loader. Load reads
// every manifest under the given paths and returns the merged model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
