// Package idgen provides a uuid-backed identifier source as a catalog
// component.
package idgen

import (
	"github.com/google/uuid"

	"github.com/keelproject/keel/internal/catalog"
)

// Generator mints unique identifiers.
type Generator interface {
	NewID() string
}

// Settings configures the generated identifiers.
type Settings struct {
	// Prefix is prepended to every identifier, separated by a dash.
	Prefix string `hcl:"prefix,optional"`
}

type uuidGenerator struct {
	prefix string
}

// New returns a Generator producing uuid v4 strings.
func New(s Settings) Generator {
	return &uuidGenerator{prefix: s.Prefix}
}

func (g *uuidGenerator) NewID() string {
	id := uuid.NewString()
	if g.prefix == "" {
		return id
	}
	return g.prefix + "-" + id
}

// Module implements the catalog.Module interface for this package.
type Module struct{}

// Register registers the idgen kind with the catalog.
func (m *Module) Register(c *catalog.Catalog) {
	c.Register("idgen", New,
		catalog.WithSettings(Settings{}),
		catalog.WithDescription("uuid v4 identifier source"),
	)
}
