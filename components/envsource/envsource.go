// Package envsource exposes process environment variables as a catalog
// component, optionally scoped to a key prefix.
package envsource

import (
	"os"
	"strings"

	"github.com/keelproject/keel/internal/catalog"
)

// Settings configures which environment variables the source sees.
type Settings struct {
	// Prefix narrows the source to variables starting with it; lookups and
	// listings strip the prefix.
	Prefix string `hcl:"prefix,optional"`
}

// Source reads configuration values from the process environment.
type Source struct {
	prefix string
}

// New returns a Source honoring the given settings.
func New(s Settings) *Source {
	return &Source{prefix: s.Prefix}
}

// Get looks up one variable under the source's prefix.
func (s *Source) Get(key string) (string, bool) {
	return os.LookupEnv(s.prefix + key)
}

// All returns every visible variable with the prefix stripped.
func (s *Source) All() map[string]string {
	out := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 {
			continue
		}
		name, ok := strings.CutPrefix(pair[0], s.prefix)
		if !ok {
			continue
		}
		out[name] = pair[1]
	}
	return out
}

// Module implements the catalog.Module interface for this package.
type Module struct{}

// Register registers the envsource kind with the catalog.
func (m *Module) Register(c *catalog.Catalog) {
	c.Register("envsource", New,
		catalog.WithSettings(Settings{}),
		catalog.WithDescription("process environment variable source"),
	)
}
