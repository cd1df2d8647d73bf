// Package httpclient provides a shared, pool-configured HTTP client as a
// catalog component.
package httpclient

import "github.com/keelproject/keel/internal/catalog"

// Module implements the catalog.Module interface for this package.
type Module struct{}

// Register registers the httpclient kind with the catalog.
func (m *Module) Register(c *catalog.Catalog) {
	c.Register("httpclient", New,
		catalog.WithSettings(Settings{}),
		catalog.WithDescription("pooled HTTP client"),
	)
}
