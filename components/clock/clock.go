// Package clock provides the system time source as a catalog component.
// Consumers depend on the Clock interface, so fixed or stepped fakes can be
// swapped in through an alternative binding.
package clock

import (
	"time"

	"github.com/keelproject/keel/internal/catalog"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewSystem returns the wall-clock implementation.
func NewSystem() Clock {
	return systemClock{}
}

// Module implements the catalog.Module interface for this package.
type Module struct{}

// Register registers the clock kind with the catalog.
func (m *Module) Register(c *catalog.Catalog) {
	c.Register("clock", NewSystem, catalog.WithDescription("system wall clock"))
}
