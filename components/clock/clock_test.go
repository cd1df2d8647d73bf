package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelproject/keel/internal/catalog"
)

func TestNewSystem_TracksWallClock(t *testing.T) {
	c := NewSystem()

	now := c.Now()
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestModule_RegistersInterfaceKind(t *testing.T) {
	cat := catalog.New()
	(&Module{}).Register(cat)

	entry, ok := cat.Lookup("clock")
	require.True(t, ok)
	assert.Nil(t, entry.Settings)
	assert.Equal(t, "Clock", entry.Result.Name())
	assert.Equal(t, "interface", entry.Result.Kind().String())
}
