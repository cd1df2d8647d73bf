package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelproject/keel/internal/catalog"
)

func TestNew_GeneratesUniqueUUIDs(t *testing.T) {
	g := New(Settings{})

	a := g.NewID()
	b := g.NewID()

	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestNew_AppliesPrefix(t *testing.T) {
	g := New(Settings{Prefix: "job"})

	id := g.NewID()
	require.True(t, strings.HasPrefix(id, "job-"), "got %q", id)

	_, err := uuid.Parse(strings.TrimPrefix(id, "job-"))
	assert.NoError(t, err)
}

func TestModule_RegistersKindWithSettings(t *testing.T) {
	cat := catalog.New()
	(&Module{}).Register(cat)

	entry, ok := cat.Lookup("idgen")
	require.True(t, ok)
	assert.Equal(t, Settings{}, entry.Settings)
}
