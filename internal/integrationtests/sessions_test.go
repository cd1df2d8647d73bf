package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelproject/keel/components/printer"
	"github.com/keelproject/keel/internal/boottest"
	"github.com/keelproject/keel/internal/container"
	"github.com/keelproject/keel/internal/registry"
	"github.com/keelproject/keel/internal/testutil"
)

func TestBoot_SessionScopedComponentsAreIsolated(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
component "printer" "default" {
  scope = "session"

  settings {
    prefix = "[session]"
  }
}
`,
	}
	result := boottest.Boot(t, files)
	require.NoError(t, result.Err)

	ctx := testutil.Context()
	c := result.App.Container()
	key := registry.For[*printer.Printer]()

	// --- Act ---
	s1, err := c.NewSession(ctx)
	require.NoError(t, err)
	s2, err := c.NewSession(ctx)
	require.NoError(t, err)

	first, err := s1.Resolve(ctx, key)
	require.NoError(t, err)
	again, err := s1.Resolve(ctx, key)
	require.NoError(t, err)
	other, err := s2.Resolve(ctx, key)
	require.NoError(t, err)

	// --- Assert ---
	assert.Same(t, first, again, "one instance per session")
	assert.NotSame(t, first, other, "instances do not leak across sessions")

	_, err = c.Resolve(ctx, key)
	var mismatch *container.ScopeMismatchError
	assert.ErrorAs(t, err, &mismatch, "session-scoped keys cannot resolve at container level")

	require.NoError(t, s1.Close(ctx))
	require.NoError(t, s2.Close(ctx))
}
