package hclmanifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelproject/keel/internal/manifest"
	"github.com/keelproject/keel/internal/testutil"
)

type storeSettings struct {
	Path      string            `hcl:"path"`
	MaxSizeMB int64             `hcl:"max_size_mb,optional"`
	Compress  bool              `hcl:"compress,optional"`
	Regions   []string          `hcl:"regions,optional"`
	Labels    map[string]string `hcl:"labels,optional"`
}

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadOne(t *testing.T, content string) *manifest.Component {
	t.Helper()
	dir := t.TempDir()
	writeManifest(t, dir, "main.hcl", content)

	model, err := NewLoader().Load(testutil.Context(), dir)
	require.NoError(t, err)
	require.Len(t, model.Components, 1)
	return model.Components[0]
}

func TestLoad_ParsesComponentBlock(t *testing.T) {
	comp := loadOne(t, `
component "store" "primary" {
  scope      = "session"
  profiles   = ["prod", "staging"]
  lazy       = true
  phase      = "parallel"
  wave       = 2
  depends_on = ["clock.system", "idgen"]

  settings {
    path = "/var/lib/keel"
  }
}
`)

	assert.Equal(t, "store", comp.Kind)
	assert.Equal(t, "primary", comp.Name)
	assert.Equal(t, "session", comp.Scope)
	assert.Equal(t, []string{"prod", "staging"}, comp.Profiles)
	assert.True(t, comp.Lazy)
	assert.Equal(t, "parallel", comp.Phase)
	assert.Equal(t, 2, comp.Wave)
	assert.Equal(t, []string{"clock.system", "idgen"}, comp.DependsOn)
	assert.NotNil(t, comp.Settings)
	assert.Equal(t, "store.primary", comp.Address().String())
}

func TestLoad_DefaultsWhenAttributesAbsent(t *testing.T) {
	comp := loadOne(t, `component "store" "bare" {}`)

	assert.Empty(t, comp.Scope)
	assert.Empty(t, comp.Phase)
	assert.Zero(t, comp.Wave)
	assert.False(t, comp.Lazy)
	assert.Nil(t, comp.Settings)
}

func TestLoad_MergesFilesAcrossPaths(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.hcl", `component "store" "a" {}`)
	writeManifest(t, dir, filepath.Join("nested", "b.hcl"), `component "store" "b" {}`)
	solo := writeManifest(t, t.TempDir(), "c.hcl", `component "store" "c" {}`)

	model, err := NewLoader().Load(testutil.Context(), dir, solo)
	require.NoError(t, err)
	assert.Len(t, model.Components, 3)
}

func TestLoad_MissingPathsAreSkipped(t *testing.T) {
	model, err := NewLoader().Load(testutil.Context(), filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, model.Components)
}

func TestLoad_RejectsMalformedFiles(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "broken.hcl", `component "store" {`)

		_, err := NewLoader().Load(testutil.Context(), dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.hcl")
	})

	t.Run("bad kind label", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "bad.hcl", `component "9bad" "x" {}`)

		_, err := NewLoader().Load(testutil.Context(), dir)
		assert.ErrorContains(t, err, "invalid reference segment")
	})

	t.Run("unknown component attribute", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "attr.hcl", `
component "store" "x" {
  tier = 2
}
`)
		_, err := NewLoader().Load(testutil.Context(), dir)
		require.Error(t, err)
	})

	t.Run("nested block inside settings", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "nested.hcl", `
component "store" "x" {
  settings {
    inner {
      a = 1
    }
  }
}
`)
		_, err := NewLoader().Load(testutil.Context(), dir)
		assert.ErrorContains(t, err, "store.x")
	})
}

func TestLoad_ToleratesForeignTopLevelBlocks(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "mixed.hcl", `
component "store" "x" {}

pipeline "later" {
  stages = 3
}
`)

	model, err := NewLoader().Load(testutil.Context(), dir)
	require.NoError(t, err)
	assert.Len(t, model.Components, 1)
}

func TestSettingsDecode(t *testing.T) {
	t.Run("full round trip", func(t *testing.T) {
		comp := loadOne(t, `
component "store" "primary" {
  settings {
    path        = "/var/lib/keel"
    max_size_mb = 512
    compress    = true
    regions     = ["eu-1", "us-2"]
    labels      = { team = "runtime" }
  }
}
`)

		var got storeSettings
		require.NoError(t, comp.Settings.Decode(testutil.Context(), &got))
		assert.Equal(t, storeSettings{
			Path:      "/var/lib/keel",
			MaxSizeMB: 512,
			Compress:  true,
			Regions:   []string{"eu-1", "us-2"},
			Labels:    map[string]string{"team": "runtime"},
		}, got)
	})

	t.Run("convertible values adapt to the field type", func(t *testing.T) {
		comp := loadOne(t, `
component "store" "primary" {
  settings {
    path        = "/tmp"
    max_size_mb = "640"
  }
}
`)

		var got storeSettings
		require.NoError(t, comp.Settings.Decode(testutil.Context(), &got))
		assert.Equal(t, int64(640), got.MaxSizeMB)
	})

	t.Run("missing required setting", func(t *testing.T) {
		comp := loadOne(t, `
component "store" "primary" {
  settings {
    compress = true
  }
}
`)

		var got storeSettings
		err := comp.Settings.Decode(testutil.Context(), &got)
		assert.ErrorContains(t, err, `missing required setting "path"`)
	})

	t.Run("unsupported setting", func(t *testing.T) {
		comp := loadOne(t, `
component "store" "primary" {
  settings {
    path   = "/tmp"
    flavor = "mint"
  }
}
`)

		var got storeSettings
		err := comp.Settings.Decode(testutil.Context(), &got)
		assert.ErrorContains(t, err, `unsupported setting "flavor"`)
	})

	t.Run("inconvertible value", func(t *testing.T) {
		comp := loadOne(t, `
component "store" "primary" {
  settings {
    path = ["not", "a", "string"]
  }
}
`)

		var got storeSettings
		err := comp.Settings.Decode(testutil.Context(), &got)
		assert.ErrorContains(t, err, `setting "path"`)
	})

	t.Run("non-struct target", func(t *testing.T) {
		comp := loadOne(t, `
component "store" "primary" {
  settings {
    path = "/tmp"
  }
}
`)

		var n int
		err := comp.Settings.Decode(testutil.Context(), &n)
		assert.ErrorContains(t, err, "must point to a struct")
	})
}
