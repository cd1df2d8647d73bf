package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	cfg, shouldExit, err := Parse([]string{}, out)

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, []string{"manifests"}, cfg.ManifestPaths)
	assert.Equal(t, 2*time.Millisecond, cfg.CriticalBudget)
	assert.False(t, cfg.DryRun)
}

func TestParse_Help(t *testing.T) {
	out := &bytes.Buffer{}

	_, shouldExit, err := Parse([]string{"-h"}, out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Version(t *testing.T) {
	out := &bytes.Buffer{}

	_, shouldExit, err := Parse([]string{"--version"}, out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Contains(t, out.String(), "keel "+Version)
}

func TestParse_Flags(t *testing.T) {
	out := &bytes.Buffer{}
	args := []string{
		"--manifest", "a.hcl,deploy/",
		"--profiles", "prod,eu",
		"--log-level", "debug",
		"--log-format", "json",
		"--workers", "4",
		"--healthcheck-addr", ":8080",
		"--dry-run",
	}

	cfg, shouldExit, err := Parse(args, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, []string{"a.hcl", "deploy/"}, cfg.ManifestPaths)
	assert.Equal(t, []string{"prod", "eu"}, cfg.Profiles)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, ":8080", cfg.HealthcheckAddr)
	assert.True(t, cfg.DryRun)
}

func TestParse_PositionalManifestPaths(t *testing.T) {
	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{"--manifest", "ignored.hcl", "boot.hcl", "extra/"}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, []string{"boot.hcl", "extra/"}, cfg.ManifestPaths,
		"positional paths replace the --manifest flag")
}

func TestParse_ConfigFile(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	path := filepath.Join(dir, "keel.toml")
	content := `
log_level = "warn"
workers = 6
critical_budget = "5ms"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	out := &bytes.Buffer{}

	// --- Act ---
	cfg, _, err := Parse([]string{"--config", path}, out)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, 5*time.Millisecond, cfg.CriticalBudget)
	assert.Equal(t, "text", cfg.LogFormat, "keys absent from the file keep their defaults")
}

func TestParse_Layering(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	path := filepath.Join(dir, "keel.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "error"`+"\n"+`workers = 2`), 0o600))
	t.Setenv("KEEL_LOG_LEVEL", "warn")
	out := &bytes.Buffer{}

	// --- Act ---
	cfg, _, err := Parse([]string{"--config", path, "--log-level", "debug"}, out)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "flags win over environment and file")
	assert.Equal(t, 2, cfg.Workers, "file values untouched by higher layers survive")
}

func TestParse_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keel.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "error"`), 0o600))
	t.Setenv("KEEL_LOG_LEVEL", "warn")

	cfg, _, err := Parse([]string{"--config", path}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{
			name:    "unknown flag",
			args:    []string{"--this-is-not-a-valid-flag"},
			wantMsg: "flag provided but not defined",
		},
		{
			name:    "invalid log level",
			args:    []string{"--log-level", "loud"},
			wantMsg: "invalid log level",
		},
		{
			name:    "invalid log format",
			args:    []string{"--log-format", "xml"},
			wantMsg: "invalid log format",
		},
		{
			name:    "negative workers",
			args:    []string{"--workers", "-3"},
			wantMsg: "workers must not be negative",
		},
		{
			name:    "missing config file",
			args:    []string{"--config", "/does/not/exist.toml"},
			wantMsg: "load config file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}

			_, _, err := Parse(tc.args, out)

			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
