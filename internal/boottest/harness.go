// Package boottest provides a standardized harness for integration tests:
// it boots a full runtime from inline manifest sources and captures its
// logs.
package boottest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keelproject/keel/internal/app"
	"github.com/keelproject/keel/internal/boot"
	"github.com/keelproject/keel/internal/catalog"
	"github.com/keelproject/keel/internal/config"
	"github.com/keelproject/keel/internal/hclmanifest"
	"github.com/keelproject/keel/internal/testutil"
)

// Result holds the outcomes of one harnessed boot.
type Result struct {
	// App is nil when startup panicked before an instance existed.
	App    *app.App
	Report boot.StartupReport
	// Logs captures everything the runtime logs. The buffer stays live:
	// background tasks keep appending after Boot returns.
	Logs *testutil.SafeBuffer
	Err  error
}

// Boot writes the manifest files into a temp dir, builds an app over them
// and drives the full bootstrap. Modules default to the compiled-in core
// set; constructed instances are released through t.Cleanup.
func Boot(t *testing.T, files map[string]string, modules ...catalog.Module) *Result {
	t.Helper()
	return BootWithConfig(t, files, nil, modules...)
}

// BootWithConfig is Boot with a configuration hook applied before startup.
func BootWithConfig(t *testing.T, files map[string]string, mutate func(*config.Config), modules ...catalog.Module) *Result {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg := config.Default()
	cfg.LogLevel = "debug"
	cfg.ManifestPaths = []string{tmpDir}
	cfg.Workers = 4
	if mutate != nil {
		mutate(cfg)
	}

	result := &Result{Logs: &testutil.SafeBuffer{}}

	// Startup panics become the result's error, so failure tests can assert
	// on them without crashing the suite.
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		result.App = app.New(result.Logs, cfg, hclmanifest.NewLoader(), modules...)
	}()
	if result.Err != nil {
		return result
	}

	result.Report, result.Err = result.App.Boot(context.Background())
	t.Cleanup(func() { _ = result.App.Close(context.Background()) })

	if os.Getenv("KEEL_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.Logs.String())
	}
	return result
}
