package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelproject/keel/internal/boottest"
	"github.com/keelproject/keel/internal/config"
)

const profiledManifest = `
component "clock" "default" {
  phase = "critical"
}

component "printer" "default" {
  profiles = ["dev"]

  settings {
    prefix = "[dev]"
  }
}

component "httpclient" "default" {
  profiles = ["prod", "staging"]

  settings {
    timeout_ms = 2500
  }
}
`

func TestBoot_ProfilesSelectComponents(t *testing.T) {
	testCases := []struct {
		name         string
		profiles     []string
		wantBindings int
	}{
		{name: "no active profiles keeps only unrestricted components", profiles: nil, wantBindings: 1},
		{name: "dev profile adds the printer", profiles: []string{"dev"}, wantBindings: 2},
		{name: "prod profile adds the http client", profiles: []string{"prod"}, wantBindings: 2},
		{name: "both profiles keep everything", profiles: []string{"dev", "staging"}, wantBindings: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := boottest.BootWithConfig(t,
				map[string]string{"main.hcl": profiledManifest},
				func(cfg *config.Config) { cfg.Profiles = tc.profiles },
			)

			require.NoError(t, result.Err)
			assert.Equal(t, tc.wantBindings, result.App.Registry().Len())
		})
	}
}
