package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the runtime configuration of one keel instance. Values layer in
// order: defaults, then a TOML file, then KEEL_* environment variables, then
// command-line flags.
type Config struct {
	LogLevel  string
	LogFormat string

	ManifestPaths []string
	Profiles      []string

	Workers        int
	CriticalBudget time.Duration
	PhaseTimeout   time.Duration

	// HealthcheckAddr is the listen address of the health/metrics server;
	// empty disables it.
	HealthcheckAddr string

	// DryRun stops after validation without constructing anything.
	DryRun bool
}

// Default returns the configuration used when nothing overrides it. Workers
// zero means one worker per available CPU.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		ManifestPaths:  []string{"manifests"},
		Workers:        0,
		CriticalBudget: 2 * time.Millisecond,
		PhaseTimeout:   30 * time.Second,
	}
}

// fileConfig maps keel.toml keys onto overlay fields. Durations are spelled
// as strings ("2ms", "45s").
type fileConfig struct {
	LogLevel        string   `toml:"log_level"`
	LogFormat       string   `toml:"log_format"`
	ManifestPaths   []string `toml:"manifest_paths"`
	Profiles        []string `toml:"profiles"`
	Workers         int      `toml:"workers"`
	CriticalBudget  string   `toml:"critical_budget"`
	PhaseTimeout    string   `toml:"phase_timeout"`
	HealthcheckAddr string   `toml:"healthcheck_addr"`
}

// ApplyFile overlays settings from a TOML file. Only keys present in the
// file override; everything else keeps its current value.
func (c *Config) ApplyFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}

	if meta.IsDefined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		c.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("manifest_paths") {
		c.ManifestPaths = raw.ManifestPaths
	}
	if meta.IsDefined("profiles") {
		c.Profiles = raw.Profiles
	}
	if meta.IsDefined("workers") {
		c.Workers = raw.Workers
	}
	if meta.IsDefined("critical_budget") {
		d, err := time.ParseDuration(raw.CriticalBudget)
		if err != nil {
			return fmt.Errorf("config critical_budget: %w", err)
		}
		c.CriticalBudget = d
	}
	if meta.IsDefined("phase_timeout") {
		d, err := time.ParseDuration(raw.PhaseTimeout)
		if err != nil {
			return fmt.Errorf("config phase_timeout: %w", err)
		}
		c.PhaseTimeout = d
	}
	if meta.IsDefined("healthcheck_addr") {
		c.HealthcheckAddr = strings.TrimSpace(raw.HealthcheckAddr)
	}
	return nil
}

// ApplyEnv overlays settings from KEEL_* environment variables. List values
// are comma-separated.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("KEEL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("KEEL_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("KEEL_MANIFEST_PATHS"); v != "" {
		c.ManifestPaths = splitList(v)
	}
	if v := os.Getenv("KEEL_PROFILES"); v != "" {
		c.Profiles = splitList(v)
	}
	if v := os.Getenv("KEEL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KEEL_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("KEEL_CRITICAL_BUDGET"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KEEL_CRITICAL_BUDGET: %w", err)
		}
		c.CriticalBudget = d
	}
	if v := os.Getenv("KEEL_PHASE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KEEL_PHASE_TIMEOUT: %w", err)
		}
		c.PhaseTimeout = d
	}
	if v := os.Getenv("KEEL_HEALTHCHECK_ADDR"); v != "" {
		c.HealthcheckAddr = v
	}
	return nil
}

// Validate rejects configurations the runtime cannot honor.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be 'text' or 'json'", c.LogFormat)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.CriticalBudget <= 0 {
		return fmt.Errorf("critical budget must be positive, got %s", c.CriticalBudget)
	}
	if c.PhaseTimeout <= 0 {
		return fmt.Errorf("phase timeout must be positive, got %s", c.PhaseTimeout)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
