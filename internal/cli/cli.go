package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/keelproject/keel/internal/config"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments into the layered runtime
// configuration: defaults, then the TOML config file, then KEEL_*
// environment variables, then flags. It returns the final config, a boolean
// indicating the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*config.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("keel", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Keel - a declarative component runtime with phased bootstrap.

Usage:
  keel [options] [MANIFEST_PATH...]

Arguments:
  MANIFEST_PATH
    Paths to .hcl manifest files or directories containing them. Positional
    paths replace the configured manifest paths.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to a keel.toml configuration file.")
	manifestFlag := flagSet.String("manifest", "", "Comma-separated manifest files or directories.")
	profilesFlag := flagSet.String("profiles", "", "Comma-separated active profiles.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 0, "Parallel-phase worker count. 0 means one per CPU.")
	healthAddrFlag := flagSet.String("healthcheck-addr", "", "Listen address for the health server. Empty is disabled.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Validate the manifests and exit without constructing anything.")
	versionFlag := flagSet.Bool("version", false, "Print the version and exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if *versionFlag {
		fmt.Fprintf(output, "keel %s\n", Version)
		return nil, true, nil
	}

	cfg := config.Default()
	if *configFlag != "" {
		if err := cfg.ApplyFile(*configFlag); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	// Only flags the user actually passed override the layers below them.
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "manifest":
			cfg.ManifestPaths = splitList(*manifestFlag)
		case "profiles":
			cfg.Profiles = splitList(*profilesFlag)
		case "log-format":
			cfg.LogFormat = strings.ToLower(*logFormatFlag)
		case "log-level":
			cfg.LogLevel = strings.ToLower(*logLevelFlag)
		case "workers":
			cfg.Workers = *workersFlag
		case "healthcheck-addr":
			cfg.HealthcheckAddr = *healthAddrFlag
		case "dry-run":
			cfg.DryRun = *dryRunFlag
		}
	})

	if flagSet.NArg() > 0 {
		cfg.ManifestPaths = flagSet.Args()
	}
	slog.Debug("Manifest paths determined.", "paths", cfg.ManifestPaths)

	if err := cfg.Validate(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parameter validation complete.")

	return cfg, false, nil
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
