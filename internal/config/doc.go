// Package config defines the runtime configuration of a keel instance and
// its layered loading: built-in defaults, a TOML file, KEEL_* environment
// variables, and finally command-line flags applied by the cli package.
package config
