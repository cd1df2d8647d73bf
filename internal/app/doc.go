// Package app contains the composition root. It defines the main App
// struct and the primary runtime lifecycle: loading manifests, validating
// the registry, booting the container and serving health endpoints,
// decoupled from any specific entrypoint like a CLI.
package app
