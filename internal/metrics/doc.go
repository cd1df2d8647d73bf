// Package metrics exposes the runtime's event stream as prometheus series.
// The Collector is an observability.Observer; the app registers it against a
// prometheus registry and mounts promhttp on the healthcheck server.
package metrics
