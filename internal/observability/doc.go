// Package observability defines the event stream the runtime emits while
// validating, constructing and booting components.
//
// Subsystems publish Events through a single Observer; composition happens
// with MultiObserver (fan-out), SlogObserver (structured logs), Recorder
// (in-process tallies behind the metrics snapshot) and NoopObserver. Event
// levels carry OpenTelemetry severity numbers so exporters can map them
// without guessing.
package observability
