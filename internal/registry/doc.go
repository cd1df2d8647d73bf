// Package registry holds the binding table at the center of the container.
//
// A binding maps a Key (a Go type plus an optional qualifier) to a Target
// describing how to produce a value for that key: a constructor function, a
// pre-built instance, or a factory. Registrations are accepted only while
// the registry is open; Freeze makes the table immutable, after which reads
// are lock-free and Validate can analyze the whole graph at once.
//
// Validation runs four passes over the frozen table and aggregates every
// failure into a single *ValidationError, so one run reports all unresolved
// targets, dependency cycles, identity collisions and unimplemented
// interface keys together.
package registry
