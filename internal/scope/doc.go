// Package scope enforces instance lifetimes: at most one construction per
// singleton key and per (session key, session), no matter how many
// goroutines demand the value at once.
//
// Each key gets a record whose state advances Uninitialized -> InProgress ->
// Ready or Failed. The first resolver to claim an uninitialized record via
// compare-and-swap constructs the value; everyone else blocks on the
// record's done channel and receives the identical result. Failures are
// memoized, so a broken binding fails fast on every later resolve instead
// of re-running its constructor.
package scope
