// Package invoke implements the progressive invocation dispatcher used to
// run component providers.
//
// Every provider is registered under a call-site ID and parsed once into a
// Signature. At call time three tiers are tried cheapest-first: a fast
// invoker prepared at registration (zero call-time inspection, and zero
// reflection when the provider is a PreparedFunc), a generic invoker that
// validates arguments against the declared signature, and a universal
// invoker that coerces each argument individually. When the universal tier
// succeeds it rebuilds the call-site's generic invoker around the coercions
// it performed, so subsequent calls with the same argument shapes stay off
// the slow path.
//
// The per-call-site tier record is advisory: it is read without locking and
// a stale value can only cause a redundant attempt at a cheaper tier.
package invoke
