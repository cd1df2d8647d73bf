// Package container assembles the runtime over a frozen, validated
// registry: it owns the scoped instance stores, routes every construction
// through the progressive invocation dispatcher, hands out lazy handles and
// opens isolated sessions.
//
// A Container is an explicit object, passed to whoever needs resolution.
// There is no package-global instance; two containers built from two
// registries coexist without sharing any state.
package container
