// Package boot drives a container through phased startup.
//
// The machine advances NotStarted -> Critical -> Parallel -> Background ->
// Ready. The critical phase is sequential and guarded by a soft latency
// budget; the parallel phase fans priority waves out over a fixed worker
// pool, with each wave settling fully before the next; the background phase
// is fire-and-forget and never blocks readiness. Lazy bindings are skipped
// by every phase and constructed on first use.
//
// Each run produces a StartupReport with per-task records, wave timings and
// the parallel speedup over the serial baseline.
package boot
