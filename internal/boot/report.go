package boot

import (
	"time"

	"github.com/keelproject/keel/internal/registry"
)

// TaskRecord is the outcome of one bootstrap construction.
type TaskRecord struct {
	Key      registry.Key
	Wave     int
	Duration time.Duration
	Err      error
}

// WaveReport aggregates one parallel wave.
type WaveReport struct {
	Wave     int
	Records  []TaskRecord
	Duration time.Duration
	// Err carries the wave's PhaseTimeoutError, if its wait expired before
	// every task reported back.
	Err error
}

// Failures counts the records that ended in an error.
func (w WaveReport) Failures() int {
	n := 0
	for _, rec := range w.Records {
		if rec.Err != nil {
			n++
		}
	}
	return n
}

// ParallelReport aggregates the whole parallel phase.
type ParallelReport struct {
	Waves    []WaveReport
	Duration time.Duration
}

// Speedup compares the serial baseline (the sum of task durations) against
// the phase's wall time. 1.0 means no gain; values below 1 can appear when
// the phase had nothing to parallelize.
func (p ParallelReport) Speedup() float64 {
	if p.Duration <= 0 {
		return 0
	}
	var serial time.Duration
	for _, wave := range p.Waves {
		for _, rec := range wave.Records {
			serial += rec.Duration
		}
	}
	return float64(serial) / float64(p.Duration)
}

// Failures counts failed records across all waves.
func (p ParallelReport) Failures() int {
	n := 0
	for _, wave := range p.Waves {
		n += wave.Failures()
	}
	return n
}

// StartupReport is the assembled account of one bootstrap run.
type StartupReport struct {
	RunID     string
	StartedAt time.Time
	Phase     Phase

	Critical         []TaskRecord
	CriticalDuration time.Duration
	BudgetExceeded   bool

	Parallel ParallelReport

	BackgroundLaunched int

	TotalDuration time.Duration
}

// Failures counts failed constructions across the synchronous phases.
// Background outcomes are not included; they surface through metrics.
func (r StartupReport) Failures() int {
	n := r.Parallel.Failures()
	for _, rec := range r.Critical {
		if rec.Err != nil {
			n++
		}
	}
	return n
}
