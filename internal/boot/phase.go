package boot

import "fmt"

// Phase is one stage of the bootstrap state machine. Phases advance in a
// fixed order; the background phase runs asynchronously, so the machine is
// already Ready while background tasks are still settling.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseCritical
	PhaseParallel
	PhaseBackground
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseCritical:
		return "critical"
	case PhaseParallel:
		return "parallel"
	case PhaseBackground:
		return "background"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// advance moves the machine from one phase to the next, rejecting calls
// made out of order.
func (o *Orchestrator) advance(from, to Phase) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != from {
		return &PhaseOrderError{Current: o.phase, Requested: to}
	}
	o.phase = to
	return nil
}

// Phase returns the machine's current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}
