package boot

import (
	"fmt"
	"time"
)

// PhaseOrderError reports a phase entered out of order.
type PhaseOrderError struct {
	Current   Phase
	Requested Phase
}

func (e *PhaseOrderError) Error() string {
	return fmt.Sprintf("cannot enter %s phase from %s", e.Requested, e.Current)
}

// PhaseTimeoutError reports a parallel wave whose wait expired. The wave's
// in-flight constructions keep running; the timeout bounds how long boot
// waits for them, not the work itself.
type PhaseTimeoutError struct {
	Wave    int
	Timeout time.Duration
}

func (e *PhaseTimeoutError) Error() string {
	return fmt.Sprintf("parallel wave %d did not settle within %s", e.Wave, e.Timeout)
}
