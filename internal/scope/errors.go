package scope

import (
	"errors"
	"fmt"

	"github.com/keelproject/keel/internal/registry"
)

// ErrUnknownSession is returned for operations against a session identifier
// that is not open.
var ErrUnknownSession = errors.New("unknown session")

// ResolutionError reports a resolve against a key the store does not manage.
type ResolutionError struct {
	Key    registry.Key
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s: %s", e.Key, e.Reason)
}

// ConstructionError reports a failed construction. The store memoizes it,
// so every resolve of the key returns the same error with the original
// cause intact.
type ConstructionError struct {
	Key   registry.Key
	Cause error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construction of %s failed: %v", e.Key, e.Cause)
}

// Unwrap exposes the original cause to errors.Is and errors.As.
func (e *ConstructionError) Unwrap() error {
	return e.Cause
}
