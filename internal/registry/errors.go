package registry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFrozen is returned when registering into a frozen registry.
var ErrFrozen = errors.New("registry is frozen")

// ErrNotFrozen is returned when an operation that requires a frozen registry
// runs against a mutable one.
var ErrNotFrozen = errors.New("registry is not frozen")

// DuplicateBindingError reports a second registration for an already-bound
// key, or two distinct keys whose rendered identities collide.
type DuplicateBindingError struct {
	Key Key
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("duplicate binding for key %s", e.Key)
}

// UnresolvedBindingError reports a binding whose target cannot produce a
// value: no provider, an unparseable provider, a provider of the wrong type,
// or a dependency that cannot be satisfied.
type UnresolvedBindingError struct {
	Key    Key
	Reason string
}

func (e *UnresolvedBindingError) Error() string {
	return fmt.Sprintf("unresolved binding for key %s: %s", e.Key, e.Reason)
}

// MissingImplementationError reports an interface-typed key whose target
// provides no concrete implementation of that interface.
type MissingImplementationError struct {
	Key    Key
	Reason string
}

func (e *MissingImplementationError) Error() string {
	return fmt.Sprintf("no implementation for interface key %s: %s", e.Key, e.Reason)
}

// CircularDependencyError reports a dependency cycle. Path holds the
// rendered keys along the cycle, with the entry key repeated at the end.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// ValidationError aggregates every failure found while validating a
// registry, so one run reports all problems at once.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("registry validation failed:\n- %s", strings.Join(msgs, "\n- "))
}

// Unwrap exposes the aggregated failures to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}
