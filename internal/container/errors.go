package container

import (
	"errors"
	"fmt"

	"github.com/keelproject/keel/internal/registry"
)

// ErrNotValidated is returned by Build when the registry was frozen but
// never passed validation.
var ErrNotValidated = errors.New("registry has not been validated")

// ErrClosed is returned by operations on a closed container.
var ErrClosed = errors.New("container is closed")

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("session is closed")

// NotBoundError reports a resolve against a key with no binding.
type NotBoundError struct {
	Key registry.Key
}

func (e *NotBoundError) Error() string {
	return fmt.Sprintf("no binding for key %s", e.Key)
}

// ScopeMismatchError reports an operation that does not fit the key's
// lifetime, such as resolving a session-scoped key outside a session.
type ScopeMismatchError struct {
	Key   registry.Key
	Scope registry.Scope
	Hint  string
}

func (e *ScopeMismatchError) Error() string {
	return fmt.Sprintf("key %s is %s-scoped: %s", e.Key, e.Scope, e.Hint)
}
