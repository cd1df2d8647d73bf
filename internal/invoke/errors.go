package invoke

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrTypeMismatch marks a tier failure caused by argument types that the
// tier could not reconcile with the call-site signature. The dispatcher
// escalates to the next tier on this error and only this error; provider
// failures pass through untouched.
var ErrTypeMismatch = errors.New("argument types do not match call-site signature")

// ErrUnknownCallSite is returned when invoking a call-site that was never
// registered with the dispatcher.
var ErrUnknownCallSite = errors.New("unknown call-site")

// InvocationError reports that every dispatch tier failed for a call-site.
// It carries the call-site identity and the runtime argument types so the
// failure can be diagnosed without re-running the call.
type InvocationError struct {
	Site     string
	ArgTypes []reflect.Type
	Cause    error
}

func (e *InvocationError) Error() string {
	types := make([]string, len(e.ArgTypes))
	for i, t := range e.ArgTypes {
		if t == nil {
			types[i] = "<nil>"
			continue
		}
		types[i] = t.String()
	}
	return fmt.Sprintf("invocation failed at call-site %q (args: %s): %v",
		e.Site, strings.Join(types, ", "), e.Cause)
}

func (e *InvocationError) Unwrap() error {
	return e.Cause
}

// typesOf captures the runtime types of an argument list. Nil arguments are
// recorded as nil types.
func typesOf(args []any) []reflect.Type {
	types := make([]reflect.Type, len(args))
	for i, a := range args {
		if a == nil {
			continue
		}
		types[i] = reflect.TypeOf(a)
	}
	return types
}

func mismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}
