package invoke

import (
	"context"
	"fmt"
	"reflect"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// PreparedFunc is the canonical pre-adapted provider shape. Functions
// registered in this form are called directly on the fast tier, with no
// reflection at all.
type PreparedFunc func(ctx context.Context, args []any) (any, error)

// Signature is the parsed shape of a provider function: an optional leading
// context.Context, zero or more dependency parameters, and a value result
// with an optional trailing error.
type Signature struct {
	fn         reflect.Value
	fnType     reflect.Type
	takesCtx   bool
	params     []reflect.Type
	result     reflect.Type
	returnsErr bool
}

// ParseFunc validates a provider function and captures its signature.
// Accepted shapes are `func([ctx,] deps...) T` and
// `func([ctx,] deps...) (T, error)`.
func ParseFunc(fn any) (*Signature, error) {
	if fn == nil {
		return nil, fmt.Errorf("provider function is nil")
	}

	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("provider must be a function, got %s", fnType.Kind())
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic provider functions are not supported")
	}

	switch fnType.NumOut() {
	case 1:
		if fnType.Out(0) == errType {
			return nil, fmt.Errorf("provider must return a value, not just an error")
		}
	case 2:
		if fnType.Out(1) != errType {
			return nil, fmt.Errorf("provider's second return value must be error, got %s", fnType.Out(1))
		}
	default:
		return nil, fmt.Errorf("provider must return (T) or (T, error), got %d return values", fnType.NumOut())
	}

	sig := &Signature{
		fn:         reflect.ValueOf(fn),
		fnType:     fnType,
		result:     fnType.Out(0),
		returnsErr: fnType.NumOut() == 2,
	}

	for i := 0; i < fnType.NumIn(); i++ {
		paramType := fnType.In(i)
		if paramType == ctxType {
			if i != 0 {
				return nil, fmt.Errorf("context.Context must be the first parameter, found at position %d", i)
			}
			sig.takesCtx = true
			continue
		}
		sig.params = append(sig.params, paramType)
	}

	return sig, nil
}

// Params returns the dependency parameter types, excluding any leading
// context.Context.
func (s *Signature) Params() []reflect.Type {
	out := make([]reflect.Type, len(s.params))
	copy(out, s.params)
	return out
}

// NumParams returns the number of dependency parameters.
func (s *Signature) NumParams() int {
	return len(s.params)
}

// HasParam reports whether any dependency parameter has exactly the given
// type.
func (s *Signature) HasParam(t reflect.Type) bool {
	for _, p := range s.params {
		if p == t {
			return true
		}
	}
	return false
}

// Result returns the provider's value result type.
func (s *Signature) Result() reflect.Type {
	return s.result
}

// TakesContext reports whether the provider's first parameter is a
// context.Context.
func (s *Signature) TakesContext() bool {
	return s.takesCtx
}

// call invokes the underlying function with fully prepared arguments and
// unpacks the (value, error) result pair.
func (s *Signature) call(ctx context.Context, in []reflect.Value) (any, error) {
	if s.takesCtx {
		in = append([]reflect.Value{reflect.ValueOf(ctx)}, in...)
	}

	out := s.fn.Call(in)
	if s.returnsErr {
		if errVal := out[1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}
	return out[0].Interface(), nil
}
