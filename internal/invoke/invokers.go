package invoke

import (
	"context"
	"reflect"
	"strings"
)

// fastInvoker is prepared once at registration. When the provider was
// registered as a PreparedFunc it is called directly with no reflection;
// otherwise the declared signature is trusted blindly and any argument
// mismatch surfaces as a recovered reflect panic.
type fastInvoker struct {
	sig    *Signature
	native PreparedFunc
}

func newFastInvoker(sig *Signature, fn any) *fastInvoker {
	inv := &fastInvoker{sig: sig}
	if native, ok := fn.(PreparedFunc); ok {
		inv.native = native
	} else if native, ok := fn.(func(context.Context, []any) (any, error)); ok {
		inv.native = native
	}
	return inv
}

func (f *fastInvoker) invoke(ctx context.Context, args []any) (out any, err error) {
	if f.native != nil {
		return f.native(ctx, args)
	}

	if len(args) != len(f.sig.params) {
		return nil, mismatchf("call-site expects %d args, got %d", len(f.sig.params), len(args))
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		// Only reflect's own call-machinery panics signal an argument
		// mismatch; a panic raised inside the provider propagates.
		if msg, ok := r.(string); ok && strings.HasPrefix(msg, "reflect:") {
			out, err = nil, mismatchf("fast invoke rejected arguments: %v", msg)
			return
		}
		if rerr, ok := r.(error); ok && strings.HasPrefix(rerr.Error(), "reflect:") {
			out, err = nil, mismatchf("fast invoke rejected arguments: %v", rerr)
			return
		}
		panic(r)
	}()

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.Zero(f.sig.params[i])
			continue
		}
		in[i] = reflect.ValueOf(arg)
	}
	return f.sig.call(ctx, in)
}

// argAdapter converts one observed argument into the parameter value a
// call-site expects. Adapters are produced by the universal tier and baked
// into an adapted generic invoker.
type argAdapter func(arg any) (reflect.Value, error)

// genericInvoker inspects arguments against the declared signature on every
// call. The standard form accepts assignable values and adapts alias types
// (identical kind, different named type). The adapted form, rebuilt by the
// universal tier, applies a fixed per-argument coercion plan instead.
type genericInvoker struct {
	sig  *Signature
	plan []argAdapter
}

func newGenericInvoker(sig *Signature) *genericInvoker {
	return &genericInvoker{sig: sig}
}

func (g *genericInvoker) invoke(ctx context.Context, args []any) (any, error) {
	if len(args) != len(g.sig.params) {
		return nil, mismatchf("call-site expects %d args, got %d", len(g.sig.params), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if g.plan != nil {
			val, err := g.plan[i](arg)
			if err != nil {
				return nil, err
			}
			in[i] = val
			continue
		}

		param := g.sig.params[i]
		if arg == nil {
			if !isNilable(param) {
				return nil, mismatchf("arg %d: nil not valid for %s", i, param)
			}
			in[i] = reflect.Zero(param)
			continue
		}

		val := reflect.ValueOf(arg)
		switch {
		case val.Type().AssignableTo(param):
			in[i] = val
		case val.Type().Kind() == param.Kind() && val.Type().ConvertibleTo(param):
			// Alias of the same kind, e.g. a named int passed for int.
			in[i] = val.Convert(param)
		default:
			return nil, mismatchf("arg %d: have %s, want %s", i, val.Type(), param)
		}
	}
	return g.sig.call(ctx, in)
}

// universalInvoker coerces every argument individually: assignability, full
// numeric conversion, pointer dereference and boxing into a pointer are all
// attempted. On success it reports the adapter plan it used so the dispatcher
// can cache an adapted generic invoker for the observed argument types.
type universalInvoker struct {
	sig *Signature
}

func newUniversalInvoker(sig *Signature) *universalInvoker {
	return &universalInvoker{sig: sig}
}

func (u *universalInvoker) invoke(ctx context.Context, args []any) (any, []argAdapter, error) {
	if len(args) != len(u.sig.params) {
		return nil, nil, mismatchf("call-site expects %d args, got %d", len(u.sig.params), len(args))
	}

	in := make([]reflect.Value, len(args))
	plan := make([]argAdapter, len(args))
	for i, arg := range args {
		adapter, err := coerce(i, arg, u.sig.params[i])
		if err != nil {
			return nil, nil, err
		}
		val, err := adapter(arg)
		if err != nil {
			return nil, nil, err
		}
		in[i] = val
		plan[i] = adapter
	}

	out, err := u.sig.call(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return out, plan, nil
}

// coerce derives an adapter turning values shaped like `arg` into `param`.
// The adapter re-checks the observed type on each use, so a later call with
// differently shaped arguments fails cleanly and triggers re-adaptation.
func coerce(index int, arg any, param reflect.Type) (argAdapter, error) {
	if arg == nil {
		if !isNilable(param) {
			return nil, mismatchf("arg %d: nil not valid for %s", index, param)
		}
		return func(a any) (reflect.Value, error) {
			if a != nil {
				return reflect.Value{}, mismatchf("arg %d: expected nil", index)
			}
			return reflect.Zero(param), nil
		}, nil
	}

	observed := reflect.TypeOf(arg)
	guard := func(convert func(reflect.Value) reflect.Value) argAdapter {
		return func(a any) (reflect.Value, error) {
			if a == nil {
				if isNilable(param) {
					return reflect.Zero(param), nil
				}
				return reflect.Value{}, mismatchf("arg %d: nil not valid for %s", index, param)
			}
			val := reflect.ValueOf(a)
			if val.Type() != observed {
				return reflect.Value{}, mismatchf("arg %d: have %s, want %s", index, val.Type(), observed)
			}
			return convert(val), nil
		}
	}

	switch {
	case observed.AssignableTo(param):
		return guard(func(v reflect.Value) reflect.Value { return v }), nil

	case isNumeric(observed) && isNumeric(param):
		return guard(func(v reflect.Value) reflect.Value { return v.Convert(param) }), nil

	case observed.Kind() == reflect.Pointer && observed.Elem().AssignableTo(param):
		return guard(func(v reflect.Value) reflect.Value { return v.Elem() }), nil

	case observed.Kind() == reflect.Pointer && isNumeric(observed.Elem()) && isNumeric(param):
		return guard(func(v reflect.Value) reflect.Value { return v.Elem().Convert(param) }), nil

	case param.Kind() == reflect.Pointer && observed.AssignableTo(param.Elem()):
		return guard(func(v reflect.Value) reflect.Value {
			boxed := reflect.New(param.Elem())
			boxed.Elem().Set(v)
			return boxed
		}), nil

	case observed.ConvertibleTo(param) && param.Kind() != reflect.String:
		// Remaining safe conversions, e.g. []byte -> named byte slice.
		// String targets are excluded: converting numerics to string yields
		// rune strings, which is never what a caller meant.
		return guard(func(v reflect.Value) reflect.Value { return v.Convert(param) }), nil
	}

	return nil, mismatchf("arg %d: cannot coerce %s to %s", index, observed, param)
}

func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return true
	default:
		return false
	}
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
