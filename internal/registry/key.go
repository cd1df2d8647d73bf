package registry

import "reflect"

// Key identifies a binding: the Go type it resolves to plus an optional
// qualifier distinguishing multiple bindings of the same type. Keys compare
// by value; two registrations under an equal Key are a configuration error.
type Key struct {
	Type      reflect.Type
	Qualifier string
}

// NewKey creates a key for the given type and qualifier.
func NewKey(t reflect.Type, qualifier string) Key {
	return Key{Type: t, Qualifier: qualifier}
}

// TypeOf returns the reflect.Type of T without requiring a value of it.
// Interface types are preserved rather than collapsed to their dynamic type.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// For creates the default (unqualified) key for T.
func For[T any]() Key {
	return Key{Type: TypeOf[T]()}
}

// Named creates a qualified key for T.
func Named[T any](qualifier string) Key {
	return Key{Type: TypeOf[T](), Qualifier: qualifier}
}

// String renders the key as `type` or `type:qualifier`.
func (k Key) String() string {
	if k.Type == nil {
		return "<nil>"
	}
	if k.Qualifier == "" {
		return k.Type.String()
	}
	return k.Type.String() + ":" + k.Qualifier
}

// IsZero reports whether the key is empty.
func (k Key) IsZero() bool {
	return k.Type == nil && k.Qualifier == ""
}
