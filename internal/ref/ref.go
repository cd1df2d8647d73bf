package ref

import "strings"

// Address is the structured identity of a declared component: the catalog
// kind that constructs it plus the instance name used as its qualifier.
// The canonical form is `kind.name`; a bare `kind` addresses the default
// (unnamed) instance of that kind.
type Address struct {
	Kind string
	Name string
}

// New creates an address for a named instance of a kind.
func New(kind, name string) Address {
	return Address{Kind: kind, Name: name}
}

// Default creates an address for the default instance of a kind.
func Default(kind string) Address {
	return Address{Kind: kind}
}

// String serializes the Address into its canonical string representation.
func (a Address) String() string {
	if a.Kind == "" {
		return ""
	}
	if a.Name == "" {
		return a.Kind
	}

	var sb strings.Builder
	sb.WriteString(a.Kind)
	sb.WriteRune('.')
	sb.WriteString(a.Name)
	return sb.String()
}

// Equal checks for equality between two addresses.
func (a Address) Equal(other Address) bool {
	return a.Kind == other.Kind && a.Name == other.Name
}

// HasName returns true if the address names a specific instance rather than
// the default one.
func (a Address) HasName() bool {
	return a.Name != ""
}

// IsZero returns true for the empty address.
func (a Address) IsZero() bool {
	return a.Kind == "" && a.Name == ""
}
