/*
Package ref provides a structured, type-safe representation for component
references, based on the canonical format `kind.name`.

The kind selects a constructor from the component catalog; the name is the
instance qualifier. A bare `kind` refers to the default (unnamed) instance.

This package enforces the reference schema and centralizes all formatting
and parsing logic so that manifests, logs and reports agree on one notation.
*/
package ref
