// Package catalog holds the named constructors behind declarative component
// manifests. A manifest block names a kind; the catalog resolves that kind to
// a Go constructor and a settings struct, which manifest translation then
// registers as an ordinary binding.
package catalog
