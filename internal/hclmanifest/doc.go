// Package hclmanifest loads component declarations from HCL files into the
// format-agnostic manifest model. It owns everything HCL-specific: block
// schemas, file parsing, and the deferred cty decoding of settings blocks.
package hclmanifest
