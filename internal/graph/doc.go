// Package graph implements the directed dependency graph used for static
// analysis of component bindings.
//
// Nodes are identified by opaque string IDs so the package stays independent
// of how callers name their components. Edges point from a dependent node to
// the node it depends on. Cycle detection walks the graph with a classic
// three-color depth-first search and reports every cycle it finds with its
// full path, which lets the validator surface all problems in one pass.
package graph
