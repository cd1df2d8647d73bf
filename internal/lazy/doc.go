// Package lazy defers construction behind lightweight handles. A handle
// can be passed around, rendered and compared without producing its value;
// the supplier runs exactly once, on first Value call, and its outcome is
// memoized for every caller after that.
package lazy
