// Package manifest defines the format-agnostic model of declared components
// and translates it into registry bindings. Format-specific loaders (HCL
// today) produce the model; translation resolves each declaration's kind
// through the component catalog and registers the resulting binding.
package manifest
