package hclmanifest

import "github.com/hashicorp/hcl/v2"

// componentBlock is the raw HCL shape of a `component "kind" "name"` block.
type componentBlock struct {
	Kind string `hcl:"kind,label"`
	Name string `hcl:"name,label"`

	Scope     string   `hcl:"scope,optional"`
	Profiles  []string `hcl:"profiles,optional"`
	Lazy      bool     `hcl:"lazy,optional"`
	Phase     string   `hcl:"phase,optional"`
	Wave      int      `hcl:"wave,optional"`
	DependsOn []string `hcl:"depends_on,optional"`

	Settings *settingsBlock `hcl:"settings,block"`
}

// settingsBlock captures the settings body for deferred decoding; the Go
// struct it decodes into is only known once the kind resolves through the
// catalog.
type settingsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// fileRoot decodes the top-level blocks of one manifest file. Remain keeps
// unknown future block types from failing the parse.
type fileRoot struct {
	Components []*componentBlock `hcl:"component,block"`
	Remain     hcl.Body          `hcl:",remain"`
}
