package hclmanifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/keelproject/keel/internal/ctxlog"
	"github.com/keelproject/keel/internal/fsutil"
	"github.com/keelproject/keel/internal/manifest"
	"github.com/keelproject/keel/internal/ref"
)

// Loader is the HCL implementation of the manifest.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load discovers every .hcl file under the given paths and merges their
// component blocks into a single model. Paths may name files or directories;
// missing paths are skipped.
func (l *Loader) Load(ctx context.Context, paths ...string) (*manifest.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL manifest loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered manifest files.", "count", len(files))

	model := &manifest.Model{}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", file, diags)
		}

		for _, block := range root.Components {
			comp, err := translateBlock(block, file)
			if err != nil {
				return nil, err
			}
			model.Components = append(model.Components, comp)
		}
	}

	logger.Debug("HCL manifest loading complete.", "components", len(model.Components))
	return model, nil
}

// translateBlock converts one raw block into the format-agnostic component
// model, validating its labels against the reference grammar.
func translateBlock(block *componentBlock, file string) (*manifest.Component, error) {
	addr := ref.New(block.Kind, block.Name)
	if _, err := ref.Parse(addr.String()); err != nil {
		return nil, fmt.Errorf("component block in %s: %w", file, err)
	}

	comp := &manifest.Component{
		Kind:      block.Kind,
		Name:      block.Name,
		Scope:     block.Scope,
		Profiles:  block.Profiles,
		Lazy:      block.Lazy,
		Phase:     block.Phase,
		Wave:      block.Wave,
		DependsOn: block.DependsOn,
		Source:    file,
	}

	if block.Settings != nil {
		attrs, diags := block.Settings.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("settings of component %s in %s: %w", addr, file, diags)
		}
		comp.Settings = &settingsAttributes{attrs: attrs, owner: addr.String()}
	}
	return comp, nil
}
