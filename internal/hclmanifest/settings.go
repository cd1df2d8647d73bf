package hclmanifest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/keelproject/keel/internal/ctxlog"
)

// settingsAttributes carries a parsed settings block until translation knows
// the Go struct to decode it into.
type settingsAttributes struct {
	attrs hcl.Attributes
	owner string
}

// Decode populates target, a pointer to the kind's settings struct, from the
// block's attributes. Struct fields opt in with an `hcl:"name"` tag and may
// mark themselves `,optional`; attributes with no matching field are
// rejected. Values pass through cty conversion, so convertible spellings
// adapt to the field type rather than fail.
func (s *settingsAttributes) Decode(ctx context.Context, target any) error {
	logger := ctxlog.FromContext(ctx)

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("settings target must be a non-nil pointer, got %T", target)
	}
	elem := v.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("settings target must point to a struct, got %T", target)
	}
	st := elem.Type()
	logger.Debug("Decoding settings block.", "component", s.owner, "type", st.String())

	type fieldSpec struct {
		index    int
		optional bool
	}
	fields := make(map[string]fieldSpec)
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("hcl")
		if tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		if parts[0] == "" {
			continue
		}
		fields[parts[0]] = fieldSpec{index: i, optional: len(parts) > 1 && parts[1] == "optional"}
	}

	for name := range s.attrs {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("unsupported setting %q", name)
		}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := fields[name]
		attr, ok := s.attrs[name]
		if !ok {
			if !spec.optional {
				return fmt.Errorf("missing required setting %q", name)
			}
			continue
		}

		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("setting %q: %w", name, diags)
		}

		field := elem.Field(spec.index)
		implied, err := gocty.ImpliedType(field.Interface())
		if err != nil {
			return fmt.Errorf("setting %q: field type %s has no cty equivalent: %w", name, field.Type(), err)
		}
		converted, err := convert.Convert(val, implied)
		if err != nil {
			return fmt.Errorf("setting %q: cannot convert %s to %s: %w",
				name, val.Type().FriendlyName(), implied.FriendlyName(), err)
		}
		if err := gocty.FromCtyValue(converted, field.Addr().Interface()); err != nil {
			return fmt.Errorf("setting %q: %w", name, err)
		}
	}
	return nil
}
