package config

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/matzehuels/dslstructurizr/pkg/errors"
)

// HCLFileName is the HCL variant of the project configuration file.
const HCLFileName = "dslstructurizr.hcl"

// loadHCL reads an HCL configuration file. Only attributes are allowed at
// the top level; params is written as an object:
//
//	format   = "svg"
//	as_image = false
//	params = {
//	  tsvg = true
//	}
func loadHCL(path string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeConfig, diags, "parse config file %s", path)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeConfig, diags, "decode config file %s", path)
	}

	values := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, errors.Wrap(errors.ErrCodeConfig, diags, "evaluate %s in %s", name, path)
		}
		native, err := ctyToNative(v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "attribute %s in %s", name, path)
		}
		values[name] = native
	}
	return values, nil
}

// ctyToNative converts an evaluated HCL value to the plain Go values the
// TOML decoder produces: string, bool, int64 or float64, []any and
// map[string]any.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, err
		}
		return b, nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
