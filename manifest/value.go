package manifest

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/wippyai/loader-bridge/errors"
)

// toNative converts an evaluated cty value into plain Go values. Whole
// numbers become int64, other numbers float64.
func toNative(path []string, v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, errors.InvalidData(errors.PhaseParse, path, "value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		var i int64
		if err := gocty.FromCtyValue(v, &i); err == nil {
			return i, nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Path(path...).
				Cause(err).
				Build()
		}
		return f, nil
	case ty.IsListType(), ty.IsSetType(), ty.IsTupleType():
		out := []any{}
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			n, err := toNative(path, ev)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case ty.IsMapType(), ty.IsObjectType():
		out := map[string]any{}
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			n, err := toNative(append(path, k.AsString()), ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = n
		}
		return out, nil
	}
	return nil, errors.InvalidData(errors.PhaseParse, path, "unsupported value type "+ty.FriendlyName())
}
