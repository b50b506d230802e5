package wasmloader

import (
	"context"
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/loader-bridge/errors"
)

// Call invokes a registered function's native impl with textual arguments
// and returns its results as text. impl must be the api.Function the
// function was registered with.
func Call(ctx context.Context, impl any, args []string) ([]string, error) {
	fn, ok := impl.(api.Function)
	if !ok || fn == nil {
		return nil, errors.Unsupported(errors.PhaseCall, "function has no wasm implementation")
	}
	def := fn.Definition()
	params := def.ParamTypes()
	if len(args) != len(params) {
		return nil, errors.ArityMismatch(errors.PhaseCall, def.Name(), len(params), len(args))
	}

	stack := make([]uint64, len(args))
	for i, a := range args {
		v, err := EncodeValue(params[i], a)
		if err != nil {
			return nil, errors.New(errors.PhaseCall, errors.KindInvalidInput).
				Path(def.Name(), strconv.Itoa(i)).
				Value(a).
				Cause(err).
				Build()
		}
		stack[i] = v
	}

	res, err := fn.Call(ctx, stack...)
	if err != nil {
		return nil, errors.New(errors.PhaseCall, errors.KindInvalidData).
			Name(def.Name()).
			Detail("wasm trap").
			Cause(err).
			Build()
	}

	results := def.ResultTypes()
	out := make([]string, len(res))
	for i, v := range res {
		out[i] = DecodeValue(results[i], v)
	}
	return out, nil
}

// EncodeValue parses s as a value of type t in wazero's stack encoding.
// Integers may be spelled signed or unsigned.
func EncodeValue(t api.ValueType, s string) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		if v, err := strconv.ParseInt(s, 0, 32); err == nil {
			return api.EncodeI32(int32(v)), nil
		}
		u, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return 0, err
		}
		return api.EncodeU32(uint32(u)), nil
	case api.ValueTypeI64:
		if v, err := strconv.ParseInt(s, 0, 64); err == nil {
			return api.EncodeI64(v), nil
		}
		return strconv.ParseUint(s, 0, 64)
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(v)), nil
	case api.ValueTypeF64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(v), nil
	}
	return 0, errors.Unsupported(errors.PhaseCall, "value type "+api.ValueTypeName(t))
}

// DecodeValue formats a stack value of type t.
func DecodeValue(t api.ValueType, v uint64) string {
	switch t {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(v)), 10)
	case api.ValueTypeI64:
		return strconv.FormatInt(int64(v), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
	}
	return strconv.FormatUint(v, 10)
}
