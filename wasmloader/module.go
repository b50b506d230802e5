package wasmloader

import (
	"context"
	"sort"
	"strconv"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/loader-bridge/bridge"
	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/host"
	"github.com/wippyai/loader-bridge/manifest"
	"github.com/wippyai/loader-bridge/types"
)

// Export is an exported wasm function.
type Export struct {
	Function api.Function
	Name     string
	Params   []api.ValueType
	Results  []api.ValueType
}

// Module is an instantiated wasm module.
type Module struct {
	compiled  wazero.CompiledModule
	mod       api.Module
	typeNames map[api.ValueType]string
	name      string
	exports   []Export
}

// Name returns the name the module was instantiated under.
func (m *Module) Name() string {
	return m.name
}

// Exports returns the exported functions sorted by name.
func (m *Module) Exports() []Export {
	out := make([]Export, len(m.exports))
	copy(out, m.exports)
	return out
}

// Export returns the exported function called name.
func (m *Module) Export(name string) (Export, error) {
	for _, e := range m.exports {
		if e.Name == name {
			return e, nil
		}
	}
	return Export{}, errors.NotFound(errors.PhaseLoad, "export", name)
}

// Close releases the module instance.
func (m *Module) Close(ctx context.Context) error {
	if err := m.mod.Close(ctx); err != nil {
		return err
	}
	return m.compiled.Close(ctx)
}

func kindOf(t api.ValueType) (types.Kind, bool) {
	switch t {
	case api.ValueTypeI32:
		return types.KindInt, true
	case api.ValueTypeI64:
		return types.KindLong, true
	case api.ValueTypeF32:
		return types.KindFloat, true
	case api.ValueTypeF64:
		return types.KindDouble, true
	}
	return 0, false
}

func (m *Module) typeName(t api.ValueType) (string, error) {
	n, ok := m.typeNames[t]
	if !ok {
		return "", errors.Unsupported(errors.PhaseLoad, "value type "+api.ValueTypeName(t))
	}
	return n, nil
}

// DefineTypes defines a loader type for every mapped core value type.
// Names the loader already defines are left alone.
func (m *Module) DefineTypes(b *bridge.Bridge, l host.LoaderHandle) error {
	vts := make([]api.ValueType, 0, len(m.typeNames))
	for vt := range m.typeNames {
		vts = append(vts, vt)
	}
	sort.Slice(vts, func(i, j int) bool { return vts[i] < vts[j] })

	for _, vt := range vts {
		name := m.typeNames[vt]
		if _, ok := b.LookupType(l, name); ok {
			continue
		}
		kind, ok := kindOf(vt)
		if !ok {
			return errors.Unsupported(errors.PhaseLoad, "value type "+api.ValueTypeName(vt))
		}
		if _, err := b.DefineType(l, name, kind, vt, nil); err != nil {
			return err
		}
	}
	return nil
}

// Registration builds the bridge registration for e. Parameters are named
// p0, p1, ... in order. Exports with more than one result cannot be
// expressed and fail with KindUnsupported.
func (m *Module) Registration(e Export, l host.LoaderHandle, ctx host.ContextHandle) (bridge.Registration, error) {
	reg := bridge.Registration{
		Function: bridge.FunctionCreate{
			Impl:      e.Function,
			Singleton: m,
			Name:      e.Name,
			Arity:     len(e.Params),
		},
		Params:  make([]bridge.Param, len(e.Params)),
		Context: ctx,
		Loader:  l,
	}
	for i, vt := range e.Params {
		n, err := m.typeName(vt)
		if err != nil {
			return reg, err
		}
		reg.Params[i] = bridge.Param{Name: "p" + strconv.Itoa(i), Type: n}
	}
	switch len(e.Results) {
	case 0:
	case 1:
		n, err := m.typeName(e.Results[0])
		if err != nil {
			return reg, err
		}
		reg.Return = n
	default:
		return reg, errors.Unsupported(errors.PhaseLoad, "multi-value result of "+e.Name)
	}
	return reg, nil
}

// Register registers every export whose signature maps onto loader types.
// Exports that cannot be expressed are skipped with a warning.
func (m *Module) Register(b *bridge.Bridge, l host.LoaderHandle, ctx host.ContextHandle) ([]host.FunctionHandle, error) {
	var out []host.FunctionHandle
	for _, e := range m.exports {
		reg, err := m.Registration(e, l, ctx)
		if err != nil {
			if errors.IsKind(err, errors.KindUnsupported) {
				Logger().Warn("export skipped", zap.String("export", e.Name), zap.Error(err))
				continue
			}
			return out, err
		}
		fh, err := b.RegisterFunction(reg)
		if err != nil {
			return out, err
		}
		out = append(out, fh)
	}
	Logger().Debug("module registered",
		zap.String("module", m.name),
		zap.Int("functions", len(out)))
	return out, nil
}

// Resolve hands the export a manifest function names to manifest.Apply.
// The declared signature must match the export's: the same parameter count,
// each declared kind equal to the kind of the export's value type, and a
// declared return exactly when the export has one result of that kind.
func (m *Module) Resolve(fn manifest.Function, sig manifest.Signature) (any, any, error) {
	e, err := m.Export(fn.ExportName())
	if err != nil {
		return nil, nil, err
	}
	if len(e.Params) != len(sig.Params) {
		return nil, nil, errors.ArityMismatch(errors.PhaseLoad, fn.Name, len(e.Params), len(sig.Params))
	}
	for i, vt := range e.Params {
		param := strconv.Itoa(i)
		if i < len(fn.Params) {
			param = fn.Params[i].Name
		}
		if err := checkKind(vt, sig.Params[i], fn.Name, "param", param); err != nil {
			return nil, nil, err
		}
	}
	switch {
	case len(e.Results) > 1:
		return nil, nil, errors.Unsupported(errors.PhaseLoad, "multi-value result of "+e.Name)
	case len(e.Results) == 1 && !sig.HasReturn:
		return nil, nil, mismatch([]string{fn.Name, "return"}, "export returns "+api.ValueTypeName(e.Results[0])+", no return declared")
	case len(e.Results) == 0 && sig.HasReturn:
		return nil, nil, mismatch([]string{fn.Name, "return"}, "declared "+sig.Return.String()+", export returns nothing")
	case len(e.Results) == 1:
		if err := checkKind(e.Results[0], sig.Return, fn.Name, "return"); err != nil {
			return nil, nil, err
		}
	}
	return e.Function, m, nil
}

func checkKind(vt api.ValueType, declared types.Kind, path ...string) error {
	want, ok := kindOf(vt)
	if !ok {
		return errors.Unsupported(errors.PhaseLoad, "value type "+api.ValueTypeName(vt))
	}
	if want != declared {
		return mismatch(path, "declared "+declared.String()+", export takes "+api.ValueTypeName(vt))
	}
	return nil
}

func mismatch(path []string, detail string) error {
	return errors.New(errors.PhaseLoad, errors.KindUnsupported).
		Path(path...).
		Detail("signature mismatch: %s", detail).
		Build()
}

var _ manifest.Resolver = (*Module)(nil)
