package manifest

import (
	"go.uber.org/zap"

	"github.com/wippyai/loader-bridge/bridge"
	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/host"
	"github.com/wippyai/loader-bridge/types"
)

// Signature is a declared function's parameter and return kinds, resolved
// through the loader's type namespace.
type Signature struct {
	Params    []types.Kind
	Return    types.Kind
	HasReturn bool
}

// Resolver supplies the native callable and singleton for a declared
// function, usually by looking up fn.ExportName() in the embedded runtime.
// sig lets the runtime refuse a declaration its callable cannot honor.
type Resolver interface {
	Resolve(fn Function, sig Signature) (impl, singleton any, err error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(fn Function, sig Signature) (impl, singleton any, err error)

func (f ResolverFunc) Resolve(fn Function, sig Signature) (any, any, error) {
	return f(fn, sig)
}

// signature resolves the kinds fn declares in l's namespace.
func signature(b *bridge.Bridge, l host.LoaderHandle, fn Function) (Signature, error) {
	sig := Signature{Params: make([]types.Kind, len(fn.Params))}
	if fn.Return != "" {
		k, ok := b.LookupKind(l, fn.Return)
		if !ok {
			return sig, errors.UnresolvedType(errors.PhaseRegister, []string{fn.Name, "return"}, fn.Return)
		}
		sig.Return, sig.HasReturn = k, true
	}
	for i, p := range fn.Params {
		k, ok := b.LookupKind(l, p.Type)
		if !ok {
			return sig, errors.UnresolvedType(errors.PhaseRegister, []string{fn.Name, "param", p.Name}, p.Type)
		}
		sig.Params[i] = k
	}
	return sig, nil
}

// Applied reports what Apply registered.
type Applied struct {
	Types     []host.TypeHandle
	Functions []host.FunctionHandle
}

// Apply defines every declared type and then registers every declared
// function, in manifest order. The type's impl is its declaration. Each
// function's declared kinds are resolved before r sees it. A nil resolver
// registers functions without a native impl.
//
// Apply stops at the first failure. Entries registered before it stay
// registered.
func (m *Manifest) Apply(b *bridge.Bridge, l host.LoaderHandle, ctx host.ContextHandle, r Resolver) (*Applied, error) {
	out := &Applied{}

	for i := range m.Types {
		t := &m.Types[i]
		th, err := b.DefineType(l, t.Name, t.Kind, t, t.Singleton)
		if err != nil {
			return out, err
		}
		out.Types = append(out.Types, th)
	}

	for _, fn := range m.Functions {
		var impl, singleton any
		if r != nil {
			sig, err := signature(b, l, fn)
			if err != nil {
				return out, err
			}
			if impl, singleton, err = r.Resolve(fn, sig); err != nil {
				return out, errors.Resolution(errors.PhaseRegister, fn.Name, err)
			}
		}
		fh, err := b.RegisterFunction(bridge.Registration{
			Function: bridge.FunctionCreate{
				Impl:      impl,
				Singleton: singleton,
				Name:      fn.Name,
				Arity:     len(fn.Params),
			},
			Return:  fn.Return,
			Params:  fn.Params,
			Context: ctx,
			Loader:  l,
		})
		if err != nil {
			return out, err
		}
		out.Functions = append(out.Functions, fh)
	}

	Logger().Info("manifest applied",
		zap.String("loader", m.Loader.Name),
		zap.Int("types", len(out.Types)),
		zap.Int("functions", len(out.Functions)))
	return out, nil
}
