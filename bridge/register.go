package bridge

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/loader-bridge/cstring"
	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/host"
)

// FunctionCreate describes the callable being registered.
type FunctionCreate struct {
	// Impl is the runtime's native callable; Singleton its backing value.
	// Both are owned by the embedded runtime and must outlive the function.
	Impl      any
	Singleton any
	Name      string `validate:"required"`
	Arity     int    `validate:"gte=0"`
}

// Param is one declared parameter: its name and the name of its type in
// the loader namespace.
type Param struct {
	Name string `validate:"required"`
	Type string `validate:"required"`
}

// Registration is a complete function registration request.
type Registration struct {
	Function FunctionCreate
	// Return names the return type. Empty leaves the return slot unset.
	Return  string
	Params  []Param `validate:"dive"`
	Context host.ContextHandle
	Loader  host.LoaderHandle
}

type resolvedParam struct {
	name     cstring.CString
	typeName cstring.CString
	typ      host.TypeHandle
}

// RegisterFunction creates a host function with the requested signature and
// binds it into the scope of reg.Context under the function's name.
//
// Every parameter and return type must already be defined in the loader's
// namespace. Registration is atomic: on any failure no binding is added and
// the partially built function is released.
func (b *Bridge) RegisterFunction(reg Registration) (host.FunctionHandle, error) {
	if err := validate.Struct(reg); err != nil {
		return 0, errors.Wrap(errors.PhaseValidate, errors.KindInvalidInput, err, "function registration")
	}
	fname := reg.Function.Name
	if reg.Function.Arity != len(reg.Params) {
		return 0, errors.ArityMismatch(errors.PhaseRegister, fname, reg.Function.Arity, len(reg.Params))
	}

	name, err := cstring.Convert(errors.PhaseRegister, []string{"name"}, fname)
	if err != nil {
		return 0, err
	}
	var retName cstring.CString
	if reg.Return != "" {
		if retName, err = cstring.Convert(errors.PhaseRegister, []string{fname, "return"}, reg.Return); err != nil {
			return 0, err
		}
	}
	params := make([]resolvedParam, len(reg.Params))
	for i, p := range reg.Params {
		path := []string{fname, "param", strconv.Itoa(i)}
		if params[i].name, err = cstring.Convert(errors.PhaseRegister, path, p.Name); err != nil {
			return 0, err
		}
		if params[i].typeName, err = cstring.Convert(errors.PhaseRegister, append(path, "type"), p.Type); err != nil {
			return 0, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	release, err := b.host.BorrowLoader(reg.Loader)
	if err != nil {
		return 0, err
	}
	defer release()

	scope, err := b.host.ContextScope(reg.Context)
	if err != nil {
		return 0, err
	}

	var ret host.TypeHandle
	if retName != nil {
		t, ok := b.host.LoaderType(reg.Loader, retName)
		if !ok {
			return 0, errors.UnresolvedType(errors.PhaseRegister, []string{fname, "return"}, reg.Return)
		}
		ret = t
	}
	for i, p := range reg.Params {
		t, ok := b.host.LoaderType(reg.Loader, params[i].typeName)
		if !ok {
			return 0, errors.UnresolvedType(errors.PhaseRegister, []string{fname, "param", p.Name}, p.Type)
		}
		params[i].typ = t
	}

	if _, exists := b.host.ScopeGet(scope, name); exists {
		if b.functionPolicy == Reject {
			return 0, errors.Duplicate(errors.PhaseBind, "function", fname)
		}
		Logger().Warn("function rebound", zap.String("function", fname))
	}

	f, err := b.host.FunctionCreate(name, reg.Function.Arity, reg.Function.Impl, reg.Function.Singleton)
	if err != nil {
		return 0, errors.Registration(errors.PhaseRegister, "function", fname, err)
	}

	var v host.ValueHandle
	if err := b.build(f, &v, scope, name, retName != nil, ret, params); err != nil {
		b.rollback(fname, f, v)
		return 0, errors.Registration(errors.PhaseRegister, "function", fname, err)
	}

	Logger().Debug("function registered",
		zap.String("function", fname),
		zap.Int("arity", reg.Function.Arity),
		zap.Bool("has_return", retName != nil),
		zap.Uint32("handle", uint32(f)))
	return f, nil
}

// build fills the signature of f, wraps it and binds it. The scope is only
// touched by the final step.
func (b *Bridge) build(f host.FunctionHandle, v *host.ValueHandle, scope host.ScopeHandle, name cstring.CString, hasRet bool, ret host.TypeHandle, params []resolvedParam) error {
	sig, err := b.host.FunctionSignature(f)
	if err != nil {
		return err
	}
	if hasRet {
		if err := b.host.SignatureSetReturn(sig, ret); err != nil {
			return err
		}
	}
	for i, p := range params {
		if err := b.host.SignatureSet(sig, i, p.name, p.typ); err != nil {
			return err
		}
	}
	if *v, err = b.host.ValueCreateFunction(f); err != nil {
		return err
	}
	if err := b.host.ScopeDefine(scope, name, *v); err != nil {
		return errors.Registration(errors.PhaseBind, "scope binding", name.String(), err)
	}
	return nil
}

func (b *Bridge) rollback(fname string, f host.FunctionHandle, v host.ValueHandle) {
	if v != 0 {
		if err := b.host.ValueDestroy(v); err != nil {
			Logger().Warn("failed to release value", zap.String("function", fname), zap.Error(err))
		}
	}
	if err := b.host.FunctionDestroy(f); err != nil {
		Logger().Warn("failed to release function", zap.String("function", fname), zap.Error(err))
	}
}
