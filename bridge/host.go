package bridge

import (
	"github.com/wippyai/loader-bridge/cstring"
	"github.com/wippyai/loader-bridge/host"
	"github.com/wippyai/loader-bridge/types"
)

// Host is the host engine surface the bridge registers through.
// *host.Engine implements it.
type Host interface {
	// BorrowLoader pins a loader instance for the duration of a call.
	BorrowLoader(l host.LoaderHandle) (release func(), err error)

	TypeCreate(kind types.Kind, name cstring.CString, impl, singleton any) (host.TypeHandle, error)
	TypeDestroy(t host.TypeHandle) error
	LoaderTypeDefine(l host.LoaderHandle, name cstring.CString, t host.TypeHandle) error
	LoaderType(l host.LoaderHandle, name cstring.CString) (host.TypeHandle, bool)
	// LoaderTypeDefineNew inserts t only if name is still free, as one step.
	LoaderTypeDefineNew(l host.LoaderHandle, name cstring.CString, t host.TypeHandle) error
	TypeOf(t host.TypeHandle) (host.Type, bool)

	FunctionCreate(name cstring.CString, arity int, impl, singleton any) (host.FunctionHandle, error)
	FunctionDestroy(f host.FunctionHandle) error
	FunctionSignature(f host.FunctionHandle) (host.SignatureHandle, error)
	SignatureSetReturn(s host.SignatureHandle, t host.TypeHandle) error
	SignatureSet(s host.SignatureHandle, index int, name cstring.CString, t host.TypeHandle) error

	ContextScope(ctx host.ContextHandle) (host.ScopeHandle, error)
	ScopeDefine(scope host.ScopeHandle, name cstring.CString, v host.ValueHandle) error
	ScopeGet(scope host.ScopeHandle, name cstring.CString) (host.ValueHandle, bool)

	ValueCreateFunction(f host.FunctionHandle) (host.ValueHandle, error)
	ValueDestroy(v host.ValueHandle) error
}

// Inspector is the read side of the host used to list what a loader has
// registered.
type Inspector interface {
	LoaderName(l host.LoaderHandle) (string, error)
	LoaderTypeNames(l host.LoaderHandle) ([]string, error)
	LoaderType(l host.LoaderHandle, name cstring.CString) (host.TypeHandle, bool)
	TypeOf(t host.TypeHandle) (host.Type, bool)

	ContextScope(ctx host.ContextHandle) (host.ScopeHandle, error)
	ScopeNames(scope host.ScopeHandle) ([]string, error)
	ScopeGet(scope host.ScopeHandle, name cstring.CString) (host.ValueHandle, bool)
	ValueOf(v host.ValueHandle) (host.Value, bool)
	FunctionOf(f host.FunctionHandle) (host.Function, bool)
	SignatureOf(s host.SignatureHandle) (host.Signature, bool)
}

var (
	_ Host      = (*host.Engine)(nil)
	_ Inspector = (*host.Engine)(nil)
)
