package bridge

import (
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/wippyai/loader-bridge/cstring"
	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/host"
)

// Snapshot lists what a loader has made visible to the host.
type Snapshot struct {
	Loader    string         `json:"loader" jsonschema:"description=Loader instance name"`
	Types     []TypeInfo     `json:"types"`
	Functions []FunctionInfo `json:"functions"`
}

// TypeInfo describes one entry of the type namespace.
type TypeInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	KindID int32  `json:"kind_id" jsonschema:"minimum=0,maximum=16"`
}

// ParamInfo describes one signature slot.
type ParamInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FunctionInfo describes a function bound in the context's scope.
type FunctionInfo struct {
	Name      string      `json:"name"`
	Return    string      `json:"return,omitempty"`
	Params    []ParamInfo `json:"params"`
	Arity     int         `json:"arity"`
	HasReturn bool        `json:"has_return"`
}

// String renders the function as name(a: T, b: U) -> R.
func (f FunctionInfo) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Type)
	}
	b.WriteByte(')')
	if f.HasReturn {
		b.WriteString(" -> ")
		b.WriteString(f.Return)
	}
	return b.String()
}

// TakeSnapshot collects the loader's types and the function bindings of the
// context's scope. Non-function bindings are skipped.
func TakeSnapshot(in Inspector, l host.LoaderHandle, ctx host.ContextHandle) (*Snapshot, error) {
	loaderName, err := in.LoaderName(l)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Loader: loaderName, Types: []TypeInfo{}, Functions: []FunctionInfo{}}

	typeNames, err := in.LoaderTypeNames(l)
	if err != nil {
		return nil, err
	}
	for _, n := range typeNames {
		cname, err := cstring.New(n)
		if err != nil {
			continue
		}
		th, ok := in.LoaderType(l, cname)
		if !ok {
			continue
		}
		ty, ok := in.TypeOf(th)
		if !ok {
			continue
		}
		snap.Types = append(snap.Types, TypeInfo{Name: n, Kind: ty.Kind.String(), KindID: ty.Kind.ID()})
	}

	scope, err := in.ContextScope(ctx)
	if err != nil {
		return nil, err
	}
	names, err := in.ScopeNames(scope)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		fn, _, err := lookupFunction(in, scope, n)
		if err != nil {
			continue
		}
		snap.Functions = append(snap.Functions, describeFunction(in, n, fn))
	}
	return snap, nil
}

// Resolved is a function found by name in a scope.
type Resolved struct {
	Info     FunctionInfo
	Function host.Function
	Handle   host.FunctionHandle
}

// LookupFunction finds the function bound under name in the context's scope.
func LookupFunction(in Inspector, ctx host.ContextHandle, name string) (*Resolved, error) {
	scope, err := in.ContextScope(ctx)
	if err != nil {
		return nil, err
	}
	fn, fh, err := lookupFunction(in, scope, name)
	if err != nil {
		return nil, err
	}
	return &Resolved{Info: describeFunction(in, name, fn), Function: fn, Handle: fh}, nil
}

func lookupFunction(in Inspector, scope host.ScopeHandle, name string) (host.Function, host.FunctionHandle, error) {
	cname, err := cstring.Convert(errors.PhaseCall, nil, name)
	if err != nil {
		return host.Function{}, 0, err
	}
	vh, ok := in.ScopeGet(scope, cname)
	if !ok {
		return host.Function{}, 0, errors.NotFound(errors.PhaseCall, "function", name)
	}
	val, ok := in.ValueOf(vh)
	if !ok || val.Kind != host.ValueFunction {
		return host.Function{}, 0, errors.NotFound(errors.PhaseCall, "function", name)
	}
	fn, ok := in.FunctionOf(val.Function)
	if !ok {
		return host.Function{}, 0, errors.InvalidHandle("function", uint32(val.Function))
	}
	return fn, val.Function, nil
}

func describeFunction(in Inspector, name string, fn host.Function) FunctionInfo {
	info := FunctionInfo{Name: name, Arity: fn.Arity, Params: []ParamInfo{}}
	sig, ok := in.SignatureOf(fn.Signature)
	if !ok {
		return info
	}
	for _, p := range sig.Params() {
		info.Params = append(info.Params, ParamInfo{Name: p.Name, Type: typeName(in, p.Type)})
	}
	if ret, set := sig.Return(); set {
		info.HasReturn = true
		info.Return = typeName(in, ret)
	}
	return info
}

func typeName(in Inspector, t host.TypeHandle) string {
	ty, ok := in.TypeOf(t)
	if !ok {
		return "?"
	}
	return ty.Name
}

// SnapshotSchema returns the JSON schema of Snapshot.
func SnapshotSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	return r.Reflect(&Snapshot{})
}
