package host

import (
	"github.com/wippyai/loader-bridge/resource"
	"github.com/wippyai/loader-bridge/types"
)

// Handle types. Each names an object of one class in the engine's arena;
// passing a handle of the wrong class fails validation.
type (
	LoaderHandle    resource.Handle
	ContextHandle   resource.Handle
	ScopeHandle     resource.Handle
	TypeHandle      resource.Handle
	FunctionHandle  resource.Handle
	SignatureHandle resource.Handle
	ValueHandle     resource.Handle
)

const (
	classLoader resource.Class = iota + 1
	classContext
	classScope
	classType
	classFunction
	classSignature
	classValue
)

// Type is a registered type descriptor. Kind never changes after creation.
type Type struct {
	Impl      any
	Singleton any
	Name      string
	Kind      types.Kind
}

// Param is one positional signature slot.
type Param struct {
	Name string
	Type TypeHandle
	Set  bool
}

// Signature is the ordered parameter list plus optional return type of a
// function. Its parameter count equals the function's arity.
type Signature struct {
	params []Param
	ret    TypeHandle
	retSet bool
}

func newSignature(arity int) *Signature {
	return &Signature{params: make([]Param, arity)}
}

// Arity returns the number of parameter slots.
func (s Signature) Arity() int {
	return len(s.params)
}

// Param returns the slot at index.
func (s Signature) Param(index int) (Param, bool) {
	if index < 0 || index >= len(s.params) {
		return Param{}, false
	}
	return s.params[index], true
}

// Params returns a copy of all slots in order.
func (s Signature) Params() []Param {
	out := make([]Param, len(s.params))
	copy(out, s.params)
	return out
}

// Return reports the return type. The second result is false while the
// return slot is unset.
func (s Signature) Return() (TypeHandle, bool) {
	return s.ret, s.retSet
}

// Complete reports whether every parameter slot has been set.
func (s Signature) Complete() bool {
	for _, p := range s.params {
		if !p.Set {
			return false
		}
	}
	return true
}

func (s *Signature) clone() Signature {
	return Signature{params: s.Params(), ret: s.ret, retSet: s.retSet}
}

// Function is a registered callable descriptor.
type Function struct {
	Impl      any
	Singleton any
	Name      string
	Arity     int
	Signature SignatureHandle
}

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueFunction
)

func (k ValueKind) String() string {
	switch k {
	case ValueFunction:
		return "function"
	default:
		return "null"
	}
}

// Value is a tagged container bound into scopes.
type Value struct {
	Function FunctionHandle
	Kind     ValueKind
}

// Scope is a symbol table. Defining an existing name replaces its binding.
type Scope struct {
	symbols map[string]ValueHandle
	name    string
}

// Context is an execution context; registration resolves its scope.
type Context struct {
	scope ScopeHandle
}

// Loader is a live embedding of one runtime. It owns a type namespace and
// an opaque data slot for the runtime's lifecycle state.
type Loader struct {
	data  any
	types map[string]TypeHandle
	name  string
}
