package host

import (
	stderrors "errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/loader-bridge/cstring"
	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/resource"
	"github.com/wippyai/loader-bridge/types"
)

// Engine is an in-memory host engine. It owns every object it hands out a
// handle for; callers only ever borrow handles.
//
// Engine is safe for concurrent use. Mutations of loader namespaces, scopes
// and signatures are serialized by a single engine lock.
type Engine struct {
	table      *resource.Table
	loaders    *resource.Typed[*Loader]
	contexts   *resource.Typed[*Context]
	scopes     *resource.Typed[*Scope]
	types      *resource.Typed[*Type]
	functions  *resource.Typed[*Function]
	signatures *resource.Typed[*Signature]
	values     *resource.Typed[*Value]
	mu         sync.RWMutex
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	t := resource.NewTable()
	return &Engine{
		table:      t,
		loaders:    resource.NewTyped[*Loader](t, classLoader),
		contexts:   resource.NewTyped[*Context](t, classContext),
		scopes:     resource.NewTyped[*Scope](t, classScope),
		types:      resource.NewTyped[*Type](t, classType),
		functions:  resource.NewTyped[*Function](t, classFunction),
		signatures: resource.NewTyped[*Signature](t, classSignature),
		values:     resource.NewTyped[*Value](t, classValue),
	}
}

// Close releases every object. Handles are invalid afterwards.
func (e *Engine) Close() error {
	return e.table.Close()
}

// Subscribe registers an observer for arena lifecycle events.
func (e *Engine) Subscribe(o resource.Observer) {
	e.table.Subscribe(o)
}

// Objects returns the number of live objects of every class.
func (e *Engine) Objects() int {
	return e.table.Len()
}

func insertErr(what string, err error) error {
	if stderrors.Is(err, resource.ErrClosed) {
		return errors.Closed(errors.PhaseHandle, "engine")
	}
	return errors.Wrap(errors.PhaseHandle, errors.KindRegistration, err, "allocate "+what)
}

func removeErr(what string, h resource.Handle, err error) error {
	if stderrors.Is(err, resource.ErrBorrowed) {
		return errors.New(errors.PhaseHandle, errors.KindBorrowed).
			Detail("%s handle %#x is borrowed", what, uint32(h)).
			Cause(err).
			Build()
	}
	return errors.InvalidHandle(what, uint32(h))
}

func checkName(name cstring.CString) error {
	if !name.Valid() {
		return errors.InvalidInput(errors.PhaseConvert, "name is not a valid NUL-terminated string")
	}
	return nil
}

// LoaderCreate creates a loader instance with an optional data slot.
func (e *Engine) LoaderCreate(name string, data any) (LoaderHandle, error) {
	h, err := e.loaders.Insert(&Loader{
		name:  name,
		data:  data,
		types: make(map[string]TypeHandle),
	})
	if err != nil {
		return 0, insertErr("loader", err)
	}
	Logger().Debug("loader created", zap.String("loader", name), zap.Uint32("handle", uint32(h)))
	return LoaderHandle(h), nil
}

// LoaderDestroy unloads a loader. It fails while the loader is borrowed by
// an in-flight registration.
func (e *Engine) LoaderDestroy(l LoaderHandle) error {
	if _, err := e.loaders.Remove(resource.Handle(l)); err != nil {
		return removeErr("loader", resource.Handle(l), err)
	}
	return nil
}

// BorrowLoader pins l for the duration of a call.
func (e *Engine) BorrowLoader(l LoaderHandle) (func(), error) {
	release, err := e.loaders.Borrow(resource.Handle(l))
	if err != nil {
		return nil, errors.InvalidHandle("loader", uint32(l))
	}
	return release, nil
}

func (e *Engine) loader(l LoaderHandle) (*Loader, error) {
	ld, ok := e.loaders.Get(resource.Handle(l))
	if !ok {
		return nil, errors.InvalidHandle("loader", uint32(l))
	}
	return ld, nil
}

// LoaderName returns the name a loader was created with.
func (e *Engine) LoaderName(l LoaderHandle) (string, error) {
	ld, err := e.loader(l)
	if err != nil {
		return "", err
	}
	return ld.name, nil
}

// LoaderData returns the loader's data slot, nil if never set.
func (e *Engine) LoaderData(l LoaderHandle) (any, error) {
	ld, err := e.loader(l)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ld.data, nil
}

// SetLoaderData stores data in the loader's slot.
func (e *Engine) SetLoaderData(l LoaderHandle, data any) error {
	ld, err := e.loader(l)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ld.data = data
	return nil
}

// ScopeCreate creates an empty scope.
func (e *Engine) ScopeCreate(name string) (ScopeHandle, error) {
	h, err := e.scopes.Insert(&Scope{name: name, symbols: make(map[string]ValueHandle)})
	if err != nil {
		return 0, insertErr("scope", err)
	}
	return ScopeHandle(h), nil
}

// ContextCreate creates an execution context over scope.
func (e *Engine) ContextCreate(scope ScopeHandle) (ContextHandle, error) {
	if _, ok := e.scopes.Get(resource.Handle(scope)); !ok {
		return 0, errors.InvalidHandle("scope", uint32(scope))
	}
	h, err := e.contexts.Insert(&Context{scope: scope})
	if err != nil {
		return 0, insertErr("context", err)
	}
	return ContextHandle(h), nil
}

// ContextScope resolves the scope reachable from ctx.
func (e *Engine) ContextScope(ctx ContextHandle) (ScopeHandle, error) {
	c, ok := e.contexts.Get(resource.Handle(ctx))
	if !ok {
		return 0, errors.InvalidHandle("context", uint32(ctx))
	}
	if _, ok := e.scopes.Get(resource.Handle(c.scope)); !ok {
		return 0, errors.InvalidHandle("scope", uint32(c.scope))
	}
	return c.scope, nil
}

// TypeCreate builds a type descriptor. It is not visible to any loader until
// LoaderTypeDefine.
func (e *Engine) TypeCreate(kind types.Kind, name cstring.CString, impl, singleton any) (TypeHandle, error) {
	if !kind.Valid() {
		return 0, errors.InvalidKind(errors.PhaseDefine, int64(kind))
	}
	if err := checkName(name); err != nil {
		return 0, err
	}
	h, err := e.types.Insert(&Type{
		Kind:      kind,
		Name:      name.String(),
		Impl:      impl,
		Singleton: singleton,
	})
	if err != nil {
		return 0, insertErr("type", err)
	}
	return TypeHandle(h), nil
}

// TypeDestroy releases a type descriptor.
func (e *Engine) TypeDestroy(t TypeHandle) error {
	if _, err := e.types.Remove(resource.Handle(t)); err != nil {
		return removeErr("type", resource.Handle(t), err)
	}
	return nil
}

// TypeOf returns a copy of a type descriptor.
func (e *Engine) TypeOf(t TypeHandle) (Type, bool) {
	ty, ok := e.types.Get(resource.Handle(t))
	if !ok {
		return Type{}, false
	}
	return *ty, true
}

// LoaderTypeDefine inserts t into the loader's namespace under name,
// replacing any existing entry.
func (e *Engine) LoaderTypeDefine(l LoaderHandle, name cstring.CString, t TypeHandle) error {
	return e.defineType(l, name, t, true)
}

// LoaderTypeDefineNew is LoaderTypeDefine for a name that must still be
// free. The check and the insert happen under one lock, so of two
// concurrent definitions of a name exactly one succeeds.
func (e *Engine) LoaderTypeDefineNew(l LoaderHandle, name cstring.CString, t TypeHandle) error {
	return e.defineType(l, name, t, false)
}

func (e *Engine) defineType(l LoaderHandle, name cstring.CString, t TypeHandle, replace bool) error {
	if err := checkName(name); err != nil {
		return err
	}
	ld, err := e.loader(l)
	if err != nil {
		return err
	}
	if _, ok := e.types.Get(resource.Handle(t)); !ok {
		return errors.InvalidHandle("type", uint32(t))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := ld.types[name.String()]; exists && !replace {
		return errors.Duplicate(errors.PhaseDefine, "type", name.String())
	}
	ld.types[name.String()] = t
	return nil
}

// LoaderType looks a type up by name in the loader's namespace.
func (e *Engine) LoaderType(l LoaderHandle, name cstring.CString) (TypeHandle, bool) {
	ld, err := e.loader(l)
	if err != nil || !name.Valid() {
		return 0, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := ld.types[name.String()]
	return t, ok
}

// LoaderTypeNames returns the loader's type names in sorted order.
func (e *Engine) LoaderTypeNames(l LoaderHandle) ([]string, error) {
	ld, err := e.loader(l)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	names := make([]string, 0, len(ld.types))
	for n := range ld.types {
		names = append(names, n)
	}
	e.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}

// FunctionCreate builds a function descriptor with an empty signature of
// arity slots.
func (e *Engine) FunctionCreate(name cstring.CString, arity int, impl, singleton any) (FunctionHandle, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	if arity < 0 {
		return 0, errors.InvalidInput(errors.PhaseRegister, "negative arity")
	}
	sh, err := e.signatures.Insert(newSignature(arity))
	if err != nil {
		return 0, insertErr("signature", err)
	}
	fh, err := e.functions.Insert(&Function{
		Name:      name.String(),
		Arity:     arity,
		Impl:      impl,
		Singleton: singleton,
		Signature: SignatureHandle(sh),
	})
	if err != nil {
		_, _ = e.signatures.Remove(sh)
		return 0, insertErr("function", err)
	}
	return FunctionHandle(fh), nil
}

// FunctionDestroy releases a function and its signature.
func (e *Engine) FunctionDestroy(f FunctionHandle) error {
	fn, err := e.functions.Remove(resource.Handle(f))
	if err != nil {
		return removeErr("function", resource.Handle(f), err)
	}
	_, _ = e.signatures.Remove(resource.Handle(fn.Signature))
	return nil
}

// FunctionOf returns a copy of a function descriptor.
func (e *Engine) FunctionOf(f FunctionHandle) (Function, bool) {
	fn, ok := e.functions.Get(resource.Handle(f))
	if !ok {
		return Function{}, false
	}
	return *fn, true
}

// FunctionSignature returns the mutable signature attached to f.
func (e *Engine) FunctionSignature(f FunctionHandle) (SignatureHandle, error) {
	fn, ok := e.functions.Get(resource.Handle(f))
	if !ok {
		return 0, errors.InvalidHandle("function", uint32(f))
	}
	return fn.Signature, nil
}

func (e *Engine) signature(s SignatureHandle) (*Signature, error) {
	sig, ok := e.signatures.Get(resource.Handle(s))
	if !ok {
		return nil, errors.InvalidHandle("signature", uint32(s))
	}
	return sig, nil
}

// SignatureOf returns a snapshot of a signature.
func (e *Engine) SignatureOf(s SignatureHandle) (Signature, bool) {
	sig, err := e.signature(s)
	if err != nil {
		return Signature{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return sig.clone(), true
}

// SignatureSetReturn sets the return type.
func (e *Engine) SignatureSetReturn(s SignatureHandle, t TypeHandle) error {
	sig, err := e.signature(s)
	if err != nil {
		return err
	}
	if _, ok := e.types.Get(resource.Handle(t)); !ok {
		return errors.InvalidHandle("type", uint32(t))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	sig.ret = t
	sig.retSet = true
	return nil
}

// SignatureSet fills the parameter slot at index.
func (e *Engine) SignatureSet(s SignatureHandle, index int, name cstring.CString, t TypeHandle) error {
	if err := checkName(name); err != nil {
		return err
	}
	sig, err := e.signature(s)
	if err != nil {
		return err
	}
	if _, ok := e.types.Get(resource.Handle(t)); !ok {
		return errors.InvalidHandle("type", uint32(t))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(sig.params) {
		return errors.OutOfBounds(errors.PhaseRegister, []string{"signature"}, index, len(sig.params))
	}
	sig.params[index] = Param{Name: name.String(), Type: t, Set: true}
	return nil
}

// ValueCreateFunction wraps f in a function value.
func (e *Engine) ValueCreateFunction(f FunctionHandle) (ValueHandle, error) {
	if _, ok := e.functions.Get(resource.Handle(f)); !ok {
		return 0, errors.InvalidHandle("function", uint32(f))
	}
	h, err := e.values.Insert(&Value{Kind: ValueFunction, Function: f})
	if err != nil {
		return 0, insertErr("value", err)
	}
	return ValueHandle(h), nil
}

// ValueDestroy releases a value. The wrapped function is not released.
func (e *Engine) ValueDestroy(v ValueHandle) error {
	if _, err := e.values.Remove(resource.Handle(v)); err != nil {
		return removeErr("value", resource.Handle(v), err)
	}
	return nil
}

// ValueOf returns a copy of a value.
func (e *Engine) ValueOf(v ValueHandle) (Value, bool) {
	val, ok := e.values.Get(resource.Handle(v))
	if !ok {
		return Value{}, false
	}
	return *val, true
}

// ScopeDefine binds v under name, replacing any existing binding.
func (e *Engine) ScopeDefine(scope ScopeHandle, name cstring.CString, v ValueHandle) error {
	if err := checkName(name); err != nil {
		return err
	}
	sc, ok := e.scopes.Get(resource.Handle(scope))
	if !ok {
		return errors.InvalidHandle("scope", uint32(scope))
	}
	if _, ok := e.values.Get(resource.Handle(v)); !ok {
		return errors.InvalidHandle("value", uint32(v))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, ok := sc.symbols[name.String()]; ok && prev != v {
		Logger().Debug("scope binding replaced",
			zap.String("scope", sc.name),
			zap.String("name", name.String()))
	}
	sc.symbols[name.String()] = v
	return nil
}

// ScopeGet looks a binding up by name.
func (e *Engine) ScopeGet(scope ScopeHandle, name cstring.CString) (ValueHandle, bool) {
	sc, ok := e.scopes.Get(resource.Handle(scope))
	if !ok || !name.Valid() {
		return 0, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := sc.symbols[name.String()]
	return v, ok
}

// ScopeNames returns the scope's bound names in sorted order.
func (e *Engine) ScopeNames(scope ScopeHandle) ([]string, error) {
	sc, ok := e.scopes.Get(resource.Handle(scope))
	if !ok {
		return nil, errors.InvalidHandle("scope", uint32(scope))
	}
	e.mu.RLock()
	names := make([]string, 0, len(sc.symbols))
	for n := range sc.symbols {
		names = append(names, n)
	}
	e.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}
