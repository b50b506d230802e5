package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/loader-bridge/cstring"
	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/host"
	"github.com/wippyai/loader-bridge/types"
)

// DefineType creates a type descriptor and inserts it into the loader's
// type namespace under name.
//
// impl and singleton are owned by the embedded runtime and must outlive the
// descriptor. On failure nothing is inserted.
func (b *Bridge) DefineType(l host.LoaderHandle, name string, kind types.Kind, impl, singleton any) (host.TypeHandle, error) {
	if !kind.Valid() {
		return 0, errors.InvalidKind(errors.PhaseDefine, int64(kind))
	}
	if name == "" {
		return 0, errors.InvalidInput(errors.PhaseDefine, "type name cannot be empty")
	}
	cname, err := cstring.Convert(errors.PhaseDefine, []string{"type"}, name)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	release, err := b.host.BorrowLoader(l)
	if err != nil {
		return 0, err
	}
	defer release()

	if _, exists := b.host.LoaderType(l, cname); exists {
		if b.typePolicy == Reject {
			return 0, errors.Duplicate(errors.PhaseDefine, "type", name)
		}
		Logger().Warn("type redefined",
			zap.String("type", name),
			zap.Stringer("kind", kind))
	}

	t, err := b.host.TypeCreate(kind, cname, impl, singleton)
	if err != nil {
		return 0, errors.Registration(errors.PhaseDefine, "type", name, err)
	}
	insert := b.host.LoaderTypeDefine
	if b.typePolicy == Reject {
		// another bridge over the same host may have defined name since
		// the check above
		insert = b.host.LoaderTypeDefineNew
	}
	if err := insert(l, cname, t); err != nil {
		if derr := b.host.TypeDestroy(t); derr != nil {
			Logger().Warn("failed to release rejected type",
				zap.String("type", name),
				zap.Error(derr))
		}
		if errors.IsKind(err, errors.KindDuplicate) {
			return 0, err
		}
		return 0, errors.Registration(errors.PhaseDefine, "type", name, err)
	}

	Logger().Debug("type defined",
		zap.String("type", name),
		zap.Stringer("kind", kind),
		zap.Uint32("handle", uint32(t)))
	return t, nil
}

// DefineTypeID is DefineType with the kind in its wire encoding. Ids outside
// 0..16 are rejected.
func (b *Bridge) DefineTypeID(l host.LoaderHandle, name string, id int32, impl, singleton any) (host.TypeHandle, error) {
	kind, err := types.FromID(id)
	if err != nil {
		return 0, err
	}
	return b.DefineType(l, name, kind, impl, singleton)
}

// LookupType resolves a type name in the loader's namespace. Names that
// cannot be represented as host strings are never present.
func (b *Bridge) LookupType(l host.LoaderHandle, name string) (host.TypeHandle, bool) {
	cname, err := cstring.New(name)
	if err != nil {
		return 0, false
	}
	return b.host.LoaderType(l, cname)
}

// LookupKind resolves a type name in the loader's namespace to its kind.
func (b *Bridge) LookupKind(l host.LoaderHandle, name string) (types.Kind, bool) {
	th, ok := b.LookupType(l, name)
	if !ok {
		return 0, false
	}
	t, ok := b.host.TypeOf(th)
	if !ok {
		return 0, false
	}
	return t.Kind, true
}
