package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/loader-bridge/bridge"
	"github.com/wippyai/loader-bridge/cstring"
	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/host"
	"github.com/wippyai/loader-bridge/types"
)

func TestLoad(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "math.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "math", m.Loader.Name)
	assert.Equal(t, "add.wasm", m.Loader.Module)
	assert.Equal(t, []string{"testdata"}, m.Loader.ExecutionPaths)
	assert.Equal(t, bridge.Reject, m.Loader.TypePolicy)
	assert.Equal(t, bridge.Reject, m.Loader.FunctionPolicy)

	require.Len(t, m.Types, 3)
	assert.Equal(t, Type{Name: "Integer", Kind: types.KindInt, Singleton: int64(0)}, m.Types[0])
	assert.Equal(t, Type{Name: "Text", Kind: types.KindString}, m.Types[1])
	assert.Equal(t, types.KindMap, m.Types[2].Kind)
	assert.Equal(t, map[string]any{
		"precision": 2.5,
		"tags":      []any{"fast", "pure"},
		"strict":    true,
	}, m.Types[2].Singleton)

	require.Len(t, m.Functions, 2)
	add := m.Functions[0]
	assert.Equal(t, "add", add.Name)
	assert.Equal(t, "sum", add.ExportName())
	assert.Equal(t, "Integer", add.Return)
	assert.Equal(t, []bridge.Param{{Name: "a", Type: "Integer"}, {Name: "b", Type: "Integer"}}, add.Params)

	describe := m.Functions[1]
	assert.Equal(t, "describe", describe.ExportName())
	assert.Empty(t, describe.Return)

	state, err := m.State()
	require.NoError(t, err)
	found, err := state.Find("math.hcl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "math.hcl"), found)
}

func TestParseDefaults(t *testing.T) {
	m, err := Parse("inline.hcl", []byte(`
loader "bare" {
  execution_paths = ["/opt/lib", "lib"]
}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/lib", "lib"}, m.Loader.ExecutionPaths)
	assert.Equal(t, bridge.Reject, m.Loader.TypePolicy)
	assert.Equal(t, bridge.Overwrite, m.Loader.FunctionPolicy)
	assert.Empty(t, m.Types)
	assert.Empty(t, m.Functions)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind errors.Kind
	}{
		{
			name: "syntax",
			src:  `loader "x" {`,
			kind: errors.KindInvalidData,
		},
		{
			name: "no loader",
			src:  `type "T" { kind = "int" }`,
			kind: errors.KindInvalidData,
		},
		{
			name: "unknown kind",
			src: `loader "x" {}
type "T" { kind = "complex" }`,
			kind: errors.KindInvalidKind,
		},
		{
			name: "bad policy",
			src: `loader "x" {
  policy { types = "merge" }
}`,
			kind: errors.KindInvalidInput,
		},
		{
			name: "duplicate type",
			src: `loader "x" {}
type "T" { kind = "int" }
type "T" { kind = "long" }`,
			kind: errors.KindInvalidInput,
		},
		{
			name: "duplicate function",
			src: `loader "x" {}
function "f" {}
function "f" {}`,
			kind: errors.KindInvalidInput,
		},
		{
			name: "empty execution path",
			src:  `loader "x" { execution_paths = [""] }`,
			kind: errors.KindInvalidInput,
		},
		{
			name: "singleton references variable",
			src: `loader "x" {}
type "T" {
  kind      = "int"
  singleton = var.missing
}`,
			kind: errors.KindInvalidData,
		},
		{
			name: "missing param type",
			src: `loader "x" {}
function "f" {
  param "a" {}
}`,
			kind: errors.KindInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.hcl", []byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "absent.hcl"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidData))
}

type env struct {
	eng    *host.Engine
	loader host.LoaderHandle
	scope  host.ScopeHandle
	ctx    host.ContextHandle
}

func newEnv(t *testing.T) *env {
	t.Helper()
	eng := host.NewEngine()
	t.Cleanup(func() { eng.Close() })
	l, err := eng.LoaderCreate("math", nil)
	require.NoError(t, err)
	scope, err := eng.ScopeCreate("global")
	require.NoError(t, err)
	ctx, err := eng.ContextCreate(scope)
	require.NoError(t, err)
	return &env{eng: eng, loader: l, scope: scope, ctx: ctx}
}

func TestApply(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "math.hcl"))
	require.NoError(t, err)
	e := newEnv(t)
	b := bridge.New(e.eng, m.Options()...)

	var exports []string
	var sigs []Signature
	applied, err := m.Apply(b, e.loader, e.ctx, ResolverFunc(func(fn Function, sig Signature) (any, any, error) {
		exports = append(exports, fn.ExportName())
		sigs = append(sigs, sig)
		return "impl:" + fn.ExportName(), nil, nil
	}))
	require.NoError(t, err)
	assert.Len(t, applied.Types, 3)
	assert.Len(t, applied.Functions, 2)
	assert.Equal(t, []string{"sum", "describe"}, exports)
	assert.Equal(t, []Signature{
		{Params: []types.Kind{types.KindInt, types.KindInt}, Return: types.KindInt, HasReturn: true},
		{Params: []types.Kind{types.KindInt}},
	}, sigs)

	th, ok := b.LookupType(e.loader, "Integer")
	require.True(t, ok)
	ty, _ := e.eng.TypeOf(th)
	assert.Equal(t, int64(0), ty.Singleton)
	assert.Same(t, &m.Types[0], ty.Impl)

	snap, err := bridge.TakeSnapshot(e.eng, e.loader, e.ctx)
	require.NoError(t, err)
	require.Len(t, snap.Functions, 2)
	assert.Equal(t, "add(a: Integer, b: Integer) -> Integer", snap.Functions[0].String())
	assert.Equal(t, "describe(value: Integer)", snap.Functions[1].String())

	r, err := bridge.LookupFunction(e.eng, e.ctx, "add")
	require.NoError(t, err)
	assert.Equal(t, "impl:sum", r.Function.Impl)
}

func TestApplyNilResolver(t *testing.T) {
	m, err := Parse("inline.hcl", []byte(`
loader "x" {}
type "Flag" { kind = "bool" }
function "toggle" {
  return = "Flag"
  param "on" { type = "Flag" }
}
`))
	require.NoError(t, err)
	e := newEnv(t)

	applied, err := m.Apply(bridge.New(e.eng), e.loader, e.ctx, nil)
	require.NoError(t, err)
	require.Len(t, applied.Functions, 1)

	fn, ok := e.eng.FunctionOf(applied.Functions[0])
	require.True(t, ok)
	assert.Nil(t, fn.Impl)
}

func TestApplyStopsAtUnresolvedType(t *testing.T) {
	m, err := Parse("inline.hcl", []byte(`
loader "x" {}
type "Flag" { kind = "bool" }
function "ok" {
  param "a" { type = "Flag" }
}
function "broken" {
  param "a" { type = "Missing" }
}
`))
	require.NoError(t, err)
	e := newEnv(t)

	applied, err := m.Apply(bridge.New(e.eng), e.loader, e.ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnresolvedType))
	assert.Len(t, applied.Functions, 1)

	name, _ := cstring.New("broken")
	_, bound := e.eng.ScopeGet(e.scope, name)
	assert.False(t, bound)
}

func TestApplyResolverFailure(t *testing.T) {
	m, err := Parse("inline.hcl", []byte(`
loader "x" {}
function "f" {}
`))
	require.NoError(t, err)
	e := newEnv(t)

	_, err = m.Apply(bridge.New(e.eng), e.loader, e.ctx, ResolverFunc(func(Function, Signature) (any, any, error) {
		return nil, nil, errors.NotFound(errors.PhaseLoad, "export", "f")
	}))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	assert.False(t, errors.IsKind(err, errors.KindRegistration), "the host never saw the function")
	assert.NotContains(t, err.Error(), "host rejected")
	assert.Contains(t, err.Error(), `"f"`)
}

func TestApplyUnresolvedBeforeResolver(t *testing.T) {
	m, err := Parse("inline.hcl", []byte(`
loader "x" {}
function "f" {
  return = "Missing"
}
`))
	require.NoError(t, err)
	e := newEnv(t)

	called := false
	_, err = m.Apply(bridge.New(e.eng), e.loader, e.ctx, ResolverFunc(func(Function, Signature) (any, any, error) {
		called = true
		return nil, nil, nil
	}))
	assert.True(t, errors.IsKind(err, errors.KindUnresolvedType))
	assert.False(t, called)
}
