package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/host"
)

func TestInitialize(t *testing.T) {
	s, err := Initialize("/opt/scripts", "./lib", "/usr/share/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/scripts", "./lib", "/usr/share/app"}, s.ExecutionPaths())

	empty, err := Initialize()
	require.NoError(t, err)
	assert.Empty(t, empty.ExecutionPaths())
}

func TestInitializeCopiesInput(t *testing.T) {
	paths := []string{"a", "b"}
	s, err := Initialize(paths...)
	require.NoError(t, err)

	paths[0] = "mutated"
	got := s.ExecutionPaths()
	assert.Equal(t, "a", got[0])

	got[1] = "mutated"
	assert.Equal(t, "b", s.ExecutionPaths()[1], "ExecutionPaths must return a copy")
}

func TestInitializeRejectsBadPaths(t *testing.T) {
	_, err := Initialize("ok", "")
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))

	_, err = Initialize("ok", "bad\x00path")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConversion))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"execution_paths", "1"}, e.Path)
}

func TestFind(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(second, "mod.wasm"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(first, "dir.wasm"), 0o755))

	s, err := Initialize(first, second)
	require.NoError(t, err)

	got, err := s.Find("mod.wasm")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "mod.wasm"), got)

	_, err = s.Find("dir.wasm")
	assert.True(t, errors.IsKind(err, errors.KindNotFound), "directories are not loadable")

	_, err = s.Find("missing.wasm")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	abs := filepath.Join(second, "mod.wasm")
	got, err = s.Find(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)
}

func TestFindPrefersEarlierPath(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	for _, d := range []string{first, second} {
		require.NoError(t, os.WriteFile(filepath.Join(d, "lib.wasm"), []byte("x"), 0o644))
	}

	s, _ := Initialize(first, second)
	got, err := s.Find("lib.wasm")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "lib.wasm"), got)
}

func TestAttachAndGet(t *testing.T) {
	eng := host.NewEngine()
	defer eng.Close()

	l, err := eng.LoaderCreate("wasm", nil)
	require.NoError(t, err)

	s, ok := Get(eng, l)
	assert.False(t, ok, "uninitialized loader has no state")
	assert.Nil(t, s)

	state, _ := Initialize("/srv")
	require.NoError(t, Attach(eng, l, state))

	got, ok := Get(eng, l)
	require.True(t, ok)
	assert.Same(t, state, got)

	other, _ := Initialize("/other")
	err = Attach(eng, l, other)
	assert.True(t, errors.IsKind(err, errors.KindDuplicate))

	got, _ = Get(eng, l)
	assert.Same(t, state, got, "second attach must not replace state")
}

func TestGetForeignData(t *testing.T) {
	eng := host.NewEngine()
	l, _ := eng.LoaderCreate("other", "not a lifecycle state")

	_, ok := Get(eng, l)
	assert.False(t, ok)

	_, ok = Get(eng, host.LoaderHandle(0))
	assert.False(t, ok)
}
