package wasmloader

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/lifecycle"
)

// Config holds configuration for runtime creation
type Config struct {
	// TypeNames maps core value types to loader type names.
	// nil means DefaultTypeNames.
	TypeNames map[api.ValueType]string

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// EnableWASI instantiates wasi_snapshot_preview1 before the first module.
	EnableWASI bool
}

// DefaultTypeNames maps each core value type to the name of a primitive
// loader type of the same width.
func DefaultTypeNames() map[api.ValueType]string {
	return map[api.ValueType]string{
		api.ValueTypeI32: "Int",
		api.ValueTypeI64: "Long",
		api.ValueTypeF32: "Float",
		api.ValueTypeF64: "Double",
	}
}

// Runtime is the embedded wasm runtime. It compiles modules and hands their
// exports to the bridge.
type Runtime struct {
	runtime   wazero.Runtime
	typeNames map[api.ValueType]string
	wasi      bool
	wasiOnce  sync.Once
	wasiErr   error
}

// New creates a runtime. cfg may be nil.
func New(ctx context.Context, cfg *Config) *Runtime {
	runtimeCfg := wazero.NewRuntimeConfig()
	r := &Runtime{typeNames: DefaultTypeNames()}
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.TypeNames != nil {
			r.typeNames = cfg.TypeNames
		}
		r.wasi = cfg.EnableWASI
	}
	r.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return r
}

// Close releases every module loaded by r.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

func (r *Runtime) initWASI(ctx context.Context) error {
	r.wasiOnce.Do(func() {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r.runtime); err != nil {
			r.wasiErr = errors.Load("instantiate WASI", err)
		}
	})
	return r.wasiErr
}

// Load compiles and instantiates a module under name.
func (r *Runtime) Load(ctx context.Context, name string, wasm []byte) (*Module, error) {
	if r.wasi {
		if err := r.initWASI(ctx); err != nil {
			return nil, err
		}
	}

	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module "+name, err)
	}
	mod, err := r.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		compiled.Close(ctx)
		return nil, errors.Load("instantiate module "+name, err)
	}

	defs := compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for n := range defs {
		names = append(names, n)
	}
	sort.Strings(names)

	m := &Module{
		name:      name,
		compiled:  compiled,
		mod:       mod,
		typeNames: r.typeNames,
		exports:   make([]Export, 0, len(names)),
	}
	for _, n := range names {
		def := defs[n]
		m.exports = append(m.exports, Export{
			Name:     n,
			Params:   def.ParamTypes(),
			Results:  def.ResultTypes(),
			Function: mod.ExportedFunction(n),
		})
	}

	Logger().Debug("module loaded",
		zap.String("module", name),
		zap.Int("exports", len(m.exports)))
	return m, nil
}

// LoadFile finds file on the loader's execution paths and loads it.
func (r *Runtime) LoadFile(ctx context.Context, state *lifecycle.State, file string) (*Module, error) {
	if state == nil {
		return nil, errors.NotInitialized(errors.PhaseLoad, "lifecycle state")
	}
	path, err := state.Find(file)
	if err != nil {
		return nil, err
	}
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return r.Load(ctx, file, wasm)
}
