package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wippyai/loader-bridge/bridge"
	"github.com/wippyai/loader-bridge/host"
	"github.com/wippyai/loader-bridge/lifecycle"
	"github.com/wippyai/loader-bridge/manifest"
	"github.com/wippyai/loader-bridge/wasmloader"
)

type options struct {
	manifest string
	wasm     string
	paths    string
	// verbose traces every host object the session creates or releases.
	verbose bool
}

// session is one loaded module registered into a fresh host engine.
type session struct {
	eng    *host.Engine
	bridge *bridge.Bridge
	rt     *wasmloader.Runtime
	mod    *wasmloader.Module
	state  *lifecycle.State
	name   string
	loader host.LoaderHandle
	ctx    host.ContextHandle
}

func openSession(ctx context.Context, opts options) (*session, error) {
	var man *manifest.Manifest
	if opts.manifest != "" {
		var err error
		if man, err = manifest.Load(opts.manifest); err != nil {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
	}

	module := opts.wasm
	name := strings.TrimSuffix(filepath.Base(module), filepath.Ext(module))
	var paths []string
	var bopts []bridge.Option
	if man != nil {
		if module == "" {
			module = man.Loader.Module
		}
		name = man.Loader.Name
		paths = man.Loader.ExecutionPaths
		bopts = man.Options()
	}
	if module == "" {
		return nil, fmt.Errorf("no module: pass -wasm or set module in the manifest loader block")
	}
	if opts.paths != "" {
		paths = strings.Split(opts.paths, ",")
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	state, err := lifecycle.Initialize(paths...)
	if err != nil {
		return nil, fmt.Errorf("execution paths: %w", err)
	}

	eng := host.NewEngine()
	if opts.verbose {
		eng.Subscribe(host.NewLogObserver(host.Logger().Named("arena")))
	}
	s := &session{eng: eng, state: state, name: name}
	if s.loader, err = eng.LoaderCreate(name, nil); err != nil {
		eng.Close()
		return nil, err
	}
	if err := lifecycle.Attach(eng, s.loader, state); err != nil {
		eng.Close()
		return nil, err
	}
	scope, err := eng.ScopeCreate("global")
	if err != nil {
		eng.Close()
		return nil, err
	}
	if s.ctx, err = eng.ContextCreate(scope); err != nil {
		eng.Close()
		return nil, err
	}
	s.bridge = bridge.New(eng, bopts...)

	s.rt = wasmloader.New(ctx, nil)
	if s.mod, err = s.rt.LoadFile(ctx, state, module); err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("load module: %w", err)
	}

	if err := s.register(man); err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("register: %w", err)
	}
	return s, nil
}

// register binds the manifest's functions, or every export when the
// manifest declares none.
func (s *session) register(man *manifest.Manifest) error {
	if man != nil && len(man.Functions) > 0 {
		_, err := man.Apply(s.bridge, s.loader, s.ctx, s.mod)
		return err
	}
	if man != nil {
		if _, err := man.Apply(s.bridge, s.loader, s.ctx, nil); err != nil {
			return err
		}
	}
	if err := s.mod.DefineTypes(s.bridge, s.loader); err != nil {
		return err
	}
	_, err := s.mod.Register(s.bridge, s.loader, s.ctx)
	return err
}

func (s *session) snapshot() (*bridge.Snapshot, error) {
	return bridge.TakeSnapshot(s.eng, s.loader, s.ctx)
}

func (s *session) call(ctx context.Context, name string, args []string) ([]string, error) {
	r, err := bridge.LookupFunction(s.eng, s.ctx, name)
	if err != nil {
		return nil, err
	}
	return wasmloader.Call(ctx, r.Function.Impl, args)
}

func (s *session) Close(ctx context.Context) {
	if s.rt != nil {
		s.rt.Close(ctx)
	}
	s.eng.Close()
}
