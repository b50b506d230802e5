// Package loaderbridge lets an embedded language runtime expose its types
// and functions to a host polyglot engine.
//
// The host owns a language-agnostic model of types, function signatures and
// lexical scopes. An embedded runtime translates its own concepts into that
// model at load time through the registration bridge.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	loaderbridge/
//	├── bridge/          Type and function registration, duplicate policies, snapshots
//	├── lifecycle/       Per-loader-instance state (execution paths)
//	├── host/            In-memory host engine: namespaces, signatures, scopes
//	├── types/           The closed type kind enumeration and its wire encoding
//	├── cstring/         NUL-terminated names at the host boundary
//	├── resource/        Generation-checked handle arena
//	├── manifest/        HCL registration manifests
//	├── wasmloader/      wazero-backed runtime exporting wasm functions
//	├── errors/          Structured error types for debugging
//	└── cmd/bridge/      CLI and interactive browser
//
// # Quick Start
//
// Define types, then register a function whose signature uses them:
//
//	eng := host.NewEngine()
//	defer eng.Close()
//
//	loader, _ := eng.LoaderCreate("math", nil)
//	scope, _ := eng.ScopeCreate("global")
//	ctx, _ := eng.ContextCreate(scope)
//
//	b := bridge.New(eng)
//	b.DefineType(loader, "Integer", types.KindInt, nil, nil)
//	b.RegisterFunction(bridge.Registration{
//	    Context:  ctx,
//	    Loader:   loader,
//	    Function: bridge.FunctionCreate{Name: "add", Arity: 2, Impl: add},
//	    Return:   "Integer",
//	    Params:   []bridge.Param{{Name: "a", Type: "Integer"}, {Name: "b", Type: "Integer"}},
//	})
//
// # Error Handling
//
// Every failure is an *errors.Error carrying a phase and a kind:
//
//	if errors.IsKind(err, errors.KindUnresolvedType) {
//	    // a parameter type was not defined first
//	}
//
// Registration is atomic: a failed call leaves the host unchanged.
//
// # Thread Safety
//
// host.Engine is safe for concurrent use. A bridge.Bridge serializes its
// own registrations.
package loaderbridge
