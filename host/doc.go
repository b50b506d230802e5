// Package host is an in-memory model of the host engine's type and symbol
// system: loader instances with type namespaces, function descriptors with
// signatures, tagged values, lexical scopes and execution contexts.
//
// Every object lives in a resource arena and is referred to by a typed
// handle (LoaderHandle, TypeHandle, ...). Each call validates the handles it
// receives, so a stale or wrong-class handle yields an invalid_handle error
// instead of undefined behavior.
//
// Names cross into the engine as cstring.CString values. The engine itself
// never rejects a duplicate name: LoaderTypeDefine and ScopeDefine replace
// existing entries. Duplicate policy belongs to the caller.
//
//	eng := host.NewEngine()
//	defer eng.Close()
//
//	loader, _ := eng.LoaderCreate("wasm", nil)
//	scope, _ := eng.ScopeCreate("global")
//	ctx, _ := eng.ContextCreate(scope)
package host
