// Package wasmloader is an embedded runtime that exposes WebAssembly
// exports to the host through the registration bridge.
//
// Core value types map onto loader types by name (i32 to Int, i64 to Long,
// f32 to Float, f64 to Double unless Config.TypeNames says otherwise).
// DefineTypes defines those types, and Register binds every export whose
// signature can be expressed:
//
//	rt := wasmloader.New(ctx, nil)
//	defer rt.Close(ctx)
//
//	mod, err := rt.LoadFile(ctx, state, "math.wasm")
//	if err != nil {
//	    return err
//	}
//	if err := mod.DefineTypes(b, loader); err != nil {
//	    return err
//	}
//	_, err = mod.Register(b, loader, ctx)
//
// A Module also implements manifest.Resolver, so a manifest can choose the
// bound names and parameter names itself. The manifest's declared kinds
// must agree with the export's value types. Registered functions carry their
// api.Function as native impl; Call invokes it.
package wasmloader
