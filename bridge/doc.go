// Package bridge registers an embedded runtime's types and functions into
// the host engine's shared type and symbol model.
//
// # Types
//
// DefineType converts a native type description into a host type descriptor
// and inserts it into the loader instance's type namespace:
//
//	b := bridge.New(engine)
//	_, err := b.DefineType(loader, "Integer", types.KindInt, impl, singleton)
//
// The boundary form DefineTypeID takes the kind's wire encoding (0..16).
//
// # Functions
//
// RegisterFunction builds a function descriptor, fills its signature by
// resolving every parameter and return type name in the loader namespace,
// and binds the function value into the scope of the supplied context:
//
//	_, err := b.RegisterFunction(bridge.Registration{
//	    Context: ctx,
//	    Loader:  loader,
//	    Function: bridge.FunctionCreate{Name: "add", Arity: 2, Impl: fn},
//	    Return:  "Integer",
//	    Params:  []bridge.Param{{Name: "a", Type: "Integer"}, {Name: "b", Type: "Integer"}},
//	})
//
// Types must be defined before any function that refers to them.
//
// # Failure
//
// Both operations either complete or leave the host unchanged. Failures are
// *errors.Error values with kind conversion (name contains NUL),
// unresolved_type, duplicate, invalid_kind, arity_mismatch or
// invalid_handle.
//
// # Duplicates
//
// Type names default to Reject; scope bindings default to Overwrite (last
// write wins). Both are configurable with WithTypePolicy and
// WithFunctionPolicy.
//
// # Concurrency
//
// A Bridge serializes its own registrations. Singleton and impl values are
// owned by the embedded runtime and must stay alive at least as long as the
// descriptors that reference them.
package bridge
