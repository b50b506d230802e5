// Package errors provides structured error types for the loader bridge.
//
// Errors are categorized by Phase (where in the registration protocol the
// error occurred) and Kind (error category). The Error type carries the
// offending name, a field path, and a cause chain.
//
// The registration taxonomy maps onto kinds:
//
//	KindConversion      name contains an embedded NUL and cannot cross the boundary
//	KindUnresolvedType  parameter or return type name not in the loader namespace
//	KindDuplicate       name already defined and the policy rejects duplicates
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRegister, errors.KindUnresolvedType).
//		Path("add", "param", "b").
//		Name("Integer").
//		Detail("type is not defined in the loader namespace").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Conversion(errors.PhaseDefine, nil, name, idx)
//	err := errors.Duplicate(errors.PhaseDefine, "type", name)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches a kind anywhere in the chain regardless of phase.
package errors
