package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the registration protocol the error occurred
type Phase string

const (
	PhaseConvert   Phase = "convert"   // name conversion at the boundary
	PhaseDefine    Phase = "define"    // type definition
	PhaseRegister  Phase = "register"  // function registration
	PhaseBind      Phase = "bind"      // scope binding
	PhaseLifecycle Phase = "lifecycle" // loader lifecycle state
	PhaseHandle    Phase = "handle"    // handle validation
	PhaseLoad      Phase = "load"      // embedded module loading
	PhaseParse     Phase = "parse"     // manifest parsing
	PhaseValidate  Phase = "validate"  // input validation
	PhaseCall      Phase = "call"      // invoking a registered function
)

// Kind categorizes the error
type Kind string

const (
	KindConversion     Kind = "conversion"
	KindUnresolvedType Kind = "unresolved_type"
	KindDuplicate      Kind = "duplicate"
	KindInvalidKind    Kind = "invalid_kind"
	KindInvalidHandle  Kind = "invalid_handle"
	KindArityMismatch  Kind = "arity_mismatch"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindNotInitialized Kind = "not_initialized"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindRegistration   Kind = "registration"
	KindUnsupported    Kind = "unsupported"
	KindClosed         Kind = "closed"
	KindBorrowed       Kind = "borrowed"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Name != "" {
		b.WriteString(": ")
		b.WriteString(quoteName(e.Name))
	}

	if e.Detail != "" {
		if e.Name != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// quoteName renders a name with any control bytes escaped, so a name that
// failed conversion because of an embedded NUL is still printable.
func quoteName(s string) string {
	return fmt.Sprintf("%q", s)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind,
// regardless of phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Name sets the offending symbol or type name
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Conversion creates an error for a name that cannot cross the boundary as
// a null-terminated string.
func Conversion(phase Phase, path []string, name string, nulAt int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConversion,
		Path:   path,
		Name:   name,
		Detail: fmt.Sprintf("embedded NUL byte at offset %d", nulAt),
		Value:  nulAt,
	}
}

// UnresolvedType creates an error for a type name absent from a loader's namespace
func UnresolvedType(phase Phase, path []string, typeName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnresolvedType,
		Path:   path,
		Name:   typeName,
		Detail: "type is not defined in the loader namespace",
	}
}

// Duplicate creates an error for a name that is already defined
func Duplicate(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicate,
		Name:   name,
		Detail: fmt.Sprintf("%s already defined", what),
	}
}

// InvalidKind creates an error for a type kind outside the closed enumeration
func InvalidKind(phase Phase, id int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidKind,
		Detail: fmt.Sprintf("type kind %d out of range (valid 0..16)", id),
		Value:  id,
	}
}

// InvalidHandle creates an error for a handle that does not name a live
// object of the expected class
func InvalidHandle(what string, handle uint32) *Error {
	return &Error{
		Phase:  PhaseHandle,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("invalid %s handle %#x", what, handle),
		Value:  handle,
	}
}

// ArityMismatch creates an error when the declared arity disagrees with the
// number of parameters supplied
func ArityMismatch(phase Phase, name string, arity, params int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArityMismatch,
		Name:   name,
		Detail: fmt.Sprintf("arity %d but %d parameter(s) supplied", arity, params),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Name:   name,
		Detail: fmt.Sprintf("%s not found", what),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates an error for a host insertion that was refused
func Registration(phase Phase, what, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Name:   name,
		Detail: fmt.Sprintf("host rejected %s", what),
		Cause:  cause,
	}
}

// Resolution creates an error for a declared function the embedded runtime
// could not supply. It carries the cause's kind, or KindNotFound when the
// cause is not structured.
func Resolution(phase Phase, name string, cause error) *Error {
	kind := KindOf(cause)
	if kind == "" {
		kind = KindNotFound
	}
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Name:   name,
		Detail: "runtime cannot supply function",
		Cause:  cause,
	}
}

// Closed creates an error for operations on a closed host or arena
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
