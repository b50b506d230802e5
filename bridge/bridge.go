package bridge

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/wippyai/loader-bridge/errors"
)

var validate = validator.New()

// Policy decides what happens when a name is registered twice.
type Policy uint8

const (
	// Reject fails the second registration and keeps the first.
	Reject Policy = iota
	// Overwrite replaces the earlier entry.
	Overwrite
)

func (p Policy) String() string {
	switch p {
	case Reject:
		return "reject"
	case Overwrite:
		return "overwrite"
	default:
		return "unknown"
	}
}

// ParsePolicy decodes "reject" or "overwrite".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reject":
		return Reject, nil
	case "overwrite":
		return Overwrite, nil
	default:
		return 0, errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Name(s).
			Detail("duplicate policy must be reject or overwrite").
			Build()
	}
}

// Bridge registers an embedded runtime's types and functions with a host.
//
// All registrations through one Bridge are serialized. Bridges may share a
// host: under Reject a type name still gets exactly one definition. Handles
// passed in are borrowed; the bridge never releases a loader, context or
// scope.
type Bridge struct {
	host           Host
	typePolicy     Policy
	functionPolicy Policy
	mu             sync.Mutex
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTypePolicy sets the duplicate policy for type names. Default Reject.
func WithTypePolicy(p Policy) Option {
	return func(b *Bridge) { b.typePolicy = p }
}

// WithFunctionPolicy sets the duplicate policy for scope bindings.
// Default Overwrite.
func WithFunctionPolicy(p Policy) Option {
	return func(b *Bridge) { b.functionPolicy = p }
}

// New creates a bridge over h.
func New(h Host, opts ...Option) *Bridge {
	b := &Bridge{
		host:           h,
		typePolicy:     Reject,
		functionPolicy: Overwrite,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Host returns the host the bridge registers with.
func (b *Bridge) Host() Host {
	return b.host
}

// TypePolicy returns the duplicate policy for types.
func (b *Bridge) TypePolicy() Policy {
	return b.typePolicy
}

// FunctionPolicy returns the duplicate policy for functions.
func (b *Bridge) FunctionPolicy() Policy {
	return b.functionPolicy
}
