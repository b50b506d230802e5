// Package types defines the closed set of primitive type kinds shared by the
// host engine and every embedded runtime.
package types

import (
	"strings"

	"github.com/wippyai/loader-bridge/errors"
)

// Kind is a primitive type kind. Its numeric value is the wire encoding used
// at the host boundary and must not change.
type Kind uint8

const (
	KindBool Kind = iota
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindBuffer
	KindArray
	KindMap
	KindPointer
	KindFuture
	KindFunction
	KindNull
	KindClass
	KindObject

	kindCount
)

var kindNames = [...]string{
	KindBool:     "bool",
	KindChar:     "char",
	KindShort:    "short",
	KindInt:      "int",
	KindLong:     "long",
	KindFloat:    "float",
	KindDouble:   "double",
	KindString:   "string",
	KindBuffer:   "buffer",
	KindArray:    "array",
	KindMap:      "map",
	KindPointer:  "ptr",
	KindFuture:   "future",
	KindFunction: "function",
	KindNull:     "null",
	KindClass:    "class",
	KindObject:   "object",
}

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return "unknown"
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	return k < kindCount
}

// ID returns the wire encoding of k.
func (k Kind) ID() int32 {
	return int32(k)
}

// IsPrimitive reports whether values of k are scalars.
func (k Kind) IsPrimitive() bool {
	return k <= KindDouble
}

// IsComposite reports whether values of k hold other values.
func (k Kind) IsComposite() bool {
	switch k {
	case KindArray, KindMap, KindClass, KindObject:
		return true
	default:
		return false
	}
}

// FromID decodes a wire kind. Values outside 0..16 are rejected.
func FromID(id int32) (Kind, error) {
	if id < 0 || id >= int32(kindCount) {
		return 0, errors.InvalidKind(errors.PhaseDefine, int64(id))
	}
	return Kind(id), nil
}

// Parse decodes a kind name as written in manifests. Matching is case
// insensitive and accepts "pointer" as well as "ptr".
func Parse(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "pointer" {
		return KindPointer, nil
	}
	for k, s := range kindNames {
		if s == n {
			return Kind(k), nil
		}
	}
	return 0, errors.New(errors.PhaseDefine, errors.KindInvalidKind).
		Name(name).
		Detail("unknown type kind").
		Build()
}

// All returns every kind in wire order.
func All() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
