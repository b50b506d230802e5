// Package cstring converts names between Go strings and the host's
// null-terminated byte representation.
//
// Go strings may contain NUL bytes; host names may not. Every name that
// crosses the boundary goes through New, which reports an embedded NUL as a
// recoverable conversion error instead of truncating the name.
package cstring

import (
	"bytes"
	"fmt"

	"github.com/wippyai/loader-bridge/errors"
)

// CString is a name in host representation: the name's bytes followed by a
// single terminating NUL. The zero value is not a valid CString.
type CString []byte

// NulError reports the offset of an embedded NUL byte.
type NulError struct {
	Offset int
}

func (e *NulError) Error() string {
	return fmt.Sprintf("embedded NUL byte at offset %d", e.Offset)
}

// New converts s to host representation.
func New(s string) (CString, error) {
	if i := indexNul(s); i >= 0 {
		return nil, &NulError{Offset: i}
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return CString(b), nil
}

// Convert is New with the failure reported as a KindConversion error for
// the given phase and field path.
func Convert(phase errors.Phase, path []string, s string) (CString, error) {
	c, err := New(s)
	if err != nil {
		return nil, errors.Conversion(phase, path, s, err.(*NulError).Offset)
	}
	return c, nil
}

// FromBytes decodes a host name, stopping at the first NUL. It fails if b
// has no terminator.
func FromBytes(b []byte) (string, error) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", errors.InvalidData(errors.PhaseConvert, nil, "name is not NUL-terminated")
	}
	return string(b[:i]), nil
}

// String returns the name without its terminator.
func (c CString) String() string {
	if len(c) == 0 {
		return ""
	}
	return string(c[:len(c)-1])
}

// Bytes returns the terminated representation.
func (c CString) Bytes() []byte {
	return c
}

// Valid reports whether c is terminated and has no interior NUL.
func (c CString) Valid() bool {
	return len(c) > 0 && bytes.IndexByte(c, 0) == len(c)-1
}

func indexNul(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return i
		}
	}
	return -1
}
