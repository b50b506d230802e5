package types

import (
	"testing"

	"github.com/wippyai/loader-bridge/errors"
)

func TestKindWireEncoding(t *testing.T) {
	want := map[Kind]int32{
		KindBool: 0, KindChar: 1, KindShort: 2, KindInt: 3, KindLong: 4,
		KindFloat: 5, KindDouble: 6, KindString: 7, KindBuffer: 8, KindArray: 9,
		KindMap: 10, KindPointer: 11, KindFuture: 12, KindFunction: 13,
		KindNull: 14, KindClass: 15, KindObject: 16,
	}

	if len(All()) != 17 {
		t.Fatalf("All() has %d kinds, want 17", len(All()))
	}
	for k, id := range want {
		if k.ID() != id {
			t.Errorf("%s.ID() = %d, want %d", k, k.ID(), id)
		}
		got, err := FromID(id)
		if err != nil || got != k {
			t.Errorf("FromID(%d) = %v, %v; want %v", id, got, err, k)
		}
	}
}

func TestFromIDRejectsOutOfRange(t *testing.T) {
	for _, id := range []int32{-1, 17, 255, 1 << 20} {
		_, err := FromID(id)
		if !errors.IsKind(err, errors.KindInvalidKind) {
			t.Errorf("FromID(%d) err = %v, want invalid_kind", id, err)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"int", KindInt, true},
		{"Int", KindInt, true},
		{" double ", KindDouble, true},
		{"ptr", KindPointer, true},
		{"pointer", KindPointer, true},
		{"object", KindObject, true},
		{"integer", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("Parse(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKindClassification(t *testing.T) {
	if !KindLong.IsPrimitive() || KindString.IsPrimitive() {
		t.Error("IsPrimitive classification wrong")
	}
	if !KindMap.IsComposite() || KindFunction.IsComposite() {
		t.Error("IsComposite classification wrong")
	}
	if Kind(17).Valid() || Kind(17).String() != "unknown" {
		t.Error("Kind(17) must be invalid")
	}
}
