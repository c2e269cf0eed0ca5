package randutil

import (
	"testing"
)

func TestUint64n(t *testing.T) {
	expect := Uint64n()

	actual := Uint64n()

	if expect == actual {
		t.Errorf("actual %v, expect %v", actual, expect)
	}
}

func TestStringN(t *testing.T) {
	s := StringN(8)

	if len(s) != 8 {
		t.Errorf("length %d, expect 8", len(s))
	}

	if s == StringN(8) {
		t.Errorf("two random strings matched: %v", s)
	}
}
