package domain

import (
	"errors"
	"testing"
)

func TestKind_StringParse(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Errorf("ParseKind(%q): %v", k.String(), err)
			continue
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
}

func TestKind_Valid(t *testing.T) {
	if KindUnknown.Valid() {
		t.Error("KindUnknown.Valid() = true")
	}
	if !KindTurf.Valid() {
		t.Error("KindTurf.Valid() = false")
	}
	if Kind(250).Valid() {
		t.Error("Kind(250).Valid() = true")
	}
	if got := Kind(250).String(); got != "kind(250)" {
		t.Errorf("Kind(250).String() = %q", got)
	}
}

func TestParseKind_Unknown(t *testing.T) {
	for _, s := range []string{"", "unknown", "bogus"} {
		if _, err := ParseKind(s); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ParseKind(%q) error = %v, want ErrInvalidArgument", s, err)
		}
	}
}

func TestIdentity(t *testing.T) {
	var zero Identity
	if !zero.IsZero() {
		t.Error("zero identity IsZero() = false")
	}
	if !TextIdentity("").IsZero() {
		t.Error("empty text identity IsZero() = false")
	}
	if NumericIdentity(0).IsZero() {
		t.Error("numeric 0 identity IsZero() = true")
	}
	if TextIdentity("7") == NumericIdentity(7) {
		t.Error("text and numeric identities compare equal")
	}
	if got := NumericIdentity(7).String(); got != "#7" {
		t.Errorf("String() = %q, want #7", got)
	}
}
