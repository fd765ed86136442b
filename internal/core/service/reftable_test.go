package service

import (
	"errors"
	"testing"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

func TestReferenceTable_Intern(t *testing.T) {
	rt := NewReferenceTable()

	a := domain.TextIdentity("a")
	b := domain.NumericIdentity(7)

	ref, first, err := rt.Intern(a)
	if err != nil {
		t.Fatalf("Intern(a): %v", err)
	}
	if ref != 1 || !first {
		t.Errorf("Intern(a) = %d, %v, want 1, true", ref, first)
	}

	ref, first, _ = rt.Intern(b)
	if ref != 2 || !first {
		t.Errorf("Intern(b) = %d, %v, want 2, true", ref, first)
	}

	ref, first, _ = rt.Intern(a)
	if ref != 1 || first {
		t.Errorf("Intern(a) again = %d, %v, want 1, false", ref, first)
	}

	if rt.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rt.Len())
	}
	if !rt.Contains(b) {
		t.Error("Contains(b) = false, want true")
	}
	if got, ok := rt.Lookup(b); !ok || got != 2 {
		t.Errorf("Lookup(b) = %d, %v, want 2, true", got, ok)
	}
	if _, ok := rt.Lookup(domain.TextIdentity("missing")); ok {
		t.Error("Lookup(missing) found an id")
	}
}

func TestReferenceTable_TextAndNumericDistinct(t *testing.T) {
	rt := NewReferenceTable()
	r1, _, _ := rt.Intern(domain.TextIdentity("5"))
	r2, _, _ := rt.Intern(domain.NumericIdentity(5))
	if r1 == r2 {
		t.Errorf("text and numeric identity share ref %d", r1)
	}
}

func TestReferenceTable_ZeroIdentity(t *testing.T) {
	rt := NewReferenceTable()
	_, _, err := rt.Intern(domain.Identity{})
	if !errors.Is(err, domain.ErrIdentity) {
		t.Errorf("Intern(zero) error = %v, want ErrIdentity", err)
	}
	if rt.Len() != 0 {
		t.Errorf("Len() = %d, want 0", rt.Len())
	}
}
