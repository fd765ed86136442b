package service

import "github.com/yndnr/worldsave-go/internal/core/domain"

// ReferenceTable assigns reference ids to identities for the duration of
// one Save. Ids start at 1 and increase in first-sighting order; an
// identity is interned at most once.
type ReferenceTable struct {
	ids  map[domain.Identity]uint32
	next uint32
}

// NewReferenceTable returns an empty table.
func NewReferenceTable() *ReferenceTable {
	return &ReferenceTable{
		ids:  make(map[domain.Identity]uint32),
		next: 1,
	}
}

// Intern returns the reference id for id. first is true when the identity
// was unseen and the caller must encode the body; later calls for the same
// identity return the same ref with first false.
func (t *ReferenceTable) Intern(id domain.Identity) (ref uint32, first bool, err error) {
	if id.IsZero() {
		return 0, false, domain.ErrIdentity.WithDetails("empty identity")
	}
	if ref, ok := t.ids[id]; ok {
		return ref, false, nil
	}
	ref = t.next
	t.next++
	t.ids[id] = ref
	return ref, true, nil
}

// Contains reports whether id has been interned.
func (t *ReferenceTable) Contains(id domain.Identity) bool {
	_, ok := t.ids[id]
	return ok
}

// Lookup returns the reference id of an interned identity.
func (t *ReferenceTable) Lookup(id domain.Identity) (uint32, bool) {
	ref, ok := t.ids[id]
	return ref, ok
}

// Len returns the number of interned identities.
func (t *ReferenceTable) Len() int {
	return len(t.ids)
}
