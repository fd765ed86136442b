package domain

import "strconv"

// Identity is the stable key a host supplies for an instance. Hosts may key
// objects by text (a ref string) or by integer; both forms are comparable
// and usable as map keys. The zero value is the missing identity.
type Identity struct {
	text    string
	num     int64
	numeric bool
}

// TextIdentity returns an identity keyed by s.
func TextIdentity(s string) Identity {
	return Identity{text: s}
}

// NumericIdentity returns an identity keyed by n.
func NumericIdentity(n int64) Identity {
	return Identity{num: n, numeric: true}
}

// IsZero reports whether the identity is missing. An empty text key counts
// as missing.
func (id Identity) IsZero() bool {
	return !id.numeric && id.text == ""
}

// Numeric reports whether the identity is integer keyed.
func (id Identity) Numeric() bool {
	return id.numeric
}

func (id Identity) String() string {
	if id.numeric {
		return "#" + strconv.FormatInt(id.num, 10)
	}
	return id.text
}

// Int returns the integer key of a numeric identity.
func (id Identity) Int() (int64, bool) {
	return id.num, id.numeric
}
