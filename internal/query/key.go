package query

import "strings"

// Key identifies a cached query, e.g. Key{"events", "1", "6"}.
// The first part is the key class that refresh policies and
// invalidations are usually expressed against.
type Key []string

// K builds a Key from parts.
func K(parts ...string) Key {
	return Key(parts)
}

// Class returns the first part of k, or "" for an empty key.
func (k Key) Class() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix reports whether p matches the leading parts of k.
// Matching is per part: Key{"event","1"} does not have prefix Key{"events"}.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// Equal reports whether k and o have the same parts.
func (k Key) Equal(o Key) bool {
	return len(k) == len(o) && k.HasPrefix(o)
}

// String renders k for display and logs.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// id is the map key of k. Parts may contain '/', so a control
// character separates them.
func (k Key) id() string {
	return strings.Join(k, "\x1f")
}
