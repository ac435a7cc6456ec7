// Package i3bar implements the i3bar streaming protocol: the catalog of
// recognized block keys, type-aware value encoding, the out-of-band error
// element, fixed-position command output decoding and the click event stream.
//
// See https://i3wm.org/docs/i3bar-protocol.html for the protocol itself.
package i3bar

// Key is one entry of the known-key table. String reports whether the
// protocol expects the value to be a JSON string.
type Key struct {
	Name   string
	String bool
}

// keys is the known-key table. Index 0 is the sentinel for unknown keys. The
// order matters: fixed-position command output maps line N to keys[N+1].
var keys = [...]Key{
	{"", false}, // unknown key

	// Standard keys
	{"full_text", true},
	{"short_text", true},
	{"color", true},
	{"background", true},
	{"border", true},
	{"min_width", false}, // can also be a number
	{"align", true},
	{"name", true},
	{"instance", true},
	{"urgent", false},
	{"separator", false},
	{"separator_block_width", false},
	{"markup", true},

	// i3-gaps features
	{"border_top", false},
	{"border_bottom", false},
	{"border_left", false},
	{"border_right", false},
}

// IndexOf returns the table index of key, or 0 when the key is unknown.
func IndexOf(key string) int {
	for i := 1; i < len(keys); i++ {
		if keys[i].Name == key {
			return i
		}
	}
	return 0
}

// KeyAt returns the table entry at index i. ok is false for the sentinel and
// for indices past the end of the table.
func KeyAt(i int) (k Key, ok bool) {
	if i <= 0 || i >= len(keys) {
		return Key{}, false
	}
	return keys[i], true
}

// Known reports whether key is part of the protocol.
func Known(key string) bool {
	return IndexOf(key) != 0
}

// Keys returns the known keys in table order, without the sentinel.
func Keys() []Key {
	out := make([]Key, len(keys)-1)
	copy(out, keys[1:])
	return out
}
