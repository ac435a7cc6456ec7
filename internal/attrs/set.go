// Package attrs provides the attribute set shared by blocks and click events:
// a string map with unique keys, overwrite-on-set and stable insertion order.
package attrs

// Attr is one key/value pair of a Set. Null marks a value that is present but
// missing (JSON null); Value is empty in that case.
type Attr struct {
	Key   string
	Value string
	Null  bool
}

// Set is an insertion-ordered string map. Overwriting a key keeps its
// original position. The zero value is not usable; call New.
type Set struct {
	index map[string]int
	attrs []Attr
}

// New returns an empty Set.
func New() *Set {
	return &Set{index: make(map[string]int)}
}

// Set stores value under key, replacing any previous value.
func (s *Set) Set(key, value string) {
	s.put(Attr{Key: key, Value: value})
}

// SetNull stores a null value under key.
func (s *Set) SetNull(key string) {
	s.put(Attr{Key: key, Null: true})
}

func (s *Set) put(a Attr) {
	if i, ok := s.index[a.Key]; ok {
		s.attrs[i] = a
		return
	}
	s.index[a.Key] = len(s.attrs)
	s.attrs = append(s.attrs, a)
}

// Get returns the value stored under key. ok is false when the key is absent
// or its value is null.
func (s *Set) Get(key string) (value string, ok bool) {
	i, found := s.index[key]
	if !found || s.attrs[i].Null {
		return "", false
	}
	return s.attrs[i].Value, true
}

// Lookup returns the full attribute stored under key.
func (s *Set) Lookup(key string) (Attr, bool) {
	i, ok := s.index[key]
	if !ok {
		return Attr{}, false
	}
	return s.attrs[i], true
}

// Has reports whether key is present, null or not.
func (s *Set) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Delete removes key. The relative order of the remaining keys is kept.
func (s *Set) Delete(key string) {
	i, ok := s.index[key]
	if !ok {
		return
	}
	s.attrs = append(s.attrs[:i], s.attrs[i+1:]...)
	delete(s.index, key)
	for j := i; j < len(s.attrs); j++ {
		s.index[s.attrs[j].Key] = j
	}
}

// Len returns the number of keys.
func (s *Set) Len() int {
	return len(s.attrs)
}

// Keys returns the keys in insertion order.
func (s *Set) Keys() []string {
	keys := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		keys[i] = a.Key
	}
	return keys
}

// Each calls fn for every attribute in insertion order and stops at the
// first error, which it returns.
func (s *Set) Each(fn func(Attr) error) error {
	for _, a := range s.attrs {
		if err := fn(a); err != nil {
			return err
		}
	}
	return nil
}

// Merge copies every attribute of other into s with overwrite semantics.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	for _, a := range other.attrs {
		s.put(a)
	}
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	c := New()
	c.Merge(s)
	return c
}

// Clear removes every key, leaving s ready for reuse.
func (s *Set) Clear() {
	clear(s.index)
	s.attrs = s.attrs[:0]
}
