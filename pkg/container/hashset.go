package container

// HashSet is a set built on HashMap and shares its resize policy.
type HashSet[K any] struct {
	m *HashMap[K, struct{}]
}

// NewSet creates an empty set.
func NewSet[K any](h Hasher[K]) *HashSet[K] {
	return &HashSet[K]{m: New[K, struct{}](h, MinBuckets)}
}

// NewStringSet creates a set of strings.
func NewStringSet() *HashSet[string] {
	return NewSet[string](StringHasher{})
}

// Add inserts k and reports whether it was not already present. An equal
// element already in the set is replaced by k and returned as old.
func (s *HashSet[K]) Add(k K) (old K, added bool) {
	old, _, replaced := s.m.Put(k, struct{}{})
	return old, !replaced
}

// Has reports whether k is in the set.
func (s *HashSet[K]) Has(k K) bool { return s.m.Has(k) }

// Remove deletes k, returning the stored element.
func (s *HashSet[K]) Remove(k K) (K, bool) {
	old, _, ok := s.m.Delete(k)
	return old, ok
}

// Len returns the number of elements.
func (s *HashSet[K]) Len() int { return s.m.Len() }

// Buckets returns the current bucket count.
func (s *HashSet[K]) Buckets() int { return s.m.Buckets() }

// Items returns the elements in bucket order.
func (s *HashSet[K]) Items() []K { return s.m.Keys() }

// Range calls fn for each element until fn returns false.
func (s *HashSet[K]) Range(fn func(k K) bool) {
	s.m.Range(func(k K, _ struct{}) bool { return fn(k) })
}

// Clear empties the set, calling release (if non-nil) for each element.
func (s *HashSet[K]) Clear(release func(k K)) {
	if release == nil {
		s.m.Clear(nil)
		return
	}
	s.m.Clear(func(k K, _ struct{}) { release(k) })
}
