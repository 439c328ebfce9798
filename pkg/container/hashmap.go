// Package container provides the chained hash map and hash set used by the
// ember runtime. Both are parameterized over a Hasher so callers can key them
// by their own notion of equality (interpreter value equality, plain strings).
package container

import "hash/maphash"

// MinBuckets is the smallest bucket count a map will ever use.
const MinBuckets = 8

// Hasher defines hashing and equality for a key type.
type Hasher[K any] interface {
	Hash(k K) uint64
	Equal(a, b K) bool
}

// StringHasher hashes string keys.
type StringHasher struct{}

var stringSeed = maphash.MakeSeed()

// Hash implements Hasher.
func (StringHasher) Hash(s string) uint64 { return maphash.String(stringSeed, s) }

// Equal implements Hasher.
func (StringHasher) Equal(a, b string) bool { return a == b }

type node[K, V any] struct {
	key   K
	value V
	next  *node[K, V]
}

// HashMap is a hash map with separate chaining.
//
// The bucket array doubles when size reaches buckets + buckets/2 (load factor
// 1.5) and halves when size falls to buckets/2, never going below the
// configured minimum. The gap between the two thresholds keeps a map that
// hovers around one boundary from resizing on every operation.
type HashMap[K, V any] struct {
	hasher     Hasher[K]
	buckets    []*node[K, V]
	size       int
	minBuckets int
}

// New creates an empty map. minBuckets below MinBuckets is raised to it and
// rounded up to a power of two.
func New[K, V any](h Hasher[K], minBuckets int) *HashMap[K, V] {
	n := MinBuckets
	for n < minBuckets {
		n <<= 1
	}
	return &HashMap[K, V]{
		hasher:     h,
		buckets:    make([]*node[K, V], n),
		minBuckets: n,
	}
}

// NewStringMap creates a map keyed by strings.
func NewStringMap[V any]() *HashMap[string, V] {
	return New[string, V](StringHasher{}, MinBuckets)
}

// Len returns the number of entries.
func (m *HashMap[K, V]) Len() int { return m.size }

// Buckets returns the current bucket count.
func (m *HashMap[K, V]) Buckets() int { return len(m.buckets) }

func (m *HashMap[K, V]) index(k K, nb int) int {
	return int(m.hasher.Hash(k) & uint64(nb-1))
}

// Get returns the value stored under k.
func (m *HashMap[K, V]) Get(k K) (V, bool) {
	for n := m.buckets[m.index(k, len(m.buckets))]; n != nil; n = n.next {
		if m.hasher.Equal(n.key, k) {
			return n.value, true
		}
	}
	var zero V
	return zero, false
}

// Has reports whether k is present.
func (m *HashMap[K, V]) Has(k K) bool {
	_, ok := m.Get(k)
	return ok
}

// Put stores v under k. If an equal key was already present its key and value
// are replaced in place and returned with replaced == true.
func (m *HashMap[K, V]) Put(k K, v V) (oldKey K, oldVal V, replaced bool) {
	i := m.index(k, len(m.buckets))
	for n := m.buckets[i]; n != nil; n = n.next {
		if m.hasher.Equal(n.key, k) {
			oldKey, oldVal = n.key, n.value
			n.key, n.value = k, v
			return oldKey, oldVal, true
		}
	}
	m.buckets[i] = &node[K, V]{key: k, value: v, next: m.buckets[i]}
	m.size++
	if nb := len(m.buckets); m.size == nb+nb/2 {
		m.rehash(nb * 2)
	}
	return oldKey, oldVal, false
}

// Delete removes k, returning the stored key and value.
func (m *HashMap[K, V]) Delete(k K) (K, V, bool) {
	i := m.index(k, len(m.buckets))
	var prev *node[K, V]
	for n := m.buckets[i]; n != nil; prev, n = n, n.next {
		if !m.hasher.Equal(n.key, k) {
			continue
		}
		if prev == nil {
			m.buckets[i] = n.next
		} else {
			prev.next = n.next
		}
		m.size--
		if nb := len(m.buckets); m.size == nb/2 && nb/2 >= m.minBuckets {
			m.rehash(nb / 2)
		}
		return n.key, n.value, true
	}
	var zk K
	var zv V
	return zk, zv, false
}

func (m *HashMap[K, V]) rehash(nb int) {
	buckets := make([]*node[K, V], nb)
	for _, head := range m.buckets {
		for n := head; n != nil; {
			next := n.next
			i := m.index(n.key, nb)
			n.next = buckets[i]
			buckets[i] = n
			n = next
		}
	}
	m.buckets = buckets
}

// Range calls fn for each entry until fn returns false. The map must not be
// mutated during iteration.
func (m *HashMap[K, V]) Range(fn func(k K, v V) bool) {
	for _, head := range m.buckets {
		for n := head; n != nil; n = n.next {
			if !fn(n.key, n.value) {
				return
			}
		}
	}
}

// Keys returns all keys in bucket order.
func (m *HashMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.size)
	m.Range(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Values returns all values in bucket order.
func (m *HashMap[K, V]) Values() []V {
	vals := make([]V, 0, m.size)
	m.Range(func(_ K, v V) bool {
		vals = append(vals, v)
		return true
	})
	return vals
}

// Entry is a key/value pair returned by Entries.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Entries returns all pairs in bucket order.
func (m *HashMap[K, V]) Entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, m.size)
	m.Range(func(k K, v V) bool {
		out = append(out, Entry[K, V]{k, v})
		return true
	})
	return out
}

// Clear removes every entry, calling release (if non-nil) for each one, and
// shrinks the bucket array back to the minimum.
func (m *HashMap[K, V]) Clear(release func(k K, v V)) {
	old := m.buckets
	m.buckets = make([]*node[K, V], m.minBuckets)
	m.size = 0
	if release == nil {
		return
	}
	for _, head := range old {
		for n := head; n != nil; n = n.next {
			release(n.key, n.value)
		}
	}
}
