package vm

import (
	"github.com/chazu/ember/pkg/container"
)

// RtMap is the payload of a map value: a chained hash map keyed by script
// equality. Each entry holds one count on its key and one on its value. The
// map never frees what it holds; it only adjusts counts and leaves the
// decision to the heap.
type RtMap struct {
	heap    *Heap
	entries *container.HashMap[Value, Value]
}

func newRtMap(h *Heap) *RtMap {
	return &RtMap{heap: h, entries: container.New[Value, Value](valueHasher{}, container.MinBuckets)}
}

// Kind implements Object.
func (m *RtMap) Kind() Kind { return KindMap }

// References implements Object.
func (m *RtMap) References(dst []Handle) []Handle {
	m.entries.Range(func(k, v Value) bool {
		dst = appendRef(dst, k)
		dst = appendRef(dst, v)
		return true
	})
	return dst
}

func (m *RtMap) dispose() { m.Clear() }

// Len returns the number of entries.
func (m *RtMap) Len() int { return m.entries.Len() }

// Buckets returns the current bucket count.
func (m *RtMap) Buckets() int { return m.entries.Buckets() }

// Put stores v under k. A duplicate key is replaced in place: the old key
// and value lose their counts, the new ones gain one.
func (m *RtMap) Put(k, v Value) {
	m.heap.Retain(k)
	m.heap.Retain(v)
	if oldK, oldV, replaced := m.entries.Put(k, v); replaced {
		m.heap.Release(oldK)
		m.heap.Release(oldV)
	}
}

// Get returns the value stored under k.
func (m *RtMap) Get(k Value) (Value, bool) {
	return m.entries.Get(k)
}

// Has reports whether k is present.
func (m *RtMap) Has(k Value) bool { return m.entries.Has(k) }

// Remove deletes k and reports whether it was present.
func (m *RtMap) Remove(k Value) bool {
	oldK, oldV, ok := m.entries.Delete(k)
	if ok {
		m.heap.Release(oldK)
		m.heap.Release(oldV)
	}
	return ok
}

// Keys returns the keys in bucket order.
func (m *RtMap) Keys() []Value { return m.entries.Keys() }

// Values returns the values in bucket order.
func (m *RtMap) Values() []Value { return m.entries.Values() }

// Pairs returns the entries in bucket order.
func (m *RtMap) Pairs() []container.Entry[Value, Value] { return m.entries.Entries() }

// Clear removes every entry.
func (m *RtMap) Clear() {
	m.entries.Clear(func(k, v Value) {
		m.heap.Release(k)
		m.heap.Release(v)
	})
}
