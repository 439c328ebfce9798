package vm

import (
	"github.com/chazu/ember/pkg/container"
)

// RtSet is the payload of a set value. Each member holds one count.
type RtSet struct {
	heap    *Heap
	members *container.HashSet[Value]
}

func newRtSet(h *Heap) *RtSet {
	return &RtSet{heap: h, members: container.NewSet[Value](valueHasher{})}
}

// Kind implements Object.
func (s *RtSet) Kind() Kind { return KindSet }

// References implements Object.
func (s *RtSet) References(dst []Handle) []Handle {
	s.members.Range(func(v Value) bool {
		dst = appendRef(dst, v)
		return true
	})
	return dst
}

func (s *RtSet) dispose() { s.Clear() }

// Len returns the number of members.
func (s *RtSet) Len() int { return s.members.Len() }

// Add inserts v and reports whether it was new.
func (s *RtSet) Add(v Value) bool {
	s.heap.Retain(v)
	old, added := s.members.Add(v)
	if !added {
		s.heap.Release(old)
	}
	return added
}

// Has reports membership.
func (s *RtSet) Has(v Value) bool { return s.members.Has(v) }

// Remove deletes v and reports whether it was present.
func (s *RtSet) Remove(v Value) bool {
	old, ok := s.members.Remove(v)
	if ok {
		s.heap.Release(old)
	}
	return ok
}

// Items returns the members in bucket order.
func (s *RtSet) Items() []Value { return s.members.Items() }

// Clear removes every member.
func (s *RtSet) Clear() {
	s.members.Clear(func(v Value) { s.heap.Release(v) })
}
