package vm

import (
	"github.com/chazu/ember/pkg/container"
)

// scope is a variable table. Each binding holds one count on its value.
type scope struct {
	heap *Heap
	vars *container.HashMap[string, Value]
}

func newScope(h *Heap) *scope {
	return &scope{heap: h, vars: container.NewStringMap[Value]()}
}

func (s *scope) get(name string) (Value, bool) {
	return s.vars.Get(name)
}

func (s *scope) has(name string) bool {
	return s.vars.Has(name)
}

// set binds name to v, replacing any previous binding.
func (s *scope) set(name string, v Value) {
	s.heap.Retain(v)
	if _, old, replaced := s.vars.Put(name, v); replaced {
		s.heap.Release(old)
	}
}

func (s *scope) len() int { return s.vars.Len() }

func (s *scope) each(fn func(name string, v Value)) {
	s.vars.Range(func(k string, v Value) bool {
		fn(k, v)
		return true
	})
}

func (s *scope) names() []string { return s.vars.Keys() }

// clear drops every binding and its count.
func (s *scope) clear() {
	s.vars.Clear(func(_ string, v Value) { s.heap.Release(v) })
}
