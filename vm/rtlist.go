package vm

// RtList is the payload of a list value. Every element slot holds one count
// on the element it contains.
type RtList struct {
	heap  *Heap
	items []Value
}

// Kind implements Object.
func (l *RtList) Kind() Kind { return KindList }

// References implements Object.
func (l *RtList) References(dst []Handle) []Handle {
	for _, v := range l.items {
		dst = appendRef(dst, v)
	}
	return dst
}

func (l *RtList) dispose() { l.Clear() }

// Len returns the number of elements.
func (l *RtList) Len() int { return len(l.items) }

// Append adds v at the end.
func (l *RtList) Append(v Value) {
	l.heap.Retain(v)
	l.items = append(l.items, v)
}

// Get returns the element at i.
func (l *RtList) Get(i int) (Value, bool) {
	if i < 0 || i >= len(l.items) {
		return Undefined, false
	}
	return l.items[i], true
}

// Set replaces the element at i.
func (l *RtList) Set(i int, v Value) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	l.heap.Retain(v)
	old := l.items[i]
	l.items[i] = v
	l.heap.Release(old)
	return true
}

// RemoveAt deletes the element at i and returns it. The returned value has
// lost this list's count; the caller must store or root it before the next
// safepoint.
func (l *RtList) RemoveAt(i int) (Value, bool) {
	if i < 0 || i >= len(l.items) {
		return Undefined, false
	}
	v := l.items[i]
	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1] = Value{}
	l.items = l.items[:len(l.items)-1]
	l.heap.Release(v)
	return v, true
}

// Items returns a copy of the elements.
func (l *RtList) Items() []Value {
	return append([]Value(nil), l.items...)
}

// Clear removes every element.
func (l *RtList) Clear() {
	items := l.items
	l.items = nil
	for _, v := range items {
		l.heap.Release(v)
	}
}
