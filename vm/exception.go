package vm

// ---------------------------------------------------------------------------
// Exception handler stack
// ---------------------------------------------------------------------------

// Handler is an installed try region: the call-stack depth and operand-stack
// height when it was entered, and the instruction to resume at in the frame
// at CallDepth.
type Handler struct {
	CallDepth  int
	StackDepth int
	CatchPC    int
}

// HandlerStack holds the active handlers, innermost last.
type HandlerStack struct {
	handlers []Handler
}

// Push installs a handler.
func (s *HandlerStack) Push(h Handler) {
	s.handlers = append(s.handlers, h)
}

// Pop removes and returns the innermost handler.
func (s *HandlerStack) Pop() (Handler, bool) {
	n := len(s.handlers)
	if n == 0 {
		return Handler{}, false
	}
	h := s.handlers[n-1]
	s.handlers = s.handlers[:n-1]
	return h, true
}

// Top returns the innermost handler without removing it.
func (s *HandlerStack) Top() (Handler, bool) {
	n := len(s.handlers)
	if n == 0 {
		return Handler{}, false
	}
	return s.handlers[n-1], true
}

// Len returns the number of installed handlers.
func (s *HandlerStack) Len() int { return len(s.handlers) }

// DiscardFrom drops every handler installed at callDepth or deeper. Called
// when frames return out of their protected regions.
func (s *HandlerStack) DiscardFrom(callDepth int) {
	n := len(s.handlers)
	for n > 0 && s.handlers[n-1].CallDepth >= callDepth {
		n--
	}
	s.handlers = s.handlers[:n]
}

// Reset removes all handlers.
func (s *HandlerStack) Reset() { s.handlers = s.handlers[:0] }
