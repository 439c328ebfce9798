package vm

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Frames
// ---------------------------------------------------------------------------

// frame is the execution state of one function invocation. Frame 0 runs
// top-level code and its variable table is the global scope.
type frame struct {
	fn   Value // function being executed; undefined for frame 0
	user *UserFunction
	code *ByteCodeList
	pc   int
	base int // operand stack height below the callee slot
	vars *scope
}

// Unwind records one transfer of control to a catch site.
type Unwind struct {
	Handler      Handler
	Name         string // exception name
	FramesPopped int
	ValuesPopped int
}

// ---------------------------------------------------------------------------
// Interpreter
// ---------------------------------------------------------------------------

// Interpreter executes ByteCodeLists on an operand stack.
type Interpreter struct {
	rt       *Runtime
	stack    []Value
	frames   []*frame
	handlers HandlerStack
	globals  *scope

	result     Value // last value handed back to Go
	lastUnwind *Unwind
	log        commonlog.Logger
}

// NewInterpreter creates an interpreter on rt and registers it as a root set.
func NewInterpreter(rt *Runtime) *Interpreter {
	i := &Interpreter{
		rt:      rt,
		stack:   make([]Value, 0, rt.opts.StackSize),
		globals: newScope(rt.Heap),
		log:     rt.log,
	}
	i.frames = []*frame{{vars: i.globals}}
	rt.Heap.AddRoots(i)
	return i
}

// Runtime returns the interpreter's runtime.
func (i *Interpreter) Runtime() *Runtime { return i.rt }

// Close drops the globals and unregisters the interpreter's roots.
func (i *Interpreter) Close() {
	i.resetState()
	i.globals.clear()
	i.result = Undefined
	i.rt.Heap.RemoveRoots(i)
}

// CallDepth returns the number of active frames, including the top level.
func (i *Interpreter) CallDepth() int { return len(i.frames) }

// StackDepth returns the operand stack height.
func (i *Interpreter) StackDepth() int { return len(i.stack) }

// Handlers returns the number of installed exception handlers.
func (i *Interpreter) Handlers() int { return i.handlers.Len() }

// LastUnwind returns the most recent transfer to a catch site, or nil.
func (i *Interpreter) LastUnwind() *Unwind { return i.lastUnwind }

// Global returns the value of a global variable.
func (i *Interpreter) Global(name string) (Value, bool) {
	return i.globals.get(name)
}

// SetGlobal binds a global variable.
func (i *Interpreter) SetGlobal(name string, v Value) {
	i.globals.set(name, v)
}

// VisitRoots implements RootSet: the operand stack, every frame's function
// and variable table, and the last result returned to Go.
func (i *Interpreter) VisitRoots(visit func(Value)) {
	for _, v := range i.stack {
		visit(v)
	}
	for _, f := range i.frames {
		visit(f.fn)
		f.vars.each(func(_ string, v Value) { visit(v) })
	}
	visit(i.result)
}

// ---------------------------------------------------------------------------
// Stack operations
// ---------------------------------------------------------------------------

func (i *Interpreter) push(v Value) {
	i.stack = append(i.stack, v)
}

func (i *Interpreter) pop() Value {
	n := len(i.stack) - 1
	if n < 0 {
		panic("stack underflow")
	}
	v := i.stack[n]
	i.stack[n] = Value{}
	i.stack = i.stack[:n]
	return v
}

func (i *Interpreter) popN(n int) []Value {
	if len(i.stack) < n {
		panic("stack underflow")
	}
	out := make([]Value, n)
	copy(out, i.stack[len(i.stack)-n:])
	i.truncate(len(i.stack) - n)
	return out
}

func (i *Interpreter) truncate(depth int) {
	for j := depth; j < len(i.stack); j++ {
		i.stack[j] = Value{}
	}
	i.stack = i.stack[:depth]
}

func (i *Interpreter) top() *frame { return i.frames[len(i.frames)-1] }

// popFrame removes the innermost frame, releasing its variables and any
// handlers it installed.
func (i *Interpreter) popFrame() *frame {
	depth := len(i.frames)
	f := i.frames[depth-1]
	i.handlers.DiscardFrom(depth)
	i.frames[depth-1] = nil
	i.frames = i.frames[:depth-1]
	f.vars.clear()
	return f
}

// resetState returns to an idle top level after an unhandled exception.
func (i *Interpreter) resetState() {
	for len(i.frames) > 1 {
		i.popFrame()
	}
	i.truncate(0)
	i.handlers.Reset()
	f := i.frames[0]
	f.code, f.pc = nil, 0
}

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// Run executes top-level code in the global frame. The result is the
// value returned by a top-level return, or the value left on the stack by an
// expression program, or undefined. An exception no handler catches ends the
// program with an *UnhandledError.
func (i *Interpreter) Run(code *ByteCodeList) (result Value, err error) {
	if len(i.frames) != 1 || i.frames[0].code != nil {
		return Undefined, errors.New("interpreter is already running")
	}
	f := i.frames[0]
	f.code, f.pc = code, 0

	result, err = i.execute(1)
	if err != nil {
		i.resetState()
		var raised *RaisedError
		if errors.As(err, &raised) {
			i.log.Errorf("unhandled exception %s: %s", raised.Name, raised.Message)
			return Undefined, &UnhandledError{Name: raised.Name, Message: raised.Message}
		}
		return Undefined, err
	}
	return result, nil
}

// Call invokes a function value with args. It may be used from Go while no
// program is running, and from builtins while one is.
func (i *Interpreter) Call(fn Value, args ...Value) (Value, error) {
	depth, height := len(i.frames), len(i.stack)
	i.push(fn)
	for _, a := range args {
		i.push(a)
	}
	result, err := i.callAt(len(args))
	if err == nil && len(i.frames) > depth {
		result, err = i.execute(depth + 1)
	}
	if err != nil {
		for len(i.frames) > depth {
			i.popFrame()
		}
		i.truncate(height)
		return Undefined, err
	}
	if len(i.stack) > height {
		result = i.pop()
	}
	i.result = result
	return result, nil
}

// ---------------------------------------------------------------------------
// Main interpreter loop
// ---------------------------------------------------------------------------

// execute runs until the frame at depth stop returns, and returns its
// result. Frame 0 finishes on EXIT, on a top-level return or by running off
// the end of its code. Raised errors unwind to handlers installed at depth
// stop or deeper; any other raise is returned to the caller.
func (i *Interpreter) execute(stop int) (Value, error) {
	for {
		i.rt.Heap.Safepoint()

		f := i.top()
		if f.pc >= f.code.Len() {
			if done, v := i.leave(Undefined, stop, true); done {
				return v, nil
			}
			continue
		}
		bc := f.code.At(f.pc)
		f.pc++

		done, v, err := i.step(f, bc, stop)
		if err != nil {
			raised := i.rt.asRaised(err)
			if !i.unwind(raised, stop) {
				return Undefined, raised
			}
			continue
		}
		if done {
			return v, nil
		}
	}
}

// leave returns from the innermost frame with v. fellOff is set when the
// frame ran out of instructions. It reports whether execute should stop.
func (i *Interpreter) leave(v Value, stop int, fellOff bool) (bool, Value) {
	if len(i.frames) == 1 {
		if fellOff && len(i.stack) > 0 {
			v = i.stack[len(i.stack)-1]
		}
		i.finishTopLevel(v)
		return true, v
	}
	f := i.popFrame()
	i.truncate(f.base)
	if len(i.frames) < stop {
		i.result = v
		return true, v
	}
	i.push(v)
	return false, Undefined
}

func (i *Interpreter) finishTopLevel(v Value) {
	i.result = v
	i.truncate(0)
	i.handlers.Reset()
	f := i.frames[0]
	f.code, f.pc = nil, 0
}

// step executes one instruction.
func (i *Interpreter) step(f *frame, bc ByteCode, stop int) (bool, Value, error) {
	rt := i.rt
	switch bc.Op {
	case OpNOP:

	case OpPOP:
		i.pop()

	case OpConst:
		i.push(bc.Const)

	// --- Variables ---
	case OpLoadVar:
		v, ok := i.lookup(f, bc.Name)
		if !ok {
			return false, Undefined, rt.Raise(UndefinedVariable, "%s is not defined", bc.Name)
		}
		i.push(v)

	case OpStoreVar:
		i.store(f, bc.Name, i.pop())

	case OpCreateVar:
		f.vars.set(bc.Name, i.pop())

	// --- Attributes and indexing ---
	case OpLoadAttr:
		v, err := rt.LoadAttr(i.pop(), bc.Name)
		if err != nil {
			return false, Undefined, err
		}
		i.push(v)

	case OpStoreAttr:
		val := i.pop()
		obj := i.pop()
		if err := rt.StoreAttr(obj, bc.Name, val); err != nil {
			return false, Undefined, err
		}

	case OpLoadIndex:
		idx := i.pop()
		obj := i.pop()
		v, err := rt.Index(obj, idx)
		if err != nil {
			return false, Undefined, err
		}
		i.push(v)

	case OpStoreIndex:
		val := i.pop()
		idx := i.pop()
		obj := i.pop()
		if err := rt.StoreIndex(obj, idx, val); err != nil {
			return false, Undefined, err
		}

	// --- Containers ---
	case OpMakeList:
		items := i.popN(bc.Arg)
		i.push(rt.NewList(items...))

	case OpMakeSet:
		items := i.popN(bc.Arg)
		i.push(rt.NewSet(items...))

	case OpMakeMap:
		kv := i.popN(2 * bc.Arg)
		v := rt.NewMap()
		m, _ := rt.Map(v)
		for j := 0; j < len(kv); j += 2 {
			m.Put(kv[j], kv[j+1])
		}
		i.push(v)

	case OpMakeObject:
		v := rt.NewMap()
		m, _ := rt.Map(v)
		f.vars.each(func(name string, val Value) {
			m.Put(FromString(name), val)
		})
		i.push(v)

	// --- Functions ---
	case OpCall:
		if _, err := i.callAt(bc.Arg); err != nil {
			return false, Undefined, err
		}

	case OpMakeClosure:
		i.push(i.makeClosure(f, bc.Proto))

	case OpReturn:
		done, v := i.leave(i.pop(), stop, false)
		return done, v, nil

	case OpReturnNone:
		done, v := i.leave(Undefined, stop, false)
		return done, v, nil

	case OpExit:
		for len(i.frames) > 1 {
			i.popFrame()
		}
		i.finishTopLevel(Undefined)
		return true, Undefined, nil

	// --- Control flow ---
	case OpJump:
		f.pc = bc.Arg

	case OpJumpRel:
		f.pc += bc.Arg

	case OpJumpIfFalse:
		if !rt.Truthy(i.pop()) {
			f.pc += bc.Arg
		}

	// --- Exceptions ---
	case OpTry:
		i.handlers.Push(Handler{
			CallDepth:  len(i.frames),
			StackDepth: len(i.stack),
			CatchPC:    f.pc + bc.Arg,
		})

	case OpEndTry:
		i.handlers.Pop()

	case OpRaise:
		return false, Undefined, rt.Throw(i.pop())

	case OpNot:
		i.push(rt.Not(i.pop()))

	default:
		if bc.Op.IsBinary() {
			b := i.pop()
			a := i.pop()
			v, err := rt.BinaryOp(bc.Op, a, b)
			if err != nil {
				return false, Undefined, err
			}
			i.push(v)
			break
		}
		return false, Undefined, fmt.Errorf("invalid instruction %s at %d", bc.Op, f.pc-1)
	}
	return false, Undefined, nil
}

// unwind transfers control to the innermost handler, if it belongs to this
// execute call: frames above the handler's depth are popped, the operand
// stack is cut back to its recorded height, the raised value is pushed and
// execution resumes at the catch site.
func (i *Interpreter) unwind(r *RaisedError, stop int) bool {
	h, ok := i.handlers.Top()
	if !ok || h.CallDepth < stop {
		return false
	}
	i.handlers.Pop()

	rec := &Unwind{Handler: h, Name: r.Name, ValuesPopped: len(i.stack) - h.StackDepth}
	for len(i.frames) > h.CallDepth {
		i.popFrame()
		rec.FramesPopped++
	}
	i.truncate(h.StackDepth)
	i.push(r.Value)
	i.top().pc = h.CatchPC
	i.lastUnwind = rec
	i.log.Debugf("caught %s: popped %d frames", r.Name, rec.FramesPopped)
	return true
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// callAt calls the function sitting below argc arguments on the stack. A
// builtin runs to completion and its result replaces the call's slots; a user
// function gets a new frame, and its result is pushed when it returns.
func (i *Interpreter) callAt(argc int) (Value, error) {
	rt := i.rt
	base := len(i.stack) - argc - 1
	callee := i.stack[base]

	fn, ok := rt.Function(callee)
	if !ok {
		return Undefined, rt.Raise(TypeMismatch, "%s is not callable", callee.Kind())
	}

	switch c := fn.Callable.(type) {
	case *Builtin:
		if c.Arity != Variadic && c.Arity != argc {
			return Undefined, rt.Raise(ArityMismatch, "%s expects %d arguments, got %d", c.Name, c.Arity, argc)
		}
		args := append([]Value(nil), i.stack[base+1:]...)
		v, err := c.Fn(rt, args)
		if err != nil {
			return Undefined, err
		}
		i.truncate(base)
		i.push(v)
		return v, nil

	case *UserFunction:
		p := c.Proto
		if len(p.Params) != argc {
			return Undefined, rt.Raise(ArityMismatch, "%s expects %d arguments, got %d", p.Name, len(p.Params), argc)
		}
		if len(i.frames) >= rt.opts.MaxCallDepth {
			return Undefined, rt.Raise(StackOverflow, "maximum call depth %d exceeded in %s", rt.opts.MaxCallDepth, p.Name)
		}
		nf := &frame{fn: callee, user: c, code: p.Body, base: base, vars: newScope(rt.Heap)}
		for j, name := range p.Params {
			nf.vars.set(name, i.stack[base+1+j])
		}
		i.frames = append(i.frames, nf)
		return Undefined, nil
	}
	return Undefined, rt.Raise(TypeMismatch, "%s is not callable", callee.Kind())
}

// makeClosure creates a function over p, capturing the current value of
// each closure name. A name equal to the function's own name captures the
// new closure itself. Names with no visible binding stay unbound and are
// looked up as globals when the function runs.
func (i *Interpreter) makeClosure(f *frame, p *FunctionProto) Value {
	u := &UserFunction{Proto: p, Captures: make([]Capture, len(p.ClosureNames))}
	fv := i.rt.NewFunction(u)
	for j, name := range p.ClosureNames {
		c := Capture{Name: name}
		if name == p.Name && p.Name != "" {
			c.Value, c.Bound = fv, true
		} else if v, ok := i.capturable(f, name); ok {
			c.Value, c.Bound = v, true
		}
		if c.Bound {
			i.rt.Heap.Retain(c.Value)
		}
		u.Captures[j] = c
	}
	return fv
}

func (i *Interpreter) capturable(f *frame, name string) (Value, bool) {
	if v, ok := f.vars.get(name); ok {
		return v, true
	}
	if f.user != nil {
		if c, ok := f.user.capture(name); ok {
			return c.Value, true
		}
	}
	return i.globals.get(name)
}

// ---------------------------------------------------------------------------
// Variable resolution
// ---------------------------------------------------------------------------

// lookup resolves name: frame variables, then closure captures, then
// globals, then builtins.
func (i *Interpreter) lookup(f *frame, name string) (Value, bool) {
	if v, ok := i.capturable(f, name); ok {
		return v, true
	}
	return i.rt.Builtin(name)
}

// store assigns to the nearest existing binding of name, or creates a
// variable in the current frame.
func (i *Interpreter) store(f *frame, name string, v Value) {
	if f.vars.has(name) {
		f.vars.set(name, v)
		return
	}
	if f.user != nil {
		if c, ok := f.user.capture(name); ok {
			i.rt.Heap.Retain(v)
			old := c.Value
			c.Value = v
			i.rt.Heap.Release(old)
			return
		}
	}
	if i.globals.has(name) {
		i.globals.set(name, v)
		return
	}
	f.vars.set(name, v)
}
