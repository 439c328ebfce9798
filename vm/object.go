package vm

// ---------------------------------------------------------------------------
// Heap objects
// ---------------------------------------------------------------------------

// Object is a payload stored in the heap arena.
//
// References appends the handles of every heap value the object directly
// holds. It is computed from the object's contents, so the collector's edge
// set always matches what the object actually contains.
type Object interface {
	Kind() Kind
	References(dst []Handle) []Handle
}

// disposer is implemented by objects that hold counted references. The heap
// calls dispose exactly once, after the object has left the registry.
type disposer interface {
	dispose()
}

// appendRef appends v's handle if v is a heap value.
func appendRef(dst []Handle, v Value) []Handle {
	if v.IsHeap() {
		return append(dst, v.ref)
	}
	return dst
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

// Variadic is the Arity of a builtin that accepts any number of arguments.
const Variadic = -1

// Callable is the payload of a function value: either a *Builtin or a
// *UserFunction.
type Callable interface {
	CallableName() string
	callable()
}

// BuiltinFunc is the native entry point of a builtin.
type BuiltinFunc func(rt *Runtime, args []Value) (Value, error)

// Builtin describes a native function. The runtime only knows how to check
// its arity, invoke it and box its result.
type Builtin struct {
	Name  string
	Arity int // expected argument count, or Variadic
	Fn    BuiltinFunc
}

// CallableName implements Callable.
func (b *Builtin) CallableName() string { return b.Name }
func (b *Builtin) callable()            {}

// Capture is one closure variable of a user function.
type Capture struct {
	Name  string
	Value Value
	Bound bool // false if the name was not visible when the closure was made
}

// UserFunction is a compiled function paired with its captured values.
type UserFunction struct {
	Proto    *FunctionProto
	Captures []Capture
}

// CallableName implements Callable.
func (u *UserFunction) CallableName() string { return u.Proto.Name }
func (u *UserFunction) callable()            {}

// capture returns the bound capture named name.
func (u *UserFunction) capture(name string) (*Capture, bool) {
	for i := range u.Captures {
		if u.Captures[i].Name == name && u.Captures[i].Bound {
			return &u.Captures[i], true
		}
	}
	return nil, false
}

// FunctionObject is the heap payload of a function value.
type FunctionObject struct {
	heap     *Heap
	Callable Callable
}

// Kind implements Object.
func (f *FunctionObject) Kind() Kind { return KindFunction }

// References implements Object.
func (f *FunctionObject) References(dst []Handle) []Handle {
	if u, ok := f.Callable.(*UserFunction); ok {
		for _, c := range u.Captures {
			if c.Bound {
				dst = appendRef(dst, c.Value)
			}
		}
	}
	return dst
}

func (f *FunctionObject) dispose() {
	if u, ok := f.Callable.(*UserFunction); ok {
		for i := range u.Captures {
			if u.Captures[i].Bound {
				f.heap.Release(u.Captures[i].Value)
			}
			u.Captures[i] = Capture{}
		}
	}
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

// ExceptionObject is a raised or raisable exception: a name and a
// human-readable message.
type ExceptionObject struct {
	Name    string
	Message string
}

// Kind implements Object.
func (e *ExceptionObject) Kind() Kind { return KindException }

// References implements Object.
func (e *ExceptionObject) References(dst []Handle) []Handle { return dst }
