package vm

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Exception kinds
// ---------------------------------------------------------------------------

// Names of the exceptions raised by the runtime itself. Scripts may raise
// exceptions with any name.
const (
	TypeMismatch      = "TypeMismatch"
	ArityMismatch     = "ArityMismatch"
	KeyNotFound       = "KeyNotFound"
	IndexOutOfBounds  = "IndexOutOfBounds"
	UndefinedVariable = "UndefinedVariable"
	StackOverflow     = "StackOverflow"

	// GenericError names exceptions built from plain Go errors returned by
	// builtins, and thrown values that are not exceptions.
	GenericError = "Error"
)

// RaisedError carries a raised script value through the Go call stack. The
// interpreter unwinds to the nearest handler when an instruction or builtin
// returns one.
type RaisedError struct {
	Value   Value // the raised value, usually an exception
	Name    string
	Message string
}

func (e *RaisedError) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

// UnhandledError is returned by Interpreter.Run when a raised value reaches
// the bottom of the handler stack.
type UnhandledError struct {
	Name    string
	Message string
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("unhandled exception %s: %s", e.Name, e.Message)
}

// NewException allocates an exception value.
func (rt *Runtime) NewException(name, message string) Value {
	return rt.Heap.Alloc(&ExceptionObject{Name: name, Message: message})
}

// Raise builds a RaisedError for a new exception. Builtins return it to
// signal a catchable failure.
func (rt *Runtime) Raise(name, format string, args ...any) *RaisedError {
	msg := fmt.Sprintf(format, args...)
	return &RaisedError{Value: rt.NewException(name, msg), Name: name, Message: msg}
}

// Throw wraps an arbitrary script value for raising.
func (rt *Runtime) Throw(v Value) *RaisedError {
	if ex, ok := rt.Exception(v); ok {
		return &RaisedError{Value: v, Name: ex.Name, Message: ex.Message}
	}
	return &RaisedError{Value: v, Name: GenericError, Message: rt.Format(v)}
}

// asRaised converts any error returned inside the interpreter into a
// RaisedError. AllocationFailure never reaches here; it is a panic.
func (rt *Runtime) asRaised(err error) *RaisedError {
	if r, ok := err.(*RaisedError); ok {
		return r
	}
	return rt.Raise(GenericError, "%s", err.Error())
}

func (rt *Runtime) typeMismatch(op string, a, b Value) *RaisedError {
	return rt.Raise(TypeMismatch, "unsupported operand types for %s: %s and %s", op, a.Kind(), b.Kind())
}
