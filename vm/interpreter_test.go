package vm

import (
	"bytes"
	"errors"
	"testing"
)

func TestCallFromGo(t *testing.T) {
	rt, interp := newTestRuntime(t, DefaultOptions())

	add := newProto("add", []string{"a", "b"},
		ByteCode{Op: OpLoadVar, Name: "a"},
		ByteCode{Op: OpLoadVar, Name: "b"},
		ByteCode{Op: OpAdd},
		ByteCode{Op: OpReturn},
	)
	if _, err := interp.Run(program(
		ByteCode{Op: OpMakeClosure, Proto: add},
		ByteCode{Op: OpCreateVar, Name: "add"},
	)); err != nil {
		t.Fatal(err)
	}

	fv, ok := interp.Global("add")
	if !ok {
		t.Fatal("add not defined")
	}
	got, err := interp.Call(fv, FromNumber(2), FromNumber(3))
	if err != nil || !Equal(got, FromNumber(5)) {
		t.Errorf("add(2, 3) = %v, %v", got, err)
	}

	lenFn, _ := rt.Builtin("len")
	got, err = interp.Call(lenFn, FromString("abcd"))
	if err != nil || !Equal(got, FromNumber(4)) {
		t.Errorf("len(\"abcd\") = %v, %v", got, err)
	}

	_, err = interp.Call(fv, FromNumber(1))
	var raised *RaisedError
	if !errors.As(err, &raised) || raised.Name != ArityMismatch {
		t.Errorf("add(1) err = %v, want %s", err, ArityMismatch)
	}
	if interp.CallDepth() != 1 || interp.StackDepth() != 0 {
		t.Errorf("failed call left depth %d, stack %d", interp.CallDepth(), interp.StackDepth())
	}
}

func TestPrintBuiltin(t *testing.T) {
	rt, interp := newTestRuntime(t, DefaultOptions())
	out := &bytes.Buffer{}
	rt.Out = out

	_, err := interp.Run(program(
		ByteCode{Op: OpLoadVar, Name: "print"},
		ByteCode{Op: OpConst, Const: FromString("x =")},
		ByteCode{Op: OpConst, Const: FromNumber(1)},
		ByteCode{Op: OpConst, Const: FromNumber(2)},
		ByteCode{Op: OpMakeList, Arg: 2},
		ByteCode{Op: OpCall, Arg: 2},
		ByteCode{Op: OpPOP},
		ByteCode{Op: OpExit},
	))
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "x = [1, 2]\n" {
		t.Errorf("output = %q", got)
	}
}

func TestMakeObject(t *testing.T) {
	_, interp := newTestRuntime(t, DefaultOptions())

	point := newProto("Point", []string{"x", "y"},
		ByteCode{Op: OpConst, Const: FromString("point")},
		ByteCode{Op: OpCreateVar, Name: "kind"},
		ByteCode{Op: OpMakeObject},
		ByteCode{Op: OpReturn},
	)
	point.IsObject = true

	v, err := interp.Run(program(
		ByteCode{Op: OpMakeClosure, Proto: point},
		ByteCode{Op: OpConst, Const: FromNumber(1)},
		ByteCode{Op: OpConst, Const: FromNumber(2)},
		ByteCode{Op: OpCall, Arg: 2},
		ByteCode{Op: OpLoadAttr, Name: "y"},
	))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(v, FromNumber(2)) {
		t.Errorf("Point(1, 2).y = %v, want 2", v)
	}
}

func TestStoreResolvesNearestBinding(t *testing.T) {
	_, interp := newTestRuntime(t, DefaultOptions())

	// set() assigns to the global counter rather than creating a local.
	set := newProto("set", nil,
		ByteCode{Op: OpConst, Const: FromNumber(42)},
		ByteCode{Op: OpStoreVar, Name: "counter"},
		ByteCode{Op: OpConst, Const: FromNumber(1)},
		ByteCode{Op: OpStoreVar, Name: "local"},
		ByteCode{Op: OpReturnNone},
	)
	_, err := interp.Run(program(
		ByteCode{Op: OpConst, Const: FromNumber(0)},
		ByteCode{Op: OpCreateVar, Name: "counter"},
		ByteCode{Op: OpMakeClosure, Proto: set},
		ByteCode{Op: OpCall},
		ByteCode{Op: OpPOP},
		ByteCode{Op: OpExit},
	))
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := interp.Global("counter"); !Equal(v, FromNumber(42)) {
		t.Errorf("counter = %v, want 42", v)
	}
	if _, ok := interp.Global("local"); ok {
		t.Error("function local leaked into globals")
	}
}

func TestRunRejectsReentry(t *testing.T) {
	rt, interp := newTestRuntime(t, DefaultOptions())

	var inner error
	rt.RegisterBuiltin("reenter", 0, func(rt *Runtime, args []Value) (Value, error) {
		_, inner = interp.Run(program(ByteCode{Op: OpExit}))
		return Undefined, nil
	})
	if _, err := interp.Run(program(
		ByteCode{Op: OpLoadVar, Name: "reenter"},
		ByteCode{Op: OpCall},
		ByteCode{Op: OpExit},
	)); err != nil {
		t.Fatal(err)
	}
	if inner == nil {
		t.Error("nested Run succeeded")
	}
}
