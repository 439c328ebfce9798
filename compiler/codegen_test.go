package compiler

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/ember/vm"
)

// run compiles stmts as a program and runs it on a fresh interpreter.
func run(t *testing.T, stmts ...Stmt) (*vm.Interpreter, *vm.Runtime, error) {
	t.Helper()
	return runWith(t, vm.DefaultOptions(), stmts...)
}

func runWith(t *testing.T, opts vm.Options, stmts ...Stmt) (*vm.Interpreter, *vm.Runtime, error) {
	t.Helper()
	code, err := Compile(stmts)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	rt := vm.NewRuntime(opts)
	rt.Out = &bytes.Buffer{}
	interp := vm.NewInterpreter(rt)
	t.Cleanup(func() {
		interp.Close()
		rt.Close()
	})
	_, err = interp.Run(code)
	return interp, rt, err
}

func global(t *testing.T, interp *vm.Interpreter, name string) vm.Value {
	t.Helper()
	v, ok := interp.Global(name)
	if !ok {
		t.Fatalf("global %s not defined", name)
	}
	return v
}

// netEffect sums the stack effect of every instruction in code.
func netEffect(code *vm.ByteCodeList) int {
	n := 0
	for _, bc := range code.Code() {
		n += vm.StackEffect(bc)
	}
	return n
}

// ---------------------------------------------------------------------------
// Stack effect
// ---------------------------------------------------------------------------

func TestExpressionsLeaveOneValue(t *testing.T) {
	exprs := []Expr{
		num(1),
		&NullLit{},
		ref("a", "b", "c"),
		bin("+", num(1), bin("*", num(2), num(3))),
		&Unary{Op: "!", Operand: ref("x")},
		&Unary{Op: "-", Operand: num(4)},
		call(ref("f"), num(1), ref("y"), &ListLit{Elements: []Expr{num(1), num(2)}}),
		&Index{Object: ref("l"), Index: bin("-", ref("i"), num(1))},
		&SetLit{Elements: []Expr{num(1), str("a"), num(3)}},
		&MapLit{Entries: []MapEntry{{Key: str("k"), Value: num(1)}, {Key: str("j"), Value: ref("v")}}},
		&InlineFunc{Params: []string{"p"}, Body: body(ret(ref("p")))},
	}
	for _, e := range exprs {
		code, err := CompileExpr(e)
		if err != nil {
			t.Fatalf("CompileExpr(%T) error = %v", e, err)
		}
		if got := netEffect(code); got != 1 {
			t.Errorf("%T: net stack effect %d, want 1\n%s", e, got, code.Disassemble())
		}
	}
}

func TestStatementsBalance(t *testing.T) {
	stmts := [][]Stmt{
		body(decl("x", num(1))),
		body(&VarDecl{Name: "u"}),
		body(assign(ref("x"), num(2))),
		body(assign(ref("o", "a", "b"), num(2))),
		body(assign(&Index{Object: ref("l"), Index: num(0)}, num(2))),
		body(exprStmt(call(ref("print"), num(1)))),
		body(&If{
			Branches: []Branch{
				{Cond: ref("a"), Body: body(decl("x", num(1)))},
				{Cond: ref("b"), Body: body(decl("x", num(2)))},
			},
			Else: body(decl("x", num(3))),
		}),
		body(while(ref("go"), exprStmt(num(1)), &Break{}, &Continue{})),
		body(fn("f", []string{"a"}, ret(ref("a")))),
		body(&ObjectDecl{Name: "P", Params: []string{"x"}}),
		body(&Throw{Value: str("boom")}),
	}
	for i, s := range stmts {
		c := NewCompiler()
		code := vm.NewByteCodeList()
		c.statements(s, code)
		if err := c.Err(); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if got := netEffect(code); got != 0 {
			t.Errorf("case %d: net stack effect %d, want 0\n%s", i, got, code.Disassemble())
		}
	}
}

// rightNested builds 1 + (1 + (... + 1)) with depth operators.
func rightNested(depth int) Expr {
	var e Expr = num(1)
	for i := 0; i < depth; i++ {
		e = bin("+", num(1), e)
	}
	return e
}

// elseIfChain builds if (x == 0) {...} else if (x == 1) {...} ... else {...}.
func elseIfChain(n int) *If {
	s := &If{Else: body(assign(ref("r"), num(-1)))}
	for i := 0; i < n; i++ {
		s.Branches = append(s.Branches, Branch{
			Cond: bin("==", ref("x"), num(float64(i))),
			Body: body(assign(ref("r"), num(float64(i)))),
		})
	}
	return s
}

func TestCompileCostIsLinear(t *testing.T) {
	allocs := func(e Expr) float64 {
		return testing.AllocsPerRun(5, func() {
			if _, err := CompileExpr(e); err != nil {
				t.Fatal(err)
			}
		})
	}
	small, large := allocs(rightNested(1000)), allocs(rightNested(8000))
	if large-small > 8 {
		t.Errorf("allocations grew from %.0f to %.0f between depth 1000 and 8000", small, large)
	}

	code, err := CompileExpr(rightNested(8000))
	if err != nil {
		t.Fatal(err)
	}
	if code.Len() != 2*8000+1 || netEffect(code) != 1 {
		t.Errorf("depth 8000: %d instructions, net effect %d", code.Len(), netEffect(code))
	}

	chain := func(n int) float64 {
		stmts := body(elseIfChain(n))
		return testing.AllocsPerRun(5, func() {
			if _, err := Compile(stmts); err != nil {
				t.Fatal(err)
			}
		})
	}
	if small, large := chain(200), chain(1600); large-small > 16 {
		t.Errorf("allocations grew from %.0f to %.0f between 200 and 1600 branches", small, large)
	}
}

func TestLongElseIfChain(t *testing.T) {
	for _, x := range []float64{0, 17, 299, 300} {
		interp, _, err := run(t, decl("x", num(x)), decl("r", num(-2)), elseIfChain(300))
		if err != nil {
			t.Fatal(err)
		}
		want := x
		if x == 300 {
			want = -1
		}
		if r := global(t, interp, "r"); !vm.Equal(r, vm.FromNumber(want)) {
			t.Errorf("x = %v: r = %v, want %v", x, r, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Evaluation order
// ---------------------------------------------------------------------------

func loadOrder(code *vm.ByteCodeList) []string {
	var names []string
	for _, bc := range code.Code() {
		if bc.Op == vm.OpLoadVar {
			names = append(names, bc.Name)
		}
	}
	return names
}

func TestOperandOrderIndependentOfGrouping(t *testing.T) {
	left := bin("-", bin("-", ref("a"), ref("b")), ref("c"))
	right := bin("-", ref("a"), bin("-", ref("b"), ref("c")))

	for _, e := range []Expr{left, right} {
		code, err := CompileExpr(e)
		if err != nil {
			t.Fatal(err)
		}
		if got := loadOrder(code); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
			t.Errorf("load order = %v, want [a b c]", got)
		}
	}

	for _, e := range []Expr{
		bin("+", bin("+", str("a"), str("b")), str("c")),
		bin("+", str("a"), bin("+", str("b"), str("c"))),
	} {
		code, _ := CompileExpr(e)
		rt := vm.NewRuntime(vm.DefaultOptions())
		interp := vm.NewInterpreter(rt)
		v, err := interp.Run(code)
		if err != nil || !vm.Equal(v, vm.FromString("abc")) {
			t.Errorf("concatenation = %v, %v, want abc", v, err)
		}
		interp.Close()
		rt.Close()
	}
}

func TestBothLogicalOperandsEvaluated(t *testing.T) {
	// 0 && f() still calls f, which marks the shared map.
	interp, rt, err := run(t,
		decl("seen", &MapLit{}),
		fn("f", nil,
			assign(ref("seen", "called"), num(1)),
			ret(num(1)),
		),
		decl("r", bin("&&", num(0), call(ref("f")))),
	)
	if err != nil {
		t.Fatal(err)
	}
	if r := global(t, interp, "r"); !vm.Equal(r, vm.FromNumber(0)) {
		t.Errorf("r = %v, want 0", r)
	}
	called, err := rt.LoadAttr(global(t, interp, "seen"), "called")
	if err != nil || !vm.Equal(called, vm.FromNumber(1)) {
		t.Errorf("seen.called = %v, %v, want 1", called, err)
	}
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestAssignArithmetic(t *testing.T) {
	interp, _, err := run(t,
		assign(ref("x"), bin("+", num(1), bin("*", num(2), num(3)))),
	)
	if err != nil {
		t.Fatal(err)
	}
	if x := global(t, interp, "x"); !vm.Equal(x, vm.FromNumber(7)) {
		t.Errorf("x = %v, want 7", x)
	}
}

func TestIfElseChain(t *testing.T) {
	classify := func(n float64) Stmt {
		return &If{
			Branches: []Branch{
				{Cond: bin("<", num(n), num(0)), Body: body(assign(ref("r"), str("neg")))},
				{Cond: bin("==", num(n), num(0)), Body: body(assign(ref("r"), str("zero")))},
			},
			Else: body(assign(ref("r"), str("pos"))),
		}
	}
	tests := []struct {
		n    float64
		want string
	}{
		{-1, "neg"},
		{0, "zero"},
		{5, "pos"},
	}
	for _, tt := range tests {
		interp, _, err := run(t, decl("r", &NullLit{}), classify(tt.n))
		if err != nil {
			t.Fatal(err)
		}
		if r := global(t, interp, "r"); !vm.Equal(r, vm.FromString(tt.want)) {
			t.Errorf("classify(%v) = %v, want %s", tt.n, r, tt.want)
		}
	}
}

func TestWhileBreakContinue(t *testing.T) {
	interp, _, err := run(t,
		decl("i", num(0)),
		decl("hits", num(0)),
		while(num(1),
			assign(ref("i"), bin("+", ref("i"), num(1))),
			ifStmt(bin(">", ref("i"), num(5)), &Break{}),
			ifStmt(bin("==", bin("%", ref("i"), num(2)), num(0)), &Continue{}),
			assign(ref("hits"), bin("+", ref("hits"), num(1))),
		),
	)
	if err != nil {
		t.Fatal(err)
	}
	if i := global(t, interp, "i"); !vm.Equal(i, vm.FromNumber(6)) {
		t.Errorf("i = %v, want 6", i)
	}
	if hits := global(t, interp, "hits"); !vm.Equal(hits, vm.FromNumber(3)) {
		t.Errorf("hits = %v, want 3", hits)
	}
}

func TestNestedLoops(t *testing.T) {
	interp, _, err := run(t,
		decl("total", num(0)),
		decl("i", num(0)),
		while(bin("<", ref("i"), num(3)),
			decl("j", num(0)),
			while(num(1),
				ifStmt(bin(">=", ref("j"), ref("i")), &Break{}),
				assign(ref("j"), bin("+", ref("j"), num(1))),
				assign(ref("total"), bin("+", ref("total"), num(1))),
			),
			assign(ref("i"), bin("+", ref("i"), num(1))),
		),
	)
	if err != nil {
		t.Fatal(err)
	}
	// 0 + 1 + 2
	if total := global(t, interp, "total"); !vm.Equal(total, vm.FromNumber(3)) {
		t.Errorf("total = %v, want 3", total)
	}
}

func TestLoopClosureCapturesByValue(t *testing.T) {
	interp, _, err := run(t,
		decl("fns", &ListLit{}),
		decl("count", num(0)),
		while(bin("<", ref("count"), num(3)),
			fn("get", nil, ret(ref("count"))),
			assign(ref("fns"), bin("+", ref("fns"), &ListLit{Elements: []Expr{ref("get")}})),
			assign(ref("count"), bin("+", ref("count"), num(1))),
		),
		decl("first", call(&Index{Object: ref("fns"), Index: num(0)})),
		decl("last", call(&Index{Object: ref("fns"), Index: num(2)})),
	)
	if err != nil {
		t.Fatal(err)
	}
	if v := global(t, interp, "first"); !vm.Equal(v, vm.FromNumber(0)) {
		t.Errorf("first closure saw count = %v, want 0", v)
	}
	if v := global(t, interp, "last"); !vm.Equal(v, vm.FromNumber(2)) {
		t.Errorf("last closure saw count = %v, want 2", v)
	}
	if v := global(t, interp, "count"); !vm.Equal(v, vm.FromNumber(3)) {
		t.Errorf("count = %v, want 3", v)
	}
}

func TestRecursiveFunction(t *testing.T) {
	fact := fn("fact", []string{"n"},
		ifStmt(bin("<=", ref("n"), num(1)), ret(num(1))),
		ret(bin("*", ref("n"), call(ref("fact"), bin("-", ref("n"), num(1))))),
	)
	interp, _, err := run(t, fact, decl("r", call(ref("fact"), num(5))))
	if err != nil {
		t.Fatal(err)
	}
	if r := global(t, interp, "r"); !vm.Equal(r, vm.FromNumber(120)) {
		t.Errorf("fact(5) = %v, want 120", r)
	}
}

func TestInlineFunctionArgument(t *testing.T) {
	apply := fn("apply", []string{"f", "v"}, ret(call(ref("f"), ref("v"))))
	double := &InlineFunc{Params: []string{"x"}, Body: body(ret(bin("*", ref("x"), ref("k"))))}
	interp, _, err := run(t,
		apply,
		decl("k", num(2)),
		decl("r", call(ref("apply"), double, num(21))),
	)
	if err != nil {
		t.Fatal(err)
	}
	if r := global(t, interp, "r"); !vm.Equal(r, vm.FromNumber(42)) {
		t.Errorf("r = %v, want 42", r)
	}
}

func TestObjectDecl(t *testing.T) {
	point := &ObjectDecl{
		Name:   "Point",
		Params: []string{"x", "y"},
		Body:   body(decl("sum", bin("+", ref("x"), ref("y")))),
	}
	interp, rt, err := run(t,
		point,
		decl("p", call(ref("Point"), num(1), num(2))),
		assign(ref("p", "x"), num(10)),
		decl("s", ref("p", "sum")),
		assign(&Index{Object: ref("p"), Index: str("tag")}, str("t")),
	)
	if err != nil {
		t.Fatal(err)
	}
	if s := global(t, interp, "s"); !vm.Equal(s, vm.FromNumber(3)) {
		t.Errorf("p.sum = %v, want 3", s)
	}
	p := global(t, interp, "p")
	if got := rt.Format(p); got != `{"sum": 3, "tag": "t", "x": 10, "y": 2}` {
		t.Errorf("p = %s", got)
	}
}

func TestTryCatch(t *testing.T) {
	interp, _, err := run(t,
		decl("msg", &NullLit{}),
		fn("fail", nil, &Throw{Value: call(ref("Exception"), str("Boom"), str("bad"))}),
		&Try{
			Body:      body(exprStmt(call(ref("fail"))), assign(ref("msg"), str("not reached"))),
			CatchName: "e",
			Catch:     body(assign(ref("msg"), ref("e", "message"))),
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	if msg := global(t, interp, "msg"); !vm.Equal(msg, vm.FromString("bad")) {
		t.Errorf("msg = %v, want bad", msg)
	}
	if interp.CallDepth() != 1 || interp.StackDepth() != 0 {
		t.Errorf("after catch: depth %d, stack %d", interp.CallDepth(), interp.StackDepth())
	}
}

func TestTryWithoutException(t *testing.T) {
	interp, _, err := run(t,
		decl("r", num(0)),
		&Try{
			Body:  body(assign(ref("r"), num(1))),
			Catch: body(assign(ref("r"), num(2))),
		},
		// A raise after the region must not reach its catch site.
		&Throw{Value: str("late")},
	)
	var unhandled *vm.UnhandledError
	if !errors.As(err, &unhandled) {
		t.Fatalf("Run() error = %v, want *UnhandledError", err)
	}
	if r := global(t, interp, "r"); !vm.Equal(r, vm.FromNumber(1)) {
		t.Errorf("r = %v, want 1", r)
	}
}

func TestBreakOutOfTryPopsHandler(t *testing.T) {
	_, _, err := run(t,
		decl("n", num(0)),
		while(num(1),
			&Try{
				Body:  body(assign(ref("n"), bin("+", ref("n"), num(1))), &Break{}),
				Catch: body(),
			},
		),
		&Throw{Value: call(ref("Exception"), str("After"), str(""))},
	)
	var unhandled *vm.UnhandledError
	if !errors.As(err, &unhandled) || unhandled.Name != "After" {
		t.Fatalf("Run() error = %v, want unhandled After", err)
	}
}

func TestUnhandledTypeMismatch(t *testing.T) {
	_, _, err := run(t, decl("x", bin("-", str("a"), num(1))))
	var unhandled *vm.UnhandledError
	if !errors.As(err, &unhandled) || unhandled.Name != vm.TypeMismatch {
		t.Fatalf("Run() error = %v, want unhandled %s", err, vm.TypeMismatch)
	}
	if !strings.Contains(err.Error(), vm.TypeMismatch) {
		t.Errorf("diagnostic %q does not name the exception", err)
	}
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

func TestGarbageLoopStaysUnderObjectLimit(t *testing.T) {
	opts := vm.DefaultOptions()
	opts.MaxObjects = 50
	interp, rt, err := runWith(t, opts,
		decl("i", num(0)),
		while(bin("<", ref("i"), num(100)),
			decl("l", &ListLit{Elements: []Expr{num(1)}}),
			assign(ref("i"), bin("+", ref("i"), num(1))),
		),
	)
	if err != nil {
		t.Fatal(err)
	}
	if i := global(t, interp, "i"); !vm.Equal(i, vm.FromNumber(100)) {
		t.Errorf("i = %v, want 100", i)
	}
	if rt.Heap.Collections() == 0 {
		t.Error("no collection ran at the object limit")
	}
	if live := rt.Heap.Live(); live > opts.MaxObjects {
		t.Errorf("live = %d, over the limit %d", live, opts.MaxObjects)
	}
}

func TestReachableObjectsOverLimitAreFatal(t *testing.T) {
	opts := vm.DefaultOptions()
	opts.MaxObjects = 50

	defer func() {
		r := recover()
		if af, ok := r.(vm.AllocationFailure); !ok || af.Limit != 50 {
			t.Errorf("recovered %v, want AllocationFailure with limit 50", r)
		}
	}()
	runWith(t, opts,
		decl("keep", &ListLit{}),
		decl("i", num(0)),
		while(bin("<", ref("i"), num(100)),
			assign(ref("keep"), bin("+", ref("keep"),
				&ListLit{Elements: []Expr{&ListLit{Elements: []Expr{ref("i")}}}})),
			assign(ref("i"), bin("+", ref("i"), num(1))),
		),
	)
	t.Error("program holding 100 lists under a limit of 50 finished")
}

// Closures over self-referencing maps, collected under pressure while
// recursive frames are live.
func TestCollectionDuringNestedCalls(t *testing.T) {
	opts := vm.DefaultOptions()
	opts.GCThreshold = 4
	opts.ZCTLimit = 1

	get := fn("get", nil,
		decl("t", &MapLit{Entries: []MapEntry{{Key: str("n"), Value: ref("m", "v")}}}),
		assign(ref("t", "me"), ref("t")),
		ret(ref("t", "n")),
	)
	sum := fn("sum", []string{"k"},
		ifStmt(bin("<", ref("k"), num(0)), ret(num(0))),
		ifStmt(bin("==", ref("k"), num(0)), exprStmt(call(ref("collect")))),
		decl("m2", &MapLit{Entries: []MapEntry{{Key: str("k"), Value: ref("k")}}}),
		assign(ref("m2", "me"), ref("m2")),
		ret(bin("-",
			bin("+",
				bin("+", call(&Index{Object: ref("fns"), Index: ref("k")}), call(ref("sum"), bin("-", ref("k"), num(1)))),
				ref("m2", "k")),
			ref("k"))),
	)
	interp, rt, err := runWith(t, opts,
		decl("fns", &ListLit{}),
		decl("i", num(0)),
		while(bin("<", ref("i"), num(30)),
			decl("m", &MapLit{Entries: []MapEntry{{Key: str("v"), Value: ref("i")}}}),
			assign(ref("m", "self"), ref("m")),
			get,
			assign(ref("fns"), bin("+", ref("fns"), &ListLit{Elements: []Expr{ref("get")}})),
			assign(ref("i"), bin("+", ref("i"), num(1))),
		),
		sum,
		decl("s", call(ref("sum"), num(29))),
	)
	if err != nil {
		t.Fatal(err)
	}
	// 0 + 1 + ... + 29
	if s := global(t, interp, "s"); !vm.Equal(s, vm.FromNumber(435)) {
		t.Errorf("s = %v, want 435", s)
	}
	if rt.Heap.Collections() < 2 {
		t.Errorf("Collections() = %d, want at least 2", rt.Heap.Collections())
	}

	rt.Heap.Collect()
	fns := global(t, interp, "fns")
	last, err := rt.Index(fns, vm.FromNumber(29))
	if err != nil {
		t.Fatal(err)
	}
	if got, err := interp.Call(last); err != nil || !vm.Equal(got, vm.FromNumber(29)) {
		t.Errorf("fns[29]() after collection = %v, %v, want 29", got, err)
	}
}

// ---------------------------------------------------------------------------
// Code shape
// ---------------------------------------------------------------------------

func TestCompileFunctionClosureNames(t *testing.T) {
	proto, err := CompileFunction("f", []string{"a", "b"},
		body(ret(bin("+", bin("+", ref("a"), ref("b")), ref("x")))))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(proto.ClosureNames, []string{"x"}) {
		t.Errorf("ClosureNames = %v, want [x]", proto.ClosureNames)
	}
	last := proto.Body.At(proto.Body.Len() - 1)
	if last.Op != vm.OpReturnNone {
		t.Errorf("body ends with %s, want RETURN_NONE", last.Op)
	}
}

func TestProgramEndsWithExit(t *testing.T) {
	code, err := Compile(body(decl("x", num(1))))
	if err != nil {
		t.Fatal(err)
	}
	if last := code.At(code.Len() - 1); last.Op != vm.OpExit {
		t.Errorf("program ends with %s, want EXIT", last.Op)
	}
}

func TestWhileLayout(t *testing.T) {
	code, err := Compile(body(
		decl("i", num(0)),
		while(ref("i"), &Continue{}, &Break{}),
	))
	if err != nil {
		t.Fatal(err)
	}
	want := []vm.ByteCode{
		{Op: vm.OpConst, Const: vm.FromNumber(0)},
		{Op: vm.OpCreateVar, Name: "i"},
		{Op: vm.OpLoadVar, Name: "i"},  // 2: loop start
		{Op: vm.OpJumpIfFalse, Arg: 3}, // 3: to 7
		{Op: vm.OpJump, Arg: 2},        // 4: continue
		{Op: vm.OpJumpRel, Arg: 1},     // 5: break, to 7
		{Op: vm.OpJump, Arg: 2},        // 6: back edge
		{Op: vm.OpExit},                // 7
	}
	if code.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d\n%s", code.Len(), len(want), code.Disassemble())
	}
	for i, w := range want {
		got := code.At(i)
		if got.Op != w.Op || got.Arg != w.Arg || got.Name != w.Name {
			t.Errorf("At(%d) = %s, want %s", i, got, w)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		stmts []Stmt
		want  string
	}{
		{"break outside loop", body(&Break{}), "outside of a loop"},
		{"continue in function inside loop", body(while(num(1), fn("f", nil, &Continue{}))), "outside of a loop"},
		{"unknown operator", body(exprStmt(bin("**", num(1), num(2)))), "unknown binary operator"},
		{"unknown unary", body(exprStmt(&Unary{Op: "~", Operand: num(1)})), "unknown unary operator"},
		{"bad assignment target", body(assign(num(1), num(2))), "cannot assign"},
		{"unknown expression", body(exprStmt(&bogusExpr{})), "unknown expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.stmts)
			var ie *InternalError
			if !errors.As(err, &ie) {
				t.Fatalf("Compile() error = %v, want *InternalError", err)
			}
			if !strings.Contains(ie.Msg, tt.want) {
				t.Errorf("error %q does not contain %q", ie.Msg, tt.want)
			}
		})
	}
}

type bogusExpr struct{}

func (*bogusExpr) Span() Span { return Span{Start: Position{Line: 3, Column: 7}} }
func (*bogusExpr) node()      {}
func (*bogusExpr) expr()      {}
