package compiler

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/ember/vm"
)

// ---------------------------------------------------------------------------
// Codegen: Compile AST to bytecode
// ---------------------------------------------------------------------------

// InternalError reports a tree the compiler cannot lower: an unknown node,
// an operator with no opcode, a break outside a loop. Code is never dropped
// silently.
type InternalError struct {
	Pos Position
	Msg string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("compile error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// loopContext records the protected-region depth a loop was entered at, so
// break and continue know how many handlers they leave behind, and the
// placeholders they emitted.
type loopContext struct {
	tryDepth  int
	breaks    []int
	continues []int
}

// Compiler compiles AST nodes to bytecode. Nodes append into the list being
// built, so every instruction is written once; forward jumps are emitted
// with a zero offset and patched when their target is known.
type Compiler struct {
	loops    []*loopContext
	tryDepth int
	errors   []*InternalError
	log      commonlog.Logger
}

// NewCompiler creates a new compiler.
func NewCompiler() *Compiler {
	return &Compiler{log: commonlog.GetLogger("ember.compiler")}
}

// Errors returns accumulated compilation errors.
func (c *Compiler) Errors() []*InternalError {
	return c.errors
}

// Err returns the first compilation error, or nil.
func (c *Compiler) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	return c.errors[0]
}

// errorf records a compilation error.
func (c *Compiler) errorf(n Node, format string, args ...any) {
	var pos Position
	if n != nil {
		pos = n.Span().Start
	}
	err := &InternalError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	c.errors = append(c.errors, err)
	c.log.Errorf("%s", err)
}

// CompileProgram compiles top-level statements into a program ending in EXIT.
func (c *Compiler) CompileProgram(stmts []Stmt) *vm.ByteCodeList {
	code := vm.NewByteCodeList()
	c.statements(stmts, code)
	code.Emit(vm.OpExit)
	c.log.Debugf("compiled program: %d instructions", code.Len())
	return code
}

// CompileExpression compiles an expression that leaves its value on the stack.
func (c *Compiler) CompileExpression(e Expr) *vm.ByteCodeList {
	code := vm.NewByteCodeList()
	c.expr(e, code)
	return code
}

// CompileFunction compiles a function body into a proto whose closure names
// are the body's free variables.
func (c *Compiler) CompileFunction(name string, params []string, body []Stmt) *vm.FunctionProto {
	return c.function(name, params, body, false)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *Compiler) statements(stmts []Stmt, code *vm.ByteCodeList) {
	for _, s := range stmts {
		c.stmt(s, code)
	}
}

func (c *Compiler) stmt(s Stmt, code *vm.ByteCodeList) {
	switch n := s.(type) {
	case *VarDecl:
		if n.Value != nil {
			c.expr(n.Value, code)
		} else {
			code.EmitConst(vm.Undefined)
		}
		code.EmitName(vm.OpCreateVar, n.Name)
	case *Assign:
		c.compileAssign(n, code)
	case *ExprStmt:
		c.expr(n.X, code)
		code.Emit(vm.OpPOP)
	case *If:
		c.compileIf(n, code)
	case *While:
		c.compileWhile(n, code)
	case *FuncDecl:
		code.EmitClosure(c.function(n.Name, n.Params, n.Body, false))
		code.EmitName(vm.OpCreateVar, n.Name)
	case *ObjectDecl:
		code.EmitClosure(c.function(n.Name, n.Params, n.Body, true))
		code.EmitName(vm.OpCreateVar, n.Name)
	case *Return:
		if n.Value == nil {
			code.Emit(vm.OpReturnNone)
			return
		}
		c.expr(n.Value, code)
		code.Emit(vm.OpReturn)
	case *Break:
		c.compileLoopExit(n, vm.OpBreak, code)
	case *Continue:
		c.compileLoopExit(n, vm.OpContinue, code)
	case *Try:
		c.compileTry(n, code)
	case *Throw:
		c.expr(n.Value, code)
		code.Emit(vm.OpRaise)
	default:
		c.errorf(s, "unknown statement %T", s)
	}
}

// compileAssign stores into a variable, an attribute or an index. The
// target's object is evaluated before the value.
func (c *Compiler) compileAssign(n *Assign, code *vm.ByteCodeList) {
	switch t := n.Target.(type) {
	case *VarChain:
		if len(t.Names) == 1 {
			c.expr(n.Value, code)
			code.EmitName(vm.OpStoreVar, t.Root())
			return
		}
		last := len(t.Names) - 1
		c.chain(t.Names[:last], code)
		c.expr(n.Value, code)
		code.EmitName(vm.OpStoreAttr, t.Names[last])
	case *Index:
		c.expr(t.Object, code)
		c.expr(t.Index, code)
		c.expr(n.Value, code)
		code.Emit(vm.OpStoreIndex)
	default:
		c.errorf(n, "cannot assign to %T", n.Target)
	}
}

// compileIf lowers an if/else-if/else chain as
//
//	cond; JUMP_IF_FALSE len(body)+1; body; JUMP_REL len(rest); rest
//
// where rest is the remaining branches and the else body. The trailing
// jump is omitted when there is no rest.
func (c *Compiler) compileIf(n *If, code *vm.ByteCodeList) {
	var exits []int
	for i, br := range n.Branches {
		c.expr(br.Cond, code)
		test := code.Len()
		code.EmitArg(vm.OpJumpIfFalse, 0)
		c.statements(br.Body, code)
		if i < len(n.Branches)-1 || len(n.Else) > 0 {
			exits = append(exits, code.Len())
			code.EmitArg(vm.OpJumpRel, 0)
		}
		patchRel(code, test, code.Len())
	}
	c.statements(n.Else, code)
	for _, at := range exits {
		patchRel(code, at, code.Len())
	}
}

// compileWhile lowers a loop as
//
//	cond; JUMP_IF_FALSE len(body)+1; body; JUMP start
//
// then patches the body's break and continue placeholders: break jumps
// past the back-edge, continue jumps to the condition.
func (c *Compiler) compileWhile(n *While, code *vm.ByteCodeList) {
	start := code.Len()
	c.expr(n.Cond, code)
	test := code.Len()
	code.EmitArg(vm.OpJumpIfFalse, 0)

	loop := &loopContext{tryDepth: c.tryDepth}
	c.loops = append(c.loops, loop)
	c.statements(n.Body, code)
	c.loops = c.loops[:len(c.loops)-1]

	code.EmitArg(vm.OpJump, start)
	end := code.Len()
	patchRel(code, test, end)
	for _, at := range loop.breaks {
		code.Patch(at, vm.ByteCode{Op: vm.OpJumpRel, Arg: end - at - 1})
	}
	for _, at := range loop.continues {
		code.Patch(at, vm.ByteCode{Op: vm.OpJump, Arg: start})
	}
}

// compileLoopExit emits a break or continue placeholder, preceded by an
// END_TRY for each protected region it jumps out of.
func (c *Compiler) compileLoopExit(n Stmt, op vm.Opcode, code *vm.ByteCodeList) {
	if len(c.loops) == 0 {
		c.errorf(n, "%s outside of a loop", op)
		return
	}
	loop := c.loops[len(c.loops)-1]
	for d := c.tryDepth; d > loop.tryDepth; d-- {
		code.Emit(vm.OpEndTry)
	}
	if op == vm.OpBreak {
		loop.breaks = append(loop.breaks, code.Len())
	} else {
		loop.continues = append(loop.continues, code.Len())
	}
	code.Emit(op)
}

// compileTry lowers a protected region as
//
//	TRY len(body)+2; body; END_TRY; JUMP_REL len(catch); catch
//
// The interpreter pushes the raised value at the catch site, where the
// catch either binds it or pops it.
func (c *Compiler) compileTry(n *Try, code *vm.ByteCodeList) {
	enter := code.Len()
	code.EmitArg(vm.OpTry, 0)
	c.tryDepth++
	c.statements(n.Body, code)
	c.tryDepth--
	code.Emit(vm.OpEndTry)
	skip := code.Len()
	code.EmitArg(vm.OpJumpRel, 0)
	patchRel(code, enter, code.Len())

	if n.CatchName != "" {
		code.EmitName(vm.OpCreateVar, n.CatchName)
	} else {
		code.Emit(vm.OpPOP)
	}
	c.statements(n.Catch, code)
	patchRel(code, skip, code.Len())
}

// patchRel points the relative jump at index at to target.
func patchRel(code *vm.ByteCodeList, at, target int) {
	bc := code.At(at)
	bc.Arg = target - at - 1
	code.Patch(at, bc)
}

// function compiles a function or object constructor body into its own
// list. Loop and protected-region state does not cross the function
// boundary.
func (c *Compiler) function(name string, params []string, body []Stmt, isObject bool) *vm.FunctionProto {
	loops, tryDepth := c.loops, c.tryDepth
	c.loops, c.tryDepth = nil, 0
	code := vm.NewByteCodeList()
	c.statements(body, code)
	c.loops, c.tryDepth = loops, tryDepth

	if isObject {
		code.Emit(vm.OpMakeObject)
		code.Emit(vm.OpReturn)
	} else {
		code.Emit(vm.OpReturnNone)
	}
	return &vm.FunctionProto{
		Name:         name,
		Params:       params,
		ClosureNames: FreeVariables(params, body),
		Body:         code,
		IsObject:     isObject,
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *Compiler) expr(e Expr, code *vm.ByteCodeList) {
	switch n := e.(type) {
	case *NumberLit:
		code.EmitConst(vm.FromNumber(n.Value))
	case *StringLit:
		code.EmitConst(vm.FromString(n.Value))
	case *NullLit:
		code.EmitConst(vm.Null)
	case *UndefinedLit:
		code.EmitConst(vm.Undefined)
	case *VarChain:
		c.chain(n.Names, code)
	case *Index:
		c.expr(n.Object, code)
		c.expr(n.Index, code)
		code.Emit(vm.OpLoadIndex)
	case *Call:
		c.expr(n.Callee, code)
		for _, arg := range n.Args {
			c.expr(arg, code)
		}
		code.EmitArg(vm.OpCall, len(n.Args))
	case *InlineFunc:
		code.EmitClosure(c.function("", n.Params, n.Body, false))
	case *ListLit:
		c.sequence(n.Elements, vm.OpMakeList, code)
	case *SetLit:
		c.sequence(n.Elements, vm.OpMakeSet, code)
	case *MapLit:
		for _, ent := range n.Entries {
			c.expr(ent.Key, code)
			c.expr(ent.Value, code)
		}
		code.EmitArg(vm.OpMakeMap, len(n.Entries))
	case *Binary:
		op, ok := vm.BinaryOpcode(n.Op)
		if !ok {
			c.errorf(n, "unknown binary operator %q", n.Op)
			return
		}
		c.expr(n.Left, code)
		c.expr(n.Right, code)
		code.Emit(op)
	case *Unary:
		c.compileUnary(n, code)
	default:
		c.errorf(e, "unknown expression %T", e)
	}
}

// chain loads names[0] and then each following attribute.
func (c *Compiler) chain(names []string, code *vm.ByteCodeList) {
	code.EmitName(vm.OpLoadVar, names[0])
	for _, attr := range names[1:] {
		code.EmitName(vm.OpLoadAttr, attr)
	}
}

func (c *Compiler) sequence(elems []Expr, op vm.Opcode, code *vm.ByteCodeList) {
	for _, el := range elems {
		c.expr(el, code)
	}
	code.EmitArg(op, len(elems))
}

func (c *Compiler) compileUnary(n *Unary, code *vm.ByteCodeList) {
	switch n.Op {
	case "!":
		c.expr(n.Operand, code)
		code.Emit(vm.OpNot)
	case "-":
		// 0 - x
		code.EmitConst(vm.FromNumber(0))
		c.expr(n.Operand, code)
		code.Emit(vm.OpSub)
	default:
		c.errorf(n, "unknown unary operator %q", n.Op)
	}
}

// ---------------------------------------------------------------------------
// Public API
// ---------------------------------------------------------------------------

// Compile compiles a program.
func Compile(stmts []Stmt) (*vm.ByteCodeList, error) {
	c := NewCompiler()
	code := c.CompileProgram(stmts)
	if err := c.Err(); err != nil {
		return nil, err
	}
	return code, nil
}

// CompileExpr compiles a single expression. Run on an interpreter, the
// result is the expression's value.
func CompileExpr(e Expr) (*vm.ByteCodeList, error) {
	c := NewCompiler()
	code := c.CompileExpression(e)
	if err := c.Err(); err != nil {
		return nil, err
	}
	return code, nil
}

// CompileFunction compiles a named function.
func CompileFunction(name string, params []string, body []Stmt) (*vm.FunctionProto, error) {
	c := NewCompiler()
	proto := c.CompileFunction(name, params, body)
	if err := c.Err(); err != nil {
		return nil, err
	}
	return proto, nil
}
