package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies a bytecode instruction.
type Opcode byte

// Stack and constants
const (
	OpNOP   Opcode = 0x00 // no operation
	OpPOP   Opcode = 0x01 // discard top of stack
	OpConst Opcode = 0x02 // push Const
)

// Variables
const (
	OpLoadVar   Opcode = 0x10 // push variable Name
	OpStoreVar  Opcode = 0x11 // pop into the nearest binding of Name
	OpCreateVar Opcode = 0x12 // pop into a new binding of Name in the current frame
)

// Attributes and indexing
const (
	OpLoadAttr   Opcode = 0x20 // obj -> obj.Name
	OpStoreAttr  Opcode = 0x21 // obj value -> (obj.Name = value)
	OpLoadIndex  Opcode = 0x22 // obj index -> obj[index]
	OpStoreIndex Opcode = 0x23 // obj index value -> (obj[index] = value)
)

// Container construction
const (
	OpMakeList   Opcode = 0x30 // pop Arg elements, push list
	OpMakeSet    Opcode = 0x31 // pop Arg elements, push set
	OpMakeMap    Opcode = 0x32 // pop Arg key/value pairs, push map
	OpMakeObject Opcode = 0x33 // push a map of the current frame's variables
)

// Functions
const (
	OpCall        Opcode = 0x40 // callee arg1..argN -> result (Arg = N)
	OpMakeClosure Opcode = 0x41 // push a closure over Proto
	OpReturn      Opcode = 0x42 // pop result, leave frame
	OpReturnNone  Opcode = 0x43 // leave frame with undefined
	OpExit        Opcode = 0x44 // stop the program
)

// Control flow. JUMP is absolute within its list; the others are relative
// to the following instruction.
const (
	OpJump        Opcode = 0x50
	OpJumpRel     Opcode = 0x51
	OpJumpIfFalse Opcode = 0x52 // pop, jump if not truthy

	// Placeholders emitted for break and continue and rewritten into jumps
	// when the enclosing loop is assembled. They never reach the executor.
	OpBreak    Opcode = 0x58
	OpContinue Opcode = 0x59
)

// Exceptions
const (
	OpTry    Opcode = 0x60 // push handler; catch site is Arg past the next instruction
	OpEndTry Opcode = 0x61 // pop handler
	OpRaise  Opcode = 0x62 // pop value and raise it
)

// Operators: pop right, pop left, push result.
const (
	OpAdd  Opcode = 0x70
	OpSub  Opcode = 0x71
	OpMul  Opcode = 0x72
	OpDiv  Opcode = 0x73
	OpMod  Opcode = 0x74
	OpBAnd Opcode = 0x75
	OpBOr  Opcode = 0x76
	OpBXor Opcode = 0x77
	OpShl  Opcode = 0x78
	OpShr  Opcode = 0x79
	OpGT   Opcode = 0x7A
	OpGE   Opcode = 0x7B
	OpLT   Opcode = 0x7C
	OpLE   Opcode = 0x7D
	OpEQ   Opcode = 0x7E
	OpNE   Opcode = 0x7F
	OpAnd  Opcode = 0x80
	OpOr   Opcode = 0x81

	OpNot Opcode = 0x90 // unary logical negation
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode. Pop and Push of -1 mean the
// count depends on the instruction's Arg; see StackEffect.
type OpcodeInfo struct {
	Name   string
	Symbol string // source operator, for binary and unary ops
	Pop    int
	Push   int
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpNOP:   {"NOP", "", 0, 0},
	OpPOP:   {"POP", "", 1, 0},
	OpConst: {"CONST", "", 0, 1},

	OpLoadVar:   {"LOAD_VAR", "", 0, 1},
	OpStoreVar:  {"STORE_VAR", "", 1, 0},
	OpCreateVar: {"CREATE_VAR", "", 1, 0},

	OpLoadAttr:   {"LOAD_ATTR", "", 1, 1},
	OpStoreAttr:  {"STORE_ATTR", "", 2, 0},
	OpLoadIndex:  {"LOAD_INDEX", "", 2, 1},
	OpStoreIndex: {"STORE_INDEX", "", 3, 0},

	OpMakeList:   {"MAKE_LIST", "", -1, 1},
	OpMakeSet:    {"MAKE_SET", "", -1, 1},
	OpMakeMap:    {"MAKE_MAP", "", -1, 1},
	OpMakeObject: {"MAKE_OBJECT", "", 0, 1},

	OpCall:        {"CALL", "", -1, 1},
	OpMakeClosure: {"MAKE_CLOSURE", "", 0, 1},
	OpReturn:      {"RETURN", "", 1, 0},
	OpReturnNone:  {"RETURN_NONE", "", 0, 0},
	OpExit:        {"EXIT", "", 0, 0},

	OpJump:        {"JUMP", "", 0, 0},
	OpJumpRel:     {"JUMP_REL", "", 0, 0},
	OpJumpIfFalse: {"JUMP_IF_FALSE", "", 1, 0},
	OpBreak:       {"BREAK", "", 0, 0},
	OpContinue:    {"CONTINUE", "", 0, 0},

	OpTry:    {"TRY", "", 0, 0},
	OpEndTry: {"END_TRY", "", 0, 0},
	OpRaise:  {"RAISE", "", 1, 0},

	OpAdd:  {"ADD", "+", 2, 1},
	OpSub:  {"SUB", "-", 2, 1},
	OpMul:  {"MUL", "*", 2, 1},
	OpDiv:  {"DIV", "/", 2, 1},
	OpMod:  {"MOD", "%", 2, 1},
	OpBAnd: {"BAND", "&", 2, 1},
	OpBOr:  {"BOR", "|", 2, 1},
	OpBXor: {"BXOR", "^", 2, 1},
	OpShl:  {"SHL", "<<", 2, 1},
	OpShr:  {"SHR", ">>", 2, 1},
	OpGT:   {"GT", ">", 2, 1},
	OpGE:   {"GE", ">=", 2, 1},
	OpLT:   {"LT", "<", 2, 1},
	OpLE:   {"LE", "<=", 2, 1},
	OpEQ:   {"EQ", "==", 2, 1},
	OpNE:   {"NE", "!=", 2, 1},
	OpAnd:  {"AND", "&&", 2, 1},
	OpOr:   {"OR", "||", 2, 1},
	OpNot:  {"NOT", "!", 1, 1},
}

// binaryOps maps source operators to their opcodes.
var binaryOps = map[string]Opcode{}

func init() {
	for op, info := range opcodeTable {
		if info.Symbol != "" && info.Pop == 2 {
			binaryOps[info.Symbol] = op
		}
	}
}

// BinaryOpcode returns the opcode for a binary source operator.
func BinaryOpcode(symbol string) (Opcode, bool) {
	op, ok := binaryOps[symbol]
	return op, ok
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// IsBinary reports whether op is a two-operand operator.
func (op Opcode) IsBinary() bool {
	return op >= OpAdd && op <= OpOr
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

// ByteCode is one instruction. Which payload fields are meaningful depends
// on Op: Const for CONST, Name for variable and attribute ops, Arg for
// counts and jump offsets, Proto for MAKE_CLOSURE.
type ByteCode struct {
	Op    Opcode
	Arg   int
	Name  string
	Const Value
	Proto *FunctionProto
}

// Pops returns the number of operands the instruction consumes.
func (bc ByteCode) Pops() int {
	switch bc.Op {
	case OpMakeList, OpMakeSet:
		return bc.Arg
	case OpMakeMap:
		return 2 * bc.Arg
	case OpCall:
		return bc.Arg + 1
	}
	return bc.Op.Info().Pop
}

// Pushes returns the number of results the instruction produces.
func (bc ByteCode) Pushes() int {
	return bc.Op.Info().Push
}

// StackEffect returns the net change in operand stack height caused by bc.
// The catch site of a TRY receives one extra value, the raised exception;
// that push belongs to the unwind, not to any instruction.
func StackEffect(bc ByteCode) int {
	return bc.Pushes() - bc.Pops()
}

func (bc ByteCode) String() string {
	name := bc.Op.Name()
	switch bc.Op {
	case OpConst:
		return name + " " + bc.Const.String()
	case OpLoadVar, OpStoreVar, OpCreateVar, OpLoadAttr, OpStoreAttr:
		return name + " " + bc.Name
	case OpMakeList, OpMakeSet, OpMakeMap, OpCall:
		return fmt.Sprintf("%s %d", name, bc.Arg)
	case OpJump:
		return fmt.Sprintf("%s %04d", name, bc.Arg)
	case OpJumpRel, OpJumpIfFalse, OpTry:
		return fmt.Sprintf("%s %+d", name, bc.Arg)
	case OpMakeClosure:
		return fmt.Sprintf("%s %s(%s) captures=[%s]", name, bc.Proto.Name,
			strings.Join(bc.Proto.Params, ", "), strings.Join(bc.Proto.ClosureNames, ", "))
	}
	return name
}

// FunctionProto is the compiled, immutable part of a user function.
type FunctionProto struct {
	Name         string
	Params       []string
	ClosureNames []string // free variables captured when a closure is made
	Body         *ByteCodeList
	IsObject     bool // object constructor: the body returns its own variables
}

// ---------------------------------------------------------------------------
// ByteCodeList
// ---------------------------------------------------------------------------

// ByteCodeList is a growable instruction sequence. A list owns its backing
// array; Concat moves instructions between lists instead of copying them
// into a third.
type ByteCodeList struct {
	code []ByteCode
}

// NewByteCodeList creates an empty list.
func NewByteCodeList() *ByteCodeList {
	return &ByteCodeList{}
}

// Len returns the number of instructions.
func (l *ByteCodeList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.code)
}

// At returns the instruction at i.
func (l *ByteCodeList) At(i int) ByteCode {
	return l.code[i]
}

// Code returns the instructions. The slice aliases the list.
func (l *ByteCodeList) Code() []ByteCode {
	return l.code
}

// Append adds an instruction, doubling the backing array when full.
func (l *ByteCodeList) Append(bc ByteCode) {
	if len(l.code) == cap(l.code) {
		n := 2 * cap(l.code)
		if n == 0 {
			n = 8
		}
		grown := make([]ByteCode, len(l.code), n)
		copy(grown, l.code)
		l.code = grown
	}
	l.code = append(l.code, bc)
}

// Emit appends an instruction with no payload.
func (l *ByteCodeList) Emit(op Opcode) {
	l.Append(ByteCode{Op: op})
}

// EmitArg appends an instruction with an integer argument.
func (l *ByteCodeList) EmitArg(op Opcode, arg int) {
	l.Append(ByteCode{Op: op, Arg: arg})
}

// EmitName appends an instruction naming a variable or attribute.
func (l *ByteCodeList) EmitName(op Opcode, name string) {
	l.Append(ByteCode{Op: op, Name: name})
}

// EmitConst appends a CONST instruction.
func (l *ByteCodeList) EmitConst(v Value) {
	l.Append(ByteCode{Op: OpConst, Const: v})
}

// EmitClosure appends a MAKE_CLOSURE instruction.
func (l *ByteCodeList) EmitClosure(p *FunctionProto) {
	l.Append(ByteCode{Op: OpMakeClosure, Proto: p})
}

// Patch replaces the instruction at i.
func (l *ByteCodeList) Patch(i int, bc ByteCode) {
	l.code[i] = bc
}

// Concat joins a and b into one list holding a's instructions followed by
// b's. b's absolute jumps are relocated by a's length. Both inputs are left
// empty and the result takes over a's backing array, growing it by doubling.
// Each call copies b once: appending parts onto one accumulator is linear,
// but splicing a large b under many small prefixes is not, so a tree
// compiler should emit into a single list instead.
func Concat(a, b *ByteCodeList) *ByteCodeList {
	if a == nil {
		a = &ByteCodeList{}
	}
	if b == nil {
		b = &ByteCodeList{}
	}
	base := len(a.code)
	n := base + len(b.code)

	var code []ByteCode
	if n <= cap(a.code) {
		code = a.code[:n]
	} else {
		size := 2 * cap(a.code)
		if size < n {
			size = n
		}
		code = make([]ByteCode, n, size)
		copy(code, a.code)
	}
	for i, bc := range b.code {
		if bc.Op == OpJump {
			bc.Arg += base
		}
		code[base+i] = bc
	}

	a.code = nil
	b.code = nil
	return &ByteCodeList{code: code}
}

// Disassemble returns a listing of the instructions, one per line, with
// nested function bodies indented below their MAKE_CLOSURE.
func (l *ByteCodeList) Disassemble() string {
	var sb strings.Builder
	l.disassemble(&sb, "")
	return strings.TrimSuffix(sb.String(), "\n")
}

func (l *ByteCodeList) disassemble(sb *strings.Builder, indent string) {
	for i, bc := range l.code {
		fmt.Fprintf(sb, "%s%04d  %s", indent, i, bc)
		switch bc.Op {
		case OpJumpRel, OpJumpIfFalse, OpTry:
			fmt.Fprintf(sb, " (-> %04d)", i+1+bc.Arg)
		}
		sb.WriteByte('\n')
		if bc.Op == OpMakeClosure && bc.Proto.Body != nil {
			bc.Proto.Body.disassemble(sb, indent+"    ")
		}
	}
}
