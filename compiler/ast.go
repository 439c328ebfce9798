package compiler

// ---------------------------------------------------------------------------
// AST: the tree handed to the compiler by the parser
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// NumberLit represents a numeric literal.
type NumberLit struct {
	SpanVal Span
	Value   float64
}

func (n *NumberLit) Span() Span { return n.SpanVal }
func (n *NumberLit) node()      {}
func (n *NumberLit) expr()      {}

// StringLit represents a string literal.
type StringLit struct {
	SpanVal Span
	Value   string
}

func (n *StringLit) Span() Span { return n.SpanVal }
func (n *StringLit) node()      {}
func (n *StringLit) expr()      {}

// NullLit represents null.
type NullLit struct {
	SpanVal Span
}

func (n *NullLit) Span() Span { return n.SpanVal }
func (n *NullLit) node()      {}
func (n *NullLit) expr()      {}

// UndefinedLit represents undefined.
type UndefinedLit struct {
	SpanVal Span
}

func (n *UndefinedLit) Span() Span { return n.SpanVal }
func (n *UndefinedLit) node()      {}
func (n *UndefinedLit) expr()      {}

// VarChain is a variable reference with zero or more attribute segments:
// a, a.b, a.b.c. Names[0] is the variable; the rest are attribute names.
type VarChain struct {
	SpanVal Span
	Names   []string
}

func (n *VarChain) Span() Span { return n.SpanVal }
func (n *VarChain) node()      {}
func (n *VarChain) expr()      {}

// Root returns the variable the chain starts from.
func (n *VarChain) Root() string { return n.Names[0] }

// Index represents obj[index].
type Index struct {
	SpanVal Span
	Object  Expr
	Index   Expr
}

func (n *Index) Span() Span { return n.SpanVal }
func (n *Index) node()      {}
func (n *Index) expr()      {}

// Call represents callee(args...).
type Call struct {
	SpanVal Span
	Callee  Expr
	Args    []Expr
}

func (n *Call) Span() Span { return n.SpanVal }
func (n *Call) node()      {}
func (n *Call) expr()      {}

// InlineFunc is an anonymous function expression.
type InlineFunc struct {
	SpanVal Span
	Params  []string
	Body    []Stmt
}

func (n *InlineFunc) Span() Span { return n.SpanVal }
func (n *InlineFunc) node()      {}
func (n *InlineFunc) expr()      {}

// ListLit represents [a, b, c].
type ListLit struct {
	SpanVal  Span
	Elements []Expr
}

func (n *ListLit) Span() Span { return n.SpanVal }
func (n *ListLit) node()      {}
func (n *ListLit) expr()      {}

// SetLit represents {a, b, c}.
type SetLit struct {
	SpanVal  Span
	Elements []Expr
}

func (n *SetLit) Span() Span { return n.SpanVal }
func (n *SetLit) node()      {}
func (n *SetLit) expr()      {}

// MapEntry is one key: value pair of a map literal.
type MapEntry struct {
	Key   Expr
	Value Expr
}

// MapLit represents {k: v, ...}.
type MapLit struct {
	SpanVal Span
	Entries []MapEntry
}

func (n *MapLit) Span() Span { return n.SpanVal }
func (n *MapLit) node()      {}
func (n *MapLit) expr()      {}

// Binary represents left op right. Op is the source operator ("+", "<=", "&&").
type Binary struct {
	SpanVal Span
	Op      string
	Left    Expr
	Right   Expr
}

func (n *Binary) Span() Span { return n.SpanVal }
func (n *Binary) node()      {}
func (n *Binary) expr()      {}

// Unary represents op operand, where op is "!" or "-".
type Unary struct {
	SpanVal Span
	Op      string
	Operand Expr
}

func (n *Unary) Span() Span { return n.SpanVal }
func (n *Unary) node()      {}
func (n *Unary) expr()      {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// VarDecl declares a variable in the current scope: var name = value.
type VarDecl struct {
	SpanVal Span
	Name    string
	Value   Expr // nil declares the variable as undefined
}

func (n *VarDecl) Span() Span { return n.SpanVal }
func (n *VarDecl) node()      {}
func (n *VarDecl) stmt()      {}

// Assign stores into an existing binding. Target is a *VarChain or *Index.
type Assign struct {
	SpanVal Span
	Target  Expr
	Value   Expr
}

func (n *Assign) Span() Span { return n.SpanVal }
func (n *Assign) node()      {}
func (n *Assign) stmt()      {}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	SpanVal Span
	X       Expr
}

func (n *ExprStmt) Span() Span { return n.SpanVal }
func (n *ExprStmt) node()      {}
func (n *ExprStmt) stmt()      {}

// Branch is one condition and body of an if/else-if chain.
type Branch struct {
	Cond Expr
	Body []Stmt
}

// If is an if statement. Branches holds the if and each else-if in order.
type If struct {
	SpanVal  Span
	Branches []Branch
	Else     []Stmt
}

func (n *If) Span() Span { return n.SpanVal }
func (n *If) node()      {}
func (n *If) stmt()      {}

// While is a while loop.
type While struct {
	SpanVal Span
	Cond    Expr
	Body    []Stmt
}

func (n *While) Span() Span { return n.SpanVal }
func (n *While) node()      {}
func (n *While) stmt()      {}

// FuncDecl declares a named function.
type FuncDecl struct {
	SpanVal Span
	Name    string
	Params  []string
	Body    []Stmt
}

func (n *FuncDecl) Span() Span { return n.SpanVal }
func (n *FuncDecl) node()      {}
func (n *FuncDecl) stmt()      {}

// ObjectDecl declares an object constructor. Calling it runs the body and
// returns a map of the variables the body defined, parameters included.
type ObjectDecl struct {
	SpanVal Span
	Name    string
	Params  []string
	Body    []Stmt
}

func (n *ObjectDecl) Span() Span { return n.SpanVal }
func (n *ObjectDecl) node()      {}
func (n *ObjectDecl) stmt()      {}

// Return returns from the enclosing function.
type Return struct {
	SpanVal Span
	Value   Expr // nil for a bare return
}

func (n *Return) Span() Span { return n.SpanVal }
func (n *Return) node()      {}
func (n *Return) stmt()      {}

// Break exits the innermost loop.
type Break struct {
	SpanVal Span
}

func (n *Break) Span() Span { return n.SpanVal }
func (n *Break) node()      {}
func (n *Break) stmt()      {}

// Continue restarts the innermost loop.
type Continue struct {
	SpanVal Span
}

func (n *Continue) Span() Span { return n.SpanVal }
func (n *Continue) node()      {}
func (n *Continue) stmt()      {}

// Try is try { Body } catch CatchName { Catch }. CatchName may be empty.
type Try struct {
	SpanVal   Span
	Body      []Stmt
	CatchName string
	Catch     []Stmt
}

func (n *Try) Span() Span { return n.SpanVal }
func (n *Try) node()      {}
func (n *Try) stmt()      {}

// Throw raises a value.
type Throw struct {
	SpanVal Span
	Value   Expr
}

func (n *Throw) Span() Span { return n.SpanVal }
func (n *Throw) node()      {}
func (n *Throw) stmt()      {}
