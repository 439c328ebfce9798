package compiler

import (
	"github.com/chazu/ember/pkg/container"
)

// ---------------------------------------------------------------------------
// Closure analysis: free variables of a function body
// ---------------------------------------------------------------------------

// binding is a name bound at a nesting level.
type binding struct {
	name  string
	level int
}

// closureAnalyzer walks a body tracking which names are bound at each
// nesting level. A name referenced while not bound is free; once free it
// stays free.
type closureAnalyzer struct {
	level int
	bound []binding
	free  []string
	seen  *container.HashSet[string]
}

// FreeVariables returns the names referenced in body that are bound neither
// by params nor by a declaration inside body, in order of first reference.
// These are the values a closure over body must capture.
func FreeVariables(params []string, body []Stmt) []string {
	a := &closureAnalyzer{seen: container.NewStringSet()}
	a.function(params, body)
	return a.free
}

func (a *closureAnalyzer) bind(name string) {
	a.bound = append(a.bound, binding{name: name, level: a.level})
}

func (a *closureAnalyzer) isBound(name string) bool {
	for i := len(a.bound) - 1; i >= 0; i-- {
		if a.bound[i].name == name {
			return true
		}
	}
	return false
}

func (a *closureAnalyzer) reference(name string) {
	if a.isBound(name) {
		return
	}
	if _, added := a.seen.Add(name); added {
		a.free = append(a.free, name)
	}
}

func (a *closureAnalyzer) enter() {
	a.level++
}

// exit drops every binding made at or below the level being left.
func (a *closureAnalyzer) exit() {
	n := 0
	for _, b := range a.bound {
		if b.level < a.level {
			a.bound[n] = b
			n++
		}
	}
	a.bound = a.bound[:n]
	a.level--
}

// function analyzes a function body one level down, with params bound.
func (a *closureAnalyzer) function(params []string, body []Stmt) {
	a.enter()
	for _, p := range params {
		a.bind(p)
	}
	a.stmts(body)
	a.exit()
}

// block analyzes a nested body; names declared inside do not outlive it.
func (a *closureAnalyzer) block(body []Stmt) {
	a.enter()
	a.stmts(body)
	a.exit()
}

func (a *closureAnalyzer) stmts(body []Stmt) {
	for _, s := range body {
		a.stmt(s)
	}
}

func (a *closureAnalyzer) stmt(s Stmt) {
	switch n := s.(type) {
	case *VarDecl:
		if n.Value != nil {
			a.expr(n.Value)
		}
		a.bind(n.Name)
	case *Assign:
		a.expr(n.Target)
		a.expr(n.Value)
	case *ExprStmt:
		a.expr(n.X)
	case *If:
		for _, br := range n.Branches {
			a.expr(br.Cond)
			a.block(br.Body)
		}
		if n.Else != nil {
			a.block(n.Else)
		}
	case *While:
		a.expr(n.Cond)
		a.block(n.Body)
	case *FuncDecl:
		a.bind(n.Name)
		a.function(n.Params, n.Body)
	case *ObjectDecl:
		a.bind(n.Name)
		a.function(n.Params, n.Body)
	case *Return:
		if n.Value != nil {
			a.expr(n.Value)
		}
	case *Try:
		a.block(n.Body)
		a.enter()
		if n.CatchName != "" {
			a.bind(n.CatchName)
		}
		a.stmts(n.Catch)
		a.exit()
	case *Throw:
		a.expr(n.Value)
	case *Break, *Continue:
	}
}

func (a *closureAnalyzer) expr(e Expr) {
	switch n := e.(type) {
	case *VarChain:
		// Only the root is a variable; the rest are attribute names.
		a.reference(n.Root())
	case *Index:
		a.expr(n.Object)
		a.expr(n.Index)
	case *Call:
		a.expr(n.Callee)
		for _, arg := range n.Args {
			a.expr(arg)
		}
	case *InlineFunc:
		a.function(n.Params, n.Body)
	case *ListLit:
		for _, el := range n.Elements {
			a.expr(el)
		}
	case *SetLit:
		for _, el := range n.Elements {
			a.expr(el)
		}
	case *MapLit:
		for _, ent := range n.Entries {
			a.expr(ent.Key)
			a.expr(ent.Value)
		}
	case *Binary:
		a.expr(n.Left)
		a.expr(n.Right)
	case *Unary:
		a.expr(n.Operand)
	}
}
