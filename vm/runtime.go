package vm

import (
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Runtime: process-scoped context
// ---------------------------------------------------------------------------

// Runtime holds everything an interpreter shares with the builtins it calls:
// the heap, the builtin table, the attribute table and the output stream.
// Runtimes are independent; tests create as many as they like.
type Runtime struct {
	ID   uuid.UUID
	Heap *Heap
	Out  io.Writer

	opts     Options
	builtins *scope
	attrs    map[Kind]map[string]AttrFunc
	log      commonlog.Logger
	closed   bool
}

// NewRuntime creates a runtime with the core builtins and attributes
// installed.
func NewRuntime(opts Options) *Runtime {
	opts = opts.normalized()
	id := uuid.New()
	rt := &Runtime{
		ID:    id,
		Out:   os.Stdout,
		opts:  opts,
		attrs: make(map[Kind]map[string]AttrFunc),
		log:   commonlog.NewKeyValueLogger(commonlog.GetLogger("ember.vm"), "runtime", id.String()),
	}
	rt.Heap = NewHeap(opts, commonlog.NewKeyValueLogger(commonlog.GetLogger("ember.gc"), "runtime", id.String()))
	rt.builtins = newScope(rt.Heap)
	rt.Heap.AddRoots(rt)

	registerCoreBuiltins(rt)
	registerCoreAttributes(rt)
	rt.log.Debugf("runtime started: %d builtins", rt.builtins.len())
	return rt
}

// Options returns the options the runtime was created with.
func (rt *Runtime) Options() Options { return rt.opts }

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() commonlog.Logger { return rt.log }

// RegisterBuiltin installs a native function under name, replacing any
// previous builtin of that name.
func (rt *Runtime) RegisterBuiltin(name string, arity int, fn BuiltinFunc) {
	v := rt.NewFunction(&Builtin{Name: name, Arity: arity, Fn: fn})
	rt.builtins.set(name, v)
}

// Builtin looks up a builtin function value by name.
func (rt *Runtime) Builtin(name string) (Value, bool) {
	return rt.builtins.get(name)
}

// BuiltinNames returns the registered builtin names, sorted.
func (rt *Runtime) BuiltinNames() []string {
	names := rt.builtins.names()
	sort.Strings(names)
	return names
}

// VisitRoots implements RootSet: the builtin table is a root.
func (rt *Runtime) VisitRoots(visit func(Value)) {
	rt.builtins.each(func(_ string, v Value) { visit(v) })
}

// Close drops the builtin table and reclaims everything no longer rooted.
// Interpreters should be closed first.
func (rt *Runtime) Close() {
	if rt.closed {
		return
	}
	rt.closed = true
	rt.builtins.clear()
	rt.Heap.RemoveRoots(rt)
	stats := rt.Heap.Collect()
	rt.log.Debugf("runtime closed: swept %d, %d objects still live", stats.Swept, stats.Live)
}
