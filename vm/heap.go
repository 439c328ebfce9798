package vm

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Heap: arena registry with reference counts
// ---------------------------------------------------------------------------

// RootSet is anything that holds values the collector must treat as live:
// interpreter frames and operand stacks, the builtin table.
type RootSet interface {
	VisitRoots(visit func(Value))
}

// AllocationFailure is the panic value raised when the live-object registry
// cannot grow. It is never converted into a script exception.
type AllocationFailure struct {
	Live  int
	Limit int
}

func (a AllocationFailure) Error() string {
	return fmt.Sprintf("allocation failure: %d live objects, limit %d", a.Live, a.Limit)
}

type slot struct {
	obj    Object
	gen    uint32
	refs   int32
	live   bool
	marked bool
	queued bool // has an entry in the zero-count table
}

// Heap owns every list, map, set, function and exception payload.
//
// Each payload has a count of structural holders: container slots, closure
// captures, variable-table slots and the builtin table. Operand stack slots
// are roots but hold no count. Objects whose count is zero (including every
// freshly allocated object) wait in the zero-count table until a safepoint
// checks them against the roots and releases the unreferenced ones. Cycles
// never reach zero and are left to the tracing collector in gc.go.
type Heap struct {
	slots []slot // slot 0 is reserved so the zero Handle is invalid
	free  []uint32
	index map[Object]Handle
	live  int

	zct      []Handle
	zctLimit int

	roots []RootSet

	enabled     bool
	threshold   int
	maxObjects  int
	pending     bool
	collecting  bool
	collections uint64
	lastStats   *GCStats

	log commonlog.Logger
}

// NewHeap creates an empty heap configured from opts.
func NewHeap(opts Options, log commonlog.Logger) *Heap {
	opts = opts.normalized()
	if log == nil {
		log = commonlog.GetLogger("ember.gc")
	}
	return &Heap{
		slots:      make([]slot, 1, 64),
		index:      make(map[Object]Handle),
		zctLimit:   opts.ZCTLimit,
		enabled:    opts.GCEnabled,
		threshold:  opts.GCThreshold,
		maxObjects: opts.MaxObjects,
		log:        log,
	}
}

// AddRoots registers a root set with the collector.
func (h *Heap) AddRoots(r RootSet) {
	h.roots = append(h.roots, r)
}

// RemoveRoots unregisters a root set.
func (h *Heap) RemoveRoots(r RootSet) {
	for i, x := range h.roots {
		if x == r {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

func (h *Heap) visitRoots(visit func(Value)) {
	for _, r := range h.roots {
		r.VisitRoots(visit)
	}
}

// Alloc registers obj and returns a value referring to it. Registering a
// payload that is already tracked returns its existing value.
//
// Allocations between two safepoints may take the registry past MaxObjects;
// the next safepoint collects and fails only if it is still over. Alloc
// itself fails once the registry reaches twice the limit, which only code
// allocating outside the interpreter loop can hit.
func (h *Heap) Alloc(obj Object) Value {
	if hd, ok := h.index[obj]; ok {
		return heapValue(obj.Kind(), hd)
	}
	if h.maxObjects > 0 && h.live >= 2*h.maxObjects {
		panic(AllocationFailure{Live: h.live, Limit: h.maxObjects})
	}

	var idx uint32
	if n := len(h.free); n > 0 {
		idx = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		h.slots = append(h.slots, slot{})
		idx = uint32(len(h.slots) - 1)
	}
	s := &h.slots[idx]
	s.gen++
	s.obj = obj
	s.refs = 0
	s.live = true
	s.marked = false
	s.queued = true

	hd := Handle{Index: idx, Gen: s.gen}
	h.index[obj] = hd
	h.live++
	h.zct = append(h.zct, hd)

	if h.enabled && h.live > h.threshold {
		h.pending = true
	}
	return heapValue(obj.Kind(), hd)
}

// lookup returns the live slot for hd, or nil if hd is stale.
func (h *Heap) lookup(hd Handle) *slot {
	if hd.Index == 0 || int(hd.Index) >= len(h.slots) {
		return nil
	}
	s := &h.slots[hd.Index]
	if !s.live || s.gen != hd.Gen {
		return nil
	}
	return s
}

// Object returns the payload of a heap value.
// Panics on a dangling handle; that is always an interpreter bug.
func (h *Heap) Object(v Value) Object {
	s := h.lookup(v.ref)
	if s == nil {
		panic(fmt.Sprintf("heap: dangling handle %s (%s)", v.ref, v.kind))
	}
	return s.obj
}

// Tracked reports whether v is a heap value present in the registry.
func (h *Heap) Tracked(v Value) bool {
	return v.IsHeap() && h.lookup(v.ref) != nil
}

// RefCount returns the holder count of v, or 0 for scalars and stale handles.
func (h *Heap) RefCount(v Value) int {
	if !v.IsHeap() {
		return 0
	}
	if s := h.lookup(v.ref); s != nil {
		return int(s.refs)
	}
	return 0
}

// Live returns the number of registered objects.
func (h *Heap) Live() int { return h.live }

// Retain records a new structural holder of v.
func (h *Heap) Retain(v Value) {
	if !v.IsHeap() {
		return
	}
	s := h.lookup(v.ref)
	if s == nil {
		panic(fmt.Sprintf("heap: retain of released handle %s", v.ref))
	}
	s.refs++
}

// Release drops a structural holder of v. A count reaching zero queues v
// for release at the next safepoint. Releasing a handle whose object is
// already gone is a no-op; the sweeper relies on this when it disposes a
// dead object that points at other dead objects.
func (h *Heap) Release(v Value) {
	if !v.IsHeap() {
		return
	}
	s := h.lookup(v.ref)
	if s == nil {
		return
	}
	s.refs--
	if s.refs < 0 {
		panic(fmt.Sprintf("heap: negative refcount on %s", v.ref))
	}
	if s.refs == 0 && !s.queued {
		s.queued = true
		h.zct = append(h.zct, v.ref)
	}
}

// Free releases v immediately, regardless of its count. It is the explicit
// release path; callers must guarantee nothing else still uses v.
func (h *Heap) Free(v Value) {
	if !v.IsHeap() {
		return
	}
	if h.lookup(v.ref) == nil {
		return
	}
	h.unregister(v.ref)
}

// unregister removes hd from the registry and then disposes its payload, so
// no registry entry ever points at a disposed object.
func (h *Heap) unregister(hd Handle) {
	s := &h.slots[hd.Index]
	obj := s.obj
	delete(h.index, obj)
	s.live = false
	s.obj = nil
	s.refs = 0
	s.queued = false
	h.live--
	h.free = append(h.free, hd.Index)
	if d, ok := obj.(disposer); ok {
		d.dispose()
	}
}

// ---------------------------------------------------------------------------
// Safepoints
// ---------------------------------------------------------------------------

// Safepoint is called by the interpreter between instructions, when every
// live value is either counted or reachable from a root. It runs a pending
// collection, or flushes the zero-count table once it is large enough.
//
// A registry over MaxObjects gets a full collection even when the tracing
// collector is disabled. If the survivors still exceed the limit the
// allocation failure is fatal.
func (h *Heap) Safepoint() {
	if h.collecting {
		return
	}
	if h.overLimit() {
		scheduled := h.pending
		h.log.Warningf("registry over limit (%d > %d), collecting", h.live, h.maxObjects)
		h.Collect()
		if scheduled {
			h.threshold *= 2
		}
		if h.overLimit() {
			panic(AllocationFailure{Live: h.live, Limit: h.maxObjects})
		}
		return
	}
	if h.pending {
		h.Collect()
		h.threshold *= 2
		h.log.Debugf("gc threshold raised to %d", h.threshold)
		return
	}
	if len(h.zct) >= h.zctLimit {
		h.FlushZCT()
	}
}

// FlushZCT releases every queued object whose count is still zero and that
// is not directly held by a root. Releasing an object drops its references,
// which may queue more objects; those are processed in the same pass.
// Nothing is released while a collection is pending or running: the
// upcoming sweep will reclaim those objects itself.
func (h *Heap) FlushZCT() int {
	if h.collecting || h.pending || len(h.zct) == 0 {
		return 0
	}

	// Mark the direct roots. Counted holders never need tracing here: a
	// zero-count object can only be held by a root.
	var rooted []Handle
	h.visitRoots(func(v Value) {
		if !v.IsHeap() {
			return
		}
		if s := h.lookup(v.ref); s != nil && !s.marked {
			s.marked = true
			rooted = append(rooted, v.ref)
		}
	})

	released := 0
	var keep []Handle
	for len(h.zct) > 0 {
		n := len(h.zct) - 1
		hd := h.zct[n]
		h.zct = h.zct[:n]

		s := h.lookup(hd)
		if s == nil {
			continue
		}
		switch {
		case s.refs > 0:
			s.queued = false
		case s.marked:
			// Held only by a root: check again once the root lets go.
			keep = append(keep, hd)
		default:
			h.unregister(hd)
			released++
		}
	}
	h.zct = append(h.zct, keep...)

	for _, hd := range rooted {
		if s := h.lookup(hd); s != nil {
			s.marked = false
		}
	}
	if released > 0 {
		h.log.Debugf("zct flush released %d objects, %d live", released, h.live)
	}
	return released
}

func (h *Heap) overLimit() bool {
	return h.maxObjects > 0 && h.live > h.maxObjects
}

// Threshold returns the live-object count that schedules the next collection.
func (h *Heap) Threshold() int { return h.threshold }

// SetEnabled turns the tracing collector on or off.
func (h *Heap) SetEnabled(enabled bool) {
	h.enabled = enabled
	if !enabled {
		h.pending = false
	}
}

// IsEnabled reports whether the tracing collector is on.
func (h *Heap) IsEnabled() bool { return h.enabled }

// CollectionPending reports whether the next safepoint will run a collection.
func (h *Heap) CollectionPending() bool { return h.pending }
