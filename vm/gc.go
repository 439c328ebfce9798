package vm

import (
	"time"
)

// ---------------------------------------------------------------------------
// Tracing collector
// ---------------------------------------------------------------------------

// GCStats holds statistics from a single collection.
type GCStats struct {
	Roots     int // root values visited
	Marked    int
	Swept     int
	Live      int // registered objects after the sweep
	Threshold int // threshold in force when the collection ran
	Duration  time.Duration
	Timestamp time.Time
}

// Collect runs a full mark-and-sweep pass over the registry.
//
// Marks are cleared, every object reachable from the registered root sets
// is marked by an iterative depth-first walk over References, and every
// registered object left unmarked is removed from the registry and
// disposed. Disposal releases the dead object's references; releases that
// land on other dead objects are ignored, releases that land on survivors
// only adjust their counts.
func (h *Heap) Collect() *GCStats {
	start := time.Now()
	stats := &GCStats{Timestamp: start, Threshold: h.threshold}
	h.collecting = true

	for i := range h.slots {
		h.slots[i].marked = false
	}

	var stack []Handle
	h.visitRoots(func(v Value) {
		stats.Roots++
		if v.IsHeap() {
			stack = append(stack, v.ref)
		}
	})

	var edges []Handle
	for len(stack) > 0 {
		n := len(stack) - 1
		hd := stack[n]
		stack = stack[:n]

		s := h.lookup(hd)
		if s == nil || s.marked {
			continue
		}
		s.marked = true
		stats.Marked++

		edges = s.obj.References(edges[:0])
		for _, e := range edges {
			if t := h.lookup(e); t != nil && !t.marked {
				stack = append(stack, e)
			}
		}
	}

	// Unregister all garbage before disposing any of it, so a dead object's
	// references to other dead objects are recognised as stale.
	var dead []Object
	for i := 1; i < len(h.slots); i++ {
		s := &h.slots[i]
		if !s.live || s.marked {
			continue
		}
		dead = append(dead, s.obj)
		delete(h.index, s.obj)
		s.live = false
		s.obj = nil
		s.refs = 0
		s.queued = false
		h.live--
		h.free = append(h.free, uint32(i))
	}
	for _, obj := range dead {
		if d, ok := obj.(disposer); ok {
			d.dispose()
		}
	}
	stats.Swept = len(dead)

	for i := range h.slots {
		h.slots[i].marked = false
	}

	h.collecting = false
	h.pending = false
	h.collections++

	stats.Live = h.live
	stats.Duration = time.Since(start)
	h.lastStats = stats

	h.log.Infof("gc: swept %d, marked %d, live %d, threshold %d (%s)",
		stats.Swept, stats.Marked, stats.Live, stats.Threshold, stats.Duration)

	// Survivors released by the sweep may now sit at zero; they are
	// checked at the next flush.
	return stats
}

// Collections returns the number of collections performed.
func (h *Heap) Collections() uint64 { return h.collections }

// LastStats returns statistics from the most recent collection, or nil if no
// collection has run yet.
func (h *Heap) LastStats() *GCStats { return h.lastStats }
