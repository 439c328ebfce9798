package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Heap snapshots
// ---------------------------------------------------------------------------

// HeapSnapshot is a diagnostic dump of the live-object registry: every
// tracked object with its count and outbound edges. It is meant for
// inspecting leaks and cycles offline; nothing reads it back into a heap.
type HeapSnapshot struct {
	RuntimeID   string         `cbor:"1,keyasint"`
	Taken       time.Time      `cbor:"2,keyasint"`
	Live        int            `cbor:"3,keyasint"`
	Threshold   int            `cbor:"4,keyasint"`
	Collections uint64         `cbor:"5,keyasint"`
	Objects     []ObjectRecord `cbor:"6,keyasint"`
}

// ObjectRecord describes one tracked object.
type ObjectRecord struct {
	Index    uint32   `cbor:"1,keyasint"`
	Gen      uint32   `cbor:"2,keyasint"`
	Kind     string   `cbor:"3,keyasint"`
	RefCount int      `cbor:"4,keyasint"`
	Edges    []uint32 `cbor:"5,keyasint,omitempty"` // slot indexes of referenced objects
	Label    string   `cbor:"6,keyasint,omitempty"` // function or exception name
}

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// Snapshot captures the current state of the heap.
func (rt *Runtime) Snapshot() *HeapSnapshot {
	h := rt.Heap
	snap := &HeapSnapshot{
		RuntimeID:   rt.ID.String(),
		Taken:       time.Now().UTC(),
		Live:        h.live,
		Threshold:   h.threshold,
		Collections: h.collections,
	}
	var edges []Handle
	for idx := 1; idx < len(h.slots); idx++ {
		s := &h.slots[idx]
		if !s.live {
			continue
		}
		rec := ObjectRecord{
			Index:    uint32(idx),
			Gen:      s.gen,
			Kind:     s.obj.Kind().String(),
			RefCount: int(s.refs),
		}
		edges = s.obj.References(edges[:0])
		for _, e := range edges {
			rec.Edges = append(rec.Edges, e.Index)
		}
		switch o := s.obj.(type) {
		case *FunctionObject:
			rec.Label = o.Callable.CallableName()
		case *ExceptionObject:
			rec.Label = o.Name
		}
		snap.Objects = append(snap.Objects, rec)
	}
	return snap
}

// MarshalSnapshot encodes a snapshot as canonical CBOR.
func MarshalSnapshot(s *HeapSnapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// UnmarshalSnapshot decodes a snapshot.
func UnmarshalSnapshot(data []byte) (*HeapSnapshot, error) {
	var s HeapSnapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vm: unmarshal heap snapshot: %w", err)
	}
	return &s, nil
}

// WriteSnapshot encodes the current heap state to w.
func (rt *Runtime) WriteSnapshot(w io.Writer) error {
	data, err := MarshalSnapshot(rt.Snapshot())
	if err != nil {
		return fmt.Errorf("vm: marshal heap snapshot: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteSnapshotFile writes the current heap state to path.
func (rt *Runtime) WriteSnapshotFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	if err := rt.WriteSnapshot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
