package vm

import (
	"fmt"
	"hash/maphash"
	"math"
)

// Kind is the dynamic type tag of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindNumber
	KindString
	KindList
	KindMap
	KindSet
	KindFunction
	KindException

	kindCount
)

var kindNames = [kindCount]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindNumber:    "number",
	KindString:    "string",
	KindList:      "list",
	KindMap:       "map",
	KindSet:       "set",
	KindFunction:  "function",
	KindException: "exception",
}

// String returns the script-facing name of the kind.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsHeap reports whether values of this kind live in the heap arena.
func (k Kind) IsHeap() bool {
	return k >= KindList && k < kindCount
}

// Handle addresses a slot in the heap arena. The generation is bumped every
// time a slot is reused, so a handle that outlives its object is detected
// instead of silently aliasing a newer one. The zero Handle is never valid.
type Handle struct {
	Index uint32
	Gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h.Index == 0 }

func (h Handle) String() string { return fmt.Sprintf("#%d.%d", h.Index, h.Gen) }

// ---------------------------------------------------------------------------
// Value
// ---------------------------------------------------------------------------

// Value is an ember runtime value.
//
// Scalars (undefined, null, numbers, strings) are stored inline. Strings are
// immutable Go strings, so a string value owns its buffer without any
// bookkeeping. Lists, maps, sets, functions and exceptions are heap objects
// and the value carries only their Handle.
//
// Value is comparable; == on two values is identity for heap kinds and
// representation equality for scalars (use Equal for script equality).
type Value struct {
	kind Kind
	num  float64
	str  string
	ref  Handle
}

// Predefined scalar values.
var (
	Undefined = Value{kind: KindUndefined}
	Null      = Value{kind: KindNull}
)

// FromNumber creates a number value.
func FromNumber(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// FromBool creates the number 1 or 0, the language's boolean encoding.
func FromBool(b bool) Value {
	if b {
		return Value{kind: KindNumber, num: 1}
	}
	return Value{kind: KindNumber, num: 0}
}

// FromString creates a string value.
func FromString(s string) Value {
	return Value{kind: KindString, str: s}
}

func heapValue(kind Kind, h Handle) Value {
	return Value{kind: kind, ref: h}
}

// Kind returns the dynamic type tag.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined returns true if v is undefined.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// IsNull returns true if v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumber returns true if v is a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsString returns true if v is a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsHeap returns true if v refers to a heap object.
func (v Value) IsHeap() bool { return v.kind.IsHeap() }

// AsNumber returns the number payload.
// Panics if v is not a number.
func (v Value) AsNumber() float64 {
	if v.kind != KindNumber {
		panic("Value.AsNumber: not a number")
	}
	return v.num
}

// AsString returns the string payload.
// Panics if v is not a string.
func (v Value) AsString() string {
	if v.kind != KindString {
		panic("Value.AsString: not a string")
	}
	return v.str
}

// Handle returns the heap handle, or the zero handle for scalars.
func (v Value) Handle() Handle { return v.ref }

// String implements fmt.Stringer for debugging. Use Runtime.Format for the
// script-facing rendering.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined, KindNull:
		return v.kind.String()
	case KindNumber:
		return formatNumber(v.num)
	case KindString:
		return fmt.Sprintf("%q", v.str)
	default:
		return fmt.Sprintf("<%s %s>", v.kind, v.ref)
	}
}

// ---------------------------------------------------------------------------
// Equality and hashing
// ---------------------------------------------------------------------------

// Equal implements the language's == : scalars compare by value, heap
// values by identity. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	default:
		return a.ref == b.ref
	}
}

var valueSeed = maphash.MakeSeed()

// Hash returns a hash consistent with Equal.
func Hash(v Value) uint64 {
	switch v.kind {
	case KindNumber:
		f := v.num
		if f == 0 {
			f = 0 // fold -0 into +0
		}
		return math.Float64bits(f)*0x9E3779B97F4A7C15 ^ uint64(KindNumber)
	case KindString:
		return maphash.String(valueSeed, v.str)
	case KindUndefined, KindNull:
		return uint64(v.kind) * 0x9E3779B97F4A7C15
	default:
		x := uint64(v.ref.Index)<<32 | uint64(v.ref.Gen)
		return x*0xBF58476D1CE4E5B9 ^ uint64(v.kind)
	}
}

// valueHasher adapts Equal/Hash to container.Hasher.
type valueHasher struct{}

func (valueHasher) Hash(v Value) uint64    { return Hash(v) }
func (valueHasher) Equal(a, b Value) bool { return Equal(a, b) }
