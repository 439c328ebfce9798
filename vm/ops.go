package vm

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Payload access
// ---------------------------------------------------------------------------

// List returns the payload of a list value.
func (rt *Runtime) List(v Value) (*RtList, bool) {
	if v.kind != KindList {
		return nil, false
	}
	l, ok := rt.Heap.Object(v).(*RtList)
	return l, ok
}

// Map returns the payload of a map value.
func (rt *Runtime) Map(v Value) (*RtMap, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	m, ok := rt.Heap.Object(v).(*RtMap)
	return m, ok
}

// Set returns the payload of a set value.
func (rt *Runtime) Set(v Value) (*RtSet, bool) {
	if v.kind != KindSet {
		return nil, false
	}
	s, ok := rt.Heap.Object(v).(*RtSet)
	return s, ok
}

// Function returns the payload of a function value.
func (rt *Runtime) Function(v Value) (*FunctionObject, bool) {
	if v.kind != KindFunction {
		return nil, false
	}
	f, ok := rt.Heap.Object(v).(*FunctionObject)
	return f, ok
}

// Exception returns the payload of an exception value.
func (rt *Runtime) Exception(v Value) (*ExceptionObject, bool) {
	if v.kind != KindException {
		return nil, false
	}
	e, ok := rt.Heap.Object(v).(*ExceptionObject)
	return e, ok
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// NewList allocates a list holding items.
func (rt *Runtime) NewList(items ...Value) Value {
	l := &RtList{heap: rt.Heap}
	for _, v := range items {
		l.Append(v)
	}
	return rt.Heap.Alloc(l)
}

// NewMap allocates an empty map.
func (rt *Runtime) NewMap() Value {
	return rt.Heap.Alloc(newRtMap(rt.Heap))
}

// NewSet allocates a set holding items.
func (rt *Runtime) NewSet(items ...Value) Value {
	s := newRtSet(rt.Heap)
	for _, v := range items {
		s.Add(v)
	}
	return rt.Heap.Alloc(s)
}

// NewFunction allocates a function value for c.
func (rt *Runtime) NewFunction(c Callable) Value {
	return rt.Heap.Alloc(&FunctionObject{heap: rt.Heap, Callable: c})
}

// ---------------------------------------------------------------------------
// Truthiness, copying, formatting
// ---------------------------------------------------------------------------

// Truthy implements the language's eval: undefined and null are false, a
// number is false when its truncated value is zero, a string when empty, a
// container when empty. Functions and exceptions are always true.
func (rt *Runtime) Truthy(v Value) bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindNumber:
		return math.Trunc(v.num) != 0
	case KindString:
		return v.str != ""
	case KindList:
		l, _ := rt.List(v)
		return l.Len() > 0
	case KindMap:
		m, _ := rt.Map(v)
		return m.Len() > 0
	case KindSet:
		s, _ := rt.Set(v)
		return s.Len() > 0
	}
	return true
}

// ShallowCopy returns a new value of the same kind. Containers are new
// objects sharing their elements with the original; a function copy shares
// its compiled body and captured values. Scalars are returned as is.
func (rt *Runtime) ShallowCopy(v Value) Value {
	switch v.kind {
	case KindList:
		l, _ := rt.List(v)
		return rt.NewList(l.items...)
	case KindMap:
		m, _ := rt.Map(v)
		out := newRtMap(rt.Heap)
		m.entries.Range(func(k, val Value) bool {
			out.Put(k, val)
			return true
		})
		return rt.Heap.Alloc(out)
	case KindSet:
		s, _ := rt.Set(v)
		return rt.NewSet(s.Items()...)
	case KindFunction:
		f, _ := rt.Function(v)
		u, ok := f.Callable.(*UserFunction)
		if !ok {
			return rt.NewFunction(f.Callable)
		}
		cp := &UserFunction{Proto: u.Proto, Captures: append([]Capture(nil), u.Captures...)}
		for _, c := range cp.Captures {
			if c.Bound {
				rt.Heap.Retain(c.Value)
			}
		}
		return rt.NewFunction(cp)
	case KindException:
		e, _ := rt.Exception(v)
		return rt.NewException(e.Name, e.Message)
	}
	return v
}

// formatNumber renders integral numbers without a fraction.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Format renders v the way print shows it. Strings print raw at the top
// level and quoted inside containers. A container that contains itself is
// shown as "...".
func (rt *Runtime) Format(v Value) string {
	var sb strings.Builder
	rt.format(&sb, v, false, map[Handle]bool{})
	return sb.String()
}

func (rt *Runtime) format(sb *strings.Builder, v Value, nested bool, seen map[Handle]bool) {
	switch v.kind {
	case KindString:
		if nested {
			sb.WriteString(strconv.Quote(v.str))
		} else {
			sb.WriteString(v.str)
		}
		return
	case KindUndefined, KindNull, KindNumber:
		sb.WriteString(v.String())
		return
	}

	if seen[v.ref] {
		sb.WriteString("...")
		return
	}
	seen[v.ref] = true
	defer delete(seen, v.ref)

	switch v.kind {
	case KindList:
		l, _ := rt.List(v)
		sb.WriteByte('[')
		for i, e := range l.items {
			if i > 0 {
				sb.WriteString(", ")
			}
			rt.format(sb, e, true, seen)
		}
		sb.WriteByte(']')
	case KindSet:
		s, _ := rt.Set(v)
		sb.WriteByte('{')
		for i, e := range rt.sortedForDisplay(s.Items()) {
			if i > 0 {
				sb.WriteString(", ")
			}
			rt.format(sb, e, true, seen)
		}
		sb.WriteByte('}')
	case KindMap:
		m, _ := rt.Map(v)
		if m.Len() == 0 {
			sb.WriteString("{:}")
			return
		}
		pairs := m.Pairs()
		keys := make([]Value, len(pairs))
		for i, p := range pairs {
			keys[i] = p.Key
		}
		keys = rt.sortedForDisplay(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			val, _ := m.Get(k)
			rt.format(sb, k, true, seen)
			sb.WriteString(": ")
			rt.format(sb, val, true, seen)
		}
		sb.WriteByte('}')
	case KindFunction:
		f, _ := rt.Function(v)
		_, builtin := f.Callable.(*Builtin)
		switch name := f.Callable.CallableName(); {
		case builtin:
			sb.WriteString("<builtin " + name + ">")
		case name == "":
			sb.WriteString("<function>")
		default:
			sb.WriteString("<function " + name + ">")
		}
	case KindException:
		e, _ := rt.Exception(v)
		sb.WriteString(e.Name)
		if e.Message != "" {
			sb.WriteString(": " + e.Message)
		}
	}
}

// sortedForDisplay orders hash-ordered elements so output is stable:
// numbers first by value, then strings, then everything else by handle.
func (rt *Runtime) sortedForDisplay(vs []Value) []Value {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		switch a.kind {
		case KindNumber:
			return a.num < b.num
		case KindString:
			return a.str < b.str
		}
		return a.ref.Index < b.ref.Index
	})
	return vs
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// BinaryOp applies a binary operator. Both operands have already been
// evaluated. Combinations outside the operator's table raise TypeMismatch.
func (rt *Runtime) BinaryOp(op Opcode, a, b Value) (Value, error) {
	switch op {
	case OpEQ:
		return FromBool(Equal(a, b)), nil
	case OpNE:
		return FromBool(!Equal(a, b)), nil
	case OpAnd:
		return FromBool(rt.Truthy(a) && rt.Truthy(b)), nil
	case OpOr:
		return FromBool(rt.Truthy(a) || rt.Truthy(b)), nil
	case OpAdd:
		return rt.add(a, b)
	case OpMul:
		return rt.mul(a, b)
	case OpGT, OpGE, OpLT, OpLE:
		return rt.compare(op, a, b)
	}

	if !a.IsNumber() || !b.IsNumber() {
		return Undefined, rt.typeMismatch(op.Info().Symbol, a, b)
	}
	x, y := a.num, b.num
	switch op {
	case OpSub:
		return FromNumber(x - y), nil
	case OpDiv:
		return FromNumber(x / y), nil
	case OpMod:
		return FromNumber(math.Mod(x, y)), nil
	case OpBAnd:
		return FromNumber(float64(int64(x) & int64(y))), nil
	case OpBOr:
		return FromNumber(float64(int64(x) | int64(y))), nil
	case OpBXor:
		return FromNumber(float64(int64(x) ^ int64(y))), nil
	case OpShl, OpShr:
		n := int64(y)
		if n < 0 {
			return Undefined, rt.Raise(TypeMismatch, "negative shift count %d", n)
		}
		if op == OpShl {
			return FromNumber(float64(int64(x) << uint64(n))), nil
		}
		return FromNumber(float64(int64(x) >> uint64(n))), nil
	}
	return Undefined, rt.Raise(TypeMismatch, "%s is not a binary operator", op)
}

// Not implements logical negation.
func (rt *Runtime) Not(v Value) Value {
	return FromBool(!rt.Truthy(v))
}

func (rt *Runtime) add(a, b Value) (Value, error) {
	switch {
	case a.IsNumber() && b.IsNumber():
		return FromNumber(a.num + b.num), nil
	case a.IsString() && b.IsString():
		return rt.concat(a.str, b.str)
	case a.IsString() && b.IsNumber():
		return rt.concat(a.str, formatNumber(b.num))
	case a.IsNumber() && b.IsString():
		return rt.concat(formatNumber(a.num), b.str)
	case a.kind == KindList && b.kind == KindList:
		l, _ := rt.List(a)
		r, _ := rt.List(b)
		items := make([]Value, 0, l.Len()+r.Len())
		items = append(items, l.items...)
		items = append(items, r.items...)
		return rt.NewList(items...), nil
	case a.kind == KindSet && b.kind == KindSet:
		l, _ := rt.Set(a)
		r, _ := rt.Set(b)
		out := rt.NewSet(l.Items()...)
		s, _ := rt.Set(out)
		for _, v := range r.Items() {
			s.Add(v)
		}
		return out, nil
	case a.kind == KindMap && b.kind == KindMap:
		out := rt.ShallowCopy(a)
		m, _ := rt.Map(out)
		r, _ := rt.Map(b)
		for _, p := range r.Pairs() {
			m.Put(p.Key, p.Value)
		}
		return out, nil
	}
	return Undefined, rt.typeMismatch("+", a, b)
}

func (rt *Runtime) mul(a, b Value) (Value, error) {
	switch {
	case a.IsNumber() && b.IsNumber():
		return FromNumber(a.num * b.num), nil
	case a.IsString() && b.IsNumber():
		return rt.repeat(a.str, b.num)
	case a.IsNumber() && b.IsString():
		return rt.repeat(b.str, a.num)
	}
	return Undefined, rt.typeMismatch("*", a, b)
}

// MaxStringLen is the longest string, in bytes, that concatenation or
// repetition may produce. Longer results raise IndexOutOfBounds.
const MaxStringLen = 1 << 28

func (rt *Runtime) concat(a, b string) (Value, error) {
	if len(a) > MaxStringLen-len(b) {
		return Undefined, rt.Raise(IndexOutOfBounds, "string of %d bytes exceeds the %d byte limit", len(a)+len(b), MaxStringLen)
	}
	return FromString(a + b), nil
}

func (rt *Runtime) repeat(s string, n float64) (Value, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Undefined, rt.Raise(TypeMismatch, "repeat count must be finite, not %s", formatNumber(n))
	}
	n = math.Trunc(n)
	if n < 0 {
		return Undefined, rt.Raise(TypeMismatch, "negative repeat count %s", formatNumber(n))
	}
	if s == "" {
		return FromString(""), nil
	}
	if n > float64(MaxStringLen/len(s)) {
		return Undefined, rt.Raise(IndexOutOfBounds, "repeat count %s exceeds the %d byte string limit", formatNumber(n), MaxStringLen)
	}
	return FromString(strings.Repeat(s, int(n))), nil
}

func (rt *Runtime) compare(op Opcode, a, b Value) (Value, error) {
	var c int
	switch {
	case a.IsNumber() && b.IsNumber():
		switch {
		case a.num < b.num:
			c = -1
		case a.num > b.num:
			c = 1
		case a.num == b.num:
			c = 0
		default:
			// NaN is unordered: every comparison is false.
			return FromBool(false), nil
		}
	case a.IsString() && b.IsString():
		c = strings.Compare(a.str, b.str)
	default:
		return Undefined, rt.typeMismatch(op.Info().Symbol, a, b)
	}
	switch op {
	case OpGT:
		return FromBool(c > 0), nil
	case OpGE:
		return FromBool(c >= 0), nil
	case OpLT:
		return FromBool(c < 0), nil
	}
	return FromBool(c <= 0), nil
}

// ---------------------------------------------------------------------------
// Attributes and indexing
// ---------------------------------------------------------------------------

// AttrFunc computes an attribute of a value.
type AttrFunc func(rt *Runtime, v Value) (Value, error)

// RegisterAttribute installs a read-only attribute for values of kind k.
func (rt *Runtime) RegisterAttribute(k Kind, name string, fn AttrFunc) {
	if rt.attrs[k] == nil {
		rt.attrs[k] = make(map[string]AttrFunc)
	}
	rt.attrs[k][name] = fn
}

// LoadAttr reads v.name. On a map the string key name is tried before the
// attribute table.
func (rt *Runtime) LoadAttr(v Value, name string) (Value, error) {
	if m, ok := rt.Map(v); ok {
		if val, ok := m.Get(FromString(name)); ok {
			return val, nil
		}
	}
	if fn, ok := rt.attrs[v.kind][name]; ok {
		return fn(rt, v)
	}
	return Undefined, rt.Raise(KeyNotFound, "%s has no attribute %q", v.kind, name)
}

// StoreAttr writes obj.name = val. Only maps accept attribute stores.
func (rt *Runtime) StoreAttr(obj Value, name string, val Value) error {
	m, ok := rt.Map(obj)
	if !ok {
		return rt.Raise(TypeMismatch, "cannot set attribute %q on %s", name, obj.kind)
	}
	m.Put(FromString(name), val)
	return nil
}

func (rt *Runtime) listIndex(l *RtList, idx Value) (int, error) {
	if !idx.IsNumber() {
		return 0, rt.Raise(TypeMismatch, "list index must be a number, not %s", idx.kind)
	}
	i := int(math.Trunc(idx.num))
	if i < 0 || i >= l.Len() {
		return 0, rt.Raise(IndexOutOfBounds, "list index %d out of range [0, %d)", i, l.Len())
	}
	return i, nil
}

// Index reads obj[idx]. Strings are indexed by byte: s[i] is the
// one-byte string at offset i, which splits multi-byte UTF-8 sequences.
func (rt *Runtime) Index(obj, idx Value) (Value, error) {
	switch obj.kind {
	case KindList:
		l, _ := rt.List(obj)
		i, err := rt.listIndex(l, idx)
		if err != nil {
			return Undefined, err
		}
		v, _ := l.Get(i)
		return v, nil
	case KindMap:
		m, _ := rt.Map(obj)
		v, ok := m.Get(idx)
		if !ok {
			return Undefined, rt.Raise(KeyNotFound, "key %s not found", rt.formatKey(idx))
		}
		return v, nil
	case KindSet:
		s, _ := rt.Set(obj)
		return FromBool(s.Has(idx)), nil
	case KindString:
		if !idx.IsNumber() {
			return Undefined, rt.Raise(TypeMismatch, "string index must be a number, not %s", idx.kind)
		}
		i := int(math.Trunc(idx.num))
		if i < 0 || i >= len(obj.str) {
			return Undefined, rt.Raise(IndexOutOfBounds, "string index %d out of range [0, %d)", i, len(obj.str))
		}
		return FromString(obj.str[i : i+1]), nil
	}
	return Undefined, rt.Raise(TypeMismatch, "%s is not indexable", obj.kind)
}

// StoreIndex writes obj[idx] = val.
func (rt *Runtime) StoreIndex(obj, idx, val Value) error {
	switch obj.kind {
	case KindList:
		l, _ := rt.List(obj)
		i, err := rt.listIndex(l, idx)
		if err != nil {
			return err
		}
		l.Set(i, val)
		return nil
	case KindMap:
		m, _ := rt.Map(obj)
		m.Put(idx, val)
		return nil
	}
	return rt.Raise(TypeMismatch, "%s does not support item assignment", obj.kind)
}

func (rt *Runtime) formatKey(k Value) string {
	var sb strings.Builder
	rt.format(&sb, k, true, map[Handle]bool{})
	return sb.String()
}
