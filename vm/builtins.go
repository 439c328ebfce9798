package vm

import (
	"fmt"
	"strings"
)

// The runtime installs only the builtins the core itself relies on; the
// rest of the library registers through RegisterBuiltin.
func registerCoreBuiltins(rt *Runtime) {
	rt.RegisterBuiltin("print", Variadic, builtinPrint)
	rt.RegisterBuiltin("len", 1, builtinLen)
	rt.RegisterBuiltin("str", 1, func(rt *Runtime, args []Value) (Value, error) {
		return FromString(rt.Format(args[0])), nil
	})
	rt.RegisterBuiltin("type", 1, func(rt *Runtime, args []Value) (Value, error) {
		return FromString(args[0].Kind().String()), nil
	})
	rt.RegisterBuiltin("copy", 1, func(rt *Runtime, args []Value) (Value, error) {
		return rt.ShallowCopy(args[0]), nil
	})
	rt.RegisterBuiltin("Exception", 2, builtinException)
	rt.RegisterBuiltin("collect", 0, func(rt *Runtime, args []Value) (Value, error) {
		stats := rt.Heap.Collect()
		return FromNumber(float64(stats.Swept)), nil
	})
}

func builtinPrint(rt *Runtime, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = rt.Format(a)
	}
	if _, err := fmt.Fprintln(rt.Out, strings.Join(parts, " ")); err != nil {
		return Undefined, err
	}
	return Undefined, nil
}

func builtinLen(rt *Runtime, args []Value) (Value, error) {
	n, ok := rt.length(args[0])
	if !ok {
		return Undefined, rt.Raise(TypeMismatch, "%s has no length", args[0].Kind())
	}
	return FromNumber(float64(n)), nil
}

func builtinException(rt *Runtime, args []Value) (Value, error) {
	if !args[0].IsString() {
		return Undefined, rt.Raise(TypeMismatch, "exception name must be a string, not %s", args[0].Kind())
	}
	return rt.NewException(args[0].AsString(), rt.Format(args[1])), nil
}

// length counts elements; a string's length is its size in bytes, matching
// the offsets Index accepts.
func (rt *Runtime) length(v Value) (int, bool) {
	switch v.Kind() {
	case KindString:
		return len(v.str), true
	case KindList:
		l, _ := rt.List(v)
		return l.Len(), true
	case KindMap:
		m, _ := rt.Map(v)
		return m.Len(), true
	case KindSet:
		s, _ := rt.Set(v)
		return s.Len(), true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

func registerCoreAttributes(rt *Runtime) {
	length := func(rt *Runtime, v Value) (Value, error) {
		n, _ := rt.length(v)
		return FromNumber(float64(n)), nil
	}
	for _, k := range []Kind{KindString, KindList, KindMap, KindSet} {
		rt.RegisterAttribute(k, "length", length)
	}

	rt.RegisterAttribute(KindMap, "keys", func(rt *Runtime, v Value) (Value, error) {
		m, _ := rt.Map(v)
		return rt.NewList(m.Keys()...), nil
	})
	rt.RegisterAttribute(KindMap, "values", func(rt *Runtime, v Value) (Value, error) {
		m, _ := rt.Map(v)
		return rt.NewList(m.Values()...), nil
	})
	rt.RegisterAttribute(KindMap, "items", func(rt *Runtime, v Value) (Value, error) {
		m, _ := rt.Map(v)
		pairs := m.Pairs()
		items := make([]Value, len(pairs))
		for i, p := range pairs {
			items[i] = rt.NewList(p.Key, p.Value)
		}
		return rt.NewList(items...), nil
	})
	rt.RegisterAttribute(KindSet, "items", func(rt *Runtime, v Value) (Value, error) {
		s, _ := rt.Set(v)
		return rt.NewList(s.Items()...), nil
	})

	rt.RegisterAttribute(KindException, "name", func(rt *Runtime, v Value) (Value, error) {
		e, _ := rt.Exception(v)
		return FromString(e.Name), nil
	})
	rt.RegisterAttribute(KindException, "message", func(rt *Runtime, v Value) (Value, error) {
		e, _ := rt.Exception(v)
		return FromString(e.Message), nil
	})
	rt.RegisterAttribute(KindFunction, "name", func(rt *Runtime, v Value) (Value, error) {
		f, _ := rt.Function(v)
		return FromString(f.Callable.CallableName()), nil
	})
}
