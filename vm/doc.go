// Package vm implements the ember runtime.
//
// This package contains:
//   - the tagged Value representation and its operators
//   - heap objects: lists, maps, sets, functions and exceptions
//   - the Heap: an index-stable arena with reference counts, a zero-count
//     table and a mark-and-sweep collector for cycles
//   - ByteCode and ByteCodeList, the compiler's output
//   - the Interpreter, its call frames and exception handler stack
//   - Runtime, the per-process context holding builtins and attributes
package vm
