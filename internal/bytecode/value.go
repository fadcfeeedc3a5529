package bytecode

import "fmt"

// ValueKind tags a runtime Value.
type ValueKind byte

const (
	VVoid ValueKind = iota
	VBool
	VInt
	VFloat
	VArray
	VStruct
	VFuncRef
)

// Value is the VM's runtime representation. Primitive values (Bool,
// Int, Float) are copied by value, matching "primitive
// values are copied by value"; Array and Struct hold a Go pointer to a
// shared, mutable instance, so assignment copies the handle, never the
// contents — the same plain-pointer
// sharing the ArrayInstance/ObjectInstance use, with no
// manual reference counting: Go's garbage collector already reclaims
// unreachable (including cyclic) containers, which is strictly more
// than "reference cycles leak" caveat requires of a
// non-GC host.
type Value struct {
	Kind ValueKind
	I int64
	F float64
	Arr *ArrayInstance
	St *StructInstance
	Func FuncRef
}

// FuncRef is a first-class function value: the compiled form of
// internal/ir's KindFunctionReference, and what OpCallFirstClassFunction
// expects on top of stack.
type FuncRef struct {
	Kind FuncKind
	Name string // for Foreign (host table lookup by name)
	Handle uint64
}

func VoidValue() Value { return Value{Kind: VVoid} }
func BoolValue(b bool) Value { return Value{Kind: VBool, I: boolToInt(b)} }
func IntValue(i int64) Value { return Value{Kind: VInt, I: i} }
func FloatValue(f float64) Value { return Value{Kind: VFloat, F: f} }
func ArrayValue(a *ArrayInstance) Value { return Value{Kind: VArray, Arr: a} }
func StructValue(s *StructInstance) Value { return Value{Kind: VStruct, St: s} }
func FuncRefValue(r FuncRef) Value { return Value{Kind: VFuncRef, Func: r} }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) Bool() bool { return v.I != 0 }

func (v Value) String() string {
	switch v.Kind {
	case VVoid:
		return "()"
	case VBool:
		return fmt.Sprintf("%t", v.Bool())
	case VInt:
		return fmt.Sprintf("%d", v.I)
	case VFloat:
		return fmt.Sprintf("%g", v.F)
	case VArray:
		return fmt.Sprintf("array[%d]", len(v.Arr.Elems))
	case VStruct:
		return fmt.Sprintf("%s{...}", v.St.TypeName)
	case VFuncRef:
		return fmt.Sprintf("<fn %s>", v.Func.Name)
	}
	return "?"
}

// ArrayInstance is a shared, mutable, growable array — also the backing
// store for a `ptr(T)` value (see compiler.go's doc comment on the
// Index/*/& intrinsics): a pointer is modeled as a one-element array
// plus an implicit index of 0, so pointer dereference reuses
// OpArrayIndex rather than needing a second heap-value shape.
type ArrayInstance struct {
	Elems []Value
}

func NewArrayInstance(elems []Value) *ArrayInstance {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return &ArrayInstance{Elems: cp}
}

// StructInstance is a shared, mutable struct or union instance.
// TypeName is the nominal type it was constructed as; a union keeps
// exactly one live field at a time, addressed the same way a struct's
// fields are (internal/types.Definition.FieldIndex gives the slot).
type StructInstance struct {
	TypeName string
	Fields []Value
}

func NewStructInstance(typeName string, fieldCount int) *StructInstance {
	return &StructInstance{TypeName: typeName, Fields: make([]Value, fieldCount)}
}
