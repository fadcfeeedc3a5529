// Package types implements the language's type representations: the
// fixed primitive set, structural compound types (arrays,
// pointers, function signatures), and nominal type definitions (structs
// and unions).
//
// Type representation, equality, and the named-type registry are kept
// together in one package, the way a compiler's core type module
// typically does.
package types

import (
	"fmt"
	"strings"
)

// Prim enumerates the fixed primitive type set.
type Prim int

const (
	Void Prim = iota
	Bool
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
)

var primNames = map[Prim]string{
	Void: "void", Bool: "bool",
	I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64",
}

func (p Prim) String() string { return primNames[p] }

// IsInteger reports whether p belongs to the Integer numeric class.
func (p Prim) IsInteger() bool {
	switch p {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	}
	return false
}

// IsFloat reports whether p belongs to the Float numeric class.
func (p Prim) IsFloat() bool { return p == F32 || p == F64 }

// IsNumeric reports membership in either numeric class.
func (p Prim) IsNumeric() bool { return p.IsInteger() || p.IsFloat() }

// PrimFromName maps a source-level primitive name to its Prim, or
// reports ok=false for a name that isn't a primitive (a named type).
func PrimFromName(name string) (Prim, bool) {
	for p, n := range primNames {
		if n == name {
			return p, true
		}
	}
	return Void, false
}

// Kind discriminates the shape of a Type value.
type Kind int

const (
	KindPrim Kind = iota
	KindGeneric
	KindFun
	KindDef
	KindArray
	KindPtr
	// KindExpr is the pseudo-type of a quoted expression handle: never
	// produced by surface syntax directly, only by the quote operator
	// and always wrapped as ptr(expr) (see ExprType).
	KindExpr
)

// GenericID names one generic type variable, scoped to the function
// definition (or generic intrinsic) that introduced it. Allocated from a
// single process-wide counter so a user function's implicit generic can
// never collide with one of the preloaded intrinsics' generic ids.
type GenericID uint64

var nextGenericID uint64

// NewGenericID allocates a fresh, globally unique generic id.
func NewGenericID() GenericID {
	nextGenericID++
	return GenericID(nextGenericID)
}

// Type is the sum type over every shape a value's type can take.
// Structural types (Fun, Array, Ptr, Prim, Generic) compare by
// structure; Def compares nominally, by name only.
type Type struct {
	Kind Kind
	Prim Prim
	Gen GenericID
	Fun *FunctionSignature // set iff Kind == KindFun
	Def string // set iff Kind == KindDef
	Elem *Type // set iff Kind == KindArray || Kind == KindPtr
}

// FunctionSignature is a function's type: its argument types in order
// and its return type. Two signatures are equal iff every component is.
type FunctionSignature struct {
	Args []Type
	Return Type
}

func PrimType(p Prim) Type { return Type{Kind: KindPrim, Prim: p} }
func GenericType(g GenericID) Type { return Type{Kind: KindGeneric, Gen: g} }
func DefType(name string) Type { return Type{Kind: KindDef, Def: name} }
func ArrayType(elem Type) Type { return Type{Kind: KindArray, Elem: &elem} }
func PtrType(elem Type) Type { return Type{Kind: KindPtr, Elem: &elem} }
func FunType(sig *FunctionSignature) Type {
	return Type{Kind: KindFun, Fun: sig}
}

// ExprType is the quoted-expression pseudo-type: a quote operator's
// result is always typed ptr(ExprType()), never ExprType() bare, since
// the VM boxes it as a one-element array the same way `&x` boxes a
// value (internal/bytecode's compileQuote).
func ExprType() Type { return Type{Kind: KindExpr} }

// Equal reports structural equality for Prim/Generic/Array/Ptr/Fun
// types, and name equality (nominal identity) for Def types — the one
// deliberate exception to structural equality.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindPrim:
		return t.Prim == other.Prim
	case KindGeneric:
		return t.Gen == other.Gen
	case KindDef:
		return t.Def == other.Def
	case KindArray, KindPtr:
		return t.Elem.Equal(*other.Elem)
	case KindFun:
		return t.Fun.Equal(other.Fun)
	case KindExpr:
		return true
	}
	return false
}

// Equal reports whether two function signatures match exactly: same
// arity, same argument types in order, same return type.
func (s *FunctionSignature) Equal(other *FunctionSignature) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Args) != len(other.Args) || !s.Return.Equal(other.Return) {
		return false
	}
	for i := range s.Args {
		if !s.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	switch t.Kind {
	case KindPrim:
		return t.Prim.String()
	case KindGeneric:
		return fmt.Sprintf("@%d", t.Gen)
	case KindDef:
		return t.Def
	case KindArray:
		return fmt.Sprintf("array(%s)", t.Elem)
	case KindPtr:
		return fmt.Sprintf("ptr(%s)", t.Elem)
	case KindFun:
		args := make([]string, len(t.Fun.Args))
		for i, a := range t.Fun.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("fun(%s) => %s", strings.Join(args, ", "), t.Fun.Return)
	case KindExpr:
		return "expr"
	}
	return "<invalid type>"
}

// DefKind discriminates a named type definition's layout rule: struct
// fields are all live simultaneously, union fields are mutually
// exclusive alternatives sharing one storage slot.
type DefKind int

const (
	DefStruct DefKind = iota
	DefUnion
)

func (k DefKind) String() string {
	if k == DefUnion {
		return "union"
	}
	return "struct"
}

// Field is one named, typed member of a struct or union definition.
type Field struct {
	Name string
	Type Type
}

// Definition is a nominal struct or union type: its fields in
// declaration order, plus the optional Drop/Clone hooks that run on
// heap-value destruction and copy-on-assign respectively.
type Definition struct {
	Name string
	Kind DefKind
	Fields []Field
	DropFunction *FunctionID
	CloneFunction *FunctionID
}

// FieldIndex returns the declaration-order index of name, or ok=false.
func (d *Definition) FieldIndex(name string) (int, bool) {
	for i, f := range d.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// FunctionID identifies a function definition by handle rather than by
// name, since overload sets share a name but never a handle.
type FunctionID uint64
