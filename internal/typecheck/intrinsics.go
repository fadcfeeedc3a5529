package typecheck

import (
	"github.com/ril-lang/rilc/internal/source"
	"github.com/ril-lang/rilc/internal/types"
)

// NewIntrinsicsRegistry builds the registry every unit implicitly
// imports: one monomorphic overload of each arithmetic/comparison
// operator per numeric primitive, plus the generic Index/*/& operators.
// Arithmetic ops are NOT written as a single generic "Integer"/"Float"-
// class signature — they are plain concrete overloads, one per numeric
// primitive, and overload resolution (functionCallConstraint, phase 1)
// picks the exact match once a literal's numeric class has defaulted to
// a concrete width.
func NewIntrinsicsRegistry() *types.Registry {
	reg := types.NewRegistry(0)
	numeric := []types.Prim{
		types.I8, types.I16, types.I32, types.I64,
		types.U8, types.U16, types.U32, types.U64,
		types.F32, types.F64,
	}
	for _, p := range numeric {
		t := types.PrimType(p)
		reg.DeclareFunction("-", &types.FunctionSignature{Args: []types.Type{t}, Return: t}, nil, types.ImplIntrinsic, source.Zero)
		for _, name := range []string{"+", "-", "*", "/"} {
			reg.DeclareFunction(name, &types.FunctionSignature{Args: []types.Type{t, t}, Return: t}, nil, types.ImplIntrinsic, source.Zero)
		}
		boolT := types.PrimType(types.Bool)
		for _, name := range []string{"==", "!=", "<", ">", "<=", ">="} {
			reg.DeclareFunction(name, &types.FunctionSignature{Args: []types.Type{t, t}, Return: boolT}, nil, types.ImplIntrinsic, source.Zero)
		}
	}

	// Generic Index(ptr(T), i64) -> T, and pointer * / & (dereference /
	// address-of), each with their own fresh generic id.
	{
		gid := types.NewGenericID()
		gt := types.GenericType(gid)
		gptr := types.PtrType(gt)
		reg.DeclareFunction("Index",
			&types.FunctionSignature{Args: []types.Type{gptr, types.PrimType(types.I64)}, Return: gt},
			[]types.GenericID{gid}, types.ImplIntrinsic, source.Zero)
	}
	{
		gid := types.NewGenericID()
		gt := types.GenericType(gid)
		gptr := types.PtrType(gt)
		reg.DeclareFunction("*",
			&types.FunctionSignature{Args: []types.Type{gptr}, Return: gt},
			[]types.GenericID{gid}, types.ImplIntrinsic, source.Zero)
	}
	{
		gid := types.NewGenericID()
		gt := types.GenericType(gid)
		gptr := types.PtrType(gt)
		reg.DeclareFunction("&",
			&types.FunctionSignature{Args: []types.Type{gt}, Return: gptr},
			[]types.GenericID{gid}, types.ImplIntrinsic, source.Zero)
	}
	return reg
}

// Import merges src's declarations into dst.
func Import(dst, src *types.Registry) {
	for name, def := range src.TypeDefs {
		dst.TypeDefs[name] = def
	}
	for name, defs := range src.ByName {
		for _, id := range defs {
			def := src.Functions[id]
			dst.Functions[id] = def
			dst.ByName[name] = append(dst.ByName[name], id)
		}
	}
	for name, g := range src.Globals {
		dst.Globals[name] = g
	}
}
