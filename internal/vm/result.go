package vm

import (
	"github.com/ril-lang/rilc/internal/host"
	"github.com/ril-lang/rilc/internal/bytecode"
	"github.com/ril-lang/rilc/internal/types"
)

// BoxResult converts a unit's top_level result into the boxed host.Val
// used at the top_level boundary, using the statically inferred return
// type from typecheck.Result rather than runtime inspection of v, since
// a runtime Value's Kind can't distinguish between the sized integer
// primitives `as` treats as distinct (i8 vs i64 are both bytecode.VInt).
func BoxResult(t types.Type, v bytecode.Value) host.Val {
	if t.Kind != types.KindPrim {
		return boxUntyped(v)
	}
	switch t.Prim {
	case types.Void:
		return host.Val{Kind: host.VVoid}
	case types.Bool:
		return host.Val{Kind: host.VBool, B: v.Bool()}
	case types.I8:
		return host.Val{Kind: host.VI8, I: v.I}
	case types.I16:
		return host.Val{Kind: host.VI16, I: v.I}
	case types.I32:
		return host.Val{Kind: host.VI32, I: v.I}
	case types.I64:
		return host.Val{Kind: host.VI64, I: v.I}
	case types.U8:
		return host.Val{Kind: host.VU8, I: v.I}
	case types.U16:
		return host.Val{Kind: host.VU16, I: v.I}
	case types.U32:
		return host.Val{Kind: host.VU32, I: v.I}
	case types.U64:
		return host.Val{Kind: host.VU64, I: v.I}
	case types.F32:
		return host.Val{Kind: host.VF32, F: v.F}
	case types.F64:
		return host.Val{Kind: host.VF64, F: v.F}
	}
	return boxUntyped(v)
}

// boxUntyped handles array(T)/ptr(T)/struct results — not named in
// boxed-result table, but a top_level is free to return
// any type, and a byte-array result is the conventional string
// encoding (see calls.go's arrayAsString) worth rendering as VString
// rather than dropping.
func boxUntyped(v bytecode.Value) host.Val {
	if v.Kind == bytecode.VArray {
		if s, ok := arrayAsString(v.Arr); ok {
			return host.Val{Kind: host.VString, S: s}
		}
	}
	return host.Val{Kind: host.VVoid}
}
