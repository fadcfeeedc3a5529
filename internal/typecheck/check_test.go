package typecheck

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ril-lang/rilc/internal/parser"
	"github.com/ril-lang/rilc/internal/strcache"
	"github.com/ril-lang/rilc/internal/types"
)

func checkSrc(t *testing.T, src string) *Result {
	t.Helper()
	prog, err := parser.Parse(strcache.New(), "test", src)
	if err != nil {
		t.Fatalf("parser.Parse returned error: %v", err)
	}
	return CheckUnit(1, prog, nil)
}

func TestCheckUnitInfersArithmeticType(t *testing.T) {
	res := checkSrc(t, `1 + 2`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	ty, ok := res.Graph.NodeType[res.Top]
	if !ok {
		t.Fatal("top-level node has no resolved type")
	}
	_ = ty
}

func TestCheckUnitRejectsMismatchedOperands(t *testing.T) {
	res := checkSrc(t, `1 + true`)
	if len(res.Errors) == 0 {
		t.Fatal("expected a type error for i64 + bool")
	}
}

func TestCheckUnitMonomorphicFunctionResolves(t *testing.T) {
	res := checkSrc(t, `
fun add(a: i64, b: i64) -> i64 {
	return a + b
}
add(1, 2)
`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	defs := res.Registry.FunctionsNamed("add")
	if len(defs) != 1 {
		t.Fatalf("got %d definitions named add, want 1", len(defs))
	}
}

func TestCheckUnitGenericFunctionRecordsPolyRefs(t *testing.T) {
	res := checkSrc(t, `
fun identity(x) {
	return x
}
identity(true)
identity(1)
`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.PolyRefs) < 2 {
		t.Fatalf("got %d poly refs, want at least 2 (one per call site)", len(res.PolyRefs))
	}
}

func TestCheckUnitStructFieldAccess(t *testing.T) {
	res := checkSrc(t, `
struct Vec2 {
	x: i64,
	y: i64
}
let v = Vec2(x: 1, y: 2)
v.x + v.y
`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if _, ok := res.Registry.LookupType("Vec2"); !ok {
		t.Fatal("struct Vec2 was not registered")
	}
}

func TestCheckUnitUnknownFieldIsError(t *testing.T) {
	res := checkSrc(t, `
struct Vec2 {
	x: i64,
	y: i64
}
let v = Vec2(x: 1, y: 2)
v.z
`)
	if len(res.Errors) == 0 {
		t.Fatal("expected an error for an unknown field name")
	}
}

func TestCheckUnitImportsDependencyRegistry(t *testing.T) {
	base := checkSrc(t, `let shared = 100`)
	if len(base.Errors) != 0 {
		t.Fatalf("unexpected errors in base unit: %v", base.Errors)
	}

	prog, err := parser.Parse(strcache.New(), "dependent", `shared + 1`)
	if err != nil {
		t.Fatalf("parser.Parse returned error: %v", err)
	}
	res := CheckUnit(2, prog, []*types.Registry{base.Registry})
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors in dependent unit: %v", res.Errors)
	}
}

// TestCheckUnitMonomorphicInstanceSignatureShape uses go-cmp to diff the
// concrete signature recorded in a call site's PolyRef (the instance the
// unit manager later materializes) against the expected structural
// shape, rather than field-by-field assertions — useful here because a
// signature mismatch (wrong arg order, a leftover generic slot) is much
// easier to read as a structural diff than as a chain of t.Errorf calls.
func TestCheckUnitMonomorphicInstanceSignatureShape(t *testing.T) {
	res := checkSrc(t, `
fun pick(a, b) {
	return a
}
pick(1, 2)
`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	var concrete *types.FunctionSignature
	for _, ref := range res.PolyRefs {
		if def, ok := res.Registry.Function(ref.DefID); ok && def.Name == "pick" {
			concrete = ref.Signature
		}
	}
	if concrete == nil {
		t.Fatal("no polymorphic reference to pick was recorded")
	}
	want := &types.FunctionSignature{
		Args: []types.Type{types.PrimType(types.I64), types.PrimType(types.I64)},
		Return: types.PrimType(types.I64),
	}
	if diff := cmp.Diff(want, concrete); diff != "" {
		t.Errorf("concrete signature mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckUnitQuoteTypeIsPointerToExpr(t *testing.T) {
	res := checkSrc(t, `let e = '(1 + 2)`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	g, ok := res.Registry.Globals["e"]
	if !ok {
		t.Fatal("global e was not registered")
	}
	if g.Type.Kind != types.KindPtr || g.Type.Elem.Kind != types.KindExpr {
		t.Errorf("got type %s, want ptr(expr)", g.Type)
	}
}

func TestCheckUnitSpliceOfQuoteTypeChecks(t *testing.T) {
	res := checkSrc(t, `
let e = '(1 + 2)
$e
`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestCheckUnitForeignBindingWithSignature(t *testing.T) {
	res := checkSrc(t, `
cbind test_add : fun(i64, i64) -> i64
test_add(1, 2)
`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	defs := res.Registry.FunctionsNamed("test_add")
	if len(defs) != 1 {
		t.Fatalf("got %d definitions named test_add, want 1", len(defs))
	}
	if defs[0].Impl != types.ImplForeign {
		t.Errorf("got impl kind %v, want ImplForeign", defs[0].Impl)
	}
	if len(defs[0].Signature.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(defs[0].Signature.Args))
	}
}
