package vm

import (
	"bytes"
	"testing"

	"github.com/ril-lang/rilc/internal/bytecode"
	"github.com/ril-lang/rilc/internal/host"
	"github.com/ril-lang/rilc/internal/parser"
	"github.com/ril-lang/rilc/internal/strcache"
	"github.com/ril-lang/rilc/internal/typecheck"
	"github.com/ril-lang/rilc/internal/types"
)

func runSrc(t *testing.T, src string) (host.Val, error) {
	t.Helper()
	prog, err := parser.Parse(strcache.New(), "test", src)
	if err != nil {
		t.Fatalf("parser.Parse returned error: %v", err)
	}
	res := typecheck.CheckUnit(1, prog, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected type errors: %v", res.Errors)
	}
	c := bytecode.NewCompiler(res.Graph, res.Registry)
	program, err := c.Compile(res.Top)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	table := host.NewTable(&bytes.Buffer{})
	v := New(program, table)
	result, err := v.Run()
	if err != nil {
		return host.Val{}, err
	}
	topDef, ok := res.Registry.Function(res.Graph.Node(res.Top).Function)
	if !ok {
		t.Fatal("top_level has no registered signature")
	}
	return BoxResult(topDef.Signature.Return, result), nil
}

func TestRunArithmeticPrecedence(t *testing.T) {
	val, err := runSrc(t, `1 + 2 * 3`)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := val.String(); got != "7" {
		t.Errorf("got %q, want %q", got, "7")
	}
}

func TestRunDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := runSrc(t, `let z = 0
1 / z`)
	if err == nil {
		t.Fatal("expected a runtime error for division by zero")
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Errorf("got error of type %T, want *RuntimeError", err)
	}
}

func TestRunWhileLoopAccumulates(t *testing.T) {
	val, err := runSrc(t, `
let i = 0
let total = 0
while i < 5 {
	total = total + i
	i = i + 1
}
total
`)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := val.String(); got != "10" {
		t.Errorf("got %q, want %q", got, "10")
	}
}

func TestRunComparisonProducesBool(t *testing.T) {
	val, err := runSrc(t, `3 < 5`)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := val.String(); got != "true" {
		t.Errorf("got %q, want %q", got, "true")
	}
}

func TestRunForeignCallDispatchesThroughHostTable(t *testing.T) {
	val, err := runSrc(t, `
cbind test_add : fun(i64, i64) -> i64
test_add(3, 4)
`)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := val.String(); got != "7" {
		t.Errorf("got %q, want %q", got, "7")
	}
}

func TestRunQuoteAndSpliceRoundTrip(t *testing.T) {
	_, err := runSrc(t, `
let e = '(1 + 2)
$e
`)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestSeedGlobalAndGlobalByName(t *testing.T) {
	baseProg, err := parser.Parse(strcache.New(), "base", `let x = 1`)
	if err != nil {
		t.Fatalf("parser.Parse returned error: %v", err)
	}
	baseRes := typecheck.CheckUnit(1, baseProg, nil)
	if len(baseRes.Errors) != 0 {
		t.Fatalf("unexpected type errors: %v", baseRes.Errors)
	}

	depProg, err := parser.Parse(strcache.New(), "dependent", `x`)
	if err != nil {
		t.Fatalf("parser.Parse returned error: %v", err)
	}
	depRes := typecheck.CheckUnit(2, depProg, []*types.Registry{baseRes.Registry})
	if len(depRes.Errors) != 0 {
		t.Fatalf("unexpected type errors: %v", depRes.Errors)
	}
	c := bytecode.NewCompiler(depRes.Graph, depRes.Registry)
	program, err := c.Compile(depRes.Top)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	table := host.NewTable(&bytes.Buffer{})
	v := New(program, table)
	v.SeedGlobal("x", bytecode.IntValue(99))
	result, err := v.Run()
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := result.String(); got != "99" {
		t.Errorf("Run() = %q, want %q (seeded global was not picked up)", got, "99")
	}
	if got, ok := v.GlobalByName("x"); !ok || got.String() != "99" {
		t.Errorf("GlobalByName(\"x\") = %v, %v", got, ok)
	}
}
