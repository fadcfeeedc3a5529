package bytecode

import (
	"strings"
	"testing"

	"github.com/ril-lang/rilc/internal/parser"
	"github.com/ril-lang/rilc/internal/strcache"
	"github.com/ril-lang/rilc/internal/typecheck"
)

func compileSrc(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := parser.Parse(strcache.New(), "test", src)
	if err != nil {
		t.Fatalf("parser.Parse returned error: %v", err)
	}
	res := typecheck.CheckUnit(1, prog, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected type errors: %v", res.Errors)
	}
	c := NewCompiler(res.Graph, res.Registry)
	program, err := c.Compile(res.Top)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	return program
}

func TestCompileArithmeticProducesSingleChunk(t *testing.T) {
	prog := compileSrc(t, `1 + 2 * 3`)
	top, ok := prog.Functions[prog.TopLevel]
	if !ok {
		t.Fatal("no chunk for the top_level function")
	}
	if len(top.Code) == 0 {
		t.Error("top_level chunk has no instructions")
	}
}

func TestCompileNestedFunctionDiscoveredBreadthFirst(t *testing.T) {
	prog := compileSrc(t, `
fun add(a: i64, b: i64) -> i64 {
	return a + b
}
add(1, 2)
`)
	if len(prog.Functions) != 2 {
		t.Fatalf("got %d compiled functions, want 2 (top_level, add)", len(prog.Functions))
	}
}

func TestCompileGlobalLetAllocatesSlot(t *testing.T) {
	prog := compileSrc(t, `let x = 10
x`)
	if prog.GlobalCount != 1 {
		t.Fatalf("got GlobalCount %d, want 1", prog.GlobalCount)
	}
	if len(prog.GlobalNames) != 1 || prog.GlobalNames[0] != "x" {
		t.Fatalf("got GlobalNames %v, want [\"x\"]", prog.GlobalNames)
	}
}

func TestDisassembleProducesReadableListing(t *testing.T) {
	prog := compileSrc(t, `1 + 2`)
	out := Disassemble(prog)
	if !strings.Contains(out, "top_level") {
		t.Errorf("disassembly %q does not mention top_level", out)
	}
}
