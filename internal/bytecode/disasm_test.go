package bytecode

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/ril-lang/rilc/internal/parser"
	"github.com/ril-lang/rilc/internal/strcache"
	"github.com/ril-lang/rilc/internal/typecheck"
)

func disassembleSrc(t *testing.T, src string) string {
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
	return Disassemble(program)
}

// TestDisassembleArithmeticSnapshot pins the exact opcode stream emitted
// for a unit whose entire body is a single arithmetic expression,
// catching accidental instruction-selection or operand-encoding drift.
func TestDisassembleArithmeticSnapshot(t *testing.T) {
	out := disassembleSrc(t, `1 + 2 * 3`)
	snaps.MatchSnapshot(t, out)
}

// TestDisassembleFunctionCallSnapshot pins the listing for a unit with a
// user function plus a call site, covering OpCallFunction's operand
// shape and the function-handle pool.
func TestDisassembleFunctionCallSnapshot(t *testing.T) {
	out := disassembleSrc(t, `
fun add(a: i64, b: i64) -> i64 {
	return a + b
}
add(1, 2)
`)
	snaps.MatchSnapshot(t, out)
}

// TestDisassembleControlFlowSnapshot pins the jump/label encoding for
// while loops and if/else, the two structures with nontrivial
// patch-and-backfill jump targets.
func TestDisassembleControlFlowSnapshot(t *testing.T) {
	out := disassembleSrc(t, `
let i = 0
while i < 3 {
	i = i + 1
}
if i == 3 { 1 } else { 0 }
`)
	snaps.MatchSnapshot(t, out)
}
