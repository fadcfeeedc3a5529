package parser

import (
	"testing"

	"github.com/ril-lang/rilc/internal/ast"
	"github.com/ril-lang/rilc/internal/strcache"
)

func parse(t *testing.T, src string) *ast.Expr {
	t.Helper()
	prog, err := Parse(strcache.New(), "test", src)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", src, err)
	}
	return prog
}

func TestParseLetAndArithmetic(t *testing.T) {
	prog := parse(t, "let x = 1 + 2 * 3")
	if len(prog.Items) != 1 {
		t.Fatalf("got %d top-level items, want 1", len(prog.Items))
	}
	head, ok := prog.Items[0].Head()
	if !ok || head != "let" {
		t.Fatalf("got head %q, want \"let\"", head)
	}
	tail := prog.Items[0].Tail()
	if len(tail) != 2 {
		t.Fatalf("let has %d tail items, want 2", len(tail))
	}
	rhsHead, ok := tail[1].Head()
	if !ok || rhsHead != "call" {
		t.Fatalf("rhs head = %q, want \"call\"", rhsHead)
	}
	rhsTail := tail[1].Tail()
	if len(rhsTail) != 3 || !rhsTail[0].IsSymbol("+") {
		t.Fatalf("rhs is not a call of \"+\" with two operands")
	}
	// precedence: `1 + 2 * 3` must parse as `1 + (2 * 3)`, not `(1 + 2) * 3`.
	mulHead, ok := rhsTail[2].Head()
	mulTail := rhsTail[2].Tail()
	if !ok || mulHead != "call" || len(mulTail) == 0 || !mulTail[0].IsSymbol("*") {
		t.Fatalf("rhs second operand is not a call of \"*\" (precedence violated)")
	}
}

func TestParseFunctionDefinitionAndCall(t *testing.T) {
	prog := parse(t, `
fun add(a: i64, b: i64) -> i64 {
	return a + b
}
add(1, 2)
`)
	if len(prog.Items) != 2 {
		t.Fatalf("got %d top-level items, want 2", len(prog.Items))
	}
	if h, _ := prog.Items[0].Head(); h != "fun" {
		t.Errorf("first item head = %q, want \"fun\"", h)
	}
	if h, _ := prog.Items[1].Head(); h != "call" {
		t.Errorf("second item head = %q, want \"call\"", h)
	}
}

func TestParseCBindFunctionSignature(t *testing.T) {
	prog := parse(t, `cbind add : fun(i64, i64) -> i64`)
	if len(prog.Items) != 1 {
		t.Fatalf("got %d top-level items, want 1", len(prog.Items))
	}
	item := prog.Items[0]
	if h, _ := item.Head(); h != "cbind" {
		t.Fatalf("head = %q, want \"cbind\"", h)
	}
	tail := item.Tail()
	if len(tail) != 3 {
		t.Fatalf("cbind has %d tail items, want 3", len(tail))
	}
	tyHead, ok := tail[2].Head()
	if !ok || tyHead != "fun" {
		t.Fatalf("type expr head = %q, want \"fun\"", tyHead)
	}
	tyTail := tail[2].Tail()
	if len(tyTail) != 2 {
		t.Fatalf("fun type has %d tail items, want 2 (arg list, return type)", len(tyTail))
	}
	argList := tyTail[0]
	if len(argList.Items) != 2 {
		t.Fatalf("got %d args, want 2", len(argList.Items))
	}
}

func TestParseCBindForeignGlobal(t *testing.T) {
	prog := parse(t, `cbind counter : i64`)
	item := prog.Items[0]
	tail := item.Tail()
	if !tail[2].IsSymbol("i64") {
		t.Fatalf("expected a bare i64 type reference for a non-function cbind")
	}
}

func TestParseStructLiteralAndFieldAccess(t *testing.T) {
	prog := parse(t, `let v = Vec2(x: 1, y: 2)
v.x`)
	if len(prog.Items) != 2 {
		t.Fatalf("got %d top-level items, want 2", len(prog.Items))
	}
	if h, _ := prog.Items[1].Head(); h != "." {
		t.Errorf("field access head = %q, want \".\"", h)
	}
}

func TestParseArrayLiteralAndIndex(t *testing.T) {
	prog := parse(t, `let a = [1, 2, 3]
a[0]`)
	if h, _ := prog.Items[1].Head(); h != "index" {
		t.Errorf("index expr head = %q, want \"index\"", h)
	}
}

func TestParseWhileAndIf(t *testing.T) {
	prog := parse(t, `
while x < 5 {
	x = x + 1
}
if x == 5 { 1 } else { 0 }
`)
	if h, _ := prog.Items[0].Head(); h != "while" {
		t.Errorf("first item head = %q, want \"while\"", h)
	}
	if h, _ := prog.Items[1].Head(); h != "if" {
		t.Errorf("second item head = %q, want \"if\"", h)
	}
}

func TestParseReportsSyntaxError(t *testing.T) {
	_, err := Parse(strcache.New(), "test", `let x = `)
	if err == nil {
		t.Fatal("expected a parse error for a let with no initializer")
	}
	if _, ok := err.(*Error); !ok {
		t.Errorf("got error of type %T, want *Error", err)
	}
}
