// Package parser builds the ast.Expr tree the typed-IR layer consumes.
//
// This is a peripheral front end. It accepts a small, friendly infix
// surface syntax (e.g. `4 + { ... }`, `a.x`, `a[1][1] =
// 50`, `vec2(x: 10, y: 1)`) and desugars it directly into the canonical
// head-symbol shapes the typed-IR builder expects as its lowering input
// (`call`, `let`, `=`, `if`, `while`, `block`, `fun`, `struct`/`union`,
// `.`, `index`, `array`, `as`, `cbind`, `return`, `break`, and the
// intrinsic `&&`/`||`/`!` heads). The typed-IR builder never has to deal
// with operator precedence or infix sugar — by the time it sees a tree,
// everything is already in canonical form.
//
// A conventional recursive-descent layout: a cursor over tokens, one
// method per grammar rule, scaled down to this language's small
// grammar.
package parser

import (
	"fmt"

	"github.com/ril-lang/rilc/internal/ast"
	"github.com/ril-lang/rilc/internal/lexer"
	"github.com/ril-lang/rilc/internal/source"
	"github.com/ril-lang/rilc/internal/strcache"
)

// Error is a parse-time diagnostic, tagged under the Structure/LexParse
// diagnostic taxonomy.
type Error struct {
	Loc source.Location
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

// Parser converts a token stream into an ast.Expr tree.
type Parser struct {
	cache *strcache.Cache
	unit string
	toks []lexer.Token
	pos int
	errors []error
}

// Parse lexes and parses src, returning the program as a single `block`
// expression (Uncontained style) whose children are the unit's top-level
// forms — this becomes the body the IR builder wraps as `top_level`.
func Parse(cache *strcache.Cache, unit string, src string) (*ast.Expr, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{cache: cache, unit: unit, toks: toks}
	prog := p.parseProgram()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return prog, nil
}

func (p *Parser) loc(tok lexer.Token) source.Location {
	pos := source.Position{Line: tok.Pos.Line, Column: tok.Pos.Column}
	return source.Location{Unit: p.unit, Start: pos, End: pos}
}

func (p *Parser) peek() lexer.Token { return p.toks[p.pos] }
func (p *Parser) atEOF() bool { return p.peek().Type == lexer.EOF }
func (p *Parser) advance() lexer.Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) check(t lexer.Type) bool { return p.peek().Type == t }

// peekAhead looks n tokens past the current one without advancing,
// clamping to the trailing EOF token rather than indexing past it.
func (p *Parser) peekAhead(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		idx = len(p.toks) - 1
	}
	return p.toks[idx]
}

func (p *Parser) accept(t lexer.Type) (lexer.Token, bool) {
	if p.check(t) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

func (p *Parser) expect(t lexer.Type) lexer.Token {
	if tok, ok := p.accept(t); ok {
		return tok
	}
	tok := p.peek()
	p.fail(tok, fmt.Sprintf("expected %s, found %s %q", t, tok.Type, tok.Literal))
	return tok
}

func (p *Parser) fail(tok lexer.Token, msg string) {
	p.errors = append(p.errors, &Error{Loc: p.loc(tok), Message: msg})
}

func (p *Parser) sym(name string, loc source.Location) *ast.Expr {
	return ast.Sym(p.cache.Get(name), loc)
}

// parseProgram reads top-level forms until EOF. Forms may optionally be
// separated by ';'; a trailing separator is not required.
func (p *Parser) parseProgram() *ast.Expr {
	start := p.loc(p.peek())
	var items []*ast.Expr
	for !p.atEOF() {
		items = append(items, p.parseStatement())
		p.accept(lexer.Semicolon)
	}
	return ast.List(ast.Uncontained, start, items...)
}
