package parser

import (
	"strconv"

	"github.com/ril-lang/rilc/internal/ast"
	"github.com/ril-lang/rilc/internal/lexer"
	"github.com/ril-lang/rilc/internal/source"
)

// parseStatement parses one top-level-or-block form: a declaration
// (struct/union/fun/cbind), a control form (let/return/while/if/break),
// a nested block, or a plain expression optionally followed by `= value`.
func (p *Parser) parseStatement() *ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case lexer.Ident:
		switch tok.Literal {
		case "let":
			return p.parseLet()
		case "return":
			return p.parseReturn()
		case "while":
			return p.parseWhile()
		case "if":
			return p.parseIf()
		case "break":
			p.advance()
			return ast.List(ast.Paren, p.loc(tok), p.sym("break", p.loc(tok)))
		case "struct":
			return p.parseTypeDef("struct")
		case "union":
			return p.parseTypeDef("union")
		case "fun":
			return p.parseFun()
		case "cbind":
			return p.parseCBind()
		}
	case lexer.LBrace:
		return p.parseBlock()
	}
	return p.parseExprOrAssignment()
}

func (p *Parser) parseExprOrAssignment() *ast.Expr {
	loc := p.loc(p.peek())
	lhs := p.parseExpr(0)
	if _, ok := p.accept(lexer.Eq); ok {
		rhs := p.parseExpr(0)
		return ast.List(ast.Paren, loc, p.sym("=", loc), lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseLet() *ast.Expr {
	tok := p.advance() // 'let'
	loc := p.loc(tok)
	nameTok := p.expect(lexer.Ident)
	p.expect(lexer.Eq)
	value := p.parseExpr(0)
	return ast.List(ast.Paren, loc, p.sym("let", loc), p.sym(nameTok.Literal, p.loc(nameTok)), value)
}

func (p *Parser) parseReturn() *ast.Expr {
	tok := p.advance() // 'return'
	loc := p.loc(tok)
	if p.atStatementEnd() {
		return ast.List(ast.Paren, loc, p.sym("return", loc))
	}
	value := p.parseExpr(0)
	return ast.List(ast.Paren, loc, p.sym("return", loc), value)
}

func (p *Parser) atStatementEnd() bool {
	switch p.peek().Type {
	case lexer.Semicolon, lexer.RBrace, lexer.EOF:
		return true
	}
	return false
}

func (p *Parser) parseWhile() *ast.Expr {
	tok := p.advance() // 'while'
	loc := p.loc(tok)
	cond := p.parseExpr(0)
	body := p.parseBlock()
	return ast.List(ast.Paren, loc, p.sym("while", loc), cond, body)
}

func (p *Parser) parseIf() *ast.Expr {
	tok := p.advance() // 'if'
	loc := p.loc(tok)
	cond := p.parseExpr(0)
	then := p.parseBlock()
	items := []*ast.Expr{p.sym("if", loc), cond, then}
	if p.peek().Type == lexer.Ident && p.peek().Literal == "else" {
		p.advance()
		if p.peek().Type == lexer.Ident && p.peek().Literal == "if" {
			items = append(items, p.parseIf())
		} else {
			items = append(items, p.parseBlock())
		}
	}
	return ast.List(ast.Paren, loc, items...)
}

func (p *Parser) parseBlock() *ast.Expr {
	tok := p.expect(lexer.LBrace)
	loc := p.loc(tok)
	var items []*ast.Expr
	for !p.check(lexer.RBrace) && !p.atEOF() {
		items = append(items, p.parseStatement())
		p.accept(lexer.Semicolon)
	}
	p.expect(lexer.RBrace)
	return ast.List(ast.Brace, loc, append([]*ast.Expr{p.sym("block", loc)}, items...)...)
}

// parseTypeDef parses `struct Name { field: Type, ... }` or the union form.
func (p *Parser) parseTypeDef(keyword string) *ast.Expr {
	tok := p.advance() // 'struct' / 'union'
	loc := p.loc(tok)
	name := p.expect(lexer.Ident)
	p.expect(lexer.LBrace)
	items := []*ast.Expr{p.sym(keyword, loc), p.sym(name.Literal, p.loc(name))}
	for !p.check(lexer.RBrace) && !p.atEOF() {
		fieldTok := p.expect(lexer.Ident)
		p.expect(lexer.Colon)
		fieldType := p.parseTypeExpr()
		items = append(items, ast.List(ast.Paren, p.loc(fieldTok),
			p.sym(fieldTok.Literal, p.loc(fieldTok)), fieldType))
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
	}
	p.expect(lexer.RBrace)
	return ast.List(ast.Paren, loc, items...)
}

// parseTypeExpr parses a type reference: a bare name (`i64`, `Vec2`), a
// generic-looking application (`ptr(T)`, `array(T)`), or a function
// signature (`fun(i64, i64) -> i64`, used by `cbind` to declare a
// foreign function binding rather than a foreign global).
func (p *Parser) parseTypeExpr() *ast.Expr {
	nameTok := p.expect(lexer.Ident)
	loc := p.loc(nameTok)
	if nameTok.Literal == "fun" {
		p.expect(lexer.LParen)
		var args []*ast.Expr
		for !p.check(lexer.RParen) && !p.atEOF() {
			args = append(args, p.parseTypeExpr())
			if _, ok := p.accept(lexer.Comma); !ok {
				break
			}
		}
		p.expect(lexer.RParen)
		argList := ast.List(ast.Paren, loc, args...)
		retType := p.sym("void", loc)
		if p.tryArrow() {
			retType = p.parseTypeExpr()
		}
		return ast.List(ast.Paren, loc, p.sym("fun", loc), argList, retType)
	}
	name := p.sym(nameTok.Literal, loc)
	if _, ok := p.accept(lexer.LParen); !ok {
		return name
	}
	items := []*ast.Expr{name}
	for !p.check(lexer.RParen) && !p.atEOF() {
		items = append(items, p.parseTypeExpr())
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
	}
	p.expect(lexer.RParen)
	return ast.List(ast.Paren, loc, items...)
}

// parseCBind parses `cbind name : Type`, a foreign (host) binding
// declaration; canonical shape: `(cbind : name Type)`.
func (p *Parser) parseCBind() *ast.Expr {
	tok := p.advance() // 'cbind'
	loc := p.loc(tok)
	name := p.expect(lexer.Ident)
	p.expect(lexer.Colon)
	ty := p.parseTypeExpr()
	return ast.List(ast.Paren, loc, p.sym("cbind", loc), p.sym(":", loc),
		p.sym(name.Literal, p.loc(name)), ty)
}

// parseFun parses a function definition. Each parameter may carry an
// explicit type tag (`a: i64`); an untagged parameter (`b`) is given an
// implicit generic type by the IR builder, the same mechanism the
// intrinsic Index/*/& definitions use for their generic parameter.
// An explicit `-> Type` return tag is optional; when absent the return
// type is inferred from the body's tail expression.
func (p *Parser) parseFun() *ast.Expr {
	tok := p.advance() // 'fun'
	loc := p.loc(tok)
	name := p.expect(lexer.Ident)
	p.expect(lexer.LParen)
	var args []*ast.Expr
	for !p.check(lexer.RParen) && !p.atEOF() {
		argTok := p.expect(lexer.Ident)
		argLoc := p.loc(argTok)
		if _, ok := p.accept(lexer.Colon); ok {
			ty := p.parseTypeExpr()
			args = append(args, ast.List(ast.Paren, argLoc, p.sym(":", argLoc), p.sym(argTok.Literal, argLoc), ty))
		} else {
			args = append(args, p.sym(argTok.Literal, argLoc))
		}
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
	}
	p.expect(lexer.RParen)
	argList := ast.List(ast.Paren, loc, args...)

	returnTag := ast.Unit(loc)
	if p.tryArrow() {
		returnTag = p.parseTypeExpr()
	}
	body := p.parseBlock()
	return ast.List(ast.Paren, loc, p.sym("fun", loc), p.sym(name.Literal, p.loc(name)), argList, returnTag, body)
}

// tryArrow recognizes the two-token "->" sequence (Minus then Gt) used for
// an optional function return-type tag, consuming both tokens on a match.
func (p *Parser) tryArrow() bool {
	if p.peek().Type != lexer.Minus {
		return false
	}
	if p.peekAhead(1).Type != lexer.Gt {
		return false
	}
	p.advance()
	p.advance()
	return true
}

// Pratt expression parser. Precedence increases with binding power;
// unary/postfix operators are handled outside the table.
var binPrec = map[lexer.Type]int{
	lexer.OrOr: 1,
	lexer.AndAnd: 2,
	lexer.EqEq: 3,
	lexer.NotEq: 3,
	lexer.Lt: 4,
	lexer.Gt: 4,
	lexer.LtEq: 4,
	lexer.GtEq: 4,
	lexer.Plus: 5,
	lexer.Minus: 5,
	lexer.Star: 6,
	lexer.Slash: 6,
}

func (p *Parser) parseExpr(minPrec int) *ast.Expr {
	left := p.parseUnary()
	for {
		tok := p.peek()
		prec, ok := binPrec[tok.Type]
		if !ok || prec < minPrec {
			return left
		}
		p.advance()
		right := p.parseExpr(prec + 1)
		loc := left.Loc.Span(right.Loc)
		left = p.binaryExpr(tok, loc, left, right)
	}
}

// binaryExpr lowers a binary operator token into its canonical shape:
// `&&`/`||` become a distinct intrinsic head (fixed-Bool, never resolved
// via call overload search); every other operator lowers to a `call`
// whose callee names the intrinsic found in the preloaded intrinsics unit.
func (p *Parser) binaryExpr(tok lexer.Token, loc source.Location, left, right *ast.Expr) *ast.Expr {
	switch tok.Type {
	case lexer.AndAnd:
		return ast.List(ast.Paren, loc, p.sym("&&", loc), left, right)
	case lexer.OrOr:
		return ast.List(ast.Paren, loc, p.sym("||", loc), left, right)
	}
	op := typeOperator(tok.Type)
	return ast.List(ast.Paren, loc, p.sym("call", loc), p.sym(op, loc), left, right)
}

func typeOperator(t lexer.Type) string {
	switch t {
	case lexer.Plus:
		return "+"
	case lexer.Minus:
		return "-"
	case lexer.Star:
		return "*"
	case lexer.Slash:
		return "/"
	case lexer.EqEq:
		return "=="
	case lexer.NotEq:
		return "!="
	case lexer.Lt:
		return "<"
	case lexer.Gt:
		return ">"
	case lexer.LtEq:
		return "<="
	case lexer.GtEq:
		return ">="
	}
	return "?"
}

func (p *Parser) parseUnary() *ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case lexer.Minus:
		p.advance()
		operand := p.parseUnary()
		loc := p.loc(tok).Span(operand.Loc)
		return ast.List(ast.Paren, loc, p.sym("call", loc), p.sym("-", loc), operand)
	case lexer.Bang:
		p.advance()
		operand := p.parseUnary()
		loc := p.loc(tok).Span(operand.Loc)
		return ast.List(ast.Paren, loc, p.sym("!", loc), operand)
	case lexer.Amp:
		p.advance()
		operand := p.parseUnary()
		loc := p.loc(tok).Span(operand.Loc)
		return ast.List(ast.Paren, loc, p.sym("call", loc), p.sym("&", loc), operand)
	case lexer.Star:
		p.advance()
		operand := p.parseUnary()
		loc := p.loc(tok).Span(operand.Loc)
		return ast.List(ast.Paren, loc, p.sym("call", loc), p.sym("*", loc), operand)
	case lexer.Quote:
		p.advance()
		operand := p.parseUnary()
		loc := p.loc(tok).Span(operand.Loc)
		return ast.List(ast.Paren, loc, p.sym("quote", loc), operand)
	case lexer.Dollar:
		p.advance()
		operand := p.parseUnary()
		loc := p.loc(tok).Span(operand.Loc)
		return ast.List(ast.Paren, loc, p.sym("$", loc), operand)
	}
	return p.parsePostfix(p.parsePrimary())
}

// parsePostfix handles field access (`.name`), indexing (`[expr]`), calls
// (`(args...)`, plain or labeled), and `as` conversion, left-associatively.
func (p *Parser) parsePostfix(e *ast.Expr) *ast.Expr {
	for {
		switch p.peek().Type {
		case lexer.Dot:
			dotTok := p.advance()
			fieldTok := p.expect(lexer.Ident)
			loc := e.Loc.Span(p.loc(fieldTok))
			e = ast.List(ast.Paren, loc, p.sym(".", p.loc(dotTok)), e, p.sym(fieldTok.Literal, p.loc(fieldTok)))
		case lexer.LBracket:
			p.advance()
			idx := p.parseExpr(0)
			closeTok := p.expect(lexer.RBracket)
			loc := e.Loc.Span(p.loc(closeTok))
			e = ast.List(ast.Paren, loc, p.sym("index", loc), e, idx)
		case lexer.LParen:
			e = p.parseCall(e)
		case lexer.Ident:
			if p.peek().Literal != "as" {
				return e
			}
			p.advance()
			ty := p.parseTypeExpr()
			loc := e.Loc.Span(ty.Loc)
			e = ast.List(ast.Paren, loc, p.sym("as", loc), e, ty)
		default:
			return e
		}
	}
}

// callArg is one parsed argument slot: possibly labeled (`name: expr`).
type callArg struct {
	label string
	value *ast.Expr
}

// parseCall parses `callee(args...)`. If every argument is labeled
// (`label: value`), the call lowers to the `new` type-constructor shape
// `(call new callee (label value) ...)`; struct construction and union
// construction share this surface syntax and are told apart later by the
// type checker according to the target type's definition kind. Otherwise
// it's an ordinary positional call `(call callee arg...)`.
func (p *Parser) parseCall(callee *ast.Expr) *ast.Expr {
	p.expect(lexer.LParen)
	var args []callArg
	labeled := false
	for !p.check(lexer.RParen) && !p.atEOF() {
		if p.check(lexer.Ident) && p.peekAhead(1).Type == lexer.Colon {
			labelTok := p.advance()
			p.advance() // ':'
			val := p.parseExpr(0)
			args = append(args, callArg{label: labelTok.Literal, value: val})
			labeled = true
		} else {
			val := p.parseExpr(0)
			args = append(args, callArg{value: val})
		}
		if _, ok := p.accept(lexer.Comma); !ok {
			break
		}
	}
	closeTok := p.expect(lexer.RParen)
	loc := callee.Loc.Span(p.loc(closeTok))

	if labeled {
		items := []*ast.Expr{p.sym("call", loc), p.sym("new", loc), callee}
		for _, a := range args {
			items = append(items, ast.List(ast.Paren, a.value.Loc, p.sym(a.label, a.value.Loc), a.value))
		}
		return ast.List(ast.Paren, loc, items...)
	}

	items := []*ast.Expr{p.sym("call", loc), callee}
	for _, a := range args {
		items = append(items, a.value)
	}
	return ast.List(ast.Paren, loc, items...)
}

func (p *Parser) parsePrimary() *ast.Expr {
	tok := p.peek()
	loc := p.loc(tok)
	switch tok.Type {
	case lexer.Int:
		p.advance()
		v, _ := strconv.ParseInt(tok.Literal, 10, 64)
		return ast.Int(v, loc)
	case lexer.Float:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Literal, 64)
		return ast.Float(v, loc)
	case lexer.String:
		p.advance()
		return ast.Str(tok.Literal, loc)
	case lexer.True:
		p.advance()
		return ast.Bool(true, loc)
	case lexer.False:
		p.advance()
		return ast.Bool(false, loc)
	case lexer.Ident:
		p.advance()
		return p.sym(tok.Literal, loc)
	case lexer.LParen:
		p.advance()
		inner := p.parseExpr(0)
		p.expect(lexer.RParen)
		return inner
	case lexer.LBracket:
		p.advance()
		loc := p.loc(tok)
		var items []*ast.Expr
		for !p.check(lexer.RBracket) && !p.atEOF() {
			items = append(items, p.parseExpr(0))
			if _, ok := p.accept(lexer.Comma); !ok {
				break
			}
		}
		p.expect(lexer.RBracket)
		return ast.List(ast.Bracket, loc, append([]*ast.Expr{p.sym("array", loc)}, items...)...)
	case lexer.LBrace:
		return p.parseBlock()
	}
	p.fail(tok, "expected an expression")
	p.advance()
	return ast.Unit(loc)
}
