// Package ast defines the expression tree produced by the lexer/parser
// boundary: a tagged tree node that is either a symbol, a literal, or a
// list of children with a preserved bracket style.
//
// Following a one-file-per-node-family package-splitting convention;
// this node set is much smaller, so it fits in one file.
package ast

import (
	"strconv"
	"strings"

	"github.com/ril-lang/rilc/internal/source"
	"github.com/ril-lang/rilc/internal/strcache"
)

// ListStyle records which bracket pair produced a list node, or that the
// list is the uncontained top-level sequence of forms in a source unit.
type ListStyle int

const (
	Paren ListStyle = iota
	Brace
	Bracket
	Uncontained
)

func (s ListStyle) String() string {
	switch s {
	case Paren:
		return "()"
	case Brace:
		return "{}"
	case Bracket:
		return "[]"
	default:
		return "<uncontained>"
	}
}

// Kind discriminates the three shapes an Expr can take.
type Kind int

const (
	KindSymbol Kind = iota
	KindLiteral
	KindList
)

// LiteralKind discriminates the primitive literal payload carried by a
// KindLiteral node.
type LiteralKind int

const (
	LitBool LiteralKind = iota
	LitInt
	LitFloat
	LitString
	LitUnit
)

// Literal is the value payload of a literal expression node.
type Literal struct {
	Kind LiteralKind
	Bool bool
	Int int64
	Flt float64
	Str string
}

// Expr is a single node of the expression tree. List children are owned
// exclusively by their parent (no sharing, no cycles).
type Expr struct {
	Kind Kind
	Loc source.Location
	Symbol *strcache.Handle // set iff Kind == KindSymbol
	Literal Literal // set iff Kind == KindLiteral
	Style ListStyle // set iff Kind == KindList
	Items []*Expr // set iff Kind == KindList
}

func Sym(h *strcache.Handle, loc source.Location) *Expr {
	return &Expr{Kind: KindSymbol, Symbol: h, Loc: loc}
}

func Bool(v bool, loc source.Location) *Expr {
	return &Expr{Kind: KindLiteral, Loc: loc, Literal: Literal{Kind: LitBool, Bool: v}}
}

func Int(v int64, loc source.Location) *Expr {
	return &Expr{Kind: KindLiteral, Loc: loc, Literal: Literal{Kind: LitInt, Int: v}}
}

func Float(v float64, loc source.Location) *Expr {
	return &Expr{Kind: KindLiteral, Loc: loc, Literal: Literal{Kind: LitFloat, Flt: v}}
}

func Str(v string, loc source.Location) *Expr {
	return &Expr{Kind: KindLiteral, Loc: loc, Literal: Literal{Kind: LitString, Str: v}}
}

func Unit(loc source.Location) *Expr {
	return &Expr{Kind: KindLiteral, Loc: loc, Literal: Literal{Kind: LitUnit}}
}

func List(style ListStyle, loc source.Location, items ...*Expr) *Expr {
	return &Expr{Kind: KindList, Style: style, Loc: loc, Items: items}
}

// IsSymbol reports whether e is a bare symbol equal to name.
func (e *Expr) IsSymbol(name string) bool {
	return e != nil && e.Kind == KindSymbol && e.Symbol.String() == name
}

// Head returns the leading symbol of a list expression ("the head"), or
// ok=false if e is not a non-empty list headed by a symbol.
func (e *Expr) Head() (name string, ok bool) {
	if e == nil || e.Kind != KindList || len(e.Items) == 0 {
		return "", false
	}
	first := e.Items[0]
	if first.Kind != KindSymbol {
		return "", false
	}
	return first.Symbol.String(), true
}

// Tail returns every item after the head of a list expression.
func (e *Expr) Tail() []*Expr {
	if e == nil || e.Kind != KindList || len(e.Items) == 0 {
		return nil
	}
	return e.Items[1:]
}

// MatchHead returns (tail, true) when e is a list whose head symbol is name.
func (e *Expr) MatchHead(name string) ([]*Expr, bool) {
	h, ok := e.Head()
	if !ok || h != name {
		return nil, false
	}
	return e.Tail(), true
}

// String renders the expression in the canonical head-symbol form used
// internally, not the friendly surface syntax it may have been parsed
// from.
func (e *Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e *Expr) write(sb *strings.Builder) {
	if e == nil {
		sb.WriteString("<nil>")
		return
	}
	switch e.Kind {
	case KindSymbol:
		sb.WriteString(e.Symbol.String())
	case KindLiteral:
		switch e.Literal.Kind {
		case LitBool:
			sb.WriteString(strconv.FormatBool(e.Literal.Bool))
		case LitInt:
			sb.WriteString(strconv.FormatInt(e.Literal.Int, 10))
		case LitFloat:
			sb.WriteString(strconv.FormatFloat(e.Literal.Flt, 'g', -1, 64))
		case LitString:
			sb.WriteString(strconv.Quote(e.Literal.Str))
		case LitUnit:
			sb.WriteString("()")
		}
	case KindList:
		open, close := "(", ")"
		switch e.Style {
		case Brace:
			open, close = "{", "}"
		case Bracket:
			open, close = "[", "]"
		}
		sb.WriteString(open)
		for i, item := range e.Items {
			if i > 0 {
				sb.WriteString(" ")
			}
			item.write(sb)
		}
		sb.WriteString(close)
	}
}
