// Package ir is the typed node graph: a flat, arena-style store of Node
// values keyed by NodeID, plus the per-node resolved Type table the
// type checker fills in.
//
// A single bump-allocated node arena per unit, referenced by integer id
// rather than by pointer, is what lets the constraint solver and the
// bytecode compiler both hold lightweight NodeID references without
// fighting Go's aliasing rules the way a pointer tree would.
package ir

import (
	"github.com/ril-lang/rilc/internal/source"
	"github.com/ril-lang/rilc/internal/types"
)

// NodeID indexes a Node within a Graph. The zero value is never a valid
// id (Graph reserves index 0 as "no node").
type NodeID int

// SymbolID names one lexical binding: a function parameter, a `let`
// target, or a global. Distinct bindings that happen to share a source
// name get distinct SymbolIDs — the IR never resolves a variable
// reference by re-comparing names once binding has happened.
type SymbolID int

// VarScope tells the bytecode compiler whether a variable reference
// resolves to a frame-local slot or a unit-scope global.
type VarScope int

const (
	ScopeLocal VarScope = iota
	ScopeGlobal
)

// Kind discriminates a Node's Content shape.
type Kind int

const (
	KindLiteral Kind = iota
	KindVarReference
	KindVarInit
	KindAssign
	KindIfThen
	KindIfThenElse
	KindBlock
	KindQuote
	KindFunctionReference
	KindFunctionDefinition
	KindForeignBinding
	KindTypeDefinition
	KindStructInstantiate
	KindUnionInstantiate
	KindFieldAccess
	KindIndex
	KindArrayLiteral
	KindFunctionCall
	KindIntrinsicCall
	KindWhile
	KindConvert
	KindSizeOf
	KindLabelledBlock
	KindBreakToLabel
	KindSplice
)

// LabelID names one labelled scope, the target of a BreakToLabel node.
// Every function body (including a unit's implicit top_level) is wrapped
// in a KindLabelledBlock at its own fresh label, so `return` lowers to a
// BreakToLabel targeting that label instead of existing as its own node
// kind — exactly stated lowering ("return [v] is sugar for
// a break-to-label targeting the function's outermost label"). A `while`
// loop introduces a second label (on the KindWhile node itself) for
// `break` to target, so `break` and `return` share one jump-to-label
// compiled form while resolving to different labels.
type LabelID int

// LiteralValue is the payload of a KindLiteral node.
type LiteralValue struct {
	Bool bool
	Int int64
	Flt float64
	Str string
}

// Node is one entry of the typed graph. Only the fields relevant to its
// Kind are populated, rather than splitting into one Go type per node
// kind, because the constraint builder and solver both need to switch
// on Kind uniformly.
type Node struct {
	Kind Kind
	Loc source.Location

	Literal LiteralValue

	// KindVarReference / KindVarInit / KindAssign
	Symbol SymbolID
	Scope VarScope
	Name string // source-level name, for diagnostics only

	// KindVarInit / KindAssign: value being bound/stored
	// KindIfThen/Else: Cond, Then, Else
	// KindWhile: Cond, Then (=body)
	Cond NodeID
	Then NodeID
	Else NodeID

	// KindBlock / KindArrayLiteral: ordered children
	Children []NodeID

	// KindFunctionReference / KindFunctionCall
	Function types.FunctionID
	CallName string // unresolved callee name, filled before resolution
	Args []NodeID
	// Callee is set instead of Function/CallName when a KindFunctionCall
	// is a first-class call: the name in callee position resolved to a
	// local/parameter binding rather than a registry function, so the
	// bytecode compiler evaluates Callee as an ordinary expression
	// (yielding a FuncRef value) and emits CallFirstClassFunction
	// instead of resolving a handle at compile time.
	Callee NodeID

	// KindIntrinsicCall
	IntrinsicName string

	// KindFunctionDefinition
	DefName string
	ParamSyms []SymbolID
	Generics []types.GenericID
	Body NodeID

	// KindForeignBinding
	ForeignName string

	// KindTypeDefinition
	TypeName string

	// KindStructInstantiate / KindUnionInstantiate
	ConstructType string
	FieldValues []FieldValue

	// KindFieldAccess
	Container NodeID
	Field string

	// KindIndex
	IndexBase NodeID
	IndexValue NodeID

	// KindConvert: target type comes from the resolved Type table, keyed
	// by this node's own id (TypeSymbol in the constraint builder
	// resolves to it).
	// KindQuote / KindSplice: the wrapped expression.
	Operand NodeID

	// KindSizeOf: the type being measured. Unlike KindConvert, sizeof's
	// own result type is always I64 (so NodeType[id] can't also carry the
	// measured type) — this is set directly from the resolved type
	// expression rather than routed through the constraint solver, since
	// a type expression never needs unification.
	SizeOfType types.Type

	// KindLabelledBlock: Label names the scope, Then is the wrapped body.
	// KindWhile also stores its loop-exit label here.
	Label LabelID
	// KindBreakToLabel
	BreakLabel LabelID
	BreakValue NodeID // NodeID(0) if no value
}

// FieldValue is one (name, value-node) pair of a struct/union literal.
type FieldValue struct {
	Name string
	Value NodeID
}

// Graph is the node arena for a single unit, plus the resolved-type
// table the constraint solver populates.
type Graph struct {
	nodes []Node // index 0 unused, so NodeID zero value is invalid
	NodeType map[NodeID]types.Type
	nextSym int
}

func NewGraph() *Graph {
	return &Graph{nodes: make([]Node, 1), NodeType: make(map[NodeID]types.Type)}
}

// Alloc appends n and returns its id.
func (g *Graph) Alloc(n Node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

func (g *Graph) Node(id NodeID) *Node { return &g.nodes[id] }

// NewSymbol allocates a fresh SymbolID, distinct from every other symbol
// this graph has ever handed out.
func (g *Graph) NewSymbol() SymbolID {
	g.nextSym++
	return SymbolID(g.nextSym)
}

func (g *Graph) Len() int { return len(g.nodes) - 1 }
