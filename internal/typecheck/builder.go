package typecheck

import (
	"fmt"

	"github.com/ril-lang/rilc/internal/ast"
	"github.com/ril-lang/rilc/internal/ir"
	"github.com/ril-lang/rilc/internal/source"
	"github.com/ril-lang/rilc/internal/types"
)

// binding is one lexically-scoped name: a function parameter or a `let`.
type binding struct {
	symbol ir.SymbolID
	ts TypeSymbol
}

// funcCtx tracks the enclosing function a `return` targets: its
// outermost label (what KindBreakToLabel jumps to) and its declared
// return type symbol (what a returned value must unify with).
type funcCtx struct {
	label ir.LabelID
	ts TypeSymbol
}

// PolyRef records one call site's resolution of a generic function
// definition to a concrete signature ("record a
// polymorphic reference (definition, concrete signature) for later
// instantiation"). The unit manager (internal/unit) consumes these after
// a unit finishes checking to materialize cached instance units, keyed
// by (DefID, Signature) so the same concrete instantiation is never
// built twice — the "Unique specialization" invariant.
type PolyRef struct {
	DefID types.FunctionID
	Signature *types.FunctionSignature
	// Subst is the generic-id -> concrete-type substitution this call
	// site unified, the same map unifyGenericSignature produced — the
	// unit manager needs this (not just Signature) to monomorphize the
	// definition's body, since a generic can appear nested inside an
	// array/ptr/function type where Signature's flat Args/Return can't
	// be zipped back against Generics positionally.
	Subst map[types.GenericID]types.Type
	// Node is the call or function-reference node whose Function field
	// currently points at DefID (the generic definition) and must be
	// rewritten to the materialized instance's handle once one exists.
	Node ir.NodeID
}

// Builder walks an ast.Expr tree once, allocating ir.Graph nodes and
// emitting the Constraint list the solver will later discharge: one
// recursive `build` per node kind, pushing a constraint instead of
// resolving eagerly whenever a fact depends on information gathered
// elsewhere in the tree.
type Builder struct {
	Graph *ir.Graph
	Registry *types.Registry
	Solver *Solver
	Constraints []Constraint
	PolyRefs []PolyRef
	scopes []map[string]binding
	breakStack []ir.LabelID
	funcStack []funcCtx
	nextLabel int
	nodeTS map[ir.NodeID]TypeSymbol
}

func NewBuilder(graph *ir.Graph, reg *types.Registry, solver *Solver) *Builder {
	return &Builder{Graph: graph, Registry: reg, Solver: solver, nodeTS: make(map[ir.NodeID]TypeSymbol)}
}

// Finalize copies every node's resolved type from the solver into the
// graph's NodeType table, once Solve has run to completion. Declaration
// statements (struct/union/cbind/fun) carry a Void type symbol; a node
// whose type symbol never resolved is left unset.
func (b *Builder) Finalize() {
	for id, ts := range b.nodeTS {
		if t, ok := b.Solver.Resolved(ts); ok {
			b.Graph.NodeType[id] = t
		}
	}
}

func (b *Builder) pushScope() { b.scopes = append(b.scopes, map[string]binding{}) }
func (b *Builder) popScope() { b.scopes = b.scopes[:len(b.scopes)-1] }
func (b *Builder) declare(name string, bind binding) {
	b.scopes[len(b.scopes)-1][name] = bind
}
func (b *Builder) lookup(name string) (binding, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if bind, ok := b.scopes[i][name]; ok {
			return bind, true
		}
	}
	return binding{}, false
}

func (b *Builder) emit(c Constraint) { b.Constraints = append(b.Constraints, c) }

func (b *Builder) freshLabel() ir.LabelID {
	b.nextLabel++
	return ir.LabelID(b.nextLabel)
}

// BuildUnit builds a whole unit from its parsed top-level block, wrapping
// it as the body of the implicit `top_level` function. struct/union/
// cbind declarations found directly in the top-level block are hoisted
// in a first pass, since their field/arg types are always fully tagged
// in source and need no constraint solving; `fun` is deliberately NOT
// hoisted here (a function's
// signature depends on solving its parameter/return type symbols, which
// needs the body walked first) — mutual recursion between sibling
// top-level functions instead resolves through functionCallConstraint's
// defer-and-retry behavior once the callee's own functionDefConstraint
// fires in an earlier or same solving pass (constraints.go).
//
// top_level is treated as a function like any other for `return`'s sake:
// its body is wrapped in its own KindLabelledBlock so a bare `return` at
// unit scope lowers the same way it would inside a `fun` (see buildFun).
func (b *Builder) BuildUnit(prog *ast.Expr) ir.NodeID {
	items := prog.Items
	for _, item := range items {
		head, ok := item.Head()
		if !ok {
			continue
		}
		switch head {
		case "struct", "union":
			b.declareTypeDef(item)
		case "cbind":
			b.declareForeignBinding(item)
		}
	}

	label := b.freshLabel()
	returnTS := b.Solver.NewTypeSymbol()
	b.funcStack = append(b.funcStack, funcCtx{label: label, ts: returnTS})
	b.pushScope()
	bodyID := b.buildBlock(prog.Loc, items, true)
	b.popScope()
	b.funcStack = b.funcStack[:len(b.funcStack)-1]
	b.emit(&equivalentConstraint{loc: prog.Loc, a: returnTS, b: b.nodeTS[bodyID]})

	wrapped := b.Graph.Alloc(ir.Node{Kind: ir.KindLabelledBlock, Loc: prog.Loc, Label: label, Then: bodyID})
	b.nodeTS[wrapped] = b.nodeTS[bodyID]

	top := b.Graph.Alloc(ir.Node{
		Kind: ir.KindFunctionDefinition, Loc: prog.Loc,
		DefName: "top_level", Body: wrapped,
	})
	b.nodeTS[top] = returnTS
	b.emit(&functionDefConstraint{
		loc: prog.Loc, name: "top_level", returnTS: returnTS, node: top,
		register: func(fid types.FunctionID) { b.Graph.Node(top).Function = fid },
	})
	return top
}

func (b *Builder) declareTypeDef(e *ast.Expr) {
	tail := e.Tail()
	if len(tail) < 1 {
		return
	}
	name := symbolName(tail[0])
	kind := types.DefStruct
	if h, _ := e.Head(); h == "union" {
		kind = types.DefUnion
	}
	var fields []types.Field
	for _, fe := range tail[1:] {
		if fe.Kind != ast.KindList || len(fe.Items) != 2 {
			continue
		}
		fname := symbolName(fe.Items[0])
		ftype, err := resolveTypeExpr(b.Registry, fe.Items[1])
		if err != nil {
			b.Solver.fail(fe.Loc, "%s", err)
			continue
		}
		fields = append(fields, types.Field{Name: fname, Type: ftype})
	}
	b.Registry.DefineType(&types.Definition{Name: name, Kind: kind, Fields: fields})
}

func (b *Builder) declareForeignBinding(e *ast.Expr) {
	tail := e.Tail()
	if len(tail) != 3 {
		b.Solver.fail(e.Loc, "malformed cbind")
		return
	}
	name := symbolName(tail[1])
	ty, err := resolveTypeExpr(b.Registry, tail[2])
	if err != nil {
		b.Solver.fail(e.Loc, "%s", err)
		return
	}
	var sig *types.FunctionSignature
	if ty.Kind == types.KindFun {
		sig = ty.Fun
	} else {
		sig = &types.FunctionSignature{Return: ty}
	}
	b.Registry.DeclareFunction(name, sig, nil, types.ImplForeign, e.Loc)
}

func symbolName(e *ast.Expr) string {
	if e.Kind == ast.KindSymbol {
		return e.Symbol.String()
	}
	return ""
}

// resolveTypeExpr converts a parsed type expression (`i64`, `Vec2`,
// `ptr(T)`, `array(T)`) to a concrete types.Type. Unlike value
// expressions, type expressions never need the constraint solver — every
// piece is already fully named in the source.
func resolveTypeExpr(reg *types.Registry, e *ast.Expr) (types.Type, error) {
	if e.Kind == ast.KindSymbol {
		name := e.Symbol.String()
		if p, ok := types.PrimFromName(name); ok {
			return types.PrimType(p), nil
		}
		return types.DefType(name), nil
	}
	if e.Kind != ast.KindList || len(e.Items) == 0 {
		return types.Type{}, fmt.Errorf("invalid type expression")
	}
	head := e.Items[0]
	if head.Kind != ast.KindSymbol {
		return types.Type{}, fmt.Errorf("invalid type expression")
	}
	switch head.Symbol.String() {
	case "ptr":
		elem, err := resolveTypeExpr(reg, e.Items[1])
		if err != nil {
			return types.Type{}, err
		}
		return types.PtrType(elem), nil
	case "array":
		elem, err := resolveTypeExpr(reg, e.Items[1])
		if err != nil {
			return types.Type{}, err
		}
		return types.ArrayType(elem), nil
	case "fun":
		var args []types.Type
		if argList := e.Items[1]; argList.Kind == ast.KindList {
			for _, a := range argList.Items {
				t, err := resolveTypeExpr(reg, a)
				if err != nil {
					return types.Type{}, err
				}
				args = append(args, t)
			}
		}
		ret, err := resolveTypeExpr(reg, e.Items[2])
		if err != nil {
			return types.Type{}, err
		}
		return types.FunType(&types.FunctionSignature{Args: args, Return: ret}), nil
	}
	return types.Type{}, fmt.Errorf("unknown type constructor %q", head.Symbol.String())
}

// buildBlock builds a sequence of statements, returning the node id of a
// KindBlock whose own type symbol equals its last child's (or Void for an
// empty block / one ending in a declaration). topLevel is true only for
// a unit's outermost sequence of forms, where a `let` becomes a
// unit-scope global rather than a frame-local.
func (b *Builder) buildBlock(loc source.Location, items []*ast.Expr, topLevel bool) ir.NodeID {
	var children []ir.NodeID
	var lastTS TypeSymbol
	for _, item := range items {
		id, ts := b.build(item, topLevel)
		children = append(children, id)
		lastTS = ts
	}
	blockTS := b.Solver.NewTypeSymbol()
	if len(children) == 0 {
		b.Solver.Assert(loc, blockTS, types.PrimType(types.Void))
	} else {
		b.emit(&equivalentConstraint{loc: loc, a: blockTS, b: lastTS})
	}
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindBlock, Loc: loc, Children: children})
	b.nodeTS[id] = blockTS
	return id
}
