package typecheck

import (
	"github.com/ril-lang/rilc/internal/ast"
	"github.com/ril-lang/rilc/internal/ir"
	"github.com/ril-lang/rilc/internal/types"
)

// build walks one expression, allocating its ir.Graph node(s) and
// returning (node id, its type symbol). topLevel is threaded through
// unchanged except by buildBlock, which clears it for any nested block.
func (b *Builder) build(e *ast.Expr, topLevel bool) (ir.NodeID, TypeSymbol) {
	switch e.Kind {
	case ast.KindLiteral:
		return b.buildLiteral(e)
	case ast.KindSymbol:
		return b.buildVarReference(e)
	}

	head, ok := e.Head()
	if !ok {
		return b.buildLiteral(ast.Unit(e.Loc))
	}
	tail := e.Tail()
	switch head {
	case "let":
		return b.buildLet(e, tail, topLevel)
	case "=":
		return b.buildAssign(e, tail)
	case "if":
		return b.buildIf(e, tail)
	case "while":
		return b.buildWhile(e, tail)
	case "block":
		id := b.buildBlock(e.Loc, tail, false)
		return id, b.nodeTS[id]
	case "fun":
		return b.buildFun(e, tail)
	case "struct", "union", "cbind":
		return b.buildVoidDeclaration(e)
	case ".":
		return b.buildFieldAccess(e, tail)
	case "index":
		return b.buildIndex(e, tail)
	case "array":
		return b.buildArray(e, tail)
	case "as":
		return b.buildConvert(e, tail)
	case "&&", "||":
		return b.buildBoolIntrinsic(e, head, tail)
	case "!":
		return b.buildNot(e, tail)
	case "call":
		return b.buildCall(e, tail)
	case "return":
		return b.buildReturn(e, tail)
	case "break":
		return b.buildBreak(e, tail)
	case "quote":
		return b.buildQuote(e, tail)
	case "$":
		return b.buildSplice(e, tail)
	}
	b.Solver.fail(e.Loc, "unrecognized expression form %q", head)
	return b.buildLiteral(ast.Unit(e.Loc))
}

func (b *Builder) buildLiteral(e *ast.Expr) (ir.NodeID, TypeSymbol) {
	lit := e.Literal
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindLiteral, Loc: e.Loc, Literal: ir.LiteralValue{
		Bool: lit.Bool, Int: lit.Int, Flt: lit.Flt, Str: lit.Str,
	}})
	var ts TypeSymbol
	switch lit.Kind {
	case ast.LitBool:
		ts = b.Solver.TaggedTypeSymbol(types.PrimType(types.Bool))
	case ast.LitInt:
		ts = b.Solver.NewTypeSymbol()
		b.emit(&assertClassConstraint{loc: e.Loc, ts: ts, class: ClassInteger})
	case ast.LitFloat:
		ts = b.Solver.NewTypeSymbol()
		b.emit(&assertClassConstraint{loc: e.Loc, ts: ts, class: ClassFloat})
	case ast.LitString:
		// No string primitive in the type system; a string
		// literal is a byte pointer, the same shape the host ABI's
		// sized-string boundary expects.
		ts = b.Solver.TaggedTypeSymbol(types.PtrType(types.PrimType(types.U8)))
	default:
		ts = b.Solver.TaggedTypeSymbol(types.PrimType(types.Void))
	}
	b.nodeTS[id] = ts
	return id, ts
}

// buildVarReference resolves a bare symbol: a local/param binding first,
// then a unique function of that name (a first-class function
// reference), then a unit-scope global — deferred if the global hasn't
// been declared by a textually-earlier `let` yet.
func (b *Builder) buildVarReference(e *ast.Expr) (ir.NodeID, TypeSymbol) {
	name := e.Symbol.String()
	if bind, ok := b.lookup(name); ok {
		ts := b.Solver.NewTypeSymbol()
		b.emit(&equivalentConstraint{loc: e.Loc, a: ts, b: bind.ts})
		id := b.Graph.Alloc(ir.Node{Kind: ir.KindVarReference, Loc: e.Loc, Symbol: bind.symbol, Scope: ir.ScopeLocal, Name: name})
		b.nodeTS[id] = ts
		return id, ts
	}
	if candidates := b.Registry.FunctionsNamed(name); len(candidates) == 1 {
		def := candidates[0]
		ts := b.Solver.TaggedTypeSymbol(types.FunType(def.Signature))
		id := b.Graph.Alloc(ir.Node{Kind: ir.KindFunctionReference, Loc: e.Loc, Function: def.ID, Name: name})
		b.nodeTS[id] = ts
		return id, ts
	}
	ts := b.Solver.NewTypeSymbol()
	b.emit(&globalReferenceConstraint{loc: e.Loc, name: name, result: ts})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindVarReference, Loc: e.Loc, Scope: ir.ScopeGlobal, Name: name})
	b.nodeTS[id] = ts
	return id, ts
}

func (b *Builder) buildLet(e *ast.Expr, tail []*ast.Expr, topLevel bool) (ir.NodeID, TypeSymbol) {
	name := symbolName(tail[0])
	valID, valTS := b.build(tail[1], false)
	if topLevel {
		b.emit(&globalDefConstraint{loc: e.Loc, name: name, value: valTS, kind: types.GlobalScript})
		id := b.Graph.Alloc(ir.Node{Kind: ir.KindVarInit, Loc: e.Loc, Scope: ir.ScopeGlobal, Name: name, Then: valID})
		voidTS := b.Solver.TaggedTypeSymbol(types.PrimType(types.Void))
		b.nodeTS[id] = voidTS
		return id, voidTS
	}
	sym := b.Graph.NewSymbol()
	b.declare(name, binding{symbol: sym, ts: valTS})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindVarInit, Loc: e.Loc, Symbol: sym, Scope: ir.ScopeLocal, Name: name, Then: valID})
	voidTS := b.Solver.TaggedTypeSymbol(types.PrimType(types.Void))
	b.nodeTS[id] = voidTS
	return id, voidTS
}

func (b *Builder) buildAssign(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	lhsID, lhsTS := b.build(tail[0], false)
	valID, valTS := b.build(tail[1], false)
	b.emit(&equivalentConstraint{loc: e.Loc, a: lhsTS, b: valTS})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindAssign, Loc: e.Loc, Cond: lhsID, Then: valID})
	voidTS := b.Solver.TaggedTypeSymbol(types.PrimType(types.Void))
	b.nodeTS[id] = voidTS
	return id, voidTS
}

func (b *Builder) buildIf(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	condID, condTS := b.build(tail[0], false)
	b.emit(&assertConstraint{loc: e.Loc, ts: condTS, t: types.PrimType(types.Bool)})
	thenID, thenTS := b.build(tail[1], false)
	if len(tail) == 3 {
		elseID, elseTS := b.build(tail[2], false)
		resultTS := b.Solver.NewTypeSymbol()
		b.emit(&equivalentConstraint{loc: e.Loc, a: resultTS, b: thenTS})
		b.emit(&equivalentConstraint{loc: e.Loc, a: resultTS, b: elseTS})
		id := b.Graph.Alloc(ir.Node{Kind: ir.KindIfThenElse, Loc: e.Loc, Cond: condID, Then: thenID, Else: elseID})
		b.nodeTS[id] = resultTS
		return id, resultTS
	}
	b.emit(&assertConstraint{loc: e.Loc, ts: thenTS, t: types.PrimType(types.Void)})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindIfThen, Loc: e.Loc, Cond: condID, Then: thenID})
	voidTS := b.Solver.TaggedTypeSymbol(types.PrimType(types.Void))
	b.nodeTS[id] = voidTS
	return id, voidTS
}

func (b *Builder) buildWhile(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	label := b.freshLabel()
	condID, condTS := b.build(tail[0], false)
	b.emit(&assertConstraint{loc: e.Loc, ts: condTS, t: types.PrimType(types.Bool)})
	b.breakStack = append(b.breakStack, label)
	bodyID, _ := b.build(tail[1], false)
	b.breakStack = b.breakStack[:len(b.breakStack)-1]
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindWhile, Loc: e.Loc, Cond: condID, Then: bodyID, Label: label})
	voidTS := b.Solver.TaggedTypeSymbol(types.PrimType(types.Void))
	b.nodeTS[id] = voidTS
	return id, voidTS
}

// buildFun builds a function definition. Untagged parameters get a
// fresh implicit generic (see parser.go's doc comment and DESIGN.md);
// the function is registered via a deferred functionDefConstraint so
// forward/mutual reference between sibling top-level functions resolves
// through the solver's fixpoint loop rather than requiring declaration
// order.
func (b *Builder) buildFun(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	name := symbolName(tail[0])
	argList := tail[1].Items
	returnTag := tail[2]
	bodyExpr := tail[3]

	b.pushScope()
	var paramSyms []ir.SymbolID
	var paramTS []TypeSymbol
	var generics []types.GenericID
	for _, arg := range argList {
		var argName string
		var ts TypeSymbol
		if arg.Kind == ast.KindList { // (: name Type)
			argName = symbolName(arg.Items[1])
			ty, err := resolveTypeExpr(b.Registry, arg.Items[2])
			if err != nil {
				b.Solver.fail(arg.Loc, "%s", err)
				ty = types.PrimType(types.Void)
			}
			ts = b.Solver.TaggedTypeSymbol(ty)
		} else {
			argName = symbolName(arg)
			gid := types.NewGenericID()
			generics = append(generics, gid)
			ts = b.Solver.TaggedTypeSymbol(types.GenericType(gid))
		}
		sym := b.Graph.NewSymbol()
		b.declare(argName, binding{symbol: sym, ts: ts})
		paramSyms = append(paramSyms, sym)
		paramTS = append(paramTS, ts)
	}

	var returnTS TypeSymbol
	if returnTag.Kind == ast.KindLiteral && returnTag.Literal.Kind == ast.LitUnit {
		returnTS = b.Solver.NewTypeSymbol()
	} else {
		ty, err := resolveTypeExpr(b.Registry, returnTag)
		if err != nil {
			b.Solver.fail(returnTag.Loc, "%s", err)
			ty = types.PrimType(types.Void)
		}
		returnTS = b.Solver.TaggedTypeSymbol(ty)
	}

	label := b.freshLabel()
	b.funcStack = append(b.funcStack, funcCtx{label: label, ts: returnTS})
	bodyID, bodyTS := b.build(bodyExpr, false)
	b.funcStack = b.funcStack[:len(b.funcStack)-1]
	b.emit(&equivalentConstraint{loc: e.Loc, a: returnTS, b: bodyTS})
	b.popScope()

	// Wrap the body in its own labelled scope so a `return` anywhere
	// inside — including past any nesting of `while`/`if`/`block` — can
	// compile to one jump-to-label mechanism, shared with `break`.
	wrappedBody := b.Graph.Alloc(ir.Node{Kind: ir.KindLabelledBlock, Loc: e.Loc, Label: label, Then: bodyID})
	b.nodeTS[wrappedBody] = bodyTS

	id := b.Graph.Alloc(ir.Node{
		Kind: ir.KindFunctionDefinition, Loc: e.Loc,
		DefName: name, ParamSyms: paramSyms, Generics: generics, Body: wrappedBody,
	})
	b.emit(&functionDefConstraint{
		loc: e.Loc, name: name, paramTS: paramTS, returnTS: returnTS, generics: generics, node: id,
		register: func(fid types.FunctionID) { b.Graph.Node(id).Function = fid },
	})
	voidTS := b.Solver.TaggedTypeSymbol(types.PrimType(types.Void))
	b.nodeTS[id] = voidTS
	return id, voidTS
}

// buildVoidDeclaration handles struct/union/cbind appearing as a
// statement: their declarative effect already happened in BuildUnit's
// hoisting pass, so here they just contribute a Void no-op node so the
// surrounding block's child list stays aligned with source order.
func (b *Builder) buildVoidDeclaration(e *ast.Expr) (ir.NodeID, TypeSymbol) {
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindBlock, Loc: e.Loc})
	voidTS := b.Solver.TaggedTypeSymbol(types.PrimType(types.Void))
	b.nodeTS[id] = voidTS
	return id, voidTS
}

func (b *Builder) buildFieldAccess(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	containerID, containerTS := b.build(tail[0], false)
	field := symbolName(tail[1])
	resultTS := b.Solver.NewTypeSymbol()
	b.emit(&fieldAccessConstraint{loc: e.Loc, container: containerTS, field: field, result: resultTS})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindFieldAccess, Loc: e.Loc, Container: containerID, Field: field})
	b.nodeTS[id] = resultTS
	return id, resultTS
}

func (b *Builder) buildIndex(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	baseID, baseTS := b.build(tail[0], false)
	idxID, idxTS := b.build(tail[1], false)
	b.emit(&assertClassConstraint{loc: e.Loc, ts: idxTS, class: ClassInteger})
	resultTS := b.Solver.NewTypeSymbol()
	b.emit(&indexConstraint{loc: e.Loc, base: baseTS, result: resultTS})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindIndex, Loc: e.Loc, IndexBase: baseID, IndexValue: idxID})
	b.nodeTS[id] = resultTS
	return id, resultTS
}

func (b *Builder) buildArray(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	var children []ir.NodeID
	var elemTS TypeSymbol
	for i, item := range tail {
		id, ts := b.build(item, false)
		children = append(children, id)
		if i == 0 {
			elemTS = ts
		} else {
			b.emit(&equivalentConstraint{loc: item.Loc, a: elemTS, b: ts})
		}
	}
	if elemTS == 0 {
		elemTS = b.Solver.NewTypeSymbol()
	}
	resultTS := b.Solver.NewTypeSymbol()
	b.emit(&arrayConstraint{loc: e.Loc, elem: elemTS, result: resultTS})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindArrayLiteral, Loc: e.Loc, Children: children})
	b.nodeTS[id] = resultTS
	return id, resultTS
}

func (b *Builder) buildConvert(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	operandID, operandTS := b.build(tail[0], false)
	target, err := resolveTypeExpr(b.Registry, tail[1])
	if err != nil {
		b.Solver.fail(e.Loc, "%s", err)
		target = types.PrimType(types.Void)
	}
	resultTS := b.Solver.NewTypeSymbol()
	b.emit(&convertConstraint{loc: e.Loc, operand: operandTS, target: target, result: resultTS})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindConvert, Loc: e.Loc, Operand: operandID})
	b.nodeTS[id] = resultTS
	return id, resultTS
}

// buildBoolIntrinsic builds `&&`/`||`: a distinct intrinsic-call node,
// fixed to Bool, never resolved via the registry's overload search — the
// bytecode compiler lowers these to a jump-based short circuit rather
// than an eager call.
func (b *Builder) buildBoolIntrinsic(e *ast.Expr, name string, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	lhsID, lhsTS := b.build(tail[0], false)
	rhsID, rhsTS := b.build(tail[1], false)
	boolT := types.PrimType(types.Bool)
	b.emit(&assertConstraint{loc: e.Loc, ts: lhsTS, t: boolT})
	b.emit(&assertConstraint{loc: e.Loc, ts: rhsTS, t: boolT})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindIntrinsicCall, Loc: e.Loc, IntrinsicName: name, Args: []ir.NodeID{lhsID, rhsID}})
	ts := b.Solver.TaggedTypeSymbol(boolT)
	b.nodeTS[id] = ts
	return id, ts
}

func (b *Builder) buildNot(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	operandID, operandTS := b.build(tail[0], false)
	boolT := types.PrimType(types.Bool)
	b.emit(&assertConstraint{loc: e.Loc, ts: operandTS, t: boolT})
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindIntrinsicCall, Loc: e.Loc, IntrinsicName: "!", Args: []ir.NodeID{operandID}})
	ts := b.Solver.TaggedTypeSymbol(boolT)
	b.nodeTS[id] = ts
	return id, ts
}

// buildCall handles `call`'s three shapes: `new` (type constructor),
// `sizeof` (size-of, argument is a type expression not a value), and the
// general function call.
func (b *Builder) buildCall(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	if len(tail) == 0 {
		b.Solver.fail(e.Loc, "empty call")
		return b.buildLiteral(ast.Unit(e.Loc))
	}
	calleeName := symbolName(tail[0])
	switch calleeName {
	case "new":
		return b.buildConstructor(e, tail[1:])
	case "sizeof":
		return b.buildSizeOf(e, tail[1:])
	}

	var argIDs []ir.NodeID
	var argTS []TypeSymbol
	for _, a := range tail[1:] {
		id, ts := b.build(a, false)
		argIDs = append(argIDs, id)
		argTS = append(argTS, ts)
	}

	// A local/parameter binding shadows a same-named registry function —
	// this is how a first-class function value (e.g. a `fold` callback
	// parameter) gets called from inside the higher-order function's own
	// body, rather than every `(call f x)` always meaning "look up a
	// function literally named f".
	if bind, ok := b.lookup(calleeName); ok {
		calleeID := b.Graph.Alloc(ir.Node{Kind: ir.KindVarReference, Loc: tail[0].Loc, Symbol: bind.symbol, Scope: ir.ScopeLocal, Name: calleeName})
		b.nodeTS[calleeID] = bind.ts
		resultTS := b.Solver.NewTypeSymbol()
		id := b.Graph.Alloc(ir.Node{Kind: ir.KindFunctionCall, Loc: e.Loc, Callee: calleeID, Args: argIDs})
		b.emit(&firstClassCallConstraint{loc: e.Loc, callee: bind.ts, args: argTS, result: resultTS})
		b.nodeTS[id] = resultTS
		return id, resultTS
	}

	resultTS := b.Solver.NewTypeSymbol()
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindFunctionCall, Loc: e.Loc, CallName: calleeName, Args: argIDs})
	b.emit(&functionCallConstraint{
		loc: e.Loc, node: id, name: calleeName, args: argTS, result: resultTS,
		resolve: func(fid types.FunctionID) { b.Graph.Node(id).Function = fid },
		onPoly: func(fid types.FunctionID, sig *types.FunctionSignature, subst map[types.GenericID]types.Type) {
			b.PolyRefs = append(b.PolyRefs, PolyRef{DefID: fid, Signature: sig, Subst: subst, Node: id})
		},
	})
	b.nodeTS[id] = resultTS
	return id, resultTS
}

func (b *Builder) buildConstructor(e *ast.Expr, fieldExprs []*ast.Expr) (ir.NodeID, TypeSymbol) {
	typeName := symbolName(fieldExprs[0])
	var fieldIDs []ir.FieldValue
	var fields []constructorField
	for _, fe := range fieldExprs[1:] {
		if fe.Kind != ast.KindList || len(fe.Items) != 2 {
			continue
		}
		fname := symbolName(fe.Items[0])
		valID, valTS := b.build(fe.Items[1], false)
		fieldIDs = append(fieldIDs, ir.FieldValue{Name: fname, Value: valID})
		fields = append(fields, constructorField{loc: fe.Loc, name: fname, value: valTS})
	}
	resultTS := b.Solver.NewTypeSymbol()
	b.emit(&constructorConstraint{loc: e.Loc, typeName: typeName, result: resultTS, fields: fields})
	kind := ir.KindStructInstantiate
	if def, ok := b.Registry.LookupType(typeName); ok && def.Kind == types.DefUnion {
		kind = ir.KindUnionInstantiate
	}
	id := b.Graph.Alloc(ir.Node{Kind: kind, Loc: e.Loc, ConstructType: typeName, FieldValues: fieldIDs})
	b.nodeTS[id] = resultTS
	return id, resultTS
}

func (b *Builder) buildSizeOf(e *ast.Expr, typeExprs []*ast.Expr) (ir.NodeID, TypeSymbol) {
	measured, err := resolveTypeExpr(b.Registry, typeExprs[0])
	if err != nil {
		b.Solver.fail(e.Loc, "%s", err)
		measured = types.PrimType(types.Void)
	}
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindSizeOf, Loc: e.Loc, TypeName: typeExprs[0].String(), SizeOfType: measured})
	ts := b.Solver.TaggedTypeSymbol(types.PrimType(types.I64))
	b.nodeTS[id] = ts
	return id, ts
}

// buildReturn lowers `return`/`return v` to a break-to-label targeting
// the enclosing function's outermost label — the same
// compiled form `break` uses, just resolved against funcStack instead of
// breakStack so a return inside a nested `while` still exits the whole
// function rather than just the loop.
func (b *Builder) buildReturn(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	if len(b.funcStack) == 0 {
		b.Solver.fail(e.Loc, "return outside of a function")
		ts := b.Solver.NewTypeSymbol()
		id := b.Graph.Alloc(ir.Node{Kind: ir.KindBreakToLabel, Loc: e.Loc})
		b.nodeTS[id] = ts
		return id, ts
	}
	ctx := b.funcStack[len(b.funcStack)-1]
	var valID ir.NodeID
	if len(tail) == 1 {
		var valTS TypeSymbol
		valID, valTS = b.build(tail[0], false)
		b.emit(&equivalentConstraint{loc: e.Loc, a: ctx.ts, b: valTS})
	} else {
		b.emit(&assertConstraint{loc: e.Loc, ts: ctx.ts, t: types.PrimType(types.Void)})
	}
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindBreakToLabel, Loc: e.Loc, BreakLabel: ctx.label, BreakValue: valID})
	ts := b.Solver.NewTypeSymbol() // never-returns; any context accepts it
	b.nodeTS[id] = ts
	return id, ts
}

func (b *Builder) buildBreak(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	var label ir.LabelID
	if len(b.breakStack) > 0 {
		label = b.breakStack[len(b.breakStack)-1]
	} else {
		b.Solver.fail(e.Loc, "break outside of a loop")
	}
	var valID ir.NodeID
	if len(tail) == 1 {
		valID, _ = b.build(tail[0], false)
	}
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindBreakToLabel, Loc: e.Loc, BreakLabel: label, BreakValue: valID})
	ts := b.Solver.NewTypeSymbol()
	b.nodeTS[id] = ts
	return id, ts
}

// buildQuote builds `'expr`: the operand is built like any other
// expression (so its own type is known and it can still be spliced back
// in later), but the quote itself is always typed ptr(expr) — the
// bytecode compiler boxes the operand's node id as a one-element array,
// the same boxed shape `&x` produces for an ordinary pointer.
func (b *Builder) buildQuote(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	operandID, _ := b.build(tail[0], false)
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindQuote, Loc: e.Loc, Operand: operandID})
	ts := b.Solver.TaggedTypeSymbol(types.PtrType(types.ExprType()))
	b.nodeTS[id] = ts
	return id, ts
}

// buildSplice builds `$expr`: unlike quote, a splice evaluates its
// operand and takes on its type — the pair exists so a quoted expression
// can be reintroduced into an evaluated position.
func (b *Builder) buildSplice(e *ast.Expr, tail []*ast.Expr) (ir.NodeID, TypeSymbol) {
	operandID, operandTS := b.build(tail[0], false)
	id := b.Graph.Alloc(ir.Node{Kind: ir.KindSplice, Loc: e.Loc, Operand: operandID})
	ts := b.Solver.NewTypeSymbol()
	b.emit(&equivalentConstraint{loc: e.Loc, a: ts, b: operandTS})
	b.nodeTS[id] = ts
	return id, ts
}
