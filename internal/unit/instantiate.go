package unit

import (
	"github.com/ril-lang/rilc/internal/ir"
	"github.com/ril-lang/rilc/internal/typecheck"
	"github.com/ril-lang/rilc/internal/types"
)

// foreignDefLookup resolves a generic FunctionID to the unit graph that
// actually declares its body, for a def a unit imported rather than
// declared itself. Backed by Manager.genericDefs, which every Load adds
// to — never reset — so a generic declared while loading unit A is
// still findable when unit C (which only imports A, not A's own source)
// instantiates it much later.
type foreignDefLookup func(types.FunctionID) (defGraph *ir.Graph, node ir.NodeID, ok bool)

// instantiator monomorphizes one polymorphic function definition per
// distinct concrete signature a call site demands, writing the clone
// into graph (the unit currently being compiled). clones is scoped to
// this one destination graph: a FunctionID clone only means anything to
// the bytecode compiler that built its Program from this specific
// graph, so a (def, signature) pair that resolved to a clone while
// compiling a *different* unit cannot be reused here even though the
// same pair may recur — each unit gets its own clone of the body, with
// the same substituted signature, the same concrete content, but a
// distinct handle. What *is* shared across the Manager's whole lifetime
// is lookupForeign's source: the registry of where every generic's body
// lives, so any later unit that merely imports the generic (rather than
// declaring it) can still find and clone its body instead of silently
// leaving the call site pointed at the unresolved generic.
type instantiator struct {
	graph *ir.Graph
	reg *types.Registry
	clones map[instanceKey]types.FunctionID
	lookupForeign foreignDefLookup

	srcGraph *ir.Graph // set per-instantiation: graph defNode actually lives in
	nodeMap map[ir.NodeID]ir.NodeID // per-instantiation clone memo, reset per call

	hits, misses int
}

func newInstantiator(graph *ir.Graph, reg *types.Registry, lookupForeign foreignDefLookup) *instantiator {
	return &instantiator{
		graph: graph,
		reg: reg,
		clones: make(map[instanceKey]types.FunctionID),
		lookupForeign: lookupForeign,
	}
}

// Stats reports how many of this instantiator's PolyRefs were served
// from its dedup cache versus freshly cloned, for the Load-phase log.
func (in *instantiator) Stats() (hits, misses int) { return in.hits, in.misses }

// instantiate materializes (or reuses) the concrete instance ref
// describes, rewriting ref.Node's Function field in place to point at
// it so the bytecode compiler compiles a call to the monomorphized
// body instead of the still-generic original.
func (in *instantiator) instantiate(ref typecheck.PolyRef) error {
	def, ok := in.reg.Function(ref.DefID)
	if !ok {
		return nil // an intrinsic's own handle never round-trips through Registry.Function with a body; nothing to do
	}
	if def.Impl != types.ImplNormal || len(def.Generics) == 0 {
		// Index/*/&'s ImplIntrinsic generics compile directly (compiler.go's
		// compileIntrinsicFunctionCall); no instance is ever needed for them.
		return nil
	}

	key := instanceKey{def: ref.DefID, sig: sigKey(ref.Signature)}
	if fid, ok := in.clones[key]; ok {
		in.hits++
		in.graph.Node(ref.Node).Function = fid
		return nil
	}
	in.misses++

	srcGraph, bodyNode, ok := in.findDefNode(ref.DefID)
	if !ok {
		return nil
	}
	defNode := srcGraph.Node(bodyNode)

	concreteArgs := make([]types.Type, len(def.Signature.Args))
	for i, a := range def.Signature.Args {
		concreteArgs[i] = substituteType(a, ref.Subst)
	}
	concreteSig := &types.FunctionSignature{
		Args: concreteArgs,
		Return: substituteType(def.Signature.Return, ref.Subst),
	}
	newDef := in.reg.DeclareFunction(def.Name, concreteSig, nil, types.ImplNormal, def.Loc)

	in.srcGraph = srcGraph
	in.nodeMap = make(map[ir.NodeID]ir.NodeID)
	clonedBody := in.cloneNode(defNode.Body, ref.Subst)

	newDefNode := ir.Node{
		Kind: ir.KindFunctionDefinition, Loc: defNode.Loc,
		DefName: defNode.DefName, ParamSyms: defNode.ParamSyms, Body: clonedBody,
		Function: newDef.ID,
	}
	in.graph.Alloc(newDefNode)

	in.clones[key] = newDef.ID
	in.graph.Node(ref.Node).Function = newDef.ID
	return nil
}

// findDefNode locates the KindFunctionDefinition node declaring fid,
// trying the graph being compiled first (the common case: a unit
// instantiating its own generic) and falling back to the Manager's
// cross-unit registry for a generic this unit only imported.
func (in *instantiator) findDefNode(fid types.FunctionID) (*ir.Graph, ir.NodeID, bool) {
	for i := 1; i <= in.graph.Len(); i++ {
		id := ir.NodeID(i)
		n := in.graph.Node(id)
		if n.Kind == ir.KindFunctionDefinition && n.Function == fid {
			return in.graph, id, true
		}
	}
	if in.lookupForeign != nil {
		if g, id, ok := in.lookupForeign(fid); ok {
			return g, id, true
		}
	}
	return nil, 0, false
}

// cloneNode deep-copies the subtree rooted at id (read from srcGraph,
// which may belong to a different unit than the one being compiled)
// into freshly allocated nodes of in.graph, substituting every generic
// occurrence in the resolved type table through subst. Symbol ids
// (ir.SymbolID) are reused as-is: they only ever key a funcCompiler's
// own per-Chunk locals map, so distinct instantiations never collide
// even while sharing symbol numbers.
func (in *instantiator) cloneNode(id ir.NodeID, subst map[types.GenericID]types.Type) ir.NodeID {
	if id == 0 {
		return 0
	}
	if cloned, ok := in.nodeMap[id]; ok {
		return cloned
	}
	orig := *in.srcGraph.Node(id)
	n := orig

	n.Cond = in.cloneNode(orig.Cond, subst)
	n.Then = in.cloneNode(orig.Then, subst)
	n.Else = in.cloneNode(orig.Else, subst)
	n.Operand = in.cloneNode(orig.Operand, subst)
	n.Container = in.cloneNode(orig.Container, subst)
	n.IndexBase = in.cloneNode(orig.IndexBase, subst)
	n.IndexValue = in.cloneNode(orig.IndexValue, subst)
	n.Callee = in.cloneNode(orig.Callee, subst)
	n.Body = in.cloneNode(orig.Body, subst)
	n.BreakValue = in.cloneNode(orig.BreakValue, subst)

	if orig.Children != nil {
		n.Children = make([]ir.NodeID, len(orig.Children))
		for i, c := range orig.Children {
			n.Children[i] = in.cloneNode(c, subst)
		}
	}
	if orig.Args != nil {
		n.Args = make([]ir.NodeID, len(orig.Args))
		for i, a := range orig.Args {
			n.Args[i] = in.cloneNode(a, subst)
		}
	}
	if orig.FieldValues != nil {
		n.FieldValues = make([]ir.FieldValue, len(orig.FieldValues))
		for i, fv := range orig.FieldValues {
			n.FieldValues[i] = ir.FieldValue{Name: fv.Name, Value: in.cloneNode(fv.Value, subst)}
		}
	}
	n.SizeOfType = substituteType(orig.SizeOfType, subst)

	newID := in.graph.Alloc(n)
	in.nodeMap[id] = newID
	if t, ok := in.srcGraph.NodeType[id]; ok {
		in.graph.NodeType[newID] = substituteType(t, subst)
	}
	return newID
}

// substituteType replaces every GenericID subst names with its bound
// concrete type, recursing through array/pointer/function shapes —
// internal/unit's own copy of typecheck's unexported substituteGenerics,
// kept separate since the two packages shouldn't share solver-internal
// helpers across a package boundary for a single small function.
func substituteType(t types.Type, subst map[types.GenericID]types.Type) types.Type {
	switch t.Kind {
	case types.KindGeneric:
		if concrete, ok := subst[t.Gen]; ok {
			return concrete
		}
		return t
	case types.KindArray:
		elem := substituteType(*t.Elem, subst)
		return types.ArrayType(elem)
	case types.KindPtr:
		elem := substituteType(*t.Elem, subst)
		return types.PtrType(elem)
	case types.KindFun:
		args := make([]types.Type, len(t.Fun.Args))
		for i, a := range t.Fun.Args {
			args[i] = substituteType(a, subst)
		}
		ret := substituteType(t.Fun.Return, subst)
		return types.Type{Kind: types.KindFun, Fun: &types.FunctionSignature{Args: args, Return: ret}}
	default:
		return t
	}
}
