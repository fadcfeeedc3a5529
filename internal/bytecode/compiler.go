package bytecode

import (
	"fmt"

	"github.com/ril-lang/rilc/internal/ir"
	"github.com/ril-lang/rilc/internal/types"
)

// Compiler lowers one unit's already type-checked internal/ir graph to a
// Program: one Chunk per reachable function, discovered breadth-first
// starting from top_level. Built around one long-lived top structure and a
// fresh per-function local-variable/label scope, with an explicit
// work queue in place of a single-pass-per-node walk — needed since a
// `fun` nested inside a block is discovered mid-walk, not known up front.
type Compiler struct {
	graph *ir.Graph
	registry *types.Registry
	program *Program

	defByID map[types.FunctionID]ir.NodeID
	pending []ir.NodeID
	done map[types.FunctionID]bool

	globalSlots map[string]uint16
	nextGlobal uint16
}

func NewCompiler(graph *ir.Graph, registry *types.Registry) *Compiler {
	return &Compiler{
		graph: graph,
		registry: registry,
		program: NewProgram(),
		done: make(map[types.FunctionID]bool),
		globalSlots: make(map[string]uint16),
	}
}

// Compile compiles every function reachable from top (a unit's implicit
// top_level node) into a Program.
func (c *Compiler) Compile(top ir.NodeID) (*Program, error) {
	c.buildDefIndex()
	c.pending = append(c.pending, top)
	for len(c.pending) > 0 {
		id := c.pending[0]
		c.pending = c.pending[1:]
		def := c.graph.Node(id)
		if c.done[def.Function] {
			continue
		}
		c.done[def.Function] = true
		chunk, err := c.compileFunction(def)
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", def.DefName, err)
		}
		c.program.Functions[def.Function] = chunk
	}
	c.program.TopLevel = c.graph.Node(top).Function
	c.program.GlobalCount = int(c.nextGlobal)
	c.program.GlobalNames = make([]string, c.nextGlobal)
	for name, slot := range c.globalSlots {
		c.program.GlobalNames[slot] = name
	}
	return c.program, nil
}

// buildDefIndex maps every function handle to the graph node that
// defines it, including `fun`s nested inside another function's body —
// those are only discovered once their enclosing function's block is
// walked, but a call or first-class reference earlier in the graph may
// need their handle before that happens, so the index is built up front
// over the whole graph rather than incrementally during compilation.
func (c *Compiler) buildDefIndex() {
	c.defByID = make(map[types.FunctionID]ir.NodeID)
	for i := 1; i <= c.graph.Len(); i++ {
		id := ir.NodeID(i)
		n := c.graph.Node(id)
		if n.Kind == ir.KindFunctionDefinition && n.Function != 0 {
			c.defByID[n.Function] = id
		}
	}
}

func (c *Compiler) enqueue(id ir.NodeID) {
	fid := c.graph.Node(id).Function
	if !c.done[fid] {
		c.pending = append(c.pending, id)
	}
}

func (c *Compiler) globalSlot(name string) uint16 {
	if slot, ok := c.globalSlots[name]; ok {
		return slot
	}
	slot := c.nextGlobal
	c.nextGlobal++
	c.globalSlots[name] = slot
	return slot
}

func implFuncKind(impl types.FunctionImplKind) FuncKind {
	switch impl {
	case types.ImplForeign:
		return FuncForeign
	case types.ImplIntrinsic:
		return FuncIntrinsic
	default:
		return FuncUser
	}
}

// funcCompiler is the per-function compilation scope: its chunk, local
// slot assignment, and label bookkeeping. Grounded on the reference implementation's
// `local`/`loopContext` split (compiler_core.go), replacing its
// scope-depth-based slot reuse with a simpler monotonic allocator — Ril
// has no block-scoped shadowing across sibling blocks that would make
// slot reuse worth the bookkeeping (every `let` gets its own SymbolID
// and is declared exactly once), and frames are short-lived enough that
// over-allocating a few extra slots per call costs nothing observable.
type funcCompiler struct {
	c *Compiler
	chunk *Chunk

	locals map[ir.SymbolID]uint16
	nextSlot uint16
	maxSlot uint16

	irLabels map[ir.LabelID]*label
}

// label is one jump target: sentinel until placeLabel resolves it, per
// fixup algorithm. refs holds the instruction index of
// every jump emitted against this label before it was resolved.
type label struct {
	resolved bool
	target int
	refs []int
}

func newLabel() *label { return &label{} }

func (fc *funcCompiler) irLabel(id ir.LabelID) *label {
	if l, ok := fc.irLabels[id]; ok {
		return l
	}
	l := newLabel()
	fc.irLabels[id] = l
	return l
}

func (fc *funcCompiler) placeLabel(l *label) {
	l.resolved = true
	l.target = len(fc.chunk.Code)
	for _, ref := range l.refs {
		fc.patch(ref, l.target)
	}
	l.refs = nil
}

func (fc *funcCompiler) patch(instrIdx, target int) {
	old := fc.chunk.Code[instrIdx]
	fc.chunk.Code[instrIdx] = MakeInstruction(old.OpCode(), old.A(), uint16(target))
}

// emitJump emits op with a sentinel offset, patching immediately if l is
// already resolved (a backward jump, e.g. a while loop's back-edge) or
// queuing the instruction for patch-on-placement otherwise (a forward
// jump, e.g. break/return/if).
func (fc *funcCompiler) emitJump(op OpCode, l *label) int {
	idx := fc.chunk.emit(op, 0, 0)
	if l.resolved {
		fc.patch(idx, l.target)
	} else {
		l.refs = append(l.refs, idx)
	}
	return idx
}

func (fc *funcCompiler) declareLocal(sym ir.SymbolID) uint16 {
	slot := fc.nextSlot
	fc.nextSlot++
	if fc.nextSlot > fc.maxSlot {
		fc.maxSlot = fc.nextSlot
	}
	fc.locals[sym] = slot
	return slot
}

func (fc *funcCompiler) slotOf(sym ir.SymbolID) (uint16, error) {
	slot, ok := fc.locals[sym]
	if !ok {
		return 0, fmt.Errorf("internal error: local symbol %d referenced before its slot was assigned", sym)
	}
	return slot, nil
}

func (c *Compiler) compileFunction(def *ir.Node) (*Chunk, error) {
	fc := &funcCompiler{
		c: c,
		chunk: &Chunk{Name: def.DefName, Arity: len(def.ParamSyms)},
		locals: make(map[ir.SymbolID]uint16),
		irLabels: make(map[ir.LabelID]*label),
	}
	for _, sym := range def.ParamSyms {
		fc.declareLocal(sym)
	}
	if err := fc.compileNode(def.Body); err != nil {
		return nil, err
	}
	fc.chunk.emit(OpReturn, 1, 0)
	fc.chunk.MaxSlots = int(fc.maxSlot)
	return fc.chunk, nil
}

// compileNode compiles one ir.Graph node, leaving exactly one value on
// the operand stack — stack-neutrality rule, which is
// what lets every caller (block/if/while/call-argument compilation)
// treat every node uniformly regardless of whether it "really" produces
// a value.
func (fc *funcCompiler) compileNode(id ir.NodeID) error {
	n := fc.c.graph.Node(id)
	switch n.Kind {
	case ir.KindLiteral:
		return fc.compileLiteral(id, n)
	case ir.KindVarReference:
		return fc.compileVarReference(n)
	case ir.KindVarInit:
		return fc.compileVarInit(n)
	case ir.KindAssign:
		return fc.compileAssign(n)
	case ir.KindIfThen:
		return fc.compileIfThen(n)
	case ir.KindIfThenElse:
		return fc.compileIfThenElse(n)
	case ir.KindBlock:
		return fc.compileBlock(n)
	case ir.KindQuote:
		return fc.compileQuote(n)
	case ir.KindFunctionReference:
		return fc.compileFunctionReference(n)
	case ir.KindFunctionDefinition:
		fc.c.enqueue(id)
		fc.chunk.emit(OpPushVoid, 0, 0)
		return nil
	case ir.KindStructInstantiate, ir.KindUnionInstantiate:
		return fc.compileConstructor(n)
	case ir.KindFieldAccess:
		return fc.compileFieldAccess(n)
	case ir.KindIndex:
		return fc.compileIndex(n)
	case ir.KindArrayLiteral:
		return fc.compileArrayLiteral(n)
	case ir.KindFunctionCall:
		return fc.compileCall(n)
	case ir.KindIntrinsicCall:
		return fc.compileIntrinsicCall(n)
	case ir.KindWhile:
		return fc.compileWhile(n)
	case ir.KindConvert:
		return fc.compileConvert(id, n)
	case ir.KindSizeOf:
		return fc.compileSizeOf(n)
	case ir.KindLabelledBlock:
		return fc.compileLabelledBlock(n)
	case ir.KindBreakToLabel:
		return fc.compileBreakToLabel(n)
	case ir.KindSplice:
		return fc.compileSplice(n)
	}
	return fmt.Errorf("internal error: no bytecode lowering for ir.Kind %d", n.Kind)
}

// compileLiteral dispatches on the node's own solved type rather than on
// which LiteralValue field is non-zero, since ir.LiteralValue keeps
// Bool/Int/Flt/Str on one struct (builder_exprs.go's buildLiteral) and a
// `false`/`0` literal would otherwise be indistinguishable from an unset
// field.
func (fc *funcCompiler) compileLiteral(id ir.NodeID, n *ir.Node) error {
	if n.Literal.Str != "" {
		fc.chunk.emit(OpPushLit, 0, fc.chunk.addConstant(stringLitValue(n.Literal.Str)))
		return nil
	}
	t, ok := fc.c.graph.NodeType[id]
	var v Value
	switch {
	case ok && t.Kind == types.KindPrim && t.Prim == types.Bool:
		v = BoolValue(n.Literal.Bool)
	case ok && t.Kind == types.KindPrim && t.Prim.IsFloat():
		v = FloatValue(n.Literal.Flt)
	case ok && t.Kind == types.KindPrim && t.Prim == types.Void:
		fc.chunk.emit(OpPushVoid, 0, 0)
		return nil
	default:
		v = IntValue(n.Literal.Int)
	}
	fc.chunk.emit(OpPushLit, 0, fc.chunk.addConstant(v))
	return nil
}

// stringLitValue represents a Ril string literal as an array of i8 byte
// values — there is no dedicated string runtime value, only array(i8) as
// the conventional string representation cbind code shares with the
// host (see internal/host's doc comment).
func stringLitValue(s string) Value {
	arr := NewArrayInstance(nil)
	for i := 0; i < len(s); i++ {
		arr.Elems = append(arr.Elems, IntValue(int64(s[i])))
	}
	return ArrayValue(arr)
}

func (fc *funcCompiler) compileVarReference(n *ir.Node) error {
	if n.Scope == ir.ScopeLocal {
		slot, err := fc.slotOf(n.Symbol)
		if err != nil {
			return err
		}
		fc.chunk.emit(OpPushVar, 0, slot)
		return nil
	}
	fc.chunk.emit(OpPushGlobal, 0, fc.c.globalSlot(n.Name))
	return nil
}

func (fc *funcCompiler) compileVarInit(n *ir.Node) error {
	if err := fc.compileNode(n.Then); err != nil {
		return err
	}
	if n.Scope == ir.ScopeLocal {
		slot := fc.declareLocal(n.Symbol)
		fc.chunk.emit(OpSetVar, 0, slot)
	} else {
		fc.chunk.emit(OpSetGlobal, 0, fc.c.globalSlot(n.Name))
	}
	fc.chunk.emit(OpPushVoid, 0, 0)
	return nil
}

// compileAssign lowers `=`'s three target shapes: plain
// variable, index, field. Index/field targets push their container and
// index/name operands before the value, matching SetArrayIndex/
// SetStructField's documented pop order (value, then index, then array).
func (fc *funcCompiler) compileAssign(n *ir.Node) error {
	target := fc.c.graph.Node(n.Cond)
	switch target.Kind {
	case ir.KindVarReference:
		if err := fc.compileNode(n.Then); err != nil {
			return err
		}
		if target.Scope == ir.ScopeLocal {
			slot, err := fc.slotOf(target.Symbol)
			if err != nil {
				return err
			}
			fc.chunk.emit(OpSetVar, 0, slot)
		} else {
			fc.chunk.emit(OpSetGlobal, 0, fc.c.globalSlot(target.Name))
		}
	case ir.KindIndex:
		if err := fc.compileNode(target.IndexBase); err != nil {
			return err
		}
		if err := fc.compileNode(target.IndexValue); err != nil {
			return err
		}
		if err := fc.compileNode(n.Then); err != nil {
			return err
		}
		fc.chunk.emit(OpSetArrayIndex, 0, 0)
	case ir.KindFieldAccess:
		if err := fc.compileNode(target.Container); err != nil {
			return err
		}
		if err := fc.compileNode(n.Then); err != nil {
			return err
		}
		idx, err := fc.c.fieldIndex(fc.c.graph.NodeType[target.Container], target.Field)
		if err != nil {
			return err
		}
		fc.chunk.emit(OpSetStructField, 0, uint16(idx))
	default:
		return fmt.Errorf("internal error: unassignable target kind %d", target.Kind)
	}
	fc.chunk.emit(OpPushVoid, 0, 0)
	return nil
}

func (fc *funcCompiler) compileIfThen(n *ir.Node) error {
	if err := fc.compileNode(n.Cond); err != nil {
		return err
	}
	falseLbl := newLabel()
	fc.emitJump(OpJumpIfFalse, falseLbl)
	if err := fc.compileNode(n.Then); err != nil {
		return err
	}
	fc.chunk.emit(OpPop, 0, 0)
	fc.placeLabel(falseLbl)
	fc.chunk.emit(OpPushVoid, 0, 0)
	return nil
}

func (fc *funcCompiler) compileIfThenElse(n *ir.Node) error {
	if err := fc.compileNode(n.Cond); err != nil {
		return err
	}
	falseLbl, endLbl := newLabel(), newLabel()
	fc.emitJump(OpJumpIfFalse, falseLbl)
	if err := fc.compileNode(n.Then); err != nil {
		return err
	}
	fc.emitJump(OpJump, endLbl)
	fc.placeLabel(falseLbl)
	if err := fc.compileNode(n.Else); err != nil {
		return err
	}
	fc.placeLabel(endLbl)
	return nil
}

func (fc *funcCompiler) compileBlock(n *ir.Node) error {
	if len(n.Children) == 0 {
		fc.chunk.emit(OpPushVoid, 0, 0)
		return nil
	}
	for i, child := range n.Children {
		if err := fc.compileNode(child); err != nil {
			return err
		}
		if i != len(n.Children)-1 {
			fc.chunk.emit(OpPop, 0, 0)
		}
	}
	return nil
}

func (fc *funcCompiler) compileFunctionReference(n *ir.Node) error {
	def, ok := fc.c.registry.Function(n.Function)
	if !ok {
		return fmt.Errorf("internal error: unresolved function reference %q", n.Name)
	}
	if def.Impl == types.ImplNormal {
		if bodyID, ok := fc.c.defByID[n.Function]; ok {
			fc.c.enqueue(bodyID)
		}
	}
	switch def.Impl {
	case types.ImplForeign:
		fc.c.program.ForeignNames[n.Function] = def.Name
		fc.c.program.FuncArity[n.Function] = len(def.Signature.Args)
	case types.ImplIntrinsic:
		fc.c.program.IntrinsicNames[n.Function] = def.Name
		fc.c.program.FuncArity[n.Function] = len(def.Signature.Args)
	}
	fc.chunk.emit(OpPushFunctionRef, byte(implFuncKind(def.Impl)), fc.chunk.addFunction(n.Function))
	return nil
}

func (fc *funcCompiler) compileConstructor(n *ir.Node) error {
	typeIdx := fc.chunk.addType(n.ConstructType)
	if def, ok := fc.c.registry.LookupType(n.ConstructType); ok {
		fc.c.program.StructFieldCounts[n.ConstructType] = len(def.Fields)
	}
	fc.chunk.emit(OpNewStruct, 0, typeIdx)
	for _, fv := range n.FieldValues {
		if err := fc.compileNode(fv.Value); err != nil {
			return err
		}
		idx, err := fc.c.fieldIndexByName(n.ConstructType, fv.Name)
		if err != nil {
			return err
		}
		fc.chunk.emit(OpStructFieldInit, 0, uint16(idx))
	}
	return nil
}

func (fc *funcCompiler) compileFieldAccess(n *ir.Node) error {
	if err := fc.compileNode(n.Container); err != nil {
		return err
	}
	idx, err := fc.c.fieldIndex(fc.c.graph.NodeType[n.Container], n.Field)
	if err != nil {
		return err
	}
	fc.chunk.emit(OpPushStructField, 0, uint16(idx))
	return nil
}

func (fc *funcCompiler) compileIndex(n *ir.Node) error {
	if err := fc.compileNode(n.IndexBase); err != nil {
		return err
	}
	if err := fc.compileNode(n.IndexValue); err != nil {
		return err
	}
	fc.chunk.emit(OpArrayIndex, 0, 0)
	return nil
}

func (fc *funcCompiler) compileArrayLiteral(n *ir.Node) error {
	for _, child := range n.Children {
		if err := fc.compileNode(child); err != nil {
			return err
		}
	}
	fc.chunk.emit(OpNewArray, 0, uint16(len(n.Children)))
	return nil
}

// compileCall lowers function-call rule. A first-class
// call (Callee != 0, see builder_exprs.go's buildCall) evaluates its
// callee once, spills it to a fresh frame slot so the following argument
// pushes can't shadow it, then reloads it right before
// CallFirstClassFunction — evaluate-callee-before-arguments ordering.
// A resolved call (Callee == 0) dispatches on the registry's
// implementation kind: the always-imported arithmetic/comparison
// intrinsics and the three generic pointer intrinsics (Index, unary `*`,
// `&`) compile directly to BinaryOp/UnaryOp/ArrayIndex/NewArray with no
// call at all; everything else is a real CallFunction against a User or
// Foreign handle.
func (fc *funcCompiler) compileCall(n *ir.Node) error {
	if n.Callee != 0 {
		if err := fc.compileNode(n.Callee); err != nil {
			return err
		}
		tmp := fc.declareLocal(fc.c.graph.NewSymbol())
		fc.chunk.emit(OpSetVar, 0, tmp)
		for _, arg := range n.Args {
			if err := fc.compileNode(arg); err != nil {
				return err
			}
		}
		fc.chunk.emit(OpPushVar, 0, tmp)
		fc.chunk.emit(OpCallFirstClassFunction, 0, 0)
		return nil
	}

	def, ok := fc.c.registry.Function(n.Function)
	if !ok {
		return fmt.Errorf("internal error: unresolved call to %q", n.CallName)
	}
	if def.Impl == types.ImplIntrinsic {
		return fc.compileIntrinsicFunctionCall(n)
	}
	for _, arg := range n.Args {
		if err := fc.compileNode(arg); err != nil {
			return err
		}
	}
	if def.Impl == types.ImplForeign {
		fc.c.program.ForeignNames[n.Function] = def.Name
		fc.c.program.FuncArity[n.Function] = len(def.Signature.Args)
		fc.chunk.emit(OpCallFunction, byte(FuncForeign), fc.chunk.addFunction(n.Function))
		return nil
	}
	if bodyID, ok := fc.c.defByID[n.Function]; ok {
		fc.c.enqueue(bodyID)
	}
	fc.chunk.emit(OpCallFunction, byte(FuncUser), fc.chunk.addFunction(n.Function))
	return nil
}

// compileIntrinsicFunctionCall lowers the registry-resolved intrinsics:
// one monomorphic arithmetic/comparison overload per numeric primitive,
// plus the three generic pointer operations. Index/`*`/`&` share
// ArrayIndex/NewArray with internal/ir's KindIndex node (see value.go's
// doc comment on ptr(T)'s boxed-array representation): `*p` dereferences
// through index 0, and `&x` allocates a fresh one-element array around a
// *copy* of x's current value rather than a true alias back to x's
// storage — a deliberate simplification (see DESIGN.md) since nothing in
// runtime model supports true lvalue aliasing without a
// dedicated reference-slot value kind.
func (fc *funcCompiler) compileIntrinsicFunctionCall(n *ir.Node) error {
	switch n.CallName {
	case "Index":
		if err := fc.compileNode(n.Args[0]); err != nil {
			return err
		}
		if err := fc.compileNode(n.Args[1]); err != nil {
			return err
		}
		fc.chunk.emit(OpArrayIndex, 0, 0)
		return nil
	case "*":
		if len(n.Args) == 1 {
			if err := fc.compileNode(n.Args[0]); err != nil {
				return err
			}
			fc.chunk.emit(OpPushLit, 0, fc.chunk.addConstant(IntValue(0)))
			fc.chunk.emit(OpArrayIndex, 0, 0)
			return nil
		}
	case "&":
		if err := fc.compileNode(n.Args[0]); err != nil {
			return err
		}
		fc.chunk.emit(OpNewArray, 0, 1)
		return nil
	}
	if bop, ok := BinOpFromName(n.CallName); ok && len(n.Args) == 2 {
		if err := fc.compileNode(n.Args[0]); err != nil {
			return err
		}
		if err := fc.compileNode(n.Args[1]); err != nil {
			return err
		}
		fc.chunk.emit(OpBinaryOp, byte(bop), 0)
		return nil
	}
	if n.CallName == "-" && len(n.Args) == 1 {
		if err := fc.compileNode(n.Args[0]); err != nil {
			return err
		}
		fc.chunk.emit(OpUnaryOp, byte(UnNeg), 0)
		return nil
	}
	return fmt.Errorf("internal error: intrinsic %q (arity %d) has no bytecode lowering", n.CallName, len(n.Args))
}

// compileIntrinsicCall lowers `&&`/`||`/`!` — fixed intrinsics the
// builder constructs directly rather than resolving through the
// registry (buildBoolIntrinsic/buildNot), since `&&`/`||` must compile
// to a jump-encoded short circuit rather than an eager two-operand
// BinaryOp.
func (fc *funcCompiler) compileIntrinsicCall(n *ir.Node) error {
	switch n.IntrinsicName {
	case "!":
		if err := fc.compileNode(n.Args[0]); err != nil {
			return err
		}
		fc.chunk.emit(OpUnaryOp, byte(UnNot), 0)
		return nil
	case "&&":
		if err := fc.compileNode(n.Args[0]); err != nil {
			return err
		}
		falseLbl, endLbl := newLabel(), newLabel()
		fc.emitJump(OpJumpIfFalse, falseLbl)
		if err := fc.compileNode(n.Args[1]); err != nil {
			return err
		}
		fc.emitJump(OpJump, endLbl)
		fc.placeLabel(falseLbl)
		fc.chunk.emit(OpPushLit, 0, fc.chunk.addConstant(BoolValue(false)))
		fc.placeLabel(endLbl)
		return nil
	case "||":
		if err := fc.compileNode(n.Args[0]); err != nil {
			return err
		}
		falseLbl, endLbl := newLabel(), newLabel()
		fc.emitJump(OpJumpIfFalse, falseLbl)
		fc.chunk.emit(OpPushLit, 0, fc.chunk.addConstant(BoolValue(true)))
		fc.emitJump(OpJump, endLbl)
		fc.placeLabel(falseLbl)
		if err := fc.compileNode(n.Args[1]); err != nil {
			return err
		}
		fc.placeLabel(endLbl)
		return nil
	}
	return fmt.Errorf("internal error: unknown fixed intrinsic %q", n.IntrinsicName)
}

func (fc *funcCompiler) compileWhile(n *ir.Node) error {
	condLbl := newLabel()
	fc.placeLabel(condLbl)
	if err := fc.compileNode(n.Cond); err != nil {
		return err
	}
	exitLbl := fc.irLabel(n.Label)
	fc.emitJump(OpJumpIfFalse, exitLbl)
	if err := fc.compileNode(n.Then); err != nil {
		return err
	}
	fc.chunk.emit(OpPop, 0, 0)
	fc.emitJump(OpJump, condLbl)
	fc.placeLabel(exitLbl)
	fc.chunk.emit(OpPushVoid, 0, 0)
	return nil
}

func (fc *funcCompiler) compileLabelledBlock(n *ir.Node) error {
	if err := fc.compileNode(n.Then); err != nil {
		return err
	}
	fc.placeLabel(fc.irLabel(n.Label))
	return nil
}

func (fc *funcCompiler) compileBreakToLabel(n *ir.Node) error {
	if n.BreakValue != 0 {
		if err := fc.compileNode(n.BreakValue); err != nil {
			return err
		}
	} else {
		fc.chunk.emit(OpPushVoid, 0, 0)
	}
	fc.emitJump(OpJump, fc.irLabel(n.BreakLabel))
	return nil
}

// compileQuote/compileSplice lower the metaprogramming pair. A
// quoted expression's declared type is always ptr(expr) (§4.1), and this
// codebase already models every ptr(T) value as a one-element
// ArrayInstance (see the Index/*/& intrinsics above) — quote reuses that
// same representation rather than inventing a second pointer shape:
// Operand's node id, the cheapest stable "expression tree" handle
// available at compile time, is boxed the same way `&x` boxes a value.
// A splice evaluates its wrapped expression at the point it appears
// and boxes the
// result identically, so a template_quote host binding can walk a
// quote's array uniformly regardless of which slots came from literal
// subtrees versus splices.
func (fc *funcCompiler) compileQuote(n *ir.Node) error {
	fc.chunk.emit(OpPushLit, 0, fc.chunk.addConstant(IntValue(int64(n.Operand))))
	fc.chunk.emit(OpNewArray, 0, 1)
	return nil
}

func (fc *funcCompiler) compileSplice(n *ir.Node) error {
	if err := fc.compileNode(n.Operand); err != nil {
		return err
	}
	fc.chunk.emit(OpNewArray, 0, 1)
	return nil
}

func (fc *funcCompiler) compileConvert(id ir.NodeID, n *ir.Node) error {
	if err := fc.compileNode(n.Operand); err != nil {
		return err
	}
	src := fc.c.graph.NodeType[n.Operand]
	dst := fc.c.graph.NodeType[id]
	kind := ConvNoop
	switch {
	case src.Kind == types.KindPrim && dst.Kind == types.KindPrim && src.Prim.IsInteger() && dst.Prim.IsFloat():
		kind = ConvIntToFloat
	case src.Kind == types.KindPrim && dst.Kind == types.KindPrim && src.Prim.IsFloat() && dst.Prim.IsInteger():
		kind = ConvFloatToInt
	case src.Kind == types.KindPtr && dst.Kind == types.KindPrim && dst.Prim.IsInteger():
		kind = ConvPtrToInt
	case src.Kind == types.KindPrim && dst.Kind == types.KindPtr:
		kind = ConvIntToPtr
	}
	fc.chunk.emit(OpConvert, byte(kind), 0)
	return nil
}

func (fc *funcCompiler) compileSizeOf(n *ir.Node) error {
	fc.chunk.emit(OpPushLit, 0, fc.chunk.addConstant(IntValue(typeSize(fc.c.registry, n.SizeOfType))))
	return nil
}

// typeSize is `sizeof` operation: a purely informational
// byte count (the VM has no real memory layout to reflect — structs are
// field-indexed Go slices, not byte buffers) useful to `cbind` code that
// forwards a size to something like `malloc`. Struct sizes sum their
// fields; union sizes take the largest field, matching the "mutually
// exclusive, one shared storage slot" layout a union type has.
func typeSize(reg *types.Registry, t types.Type) int64 {
	switch t.Kind {
	case types.KindPrim:
		switch t.Prim {
		case types.Void:
			return 0
		case types.Bool, types.I8, types.U8:
			return 1
		case types.I16, types.U16:
			return 2
		case types.I32, types.U32, types.F32:
			return 4
		default:
			return 8
		}
	case types.KindPtr, types.KindArray, types.KindFun:
		return 8
	case types.KindDef:
		def, ok := reg.LookupType(t.Def)
		if !ok {
			return 8
		}
		if def.Kind == types.DefUnion {
			var max int64
			for _, f := range def.Fields {
				if s := typeSize(reg, f.Type); s > max {
					max = s
				}
			}
			return max
		}
		var total int64
		for _, f := range def.Fields {
			total += typeSize(reg, f.Type)
		}
		return total
	}
	return 8
}

func (c *Compiler) fieldIndex(containerType types.Type, field string) (int, error) {
	if containerType.Kind != types.KindDef {
		return 0, fmt.Errorf("internal error: field access on non-struct type %s", containerType)
	}
	return c.fieldIndexByName(containerType.Def, field)
}

func (c *Compiler) fieldIndexByName(typeName, field string) (int, error) {
	def, ok := c.registry.LookupType(typeName)
	if !ok {
		return 0, fmt.Errorf("internal error: no type named %q", typeName)
	}
	idx, ok := def.FieldIndex(field)
	if !ok {
		return 0, fmt.Errorf("internal error: %s has no field %q", typeName, field)
	}
	return idx, nil
}
