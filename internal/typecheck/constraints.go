package typecheck

import (
	"fmt"

	"github.com/ril-lang/rilc/internal/ir"
	"github.com/ril-lang/rilc/internal/source"
	"github.com/ril-lang/rilc/internal/types"
)

// Constraint is one deferred fact the solver must discharge before a
// unit's node graph can be considered fully typed. Each apply() returns
// true once the constraint is fully discharged (resolved or
// irrecoverably failed — either way, stop retrying it); false means "try
// again next pass, I may have enough information later."
type Constraint interface {
	apply(s *Solver) bool
}

// Assert: ts must equal t.
type assertConstraint struct {
	loc source.Location
	ts TypeSymbol
	t types.Type
}

func (c *assertConstraint) apply(s *Solver) bool { return s.Assert(c.loc, c.ts, c.t) }

// AssertClass: ts must belong to numeric family class (used for bare
// integer/float literals before defaulting runs).
type assertClassConstraint struct {
	loc source.Location
	ts TypeSymbol
	class NumClass
}

func (c *assertClassConstraint) apply(s *Solver) bool { return s.AssertClass(c.loc, c.ts, c.class) }

// Equivalent: a and b must end up as the same type (e.g. both branches
// of an if/then/else, or a variable reference and its binding).
type equivalentConstraint struct {
	loc source.Location
	a, b TypeSymbol
}

func (c *equivalentConstraint) apply(s *Solver) bool { return s.Unite(c.loc, c.a, c.b) }

// FunctionCall: resolve callee name against the registry's overload set
// for that name, given the (possibly still-unresolved) argument type
// symbols, and unite the call node's result type symbol with the chosen
// overload's return type. Two-phase resolution: exact monomorphic match
// first, then a polymorphic match with generic substitution.
type functionCallConstraint struct {
	loc source.Location
	node ir.NodeID
	name string
	args []TypeSymbol
	result TypeSymbol
	resolve func(id types.FunctionID)
	// onPoly, when set, is invoked on a successful Phase 2 (polymorphic)
	// match, with the generic definition's handle and the concrete
	// signature the call site substituted in — "record a
	// polymorphic reference (definition, concrete signature) for later
	// instantiation." Nil for call sites the builder doesn't care to
	// track (none currently; always set — see builder_exprs.go).
	onPoly func(defID types.FunctionID, sig *types.FunctionSignature, subst map[types.GenericID]types.Type)
}

func (c *functionCallConstraint) apply(s *Solver) bool {
	argTypes := make([]types.Type, len(c.args))
	for i, ts := range c.args {
		t, ok := s.Resolved(ts)
		if !ok {
			return false // not enough information yet — every arg must be pinned
		}
		argTypes[i] = t
	}
	candidates := s.Registry.FunctionsNamed(c.name)
	if len(candidates) == 0 {
		// Nothing by this name yet — could be a forward reference to a
		// sibling top-level `fun` whose functionDefConstraint hasn't run
		// this pass. Defer; Solve's leftover pass reports it if it truly
		// never appears.
		return false
	}

	// Phase 1: exact monomorphic match.
	for _, def := range candidates {
		if len(def.Generics) != 0 {
			continue
		}
		if signatureMatches(def.Signature, argTypes) {
			c.resolve(def.ID)
			s.Assert(c.loc, c.result, def.Signature.Return)
			return true
		}
	}
	// Phase 2: polymorphic match with generic substitution.
	for _, def := range candidates {
		if len(def.Generics) == 0 {
			continue
		}
		subst, ok := unifyGenericSignature(def.Signature, argTypes)
		if !ok {
			continue
		}
		c.resolve(def.ID)
		concreteSig := &types.FunctionSignature{Args: argTypes, Return: substituteGenerics(def.Signature.Return, subst)}
		if c.onPoly != nil {
			c.onPoly(def.ID, concreteSig, subst)
		}
		s.Assert(c.loc, c.result, concreteSig.Return)
		return true
	}
	s.fail(c.loc, "no overload of %q matches argument types", c.name)
	return true
}

func (c *functionCallConstraint) describe() string {
	return fmt.Sprintf("call to %q never resolved (no matching function in scope)", c.name)
}

// signatureMatches reports an exact (no generics involved) match.
func signatureMatches(sig *types.FunctionSignature, args []types.Type) bool {
	if len(sig.Args) != len(args) {
		return false
	}
	for i := range args {
		if !sig.Args[i].Equal(args[i]) {
			return false
		}
	}
	return true
}

// unifyGenericSignature attempts to bind sig's generic parameters
// against concrete args, returning the substitution on success.
func unifyGenericSignature(sig *types.FunctionSignature, args []types.Type) (map[types.GenericID]types.Type, bool) {
	if len(sig.Args) != len(args) {
		return nil, false
	}
	subst := make(map[types.GenericID]types.Type)
	for i := range args {
		if !unifyOne(sig.Args[i], args[i], subst) {
			return nil, false
		}
	}
	return subst, true
}

func unifyOne(pattern, concrete types.Type, subst map[types.GenericID]types.Type) bool {
	switch pattern.Kind {
	case types.KindGeneric:
		if existing, ok := subst[pattern.Gen]; ok {
			return existing.Equal(concrete)
		}
		subst[pattern.Gen] = concrete
		return true
	case types.KindPtr, types.KindArray:
		if concrete.Kind != pattern.Kind {
			return false
		}
		return unifyOne(*pattern.Elem, *concrete.Elem, subst)
	default:
		return pattern.Equal(concrete)
	}
}

func substituteGenerics(t types.Type, subst map[types.GenericID]types.Type) types.Type {
	switch t.Kind {
	case types.KindGeneric:
		if concrete, ok := subst[t.Gen]; ok {
			return concrete
		}
		return t
	case types.KindPtr:
		elem := substituteGenerics(*t.Elem, subst)
		return types.PtrType(elem)
	case types.KindArray:
		elem := substituteGenerics(*t.Elem, subst)
		return types.ArrayType(elem)
	default:
		return t
	}
}

// FirstClassCall: the callee position resolved to a local/parameter
// binding rather than a registry name (buildCall checks locals before
// falling back to functionCallConstraint). The callee's type symbol must
// resolve to a Fun type before the call's argument/result types can be
// checked, since nothing else pins down what signature it has.
type firstClassCallConstraint struct {
	loc source.Location
	callee TypeSymbol
	args []TypeSymbol
	result TypeSymbol
}

func (c *firstClassCallConstraint) apply(s *Solver) bool {
	calleeType, ok := s.Resolved(c.callee)
	if !ok {
		return false
	}
	if calleeType.Kind != types.KindFun {
		s.fail(c.loc, "%s is not callable", calleeType)
		return true
	}
	if len(calleeType.Fun.Args) != len(c.args) {
		s.fail(c.loc, "expected %d arguments, found %d", len(calleeType.Fun.Args), len(c.args))
		return true
	}
	for i, argTS := range c.args {
		s.Unite(c.loc, argTS, s.TaggedTypeSymbol(calleeType.Fun.Args[i]))
	}
	s.Assert(c.loc, c.result, calleeType.Fun.Return)
	return true
}

// FunctionDef: registers a function's signature in the registry once
// every parameter's type symbol is resolved (untagged parameters get an
// implicit generic, so this always succeeds once the body has been
// walked — see builder.go).
type functionDefConstraint struct {
	loc source.Location
	name string
	paramTS []TypeSymbol
	returnTS TypeSymbol
	generics []types.GenericID
	node ir.NodeID
	register func(id types.FunctionID)
}

func (c *functionDefConstraint) apply(s *Solver) bool {
	args := make([]types.Type, len(c.paramTS))
	for i, ts := range c.paramTS {
		t, ok := s.Resolved(ts)
		if !ok {
			return false
		}
		args[i] = t
	}
	ret, ok := s.Resolved(c.returnTS)
	if !ok {
		return false
	}
	sig := &types.FunctionSignature{Args: args, Return: ret}
	def := s.Registry.DeclareFunction(c.name, sig, c.generics, types.ImplNormal, c.loc)
	c.register(def.ID)
	return true
}

// Constructor: a struct or union literal. Every named field value must
// match the corresponding field's declared type; the node's own type
// symbol is asserted to the named Def type.
type constructorConstraint struct {
	loc source.Location
	typeName string
	result TypeSymbol
	fields []constructorField
}

type constructorField struct {
	loc source.Location
	name string
	value TypeSymbol
}

func (c *constructorConstraint) apply(s *Solver) bool {
	def, ok := s.Registry.LookupType(c.typeName)
	if !ok {
		s.fail(c.loc, "no type named %q in scope", c.typeName)
		return true
	}
	if def.Kind == types.DefUnion && len(c.fields) != 1 {
		s.fail(c.loc, "union literal %q must set exactly one field", c.typeName)
		return true
	}
	for _, f := range c.fields {
		idx, ok := def.FieldIndex(f.name)
		if !ok {
			s.fail(f.loc, "%s has no field named %q", c.typeName, f.name)
			continue
		}
		s.Assert(f.loc, f.value, def.Fields[idx].Type)
	}
	s.Assert(c.loc, c.result, types.DefType(c.typeName))
	return true
}

// FieldAccess: container.field. The container's type symbol must
// resolve to a Def type with the named field before the access node's
// own type can be pinned.
type fieldAccessConstraint struct {
	loc source.Location
	container TypeSymbol
	field string
	result TypeSymbol
}

func (c *fieldAccessConstraint) apply(s *Solver) bool {
	containerType, ok := s.Resolved(c.container)
	if !ok {
		return false
	}
	if containerType.Kind != types.KindDef {
		s.fail(c.loc, "%s has no fields", containerType)
		return true
	}
	def, ok := s.Registry.LookupType(containerType.Def)
	if !ok {
		s.fail(c.loc, "no type named %q in scope", containerType.Def)
		return true
	}
	idx, ok := def.FieldIndex(c.field)
	if !ok {
		s.fail(c.loc, "%s has no field named %q", containerType, c.field)
		return true
	}
	s.Assert(c.loc, c.result, def.Fields[idx].Type)
	return true
}

// Index: base[value]. base must resolve to array(T) or ptr(T); the
// result is T. The index value itself is separately constrained to an
// Integer class by the builder.
type indexConstraint struct {
	loc source.Location
	base TypeSymbol
	result TypeSymbol
}

func (c *indexConstraint) apply(s *Solver) bool {
	baseType, ok := s.Resolved(c.base)
	if !ok {
		return false
	}
	if baseType.Kind != types.KindArray && baseType.Kind != types.KindPtr {
		s.fail(c.loc, "%s cannot be indexed", baseType)
		return true
	}
	s.Assert(c.loc, c.result, *baseType.Elem)
	return true
}

// Array: an array literal's element type symbols must all be Equivalent
// (handled directly via Unite by the builder); this constraint just
// asserts the literal's own type once the (now-unified) element type
// symbol resolves.
type arrayConstraint struct {
	loc source.Location
	elem TypeSymbol
	result TypeSymbol
}

func (c *arrayConstraint) apply(s *Solver) bool {
	elemType, ok := s.Resolved(c.elem)
	if !ok {
		return false
	}
	s.Assert(c.loc, c.result, types.ArrayType(elemType))
	return true
}

// Convert: `x as T`. No relationship is asserted between x's type and T
// beyond both needing to be concrete numeric/pointer types — the
// bytecode compiler performs the actual bit-level conversion.
type convertConstraint struct {
	loc source.Location
	operand TypeSymbol
	target types.Type
	result TypeSymbol
}

func (c *convertConstraint) apply(s *Solver) bool {
	if _, ok := s.Resolved(c.operand); !ok {
		return false
	}
	s.Assert(c.loc, c.result, c.target)
	return true
}

// GlobalDef: registers a unit-scope global once its initializer's type
// symbol resolves.
type globalDefConstraint struct {
	loc source.Location
	name string
	value TypeSymbol
	kind types.GlobalKind
}

func (c *globalDefConstraint) apply(s *Solver) bool {
	t, ok := s.Resolved(c.value)
	if !ok {
		return false
	}
	s.Registry.DefineGlobal(&types.GlobalDefinition{Name: c.name, Type: t, Kind: c.kind, Loc: c.loc})
	return true
}

// GlobalReference: a variable reference resolved (by the builder) to a
// unit-scope global rather than a local; unites the reference's type
// symbol with the global's declared type.
type globalReferenceConstraint struct {
	loc source.Location
	name string
	result TypeSymbol
}

func (c *globalReferenceConstraint) apply(s *Solver) bool {
	g, ok := s.Registry.LookupGlobal(c.name)
	if !ok {
		return false // may be declared later in the same pass
	}
	s.Assert(c.loc, c.result, g.Type)
	return true
}

func (c *globalReferenceConstraint) describe() string {
	return fmt.Sprintf("reference to %q never resolved (no such global or function in scope)", c.name)
}

// Solve repeatedly walks the constraint list, discharging what it can,
// until either the list is empty or a full pass makes no progress. A
// nonempty leftover after a dry pass means some type could never be
// pinned down — the solver reports it as a single "could not infer type"
// error per remaining constraint rather than looping forever.
func Solve(s *Solver, constraints []Constraint) {
	for len(constraints) > 0 {
		progressed := false
		remaining := constraints[:0]
		for _, c := range constraints {
			if c.apply(s) {
				progressed = true
			} else {
				remaining = append(remaining, c)
			}
		}
		constraints = remaining
		if !progressed {
			break
		}
	}
	s.ApplyDefaulting()
	// A second pass after defaulting resolves anything that was only
	// waiting on a numeric literal to pick its default width.
	for len(constraints) > 0 {
		progressed := false
		remaining := constraints[:0]
		for _, c := range constraints {
			if c.apply(s) {
				progressed = true
			} else {
				remaining = append(remaining, c)
			}
		}
		constraints = remaining
		if !progressed {
			break
		}
	}
	for _, c := range constraints {
		if cc, ok := c.(interface{ describe() string }); ok {
			s.fail(source.Zero, "could not infer type: %s", cc.describe())
		} else {
			s.fail(source.Zero, "could not infer type")
		}
	}
}
