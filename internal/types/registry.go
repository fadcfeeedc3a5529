package types

import "github.com/ril-lang/rilc/internal/source"

// FunctionImplKind discriminates how a function body is realized.
type FunctionImplKind int

const (
	ImplNormal FunctionImplKind = iota
	ImplForeign
	ImplIntrinsic
)

// FunctionDefinition is one entry in a Registry's function table: a
// handle, a signature, zero or more generic parameters (non-empty only
// for polymorphic definitions, used by two-phase call resolution), and
// an implementation kind.
type FunctionDefinition struct {
	ID FunctionID
	Name string
	Signature *FunctionSignature
	Generics []GenericID
	Impl FunctionImplKind
	// Body is the function's typed node id once codegen assigns one;
	// unit.go fills this in during compilation, never during type
	// checking.
	BodyNode int
	Loc source.Location
}

// GlobalKind distinguishes a unit-scope global slot from a local
// variable; a Registry only ever holds globals, but the tag travels with
// the definition since the bytecode compiler needs it to choose between
// a GetGlobal/SetGlobal and a frame-local slot access.
type GlobalKind int

const (
	GlobalScript GlobalKind = iota
	GlobalForeign
)

// GlobalDefinition is one top-level (unit-scope) variable.
type GlobalDefinition struct {
	Name string
	Type Type
	Kind GlobalKind
	Loc source.Location
}

// Registry is the per-unit type/function/global table, scoped to one
// unit. The unit manager (internal/unit) merges the registries of a
// unit's dependencies into scope when type-checking and compiling it.
type Registry struct {
	ModuleID uint64
	TypeDefs map[string]*Definition
	Functions map[FunctionID]*FunctionDefinition
	ByName map[string][]FunctionID // overload sets, name -> handles
	Globals map[string]*GlobalDefinition
}

// nextFunctionID is a single counter shared by every Registry in the
// process — function handles must stay globally unique, since a unit's
// registry is built by importing (copying) every dependency's function
// definitions wholesale rather than re-resolving by name.
var nextFunctionID uint64

func allocFunctionID() FunctionID {
	nextFunctionID++
	return FunctionID(nextFunctionID)
}

func NewRegistry(moduleID uint64) *Registry {
	return &Registry{
		ModuleID: moduleID,
		TypeDefs: make(map[string]*Definition),
		Functions: make(map[FunctionID]*FunctionDefinition),
		ByName: make(map[string][]FunctionID),
		Globals: make(map[string]*GlobalDefinition),
	}
}

// DefineType registers a struct/union definition, keyed by name — a
// redefinition under the same unit is a caller error (checked by the IR
// builder before calling this, so it can attach a proper diagnostic).
func (r *Registry) DefineType(def *Definition) { r.TypeDefs[def.Name] = def }

func (r *Registry) LookupType(name string) (*Definition, bool) {
	d, ok := r.TypeDefs[name]
	return d, ok
}

// DeclareFunction allocates a fresh handle for a function named name and
// registers it, in both the handle table and the name-keyed overload set.
func (r *Registry) DeclareFunction(name string, sig *FunctionSignature, generics []GenericID, impl FunctionImplKind, loc source.Location) *FunctionDefinition {
	id := allocFunctionID()
	def := &FunctionDefinition{ID: id, Name: name, Signature: sig, Generics: generics, Impl: impl, Loc: loc}
	r.Functions[id] = def
	r.ByName[name] = append(r.ByName[name], id)
	return def
}

// FunctionsNamed returns every handle declared under name, in
// declaration order — the candidate set two-phase
// resolution searches (exact match first, then generic match).
func (r *Registry) FunctionsNamed(name string) []*FunctionDefinition {
	ids := r.ByName[name]
	defs := make([]*FunctionDefinition, len(ids))
	for i, id := range ids {
		defs[i] = r.Functions[id]
	}
	return defs
}

func (r *Registry) Function(id FunctionID) (*FunctionDefinition, bool) {
	d, ok := r.Functions[id]
	return d, ok
}

func (r *Registry) DefineGlobal(def *GlobalDefinition) { r.Globals[def.Name] = def }

func (r *Registry) LookupGlobal(name string) (*GlobalDefinition, bool) {
	g, ok := r.Globals[name]
	return g, ok
}
