package unit

import (
	"fmt"
	"time"

	"github.com/ril-lang/rilc/internal/bytecode"
	"github.com/ril-lang/rilc/internal/diag"
	"github.com/ril-lang/rilc/internal/parser"
	"github.com/ril-lang/rilc/internal/typecheck"
	"github.com/ril-lang/rilc/internal/types"
	"github.com/ril-lang/rilc/internal/vm"
)

// Load implements incremental-load algorithm: parse,
// assemble the visible registry set from imports (always including the
// intrinsics unit, which typecheck.CheckUnit adds implicitly), build
// typed IR and run inference, materialize every polymorphic reference's
// concrete instance, compile to bytecode, then execute the new
// top_level and capture its boxed result.
//
// On any failure, the store is left exactly as it was before the call —
// no partial unit, no id reused for a live unit later — by simply never inserting into m.units until every
// step has succeeded. Each phase's outcome and elapsed time is recorded
// through m.log (a no-op unless the Manager was built with a logger).
func (m *Manager) Load(name, src string, imports []ID) (*Unit, error) {
	id := m.allocID()

	t0 := time.Now()
	prog, err := parser.Parse(m.cache, name, src)
	m.log.record(name, id, "parse", t0, err)
	if err != nil {
		return nil, parseError(name, err)
	}

	depRegistries, err := m.depRegistries(imports)
	if err != nil {
		return nil, err
	}

	t0 = time.Now()
	result := typecheck.CheckUnit(uint64(id), prog, depRegistries)
	var typeErr error
	if len(result.Errors) > 0 {
		typeErr = aggregateErrors(name, diag.Type, result.Errors)
	}
	m.log.record(name, id, "typecheck", t0, typeErr)
	if typeErr != nil {
		return nil, typeErr
	}

	m.recordGenericDefs(result.Graph, result.Registry)

	t0 = time.Now()
	in := newInstantiator(result.Graph, result.Registry, m.lookupGenericDef)
	var instErr error
	for _, ref := range result.PolyRefs {
		if err := in.instantiate(ref); err != nil {
			instErr = &diag.Diagnostic{Kind: diag.Polymorphism, Unit: name, Message: err.Error()}
			break
		}
	}
	hits, misses := in.Stats()
	m.log.record(name, id, fmt.Sprintf("instantiate (cache hits=%d misses=%d)", hits, misses), t0, instErr)
	if instErr != nil {
		return nil, instErr
	}

	t0 = time.Now()
	compiler := bytecode.NewCompiler(result.Graph, result.Registry)
	program, err := compiler.Compile(result.Top)
	m.log.record(name, id, "compile", t0, err)
	if err != nil {
		return nil, &diag.Diagnostic{Kind: diag.Codegen, Unit: name, Message: err.Error()}
	}

	u := &Unit{
		ID: id, Name: name, Source: src, Imports: append([]ID(nil), imports...),
		Registry: result.Registry, Graph: result.Graph, Program: program,
	}

	order, err := m.dependencyOrder(imports)
	if err != nil {
		return nil, &diag.Diagnostic{Kind: diag.Structure, Unit: name, Message: err.Error()}
	}

	t0 = time.Now()
	machine := vm.New(program, m.host)
	m.seedGlobals(machine, program, order)
	retVal, err := machine.Run()
	m.log.record(name, id, "run", t0, err)
	if err != nil {
		return nil, &diag.Diagnostic{Kind: diag.Runtime, Unit: name, Message: err.Error()}
	}
	u.vm = machine

	topDef, ok := result.Registry.Function(result.Graph.Node(result.Top).Function)
	if !ok {
		return nil, &diag.Diagnostic{Kind: diag.Codegen, Unit: name, Message: "internal error: top_level has no registered signature"}
	}
	u.Result = vm.BoxResult(topDef.Signature.Return, retVal)

	m.units[id] = u
	return u, nil
}

// depRegistries resolves imports to the registries the new unit's
// inference pass should see, erroring if an import names a unit the
// store doesn't have.
func (m *Manager) depRegistries(imports []ID) ([]*types.Registry, error) {
	out := make([]*types.Registry, 0, len(imports))
	for _, imp := range imports {
		u, ok := m.units[imp]
		if !ok {
			return nil, fmt.Errorf("import of unknown unit id %d", imp)
		}
		out = append(out, u.Registry)
	}
	return out, nil
}

// dependencyOrder groups imports' transitive closure into strongly
// connected components via CodegenOrder and flattens them into a single
// dependency-first visit order: every unit appears after every unit it
// (transitively) imports. seedGlobals walks globals in this order so a
// diamond import (two imports that both re-export a name from a shared
// common ancestor) seeds deterministically, the earliest ancestor
// first, rather than in whatever order the caller happened to list
// imports. A non-singleton component signals an import cycle, which the
// loader rejects outright since a cyclic unit graph has no valid
// codegen order to begin with.
func (m *Manager) dependencyOrder(imports []ID) ([]ID, error) {
	groups := m.CodegenOrder(m.transitiveImports(imports))
	order := make([]ID, 0, len(imports))
	for _, g := range groups {
		if len(g) > 1 {
			return nil, fmt.Errorf("import cycle among units %v", g)
		}
		order = append(order, g...)
	}
	return order, nil
}

// transitiveImports collects the reflexive-transitive closure of
// imports over the already-loaded store, in arbitrary order (the order
// CodegenOrder imposes is what matters, not this one).
func (m *Manager) transitiveImports(imports []ID) []ID {
	seen := make(map[ID]bool, len(imports))
	var out []ID
	var visit func(ID)
	visit = func(id ID) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		if u, ok := m.units[id]; ok {
			for _, imp := range u.Imports {
				visit(imp)
			}
		}
	}
	for _, id := range imports {
		visit(id)
	}
	return out
}

// seedGlobals forwards every already-computed dependency global into
// the new unit's VM before Run, by name (bytecode.Program.GlobalNames),
// since slot numbers are assigned independently per compiled Program.
// order must be dependency-first (see dependencyOrder): when a name is
// both inherited from a common ancestor and re-declared by one of the
// direct imports, the direct import is visited after its own ancestor
// and so its value is the one that ends up seeded, matching the
// most-specific-definition-wins shadowing rule a same-unit reference
// would already follow.
func (m *Manager) seedGlobals(machine *vm.VM, program *bytecode.Program, order []ID) {
	for _, imp := range order {
		dep, ok := m.units[imp]
		if !ok || dep.vm == nil {
			continue
		}
		for _, name := range dep.Program.GlobalNames {
			if name == "" {
				continue
			}
			if v, ok := dep.vm.GlobalByName(name); ok {
				machine.SeedGlobal(name, v)
			}
		}
	}
}
