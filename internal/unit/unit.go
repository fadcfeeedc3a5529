// Package unit implements the unit/dependency manager: incremental
// loading of one source unit against an already-loaded set of
// dependencies, polymorphic-reference instantiation, codegen, and
// top_level execution, plus invalidation support via FindAllDependents.
//
// Built around a module/package loading idiom: the closest analogue is
// a multi-file compilation driver that threads a shared symbol table
// across translation units, adapted to an explicit incremental-load
// algorithm that this package follows step by step.
package unit

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ril-lang/rilc/internal/bytecode"
	"github.com/ril-lang/rilc/internal/diag"
	"github.com/ril-lang/rilc/internal/host"
	"github.com/ril-lang/rilc/internal/ir"
	"github.com/ril-lang/rilc/internal/parser"
	"github.com/ril-lang/rilc/internal/strcache"
	"github.com/ril-lang/rilc/internal/types"
	"github.com/ril-lang/rilc/internal/vm"
)

// ID names one unit within a Manager's store, assigned in load order.
type ID uint64

// Unit is one successfully loaded unit: its source, its typed IR and
// registry, its compiled bytecode, and the VM that ran its top_level
// (kept live so SeedGlobal/GlobalByName can forward its computed
// globals into a dependent unit loaded later).
type Unit struct {
	ID ID
	Name string
	Source string
	Imports []ID
	Registry *types.Registry
	Graph *ir.Graph
	Program *bytecode.Program
	Result host.Val

	vm *vm.VM
}

// instanceKey identifies one polymorphic instantiation: the generic
// definition plus the concrete signature a call site unified against.
// Structural, not pointer, equality — two calls that unify the same
// generic to the same concrete types must share one instance.
type instanceKey struct {
	def types.FunctionID
	sig string
}

func sigKey(sig *types.FunctionSignature) string {
	s := "("
	for i, a := range sig.Args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return s + ")->" + sig.Return.String()
}

// genericDef records where one generic function's body actually lives:
// the unit graph that declared it, and the node within it.
type genericDef struct {
	graph *ir.Graph
	node ir.NodeID
}

// Manager owns the code store: every successfully loaded Unit, the
// shared string cache, the shared host ABI table, the id allocator, and
// the registry of every generic function definition seen so far —
// kept for the Manager's whole lifetime so a unit that only imports a
// generic (never declares it) can still instantiate it, not just the
// unit that originally declared it.
type Manager struct {
	cache *strcache.Cache
	host *host.Table
	nextID uint64
	units map[ID]*Unit
	genericDefs map[types.FunctionID]genericDef
	log *phaseLogger
}

// NewManager builds an empty store, writing every unit's `print`/
// `print_expr` host-call output to out and its phase-timing log lines
// to log (nil disables logging).
func NewManager(out io.Writer, log *slog.Logger) *Manager {
	return &Manager{
		cache: strcache.New(),
		host: host.NewTable(out),
		units: make(map[ID]*Unit),
		genericDefs: make(map[types.FunctionID]genericDef),
		log: newPhaseLogger(log),
	}
}

// recordGenericDefs scans graph for every ImplNormal generic function
// definition reg names and adds it to the Manager's cross-unit lookup
// table, skipping one already recorded (a definition is immutable once
// checked, so the first recording is as good as any later one).
func (m *Manager) recordGenericDefs(graph *ir.Graph, reg *types.Registry) {
	for i := 1; i <= graph.Len(); i++ {
		id := ir.NodeID(i)
		n := graph.Node(id)
		if n.Kind != ir.KindFunctionDefinition {
			continue
		}
		def, ok := reg.Function(n.Function)
		if !ok || def.Impl != types.ImplNormal || len(def.Generics) == 0 {
			continue
		}
		if _, exists := m.genericDefs[n.Function]; !exists {
			m.genericDefs[n.Function] = genericDef{graph: graph, node: id}
		}
	}
}

// lookupGenericDef implements foreignDefLookup against the Manager's
// cross-unit generic registry.
func (m *Manager) lookupGenericDef(fid types.FunctionID) (*ir.Graph, ir.NodeID, bool) {
	d, ok := m.genericDefs[fid]
	if !ok {
		return nil, 0, false
	}
	return d.graph, d.node, true
}

// Get returns a previously loaded unit by id.
func (m *Manager) Get(id ID) (*Unit, bool) {
	u, ok := m.units[id]
	return u, ok
}

// HostTable exposes the shared host ABI table, e.g. for a CLI to call
// RegisterLibrary before loading any unit.
func (m *Manager) HostTable() *host.Table { return m.host }

func (m *Manager) allocID() ID {
	m.nextID++
	return ID(m.nextID)
}

// FindAllDependents returns the reflexive-transitive set of units that
// import u, directly or through a chain of imports,
// used to invalidate them when u is reloaded. u itself is included
// (reflexive).
func (m *Manager) FindAllDependents(u ID) []ID {
	seen := map[ID]bool{u: true}
	changed := true
	for changed {
		changed = false
		for id, unit := range m.units {
			if seen[id] {
				continue
			}
			for _, imp := range unit.Imports {
				if seen[imp] {
					seen[id] = true
					changed = true
					break
				}
			}
		}
	}
	out := make([]ID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

func aggregateErrors(unitName string, kind diag.Kind, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	batch := &diag.Batch{}
	batch.AddAll(errs, kind, unitName)
	return batch.Err()
}

func parseError(unitName string, err error) error {
	if pe, ok := err.(*parser.Error); ok {
		return &diag.Diagnostic{Kind: diag.LexParse, Unit: unitName, Loc: pe.Loc, Message: pe.Message}
	}
	return fmt.Errorf("parsing %q: %w", unitName, err)
}
