package typecheck

import (
	"github.com/ril-lang/rilc/internal/ast"
	"github.com/ril-lang/rilc/internal/ir"
	"github.com/ril-lang/rilc/internal/types"
)

// Result is one unit's completed type-checking output: its typed node
// graph (every value-producing node's Type filled in via Finalize) and
// the registry of types/functions/globals it now exports to dependents.
type Result struct {
	Graph *ir.Graph
	Registry *types.Registry
	Top ir.NodeID
	Errors []error
	PolyRefs []PolyRef
}

// CheckUnit runs the whole constraint-based inference pipeline over one
// parsed unit: build the node graph and constraint list in one tree
// walk, solve to a fixpoint (twice — once before, once after numeric
// defaulting), then copy every resolved type back onto its node.
//
// deps is the set of already-checked units this one depends on; their registries are imported into this unit's own before
// building starts, so references to a dependency's exported types,
// functions, and globals resolve the same way a same-unit reference
// would.
func CheckUnit(moduleID uint64, prog *ast.Expr, deps []*types.Registry) *Result {
	reg := types.NewRegistry(moduleID)
	Import(reg, NewIntrinsicsRegistry())
	for _, dep := range deps {
		Import(reg, dep)
	}

	graph := ir.NewGraph()
	solver := NewSolver(reg)
	builder := NewBuilder(graph, reg, solver)

	top := builder.BuildUnit(prog)
	Solve(solver, builder.Constraints)
	builder.Finalize()

	return &Result{Graph: graph, Registry: reg, Top: top, Errors: solver.Errors(), PolyRefs: builder.PolyRefs}
}
