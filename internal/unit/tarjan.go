package unit

// tarjanSCC computes the strongly-connected components of the directed
// graph named by edges (adjacency list keyed by node), returning them in
// reverse topological order: edges point from each component to the
// components it depends on an earlier index in the result, so reversing
// gives a valid codegen order over a unit's import graph.
//
// Standard single-pass Tarjan, following the textbook algorithm: a
// single-unit compiler has no equivalent pass, since its build graph is
// a flat file list with no cycles to detect.
type tarjanSCC struct {
	edges map[ID][]ID
	index map[ID]int
	lowlink map[ID]int
	onStack map[ID]bool
	stack []ID
	next int
	result [][]ID
}

func newTarjan(edges map[ID][]ID) *tarjanSCC {
	return &tarjanSCC{
		edges: edges,
		index: make(map[ID]int),
		lowlink: make(map[ID]int),
		onStack: make(map[ID]bool),
	}
}

// Run computes SCCs for every node reachable from roots, emitting
// components in the order they finish (a valid reverse-topological
// order of the condensation: a component is only finished after every
// component it points to has already finished).
func (t *tarjanSCC) Run(roots []ID) [][]ID {
	for _, r := range roots {
		if _, ok := t.index[r]; !ok {
			t.strongconnect(r)
		}
	}
	return t.result
}

func (t *tarjanSCC) strongconnect(v ID) {
	t.index[v] = t.next
	t.lowlink[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.edges[v] {
		if _, ok := t.index[w]; !ok {
			t.strongconnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var comp []ID
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		t.result = append(t.result, comp)
	}
}

// CodegenOrder groups ids into strongly-connected components over the
// import graph and returns them in topological order: a component never
// appears before one of the units it imports. Load calls this (via
// dependencyOrder) over a new unit's transitive import closure so
// seedGlobals can forward dependency globals in dependency-first order
// instead of the caller-supplied imports slice's arbitrary order. A
// component with more than one member means the units in it import each
// other cyclically, which dependencyOrder treats as a load error — a
// cyclic unit graph has no valid dependency order to seed globals in.
func (m *Manager) CodegenOrder(ids []ID) [][]ID {
	edges := make(map[ID][]ID, len(ids))
	for _, id := range ids {
		u, ok := m.units[id]
		if !ok {
			continue
		}
		edges[id] = u.Imports
	}
	t := newTarjan(edges)
	groups := t.Run(ids)
	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	return groups
}
