// Package typecheck implements constraint-based type
// inference: a constraint builder that walks the ir.Graph once, emitting
// a flat list of Constraint values, and a solver that discharges them by
// repeated passes until either every constraint resolves or a full pass
// makes no progress.
//
// The diagnostic plumbing reports a batch of errors rather than bailing
// on the first one. The union-find-style type-variable store and the
// "apply numeric defaulting as a post-solve pass" structure follow a
// conventional Hindley-Milner-style unification setup.
package typecheck

import (
	"fmt"

	"github.com/ril-lang/rilc/internal/source"
	"github.com/ril-lang/rilc/internal/types"
)

// NumClass constrains an as-yet-unresolved type symbol to one of the two
// numeric families, without yet picking a concrete width — exactly the
// state a bare integer or float literal starts in.
type NumClass int

const (
	ClassNone NumClass = iota
	ClassInteger
	ClassFloat
)

// TypeSymbol indexes a unification slot in a Solver.
type TypeSymbol int

type slot struct {
	parent TypeSymbol
	resolved *types.Type
	class NumClass
}

// Error is a type-checking diagnostic.
type Error struct {
	Loc source.Location
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Loc, e.Message) }

// Solver owns the type-symbol union-find store and the pending
// constraint queue for one unit's type check.
type Solver struct {
	Registry *types.Registry
	slots []slot
	errors []error
}

func NewSolver(reg *types.Registry) *Solver {
	return &Solver{Registry: reg, slots: make([]slot, 1)}
}

// NewTypeSymbol allocates a fresh, wholly unconstrained type symbol.
func (s *Solver) NewTypeSymbol() TypeSymbol {
	s.slots = append(s.slots, slot{})
	id := TypeSymbol(len(s.slots) - 1)
	s.slots[id].parent = id
	return id
}

// TaggedTypeSymbol allocates a type symbol pre-resolved to t — used for
// explicit type tags (`a: i64`, struct field declarations, `cbind`
// signatures) where the source already names a concrete type.
func (s *Solver) TaggedTypeSymbol(t types.Type) TypeSymbol {
	ts := s.NewTypeSymbol()
	s.slots[ts].resolved = &t
	return ts
}

func (s *Solver) find(ts TypeSymbol) TypeSymbol {
	root := ts
	for s.slots[root].parent != root {
		root = s.slots[root].parent
	}
	for s.slots[ts].parent != root {
		next := s.slots[ts].parent
		s.slots[ts].parent = root
		ts = next
	}
	return root
}

// Resolved returns the type symbol's concrete type, if one has been
// pinned down yet.
func (s *Solver) Resolved(ts TypeSymbol) (types.Type, bool) {
	root := s.find(ts)
	if s.slots[root].resolved != nil {
		return *s.slots[root].resolved, true
	}
	return types.Type{}, false
}

func (s *Solver) fail(loc source.Location, format string, args ...any) {
	s.errors = append(s.errors, &Error{Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// classAccepts reports whether t belongs to the numeric family c names.
func classAccepts(c NumClass, t types.Type) bool {
	if t.Kind != types.KindPrim {
		return false
	}
	switch c {
	case ClassInteger:
		return t.Prim.IsInteger()
	case ClassFloat:
		return t.Prim.IsFloat()
	}
	return false
}

// Assert pins ts to exactly t, failing if ts already holds an
// incompatible resolved type or numeric class.
func (s *Solver) Assert(loc source.Location, ts TypeSymbol, t types.Type) bool {
	root := s.find(ts)
	sl := &s.slots[root]
	if sl.resolved != nil {
		if !sl.resolved.Equal(t) {
			s.fail(loc, "type mismatch: expected %s, found %s", sl.resolved, t)
		}
		return true
	}
	if sl.class != ClassNone && !classAccepts(sl.class, t) {
		s.fail(loc, "type mismatch: %s is not a %s", t, classLabel(sl.class))
		return true
	}
	sl.resolved = &t
	return true
}

// AssertClass narrows ts to numeric family c, compatible with any
// previously resolved/asserted state.
func (s *Solver) AssertClass(loc source.Location, ts TypeSymbol, c NumClass) bool {
	root := s.find(ts)
	sl := &s.slots[root]
	if sl.resolved != nil {
		if !classAccepts(c, *sl.resolved) {
			s.fail(loc, "type mismatch: %s is not a %s", sl.resolved, classLabel(c))
		}
		return true
	}
	if sl.class == ClassNone {
		sl.class = c
	} else if sl.class != c {
		s.fail(loc, "conflicting numeric constraints")
	}
	return true
}

// Unite merges two type symbols into one equivalence class, propagating
// whichever of the two is more concrete (resolved > classed > bare).
func (s *Solver) Unite(loc source.Location, a, b TypeSymbol) bool {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return true
	}
	sa, sb := &s.slots[ra], &s.slots[rb]
	switch {
	case sa.resolved != nil && sb.resolved != nil:
		if !sa.resolved.Equal(*sb.resolved) {
			s.fail(loc, "type mismatch: %s vs %s", sa.resolved, sb.resolved)
		}
	case sa.resolved != nil:
		if sb.class != ClassNone && !classAccepts(sb.class, *sa.resolved) {
			s.fail(loc, "type mismatch: %s is not a %s", sa.resolved, classLabel(sb.class))
		}
		sb.resolved = sa.resolved
	case sb.resolved != nil:
		if sa.class != ClassNone && !classAccepts(sa.class, *sb.resolved) {
			s.fail(loc, "type mismatch: %s is not a %s", sb.resolved, classLabel(sa.class))
		}
		sa.resolved = sb.resolved
	case sa.class != ClassNone && sb.class != ClassNone && sa.class != sb.class:
		s.fail(loc, "conflicting numeric constraints")
	case sa.class == ClassNone:
		sa.class = sb.class
	}
	s.slots[rb].parent = ra
	return true
}

func classLabel(c NumClass) string {
	switch c {
	case ClassInteger:
		return "integer type"
	case ClassFloat:
		return "floating-point type"
	}
	return "any type"
}

// ApplyDefaulting resolves every still-class-only (never pinned to a
// concrete width) type symbol to its class's default — I64 for Integer,
// F64 for Float. Numeric type classes default only after solving, so
// this runs once, after the constraint pass loop terminates with no
// remaining progress.
func (s *Solver) ApplyDefaulting() {
	for i := range s.slots {
		root := TypeSymbol(i)
		if s.slots[root].parent != root {
			continue
		}
		sl := &s.slots[root]
		if sl.resolved != nil || sl.class == ClassNone {
			continue
		}
		switch sl.class {
		case ClassInteger:
			t := types.PrimType(types.I64)
			sl.resolved = &t
		case ClassFloat:
			t := types.PrimType(types.F64)
			sl.resolved = &t
		}
	}
}

// Errors returns every diagnostic accumulated so far.
func (s *Solver) Errors() []error { return s.errors }
