// Package source defines the position and location types shared by the
// lexer, parser, typed IR, and diagnostics packages.
package source

import "fmt"

// Position is a 1-based line/column marker within a source unit.
type Position struct {
	Line   int
	Column int
}

// String renders the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Less reports whether p sorts before other, used when diagnostics are
// aggregated and rendered in location order.
func (p Position) Less(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// Location is a start/end span plus the identifier of the source unit it
// came from (a file path, or a synthetic name such as "<repl>"). Every
// expression and every diagnostic carries one.
type Location struct {
	Unit  string
	Start Position
	End   Position
}

// Zero is the location used for synthesized nodes (intrinsics, host
// bindings) that have no source text of their own.
var Zero = Location{Unit: "<builtin>"}

func (l Location) String() string {
	if l.Unit == "" {
		return l.Start.String()
	}
	return fmt.Sprintf("%s:%s", l.Unit, l.Start.String())
}

// Span returns a location covering both l and other, keeping l's unit and
// earliest start / latest end. Used when a parent node's location is
// derived from its children.
func (l Location) Span(other Location) Location {
	start := l.Start
	if other.Start.Less(start) {
		start = other.Start
	}
	end := l.End
	if end.Less(other.End) {
		end = other.End
	}
	return Location{Unit: l.Unit, Start: start, End: end}
}
