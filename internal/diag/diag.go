// Package diag implements located, taxonomy-tagged diagnostics: the
// single error currency every phase (lexer, parser, solver, bytecode
// compiler, VM, unit manager) reports through.
//
// Source-context rendering with a caret under the offending column is
// the conventional compiler-diagnostic shape, generalized here from a
// single "compiler error" case to a seven-way taxonomy and to
// multi-error wrapping (the solver's accumulated unresolved-constraint
// batch, the manager's per-unit aggregation).
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/ril-lang/rilc/internal/source"
)

// Kind is one of seven diagnostic categories.
type Kind int

const (
	LexParse Kind = iota
	Structure
	Type
	Polymorphism
	Codegen
	Runtime
	Host
)

func (k Kind) String() string {
	switch k {
	case LexParse:
		return "lex/parse error"
	case Structure:
		return "structure error"
	case Type:
		return "type error"
	case Polymorphism:
		return "polymorphism error"
	case Codegen:
		return "codegen error"
	case Runtime:
		return "runtime error"
	case Host:
		return "host error"
	}
	return "error"
}

// Diagnostic is one located, taxonomy-tagged error, optionally wrapping
// a batch of finer-grained causes (the solver's leftover-constraint
// report, the manager's per-unit aggregation).
type Diagnostic struct {
	Kind Kind
	Loc source.Location
	Unit string // source unit name, prefixed when rendering; "" if not yet known
	Message string
	Wrapped []*Diagnostic
	Source string // full source text, for caret rendering; "" when unavailable
	Warning bool // true for "missing foreign symbol" warning case
}

func New(kind Kind, loc source.Location, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, loc source.Location, message string, wrapped ...*Diagnostic) *Diagnostic {
	return &Diagnostic{Kind: kind, Loc: loc, Message: message, Wrapped: wrapped}
}

func (d *Diagnostic) Error() string { return d.Format(false) }

// Format renders the diagnostic the way the CompilerError.Format
// does: a header line naming the unit/position, the offending source
// line with a caret under the column (when source text is available),
// then the message — optionally ANSI-colored for a TTY.
func (d *Diagnostic) Format(useColor bool) string {
	var sb strings.Builder
	d.writeOne(&sb, useColor, 0)
	for i, w := range d.Wrapped {
		sb.WriteString(fmt.Sprintf("\n [%d/%d] ", i+1, len(d.Wrapped)))
		w.writeOne(&sb, useColor, 2)
	}
	return sb.String()
}

func (d *Diagnostic) writeOne(sb *strings.Builder, useColor bool, indent int) {
	pad := strings.Repeat(" ", indent)
	header := fmt.Sprintf("%s%s: %s", pad, d.Kind, d.Loc)
	if d.Unit != "" {
		header = fmt.Sprintf("%s%s (%s): %s", pad, d.Kind, d.Unit, d.Loc)
	}
	sb.WriteString(header)
	sb.WriteString("\n")

	if line := sourceLine(d.Source, d.Loc.Start.Line); line != "" {
		lineNumStr := fmt.Sprintf("%s%4d | ", pad, d.Loc.Start.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+max(d.Loc.Start.Column-1, 0)))
		caret := "^"
		if useColor {
			caret = color.New(color.FgRed, color.Bold).Sprint("^")
		}
		sb.WriteString(caret)
		sb.WriteString("\n")
	}

	msg := d.Message
	if useColor {
		msg = color.New(color.Bold).Sprint(msg)
	}
	sb.WriteString(pad)
	sb.WriteString(msg)
}

func sourceLine(src string, line int) string {
	if src == "" || line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Batch aggregates diagnostics from one phase or one unit load, sorted
// by location before rendering.
type Batch struct {
	Diagnostics []*Diagnostic
}

func (b *Batch) Add(d *Diagnostic) { b.Diagnostics = append(b.Diagnostics, d) }

func (b *Batch) AddAll(errs []error, kind Kind, unit string) {
	for _, e := range errs {
		b.Add(&Diagnostic{Kind: kind, Unit: unit, Message: e.Error()})
	}
}

func (b *Batch) Len() int { return len(b.Diagnostics) }
func (b *Batch) Err() error {
	if len(b.Diagnostics) == 0 {
		return nil
	}
	return &Diagnostic{
		Kind: b.Diagnostics[0].Kind,
		Message: fmt.Sprintf("%d error(s)", len(b.Diagnostics)),
		Wrapped: b.Sorted(),
	}
}

func (b *Batch) Sorted() []*Diagnostic {
	out := make([]*Diagnostic, len(b.Diagnostics))
	copy(out, b.Diagnostics)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func less(a, b *Diagnostic) bool {
	if a.Unit != b.Unit {
		return a.Unit < b.Unit
	}
	return a.Loc.Start.Less(b.Loc.Start)
}
