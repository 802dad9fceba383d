// Package asmfmt models a textual AArch64 assembly listing as a typed
// sequence of lines rather than raw strings, the way pkg/bytecode models a
// compiled program as a typed sequence of instructions rather than raw
// bytes. A Program is built up with Directive/Label/Inst/Comment/Blank and
// rendered once, at the end, with Render.
package asmfmt

import (
	"fmt"
	"strings"
)

// LineKind identifies what a Line represents in the listing.
type LineKind int

const (
	// LineDirective is an assembler directive, e.g. ".global _main".
	LineDirective LineKind = iota
	// LineLabel introduces a label, e.g. "L0:".
	LineLabel
	// LineInst is a single machine instruction with its operands.
	LineInst
	// LineComment is a standalone "//" comment line.
	LineComment
	// LineBlank is an empty line, used to visually separate functions.
	LineBlank
)

func (k LineKind) String() string {
	switch k {
	case LineDirective:
		return "directive"
	case LineLabel:
		return "label"
	case LineInst:
		return "inst"
	case LineComment:
		return "comment"
	case LineBlank:
		return "blank"
	default:
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
}

// Line is one line of the rendered listing.
type Line struct {
	Kind     LineKind
	Text     string   // directive/comment payload, or the label name
	Mnemonic string   // LineInst only
	Operands []string // LineInst only
	Trailing string   // optional trailing "// ..." comment on an inst line
}

// Render returns the textual form of a single line, AArch64-syntax style:
// directives and labels start in column 0, instructions are tab-indented.
func (l Line) Render() string {
	switch l.Kind {
	case LineDirective:
		return l.Text
	case LineLabel:
		return l.Text + ":"
	case LineComment:
		return "// " + l.Text
	case LineBlank:
		return ""
	case LineInst:
		body := "\t" + l.Mnemonic
		if len(l.Operands) > 0 {
			body += "\t" + strings.Join(l.Operands, ", ")
		}
		if l.Trailing != "" {
			body += "\t// " + l.Trailing
		}
		return body
	default:
		return fmt.Sprintf("<unknown line kind %d>", int(l.Kind))
	}
}

// Program is an ordered sequence of Lines: the full output of one
// compilation unit, built incrementally by the code generator.
type Program struct {
	Lines []Line
}

// New returns an empty Program.
func New() *Program {
	return &Program{}
}

// Directive appends an assembler directive line verbatim (callers supply
// the leading '.').
func (p *Program) Directive(text string) {
	p.Lines = append(p.Lines, Line{Kind: LineDirective, Text: text})
}

// Label appends a label definition line.
func (p *Program) Label(name string) {
	p.Lines = append(p.Lines, Line{Kind: LineLabel, Text: name})
}

// Inst appends a machine instruction line.
func (p *Program) Inst(mnemonic string, operands ...string) {
	p.Lines = append(p.Lines, Line{Kind: LineInst, Mnemonic: mnemonic, Operands: operands})
}

// InstComment appends a machine instruction line with a trailing "// ..."
// annotation, used by the code generator to note what a spill slot or
// register holds at that point.
func (p *Program) InstComment(trailing string, mnemonic string, operands ...string) {
	p.Lines = append(p.Lines, Line{Kind: LineInst, Mnemonic: mnemonic, Operands: operands, Trailing: trailing})
}

// Comment appends a standalone comment line.
func (p *Program) Comment(text string) {
	p.Lines = append(p.Lines, Line{Kind: LineComment, Text: text})
}

// Blank appends an empty line.
func (p *Program) Blank() {
	p.Lines = append(p.Lines, Line{Kind: LineBlank})
}

// Render produces the final assembly text, one line per Line, newline
// terminated.
func (p *Program) Render() string {
	var b strings.Builder
	for _, l := range p.Lines {
		b.WriteString(l.Render())
		b.WriteByte('\n')
	}
	return b.String()
}

// Validate checks structural invariants that a well-formed listing must
// satisfy: no duplicate label definitions, and no instruction line with an
// empty mnemonic. It does not validate that referenced labels are ever
// defined, nor that mnemonics or operands are valid AArch64 syntax — that
// is the assembler's job, not this package's.
func (p *Program) Validate() error {
	seen := make(map[string]bool, len(p.Lines))
	for i, l := range p.Lines {
		switch l.Kind {
		case LineLabel:
			if seen[l.Text] {
				return &DuplicateLabelError{Label: l.Text, Index: i}
			}
			seen[l.Text] = true
		case LineInst:
			if l.Mnemonic == "" {
				return &EmptyMnemonicError{Index: i}
			}
		}
	}
	return nil
}

// DuplicateLabelError reports a label defined more than once in the same
// Program.
type DuplicateLabelError struct {
	Label string
	Index int
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("asmfmt: label %q redefined at line %d", e.Label, e.Index)
}

// EmptyMnemonicError reports a LineInst with no mnemonic set.
type EmptyMnemonicError struct {
	Index int
}

func (e *EmptyMnemonicError) Error() string {
	return fmt.Sprintf("asmfmt: instruction at line %d has no mnemonic", e.Index)
}
