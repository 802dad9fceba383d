// Package astprint renders a parsed ast.Program as an indented textual
// tree, in the same spirit as pkg/vm's instruction listing: one line per
// node, indentation standing in for nesting depth instead of an
// instruction-pointer marker. It exists purely for the --ast diagnostic
// flag; nothing in code generation depends on it.
package astprint

import (
	"fmt"
	"strings"

	"github.com/kristofer/mcc/pkg/ast"
)

// Print renders prog's function as an indented tree and returns it as a
// single string.
func Print(prog *ast.Program) string {
	p := &printer{}
	p.printFunction(prog.Function)
	return p.b.String()
}

type printer struct {
	b     strings.Builder
	depth int
}

func (p *printer) line(format string, args ...interface{}) {
	p.b.WriteString(strings.Repeat("  ", p.depth))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) indent(f func()) {
	p.depth++
	f()
	p.depth--
}

func (p *printer) printFunction(fn *ast.Function) {
	p.line("Function %s", fn.Name)
	p.indent(func() {
		p.printBlock(fn.Body)
	})
}

func (p *printer) printBlock(b *ast.Block) {
	p.line("Block")
	p.indent(func() {
		for _, item := range b.Items {
			p.printBlockItem(item)
		}
	})
}

func (p *printer) printBlockItem(item ast.BlockItem) {
	switch it := item.(type) {
	case *ast.DeclarationItem:
		p.printDecl(it.Decl)
	case *ast.StatementItem:
		p.printStatement(it.Stmt)
	default:
		p.line("<unknown block item %T>", item)
	}
}

func (p *printer) printDecl(decl *ast.VarDecl) {
	p.line("Declare %s %s", decl.Size, decl.Name)
	if decl.Initializer != nil {
		p.indent(func() {
			p.printExpr(decl.Initializer)
		})
	}
}

func (p *printer) printStatement(s ast.Statement) {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		p.line("Return")
		p.indent(func() { p.printExpr(st.Value) })

	case *ast.ExpressionStmt:
		p.line("ExprStatement")
		p.indent(func() { p.printExpr(st.Value) })

	case *ast.BlockStmt:
		p.printBlock(st.Body)

	case *ast.ConditionalStmt:
		p.line("If")
		p.indent(func() { p.printExpr(st.Cond) })
		p.line("Then")
		p.indent(func() { p.printStatement(st.Then) })
		if st.Else != nil {
			p.line("Else")
			p.indent(func() { p.printStatement(st.Else) })
		}

	case *ast.WhileStmt:
		p.line("While")
		p.indent(func() { p.printExpr(st.Cond) })
		p.indent(func() { p.printStatement(st.Body) })

	case *ast.DoWhileStmt:
		p.line("DoWhile")
		p.indent(func() { p.printStatement(st.Body) })
		p.line("Until")
		p.indent(func() { p.printExpr(st.Cond) })

	case *ast.ForStmt:
		p.line("For")
		p.indent(func() {
			p.line("Init")
			p.indent(func() { p.printForInit(st.Init) })
			if st.Cond != nil {
				p.line("Cond")
				p.indent(func() { p.printExpr(st.Cond) })
			}
			if st.Step != nil {
				p.line("Step")
				p.indent(func() { p.printExpr(st.Step) })
			}
			p.line("Body")
			p.indent(func() { p.printStatement(st.Body) })
		})

	case *ast.BreakStmt:
		p.line("Break")

	case *ast.ContinueStmt:
		p.line("Continue")

	case *ast.NullStmt:
		p.line("Null")

	default:
		p.line("<unknown statement %T>", s)
	}
}

func (p *printer) printForInit(init ast.DeclOrExpr) {
	switch in := init.(type) {
	case *ast.DeclOrExprDecl:
		p.printDecl(in.Decl)
	case *ast.DeclOrExprExpr:
		if in.Value == nil {
			p.line("(empty)")
			return
		}
		p.printExpr(in.Value)
	default:
		p.line("<unknown for-init %T>", init)
	}
}

func (p *printer) printExpr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.ConstantExpr:
		p.line("Constant %d", ex.Value)

	case *ast.VarExpr:
		p.line("Var %s", ex.Name)

	case *ast.NullExpr:
		p.line("(empty)")

	case *ast.AssignmentExpr:
		p.line("Assign %s", ex.Name)
		p.indent(func() { p.printExpr(ex.Value) })

	case *ast.UnaryExpr:
		p.line("Unary %s", ex.Op)
		p.indent(func() { p.printExpr(ex.Operand) })

	case *ast.BinaryExpr:
		p.line("Binary %s", ex.Op)
		p.indent(func() {
			p.printExpr(ex.Left)
			p.printExpr(ex.Right)
		})

	case *ast.TernaryExpr:
		p.line("Ternary")
		p.indent(func() {
			p.printExpr(ex.Cond)
			p.printExpr(ex.Then)
			p.printExpr(ex.Else)
		})

	default:
		p.line("<unknown expr %T>", e)
	}
}
