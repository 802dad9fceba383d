// Package codegen lowers a parsed ast.Program to AArch64 assembly text,
// modeled as an asmfmt.Program. Generation is syntax-directed: one function
// per AST node kind, driven by a single accumulator register (w0) and a
// per-function stack frame computed up front by BuildFrame.
package codegen

import (
	"fmt"

	"github.com/kristofer/mcc/pkg/asmfmt"
	"github.com/kristofer/mcc/pkg/ast"
	"github.com/sirupsen/logrus"
)

// loopContext records the labels break/continue must jump to for the
// innermost enclosing loop.
type loopContext struct {
	ContinueLabel string
	BreakLabel    string
}

// Generator holds the mutable state of one function's code generation
// pass: the frame layout, the label allocator, the loop-label stack, and
// the asmfmt.Program being built.
type Generator struct {
	frame     *Frame
	labels    *labeler
	prog      *asmfmt.Program
	loopStack []loopContext
	log       *logrus.Logger
}

// Generate lowers program to an assembly listing.
func Generate(program *ast.Program, log *logrus.Logger) (*asmfmt.Program, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithField("function", program.Function.Name).Debug("codegen: start")

	frame, err := BuildFrame(program.Function)
	if err != nil {
		log.WithError(err).Debug("codegen: failed")
		return nil, err
	}

	g := &Generator{
		frame:  frame,
		labels: newLabeler(),
		prog:   asmfmt.New(),
		log:    log,
	}

	g.emitHeader()
	g.emitPrologue(program.Function.Name)
	if err := g.genBlock(program.Function.Body); err != nil {
		log.WithError(err).Debug("codegen: failed")
		return nil, err
	}

	if !blockAlwaysReturns(program.Function.Body) {
		log.WithField("function", program.Function.Name).
			Warn("codegen: function does not provably return on every path; emitting fallback epilogue")
		g.prog.Comment("fallback: implicit return 0")
		g.prog.Inst("mov", "w0", "#0")
		g.emitEpilogue()
	}

	log.WithField("lines", len(g.prog.Lines)).Debug("codegen: done")
	return g.prog, nil
}

func imm(n int) string {
	return fmt.Sprintf("#%d", n)
}

func sp(offset int) string {
	if offset == 0 {
		return "[sp]"
	}
	return fmt.Sprintf("[sp, #%d]", offset)
}

func (g *Generator) emitHeader() {
	g.prog.Directive(".section __TEXT,__text,regular,pure_instructions")
	g.prog.Directive(".build_version macos, 13, 0 sdk_version 13, 3")
}

func (g *Generator) emitPrologue(name string) {
	symbol := "_" + name
	g.prog.Directive(".globl " + symbol)
	g.prog.Directive(".p2align 2")
	g.prog.Label(symbol)
	if g.frame.Size > 0 {
		g.prog.Inst("sub", "sp", "sp", imm(g.frame.Size))
	}
}

// emitEpilogue restores the frame and returns; every ReturnStmt, and the
// fallback path at the end of Generate, routes through here so there is
// exactly one place that knows how to tear down the frame. There is no
// frame-pointer save/restore: the operator spill slots are a flat,
// pre-sized region under sp, not a chain of stp/ldp pairs, so x29/x30
// never need to move.
func (g *Generator) emitEpilogue() {
	if g.frame.Size > 0 {
		g.prog.Inst("add", "sp", "sp", imm(g.frame.Size))
	}
	g.prog.Inst("ret")
}

func (g *Generator) genBlock(b *ast.Block) error {
	for _, item := range b.Items {
		if err := g.genBlockItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) genBlockItem(item ast.BlockItem) error {
	switch it := item.(type) {
	case *ast.DeclarationItem:
		return g.genDeclaration(it.Decl)
	case *ast.StatementItem:
		return g.genStatement(it.Stmt)
	default:
		return &NoFunctionContextError{}
	}
}

func (g *Generator) genDeclaration(decl *ast.VarDecl) error {
	v := g.frame.Lookup(decl.Name)
	if v == nil {
		return &VarNotFoundError{Name: decl.Name}
	}
	if decl.Initializer == nil {
		return nil
	}
	if err := g.genExpr(decl.Initializer, 0); err != nil {
		return err
	}
	g.prog.InstComment(decl.Name, "str", "w0", sp(v.Offset))
	return nil
}

func (g *Generator) genStatement(s ast.Statement) error {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		if err := g.genExpr(st.Value, 0); err != nil {
			return err
		}
		g.emitEpilogue()
		return nil

	case *ast.ExpressionStmt:
		return g.genExpr(st.Value, 0)

	case *ast.BlockStmt:
		return g.genBlock(st.Body)

	case *ast.ConditionalStmt:
		return g.genConditional(st)

	case *ast.WhileStmt:
		return g.genWhile(st)

	case *ast.DoWhileStmt:
		return g.genDoWhile(st)

	case *ast.ForStmt:
		return g.genFor(st)

	case *ast.BreakStmt:
		if len(g.loopStack) == 0 {
			return &NoLoopFoundError{Keyword: "break"}
		}
		g.prog.Inst("b", g.loopStack[len(g.loopStack)-1].BreakLabel)
		return nil

	case *ast.ContinueStmt:
		if len(g.loopStack) == 0 {
			return &NoLoopFoundError{Keyword: "continue"}
		}
		g.prog.Inst("b", g.loopStack[len(g.loopStack)-1].ContinueLabel)
		return nil

	case *ast.NullStmt:
		return nil

	default:
		return fmt.Errorf("codegen: unhandled statement type %T", s)
	}
}

func (g *Generator) genConditional(st *ast.ConditionalStmt) error {
	if err := g.genExpr(st.Cond, 0); err != nil {
		return err
	}
	g.prog.Inst("cmp", "w0", "#0")

	if st.Else == nil {
		end := g.labels.Next()
		g.prog.Inst("beq", end)
		if err := g.genStatement(st.Then); err != nil {
			return err
		}
		g.prog.Label(end)
		return nil
	}

	elseLabel := g.labels.Next()
	end := g.labels.Next()
	g.prog.Inst("beq", elseLabel)
	if err := g.genStatement(st.Then); err != nil {
		return err
	}
	g.prog.Inst("b", end)
	g.prog.Label(elseLabel)
	if err := g.genStatement(st.Else); err != nil {
		return err
	}
	g.prog.Label(end)
	return nil
}

func (g *Generator) genWhile(st *ast.WhileStmt) error {
	start := g.labels.Next()
	end := g.labels.Next()

	g.prog.Label(start)
	if err := g.genExpr(st.Cond, 0); err != nil {
		return err
	}
	g.prog.Inst("cmp", "w0", "#0")
	g.prog.Inst("beq", end)

	g.pushLoop(start, end)
	err := g.genStatement(st.Body)
	g.popLoop()
	if err != nil {
		return err
	}

	g.prog.Inst("b", start)
	g.prog.Label(end)
	return nil
}

func (g *Generator) genDoWhile(st *ast.DoWhileStmt) error {
	start := g.labels.Next()
	condLabel := g.labels.Next()
	end := g.labels.Next()

	g.prog.Label(start)
	g.pushLoop(condLabel, end)
	err := g.genStatement(st.Body)
	g.popLoop()
	if err != nil {
		return err
	}

	g.prog.Label(condLabel)
	if err := g.genExpr(st.Cond, 0); err != nil {
		return err
	}
	g.prog.Inst("cmp", "w0", "#0")
	g.prog.Inst("bne", start)
	g.prog.Label(end)
	return nil
}

func (g *Generator) genFor(st *ast.ForStmt) error {
	if err := g.genForInit(st.Init); err != nil {
		return err
	}

	start := g.labels.Next()
	stepLabel := g.labels.Next()
	end := g.labels.Next()

	g.prog.Label(start)
	if st.Cond != nil {
		if err := g.genExpr(st.Cond, 0); err != nil {
			return err
		}
		g.prog.Inst("cmp", "w0", "#0")
		g.prog.Inst("beq", end)
	}

	g.pushLoop(stepLabel, end)
	err := g.genStatement(st.Body)
	g.popLoop()
	if err != nil {
		return err
	}

	g.prog.Label(stepLabel)
	if st.Step != nil {
		if err := g.genExpr(st.Step, 0); err != nil {
			return err
		}
	}
	g.prog.Inst("b", start)
	g.prog.Label(end)
	return nil
}

func (g *Generator) genForInit(init ast.DeclOrExpr) error {
	switch in := init.(type) {
	case *ast.DeclOrExprDecl:
		return g.genDeclaration(in.Decl)
	case *ast.DeclOrExprExpr:
		if in.Value == nil {
			return nil
		}
		return g.genExpr(in.Value, 0)
	default:
		return nil
	}
}

func (g *Generator) pushLoop(continueLabel, breakLabel string) {
	g.loopStack = append(g.loopStack, loopContext{ContinueLabel: continueLabel, BreakLabel: breakLabel})
}

func (g *Generator) popLoop() {
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
}

// genExpr lowers e into w0. opDepth is the number of enclosing
// non-short-circuit binary operators currently live; it indexes directly
// into the frame's spill-slot region, so sibling subexpressions at the
// same depth safely reuse the same slot.
func (g *Generator) genExpr(e ast.Expr, opDepth int) error {
	switch ex := e.(type) {
	case *ast.ConstantExpr:
		g.prog.Inst("mov", "w0", imm(int(ex.Value)))
		return nil

	case *ast.NullExpr:
		g.prog.Inst("mov", "w0", "#0")
		return nil

	case *ast.VarExpr:
		v := g.frame.Lookup(ex.Name)
		if v == nil {
			return &VarNotFoundError{Name: ex.Name}
		}
		g.prog.InstComment(ex.Name, "ldr", "w0", sp(v.Offset))
		return nil

	case *ast.AssignmentExpr:
		v := g.frame.Lookup(ex.Name)
		if v == nil {
			return &VarNotFoundError{Name: ex.Name}
		}
		if err := g.genExpr(ex.Value, opDepth); err != nil {
			return err
		}
		g.prog.InstComment(ex.Name, "str", "w0", sp(v.Offset))
		return nil

	case *ast.UnaryExpr:
		return g.genUnary(ex, opDepth)

	case *ast.BinaryExpr:
		if ex.Op.IsShortCircuit() {
			return g.genShortCircuit(ex, opDepth)
		}
		return g.genBinary(ex, opDepth)

	case *ast.TernaryExpr:
		return g.genTernary(ex, opDepth)

	default:
		return fmt.Errorf("codegen: unhandled expression type %T", e)
	}
}

func (g *Generator) genUnary(ex *ast.UnaryExpr, opDepth int) error {
	if err := g.genExpr(ex.Operand, opDepth); err != nil {
		return err
	}
	switch ex.Op {
	case ast.Negation:
		g.prog.Inst("neg", "w0", "w0")
	case ast.BitwiseComplement:
		g.prog.Inst("mvn", "w0", "w0")
	case ast.LogicalNegation:
		g.prog.Inst("cmp", "w0", "#0")
		g.prog.Inst("cset", "w0", "eq")
	default:
		return fmt.Errorf("codegen: unhandled unary operator %s", ex.Op)
	}
	return nil
}

// genBinary evaluates a non-short-circuit binary operator. The left operand
// is computed first and spilled to this depth's stack slot so the right
// operand's evaluation (which may itself need deeper slots) cannot clobber
// it, then both are reloaded into w0/w1 for the operator instruction.
func (g *Generator) genBinary(ex *ast.BinaryExpr, opDepth int) error {
	if ex.Op.IsShortCircuit() {
		return &UnexpectedShortCircuitOperatorError{Op: ex.Op}
	}

	slot := sp(g.frame.OpSlotOffset(opDepth))

	if err := g.genExpr(ex.Left, opDepth+1); err != nil {
		return err
	}
	g.prog.Inst("str", "w0", slot)

	if err := g.genExpr(ex.Right, opDepth+1); err != nil {
		return err
	}
	g.prog.Inst("mov", "w1", "w0")
	g.prog.Inst("ldr", "w0", slot)

	switch ex.Op {
	case ast.Add:
		g.prog.Inst("add", "w0", "w0", "w1")
	case ast.Sub:
		g.prog.Inst("sub", "w0", "w0", "w1")
	case ast.Mul:
		g.prog.Inst("mul", "w0", "w0", "w1")
	case ast.Div:
		g.prog.Inst("sdiv", "w0", "w0", "w1")
	case ast.Mod:
		g.prog.Inst("sdiv", "w2", "w0", "w1")
		g.prog.Inst("msub", "w0", "w2", "w1", "w0")
	case ast.BitAnd:
		g.prog.Inst("and", "w0", "w0", "w1")
	case ast.BitOr:
		g.prog.Inst("orr", "w0", "w0", "w1")
	case ast.BitXor:
		g.prog.Inst("eor", "w0", "w0", "w1")
	case ast.Shl:
		g.prog.Inst("lsl", "w0", "w0", "w1")
	case ast.Shr:
		g.prog.Inst("asr", "w0", "w0", "w1")
	case ast.Eq:
		g.prog.Inst("cmp", "w0", "w1")
		g.prog.Inst("cset", "w0", "eq")
	case ast.NotEq:
		g.prog.Inst("cmp", "w0", "w1")
		g.prog.Inst("cset", "w0", "ne")
	case ast.Lt:
		g.prog.Inst("cmp", "w0", "w1")
		g.prog.Inst("cset", "w0", "lt")
	case ast.LtEq:
		g.prog.Inst("cmp", "w0", "w1")
		g.prog.Inst("cset", "w0", "le")
	case ast.Gt:
		g.prog.Inst("cmp", "w0", "w1")
		g.prog.Inst("cset", "w0", "gt")
	case ast.GtEq:
		g.prog.Inst("cmp", "w0", "w1")
		g.prog.Inst("cset", "w0", "ge")
	default:
		return fmt.Errorf("codegen: unhandled binary operator %s", ex.Op)
	}
	return nil
}

// genShortCircuit lowers && and || via branching. Neither ever allocates an
// operator spill slot: the right operand is only conditionally evaluated,
// so it can never be simultaneously live with the left operand's result the
// way a strict binary operator's operands are.
func (g *Generator) genShortCircuit(ex *ast.BinaryExpr, opDepth int) error {
	switch ex.Op {
	case ast.And:
		falseLabel := g.labels.Next()
		end := g.labels.Next()
		if err := g.genExpr(ex.Left, opDepth); err != nil {
			return err
		}
		g.prog.Inst("cmp", "w0", "#0")
		g.prog.Inst("beq", falseLabel)
		if err := g.genExpr(ex.Right, opDepth); err != nil {
			return err
		}
		g.prog.Inst("cmp", "w0", "#0")
		g.prog.Inst("beq", falseLabel)
		g.prog.Inst("mov", "w0", "#1")
		g.prog.Inst("b", end)
		g.prog.Label(falseLabel)
		g.prog.Inst("mov", "w0", "#0")
		g.prog.Label(end)
		return nil

	case ast.Or:
		trueLabel := g.labels.Next()
		end := g.labels.Next()
		if err := g.genExpr(ex.Left, opDepth); err != nil {
			return err
		}
		g.prog.Inst("cmp", "w0", "#0")
		g.prog.Inst("bne", trueLabel)
		if err := g.genExpr(ex.Right, opDepth); err != nil {
			return err
		}
		g.prog.Inst("cmp", "w0", "#0")
		g.prog.Inst("bne", trueLabel)
		g.prog.Inst("mov", "w0", "#0")
		g.prog.Inst("b", end)
		g.prog.Label(trueLabel)
		g.prog.Inst("mov", "w0", "#1")
		g.prog.Label(end)
		return nil

	default:
		return &UnexpectedShortCircuitOperatorError{Op: ex.Op}
	}
}

func (g *Generator) genTernary(ex *ast.TernaryExpr, opDepth int) error {
	elseLabel := g.labels.Next()
	end := g.labels.Next()

	if err := g.genExpr(ex.Cond, opDepth); err != nil {
		return err
	}
	g.prog.Inst("cmp", "w0", "#0")
	g.prog.Inst("beq", elseLabel)

	if err := g.genExpr(ex.Then, opDepth); err != nil {
		return err
	}
	g.prog.Inst("b", end)

	g.prog.Label(elseLabel)
	if err := g.genExpr(ex.Else, opDepth); err != nil {
		return err
	}
	g.prog.Label(end)
	return nil
}
