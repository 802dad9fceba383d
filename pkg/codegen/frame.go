package codegen

import "github.com/kristofer/mcc/pkg/ast"

// stackAlignment is AArch64's mandated SP alignment: the stack pointer
// must be a multiple of 16 bytes at every public instruction boundary.
const stackAlignment = 16

// align16 rounds n up to the next multiple of stackAlignment.
func align16(n int) int {
	if rem := n % stackAlignment; rem != 0 {
		n += stackAlignment - rem
	}
	return n
}

// StackVar is one local variable's slot: a positive, SP-relative byte
// offset plus its declared width.
type StackVar struct {
	Name   string
	Size   ast.VarSize
	Offset int
}

// Frame is the pre-pass result for one function: where every local
// variable lives, how many operator spill slots the expression trees
// inside it need, and the function's total (16-byte aligned) stack frame
// size.
//
// Layout, lowest SP offset to highest:
//
//	[ op spill slots (OpSlotCount * 4 bytes) ][ alignment padding ][ local variables, in declaration order ]
//
// Spill slots sit below the variables because their count is derived from
// expression nesting depth rather than declaration order, so they are
// indexed directly rather than looked up by name.
type Frame struct {
	Vars        map[string]*StackVar
	Order       []string // declaration order
	OpSlotCount int
	OpSlotBytes int // OpSlotCount * word size
	Size        int // total frame size, 16-byte aligned
}

// OpSlotOffset returns the SP-relative offset of the depth-th spill slot
// (0-indexed). depth must be less than OpSlotCount.
func (f *Frame) OpSlotOffset(depth int) int {
	return depth * ast.Word.Bytes()
}

// Lookup returns the StackVar for name, or nil if it is not declared in
// this function.
func (f *Frame) Lookup(name string) *StackVar {
	return f.Vars[name]
}

// BuildFrame runs the frame-layout pre-pass over a function body: it
// collects every declared variable into one flat, function-wide map
// (rejecting redeclaration — this language has no nested block scoping),
// determines the deepest simultaneous non-short-circuit binary-operator
// nesting in any expression the function evaluates, and lays out SP-relative
// offsets for both.
func BuildFrame(fn *ast.Function) (*Frame, error) {
	vars := make(map[string]*StackVar)
	var order []string
	if err := collectVarsBlock(fn.Body, vars, &order); err != nil {
		return nil, err
	}

	opSlots := blockOpDepth(fn.Body)
	opBytes := opSlots * ast.Word.Bytes()

	varBytes := 0
	for _, name := range order {
		varBytes += vars[name].Size.Bytes()
	}
	frameSize := align16(opBytes + varBytes)

	// Bottom-up accumulation: walk declarations in reverse so each var's
	// "suffix total" (its own size plus everything declared after it) is
	// known, then invert against frameSize to get its offset. This leaves
	// variables laid out in ascending declaration order, ending at the top
	// of the frame, above the spill-slot region and any alignment padding.
	running := 0
	for i := len(order) - 1; i >= 0; i-- {
		v := vars[order[i]]
		running += v.Size.Bytes()
		v.Offset = frameSize - running
	}

	return &Frame{
		Vars:        vars,
		Order:       order,
		OpSlotCount: opSlots,
		OpSlotBytes: opBytes,
		Size:        frameSize,
	}, nil
}

func collectVarsBlock(b *ast.Block, vars map[string]*StackVar, order *[]string) error {
	for _, item := range b.Items {
		switch it := item.(type) {
		case *ast.DeclarationItem:
			if err := declareVar(it.Decl, vars, order); err != nil {
				return err
			}
		case *ast.StatementItem:
			if err := collectVarsStmt(it.Stmt, vars, order); err != nil {
				return err
			}
		}
	}
	return nil
}

func declareVar(decl *ast.VarDecl, vars map[string]*StackVar, order *[]string) error {
	if _, exists := vars[decl.Name]; exists {
		return &VarAlreadyDeclaredError{Name: decl.Name}
	}
	vars[decl.Name] = &StackVar{Name: decl.Name, Size: decl.Size}
	*order = append(*order, decl.Name)
	return nil
}

func collectVarsStmt(s ast.Statement, vars map[string]*StackVar, order *[]string) error {
	switch st := s.(type) {
	case *ast.BlockStmt:
		return collectVarsBlock(st.Body, vars, order)
	case *ast.ConditionalStmt:
		if err := collectVarsStmt(st.Then, vars, order); err != nil {
			return err
		}
		if st.Else != nil {
			return collectVarsStmt(st.Else, vars, order)
		}
		return nil
	case *ast.WhileStmt:
		return collectVarsStmt(st.Body, vars, order)
	case *ast.DoWhileStmt:
		return collectVarsStmt(st.Body, vars, order)
	case *ast.ForStmt:
		if initDecl, ok := st.Init.(*ast.DeclOrExprDecl); ok {
			if err := declareVar(initDecl.Decl, vars, order); err != nil {
				return err
			}
		}
		return collectVarsStmt(st.Body, vars, order)
	default:
		// ReturnStmt, ExpressionStmt, BreakStmt, ContinueStmt, NullStmt:
		// none declare variables.
		return nil
	}
}

// blockOpDepth is the deepest operator-spill-slot requirement of any single
// execution path through b. Sibling block items execute sequentially, never
// simultaneously, so their requirements are reused rather than summed.
func blockOpDepth(b *ast.Block) int {
	max := 0
	for _, item := range b.Items {
		var d int
		switch it := item.(type) {
		case *ast.DeclarationItem:
			if it.Decl.Initializer != nil {
				d = exprOpDepth(it.Decl.Initializer)
			}
		case *ast.StatementItem:
			d = stmtOpDepth(it.Stmt)
		}
		if d > max {
			max = d
		}
	}
	return max
}

func stmtOpDepth(s ast.Statement) int {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		return exprOpDepth(st.Value)
	case *ast.ExpressionStmt:
		return exprOpDepth(st.Value)
	case *ast.BlockStmt:
		return blockOpDepth(st.Body)
	case *ast.ConditionalStmt:
		d := maxInt(exprOpDepth(st.Cond), stmtOpDepth(st.Then))
		if st.Else != nil {
			d = maxInt(d, stmtOpDepth(st.Else))
		}
		return d
	case *ast.WhileStmt:
		return maxInt(exprOpDepth(st.Cond), stmtOpDepth(st.Body))
	case *ast.DoWhileStmt:
		return maxInt(stmtOpDepth(st.Body), exprOpDepth(st.Cond))
	case *ast.ForStmt:
		d := 0
		if initExpr, ok := st.Init.(*ast.DeclOrExprExpr); ok && initExpr.Value != nil {
			d = maxInt(d, exprOpDepth(initExpr.Value))
		} else if initDecl, ok := st.Init.(*ast.DeclOrExprDecl); ok && initDecl.Decl.Initializer != nil {
			d = maxInt(d, exprOpDepth(initDecl.Decl.Initializer))
		}
		if st.Cond != nil {
			d = maxInt(d, exprOpDepth(st.Cond))
		}
		if st.Step != nil {
			d = maxInt(d, exprOpDepth(st.Step))
		}
		d = maxInt(d, stmtOpDepth(st.Body))
		return d
	default:
		// BreakStmt, ContinueStmt, NullStmt.
		return 0
	}
}

func exprOpDepth(e ast.Expr) int {
	if e == nil {
		return 0
	}
	switch ex := e.(type) {
	case *ast.ConstantExpr, *ast.VarExpr:
		return 0
	case *ast.UnaryExpr:
		return exprOpDepth(ex.Operand)
	case *ast.AssignmentExpr:
		return exprOpDepth(ex.Value)
	case *ast.BinaryExpr:
		d := maxInt(exprOpDepth(ex.Left), exprOpDepth(ex.Right))
		if ex.Op.IsShortCircuit() {
			return d
		}
		return d + 1
	case *ast.TernaryExpr:
		return maxInt(exprOpDepth(ex.Cond), maxInt(exprOpDepth(ex.Then), exprOpDepth(ex.Else)))
	case *ast.NullExpr:
		return 0
	default:
		return 0
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
