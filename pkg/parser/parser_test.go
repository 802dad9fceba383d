package parser

import (
	"testing"

	"github.com/kristofer/mcc/pkg/ast"
	"github.com/kristofer/mcc/pkg/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	stream, err := lexer.Tokenize(src)
	require.NoError(t, err)
	prog, err := Parse(stream, nil)
	require.NoError(t, err)
	return prog
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	stream, err := lexer.Tokenize(src)
	require.NoError(t, err)
	_, err = Parse(stream, nil)
	require.Error(t, err)
	return err
}

func TestParseMinimalFunction(t *testing.T) {
	prog := parse(t, "int main() { return 0; }")
	require.NotNil(t, prog.Function)
	assert.Equal(t, "main", prog.Function.Name)
	require.Len(t, prog.Function.Body.Items, 1)
	item, ok := prog.Function.Body.Items[0].(*ast.StatementItem)
	require.True(t, ok)
	ret, ok := item.Stmt.(*ast.ReturnStmt)
	require.True(t, ok)
	c, ok := ret.Value.(*ast.ConstantExpr)
	require.True(t, ok)
	assert.Equal(t, int32(0), c.Value)
}

func TestParseWrongFunctionNameIsRejected(t *testing.T) {
	err := parseErr(t, "int foo() { return 0; }")
	var e *UnexpectedFunctionNameError
	require.ErrorAs(t, err, &e)
}

func TestParseDeclarationWithAndWithoutInitializer(t *testing.T) {
	prog := parse(t, "int main() { int x; int y = 5; return y; }")
	items := prog.Function.Body.Items

	d1 := items[0].(*ast.DeclarationItem).Decl
	assert.Equal(t, "x", d1.Name)
	assert.Nil(t, d1.Initializer)

	d2 := items[1].(*ast.DeclarationItem).Decl
	assert.Equal(t, "y", d2.Name)
	require.NotNil(t, d2.Initializer)
	assert.Equal(t, int32(5), d2.Initializer.(*ast.ConstantExpr).Value)
}

func TestParseAssignmentExpression(t *testing.T) {
	prog := parse(t, "int main() { int x; x = 3; return x; }")
	stmt := prog.Function.Body.Items[1].(*ast.StatementItem).Stmt.(*ast.ExpressionStmt)
	assign, ok := stmt.Value.(*ast.AssignmentExpr)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Name)
	assert.Equal(t, int32(3), assign.Value.(*ast.ConstantExpr).Value)
}

func TestParseIfElse(t *testing.T) {
	prog := parse(t, "int main() { if (1) return 1; else return 2; }")
	stmt := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.ConditionalStmt)
	require.NotNil(t, stmt.Else)
	_, ok := stmt.Then.(*ast.ReturnStmt)
	require.True(t, ok)
	_, ok = stmt.Else.(*ast.ReturnStmt)
	require.True(t, ok)
}

func TestParseIfWithoutElse(t *testing.T) {
	prog := parse(t, "int main() { if (1) return 1; return 2; }")
	stmt := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.ConditionalStmt)
	assert.Nil(t, stmt.Else)
}

func TestParseWhileLoop(t *testing.T) {
	prog := parse(t, "int main() { while (1) { break; } return 0; }")
	w := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.WhileStmt)
	blockStmt, ok := w.Body.(*ast.BlockStmt)
	require.True(t, ok)
	_, ok = blockStmt.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.BreakStmt)
	require.True(t, ok)
}

func TestParseDoWhileLoop(t *testing.T) {
	prog := parse(t, "int main() { do { continue; } while (0); return 0; }")
	dw := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.DoWhileStmt)
	assert.Equal(t, int32(0), dw.Cond.(*ast.ConstantExpr).Value)
}

func TestParseForLoopAllClauses(t *testing.T) {
	prog := parse(t, "int main() { for (int i = 0; i < 10; i = i + 1) { } return 0; }")
	f := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.ForStmt)

	initDecl, ok := f.Init.(*ast.DeclOrExprDecl)
	require.True(t, ok)
	assert.Equal(t, "i", initDecl.Decl.Name)

	require.NotNil(t, f.Cond)
	cond := f.Cond.(*ast.BinaryExpr)
	assert.Equal(t, ast.Lt, cond.Op)

	require.NotNil(t, f.Step)
	step := f.Step.(*ast.AssignmentExpr)
	assert.Equal(t, "i", step.Name)
}

func TestParseForLoopEmptyClauses(t *testing.T) {
	prog := parse(t, "int main() { for (;;) { break; } return 0; }")
	f := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.ForStmt)

	initExpr, ok := f.Init.(*ast.DeclOrExprExpr)
	require.True(t, ok)
	assert.Nil(t, initExpr.Value)
	assert.Nil(t, f.Cond)
	assert.Nil(t, f.Step)
}

func TestParseForLoopExprInit(t *testing.T) {
	prog := parse(t, "int main() { int i; for (i = 0; i < 1; i = i + 1) { } return 0; }")
	f := prog.Function.Body.Items[1].(*ast.StatementItem).Stmt.(*ast.ForStmt)
	initExpr, ok := f.Init.(*ast.DeclOrExprExpr)
	require.True(t, ok)
	require.NotNil(t, initExpr.Value)
	assert.Equal(t, "i", initExpr.Value.(*ast.AssignmentExpr).Name)
}

func TestParseNestedBlocksAndNullStatement(t *testing.T) {
	prog := parse(t, "int main() { { ; } return 0; }")
	outer := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.BlockStmt)
	_, ok := outer.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.NullStmt)
	require.True(t, ok)
}

func TestParseUnaryOperators(t *testing.T) {
	prog := parse(t, "int main() { return !-~5; }")
	ret := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.ReturnStmt)
	u1 := ret.Value.(*ast.UnaryExpr)
	assert.Equal(t, ast.LogicalNegation, u1.Op)
	u2 := u1.Operand.(*ast.UnaryExpr)
	assert.Equal(t, ast.Negation, u2.Op)
	u3 := u2.Operand.(*ast.UnaryExpr)
	assert.Equal(t, ast.BitwiseComplement, u3.Op)
	assert.Equal(t, int32(5), u3.Operand.(*ast.ConstantExpr).Value)
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	prog := parse(t, "int main() { return (1 + 2) * 3; }")
	ret := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.ReturnStmt)
	mul := ret.Value.(*ast.BinaryExpr)
	assert.Equal(t, ast.Mul, mul.Op)
	add := mul.Left.(*ast.BinaryExpr)
	assert.Equal(t, ast.Add, add.Op)
}

func TestParseTernaryIsRightAssociative(t *testing.T) {
	prog := parse(t, "int main() { return 1 ? 2 : 3 ? 4 : 5; }")
	ret := prog.Function.Body.Items[0].(*ast.StatementItem).Stmt.(*ast.ReturnStmt)
	outer := ret.Value.(*ast.TernaryExpr)
	assert.Equal(t, int32(2), outer.Then.(*ast.ConstantExpr).Value)
	inner, ok := outer.Else.(*ast.TernaryExpr)
	require.True(t, ok)
	assert.Equal(t, int32(4), inner.Then.(*ast.ConstantExpr).Value)
	assert.Equal(t, int32(5), inner.Else.(*ast.ConstantExpr).Value)
}

func TestParseDecimalLiteralRejected(t *testing.T) {
	err := parseErr(t, "int main() { return 3.14; }")
	var e *UnsupportedFloatLiteralError
	require.ErrorAs(t, err, &e)
}

func TestParseLeadingBinaryOperatorRejected(t *testing.T) {
	err := parseErr(t, "int main() { return * 1; }")
	var e *UnexpectedBinOpForAtomError
	require.ErrorAs(t, err, &e)
}

func TestParseMissingSemicolonRejected(t *testing.T) {
	err := parseErr(t, "int main() { return 0 }")
	var e *UnexpectedTokenError
	require.ErrorAs(t, err, &e)
}

func TestParseUnterminatedBlockIsEOFError(t *testing.T) {
	err := parseErr(t, "int main() { return 0;")
	var e *UnexpectedEOFError
	require.ErrorAs(t, err, &e)
}

func TestParseTrailingGarbageAfterFunctionRejected(t *testing.T) {
	err := parseErr(t, "int main() { return 0; } int")
	var e *UnexpectedTokenError
	require.ErrorAs(t, err, &e)
}
