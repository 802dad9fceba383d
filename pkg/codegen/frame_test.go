package codegen

import (
	"testing"

	"github.com/kristofer/mcc/pkg/ast"
	"github.com/kristofer/mcc/pkg/lexer"
	"github.com/kristofer/mcc/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFunc(t *testing.T, src string) *ast.Function {
	t.Helper()
	stream, err := lexer.Tokenize(src)
	require.NoError(t, err)
	prog, err := parser.Parse(stream, nil)
	require.NoError(t, err)
	return prog.Function
}

func TestBuildFrameAssignsAscendingOffsetsInDeclarationOrder(t *testing.T) {
	fn := parseFunc(t, "int main() { int a; int b; int c; return 0; }")
	frame, err := BuildFrame(fn)
	require.NoError(t, err)

	require.Contains(t, frame.Vars, "a")
	require.Contains(t, frame.Vars, "b")
	require.Contains(t, frame.Vars, "c")
	assert.Less(t, frame.Vars["a"].Offset, frame.Vars["b"].Offset)
	assert.Less(t, frame.Vars["b"].Offset, frame.Vars["c"].Offset)
}

func TestBuildFrameSizeIs16ByteAligned(t *testing.T) {
	fn := parseFunc(t, "int main() { int a; return 0; }")
	frame, err := BuildFrame(fn)
	require.NoError(t, err)
	assert.Equal(t, 0, frame.Size%16)
}

func TestBuildFrameRejectsRedeclaration(t *testing.T) {
	fn := parseFunc(t, "int main() { int a; int a; return 0; }")
	_, err := BuildFrame(fn)
	require.Error(t, err)
	var dup *VarAlreadyDeclaredError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Name)
}

func TestBuildFrameRejectsRedeclarationAcrossNestedBlocks(t *testing.T) {
	// No block scoping: a name declared in a nested block collides with
	// one declared in an enclosing block.
	fn := parseFunc(t, "int main() { int a; { int a; } return 0; }")
	_, err := BuildFrame(fn)
	require.Error(t, err)
	var dup *VarAlreadyDeclaredError
	require.ErrorAs(t, err, &dup)
}

func TestBuildFrameCollectsForLoopInitDeclaration(t *testing.T) {
	fn := parseFunc(t, "int main() { for (int i = 0; i < 10; i = i + 1) { } return 0; }")
	frame, err := BuildFrame(fn)
	require.NoError(t, err)
	assert.Contains(t, frame.Vars, "i")
}

func TestOpSlotDepthForSingleNonShortCircuitBinary(t *testing.T) {
	fn := parseFunc(t, "int main() { return 1 + 2; }")
	frame, err := BuildFrame(fn)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.OpSlotCount)
}

func TestOpSlotDepthGrowsWithNesting(t *testing.T) {
	fn := parseFunc(t, "int main() { return (1 + 2) * (3 + 4); }")
	frame, err := BuildFrame(fn)
	require.NoError(t, err)
	// mul needs both additions' results live at once: depth 2.
	assert.Equal(t, 2, frame.OpSlotCount)
}

func TestOpSlotDepthShortCircuitDoesNotConsumeASlot(t *testing.T) {
	fn := parseFunc(t, "int main() { return 1 && 2; }")
	frame, err := BuildFrame(fn)
	require.NoError(t, err)
	assert.Equal(t, 0, frame.OpSlotCount)
}

func TestOpSlotDepthSiblingStatementsReuseNotSum(t *testing.T) {
	// Two independent single-depth expressions in sequence still only need
	// one slot: they never execute simultaneously.
	fn := parseFunc(t, "int main() { int a; a = 1 + 2; a = 3 + 4; return a; }")
	frame, err := BuildFrame(fn)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.OpSlotCount)
}

func TestOpSlotDepthIfBranchesTakeMaxNotSum(t *testing.T) {
	fn := parseFunc(t, "int main() { if (1) { return (1+2)*(3+4); } else { return 1+2; } }")
	frame, err := BuildFrame(fn)
	require.NoError(t, err)
	assert.Equal(t, 2, frame.OpSlotCount)
}
