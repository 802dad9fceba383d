package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockAlwaysReturnsSimpleReturn(t *testing.T) {
	fn := parseFunc(t, "int main() { return 0; }")
	assert.True(t, blockAlwaysReturns(fn.Body))
}

func TestBlockAlwaysReturnsFalseWhenFallsOff(t *testing.T) {
	fn := parseFunc(t, "int main() { int a; }")
	assert.False(t, blockAlwaysReturns(fn.Body))
}

func TestBlockAlwaysReturnsIfElseBothReturn(t *testing.T) {
	fn := parseFunc(t, "int main() { if (1) { return 1; } else { return 2; } }")
	assert.True(t, blockAlwaysReturns(fn.Body))
}

func TestBlockAlwaysReturnsIfWithoutElseIsFalse(t *testing.T) {
	fn := parseFunc(t, "int main() { if (1) { return 1; } }")
	assert.False(t, blockAlwaysReturns(fn.Body))
}

func TestBlockAlwaysReturnsWhileBodyIsOverApproximatedFalse(t *testing.T) {
	fn := parseFunc(t, "int main() { while (1) { return 1; } }")
	assert.False(t, blockAlwaysReturns(fn.Body))
}

func TestBlockAlwaysReturnsDoWhileBodyIsTrue(t *testing.T) {
	fn := parseFunc(t, "int main() { do { return 1; } while (0); }")
	assert.True(t, blockAlwaysReturns(fn.Body))
}

func TestBlockAlwaysReturnsStatementAfterReturnIsIgnored(t *testing.T) {
	fn := parseFunc(t, "int main() { return 1; int unreachable; }")
	assert.True(t, blockAlwaysReturns(fn.Body))
}
