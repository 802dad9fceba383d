package asmfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDirectiveLabelAndInst(t *testing.T) {
	p := New()
	p.Directive(".global _main")
	p.Directive(".align 2")
	p.Label("_main")
	p.Inst("stp", "x29", "x30", "[sp, #-16]!")
	p.Inst("mov", "w0", "#0")
	p.Inst("ret")

	want := ".global _main\n" +
		".align 2\n" +
		"_main:\n" +
		"\tstp\tx29, x30, [sp, #-16]!\n" +
		"\tmov\tw0, #0\n" +
		"\tret\n"
	assert.Equal(t, want, p.Render())
}

func TestRenderCommentAndBlankAndTrailingComment(t *testing.T) {
	p := New()
	p.Comment("prologue")
	p.Blank()
	p.InstComment("spill slot 0", "str", "w0", "[sp, #16]")

	want := "// prologue\n" +
		"\n" +
		"\tstr\tw0, [sp, #16]\t// spill slot 0\n"
	assert.Equal(t, want, p.Render())
}

func TestValidateRejectsDuplicateLabels(t *testing.T) {
	p := New()
	p.Label("L0")
	p.Inst("ret")
	p.Label("L0")

	err := p.Validate()
	require.Error(t, err)
	var dup *DuplicateLabelError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "L0", dup.Label)
}

func TestValidateRejectsEmptyMnemonic(t *testing.T) {
	p := &Program{Lines: []Line{{Kind: LineInst}}}
	err := p.Validate()
	require.Error(t, err)
	var empty *EmptyMnemonicError
	require.ErrorAs(t, err, &empty)
}

func TestValidateAcceptsWellFormedProgram(t *testing.T) {
	p := New()
	p.Directive(".global _main")
	p.Label("_main")
	p.Inst("mov", "w0", "#1")
	p.Inst("ret")
	assert.NoError(t, p.Validate())
}
