package codegen

import "fmt"

// NoFunctionContextError is reported when code generation meets a block
// item that is neither a declaration nor a statement (the parser never
// builds one, so this should not happen via the public Generate entry
// point).
type NoFunctionContextError struct{}

func (e *NoFunctionContextError) Error() string {
	return "codegen: no function context is active"
}

// VarNotFoundError is reported when an expression references a variable
// that was never declared in the function's flat variable map.
type VarNotFoundError struct {
	Name string
}

func (e *VarNotFoundError) Error() string {
	return fmt.Sprintf("codegen: variable %q is not declared", e.Name)
}

// VarAlreadyDeclaredError is reported when a declaration redeclares a name
// already present anywhere in the function's flat variable map — the
// language has no block scoping, so a name is unique for the whole
// function body, not merely within its enclosing block.
type VarAlreadyDeclaredError struct {
	Name string
}

func (e *VarAlreadyDeclaredError) Error() string {
	return fmt.Sprintf("codegen: variable %q is already declared in this function", e.Name)
}

// UnexpectedShortCircuitOperatorError is reported if && or || ever reaches
// the generic binary-operator emission path, which has no spill slot
// allocated for them — they must be intercepted earlier and lowered via
// branches instead.
type UnexpectedShortCircuitOperatorError struct {
	Op fmt.Stringer
}

func (e *UnexpectedShortCircuitOperatorError) Error() string {
	return fmt.Sprintf("codegen: short-circuit operator %s reached generic binary emission", e.Op)
}

// NoLoopFoundError is reported when break or continue appears outside any
// enclosing loop.
type NoLoopFoundError struct {
	Keyword string
}

func (e *NoLoopFoundError) Error() string {
	return fmt.Sprintf("codegen: %s statement outside of any loop", e.Keyword)
}

// UnsupportedFloatConstantError describes a floating point constant
// reaching code generation. No code path in this package returns it: the
// AST has no floating-point constant node and the parser already rejects
// decimal literals.
type UnsupportedFloatConstantError struct{}

func (e *UnsupportedFloatConstantError) Error() string {
	return "codegen: floating point constants are not supported"
}
