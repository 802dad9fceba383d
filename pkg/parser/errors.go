package parser

import (
	"fmt"

	"github.com/kristofer/mcc/pkg/token"
)

// UnexpectedTokenError is reported when the parser finds a token kind other
// than the one required by the current grammar production.
type UnexpectedTokenError struct {
	Expected token.Kind
	Actual   token.Token
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("parser: expected %s but found %s at byte %d", e.Expected, e.Actual.Kind, e.Actual.Span.Lo)
}

// UnexpectedEOFError is reported when the parser needs a token but the
// stream is exhausted.
type UnexpectedEOFError struct {
	Context string
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("parser: unexpected end of input while parsing %s", e.Context)
}

// UnexpectedFunctionNameError is reported when the sole function is not
// named "main".
type UnexpectedFunctionNameError struct {
	Got token.Token
}

func (e *UnexpectedFunctionNameError) Error() string {
	return fmt.Sprintf("parser: expected function name \"main\" but found %q at byte %d", e.Got.Lexeme, e.Got.Span.Lo)
}

// ExpectedIdentifierError is reported when the grammar requires an
// identifier and a different token kind was found.
type ExpectedIdentifierError struct {
	Got token.Token
}

func (e *ExpectedIdentifierError) Error() string {
	return fmt.Sprintf("parser: expected identifier but found %s at byte %d", e.Got.Kind, e.Got.Span.Lo)
}

// ExpectedAtomError is reported when the expression parser needs an atom
// (literal, variable, parenthesized expression, or unary operator
// application) and none of those productions match the lookahead.
type ExpectedAtomError struct {
	Got token.Token
}

func (e *ExpectedAtomError) Error() string {
	return fmt.Sprintf("parser: expected an expression atom but found %s at byte %d", e.Got.Kind, e.Got.Span.Lo)
}

// UnexpectedBinOpForAtomError is reported when a binary operator token is
// encountered where an atom was required (e.g. "+ 1" with no left operand).
type UnexpectedBinOpForAtomError struct {
	Got token.Token
}

func (e *UnexpectedBinOpForAtomError) Error() string {
	return fmt.Sprintf("parser: binary operator %s cannot start an expression (byte %d)", e.Got.Kind, e.Got.Span.Lo)
}

// UnsupportedFloatLiteralError is reported when a decimal literal appears
// where an expression atom is required. The AST's Expr has no
// floating-point variant (spec's Constant only carries an int32), so a
// decimal literal is rejected here at parse time rather than silently
// truncated or deferred to a codegen failure.
type UnsupportedFloatLiteralError struct {
	Got token.Token
}

func (e *UnsupportedFloatLiteralError) Error() string {
	return fmt.Sprintf("parser: decimal literal %q is not supported in expressions (byte %d); only integer constants are", e.Got.Lexeme, e.Got.Span.Lo)
}
