package lexer

import (
	"fmt"

	"github.com/kristofer/mcc/pkg/token"
)

// UnknownCharacterError is reported when the cursor sits on a byte that
// starts no valid token.
type UnknownCharacterError struct {
	Char byte
	Span token.Span
}

func (e *UnknownCharacterError) Error() string {
	return fmt.Sprintf("lexer: unknown character %q at byte %d", e.Char, e.Span.Lo)
}

// NoMatchesError is reported when the cursor is at a position from which no
// lexing rule can advance (should be unreachable given the default branch
// falls through to UnknownCharacterError, but is kept as a distinct kind per
// the phase's error taxonomy).
type NoMatchesError struct {
	Span token.Span
}

func (e *NoMatchesError) Error() string {
	return fmt.Sprintf("lexer: no token matches input at byte %d", e.Span.Lo)
}

// IdentifierStartsWithNumberError is reported when a numeric literal is
// immediately followed by a letter or underscore with no separating
// whitespace, e.g. "123abc".
type IdentifierStartsWithNumberError struct {
	Lexeme string
	Span   token.Span
}

func (e *IdentifierStartsWithNumberError) Error() string {
	return fmt.Sprintf("lexer: identifier starts with a number: %q at byte %d", e.Lexeme, e.Span.Lo)
}

// UnexpectedEOFError is reported when the input ends inside a multi-byte
// construct, such as an unterminated block comment.
type UnexpectedEOFError struct {
	Context string
	Span    token.Span
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("lexer: unexpected end of input while scanning %s (starting at byte %d)", e.Context, e.Span.Lo)
}

// IntParseFailedError is reported when an integer lexeme does not fit a
// signed 32-bit value or is otherwise malformed.
type IntParseFailedError struct {
	Lexeme string
	Span   token.Span
	Cause  error
}

func (e *IntParseFailedError) Error() string {
	return fmt.Sprintf("lexer: failed to parse integer literal %q at byte %d: %v", e.Lexeme, e.Span.Lo, e.Cause)
}

func (e *IntParseFailedError) Unwrap() error { return e.Cause }

// FloatParseFailedError is reported when a decimal lexeme cannot be parsed
// as a 64-bit float.
type FloatParseFailedError struct {
	Lexeme string
	Span   token.Span
	Cause  error
}

func (e *FloatParseFailedError) Error() string {
	return fmt.Sprintf("lexer: failed to parse decimal literal %q at byte %d: %v", e.Lexeme, e.Span.Lo, e.Cause)
}

func (e *FloatParseFailedError) Unwrap() error { return e.Cause }
