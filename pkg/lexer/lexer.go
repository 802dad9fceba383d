// Package lexer implements the lexical analyzer (tokenizer) for the mcc
// C-subset compiler. It converts a UTF-8 source buffer into a forward-only
// sequence of token.Token values, skipping whitespace, "//" line comments,
// and "/* ... */" block comments.
package lexer

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/kristofer/mcc/pkg/token"
	"github.com/sirupsen/logrus"
)

// twoCharOps lists multi-character operators. These must be attempted
// before their single-character prefixes (&, |, !, <, >, =) are dispatched.
var twoCharOps = map[string]token.Kind{
	"&&": token.AmpAmp,
	"||": token.PipePipe,
	"==": token.EqEq,
	"!=": token.NotEq,
	"<=": token.LtEq,
	">=": token.GtEq,
	"<<": token.Shl,
	">>": token.Shr,
}

var oneCharOps = map[byte]token.Kind{
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
	';': token.Semicolon,
	':': token.Colon,
	'?': token.Question,
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'%': token.Percent,
	'~': token.Tilde,
	'&': token.Amp,
	'|': token.Pipe,
	'^': token.Caret,
	'<': token.Lt,
	'>': token.Gt,
	'=': token.Assign,
	'!': token.Bang,
	// '/' is handled specially: it may start a line or block comment.
}

// Lexer is a single-cursor scanner over a source buffer.
type Lexer struct {
	src          string
	position     int // start of the character currently under examination
	readPosition int // position of the next character to read
	ch           byte
	log          *logrus.Logger
}

// New creates a Lexer positioned at the start of src.
func New(src string, log *logrus.Logger) *Lexer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	l := &Lexer{src: src, log: log}
	l.readChar()
	return l
}

// Tokenize lexes source in full and returns the resulting token.Stream, or
// the first error encountered. The stream always ends with an EOF token on
// success.
func Tokenize(source string) (*token.Stream, error) {
	return TokenizeWithLogger(source, logrus.StandardLogger())
}

// TokenizeWithLogger is Tokenize with an explicit logger for phase
// diagnostics; passing nil uses logrus' standard logger.
func TokenizeWithLogger(source string, log *logrus.Logger) (*token.Stream, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithField("bytes", len(source)).Debug("lexer: start")
	l := New(source, log)
	var tokens []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			log.WithError(err).Debug("lexer: failed")
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	log.WithField("tokens", len(tokens)).Debug("lexer: done")
	return token.NewStream(tokens), nil
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.src) {
		l.ch = 0
	} else {
		l.ch = l.src[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.src) {
		return 0
	}
	return l.src[l.readPosition]
}

func isLetter(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// skipWhitespaceAndComments loops skipping runs of whitespace, "//" line
// comments, and "/* ... */" block comments until neither makes progress.
// Nested block comments are not supported: the first "*/" closes the
// comment.
func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		progressed := false
		for l.ch != 0 {
			r, size := utf8.DecodeRuneInString(l.src[l.position:])
			if size == 0 || !unicode.IsSpace(r) {
				break
			}
			for i := 0; i < size; i++ {
				l.readChar()
			}
			progressed = true
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			progressed = true
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			start := l.position
			l.readChar() // consume '/'
			l.readChar() // consume '*'
			closed := false
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				return &UnexpectedEOFError{Context: "block comment", Span: token.Span{Lo: start, Hi: l.position}}
			}
			progressed = true
			continue
		}
		if !progressed {
			return nil
		}
	}
}

// next returns the next token from the input.
func (l *Lexer) next() (token.Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{}, err
	}

	start := l.position

	if l.ch == 0 {
		return token.Token{Kind: token.EOF, Span: token.Span{Lo: start, Hi: start}}, nil
	}

	// Two-character operators must be tried before their single-character
	// prefixes.
	if two, ok := twoCharOps[string([]byte{l.ch, l.peekChar()})]; ok {
		l.readChar()
		l.readChar()
		return token.Token{Kind: two, Span: token.Span{Lo: start, Hi: l.position}, Lexeme: l.src[start:l.position]}, nil
	}

	if kind, ok := oneCharOps[l.ch]; ok {
		l.readChar()
		return token.Token{Kind: kind, Span: token.Span{Lo: start, Hi: l.position}, Lexeme: l.src[start:l.position]}, nil
	}

	if l.ch == '/' {
		l.readChar()
		return token.Token{Kind: token.Slash, Span: token.Span{Lo: start, Hi: l.position}, Lexeme: "/"}, nil
	}

	if isDigit(l.ch) {
		return l.readNumber(start)
	}

	if isLetter(l.ch) {
		return l.readIdentifier(start)
	}

	bad := l.ch
	l.readChar()
	return token.Token{}, &UnknownCharacterError{Char: bad, Span: token.Span{Lo: start, Hi: start + 1}}
}

// readNumber consumes digits and at most one '.'. A trailing letter or
// underscore with no intervening whitespace is rejected as an invalid
// identifier-like lexeme.
func (l *Lexer) readNumber(start int) (token.Token, error) {
	isFloat := false
	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			if isFloat || !isDigit(l.peekChar()) {
				// A lone '.' (or a second '.') ends the numeric literal; it
				// is never itself a valid token start, so it is left for
				// the next call to next() to reject or consume.
				break
			}
			isFloat = true
		}
		l.readChar()
	}

	if isLetter(l.ch) {
		identStart := l.position
		for isLetter(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		return token.Token{}, &IdentifierStartsWithNumberError{
			Lexeme: l.src[start:l.position],
			Span:   token.Span{Lo: start, Hi: identStart},
		}
	}

	lexeme := l.src[start:l.position]
	span := token.Span{Lo: start, Hi: l.position}

	if isFloat {
		v, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return token.Token{}, &FloatParseFailedError{Lexeme: lexeme, Span: span, Cause: err}
		}
		return token.Token{Kind: token.Decimal, Span: span, Lexeme: lexeme, FloatValue: v}, nil
	}

	v, err := strconv.ParseInt(lexeme, 10, 32)
	if err != nil {
		return token.Token{}, &IntParseFailedError{Lexeme: lexeme, Span: span, Cause: err}
	}
	return token.Token{Kind: token.Integer, Span: span, Lexeme: lexeme, IntValue: int32(v)}, nil
}

func (l *Lexer) readIdentifier(start int) (token.Token, error) {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	lexeme := l.src[start:l.position]
	span := token.Span{Lo: start, Hi: l.position}
	if kind, ok := token.Keywords[lexeme]; ok {
		return token.Token{Kind: kind, Span: span, Lexeme: lexeme}, nil
	}
	return token.Token{Kind: token.Identifier, Span: span, Lexeme: lexeme}, nil
}
