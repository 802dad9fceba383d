// Package parser implements the mcc recursive-descent / precedence-climbing
// parser. It consumes a token.Stream and produces a *ast.Program, reporting
// a single fatal error on the first grammar violation — there is no error
// recovery or resynchronization.
//
// Grammar (informal):
//
//	program    ::= function
//	function   ::= "int" IDENT "(" ")" block
//	block      ::= "{" block_item* "}"
//	block_item ::= declaration | statement
//	declaration::= "int" IDENT ("=" expr)? ";"
//	statement  ::= "return" expr ";"
//	             | "if" "(" expr ")" statement ("else" statement)?
//	             | "while" "(" expr ")" statement
//	             | "do" statement "while" "(" expr ")" ";"
//	             | "for" "(" (declaration | expr? ";") expr? ";" expr? ")" statement
//	             | "break" ";" | "continue" ";"
//	             | block
//	             | ";"
//	             | expr ";"
//	expr       ::= precedence-climb starting at min_prec = 1
//	atom       ::= INT | IDENT ("=" expr)? | "(" expr ")" | unary_op atom
package parser

import (
	"github.com/kristofer/mcc/pkg/ast"
	"github.com/kristofer/mcc/pkg/token"
	"github.com/sirupsen/logrus"
)

// binOpTable maps a token kind to the BinaryOp it spells, for the
// precedence-climbing loop.
var binOpTable = map[token.Kind]ast.BinaryOp{
	token.PipePipe: ast.Or,
	token.AmpAmp:   ast.And,
	token.Pipe:     ast.BitOr,
	token.Caret:    ast.BitXor,
	token.Amp:      ast.BitAnd,
	token.EqEq:     ast.Eq,
	token.NotEq:    ast.NotEq,
	token.Lt:       ast.Lt,
	token.LtEq:     ast.LtEq,
	token.Gt:       ast.Gt,
	token.GtEq:     ast.GtEq,
	token.Shl:      ast.Shl,
	token.Shr:      ast.Shr,
	token.Plus:     ast.Add,
	token.Minus:    ast.Sub,
	token.Star:     ast.Mul,
	token.Slash:    ast.Div,
	token.Percent:  ast.Mod,
}

// ternaryPrecedence is the ternary's binding power: lowest of all operators,
// just above assignment (assignment is handled structurally in parseAtom,
// not via this table).
const ternaryPrecedence = 1

// Parser consumes a token.Stream and builds an *ast.Program.
type Parser struct {
	stream *token.Stream
	log    *logrus.Logger
}

// New creates a Parser over an already-lexed stream.
func New(stream *token.Stream, log *logrus.Logger) *Parser {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Parser{stream: stream, log: log}
}

// Parse parses the token stream into a Program.
func Parse(stream *token.Stream, log *logrus.Logger) (*ast.Program, error) {
	return New(stream, log).Parse()
}

func (p *Parser) cur() token.Token  { return p.stream.Current() }
func (p *Parser) peek() token.Token { return p.stream.PeekAt(1) }
func (p *Parser) next() token.Token { return p.stream.Advance() }

func (p *Parser) expect(kind token.Kind) error {
	if p.cur().Kind != kind {
		if p.cur().Kind == token.EOF {
			return &UnexpectedEOFError{Context: kind.String()}
		}
		return &UnexpectedTokenError{Expected: kind, Actual: p.cur()}
	}
	return nil
}

// Parse is the program production: a single function followed by EOF.
func (p *Parser) Parse() (*ast.Program, error) {
	p.log.Debug("parser: start")
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.EOF {
		return nil, &UnexpectedTokenError{Expected: token.EOF, Actual: p.cur()}
	}
	p.log.Debug("parser: done")
	return &ast.Program{Function: fn}, nil
}

func (p *Parser) parseFunction() (*ast.Function, error) {
	if err := p.expect(token.KwInt); err != nil {
		return nil, err
	}
	p.next()

	if err := p.expect(token.Identifier); err != nil {
		return nil, err
	}
	nameTok := p.next()
	if nameTok.Lexeme != "main" {
		return nil, &UnexpectedFunctionNameError{Got: nameTok}
	}

	if err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	p.next()
	if err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	p.next()

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Name: nameTok.Lexeme, Body: body}, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	if err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	p.next()

	block := &ast.Block{}
	for p.cur().Kind != token.RBrace {
		if p.cur().Kind == token.EOF {
			return nil, &UnexpectedEOFError{Context: "block"}
		}
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		block.Items = append(block.Items, item)
	}
	p.next() // consume '}'
	return block, nil
}

func (p *Parser) parseBlockItem() (ast.BlockItem, error) {
	if p.cur().Kind == token.KwInt {
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		return &ast.DeclarationItem{Decl: decl}, nil
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.StatementItem{Stmt: stmt}, nil
}

// parseDeclaration parses "int" IDENT ("=" expr)? ";". The leading "int"
// must already be the current token.
func (p *Parser) parseDeclaration() (*ast.VarDecl, error) {
	p.next() // consume "int"
	if err := p.expect(token.Identifier); err != nil {
		return nil, &ExpectedIdentifierError{Got: p.cur()}
	}
	name := p.next().Lexeme

	var init ast.Expr
	if p.cur().Kind == token.Assign {
		p.next()
		e, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		init = e
	}

	if err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	p.next()

	return &ast.VarDecl{Name: name, Size: ast.Word, Initializer: init}, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Kind {
	case token.KwReturn:
		p.next()
		e, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		p.next()
		return &ast.ReturnStmt{Value: e}, nil

	case token.KwIf:
		return p.parseConditional()

	case token.KwWhile:
		p.next()
		cond, err := p.parseParenExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Cond: cond, Body: body}, nil

	case token.KwDo:
		p.next()
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.KwWhile); err != nil {
			return nil, err
		}
		p.next()
		cond, err := p.parseParenExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		p.next()
		return &ast.DoWhileStmt{Body: body, Cond: cond}, nil

	case token.KwFor:
		return p.parseFor()

	case token.KwBreak:
		p.next()
		if err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		p.next()
		return &ast.BreakStmt{}, nil

	case token.KwContinue:
		p.next()
		if err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		p.next()
		return &ast.ContinueStmt{}, nil

	case token.LBrace:
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.BlockStmt{Body: block}, nil

	case token.Semicolon:
		p.next()
		return &ast.NullStmt{}, nil

	default:
		e, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		p.next()
		return &ast.ExpressionStmt{Value: e}, nil
	}
}

func (p *Parser) parseConditional() (ast.Statement, error) {
	p.next() // consume "if"
	cond, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var elseStmt ast.Statement
	if p.cur().Kind == token.KwElse {
		p.next()
		elseStmt, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return &ast.ConditionalStmt{Cond: cond, Then: then, Else: elseStmt}, nil
}

func (p *Parser) parseFor() (ast.Statement, error) {
	p.next() // consume "for"
	if err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	p.next()

	var init ast.DeclOrExpr
	if p.cur().Kind == token.KwInt {
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		init = &ast.DeclOrExprDecl{Decl: decl}
	} else if p.cur().Kind == token.Semicolon {
		p.next()
		init = &ast.DeclOrExprExpr{Value: nil}
	} else {
		e, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		p.next()
		init = &ast.DeclOrExprExpr{Value: e}
	}

	var cond ast.Expr
	if p.cur().Kind != token.Semicolon {
		e, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		cond = e
	}
	if err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	p.next()

	var step ast.Expr
	if p.cur().Kind != token.RParen {
		e, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		step = e
	}
	if err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	p.next()

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	return &ast.ForStmt{Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) parseParenExpr() (ast.Expr, error) {
	if err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	p.next()
	e, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	p.next()
	return e, nil
}

// parseExpr is the precedence climber: it parses an atom, then repeatedly
// folds in binary operators (and the ternary) whose precedence is at least
// minPrec, recursing with minPrec = prec+1 for each operator's RHS since
// every binary operator in this grammar is left-associative. The ternary is
// treated as the lone right-associative, lowest-precedence construct: its
// branches are each reparsed starting at precedence 1.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	lhs, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		if p.cur().Kind == token.Question {
			if ternaryPrecedence < minPrec {
				break
			}
			p.next()
			thenExpr, err := p.parseExpr(1)
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.Colon); err != nil {
				return nil, err
			}
			p.next()
			elseExpr, err := p.parseExpr(1)
			if err != nil {
				return nil, err
			}
			lhs = &ast.TernaryExpr{Cond: lhs, Then: thenExpr, Else: elseExpr}
			continue
		}

		op, ok := binOpTable[p.cur().Kind]
		if !ok {
			break
		}
		prec := op.Precedence()
		if prec < minPrec {
			break
		}
		p.next()
		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinaryExpr{Op: op, Left: lhs, Right: rhs}
	}

	return lhs, nil
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.Integer:
		p.next()
		return &ast.ConstantExpr{Value: tok.IntValue}, nil

	case token.Decimal:
		return nil, &UnsupportedFloatLiteralError{Got: tok}

	case token.Identifier:
		if p.peek().Kind == token.Assign {
			name := p.next().Lexeme
			p.next() // consume '='
			value, err := p.parseExpr(1)
			if err != nil {
				return nil, err
			}
			return &ast.AssignmentExpr{Name: name, Value: value}, nil
		}
		p.next()
		return &ast.VarExpr{Name: tok.Lexeme}, nil

	case token.LParen:
		return p.parseParenExpr()

	case token.Minus:
		p.next()
		operand, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.Negation, Operand: operand}, nil

	case token.Bang:
		p.next()
		operand, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.LogicalNegation, Operand: operand}, nil

	case token.Tilde:
		p.next()
		operand, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.BitwiseComplement, Operand: operand}, nil

	default:
		if _, ok := binOpTable[tok.Kind]; ok {
			return nil, &UnexpectedBinOpForAtomError{Got: tok}
		}
		if tok.Kind == token.EOF {
			return nil, &UnexpectedEOFError{Context: "expression"}
		}
		return nil, &ExpectedAtomError{Got: tok}
	}
}
