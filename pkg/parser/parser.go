// Package parser turns a token vector into a program AST.
//
// Structure follows the teacher's pkg/parser.Parser: an index cursor over
// the token slice with check/match/expect helpers, precedence climbing
// for expressions (getBinaryOpPrecedence + parseBinaryExpr in the
// teacher), and per-statement dispatch on the lookahead token kind.
package parser

import (
	"github.com/nullstitch/hyc/pkg/ast"
	"github.com/nullstitch/hyc/pkg/diag"
	"github.com/nullstitch/hyc/pkg/symtab"
	"github.com/nullstitch/hyc/pkg/token"
)

var precedence = map[token.Kind]int{
	token.Plus:  1,
	token.Minus: 1,
	token.Star:  2,
	token.Slash: 2,
}

var binOpFor = map[token.Kind]ast.BinOpKind{
	token.Plus:  ast.Add,
	token.Minus: ast.Sub,
	token.Star:  ast.Mul,
	token.Slash: ast.Div,
}

// Parser holds the state for the parsing process.
type Parser struct {
	tokens  []token.Token
	pos     int
	sink    *diag.Sink
	symbols *symtab.Table
}

func New(tokens []token.Token, sink *diag.Sink) *Parser {
	return &Parser{tokens: tokens, sink: sink, symbols: symtab.New()}
}

func (p *Parser) current() token.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return eofToken(p.tokens)
}

func eofToken(tokens []token.Token) token.Token {
	if len(tokens) == 0 {
		return token.Token{Kind: token.EOF}
	}
	last := tokens[len(tokens)-1]
	return token.Token{Kind: token.EOF, Pos: last.Pos}
}

func (p *Parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *Parser) advance() token.Token {
	tok := p.current()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool { return p.current().Kind == kind }

func (p *Parser) match(kind token.Kind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

// expect consumes a token of the given kind, or reports err and returns
// false, leaving the cursor unmoved so the caller can decide how to
// recover.
func (p *Parser) expect(kind token.Kind, message string) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	p.sink.Errorf(p.current().Pos, "%s", message)
	return false
}

// Parse consumes the whole token vector and returns the statements
// successfully parsed. Errors are reported to the sink; parsing of the
// offending statement is abandoned but the program parse continues.
func (p *Parser) Parse() *ast.Program {
	p.symbols.EnterScope()
	defer p.symbols.ExitScope()

	var stmts []ast.Stmt
	for !p.atEnd() {
		if stmt, ok := p.parseStatement(); ok {
			if stmt != nil {
				stmts = append(stmts, stmt)
			}
		}
	}
	return &ast.Program{Stmts: stmts}
}

// parseStatement dispatches on the lookahead token. The bool result is
// false only when the statement had to be abandoned; the caller should
// not append a nil result in that case (it already isn't appended).
func (p *Parser) parseStatement() (ast.Stmt, bool) {
	switch p.current().Kind {
	case token.Semi:
		p.advance()
		return nil, true
	case token.Exit:
		return p.parseExit()
	case token.Let:
		return p.parseLet()
	case token.If:
		return p.parseIf()
	case token.OpenBrace:
		scope, ok := p.parseScope()
		return scope, ok
	case token.Ident:
		return p.parseAssign()
	default:
		p.sink.Errorf(p.current().Pos, "unexpected token %s", p.current().Kind)
		p.advance()
		return nil, false
	}
}

func (p *Parser) parseExit() (ast.Stmt, bool) {
	tok := p.advance() // 'exit'
	if !p.expect(token.OpenParen, "expected '(' after 'exit'") {
		return nil, false
	}
	expr, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if !p.expect(token.CloseParen, "expected ')' after expression") {
		return nil, false
	}
	if !p.expect(token.Semi, "expected ';' after exit statement") {
		return nil, false
	}
	return ast.Exit{Tok: tok, Expr: expr}, true
}

func (p *Parser) parseLet() (ast.Stmt, bool) {
	tok := p.advance() // 'let'
	if !p.check(token.Ident) {
		p.sink.Errorf(p.current().Pos, "expected identifier after 'let'")
		return nil, false
	}
	nameTok := p.advance()
	if !p.expect(token.Eq, "expected '=' after identifier in let statement") {
		return nil, false
	}
	expr, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if !p.expect(token.Semi, "expected ';' after let statement") {
		return nil, false
	}
	if !p.symbols.Declare(nameTok.Lexeme) {
		p.sink.Errorf(nameTok.Pos, "variable '%s' already declared in this scope", nameTok.Lexeme)
		return nil, false
	}
	return ast.Let{Tok: tok, Name: nameTok.Lexeme, Expr: expr}, true
}

func (p *Parser) parseAssign() (ast.Stmt, bool) {
	nameTok := p.advance()
	tok := nameTok
	if !p.expect(token.Eq, "expected '=' in assignment") {
		return nil, false
	}
	expr, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if !p.expect(token.Semi, "expected ';' after assignment") {
		return nil, false
	}
	if !p.symbols.IsDeclared(nameTok.Lexeme) {
		p.sink.Errorf(nameTok.Pos, "variable '%s' is not declared", nameTok.Lexeme)
		return nil, false
	}
	return ast.Assign{Tok: tok, Name: nameTok.Lexeme, Expr: expr}, true
}

func (p *Parser) parseIf() (ast.Stmt, bool) {
	tok := p.advance() // 'if'
	if !p.expect(token.OpenParen, "expected '(' after 'if'") {
		return nil, false
	}
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if !p.expect(token.CloseParen, "expected ')' after if condition") {
		return nil, false
	}
	thenScope, ok := p.parseScope()
	if !ok {
		return nil, false
	}
	pred, ok := p.parsePredicate()
	if !ok {
		return nil, false
	}
	return ast.If{Tok: tok, Cond: cond, Then: thenScope, Predicate: pred}, true
}

func (p *Parser) parsePredicate() (ast.Predicate, bool) {
	switch {
	case p.check(token.Elif):
		tok := p.advance()
		if !p.expect(token.OpenParen, "expected '(' after 'elif'") {
			return nil, false
		}
		cond, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if !p.expect(token.CloseParen, "expected ')' after elif condition") {
			return nil, false
		}
		body, ok := p.parseScope()
		if !ok {
			return nil, false
		}
		next, ok := p.parsePredicate()
		if !ok {
			return nil, false
		}
		return &ast.Elif{Tok: tok, Cond: cond, Body: body, Next: next}, true
	case p.check(token.Else):
		tok := p.advance()
		body, ok := p.parseScope()
		if !ok {
			return nil, false
		}
		return &ast.Else{Tok: tok, Body: body}, true
	default:
		return nil, true
	}
}

func (p *Parser) parseScope() (*ast.Scope, bool) {
	tok := p.current()
	if !p.expect(token.OpenBrace, "expected '{' to start a scope") {
		return nil, false
	}
	p.symbols.EnterScope()
	defer p.symbols.ExitScope()

	var stmts []ast.Stmt
	for !p.check(token.CloseBrace) && !p.atEnd() {
		if stmt, ok := p.parseStatement(); ok && stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if !p.expect(token.CloseBrace, "expected '}' to close scope") {
		return &ast.Scope{Tok: tok, Stmts: stmts}, false
	}
	return &ast.Scope{Tok: tok, Stmts: stmts}, true
}

// Expression parsing: precedence climbing over the fixed operator table.

func (p *Parser) parseExpr() (ast.Expr, bool) {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(minPrec int) (ast.Expr, bool) {
	left, ok := p.parsePrimary()
	if !ok {
		return nil, false
	}
	for {
		opTok := p.current()
		prec, isOp := precedence[opTok.Kind]
		if !isOp || prec < minPrec {
			return left, true
		}
		p.advance()
		right, ok := p.parseBinary(prec + 1)
		if !ok {
			return nil, false
		}
		left = ast.BinOp{Tok: opTok, Op: binOpFor[opTok.Kind], Left: left, Right: right}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, bool) {
	tok := p.current()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		return ast.IntLit{Tok: tok, Lexeme: tok.Lexeme}, true
	case token.Ident:
		p.advance()
		if !p.symbols.IsDeclared(tok.Lexeme) {
			p.sink.Errorf(tok.Pos, "variable '%s' is not declared", tok.Lexeme)
			return nil, false
		}
		return ast.Ident{Tok: tok, Name: tok.Lexeme}, true
	case token.OpenParen:
		p.advance()
		expr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if !p.expect(token.CloseParen, "expected ')' after expression") {
			return nil, false
		}
		return expr, true
	default:
		p.sink.Errorf(tok.Pos, "expected an expression")
		return nil, false
	}
}
