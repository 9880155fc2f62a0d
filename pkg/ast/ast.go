// Package ast defines the abstract syntax tree produced by the parser.
//
// Each node kind is its own struct, tagged by a marker-interface method
// (exprNode, stmtNode, predicateNode), rather than the teacher's single
// pkg/ast.Node with a Data field, and rather than a class hierarchy or
// visitor framework — this language has fewer than ten node kinds.
package ast

import "github.com/nullstitch/hyc/pkg/token"

// Expr is one of IntLit, Ident, or BinOp.
type Expr interface{ exprNode() }

type IntLit struct {
	Tok    token.Token
	Lexeme string
}

type Ident struct {
	Tok  token.Token
	Name string
}

type BinOpKind int

const (
	Add BinOpKind = iota
	Sub
	Mul
	Div
)

type BinOp struct {
	Tok         token.Token
	Op          BinOpKind
	Left, Right Expr
}

func (IntLit) exprNode() {}
func (Ident) exprNode()  {}
func (BinOp) exprNode()  {}

// Stmt is one of Let, Assign, Exit, If, or Scope.
type Stmt interface{ stmtNode() }

type Let struct {
	Tok  token.Token
	Name string
	Expr Expr
}

type Assign struct {
	Tok  token.Token
	Name string
	Expr Expr
}

type Exit struct {
	Tok  token.Token
	Expr Expr
}

// Predicate is the optional elif/else tail of an If. It is one of
// *Elif or *Else; nil means no tail.
type Predicate interface{ predicateNode() }

type Elif struct {
	Tok  token.Token
	Cond Expr
	Body *Scope
	Next Predicate // *Elif, *Else, or nil
}

type Else struct {
	Tok  token.Token
	Body *Scope
}

func (*Elif) predicateNode() {}
func (*Else) predicateNode() {}

type If struct {
	Tok       token.Token
	Cond      Expr
	Then      *Scope
	Predicate Predicate // *Elif, *Else, or nil
}

// Scope is a braced block introducing a new lexical scope. It is a
// statement in its own right, and also used as the body of If/Elif/Else.
type Scope struct {
	Tok   token.Token
	Stmts []Stmt
}

func (Let) stmtNode()    {}
func (Assign) stmtNode() {}
func (Exit) stmtNode()   {}
func (If) stmtNode()     {}
func (*Scope) stmtNode() {}

// Program is an ordered sequence of top-level statements.
type Program struct {
	Stmts []Stmt
}
