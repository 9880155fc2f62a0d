package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nullstitch/hyc/pkg/ast"
	"github.com/nullstitch/hyc/pkg/diag"
	"github.com/nullstitch/hyc/pkg/lexer"
)

func parseExprOnly(t *testing.T, src string) ast.Expr {
	t.Helper()
	tokens, err := lexer.New([]rune("let a = 0; let b = 0; let c = 0; exit(" + src + ");")).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	sink := diag.NewSink()
	prog := New(tokens, sink).Parse()
	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	exitStmt, ok := prog.Stmts[len(prog.Stmts)-1].(ast.Exit)
	if !ok {
		t.Fatalf("last statement is not Exit: %#v", prog.Stmts[len(prog.Stmts)-1])
	}
	return exitStmt.Expr
}

func binOp(op ast.BinOpKind, left, right ast.Expr) ast.Expr {
	return ast.BinOp{Op: op, Left: left, Right: right}
}

func ident(name string) ast.Expr { return ast.Ident{Name: name} }

func clearTokens(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case ast.IntLit:
		v.Tok = ast.IntLit{}.Tok
		return v
	case ast.Ident:
		v.Tok = ast.Ident{}.Tok
		return v
	case ast.BinOp:
		v.Tok = ast.BinOp{}.Tok
		v.Left = clearTokens(v.Left)
		v.Right = clearTokens(v.Right)
		return v
	default:
		return e
	}
}

func TestOperatorPrecedenceLaw(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want ast.Expr
	}{
		{"mul before add", "a*b+c", binOp(ast.Add, binOp(ast.Mul, ident("a"), ident("b")), ident("c"))},
		{"add then mul", "a+b*c", binOp(ast.Add, ident("a"), binOp(ast.Mul, ident("b"), ident("c")))},
		{"sub left assoc", "a-b-c", binOp(ast.Sub, binOp(ast.Sub, ident("a"), ident("b")), ident("c"))},
		{"div left assoc", "a/b/c", binOp(ast.Div, binOp(ast.Div, ident("a"), ident("b")), ident("c"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clearTokens(parseExprOnly(t, tt.src))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parse(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestParseAcceptsShadowingInNestedScope(t *testing.T) {
	src := "let x = 10; { let x = 1; exit(x); }"
	tokens, err := lexer.New([]rune(src)).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	sink := diag.NewSink()
	New(tokens, sink).Parse()
	if sink.HasErrors() {
		t.Fatalf("shadowing in a nested scope should not error, got: %v", sink.Diagnostics())
	}
}

func TestParseRejectsUndeclaredVariable(t *testing.T) {
	tokens, err := lexer.New([]rune("exit(y);")).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	sink := diag.NewSink()
	New(tokens, sink).Parse()
	if !sink.HasErrors() {
		t.Fatal("expected a diagnostic for undeclared variable y")
	}
}

func TestParseRejectsSameScopeRedeclaration(t *testing.T) {
	tokens, err := lexer.New([]rune("let x = 1; let x = 2; exit(x);")).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	sink := diag.NewSink()
	New(tokens, sink).Parse()
	if !sink.HasErrors() {
		t.Fatal("expected a diagnostic for same-scope redeclaration of x")
	}
}

func TestParseRejectsMissingOpenParen(t *testing.T) {
	tokens, err := lexer.New([]rune("exit 1;")).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	sink := diag.NewSink()
	New(tokens, sink).Parse()
	if !sink.HasErrors() {
		t.Fatal("expected a diagnostic for 'exit 1;' missing '('")
	}
}

func TestParseRecoversAfterStatementError(t *testing.T) {
	// The first exit is malformed and should be abandoned; the parser
	// should still recover well enough to reach the second statement's
	// tokens without hanging or panicking.
	tokens, err := lexer.New([]rune("exit 1; exit(2);")).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	sink := diag.NewSink()
	New(tokens, sink).Parse()
	if sink.Count() == 0 {
		t.Fatal("expected at least one diagnostic")
	}
}
