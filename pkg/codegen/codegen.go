// Package codegen lowers a parsed program directly to AArch64 (Apple/
// Mach-O) assembly text.
//
// There is no intermediate representation: the teacher's pkg/codegen
// builds an IR of basic blocks and instructions before a separate
// backend renders them, but this language has no target other than
// AArch64/Apple, so emitExpr and emitStmt write assembly text straight
// into a strings.Builder as they walk the AST, the way the teacher's
// codegen.Context.newLabel mints label names off a running counter
// rather than any structural analysis.
package codegen

import (
	"fmt"
	"strings"

	"github.com/nullstitch/hyc/pkg/ast"
)

// frame tracks, for one lexical scope, the stack_size at which each
// variable's slot was pushed. Offsets are recomputed relative to the
// generator's current stack_size at the point of use, so a variable's
// slot address stays correct no matter how much has since been pushed
// on top of it.
type frame map[string]int

// Generator walks a Program and renders its AArch64 text body. It
// holds no state that outlives one Generate call.
type Generator struct {
	out          strings.Builder
	frames       []frame
	stackSize    int
	labelCounter int
	exited       bool
}

// New returns a Generator ready to emit one program.
func New() *Generator {
	return &Generator{frames: []frame{{}}}
}

// Generate renders the full assembly text for prog, including the
// _main prologue and a default exit sequence if the program falls off
// the end without having executed an exit statement.
func Generate(prog *ast.Program) string {
	g := New()
	g.writePrologue()
	for _, stmt := range prog.Stmts {
		g.emitStmt(stmt)
	}
	if !g.exited {
		g.emitDefaultExit()
	}
	return g.out.String()
}

func (g *Generator) writePrologue() {
	g.out.WriteString(".globl\t_main\n")
	g.out.WriteString(".p2align 2\n")
	g.out.WriteString("_main:\n")
}

func (g *Generator) emitDefaultExit() {
	g.line("mov w0, #0")
	g.line("mov x16, #1")
	g.line("svc #0x80")
}

func (g *Generator) line(format string, args ...interface{}) {
	g.out.WriteString("\t")
	fmt.Fprintf(&g.out, format, args...)
	g.out.WriteString("\n")
}

func (g *Generator) label(name string) {
	g.out.WriteString(name)
	g.out.WriteString(":\n")
}

func (g *Generator) newLabel() int {
	n := g.labelCounter
	g.labelCounter++
	return n
}

// push stores the value already held in reg into a fresh 16-byte
// stack slot and grows stack_size by 16 to match.
func (g *Generator) push(reg string) {
	g.line("str %s, [sp, #-16]!", reg)
	g.stackSize += 16
}

func (g *Generator) pop(reg string) {
	g.line("ldr %s, [sp], #16", reg)
	g.stackSize -= 16
}

// declare records name's slot as the stack_size at which it was pushed,
// i.e. the value g.stackSize held immediately before emitExpr pushed
// its result — not the post-push value, which would point one slot
// too high on every later read.
func (g *Generator) declare(name string, stackSizeBeforePush int) {
	top := g.frames[len(g.frames)-1]
	top[name] = stackSizeBeforePush
}

// offsetOf returns the [sp, #n] displacement for name's current slot,
// searching innermost scope first. It panics if name is absent: the
// parser's symbol table guarantees every Ident/Assign target was
// declared, so an unresolved name here is a codegen bug, not user
// input.
func (g *Generator) offsetOf(name string) int {
	for i := len(g.frames) - 1; i >= 0; i-- {
		if storedAt, ok := g.frames[i][name]; ok {
			return g.stackSize - storedAt - 16
		}
	}
	panic(fmt.Sprintf("codegen: undeclared variable %q reached codegen", name))
}

func (g *Generator) enterFrame() {
	g.frames = append(g.frames, frame{})
}

// exitFrame drops the innermost frame and unwinds the stack pointer
// by however much that frame pushed, so a scope's locals never
// outlive the scope. The original C++ source left stack_size and SP
// out of sync across a scope exit; this restores them together.
func (g *Generator) exitFrame(sizeAtEntry int) {
	g.frames = g.frames[:len(g.frames)-1]
	if delta := g.stackSize - sizeAtEntry; delta > 0 {
		g.line("add sp, sp, #%d", delta)
	}
	g.stackSize = sizeAtEntry
}

// emitExpr evaluates expr and leaves its 32-bit result on top of the
// stack (a single str into a 16-byte slot), following the stack
// discipline: every expression, regardless of shape, nets exactly
// +16 to stack_size.
func (g *Generator) emitExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case ast.IntLit:
		g.line("mov w0, #%s", e.Lexeme)
		g.push("w0")
	case ast.Ident:
		off := g.offsetOf(e.Name)
		g.line("ldr w0, [sp, #%d]", off)
		g.push("w0")
	case ast.BinOp:
		g.emitExpr(e.Left)
		g.emitExpr(e.Right)
		g.pop("w1") // right
		g.pop("w0") // left
		switch e.Op {
		case ast.Add:
			g.line("add w0, w0, w1")
		case ast.Sub:
			g.line("sub w0, w0, w1")
		case ast.Mul:
			g.line("mul w0, w0, w1")
		case ast.Div:
			g.line("udiv w0, w0, w1")
		}
		g.push("w0")
	default:
		panic(fmt.Sprintf("codegen: unhandled expr type %T", expr))
	}
}

func (g *Generator) emitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case ast.Let:
		before := g.stackSize
		g.emitExpr(s.Expr)
		g.declare(s.Name, before)
	case ast.Assign:
		g.emitExpr(s.Expr)
		g.pop("w0")
		off := g.offsetOf(s.Name)
		g.line("str w0, [sp, #%d]", off)
	case ast.Exit:
		g.emitExpr(s.Expr)
		g.pop("w0")
		g.line("mov x16, #1")
		g.line("svc #0x80")
		// Only an exit outside every scope is sure to run once reached;
		// one inside an if/elif/else body may be skipped at runtime, so
		// it must not suppress the default exit.
		if len(g.frames) == 1 {
			g.exited = true
		}
	case *ast.Scope:
		g.emitScope(s)
	case ast.If:
		g.emitIf(s)
	default:
		panic(fmt.Sprintf("codegen: unhandled stmt type %T", stmt))
	}
}

func (g *Generator) emitScope(scope *ast.Scope) {
	sizeAtEntry := g.stackSize
	g.enterFrame()
	for _, s := range scope.Stmts {
		g.emitStmt(s)
	}
	g.exitFrame(sizeAtEntry)
}

// emitIf lowers an if/elif*/else? chain to a sequence of test-and-
// branch blocks sharing one end label, minting one skip label per
// tested condition plus the shared end label.
func (g *Generator) emitIf(stmt ast.If) {
	end := g.newLabel()
	g.emitBranch(stmt.Cond, stmt.Then, stmt.Predicate, end)
	g.label(fmt.Sprintf(".L%d_end", end))
}

// emitBranch renders one condition/body pair and recurses into the
// predicate tail. cond is truthy when its evaluated word is nonzero.
func (g *Generator) emitBranch(cond ast.Expr, body *ast.Scope, next ast.Predicate, end int) {
	g.emitExpr(cond)
	g.pop("w0")
	skip := g.newLabel()
	g.line("cmp w0, #0")
	g.line("b.eq .L%d_skip", skip)
	g.emitScope(body)
	if next != nil {
		g.line("b .L%d_end", end)
	}
	g.label(fmt.Sprintf(".L%d_skip", skip))
	switch p := next.(type) {
	case *ast.Elif:
		g.emitBranch(p.Cond, p.Body, p.Next, end)
	case *ast.Else:
		g.emitScope(p.Body)
	}
}
