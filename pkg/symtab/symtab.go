// Package symtab implements the parser's lexical-scope symbol table: a
// stack of sets of declared names, consulted only during parsing.
//
// This mirrors the teacher's codegen.scope linked list (pkg/codegen/
// codegen.go) in spirit — innermost-scope-first lookup — but is shaped
// as a stack of sets rather than a linked list of symbol records, since
// the parser only ever needs "is this name declared," never a payload.
package symtab

// Table is a stack of scopes, each a set of declared names. The bottom
// entry is the global scope and is never popped.
type Table struct {
	scopes []map[string]bool
}

func New() *Table {
	return &Table{scopes: []map[string]bool{{}}}
}

func (t *Table) EnterScope() {
	t.scopes = append(t.scopes, map[string]bool{})
}

func (t *Table) ExitScope() {
	if len(t.scopes) <= 1 {
		return
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Declare inserts name into the current (topmost) scope. It reports
// false if name is already declared in that same scope — shadowing an
// outer scope's name is fine, redeclaring within one scope is not.
func (t *Table) Declare(name string) bool {
	top := t.scopes[len(t.scopes)-1]
	if top[name] {
		return false
	}
	top[name] = true
	return true
}

// IsDeclared reports whether name is visible from the current scope,
// searching inner-to-outer.
func (t *Table) IsDeclared(name string) bool {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if t.scopes[i][name] {
			return true
		}
	}
	return false
}
