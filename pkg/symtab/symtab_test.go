package symtab

import "testing"

func TestDeclareAndIsDeclared(t *testing.T) {
	tab := New()
	if tab.IsDeclared("x") {
		t.Fatal("x should not be declared yet")
	}
	if !tab.Declare("x") {
		t.Fatal("first declaration of x should succeed")
	}
	if !tab.IsDeclared("x") {
		t.Fatal("x should be declared after Declare")
	}
}

func TestDeclareRejectsRedeclarationInSameScope(t *testing.T) {
	tab := New()
	tab.Declare("x")
	if tab.Declare("x") {
		t.Fatal("redeclaring x in the same scope should fail")
	}
}

func TestNestedScopeShadowsOuter(t *testing.T) {
	tab := New()
	tab.Declare("x")

	tab.EnterScope()
	if !tab.Declare("x") {
		t.Fatal("shadowing x in a nested scope should succeed")
	}
	if !tab.IsDeclared("x") {
		t.Fatal("x should be visible in the nested scope")
	}
	tab.ExitScope()

	if !tab.IsDeclared("x") {
		t.Fatal("outer x should still be declared after exiting the nested scope")
	}
}

func TestExitScopeForgetsInnerDeclarations(t *testing.T) {
	tab := New()
	tab.EnterScope()
	tab.Declare("y")
	tab.ExitScope()

	if tab.IsDeclared("y") {
		t.Fatal("y should not be visible after its scope exited")
	}
}

func TestExitScopeNeverPopsGlobalScope(t *testing.T) {
	tab := New()
	tab.Declare("g")
	tab.ExitScope() // no-op: only one scope on the stack
	if !tab.IsDeclared("g") {
		t.Fatal("global scope should survive a spurious ExitScope")
	}
}
