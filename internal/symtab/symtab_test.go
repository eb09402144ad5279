package symtab

import (
	"testing"

	"sentra-semant/internal/ast"
	"sentra-semant/internal/target"
	"sentra-semant/internal/types"
)

func newTable() (*Table, *types.Registry) {
	reg := types.New(target.Reference())
	return New(reg), reg
}

func TestEnterLeaveBalanced(t *testing.T) {
	st, _ := newTable()
	st.Enter()
	if depth := st.ChainDepth(); depth != 1 {
		t.Fatalf("ChainDepth after one Enter = %d, want 1", depth)
	}
	st.Enter()
	st.Leave()
	if depth := st.ChainDepth(); depth != 1 {
		t.Fatalf("ChainDepth after Enter;Enter;Leave = %d, want 1", depth)
	}
	st.Leave()
	if depth := st.ChainDepth(); depth != 0 {
		t.Fatalf("ChainDepth after fully unwound = %d, want 0", depth)
	}
}

func TestAddVarDuplicateInTopScopeRejected(t *testing.T) {
	st, reg := newTable()
	st.Enter()
	id1, fresh1 := st.AddVar("x", reg.IntegerId, nil, false)
	if !fresh1 {
		t.Fatal("first AddVar(x) reported not fresh")
	}
	id2, fresh2 := st.AddVar("x", reg.RealId, nil, false)
	if fresh2 {
		t.Error("duplicate AddVar(x) in top scope reported fresh")
	}
	if id1 != id2 {
		t.Error("duplicate AddVar(x) did not return the existing binding's id")
	}
}

func TestAddVarSameNameDifferentScopesShadows(t *testing.T) {
	st, reg := newTable()
	st.Enter()
	outer, _ := st.AddVar("x", reg.IntegerId, nil, false)
	st.Enter()
	inner, fresh := st.AddVar("x", reg.RealId, nil, false)
	if !fresh {
		t.Fatal("shadowing AddVar(x) in a nested scope reported not fresh")
	}
	if outer == inner {
		t.Error("nested scope's x reused the outer scope's VarId")
	}
	resolved, ok := st.ResolveVar("x")
	if !ok || resolved != inner {
		t.Errorf("ResolveVar(x) = (%d, %v), want (%d, true): innermost binding should win", resolved, ok, inner)
	}
	st.Leave()
	resolved, ok = st.ResolveVar("x")
	if !ok || resolved != outer {
		t.Errorf("after Leave, ResolveVar(x) = (%d, %v), want (%d, true)", resolved, ok, outer)
	}
}

func TestResolveVarUnknown(t *testing.T) {
	st, _ := newTable()
	st.Enter()
	if _, ok := st.ResolveVar("nope"); ok {
		t.Error("ResolveVar found a name that was never added")
	}
}

func TestHasLocalVarRespectsFuncBase(t *testing.T) {
	st, reg := newTable()
	st.Enter() // global scope, index 0
	st.AddVar("g", reg.IntegerId, nil, true)

	funcBase := st.ChainDepth()
	st.Enter() // function's own scope, index 1
	st.AddVar("local", reg.IntegerId, nil, false)

	if !st.HasLocalVar("local", funcBase) {
		t.Error("HasLocalVar(local) = false, want true")
	}
	if st.HasLocalVar("g", funcBase) {
		t.Error("HasLocalVar(g) = true, want false: g lives below funcBase and is a capture candidate, not local")
	}
	if _, ok := st.ResolveVar("g"); !ok {
		t.Error("ResolveVar(g) failed even though g is visible in an enclosing scope")
	}
}

func TestAddDeclsInternsOnceAndBindsEveryName(t *testing.T) {
	st, reg := newTable()
	st.Enter()
	group := ast.DeclGroup{Names: []string{"a", "b", "c"}, Type: &ast.Type{Tag: ast.TypeInt}}
	ty, ids, dups := st.AddDecls(group, false)
	if len(dups) != 0 {
		t.Errorf("unexpected duplicates: %v", dups)
	}
	if len(ids) != 3 {
		t.Fatalf("AddDecls returned %d ids, want 3", len(ids))
	}
	if ty != reg.IntegerId {
		t.Errorf("AddDecls returned type %d, want Integer", ty)
	}
	for i, name := range []string{"a", "b", "c"} {
		id, ok := st.ResolveVar(name)
		if !ok || id != ids[i] {
			t.Errorf("ResolveVar(%s) = (%d, %v), want (%d, true)", name, id, ok, ids[i])
		}
	}
}

func TestMarkCapturedMonotonicAndStable(t *testing.T) {
	st, reg := newTable()
	st.Enter()
	a, _ := st.AddVar("a", reg.IntegerId, nil, false)
	b, _ := st.AddVar("b", reg.IntegerId, nil, false)

	offA := st.MarkCaptured(a)
	offB := st.MarkCaptured(b)
	if offA == offB {
		t.Error("two distinct captured variables got the same disp_offset")
	}
	if st.MarkCaptured(a) != offA {
		t.Error("MarkCaptured on an already-captured variable reassigned its disp_offset")
	}
	if st.DispTotal() != 2 {
		t.Errorf("DispTotal() = %d, want 2", st.DispTotal())
	}
}

func TestAddMagicFunc(t *testing.T) {
	st, _ := newTable()
	st.Enter()
	id := st.AddMagicFunc("writeln", types.MagicWriteln)
	resolved, ok := st.ResolveFunc("writeln")
	if !ok || resolved != id {
		t.Fatalf("ResolveFunc(writeln) = (%d, %v), want (%d, true)", resolved, ok, id)
	}
	v := st.Var(id)
	if got := st.Registry.Entry(v.Type).Magic; got != types.MagicWriteln {
		t.Errorf("magic function's Magic kind = %v, want MagicWriteln", got)
	}
}
