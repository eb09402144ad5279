package types

import (
	"testing"

	"sentra-semant/internal/ast"
	"sentra-semant/internal/target"
)

func resolveNone(name string) (TypeId, bool) { return 0, false }

func TestNewPreinternsWellKnownIds(t *testing.T) {
	r := New(target.Reference())
	if r.Entry(r.IntegerId).Tag != INTEGER {
		t.Errorf("IntegerId tag = %v, want INTEGER", r.Entry(r.IntegerId).Tag)
	}
	if r.Entry(r.VoidId).Tag != VOID {
		t.Errorf("VoidId tag = %v, want VOID", r.Entry(r.VoidId).Tag)
	}
}

func TestSizeOf(t *testing.T) {
	r := New(target.Reference())
	tests := []struct {
		name string
		id   TypeId
		want int
	}{
		{"integer", r.IntegerId, 8},
		{"real", r.RealId, 8},
		{"string", r.StringId, 8},
		{"boolean", r.BooleanId, 1},
		{"char", r.CharId, 1},
		{"void", r.VoidId, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.SizeOf(tt.id); got != tt.want {
				t.Errorf("SizeOf(%s) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestSizeOfRefPanics(t *testing.T) {
	r := New(target.Reference())
	id := r.newAlias()
	defer func() {
		if recover() == nil {
			t.Fatal("SizeOf(REF) did not panic")
		}
	}()
	r.SizeOf(id)
}

// TestNewPointerDeduplicates is the fix for spec.md §9's EXPR_ADDROF bug:
// the original pushed a fresh POINTER type on every `@x`, never deduped.
func TestNewPointerDeduplicates(t *testing.T) {
	r := New(target.Reference())
	p1 := r.NewPointer(r.IntegerId)
	p2 := r.NewPointer(r.IntegerId)
	if p1 != p2 {
		t.Errorf("NewPointer(Integer) twice gave distinct ids %d, %d", p1, p2)
	}
	p3 := r.NewPointer(r.RealId)
	if p3 == p1 {
		t.Errorf("NewPointer(Real) reused Integer's pointer id")
	}
}

func TestNewArrayNotDeduplicated(t *testing.T) {
	r := New(target.Reference())
	a1 := r.NewArray(0, 9, r.IntegerId)
	a2 := r.NewArray(0, 9, r.IntegerId)
	if a1 == a2 {
		t.Errorf("NewArray deduplicated identical declarations; spec says each is its own nominal shape")
	}
	if !r.TypesEq(a1, a2) {
		t.Errorf("TypesEq(a1, a2) = false, want true: structurally identical arrays must be type_eq")
	}
}

// TestFieldOffsetS2 is spec.md S2: record R = {a:integer, b:char, c:integer},
// r.c resolves to offset 9 (8 + 1).
func TestFieldOffsetS2(t *testing.T) {
	r := New(target.Reference())
	rec := r.NewRecord("R", []Field{
		{Name: "a", Type: r.IntegerId},
		{Name: "b", Type: r.CharId},
		{Name: "c", Type: r.IntegerId},
	})
	ty, offset, found := r.FieldOffset(rec, "c")
	if !found {
		t.Fatal("FieldOffset(R, c) not found")
	}
	if ty != r.IntegerId {
		t.Errorf("FieldOffset(R, c) type = %v, want Integer", ty)
	}
	if offset != 9 {
		t.Errorf("FieldOffset(R, c) offset = %d, want 9", offset)
	}
}

func TestFieldOffsetUnknownField(t *testing.T) {
	r := New(target.Reference())
	rec := r.NewRecord("R", []Field{{Name: "a", Type: r.IntegerId}})
	if _, _, found := r.FieldOffset(rec, "nope"); found {
		t.Error("FieldOffset found a nonexistent field")
	}
}

func TestFieldOffsetNonRecord(t *testing.T) {
	r := New(target.Reference())
	if _, _, found := r.FieldOffset(r.IntegerId, "a"); found {
		t.Error("FieldOffset succeeded on a non-record type")
	}
}

func TestTypesEqIdentity(t *testing.T) {
	r := New(target.Reference())
	if !r.TypesEq(r.IntegerId, r.IntegerId) {
		t.Error("TypesEq(x, x) = false")
	}
}

func TestTypesEqStructural(t *testing.T) {
	r := New(target.Reference())
	rec1 := r.NewRecord("", []Field{{Name: "x", Type: r.IntegerId}})
	rec2 := r.NewRecord("", []Field{{Name: "x", Type: r.IntegerId}})
	if rec1 == rec2 {
		t.Fatal("test setup: expected distinct ids to test structural equality")
	}
	if !r.TypesEq(rec1, rec2) {
		t.Error("TypesEq on structurally identical records = false")
	}

	rec3 := r.NewRecord("", []Field{{Name: "y", Type: r.IntegerId}})
	if r.TypesEq(rec1, rec3) {
		t.Error("TypesEq on records with different field names = true")
	}
}

func TestInternScalars(t *testing.T) {
	r := New(target.Reference())
	tests := []struct {
		tag  ast.TypeTag
		want TypeId
	}{
		{ast.TypeInt, r.IntegerId},
		{ast.TypeReal, r.RealId},
		{ast.TypeBool, r.BooleanId},
		{ast.TypeChar, r.CharId},
		{ast.TypeStr, r.StringId},
		{ast.TypeVoid, r.VoidId},
	}
	for _, tt := range tests {
		id, err := r.Intern(&ast.Type{Tag: tt.tag}, resolveNone, map[string]bool{})
		if err != nil {
			t.Fatalf("Intern(%s): %v", tt.tag, err)
		}
		if id != tt.want {
			t.Errorf("Intern(%s) = %d, want %d", tt.tag, id, tt.want)
		}
	}
}

func TestInternUnknownNamedType(t *testing.T) {
	r := New(target.Reference())
	_, err := r.Intern(&ast.Type{Tag: ast.TypeNamed, Name: "Missing"}, resolveNone, map[string]bool{})
	if err == nil {
		t.Error("Intern of an unresolvable named type returned no error")
	}
}

func TestInternArray(t *testing.T) {
	r := New(target.Reference())
	id, err := r.Intern(&ast.Type{Tag: ast.TypeArray, Lower: 0, Upper: 9, Elt: &ast.Type{Tag: ast.TypeInt}}, resolveNone, map[string]bool{})
	if err != nil {
		t.Fatalf("Intern(array): %v", err)
	}
	e := r.Entry(id)
	if e.Tag != ARRAY || e.Lower != 0 || e.Upper != 9 || e.ElemType != r.IntegerId {
		t.Errorf("Intern(array) entry = %+v", e)
	}
}

// TestInternRecordPointerFieldAllowed checks that a record with a pointer
// field (next: ^integer) interns while "Node" is marked in progress: only a
// field that names an in-progress type directly is rejected.
func TestInternRecordPointerFieldAllowed(t *testing.T) {
	r := New(target.Reference())
	recordType := &ast.Type{
		Tag: ast.TypeRecord,
		Fields: []ast.FieldDecl{
			{Name: "value", Type: &ast.Type{Tag: ast.TypeInt}},
			{Name: "next", Type: &ast.Type{Tag: ast.TypePointer, Pointee: &ast.Type{Tag: ast.TypeInt}}},
		},
	}
	id, err := r.Intern(recordType, resolveNone, map[string]bool{"Node": true})
	if err != nil {
		t.Fatalf("Intern(record with pointer field): %v", err)
	}
	if r.Entry(id).Tag != RECORD {
		t.Errorf("got tag %v, want RECORD", r.Entry(id).Tag)
	}
}

func TestInternRecordDirectRecursionRejected(t *testing.T) {
	r := New(target.Reference())
	recordType := &ast.Type{
		Tag: ast.TypeRecord,
		Fields: []ast.FieldDecl{
			{Name: "self", Type: &ast.Type{Tag: ast.TypeNamed, Name: "Node"}},
		},
	}
	_, err := r.Intern(recordType, resolveNone, map[string]bool{"Node": true})
	if err == nil {
		t.Error("Intern allowed a direct (non-pointer) self-reference")
	}
}
