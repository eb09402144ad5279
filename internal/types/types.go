// Package types implements the type registry (spec.md §4.A): interning,
// size/alignment, structural equivalence, and record field offsets. Every
// cyclic reference the original C expressed with raw pointers (a record
// field type that is itself a pointer back to the record) is re-architected
// as a TypeId, a plain index into Registry.entries, per the arena pattern
// in spec.md §9 Design Notes.
package types

import (
	"fmt"

	"sentra-semant/internal/ast"
	"sentra-semant/internal/target"
)

// TypeId indexes into Registry.entries. The zero value is a valid id:
// index 0 is always INTEGER (see well-known ids below).
type TypeId int

// Tag is the type-entry discriminant of spec.md §3.
type Tag int

const (
	ARRAY Tag = iota
	BOOLEAN
	CHAR
	FUNCTION
	INTEGER
	POINTER
	REAL
	RECORD
	REF // unresolved alias placeholder; must never reach SizeOf
	STRING
	VOID
)

func (t Tag) String() string {
	switch t {
	case ARRAY:
		return "array"
	case BOOLEAN:
		return "boolean"
	case CHAR:
		return "char"
	case FUNCTION:
		return "function"
	case INTEGER:
		return "integer"
	case POINTER:
		return "pointer"
	case REAL:
		return "real"
	case RECORD:
		return "record"
	case REF:
		return "ref"
	case STRING:
		return "string"
	case VOID:
		return "void"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// SubKind mirrors ast.SubKind for a FUNCTION-tagged type's payload.
type SubKind string

const (
	Procedure SubKind = "procedure"
	Function  SubKind = "function"
)

// Field is one record field, in declaration order.
type Field struct {
	Name string
	Type TypeId
}

// Entry is a type-registry entry: a tag plus the payload variant for that
// tag (spec.md §3's "tagged variant replaces union+tag" from Design Notes).
type Entry struct {
	Tag  Tag
	Name string // empty for anonymous/structural types

	// ARRAY
	Lower, Upper int
	ElemType     TypeId

	// POINTER, REF (ref target, once resolved)
	Pointee TypeId

	// RECORD
	Fields        []Field
	fieldOffsets  []int // parallel to Fields; precomputed at intern time

	// FUNCTION (the compiled function handle itself lives on the owning
	// symtab.Variable, not here, since a Variable<->Entry pair is 1:1 for
	// functions and the handle has no meaning independent of its variable)
	FuncKind    SubKind
	Params      []int // VarId of each formal, set by the subprogram analyzer
	RetType     TypeId
	RetAssigned bool
	Magic       MagicKind // 0 (NoMagic) unless this is a builtin
}

// MagicKind discriminates a built-in I/O routine (spec.md Glossary).
type MagicKind int

const (
	NoMagic MagicKind = iota
	MagicRead
	MagicReadln
	MagicWrite
	MagicWriteln
)

// Registry interns and resolves types. It owns the only slice of Entry
// values that ever exists in an analysis; every other component refers to
// types by TypeId.
type Registry struct {
	entries []Entry
	target  *target.Descriptor

	// Well-known ids, pre-interned by New.
	IntegerId TypeId
	RealId    TypeId
	StringId  TypeId
	BooleanId TypeId
	CharId    TypeId
	VoidId    TypeId
}

// New constructs a Registry with the six well-known scalar types
// pre-interned, per spec.md §3.
func New(t *target.Descriptor) *Registry {
	r := &Registry{target: t}
	r.IntegerId = r.push(Entry{Tag: INTEGER, Name: "integer"})
	r.RealId = r.push(Entry{Tag: REAL, Name: "real"})
	r.StringId = r.push(Entry{Tag: STRING, Name: "string"})
	r.BooleanId = r.push(Entry{Tag: BOOLEAN, Name: "boolean"})
	r.CharId = r.push(Entry{Tag: CHAR, Name: "char"})
	r.VoidId = r.push(Entry{Tag: VOID, Name: "void"})
	return r
}

func (r *Registry) push(e Entry) TypeId {
	r.entries = append(r.entries, e)
	return TypeId(len(r.entries) - 1)
}

// Entry returns the registry entry for id. Panics on an out-of-range id,
// which can only happen from an internal bug (a stale TypeId outliving
// the registry it came from).
func (r *Registry) Entry(id TypeId) *Entry {
	return &r.entries[id]
}

// NewPointer interns (or returns the existing) POINTER type pointing at
// pointee, deduplicating structurally. This is the fix called out in
// spec.md §9 for EXPR_ADDROF: the original pushed a fresh, never-deduped
// POINTER type onto the arena on every `@x` expression.
func (r *Registry) NewPointer(pointee TypeId) TypeId {
	for i, e := range r.entries {
		if e.Tag == POINTER && e.Pointee == pointee {
			return TypeId(i)
		}
	}
	return r.push(Entry{Tag: POINTER, Pointee: pointee})
}

// NewArray interns a fresh ARRAY type. Arrays are not deduplicated by the
// spec (each array declaration is its own nominal shape in the source
// language), matching the original's ptrvec_push in the array branch of
// intern.
func (r *Registry) NewArray(lower, upper int, elem TypeId) TypeId {
	return r.push(Entry{Tag: ARRAY, Lower: lower, Upper: upper, ElemType: elem})
}

// NewRecord interns a fresh RECORD type and precomputes field offsets
// (see SPEC_FULL.md §3 on why this is precomputed once rather than
// rescanned per field_offset call).
func (r *Registry) NewRecord(name string, fields []Field) TypeId {
	offsets := make([]int, len(fields))
	acc := 0
	for i, f := range fields {
		offsets[i] = acc
		acc += r.SizeOf(f.Type)
	}
	return r.push(Entry{Tag: RECORD, Name: name, Fields: fields, fieldOffsets: offsets})
}

// NewFunction interns a fresh FUNCTION type for a subprogram declaration.
func (r *Registry) NewFunction(kind SubKind, params []int, retType TypeId) TypeId {
	return r.push(Entry{Tag: FUNCTION, FuncKind: kind, Params: params, RetType: retType})
}

// newAlias interns a bare TYPE_REF placeholder entry. Mirrors the
// original's enum constant of the same name: symbol.h declares TYPE_REF
// as an unresolved-alias marker, but analysis.c never actually constructs
// one — every pointer field's pointee is interned through a fresh
// inProgress set instead (see Intern's TypePointer case), so a REF entry
// only ever exists as size_of_type's unreachable default case (see
// DESIGN.md Open Question 3). Kept for the same reason: the tag is part
// of the type system's documented shape even though nothing instantiates
// it by construction.
func (r *Registry) newAlias() TypeId {
	return r.push(Entry{Tag: REF})
}

// SizeOf returns the size in bytes of id, per the fixed-size table in
// spec.md §3. TYPE_REF reaching here is an internal bug: it means some
// caller failed to resolve an alias before asking for its size.
func (r *Registry) SizeOf(id TypeId) int {
	e := r.Entry(id)
	switch e.Tag {
	case ARRAY, FUNCTION, POINTER, STRING:
		return r.target.PointerSize
	case INTEGER:
		return r.target.IntegerSize
	case REAL:
		return r.target.RealSize
	case BOOLEAN:
		return r.target.BooleanSize
	case CHAR:
		return r.target.CharSize
	case VOID:
		return r.target.VoidSize
	case RECORD:
		return r.target.RecordSize
	case REF:
		panic(fmt.Sprintf("internal invariant violated: TYPE_REF survived to SizeOf (type %q)", e.Name))
	default:
		panic(fmt.Sprintf("internal invariant violated: SizeOf of unknown tag %v", e.Tag))
	}
}

// TypesEq implements structural equivalence (spec.md §4.A types_eq):
// identity, or identical tag with recursively-equal payload. FUNCTION
// types compare kind, parameter count and return type; the parameters'
// types are not compared. REF entries are equal only by identity.
func (r *Registry) TypesEq(a, b TypeId) bool {
	if a == b {
		return true
	}
	ea, eb := r.Entry(a), r.Entry(b)
	if ea.Tag != eb.Tag {
		return false
	}
	switch ea.Tag {
	case ARRAY:
		return ea.Lower == eb.Lower && ea.Upper == eb.Upper && r.TypesEq(ea.ElemType, eb.ElemType)
	case POINTER:
		return r.TypesEq(ea.Pointee, eb.Pointee)
	case RECORD:
		if len(ea.Fields) != len(eb.Fields) {
			return false
		}
		for i := range ea.Fields {
			if ea.Fields[i].Name != eb.Fields[i].Name || !r.TypesEq(ea.Fields[i].Type, eb.Fields[i].Type) {
				return false
			}
		}
		return true
	case FUNCTION:
		if ea.FuncKind != eb.FuncKind || len(ea.Params) != len(eb.Params) {
			return false
		}
		return r.TypesEq(ea.RetType, eb.RetType)
	case BOOLEAN, CHAR, INTEGER, REAL, STRING, VOID:
		return true
	default:
		return false
	}
}

// FieldOffset looks up field name in record id's field list, returning its
// type and precomputed byte offset. The bool result is false if id is not
// a record or has no such field (spec.md §4.A field_offset).
func (r *Registry) FieldOffset(id TypeId, name string) (TypeId, int, bool) {
	e := r.Entry(id)
	if e.Tag != RECORD {
		return 0, 0, false
	}
	for i, f := range e.Fields {
		if f.Name == name {
			return f.Type, e.fieldOffsets[i], true
		}
	}
	return 0, 0, false
}

// Intern resolves a syntactic ast.Type into a TypeId, recursively
// descending into array/pointer/record payloads. resolveName looks up a
// named type reference in the current scope chain (internal/symtab owns
// that lookup; Intern only needs the callback to stay decoupled from
// symtab, avoiding an import cycle between the two packages).
//
// inProgress tracks the set of type names currently being declared, so a
// record field that names one of them directly (a record containing itself
// by value) is rejected. A pointer field's pointee is interned with a fresh
// inProgress set and is not subject to that check. A pointer to a type
// still being declared is not supported: the name is bound only after
// Intern returns, so resolveName fails and Intern reports an unknown type.
func (r *Registry) Intern(t *ast.Type, resolveName func(name string) (TypeId, bool), inProgress map[string]bool) (TypeId, error) {
	if t == nil {
		return r.VoidId, nil
	}
	switch t.Tag {
	case ast.TypeInt:
		return r.IntegerId, nil
	case ast.TypeReal:
		return r.RealId, nil
	case ast.TypeBool:
		return r.BooleanId, nil
	case ast.TypeChar:
		return r.CharId, nil
	case ast.TypeStr:
		return r.StringId, nil
	case ast.TypeVoid:
		return r.VoidId, nil
	case ast.TypeNamed:
		if id, ok := resolveName(t.Name); ok {
			return id, nil
		}
		return 0, fmt.Errorf("unknown type name %q", t.Name)
	case ast.TypeArray:
		elem, err := r.Intern(t.Elt, resolveName, inProgress)
		if err != nil {
			return 0, err
		}
		return r.NewArray(t.Lower, t.Upper, elem), nil
	case ast.TypePointer:
		// Intern the pointee without propagating inProgress, since a
		// pointer's storage doesn't need the pointee's layout.
		pointee, err := r.Intern(t.Pointee, resolveName, map[string]bool{})
		if err != nil {
			return 0, err
		}
		return r.NewPointer(pointee), nil
	case ast.TypeRecord:
		fields := make([]Field, 0, len(t.Fields))
		for _, fd := range t.Fields {
			if inProgress[fd.Type.Name] && fd.Type.Tag == ast.TypeNamed {
				return 0, fmt.Errorf("illegal direct recursive reference to %q (use a pointer)", fd.Type.Name)
			}
			ft, err := r.Intern(fd.Type, resolveName, inProgress)
			if err != nil {
				return 0, err
			}
			fields = append(fields, Field{Name: fd.Name, Type: ft})
		}
		return r.NewRecord("", fields), nil
	default:
		return 0, fmt.Errorf("unknown syntactic type tag %q", t.Tag)
	}
}
