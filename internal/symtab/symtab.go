// Package symtab implements the scoped symbol table of spec.md §4.B: a
// stack of lexical scopes holding variable, function, and type bindings,
// lookup with lexical-nesting semantics, and capture flagging for the
// display (spec.md Glossary).
package symtab

import (
	"sentra-semant/internal/ast"
	"sentra-semant/internal/ir"
	"sentra-semant/internal/types"
)

// VarId indexes into Table.vars. A function is a VarId too: spec.md §3
// says "A variable whose type is FUNCTION plus..." — funcs and vars share
// one arena so a function's identity as a variable (for e.g. the
// return-slot special case) never needs a second id space.
type VarId int

// Variable is one symbol-table entry (spec.md §3 "Variables"/"Functions").
type Variable struct {
	Type         types.TypeId
	Name         string
	Span         *ast.Span
	AddressTaken bool
	Captured     bool
	DispOffset   int // valid only once Captured; assigned lazily, see MarkCaptured

	Loc ir.InsnId // the ALLOC (or display-load) instruction computing this variable's address
	hasLoc bool

	// Function-only fields (Type.Tag == types.FUNCTION in the owning Registry).
	Func *ir.Function
}

// Scope is three name->id maps, forming one level of the lexical chain.
type Scope struct {
	vars  map[string]VarId
	funcs map[string]VarId
	typs  map[string]types.TypeId
}

func newScope() *Scope {
	return &Scope{
		vars:  map[string]VarId{},
		funcs: map[string]VarId{},
		typs:  map[string]types.TypeId{},
	}
}

// Table is the scope stack plus the variable arena (spec.md §3 "Scopes").
type Table struct {
	Registry *types.Registry

	vars  []Variable
	chain []*Scope

	// dispCounter is the monotonic display-offset counter of spec.md §5:
	// never decremented, never reused across variables.
	dispCounter int
}

// New constructs an empty Table over reg. The caller must Enter a global
// scope before adding any bindings.
func New(reg *types.Registry) *Table {
	return &Table{Registry: reg}
}

// Enter pushes a new scope (spec.md §4.B enter).
func (t *Table) Enter() {
	t.chain = append(t.chain, newScope())
}

// Leave pops the top scope (spec.md §4.B leave).
func (t *Table) Leave() {
	t.chain = t.chain[:len(t.chain)-1]
}

func (t *Table) top() *Scope {
	return t.chain[len(t.chain)-1]
}

// Var returns the Variable for id.
func (t *Table) Var(id VarId) *Variable {
	return &t.vars[id]
}

func (t *Table) pushVar(v Variable) VarId {
	t.vars = append(t.vars, v)
	return VarId(len(t.vars) - 1)
}

// AddVar inserts name into the top scope's vars map, bound to a fresh
// Variable. Returns (id, false) if name already exists in the top scope —
// callers report DuplicateName and keep the existing binding in that case
// (spec.md §7: "policy: reject in top scope").
func (t *Table) AddVar(name string, ty types.TypeId, span *ast.Span, addressTaken bool) (VarId, bool) {
	scope := t.top()
	if existing, ok := scope.vars[name]; ok {
		return existing, false
	}
	id := t.pushVar(Variable{Type: ty, Name: name, Span: span, AddressTaken: addressTaken})
	scope.vars[name] = id
	return id, true
}

// AddFunc inserts name into the top scope's funcs map. ty must already be
// a types.FUNCTION-tagged TypeId (interned by the caller via
// Registry.NewFunction). Returns (id, false) on duplicate, same policy as
// AddVar.
func (t *Table) AddFunc(name string, ty types.TypeId) (VarId, bool) {
	scope := t.top()
	if existing, ok := scope.funcs[name]; ok {
		return existing, false
	}
	id := t.pushVar(Variable{Type: ty, Name: name})
	scope.funcs[name] = id
	return id, true
}

// AddType interns astType and binds name to the resulting TypeId in the
// top scope (spec.md §4.B add_type). Named references resolve through
// ResolveTypeName; inProgress (with name added) is threaded through to
// Registry.Intern for direct-recursion detection.
func (t *Table) AddType(name string, astType *ast.Type, inProgress map[string]bool) (types.TypeId, bool, error) {
	scope := t.top()
	if _, ok := scope.typs[name]; ok {
		return 0, false, nil
	}
	inProgress[name] = true
	id, err := t.Registry.Intern(astType, t.ResolveTypeName, inProgress)
	delete(inProgress, name)
	if err != nil {
		return 0, true, err
	}
	scope.typs[name] = id
	return id, true, nil
}

// AddDecls interns group's type once and adds every name in it to the top
// scope (spec.md §4.B add_decls).
func (t *Table) AddDecls(group ast.DeclGroup, addressTaken bool) (types.TypeId, []VarId, []string) {
	ty, err := t.Registry.Intern(group.Type, t.ResolveTypeName, map[string]bool{})
	if err != nil {
		return 0, nil, []string{err.Error()}
	}
	var ids []VarId
	var dupErrs []string
	for _, name := range group.Names {
		id, fresh := t.AddVar(name, ty, group.Span, addressTaken)
		if !fresh {
			dupErrs = append(dupErrs, name)
		}
		ids = append(ids, id)
	}
	return ty, ids, dupErrs
}

// ResolveVar walks the chain from top to bottom looking for name in vars.
func (t *Table) ResolveVar(name string) (VarId, bool) {
	for i := len(t.chain) - 1; i >= 0; i-- {
		if id, ok := t.chain[i].vars[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// ResolveFunc walks the chain for name in funcs.
func (t *Table) ResolveFunc(name string) (VarId, bool) {
	for i := len(t.chain) - 1; i >= 0; i-- {
		if id, ok := t.chain[i].funcs[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// ResolveTypeName walks the chain for name in types, matching the
// func(name string) (TypeId, bool) shape Registry.Intern expects.
func (t *Table) ResolveTypeName(name string) (types.TypeId, bool) {
	for i := len(t.chain) - 1; i >= 0; i-- {
		if id, ok := t.chain[i].typs[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// HasLocalVar reports whether name is bound in the innermost *function's*
// accessible scopes — i.e. not captured from an outer function. funcBase
// is the index into the chain where the current function's own scopes
// begin (every scope at or above that index belongs to this activation or
// a block nested in it; scopes below it belong to an enclosing function
// and any variable found only there is a capture candidate, not local).
func (t *Table) HasLocalVar(name string, funcBase int) bool {
	for i := len(t.chain) - 1; i >= funcBase; i-- {
		if _, ok := t.chain[i].vars[name]; ok {
			return true
		}
	}
	return false
}

// HasLocalFunc mirrors HasLocalVar for the funcs namespace. Declared in
// the original's symbol.h alongside has_local_var/has_local_type even
// though analysis.c never calls it; kept for a complete three-namespace
// query surface (see DESIGN.md Open Question 4).
func (t *Table) HasLocalFunc(name string, funcBase int) bool {
	for i := len(t.chain) - 1; i >= funcBase; i-- {
		if _, ok := t.chain[i].funcs[name]; ok {
			return true
		}
	}
	return false
}

// HasLocalType mirrors HasLocalVar for the types namespace.
func (t *Table) HasLocalType(name string, funcBase int) bool {
	for i := len(t.chain) - 1; i >= funcBase; i-- {
		if _, ok := t.chain[i].typs[name]; ok {
			return true
		}
	}
	return false
}

// ChainDepth returns the current scope-stack depth, used by the
// subprogram analyzer to remember funcBase across Enter/Leave pairs.
func (t *Table) ChainDepth() int {
	return len(t.chain)
}

// MarkCaptured flags v as reached from a nested subprogram, assigning it a
// fresh display offset the first time (spec.md §4.D Path / invariant 2:
// offsets are pairwise distinct and never reused).
func (t *Table) MarkCaptured(id VarId) int {
	v := t.Var(id)
	if !v.Captured {
		v.Captured = true
		v.DispOffset = t.dispCounter
		t.dispCounter++
	}
	return v.DispOffset
}

// DispTotal returns the final display width: the number of distinct
// offsets handed out (spec.md §6 "final display width").
func (t *Table) DispTotal() int {
	return t.dispCounter
}

// Functions returns every compiled ir.Function bound to a subprogram
// across the whole analysis, in arena order. Used by callers (e.g. the IR
// export driver) that need every function reachable from the program, not
// just main.
func (t *Table) Functions() []*ir.Function {
	var fns []*ir.Function
	for i := range t.vars {
		if f := t.vars[i].Func; f != nil {
			fns = append(fns, f)
		}
	}
	return fns
}

// SetLoc records the instruction computing id's storage address.
func (v *Variable) SetLoc(insn ir.InsnId) {
	v.Loc = insn
	v.hasLoc = true
}

// HasLoc reports whether SetLoc has been called yet.
func (v *Variable) HasLoc() bool {
	return v.hasLoc
}

// AddMagicFunc registers a built-in with a magic discriminator in the top
// scope (spec.md §4.B add_magic_func). The FUNCTION type backing it has
// no formal parameters recorded: arity for I/O builtins is variadic, and
// analyzer.analyzeMagic never consults Params.
func (t *Table) AddMagicFunc(name string, magic types.MagicKind) VarId {
	ty := t.Registry.NewFunction(types.Procedure, nil, t.Registry.VoidId)
	t.Registry.Entry(ty).Magic = magic
	id, _ := t.AddFunc(name, ty)
	return id
}
