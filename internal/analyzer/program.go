package analyzer

import (
	"sentra-semant/internal/ast"
	"sentra-semant/internal/diag"
	"sentra-semant/internal/ir"
	"sentra-semant/internal/symtab"
	"sentra-semant/internal/target"
	"sentra-semant/internal/types"
)

// the only two recognized import names, registering the I/O magics
// (spec.md §4.G step 3). Unlike analysis.c's do_imports, which fires its
// registration branch on *inequality* (`strcmp(import, "input")` is
// truthy whenever the string differs from "input" — the inverse of the
// author's evident intent), these compare for equality.
const (
	importInput  = "input"
	importOutput = "output"
)

// Result of running the program driver (component G): everything spec.md
// §4.G step 9 says the analysis context must expose once analysis
// completes.
type ProgramResult struct {
	Symtab    *symtab.Table
	Registry  *types.Registry
	Main      *ir.Function
	DispTotal int
}

func (c *Context) doImports(imports []string) {
	for _, name := range imports {
		switch name {
		case importInput:
			c.St.AddMagicFunc("readln", types.MagicReadln)
			c.St.AddMagicFunc("read", types.MagicRead)
		case importOutput:
			c.St.AddMagicFunc("writeln", types.MagicWriteln)
			c.St.AddMagicFunc("write", types.MagicWrite)
		default:
			diag.Errorf(c.Sink, diag.UnknownImport, nil, "no such library: %q", name)
		}
	}
}

// unassignableFuncName is the synthetic top-level "function" the program
// body runs as (spec.md §4.G step 5), named so it can never collide with
// a source-level identifier and so any stray assignability check against
// it is self-evidently a bug, not a legitimate target.
const unassignableFuncName = "~!@__unassignable__@!~"

// Analyze runs the full program driver (spec.md §4.G) over prog and
// returns the finished analysis context's externally-visible products.
func Analyze(prog *ast.Program, t *target.Descriptor, sink diag.Sink) (result ProgramResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			if d, ok := r.(*diag.Diagnostic); ok {
				err = d
				return
			}
			panic(r)
		}
	}()

	reg := types.New(t)
	st := symtab.New(reg)
	c := New(reg, st, t, sink)

	st.Enter()

	c.doImports(prog.Imports)
	c.installTypes(prog.Types)
	globalIds := c.installDecls(prog.Decls, true)

	// A synthetic top-level function, never reachable by name, standing
	// in for analysis.c's always-present (and there, always truthy)
	// current_func while the program body and top-level subprograms are
	// analyzed. See Context.inFunction's doc comment: top-level code is
	// never subject to the non-local-assignment rule, so besides holding
	// the globals' ALLOCs and the lowered program body this handle only
	// gives the subprogram analyzer a nest depth to build on (1) — it is
	// never bound in the symbol table and never looked up.
	main := ir.NewFunction(unassignableFuncName, 1)
	c.Main = main
	c.B = ir.NewBuilder(main)

	subIds := make([]symtab.VarId, len(prog.Subprogs))
	subFresh := make([]bool, len(prog.Subprogs))
	for i := range prog.Subprogs {
		subIds[i], subFresh[i] = c.declareSubprogram(&prog.Subprogs[i])
	}
	for i := range prog.Subprogs {
		if subFresh[i] {
			c.analyzeSubprogram(main, 1, subIds[i], &prog.Subprogs[i])
		}
	}

	c.B.SetBlock(main.Entry)
	c.allocLocals(globalIds)
	c.displayPrelude(globalIds)

	c.analyzeStmt(prog.Body)

	return ProgramResult{
		Symtab:    st,
		Registry:  reg,
		Main:      main,
		DispTotal: st.DispTotal(),
	}, nil
}
