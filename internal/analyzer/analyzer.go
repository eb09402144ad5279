// Package analyzer is the semantic-analysis and IR-lowering core of
// spec.md: a single recursive descent over a parsed ast.Program that
// interleaves name resolution, type checking, display/closure capture
// analysis, and control-flow-graph construction (components D, E, F, G).
package analyzer

import (
	"sentra-semant/internal/diag"
	"sentra-semant/internal/ir"
	"sentra-semant/internal/symtab"
	"sentra-semant/internal/target"
	"sentra-semant/internal/types"
)

// Magic-callee names, emitted verbatim as SYMREF/FCALL target names
// (spec.md §6).
const (
	symDisplay     = "@display@"
	fnWriteInteger = "@write_integer@"
	fnWriteReal    = "@write_real@"
	fnWriteString  = "@write_string@"
	fnWriteBool    = "@write_bool@"
	fnWriteChar    = "@write_char@"
	fnWriteVoid    = "@write_void@"
	fnWriteNewline = "@write_newline@"
	fnReadInteger  = "@read_integer@"
	fnReadReal     = "@read_real@"
	fnReadString   = "@read_string@"
	fnReadBool     = "@read_bool@"
	fnReadChar     = "@read_char@"
	fnReadVoid     = "@read_void@"
)

// Context is the single analysis-context value threaded through the whole
// recursive descent (spec.md §5: "All state is owned by a single analysis
// context passed down the recursion"). Unlike the original C's acx, every
// field here is owned by Context itself or by the packages it composes —
// there is no package-level mutable state anywhere in analyzer.
type Context struct {
	St     *symtab.Table
	Reg    *types.Registry
	Target *target.Descriptor
	Sink   diag.Sink
	B      *ir.Builder

	// inFunction/funcType/funcBase describe the subprogram currently being
	// analyzed; inFunction is false while analyzing the top-level program
	// body, where non-local assignment is never an error.
	inFunction bool
	funcType   types.TypeId
	funcName   string
	funcBase   int

	Main *ir.Function
}

// New constructs a Context ready to run the program driver (G).
func New(reg *types.Registry, st *symtab.Table, t *target.Descriptor, sink diag.Sink) *Context {
	return &Context{Reg: reg, St: st, Target: t, Sink: sink}
}

// sizeOf is a small convenience wrapper kept so analyzer call sites read
// the way analysis.c's size_of_type(acx, ...) calls do.
func (c *Context) sizeOf(id types.TypeId) int {
	return c.Reg.SizeOf(id)
}
