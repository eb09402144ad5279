package analyzer

import (
	"sentra-semant/internal/ast"
	"sentra-semant/internal/diag"
	"sentra-semant/internal/ir"
	"sentra-semant/internal/symtab"
	"sentra-semant/internal/types"
)

// installTypes adds a subprogram's (or the program's) own type
// declarations into the current top scope.
func (c *Context) installTypes(decls []ast.TypeDecl) {
	for _, td := range decls {
		if _, fresh, err := c.St.AddType(td.Name, td.Type, map[string]bool{}); err != nil {
			diag.Errorf(c.Sink, diag.TypeMismatch, nil, "type %q: %v", td.Name, err)
		} else if !fresh {
			diag.Errorf(c.Sink, diag.DuplicateName, nil, "duplicate type name %q", td.Name)
		}
	}
}

// installDecls adds a list of declaration groups into the current top
// scope and returns every VarId introduced, in order.
func (c *Context) installDecls(groups []ast.DeclGroup, addressTaken bool) []symtab.VarId {
	var ids []symtab.VarId
	for _, g := range groups {
		_, vids, dups := c.St.AddDecls(g, addressTaken)
		for _, dup := range dups {
			diag.Errorf(c.Sink, diag.DuplicateName, g.Span, "duplicate variable name %q", dup)
		}
		ids = append(ids, vids...)
	}
	return ids
}

// allocLocals pushes an ALLOC instruction into the entry block for every
// variable in ids, and records the resulting address as the variable's Loc
// (spec.md §4.F step 4).
func (c *Context) allocLocals(ids []symtab.VarId) {
	for _, id := range ids {
		v := c.St.Var(id)
		insn := c.B.Emit1(ir.OpAlloc, ir.Lit(c.sizeOf(v.Type)))
		v.SetLoc(insn)
	}
}

// displayPrelude emits, for every captured variable in ids, the display
// save/restore sequence of spec.md §4.F step 6: load the old display slot
// into a fresh save cell, then install this variable's address into the
// display for the duration of this activation.
func (c *Context) displayPrelude(ids []symtab.VarId) {
	var disp ir.InsnId
	haveDisp := false
	for _, id := range ids {
		v := c.St.Var(id)
		if !v.Captured {
			continue
		}
		if !haveDisp {
			disp = c.B.Emit1(ir.OpSymref, ir.Name(symDisplay))
			haveDisp = true
		}
		dispLoc := c.B.Emit2(ir.OpAdd, ir.Reg(disp), ir.Lit(v.DispOffset*c.Target.PointerAlign))
		saveLoc := c.B.Emit1(ir.OpAlloc, ir.Lit(c.Target.PointerSize))
		oldVal := c.B.Emit2(ir.OpLoad, ir.Reg(dispLoc), ir.Lit(c.Target.PointerSize))
		c.B.Emit3(ir.OpStore, ir.Reg(saveLoc), ir.Reg(oldVal), ir.Lit(c.Target.PointerSize))
		c.B.Emit3(ir.OpStore, ir.Reg(dispLoc), ir.Reg(v.Loc), ir.Lit(c.Target.PointerSize))
	}
}

// declareSubprogram interns a subprogram's FUNCTION type and binds its
// name in the current (enclosing) scope, so mutually-recursive siblings
// and forward references resolve (spec.md §4.F step 5 / §4.G step 6).
func (c *Context) declareSubprogram(s *ast.SubDecl) (symtab.VarId, bool) {
	// params is sized to the formal-argument count only; analyzeSubprogram
	// overwrites it with the real formal VarIds before this subprogram's
	// body (and so any recursive self-call) is analyzed.
	argCount := 0
	for _, group := range s.Args {
		argCount += len(group.Names)
	}
	params := make([]int, argCount)
	for i := range params {
		params[i] = -1
	}

	kind := types.Procedure
	retType := c.Reg.VoidId
	if s.Kind == ast.SubFunction {
		kind = types.Function
		var err error
		retType, err = c.Reg.Intern(s.RetType, c.St.ResolveTypeName, map[string]bool{})
		if err != nil {
			diag.Errorf(c.Sink, diag.TypeMismatch, s.Span, "return type: %v", err)
		}
	}
	funcType := c.Reg.NewFunction(kind, params, retType)
	id, fresh := c.St.AddFunc(s.Name, funcType)
	if !fresh {
		diag.Errorf(c.Sink, diag.DuplicateName, s.Span, "duplicate subprogram name %q", s.Name)
	}
	return id, fresh
}

// analyzeSubprogram lowers one subprogram declaration (spec.md §4.F).
func (c *Context) analyzeSubprogram(parentFunc *ir.Function, parentNestDepth int, id symtab.VarId, s *ast.SubDecl) {
	v := c.St.Var(id)
	entry := c.Reg.Entry(v.Type)

	fn := ir.NewFunction(s.Name, parentNestDepth+1)
	v.Func = fn

	savedB := c.B
	savedInFunc, savedFuncType, savedFuncName, savedFuncBase := c.inFunction, c.funcType, c.funcName, c.funcBase
	c.B = ir.NewBuilder(fn)
	c.inFunction = true
	c.funcType = v.Type
	c.funcName = s.Name

	c.St.Enter()
	c.funcBase = c.St.ChainDepth() - 1

	c.installTypes(s.Types)

	var formalIds []symtab.VarId
	for _, group := range s.Args {
		_, vids, dups := c.St.AddDecls(group, false)
		for _, dup := range dups {
			diag.Errorf(c.Sink, diag.DuplicateName, group.Span, "duplicate formal parameter name %q", dup)
		}
		formalIds = append(formalIds, vids...)
	}
	params := make([]int, len(formalIds))
	for i, fid := range formalIds {
		params[i] = int(fid)
	}
	entry.Params = params
	fn.Args = params

	localIds := c.installDecls(s.Decls, true)

	// The return slot: a variable bound under the subprogram's own name,
	// of the declared return type (spec.md §4.F step 3 / Glossary "Return
	// slot"). For a procedure this is VOID-typed and never legally assigned.
	retSlotId, _ := c.St.AddVar(s.Name, entry.RetType, s.Span, true)

	c.allocLocals(append(append([]symtab.VarId{}, formalIds...), append(localIds, retSlotId)...))

	// Bind every nested subprogram before analyzing any of them, so
	// siblings can reference each other regardless of declaration order.
	nestedIds := make([]symtab.VarId, len(s.Subprogs))
	nestedFresh := make([]bool, len(s.Subprogs))
	for i := range s.Subprogs {
		nestedIds[i], nestedFresh[i] = c.declareSubprogram(&s.Subprogs[i])
	}
	for i := range s.Subprogs {
		if nestedFresh[i] {
			c.analyzeSubprogram(fn, fn.NestDepth, nestedIds[i], &s.Subprogs[i])
		}
	}

	// Captured-variable display prelude (spec.md §4.F step 6), scanned
	// over this scope's own variables (formals, locals, and the return
	// slot, any of which a nested subprogram may have captured while
	// being analyzed just above).
	c.displayPrelude(append(append([]symtab.VarId{}, formalIds...), append(localIds, retSlotId)...))

	c.analyzeStmt(s.Body)

	if s.Kind == ast.SubFunction && !entry.RetAssigned {
		diag.Errorf(c.Sink, diag.UnassignedReturn, s.Span, "return value of %q not assigned", s.Name)
	}

	if s.Kind == ast.SubFunction {
		retV := c.St.Var(retSlotId)
		loaded := c.B.Emit2(ir.OpLoad, ir.Reg(retV.Loc), ir.Lit(c.sizeOf(entry.RetType)))
		c.B.Emit1(ir.OpRet, ir.Reg(loaded))
	} else {
		c.B.Emit1(ir.OpRet, ir.Operand{})
	}

	c.St.Leave()

	c.B = savedB
	c.inFunction, c.funcType, c.funcName, c.funcBase = savedInFunc, savedFuncType, savedFuncName, savedFuncBase
}
