package analyzer

import (
	"strconv"

	"sentra-semant/internal/ast"
	"sentra-semant/internal/diag"
	"sentra-semant/internal/ir"
	"sentra-semant/internal/symtab"
	"sentra-semant/internal/types"
)

// Result is the (type-id, ir-value) pair every expression analysis
// produces (spec.md §4.D): Insn is the address for lvalues and the value
// for rvalues, exactly as analysis.c's `struct resu` carries a single
// `struct insn *op` for both roles.
type Result struct {
	Type types.TypeId
	Insn ir.InsnId
}

func (c *Context) reg(r Result) ir.Operand { return ir.Reg(r.Insn) }

// typeOfPath resolves a dotted path `a.b.c` to the address of its final
// component, per spec.md §4.D "Path". The head identifier is resolved as
// a variable; if it's not local to the current function it is marked
// captured and its address is computed through the display. Each further
// component must be a record field.
func (c *Context) typeOfPath(p *ast.Path) (Result, bool) {
	head := p.Components[0]
	id, ok := c.St.ResolveVar(head)
	if !ok {
		diag.Errorf(c.Sink, diag.UnknownName, p.Span, "unknown variable %q", head)
		return Result{}, false
	}

	var loc ir.InsnId
	if c.inFunction && !c.St.HasLocalVar(head, c.funcBase) {
		offset := c.St.MarkCaptured(id)
		disp := c.B.Emit1(ir.OpSymref, ir.Name(symDisplay))
		addr := c.B.Emit2(ir.OpAdd, ir.Reg(disp), ir.Lit(offset*c.Target.PointerAlign))
		loc = c.B.Emit2(ir.OpLoad, ir.Reg(addr), ir.Lit(c.Target.PointerSize))
	} else {
		v := c.St.Var(id)
		if !v.HasLoc() {
			diag.Invariant(c.Sink, p.Span, "variable %q resolved with no storage location", head)
		}
		loc = v.Loc
	}

	curType := c.St.Var(id).Type
	for _, field := range p.Components[1:] {
		entry := c.Reg.Entry(curType)
		if entry.Tag != types.RECORD {
			diag.Errorf(c.Sink, diag.BadFieldAccess, p.Span, "tried to access field %q of non-record type %s", field, entry.Tag)
			return Result{}, false
		}
		fieldType, offset, found := c.Reg.FieldOffset(curType, field)
		if !found {
			diag.Errorf(c.Sink, diag.BadFieldAccess, p.Span, "could not find field %q in record", field)
			return Result{}, false
		}
		loc = c.B.Emit2(ir.OpAdd, ir.Reg(loc), ir.Lit(offset))
		curType = fieldType
	}

	return Result{Type: curType, Insn: loc}, true
}

// analyzeExpr dispatches on e.Kind (spec.md §4.D).
func (c *Context) analyzeExpr(e *ast.Expr) (Result, bool) {
	switch e.Kind {
	case ast.ExprCall:
		return c.analyzeCall(e.Call)

	case ast.ExprPath:
		return c.typeOfPath(e.Path)

	case ast.ExprDeref:
		pathRes, ok := c.typeOfPath(e.Path)
		if !ok {
			return Result{}, false
		}
		entry := c.Reg.Entry(pathRes.Type)
		if entry.Tag != types.POINTER {
			diag.Errorf(c.Sink, diag.TypeMismatch, e.Span, "tried to dereference non-pointer")
			return Result{}, false
		}
		ld := c.B.Emit2(ir.OpLoad, c.reg(pathRes), ir.Lit(c.sizeOf(pathRes.Type)))
		return Result{Type: entry.Pointee, Insn: ld}, true

	case ast.ExprIndex:
		pathRes, ok := c.typeOfPath(e.Path)
		if !ok {
			return Result{}, false
		}
		entry := c.Reg.Entry(pathRes.Type)
		if entry.Tag != types.ARRAY {
			diag.Errorf(c.Sink, diag.TypeMismatch, e.Span, "tried to index non-array")
			return Result{}, false
		}
		idxRes, ok := c.analyzeExpr(e.Index)
		if !ok {
			return Result{}, false
		}
		if idxRes.Type != c.Reg.IntegerId {
			diag.Errorf(c.Sink, diag.TypeMismatch, e.Span, "tried to index array with non-integer")
			return Result{}, false
		}
		elemSize := c.sizeOf(entry.ElemType)
		mul := c.B.Emit2(ir.OpMul, c.reg(idxRes), ir.Lit(elemSize))
		add := c.B.Emit2(ir.OpAdd, c.reg(pathRes), ir.Reg(mul))
		return Result{Type: entry.ElemType, Insn: add}, true

	case ast.ExprLit:
		n, err := strconv.Atoi(e.Lit)
		if err != nil {
			diag.Errorf(c.Sink, diag.TypeMismatch, e.Span, "malformed integer literal %q", e.Lit)
			return Result{}, false
		}
		insn := c.B.Emit1(ir.OpLit, ir.Lit(n))
		return Result{Type: c.Reg.IntegerId, Insn: insn}, true

	case ast.ExprBinary:
		return c.analyzeBinary(e)

	case ast.ExprUnary:
		return c.analyzeUnary(e)

	case ast.ExprAddrOf:
		operand, ok := c.analyzeExpr(e.Operand)
		if !ok {
			return Result{}, false
		}
		ptrType := c.Reg.NewPointer(operand.Type)
		return Result{Type: ptrType, Insn: operand.Insn}, true

	default:
		diag.Invariant(c.Sink, e.Span, "unknown expression tag %q", e.Kind)
		return Result{}, false
	}
}

func (c *Context) analyzeBinary(e *ast.Expr) (Result, bool) {
	l, lok := c.analyzeExpr(e.Left)
	r, rok := c.analyzeExpr(e.Right)
	if !lok || !rok {
		return Result{}, false
	}
	if !c.Reg.TypesEq(l.Type, r.Type) {
		diag.Errorf(c.Sink, diag.TypeMismatch, e.Span, "incompatible types for binary operation %s", e.Op)
		return Result{}, false
	}

	resultType := l.Type
	if e.Op.IsRelational() {
		resultType = c.Reg.BooleanId
	}

	var op ir.Opcode
	switch e.Op {
	case ast.OpAnd:
		op = ir.OpAnd
	case ast.OpOr:
		op = ir.OpOr
	case ast.OpEq:
		op = ir.OpEq
	case ast.OpNe:
		op = ir.OpNe
	case ast.OpLt:
		op = ir.OpLt
	case ast.OpGt:
		op = ir.OpGt
	case ast.OpLe:
		op = ir.OpLe
	case ast.OpGe:
		op = ir.OpGe
	case ast.OpDiv:
		op = ir.OpDiv
	case ast.OpMod:
		op = ir.OpMod
	case ast.OpAdd:
		op = ir.OpAdd
	case ast.OpSub:
		op = ir.OpSub
	case ast.OpMul:
		op = ir.OpMul
	default:
		diag.Errorf(c.Sink, diag.TypeMismatch, e.Span, "unsupported binary operator %q", e.Op)
		return Result{}, false
	}

	insn := c.B.Emit2(op, c.reg(l), c.reg(r))
	return Result{Type: resultType, Insn: insn}, true
}

func (c *Context) analyzeUnary(e *ast.Expr) (Result, bool) {
	operand, ok := c.analyzeExpr(e.Operand)
	if !ok {
		return Result{}, false
	}
	switch e.UnOp {
	case ast.OpPos, ast.OpNeg:
		if operand.Type != c.Reg.IntegerId && operand.Type != c.Reg.RealId {
			diag.Errorf(c.Sink, diag.TypeMismatch, e.Span, "tried to apply unary +/- to a non-number")
			return Result{}, false
		}
	case ast.OpNot:
		if operand.Type != c.Reg.BooleanId {
			diag.Errorf(c.Sink, diag.TypeMismatch, e.Span, "tried to boolean-NOT a non-boolean")
			return Result{}, false
		}
		insn := c.B.Emit1(ir.OpNot, c.reg(operand))
		return Result{Type: operand.Type, Insn: insn}, true
	default:
		diag.Errorf(c.Sink, diag.TypeMismatch, e.Span, "unsupported unary operator %q", e.UnOp)
		return Result{}, false
	}
	// unary +/- is a no-op on the IR (the original only type-checks it and
	// forwards the operand's value/type unchanged)
	return operand, true
}

// isLvalueForm reports whether e lowers to an address rather than a value
// (spec.md Glossary "Lvalue-form expression"): path, index, or deref.
func isLvalueForm(e *ast.Expr) bool {
	switch e.Kind {
	case ast.ExprPath, ast.ExprIndex, ast.ExprDeref:
		return true
	default:
		return false
	}
}

// writeBuiltinName picks the `@write_<tname>@` magic name for ty
// (spec.md §4.D Call lowering, WRITE/WRITELN).
func writeBuiltinName(reg *types.Registry, ty types.TypeId) (string, bool) {
	switch ty {
	case reg.IntegerId:
		return fnWriteInteger, true
	case reg.RealId:
		return fnWriteReal, true
	case reg.StringId:
		return fnWriteString, true
	case reg.BooleanId:
		return fnWriteBool, true
	case reg.CharId:
		return fnWriteChar, true
	case reg.VoidId:
		return fnWriteVoid, true
	default:
		return "", false
	}
}

// readBuiltinName picks the `@read_<tname>@` magic name for ty.
func readBuiltinName(reg *types.Registry, ty types.TypeId) (string, bool) {
	switch ty {
	case reg.IntegerId:
		return fnReadInteger, true
	case reg.RealId:
		return fnReadReal, true
	case reg.StringId:
		return fnReadString, true
	case reg.BooleanId:
		return fnReadBool, true
	case reg.CharId:
		return fnReadChar, true
	case reg.VoidId:
		return fnReadVoid, true
	default:
		return "", false
	}
}

// analyzeMagic lowers a call to a built-in I/O routine (spec.md §4.D Call
// lowering, step 2).
func (c *Context) analyzeMagic(magic types.MagicKind, args []ast.Expr) bool {
	ok := true
	switch magic {
	case types.MagicWrite, types.MagicWriteln:
		for i := range args {
			r, argOk := c.analyzeExpr(&args[i])
			if !argOk {
				ok = false
				continue
			}
			name, known := writeBuiltinName(c.Reg, r.Type)
			if !known {
				diag.Errorf(c.Sink, diag.BadCall, args[i].Span, "argument of unprintable type passed to write/ln")
				ok = false
				continue
			}
			c.B.Emit2(ir.OpFCall, ir.Name(name), ir.Args(c.reg(r)))
		}
		if magic == types.MagicWriteln {
			c.B.Emit1(ir.OpFCall, ir.Name(fnWriteNewline))
		}
	case types.MagicRead, types.MagicReadln:
		for i := range args {
			if !isLvalueForm(&args[i]) {
				diag.Errorf(c.Sink, diag.NotAnLvalue, args[i].Span, "read/ln must be called with lvalues")
				ok = false
				continue
			}
			r, argOk := c.analyzeExpr(&args[i])
			if !argOk {
				ok = false
				continue
			}
			name, known := readBuiltinName(c.Reg, r.Type)
			if !known {
				diag.Errorf(c.Sink, diag.BadCall, args[i].Span, "argument of unreadable type passed to read/ln")
				ok = false
				continue
			}
			c.B.Emit2(ir.OpFCall, ir.Name(name), ir.Args(c.reg(r)))
		}
	default:
		diag.Invariant(c.Sink, nil, "bad magic kind %d", magic)
	}
	return ok
}

// analyzeCall lowers a call expression or procedure-call statement
// (spec.md §4.D Call lowering).
func (c *Context) analyzeCall(call *ast.CallExpr) (Result, bool) {
	fid, ok := c.St.ResolveFunc(call.Name)
	if !ok {
		diag.Errorf(c.Sink, diag.UnknownName, call.Span, "unknown function %q", call.Name)
		return Result{}, false
	}
	fv := c.St.Var(fid)
	entry := c.Reg.Entry(fv.Type)

	if entry.Magic != types.NoMagic {
		ok := c.analyzeMagic(entry.Magic, call.Args)
		return Result{Type: c.Reg.VoidId}, ok
	}

	if entry.Tag != types.FUNCTION {
		diag.Errorf(c.Sink, diag.BadCall, call.Span, "%q has a type which cannot be called", call.Name)
		return Result{}, false
	}

	if len(call.Args) != len(entry.Params) {
		diag.Errorf(c.Sink, diag.BadCall, call.Span,
			"%s arguments passed when calling %q: wanted %d, given %d",
			argCountWord(len(call.Args), len(entry.Params)), call.Name, len(entry.Params), len(call.Args))
		return Result{}, false
	}

	argOps := make([]ir.Operand, 0, len(call.Args))
	allOk := true
	for i := range call.Args {
		argRes, argOk := c.analyzeExpr(&call.Args[i])
		if !argOk {
			allOk = false
			continue
		}
		formalType := c.St.Var(symtab.VarId(entry.Params[i])).Type
		if !c.Reg.TypesEq(argRes.Type, formalType) {
			diag.Errorf(c.Sink, diag.TypeMismatch, call.Args[i].Span,
				"type of argument %d to %q doesn't match declaration", i+1, call.Name)
			allOk = false
			continue
		}
		argOps = append(argOps, c.reg(argRes))
	}
	if !allOk {
		return Result{}, false
	}

	insn := c.B.Emit2(ir.OpCall, ir.Name(call.Name), ir.Args(argOps...))
	return Result{Type: entry.RetType, Insn: insn}, true
}

func argCountWord(got, want int) string {
	if got < want {
		return "not enough"
	}
	return "too many"
}
