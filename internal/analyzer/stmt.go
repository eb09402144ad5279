package analyzer

import (
	"sentra-semant/internal/ast"
	"sentra-semant/internal/diag"
	"sentra-semant/internal/ir"
)

// rootPathOf finds the ast.Path at the root of an lvalue expression,
// descending through index/deref wrappers (spec.md §4.E
// check_assignability, which recurses the same way over EXPR_IDX/EXPR_DEREF).
func rootPathOf(e *ast.Expr) (*ast.Path, bool) {
	switch e.Kind {
	case ast.ExprPath, ast.ExprIndex, ast.ExprDeref:
		return e.Path, true
	default:
		return nil, false
	}
}

// checkAssignability applies spec.md §4.E's assignability rule: inside a
// function, the lvalue's root variable must be local (non-captured) or be
// the function's own name, in which case this assignment targets the
// return slot. Outside any function (the top-level program body) every
// assignment is allowed.
func (c *Context) checkAssignability(e *ast.Expr) bool {
	if !c.inFunction {
		return true
	}
	root, ok := rootPathOf(e)
	if !ok {
		diag.Errorf(c.Sink, diag.NotAnLvalue, e.Span, "left-hand side of assignment is not an lvalue")
		return false
	}
	name := root.Components[0]
	if !c.St.HasLocalVar(name, c.funcBase) {
		diag.Errorf(c.Sink, diag.NonLocalAssign, e.Span, "assigned to non-local %q from inside a function", name)
		return false
	}
	if name == c.funcName {
		c.Reg.Entry(c.funcType).RetAssigned = true
	}
	return true
}

// analyzeStmt dispatches on s.Kind (spec.md §4.E). A nil statement (an
// absent else-branch) is a no-op, matching analysis.c's `if (!s) return;`.
func (c *Context) analyzeStmt(s *ast.Stmt) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtAssign:
		c.analyzeAssign(s)
	case ast.StmtITE:
		c.analyzeITE(s)
	case ast.StmtWhile:
		c.analyzeWhile(s)
	case ast.StmtFor:
		c.analyzeFor(s)
	case ast.StmtCompound:
		for i := range s.Stmts {
			c.analyzeStmt(&s.Stmts[i])
		}
	case ast.StmtCall:
		c.analyzeCall(s.Call)
	default:
		diag.Invariant(c.Sink, s.Span, "unknown statement tag %q", s.Kind)
	}
}

func (c *Context) analyzeAssign(s *ast.Stmt) {
	lv, lok := c.analyzeExpr(s.Lvalue)
	assignable := c.checkAssignability(s.Lvalue)
	rv, rok := c.analyzeExpr(s.Rvalue)
	if !lok || !rok || !assignable {
		return
	}
	if !c.Reg.TypesEq(rv.Type, lv.Type) {
		diag.Errorf(c.Sink, diag.TypeMismatch, s.Span, "cannot assign incompatible type")
		return
	}
	c.B.Emit3(ir.OpStore, c.reg(lv), c.reg(rv), ir.Lit(c.sizeOf(rv.Type)))
}

// analyzeITE lowers spec.md §4.E "If/Then/Else":
//
//	BR c, .L0, .L1
//	.L0: then; BR true, .L2
//	.L1: else; BR true, .L2      (else-less: no .L1 block; the false target is .L2)
//	.L2: ...
func (c *Context) analyzeITE(s *ast.Stmt) {
	cond, ok := c.analyzeExpr(s.Cond)
	if ok && cond.Type != c.Reg.BooleanId {
		diag.Errorf(c.Sink, diag.TypeMismatch, s.Span, "type of if condition not boolean")
	}

	branch := c.B.Emit3(ir.OpBr, c.reg(cond), ir.Operand{}, ir.Operand{})

	thenBlock := c.B.NewBlock()
	c.B.SetBlock(thenBlock)
	c.analyzeStmt(s.Then)
	thenExit := c.B.Emit2(ir.OpBr, ir.True, ir.Operand{})

	if s.Else != nil {
		elseBlock := c.B.NewBlock()
		c.B.SetBlock(elseBlock)
		c.analyzeStmt(s.Else)
		elseExit := c.B.Emit2(ir.OpBr, ir.True, ir.Operand{})

		joinBlock := c.B.NewBlock()
		c.B.Func.PatchLabel(branch, 1, thenBlock)
		c.B.Func.PatchLabel(branch, 2, elseBlock)
		c.B.Func.PatchLabel(thenExit, 1, joinBlock)
		c.B.Func.PatchLabel(elseExit, 1, joinBlock)
		c.B.SetBlock(joinBlock)
		return
	}

	// No else branch: the false-target of the initial branch points
	// straight at the join block, with no separate (empty) else block in
	// between.
	joinBlock := c.B.NewBlock()
	c.B.Func.PatchLabel(branch, 1, thenBlock)
	c.B.Func.PatchLabel(branch, 2, joinBlock)
	c.B.Func.PatchLabel(thenExit, 1, joinBlock)
	c.B.SetBlock(joinBlock)
}

// analyzeWhile lowers spec.md §4.E "While":
//
//	.L0: %1 = c; BR %1, .L1, .L2
//	.L1: w; BR true, .L0
//	.L2: ...
func (c *Context) analyzeWhile(s *ast.Stmt) {
	head := c.B.NewBlock()
	c.B.SetBlock(head)

	cond, ok := c.analyzeExpr(s.Cond)
	if ok && cond.Type != c.Reg.BooleanId {
		diag.Errorf(c.Sink, diag.TypeMismatch, s.Span, "type of while condition not boolean")
	}
	branch := c.B.Emit3(ir.OpBr, c.reg(cond), ir.Operand{}, ir.Operand{})

	body := c.B.NewBlock()
	c.B.SetBlock(body)
	c.analyzeStmt(s.Body)
	c.B.Emit2(ir.OpBr, ir.True, ir.Label(head))

	exit := c.B.NewBlock()
	c.B.Func.PatchLabel(branch, 1, body)
	c.B.Func.PatchLabel(branch, 2, exit)

	c.B.SetBlock(exit)
}

// analyzeFor lowers spec.md §4.E "For":
//
//	%i = ALLOC 8
//	ST %i, s
//	BR true, L0
//	L0: %v = LD %i; %c = LT %v, e; BR %c, L1, L2
//	L1: <body>; %n = ADD %v, 1; ST %i, %n; BR true, L0
//	L2: ...
func (c *Context) analyzeFor(s *ast.Stmt) {
	start, sok := c.analyzeExpr(s.ForStart)
	end, eok := c.analyzeExpr(s.ForEnd)
	if sok && start.Type != c.Reg.IntegerId {
		diag.Errorf(c.Sink, diag.TypeMismatch, s.Span, "type of for-loop start not integer")
	}
	if eok && end.Type != c.Reg.IntegerId {
		diag.Errorf(c.Sink, diag.TypeMismatch, s.Span, "type of for-loop end not integer")
	}

	c.St.Enter()
	defer c.St.Leave()

	intSize := c.sizeOf(c.Reg.IntegerId)
	induction := c.B.Emit1(ir.OpAlloc, ir.Lit(intSize))
	inductionId, _ := c.St.AddVar(s.ForVar, c.Reg.IntegerId, s.Span, false)
	c.St.Var(inductionId).SetLoc(induction)
	c.B.Emit3(ir.OpStore, ir.Reg(induction), c.reg(start), ir.Lit(intSize))
	preBranch := c.B.Emit2(ir.OpBr, ir.True, ir.Operand{})

	head := c.B.NewBlock()
	c.B.SetBlock(head)
	loaded := c.B.Emit2(ir.OpLoad, ir.Reg(induction), ir.Lit(intSize))
	lt := c.B.Emit2(ir.OpLt, ir.Reg(loaded), c.reg(end))
	headBranch := c.B.Emit3(ir.OpBr, ir.Reg(lt), ir.Operand{}, ir.Operand{})

	body := c.B.NewBlock()
	c.B.SetBlock(body)
	c.analyzeStmt(s.Body)
	next := c.B.Emit2(ir.OpAdd, ir.Reg(loaded), ir.Lit(1))
	c.B.Emit3(ir.OpStore, ir.Reg(induction), ir.Reg(next), ir.Lit(intSize))
	c.B.Emit2(ir.OpBr, ir.True, ir.Label(head))

	exit := c.B.NewBlock()

	c.B.Func.PatchLabel(preBranch, 1, head)
	c.B.Func.PatchLabel(headBranch, 1, body)
	c.B.Func.PatchLabel(headBranch, 2, exit)

	c.B.SetBlock(exit)
}
