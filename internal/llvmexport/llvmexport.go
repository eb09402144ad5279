// Package llvmexport lowers a finished analyzer.ProgramResult's basic
// blocks and instructions into a real github.com/llir/llvm module, purely
// so it can be dumped as textual LLVM IR for inspection. It is a read-only
// consumer of the analysis output: nothing here feeds back into components
// A-G, and a caller who never imports this package never pays for
// github.com/llir/llvm at all.
package llvmexport

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	sentraIr "sentra-semant/internal/ir"
)

// exporter carries the per-module state while walking one
// *sentraIr.Function: the llir function under construction, a map from our
// InsnId to the llir value it produced, and a map from our BlockId to the
// llir block standing in for it.
type exporter struct {
	m      *ir.Module
	fn     *sentraIr.Function
	lfn    *ir.Func
	blocks map[sentraIr.BlockId]*ir.Block
	vals   map[sentraIr.InsnId]value.Value
}

// cell is the pointee type every ALLOC produces: this module never models
// source-level layout, only control flow and value plumbing, so a single
// opaque i64 stands in for "one addressable storage cell" regardless of
// the analyzer-side byte size recorded on the ALLOC instruction.
var cell = types.I64

// Module builds one LLVM module named name containing every function
// reachable from main (spec.md §4.F/.G's Function values), named by
// sentraIr.Function.Name. Functions are emitted in the order given; callers
// typically pass the program's main function plus every subprogram
// function handle collected while walking the symbol table.
func Module(name string, funcs []*sentraIr.Function) *ir.Module {
	m := ir.NewModule()
	m.SourceFilename = name

	// Declare the magic I/O routines as external functions so calls to
	// them lower to ordinary `call` instructions against a well-known
	// symbol, matching the FCALL(@write_integer@, ...) shape of spec.md §6.
	lfns := make(map[string]*ir.Func, len(funcs))
	declareMagics(m, lfns)

	for _, fn := range funcs {
		params := make([]*ir.Param, len(fn.Args))
		for i := range params {
			params[i] = ir.NewParam("", cell)
		}
		lfn := m.NewFunc(fn.Name, cell, params...)
		lfns[fn.Name] = lfn
	}

	for _, fn := range funcs {
		ex := &exporter{
			m:      m,
			fn:     fn,
			lfn:    lfns[fn.Name],
			blocks: map[sentraIr.BlockId]*ir.Block{},
			vals:   map[sentraIr.InsnId]value.Value{},
		}
		ex.run(lfns)
	}

	return m
}

func declareMagics(m *ir.Module, lfns map[string]*ir.Func) {
	names := []string{
		"@write_integer@", "@write_real@", "@write_string@",
		"@write_bool@", "@write_char@", "@write_void@", "@write_newline@",
		"@read_integer@", "@read_real@", "@read_string@",
		"@read_bool@", "@read_char@", "@read_void@",
	}
	for _, n := range names {
		f := m.NewFunc(n, cell, ir.NewParam("", cell))
		f.Linkage = enum.LinkageExternal
		lfns[n] = f
	}
}

func (ex *exporter) run(lfns map[string]*ir.Func) {
	for _, b := range ex.fn.Blocks {
		ex.blocks[b.Id] = ex.lfn.NewBlock(blockName(b.Id))
	}
	for _, b := range ex.fn.Blocks {
		lb := ex.blocks[b.Id]
		for _, iid := range b.Insns {
			ex.lowerInsn(lb, iid, lfns)
		}
	}
}

func blockName(id sentraIr.BlockId) string {
	return fmt.Sprintf("L%d", id)
}

func (ex *exporter) operand(lb *ir.Block, op sentraIr.Operand) value.Value {
	switch op.Kind {
	case sentraIr.OperandLit:
		return constant.NewInt(types.I64, int64(op.Lit))
	case sentraIr.OperandReg:
		if v, ok := ex.vals[op.Reg]; ok {
			return v
		}
		return constant.NewInt(types.I64, 0)
	default:
		return constant.NewInt(types.I64, 0)
	}
}

func (ex *exporter) lowerInsn(lb *ir.Block, id sentraIr.InsnId, lfns map[string]*ir.Func) {
	insn := ex.fn.Insn(id)
	switch insn.Op {
	case sentraIr.OpLit:
		ex.vals[id] = constant.NewInt(types.I64, int64(insn.A.Lit))

	case sentraIr.OpAlloc:
		ex.vals[id] = lb.NewAlloca(cell)

	case sentraIr.OpLoad:
		ex.vals[id] = lb.NewLoad(cell, ex.operand(lb, insn.A))

	case sentraIr.OpStore:
		lb.NewStore(ex.operand(lb, insn.B), ex.operand(lb, insn.A))
		ex.vals[id] = constant.NewInt(types.I64, 0)

	case sentraIr.OpAdd:
		ex.vals[id] = lb.NewAdd(ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpSub:
		ex.vals[id] = lb.NewSub(ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpMul:
		ex.vals[id] = lb.NewMul(ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpDiv:
		ex.vals[id] = lb.NewSDiv(ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpMod:
		ex.vals[id] = lb.NewSRem(ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpAnd:
		ex.vals[id] = lb.NewAnd(ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpOr:
		ex.vals[id] = lb.NewOr(ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpNot:
		ex.vals[id] = lb.NewXor(ex.operand(lb, insn.A), constant.NewInt(types.I64, 1))

	case sentraIr.OpEq:
		ex.vals[id] = lb.NewICmp(enum.IPredEQ, ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpNe:
		ex.vals[id] = lb.NewICmp(enum.IPredNE, ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpLt:
		ex.vals[id] = lb.NewICmp(enum.IPredSLT, ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpGt:
		ex.vals[id] = lb.NewICmp(enum.IPredSGT, ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpLe:
		ex.vals[id] = lb.NewICmp(enum.IPredSLE, ex.operand(lb, insn.A), ex.operand(lb, insn.B))
	case sentraIr.OpGe:
		ex.vals[id] = lb.NewICmp(enum.IPredSGE, ex.operand(lb, insn.A), ex.operand(lb, insn.B))

	case sentraIr.OpSymref:
		// No global display pointer exists in this textual export; a null
		// i64 placeholder keeps the instruction stream well-formed.
		ex.vals[id] = constant.NewInt(types.I64, 0)

	case sentraIr.OpBr:
		if insn.A.Kind == sentraIr.OperandLit && insn.A.Lit == 1 {
			lb.NewBr(ex.blocks[insn.B.Label])
		} else {
			lb.NewCondBr(ex.operand(lb, insn.A), ex.blocks[insn.B.Label], ex.blocks[insn.C.Label])
		}

	case sentraIr.OpCall, sentraIr.OpFCall:
		callee, ok := lfns[insn.A.Name]
		var args []value.Value
		for _, a := range insn.B.Args {
			args = append(args, ex.operand(lb, a))
		}
		if ok {
			ex.vals[id] = lb.NewCall(callee, args...)
		} else {
			ex.vals[id] = constant.NewInt(types.I64, 0)
		}

	case sentraIr.OpRet:
		if insn.A.Kind == sentraIr.OperandNone {
			lb.NewRet(constant.NewInt(types.I64, 0))
		} else {
			lb.NewRet(ex.operand(lb, insn.A))
		}

	default:
		ex.vals[id] = constant.NewInt(types.I64, 0)
	}
}
