// Package ir implements the IR builder (spec.md §4.C) and the instruction,
// basic-block and function data model (spec.md §3). Every reference that
// the original C expressed as a pointer (an instruction referencing an
// earlier instruction as an operand, a branch referencing a successor
// block) is an InsnId/BlockId — a plain index into the owning Function's
// arenas — per the Design Notes' arena+index re-architecture.
package ir

import "fmt"

// InsnId indexes into Function.insns. Every instruction lives in exactly
// one basic block, but ids are unique within a Function, not within a
// block, so an operand can reference an instruction in any block already
// emitted (forward references go through OperandLabel, not InsnId).
type InsnId int

// BlockId indexes into Function.Blocks.
type BlockId int

// OperandKind discriminates the operand sum type of spec.md §3.
type OperandKind int

const (
	OperandNone  OperandKind = iota
	OperandLit               // an integer literal
	OperandReg               // a register: the result of a prior instruction
	OperandLabel             // a basic-block handle (branch target)
	OperandName              // a symbol name (for SYMREF/CALL/FCALL callee)
	OperandArgs              // an argument vector (for CALL/FCALL)
)

// Operand is one operand of an Instruction. Exactly the field matching
// Kind is meaningful, mirroring the C `union operand` the Design Notes
// call for replacing with a tagged variant.
type Operand struct {
	Kind  OperandKind
	Lit   int
	Reg   InsnId
	Label BlockId
	Name  string
	Args  []Operand
}

// Lit builds an OperandLit.
func Lit(v int) Operand { return Operand{Kind: OperandLit, Lit: v} }

// Reg builds an OperandReg referencing a prior instruction's result.
func Reg(id InsnId) Operand { return Operand{Kind: OperandReg, Reg: id} }

// Label builds an OperandLabel referencing a basic block.
func Label(id BlockId) Operand { return Operand{Kind: OperandLabel, Label: id} }

// Name builds an OperandName.
func Name(n string) Operand { return Operand{Kind: OperandName, Name: n} }

// Args builds an OperandArgs vector.
func Args(ops ...Operand) Operand { return Operand{Kind: OperandArgs, Args: ops} }

// True is the literal-true operand the analyzer uses for unconditional
// branches (`BR true, t`), matching the original's INSN_TRUE sentinel.
var True = Lit(1)

// Instruction is one three-address IR instruction with up to three
// operands. Its own InsnId is how later instructions reference its result
// (SSA-like: one instruction, one result).
type Instruction struct {
	Id   InsnId
	Op   Opcode
	A, B, C Operand
}

// BasicBlock owns an ordered instruction list. Control exits via a tail BR
// or RET, enforced by the statement analyzer, not by this package.
type BasicBlock struct {
	Id    BlockId
	Insns []InsnId
}

// Function owns an ordered list of basic blocks with one entry block. It
// is itself referenced by symtab as a Variable's compiled-function handle.
type Function struct {
	Name      string
	NestDepth int
	Args      []int // VarId of each formal parameter, in declaration order
	Blocks    []*BasicBlock
	Entry     BlockId

	insns []*Instruction // the Function's instruction arena; InsnId indexes here
}

// NewFunction allocates a Function with a single empty entry block.
func NewFunction(name string, nestDepth int) *Function {
	f := &Function{Name: name, NestDepth: nestDepth}
	entry := f.newBlockLocked()
	f.Entry = entry.Id
	return f
}

func (f *Function) newBlockLocked() *BasicBlock {
	b := &BasicBlock{Id: BlockId(len(f.Blocks))}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Insn returns the instruction for id.
func (f *Function) Insn(id InsnId) *Instruction {
	return f.insns[id]
}

// Block returns the basic block for id.
func (f *Function) Block(id BlockId) *BasicBlock {
	return f.Blocks[id]
}

// Builder maintains the "current basic block" and emits into it
// (spec.md §4.C). A Builder is scoped to a single Function at a time;
// the subprogram analyzer installs a fresh Builder when entering a nested
// subprogram and restores the saved one when leaving it, per the "scoped
// acquisition" Design Note.
type Builder struct {
	Func    *Function
	Current BlockId
}

// NewBuilder returns a Builder positioned at fn's entry block.
func NewBuilder(fn *Function) *Builder {
	return &Builder{Func: fn, Current: fn.Entry}
}

// NewBlock creates and registers a fresh block in the current function's
// block list without making it current (spec.md §4.C new_block).
func (b *Builder) NewBlock() BlockId {
	blk := b.Func.newBlockLocked()
	return blk.Id
}

// SetBlock redirects subsequent Emit calls to block id.
func (b *Builder) SetBlock(id BlockId) {
	b.Current = id
}

// Emit appends a new instruction to the current block and returns its id,
// usable as an OperandReg in later instructions (spec.md §4.C emit).
func (b *Builder) Emit(op Opcode, a, b2, c Operand) InsnId {
	id := InsnId(len(b.Func.insns))
	insn := &Instruction{Id: id, Op: op, A: a, B: b2, C: c}
	b.Func.insns = append(b.Func.insns, insn)
	blk := b.Func.Block(b.Current)
	blk.Insns = append(blk.Insns, id)
	return id
}

// Emit1 emits a one-operand instruction.
func (b *Builder) Emit1(op Opcode, a Operand) InsnId {
	return b.Emit(op, a, Operand{}, Operand{})
}

// Emit2 emits a two-operand instruction.
func (b *Builder) Emit2(op Opcode, a, b2 Operand) InsnId {
	return b.Emit(op, a, b2, Operand{})
}

// Emit3 emits a three-operand instruction.
func (b *Builder) Emit3(op Opcode, a, b2, c Operand) InsnId {
	return b.Emit(op, a, b2, c)
}

// PatchLabel rewrites operand slot (0=A, 1=B, 2=C) of insn id to a label
// operand, used to back-patch forward branch targets once the successor
// block exists (spec.md §3 "Branch instructions ... are emitted with
// placeholder successor operands that are patched").
func (f *Function) PatchLabel(id InsnId, slot int, target BlockId) {
	insn := f.Insn(id)
	op := Label(target)
	switch slot {
	case 0:
		insn.A = op
	case 1:
		insn.B = op
	case 2:
		insn.C = op
	default:
		panic(fmt.Sprintf("internal invariant violated: bad patch slot %d", slot))
	}
}

// Reachable returns the set of blocks reachable from fn.Entry by following
// the label operands of BR instructions; a block missing from the set is
// unreachable (testable property 3 of spec.md §8 / invariant 3 of
// spec.md §3).
func (f *Function) Reachable() map[BlockId]bool {
	seen := map[BlockId]bool{f.Entry: true}
	work := []BlockId{f.Entry}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		blk := f.Block(id)
		for _, iid := range blk.Insns {
			insn := f.Insn(iid)
			if insn.Op != OpBr {
				continue
			}
			for _, op := range []Operand{insn.B, insn.C} {
				if op.Kind == OperandLabel && !seen[op.Label] {
					seen[op.Label] = true
					work = append(work, op.Label)
				}
			}
		}
	}
	return seen
}
