package ir

import "testing"

func TestNewFunctionHasEmptyEntryBlock(t *testing.T) {
	fn := NewFunction("main", 1)
	if len(fn.Blocks) != 1 {
		t.Fatalf("NewFunction produced %d blocks, want 1", len(fn.Blocks))
	}
	if fn.Entry != fn.Blocks[0].Id {
		t.Errorf("Entry = %d, want the sole block's id %d", fn.Entry, fn.Blocks[0].Id)
	}
}

func TestEmitAppendsToCurrentBlock(t *testing.T) {
	fn := NewFunction("f", 1)
	b := NewBuilder(fn)
	id := b.Emit1(OpLit, Lit(42))
	blk := fn.Block(b.Current)
	if len(blk.Insns) != 1 || blk.Insns[0] != id {
		t.Fatalf("current block's Insns = %v, want [%d]", blk.Insns, id)
	}
	if fn.Insn(id).Op != OpLit || fn.Insn(id).A.Lit != 42 {
		t.Errorf("Insn(%d) = %+v, want OpLit with A.Lit=42", id, fn.Insn(id))
	}
}

func TestSetBlockRedirectsEmit(t *testing.T) {
	fn := NewFunction("f", 1)
	b := NewBuilder(fn)
	other := b.NewBlock()
	b.SetBlock(other)
	id := b.Emit1(OpLit, Lit(1))
	if len(fn.Block(fn.Entry).Insns) != 0 {
		t.Error("emit after SetBlock still landed in the entry block")
	}
	if fn.Block(other).Insns[0] != id {
		t.Error("emit after SetBlock did not land in the redirected block")
	}
}

func TestPatchLabel(t *testing.T) {
	fn := NewFunction("f", 1)
	b := NewBuilder(fn)
	branch := b.Emit3(OpBr, Operand{}, Operand{}, Operand{})
	target := b.NewBlock()
	fn.PatchLabel(branch, 1, target)
	insn := fn.Insn(branch)
	if insn.B.Kind != OperandLabel || insn.B.Label != target {
		t.Errorf("PatchLabel slot 1 = %+v, want OperandLabel(%d)", insn.B, target)
	}
}

func TestPatchLabelBadSlotPanics(t *testing.T) {
	fn := NewFunction("f", 1)
	b := NewBuilder(fn)
	branch := b.Emit1(OpLit, Lit(1))
	defer func() {
		if recover() == nil {
			t.Fatal("PatchLabel with an out-of-range slot did not panic")
		}
	}()
	fn.PatchLabel(branch, 3, fn.Entry)
}

// TestReachableThroughPatchedBranches grounds spec.md §8 testable property 3 / S4: a join block
// reached only through a patched BR must still count as reachable.
func TestReachableThroughPatchedBranches(t *testing.T) {
	fn := NewFunction("f", 1)
	b := NewBuilder(fn)

	branch := b.Emit3(OpBr, Lit(1), Operand{}, Operand{})
	thenBlk := b.NewBlock()
	b.SetBlock(thenBlk)
	thenExit := b.Emit2(OpBr, True, Operand{})

	joinBlk := b.NewBlock()
	fn.PatchLabel(branch, 1, thenBlk)
	fn.PatchLabel(branch, 2, joinBlk)
	fn.PatchLabel(thenExit, 1, joinBlk)

	reachable := fn.Reachable()
	for _, want := range []BlockId{fn.Entry, thenBlk, joinBlk} {
		if !reachable[want] {
			t.Errorf("block %d not reported reachable", want)
		}
	}
}

func TestReachableMissesUnpatchedBlock(t *testing.T) {
	fn := NewFunction("f", 1)
	b := NewBuilder(fn)
	orphan := b.NewBlock()
	reachable := fn.Reachable()
	if reachable[orphan] {
		t.Error("an orphan block with no incoming branch was reported reachable")
	}
}

func TestOpcodeString(t *testing.T) {
	if OpAdd.String() != "ADD" {
		t.Errorf("OpAdd.String() = %q, want ADD", OpAdd.String())
	}
	if Opcode(999).String() != "OP(?)" {
		t.Errorf("unknown opcode String() = %q, want OP(?)", Opcode(999).String())
	}
}
