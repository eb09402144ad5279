package llvmexport

import (
	"testing"

	sentraIr "sentra-semant/internal/ir"
)

// TestModuleNamesAndDeclaresMagics grounds Module's own comment that it
// declares "the magic I/O routines as external functions" regardless
// of whether any analyzed function actually calls one.
func TestModuleNamesAndDeclaresMagics(t *testing.T) {
	fn := sentraIr.NewFunction("main", 1)
	m := Module("prog.sentra", []*sentraIr.Function{fn})

	if m.SourceFilename != "prog.sentra" {
		t.Errorf("SourceFilename = %q, want %q", m.SourceFilename, "prog.sentra")
	}

	// 13 magic I/O routines plus the one analyzed function.
	if len(m.Funcs) != 14 {
		t.Fatalf("got %d functions in the module, want 14 (13 magics + main)", len(m.Funcs))
	}

	var sawMain, sawWriteInteger bool
	for _, f := range m.Funcs {
		switch f.Name() {
		case "main":
			sawMain = true
		case "@write_integer@":
			sawWriteInteger = true
		}
	}
	if !sawMain {
		t.Error("module has no function named main")
	}
	if !sawWriteInteger {
		t.Error("module has no declared @write_integer@ magic")
	}
}

// TestModuleLowersEntryBlockInstructions grounds the opcode-to-LLVM lowering
// table: an ALLOC, LIT, STORE, RET sequence must produce the same
// number of basic blocks as the source sentraIr.Function.
func TestModuleLowersEntryBlockInstructions(t *testing.T) {
	fn := sentraIr.NewFunction("f", 1)
	b := sentraIr.NewBuilder(fn)
	cell := b.Emit1(sentraIr.OpAlloc, sentraIr.Lit(8))
	lit := b.Emit1(sentraIr.OpLit, sentraIr.Lit(42))
	b.Emit3(sentraIr.OpStore, sentraIr.Reg(cell), sentraIr.Reg(lit), sentraIr.Lit(8))
	b.Emit1(sentraIr.OpRet, sentraIr.Operand{})

	m := Module("f.sentra", []*sentraIr.Function{fn})

	for _, f := range m.Funcs {
		if f.Name() == "f" {
			if len(f.Blocks) != 1 {
				t.Errorf("lowered function f has %d blocks, want 1", len(f.Blocks))
			}
			return
		}
	}
	t.Fatal("module has no function named f")
}
