// Package target describes the ABI constants the analyzer is built against.
// The analyzer never hard-codes these; every size/alignment computation
// goes through an injected *Descriptor so retargeting never means editing
// internal/types.
package target

// Descriptor carries the ABI constants consumed (not defined) by the
// semantic-analysis core: pointer geometry and the fixed widths of the
// scalar types enumerated in spec.md §3.
type Descriptor struct {
	PointerSize  int
	PointerAlign int

	IntegerSize int
	RealSize    int
	BooleanSize int
	CharSize    int
	VoidSize    int
	RecordSize  int // placeholder size for TYPE_RECORD (layout is explicit)
}

// Reference is the reference configuration named in spec.md §6: 8-byte
// pointers, matching a typical 64-bit target.
func Reference() *Descriptor {
	return &Descriptor{
		PointerSize:  8,
		PointerAlign: 8,
		IntegerSize:  8,
		RealSize:     8,
		BooleanSize:  1,
		CharSize:     1,
		VoidSize:     1,
		RecordSize:   64,
	}
}
