package decode

import "testing"

func TestOpcode(t *testing.T) {
	// lwz r3, 0(r4): primary opcode 32
	word := uint32(32)<<26 | 3<<21 | 4<<16
	if op := Opcode(word); op != PrimLwz {
		t.Fatalf("Opcode() = %d, want %d", op, PrimLwz)
	}
}

func TestDField(t *testing.T) {
	// addi r3, r4, -8
	word := uint32(PrimAddi)<<26 | 3<<21 | 4<<16 | 0xFFF8 // -8 as a 16 bit field
	d := Decode(word)
	if d.RT != 3 || d.RA != 4 {
		t.Fatalf("RT/RA = %d/%d, want 3/4", d.RT, d.RA)
	}
	if d.D != -8 {
		t.Fatalf("D = %d, want -8", d.D)
	}
}

func TestVX128Macros(t *testing.T) {
	// vaddfp128 is documented as VX128(5, 16); confirm OP()'s packing.
	got := VX128(5, 16)
	want := OP(5) | (16 & 0x3D0)
	if got != want {
		t.Fatalf("VX128(5,16) = %#x, want %#x", got, want)
	}
}

func TestVX128RegisterReassembly(t *testing.T) {
	// VD128 = VD128l | (VD128h << 5): set low field to 5, high bit set.
	word := uint32(5) << 21 // RT/VD128l field
	word |= 1               // VD128h is bit 0 in this layout
	d := Decode(word)
	if d.VD128 != (5 | (1 << 5)) {
		t.Fatalf("VD128 = %d, want %d", d.VD128, 5|(1<<5))
	}
}

func TestBranchFields(t *testing.T) {
	// b target (AA=0, LK=0): LI is bits 2..25, shifted left by 2.
	word := uint32(PrimB)<<26 | (0x100 << 2)
	d := Decode(word)
	if d.LI != 0x100<<2 {
		t.Fatalf("LI = %#x, want %#x", d.LI, 0x100<<2)
	}
}
