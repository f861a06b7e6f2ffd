/*
   ppcasm: bitfield packing.

   Copyright (c) 2024, the ppcjit authors.

   The inverse of decode.go's bits()/Decode(): each packer below places a
   value at the exact word position Decode later reads it back from, so a
   round trip through Assemble then decode.Decode reproduces the operands
   unchanged.
*/

package ppcasm

func field(hi, lo uint, v uint32) uint32 {
	n := hi - lo + 1
	mask := uint32(1)<<n - 1
	return (v & mask) << lo
}

func primaryOp(op uint32) uint32 { return field(31, 26, op) }

// dForm packs the common rT/rA/16 bit immediate layout shared by addi,
// ori, loads and stores.
func dForm(op, rt, ra uint32, imm int32) uint32 {
	return primaryOp(op) | field(25, 21, rt) | field(20, 16, ra) | field(15, 0, uint32(imm))
}

// xForm packs the rT/rA/rB/extended-opcode/Rc layout Decode reads as
// RT/RA/RB/XO/Rc for Family 31 instructions with no OE bit set.
func xForm(op, rt, ra, rb, xo uint32, rc bool) uint32 {
	w := primaryOp(op) | field(25, 21, rt) | field(20, 16, ra) | field(15, 11, rb) | field(10, 1, xo)
	if rc {
		w |= field(0, 0, 1)
	}
	return w
}

// xoForm is xForm plus an explicit OE bit, the field's top bit per
// decode.go's comment that OE and a bare XO number share the same bit
// position.
func xoForm(op, rt, ra, rb, xo uint32, oe, rc bool) uint32 {
	w := xForm(op, rt, ra, rb, xo, rc)
	if oe {
		w |= field(10, 10, 1)
	}
	return w
}

// xlForm packs the crD/crA-or-BI/crB-or-BO layout used by both CR logical
// ops and the BCLR/BCCTR branch-to-register forms.
func xlForm(op, d, a, b, xo uint32, lk bool) uint32 {
	w := primaryOp(op) | field(25, 21, d) | field(20, 16, a) | field(15, 11, b) | field(10, 1, xo)
	if lk {
		w |= field(0, 0, 1)
	}
	return w
}

// iForm packs the 24 bit LI field 'b'/'bl'/'ba'/'bla' use. target must
// already be the byte displacement (or absolute address for aa); the low
// 2 bits are always zero, matching decode.go's own `bits(word,25,2)<<2`
// reconstruction.
func iForm(li uint32, aa, lk bool) uint32 {
	w := primaryOp(18) | field(25, 2, li>>2)
	if aa {
		w |= field(1, 1, 1)
	}
	if lk {
		w |= field(0, 0, 1)
	}
	return w
}

// bForm packs 'bc's BO/BI/14 bit displacement fields.
func bForm(bo, bi, bd uint32, aa, lk bool) uint32 {
	w := primaryOp(16) | field(25, 21, bo) | field(20, 16, bi) | field(15, 2, bd>>2)
	if aa {
		w |= field(1, 1, 1)
	}
	if lk {
		w |= field(0, 0, 1)
	}
	return w
}

// vxForm packs the VD/VA/VB/11 bit secondary opcode layout base AltiVec
// arithmetic and load/store-by-index instructions share.
func vxForm(vd, va, vb, vxo uint32) uint32 {
	return primaryOp(4) | field(25, 21, vd) | field(20, 16, va) | field(15, 11, vb) | field(10, 0, vxo)
}

// vxaForm packs the VD/VA/VB/VC/6 bit secondary opcode layout the
// multiply-add family (vperm/vmaddfp/vnmsubfp/vsel) uses.
func vxaForm(vd, va, vb, vc, op uint32) uint32 {
	return primaryOp(4) | field(25, 21, vd) | field(20, 16, va) | field(15, 11, vb) | field(10, 6, vc) | field(5, 0, op)
}

// vxrForm packs the VD/VA/VB/Rc/10 bit compare-opcode layout VXR form
// instructions (vcmpeqfp and friends) use; the predicate opcode shares
// decode's general XO field position (bits 10-1).
func vxrForm(vd, va, vb, op uint32, rc bool) uint32 {
	w := primaryOp(4) | field(25, 21, vd) | field(20, 16, va) | field(15, 11, vb) | field(10, 1, op)
	if rc {
		w |= field(0, 0, 1)
	}
	return w
}

// vx128VD/vx128VA/vx128VB pack a 128 bit vector register number split across a 5 bit
// base field plus one high bit stolen from elsewhere in the word, the
// same layout decode.go's Decode reconstructs VD128/VA128/VB128 from.
func vx128VD(v uint32) uint32 { return field(25, 21, v&0x1F) | field(0, 0, (v>>5)&1) }
func vx128VA(v uint32) uint32 { return field(20, 16, v&0x1F) | field(2, 2, (v>>5)&1) }
func vx128VB(v uint32) uint32 { return field(15, 11, v&0x1F) | field(1, 1, (v>>5)&1) }
