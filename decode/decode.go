/*
   Decode: PowerPC instruction field extraction.

   Copyright (c) 2024, the ppcjit authors.
*/

// Package decode turns a 32 bit big-endian PowerPC instruction word into an
// InstrData exposing every bitfield view a frontend emitter might need,
// without committing to which form is "the" form for a given opcode — the
// caller picks the view matching the family it already dispatched on.
package decode

// Field extraction helpers operate directly on the raw 32 bit word, the
// same layout the opcodemap tables in an IBM-mainframe decoder use for RR/RX
// forms: shift-and-mask, no per-form struct copies.

func bits(word uint32, hi, lo uint) uint32 {
	n := hi - lo + 1
	mask := uint32(1)<<n - 1
	return (word >> lo) & mask
}

// signExtend sign-extends the low n bits of v.
func signExtend(v uint32, n uint) int32 {
	shift := 32 - n
	return int32(v<<shift) >> shift
}

// Opcode returns the primary 6 bit opcode (bits 0-5, PPC big-endian bit
// numbering where bit 0 is the MSB).
func Opcode(word uint32) uint32 { return bits(word, 31, 26) }

// OP reproduces the spec's OP(x) macro: pack a primary opcode into its bit
// position for building a compound VX128 dispatch mask.
func OP(x uint32) uint32 { return (x & 0x3F) << 26 }

// VX128 family compound masks: the Xbox 360 VMX128 extension steals bits
// from the XO field to select among five separate sub-families plus a
// permute-control family, layered on top of the base primary opcode.
func VX128(op, xop uint32) uint32   { return OP(op) | (xop & 0x3D0) }
func VX128_1(op, xop uint32) uint32 { return OP(op) | (xop & 0x7F3) }
func VX128_2(op, xop uint32) uint32 { return OP(op) | (xop & 0x210) }
func VX128_3(op, xop uint32) uint32 { return OP(op) | (xop & 0x7F0) }
func VX128_4(op, xop uint32) uint32 { return OP(op) | (xop & 0x730) }
func VX128_5(op, xop uint32) uint32 { return OP(op) | (xop & 0x010) }
func VX128_P(op, xop uint32) uint32 { return OP(op) | (xop & 0x630) }

// Sub-family masks, exported so callers can rebuild a full word mask
// (0x3F<<26 | subMask) to test a decoded word against a compound value.
const (
	VX128Mask   = 0x3D0
	VX128_1Mask = 0x7F3
	VX128_2Mask = 0x210
	VX128_3Mask = 0x7F0
	VX128_4Mask = 0x730
	VX128_5Mask = 0x010
	VX128_PMask = 0x630
)

const primaryMask = 0x3F << 26

// MatchVX128 reports whether word belongs to the compound dispatch value
// produced by one of the VX128 family macros with the given sub-family
// mask, e.g. MatchVX128(word, VX128Vaddfp128, VX128Mask).
func MatchVX128(word, compound, subMask uint32) bool {
	return word&(primaryMask|subMask) == compound
}

// InstrData is a decoded PowerPC instruction: the raw word plus every
// field view a frontend emitter could want. Fields that don't apply to the
// decoded form simply hold whatever the bit pattern happens to produce;
// callers only read the fields their chosen form defines.
type InstrData struct {
	Word uint32

	// D form: opcode rD,rA,d
	D int32

	// X/XO/XL common fields
	RT, RA, RB, RC uint32
	RS             uint32 // alias of RT on store forms
	XO             uint32 // bits 21-30; on XO forms bit 21 is OE, so an OE=1 word reads as XO+512
	OE             uint32
	Rc             uint32

	// B form
	BO, BI uint32
	BD     int32
	AA, LK uint32

	// I form
	LI uint32

	// M/MD/MDS forms (rotate/mask)
	SH, MB, ME uint32

	// VX / VXA / VXR forms (AltiVec)
	VD, VA, VB, VC uint32
	VXO            uint32 // bits 21-31 (VX form secondary opcode)
	VXAOP          uint32 // bits 26-31 (VA form secondary opcode)
	VSH            uint32 // vsldoi/vsro shift count

	// VX128 reassembled 128 bit vector register numbers
	VD128, VA128, VB128 uint32
	VX128OP             uint32 // compound dispatch value from VX128 macros
}

// Decode extracts every field view in one pass. It never fails: unknown
// bit patterns simply produce an InstrData whose Opcode/VX128OP the caller
// fails to recognize, which the frontend turns into an INVALID emission.
func Decode(word uint32) InstrData {
	d := InstrData{Word: word}

	d.RT = bits(word, 25, 21)
	d.RS = d.RT
	d.RA = bits(word, 20, 16)
	d.RB = bits(word, 15, 11)
	d.RC = bits(word, 10, 6)
	d.D = signExtend(bits(word, 15, 0), 16)
	// PPC bits 21-30 (OE at PPC bit 21, the field's top bit) map to Go
	// bits 10-1, the same low-order conversion BD/MB/ME already use.
	d.XO = bits(word, 10, 1)
	d.OE = bits(word, 10, 10)
	d.Rc = bits(word, 0, 0)

	d.BO = bits(word, 25, 21)
	d.BI = bits(word, 20, 16)
	d.BD = signExtend(bits(word, 15, 2)<<2, 16)
	d.AA = bits(word, 1, 1)
	d.LK = bits(word, 0, 0)

	d.LI = bits(word, 25, 2) << 2

	d.SH = bits(word, 15, 11)
	d.MB = bits(word, 10, 6)
	d.ME = bits(word, 5, 1)

	d.VD = bits(word, 25, 21)
	d.VA = bits(word, 20, 16)
	d.VB = bits(word, 15, 11)
	d.VC = bits(word, 10, 6)
	d.VXO = bits(word, 10, 0)
	d.VXAOP = bits(word, 5, 0)
	d.VSH = bits(word, 9, 6)

	// VX128 register fields are split across the low opcode bits: each of
	// VD128/VA128/VB128 packs a 5 bit base field plus a high bit stolen
	// from elsewhere in the word, per the Xbox 360 VMX128 field layout.
	vd128l := bits(word, 25, 21)
	vd128h := bits(word, 0, 0)
	d.VD128 = vd128l | (vd128h << 5)

	va128l := bits(word, 20, 16)
	va128h := bits(word, 2, 2)
	d.VA128 = va128l | (va128h << 5)

	vb128l := bits(word, 15, 11)
	vb128h := bits(word, 1, 1)
	d.VB128 = vb128l | (vb128h << 5)

	d.VX128OP = bits(word, 10, 1)

	return d
}
