/*
   Interp: vector lane operations (EXTRACT/SPLAT/PERMUTE/SWIZZLE/vector
   compares/converts/MAX/MIN).

   Copyright (c) 2024, the ppcjit authors.

   Grounded on frontend/altivec.go's emitter call sites: every current
   PERMUTE call site (vperm, the VMX128 general permute, and the
   vrlimi128 lane-merge) passes elem=TypeI8, so this implements the
   classic AltiVec vperm byte semantics rather than a generic per-element
   permute. EXTRACT/SPLAT are read with elem=TypeF32 by vspltw128-style
   ops and elem=TypeI32 by the integer splats; both are plain 32 bit lane
   views over the same 128 bits, so one code path serves both.

   LOAD_VECTOR_SHL/SHR have no current frontend call site (lvsl/lvsr
   decode isn't wired up yet), but get real lvsl/lvsr permute-table
   semantics rather than a stub since their behavior is fully determined
   by the PowerPC ISA's own definition of those two instructions.
*/

package interp

import (
	"math"

	"github.com/rcornwell/ppcjit/hir"
)

func (fr *frame) stepVector(instr *hir.Instr) bool {
	switch instr.Op {
	case hir.OpExtract:
		fr.opExtract(instr)
	case hir.OpSplat:
		fr.opSplat(instr)
	case hir.OpPermute:
		fr.opPermute(instr)
	case hir.OpSwizzle:
		fr.opSwizzle(instr)
	case hir.OpVectorCompareEQ, hir.OpVectorCompareSGT, hir.OpVectorCompareSGE,
		hir.OpVectorCompareUGT, hir.OpVectorCompareUGE:
		fr.opVectorCompare(instr)
	case hir.OpVectorCompareBounds:
		fr.opVectorCompareBounds(instr)
	case hir.OpMax:
		fr.opMax(instr)
	case hir.OpMin:
		fr.opMin(instr)
	case hir.OpLoadVectorShl:
		fr.opLoadVectorShift(instr, true)
	case hir.OpLoadVectorShr:
		fr.opLoadVectorShift(instr, false)
	default:
		return false
	}
	return true
}

// lane32 reads 32 bit lane i (0..3, lane 0 = most significant per the
// PowerPC big-endian vector convention the frontend already follows for
// VR storage) out of c.
func lane32(c hir.Const128, i int) uint32 { return c.I32(3 - i) }

func setLane32(c *hir.Const128, i int, v uint32) { c.SetI32(3-i, v) }

func (fr *frame) opExtract(instr *hir.Instr) {
	vec := fr.readValue(instr.Src1.Value)
	idx := int(fr.readValue(instr.Src2.Value).Lo & 3)
	elem := instr.Dest.Type()
	if elem.IsFloat() {
		fr.writeValue(instr.Dest, hir.ConstFromF64(float64(math.Float32frombits(lane32(vec, idx)))))
		return
	}
	fr.writeValue(instr.Dest, hir.ConstFromU64(uint64(lane32(vec, idx))))
}

func (fr *frame) opSplat(instr *hir.Instr) {
	scalar := fr.readValue(instr.Src1.Value)
	var bits uint32
	if instr.Src1.Value.Type().IsFloat() {
		bits = math.Float32bits(float32(scalar.F64()))
	} else {
		bits = uint32(scalar.Lo)
	}
	var out hir.Const128
	for i := 0; i < 4; i++ {
		setLane32(&out, i, bits)
	}
	fr.writeValue(instr.Dest, out)
}

// opPermute implements vperm: each of the 16 result bytes picks its
// control byte's low 5 bits as an index into the 32 byte concatenation
// of data1:data2 (0-15 from data1, 16-31 from data2).
func (fr *frame) opPermute(instr *hir.Instr) {
	control := fr.readValue(instr.Src1.Value)
	data1 := fr.readValue(instr.Src2.Value)
	data2 := fr.readValue(instr.Src3.Value)

	var src [32]uint8
	for i := 0; i < 16; i++ {
		src[i] = data1.I8(i)
		src[16+i] = data2.I8(i)
	}
	var out hir.Const128
	for i := 0; i < 16; i++ {
		idx := control.I8(i) & 0x1F
		out.SetI8(i, src[idx])
	}
	fr.writeValue(instr.Dest, out)
}

// opSwizzle rearranges vec's 4 lanes: per hir.Builder.Swizzle's doc
// comment the 8 bit control packs four 2 bit fields, one per destination
// lane, each selecting which of the 4 source lanes to copy. No frontend
// emitter calls Swizzle yet, so this follows the builder's own
// description rather than an observed call site.
func (fr *frame) opSwizzle(instr *hir.Instr) {
	v := fr.readValue(instr.Src1.Value)
	control := uint8(instr.Flags)
	var out hir.Const128
	for i := 0; i < 4; i++ {
		src := int(control>>(uint(i)*2)) & 3
		setLane32(&out, i, lane32(v, src))
	}
	fr.writeValue(instr.Dest, out)
}

// opLoadVectorShift backs lvsl/lvsr: from the low 4 bits of an unaligned
// address it builds the 16 byte permute-control vector a following vperm
// uses to realign two overlapping aligned loads onto the requested byte
// boundary. left picks lvsl's table (shift, shift+1, ... shift+15), false
// picks lvsr's (16-shift, 17-shift, ... 31-shift); both ascend. vperm only
// ever looks at the low 5 bits of each control byte, and values past 15
// select from data2's half of the concatenation.
func (fr *frame) opLoadVectorShift(instr *hir.Instr, left bool) {
	addr := fr.readValue(instr.Src1.Value).Lo
	shift := uint8(addr & 0xF)
	var out hir.Const128
	for i := 0; i < 16; i++ {
		var b uint8
		if left {
			b = uint8(i) + shift
		} else {
			b = uint8(16+i) - shift
		}
		out.SetI8(i, b&0x1F)
	}
	fr.writeValue(instr.Dest, out)
}

func (fr *frame) opVectorCompare(instr *hir.Instr) {
	a := fr.readValue(instr.Src1.Value)
	b := fr.readValue(instr.Src2.Value)
	var out hir.Const128
	for i := 0; i < 4; i++ {
		la, lb := lane32(a, i), lane32(b, i)
		var r bool
		switch instr.Op {
		case hir.OpVectorCompareEQ:
			r = la == lb
		case hir.OpVectorCompareSGT:
			r = int32(la) > int32(lb)
		case hir.OpVectorCompareSGE:
			r = int32(la) >= int32(lb)
		case hir.OpVectorCompareUGT:
			r = la > lb
		case hir.OpVectorCompareUGE:
			r = la >= lb
		}
		var bits uint32
		if r {
			bits = 0xFFFFFFFF
		}
		setLane32(&out, i, bits)
	}
	fr.writeValue(instr.Dest, out)
}

// opVectorCompareBounds implements vcmpbfp/vcmpbfp128: per lane, bit 31
// set when a > b and bit 30 set when a < -b, both clear (lane == 0) when
// a is within [-|b|, |b|]. Needs real float compares, not the int32
// bit-pattern reinterpretation opVectorCompare uses for the other fp
// forms, since testing against -b requires an actual sign flip.
func (fr *frame) opVectorCompareBounds(instr *hir.Instr) {
	a := fr.readValue(instr.Src1.Value)
	b := fr.readValue(instr.Src2.Value)
	var out hir.Const128
	for i := 0; i < 4; i++ {
		af := math.Float32frombits(lane32(a, i))
		bf := math.Float32frombits(lane32(b, i))
		var bits uint32
		if af > bf {
			bits |= 1 << 31
		}
		if af < -bf {
			bits |= 1 << 30
		}
		setLane32(&out, i, bits)
	}
	fr.writeValue(instr.Dest, out)
}

func (fr *frame) opVectorConvertI2F(instr *hir.Instr) {
	v := fr.readValue(instr.Src1.Value)
	var out hir.Const128
	for i := 0; i < 4; i++ {
		setLane32(&out, i, math.Float32bits(float32(int32(lane32(v, i)))))
	}
	fr.writeValue(instr.Dest, out)
}

func (fr *frame) opVectorConvertF2I(instr *hir.Instr) {
	v := fr.readValue(instr.Src1.Value)
	var out hir.Const128
	for i := 0; i < 4; i++ {
		setLane32(&out, i, uint32(int32(math.Float32frombits(lane32(v, i)))))
	}
	fr.writeValue(instr.Dest, out)
}

func (fr *frame) opMax(instr *hir.Instr) {
	fr.lanewiseMinMax(instr, true)
}

func (fr *frame) opMin(instr *hir.Instr) {
	fr.lanewiseMinMax(instr, false)
}

// lanewiseMinMax handles both the scalar float MAX/MIN the frontend
// emits for fsel-adjacent sequences and the 4 lane vector form, keyed on
// the destination type.
func (fr *frame) lanewiseMinMax(instr *hir.Instr, max bool) {
	a := fr.readValue(instr.Src1.Value)
	b := fr.readValue(instr.Src2.Value)
	if instr.Dest.Type() != hir.TypeV128 {
		x, y := a.F64(), b.F64()
		if (max && x >= y) || (!max && x <= y) {
			fr.writeValue(instr.Dest, a)
		} else {
			fr.writeValue(instr.Dest, b)
		}
		return
	}
	var out hir.Const128
	for i := 0; i < 4; i++ {
		x, y := math.Float32frombits(lane32(a, i)), math.Float32frombits(lane32(b, i))
		v := y
		if (max && x >= y) || (!max && x <= y) {
			v = x
		}
		setLane32(&out, i, math.Float32bits(v))
	}
	fr.writeValue(instr.Dest, out)
}
