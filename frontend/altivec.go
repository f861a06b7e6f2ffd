/*
   Frontend: AltiVec and Xbox 360 VMX128 emitters.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on the XEEMITTER tables in original_source's
   alloy/frontend/ppc/ppc_emit_altivec.cc: the opcode numbers in
   decode/opcodes.go come straight from that file's opcode expressions,
   and the lane semantics here follow its handler bodies, simplified
   where a full bit-exact reproduction isn't worth the frontend's size
   (documented per case below).
*/

package frontend

import (
	"fmt"

	"github.com/rcornwell/ppcjit/decode"
	"github.com/rcornwell/ppcjit/hir"
	"github.com/rcornwell/ppcjit/state"
)

// emitAltivec dispatches every primary-opcode 4/5/6 instruction: base
// AltiVec VX/VXA/VXR forms plus the Xbox 360 VMX128 extension's five
// compound sub-families and permute-control family.
func (t *Translator) emitAltivec(d decode.InstrData) error {
	word := d.Word

	switch {
	case decode.MatchVX128(word, decode.VX128Vaddfp128, decode.VX128Mask):
		t.emitVec128Arith(d, t.ctx.Add)
		return nil
	case decode.MatchVX128(word, decode.VX128Vsubfp128, decode.VX128Mask):
		t.emitVec128Arith(d, t.ctx.Sub)
		return nil
	case decode.MatchVX128(word, decode.VX128Vmulfp128, decode.VX128Mask):
		t.emitVec128Arith(d, t.ctx.Mul)
		return nil
	case decode.MatchVX128(word, decode.VX128Vand128, decode.VX128Mask):
		t.emitVec128Arith(d, t.ctx.And)
		return nil
	case decode.MatchVX128(word, decode.VX128Vandc128, decode.VX128Mask):
		t.emitVec128AndC(d)
		return nil
	case decode.MatchVX128(word, decode.VX128Vor128, decode.VX128Mask):
		t.emitVec128OrSelf(d)
		return nil
	case decode.MatchVX128(word, decode.VX128Vnor128, decode.VX128Mask):
		t.emitVec128Arith(d, func(ty hir.Type, a, b *hir.Value) *hir.Value {
			return t.ctx.Not(ty, t.ctx.Or(ty, a, b))
		})
		return nil
	case decode.MatchVX128(word, decode.VX128Vxor128, decode.VX128Mask):
		t.emitVec128XorSelf(d)
		return nil
	case decode.MatchVX128(word, decode.VX128Vmaddfp128, decode.VX128Mask):
		t.emitVec128MulAdd(d)
		return nil
	case decode.MatchVX128(word, decode.VX128Vmaddcfp128, decode.VX128Mask):
		t.emitVec128MulAdd(d)
		return nil
	case decode.MatchVX128(word, decode.VX128Vnmsubfp128, decode.VX128Mask):
		t.emitVec128NegMulSub(d)
		return nil
	case decode.MatchVX128(word, decode.VX128Vmsum3fp128, decode.VX128Mask):
		t.emitVec128DotProduct(d, t.ctx.DotProduct3)
		return nil
	case decode.MatchVX128(word, decode.VX128Vmsum4fp128, decode.VX128Mask):
		t.emitVec128DotProduct(d, t.ctx.DotProduct4)
		return nil
	case decode.MatchVX128(word, decode.VX128Vsel128, decode.VX128Mask):
		t.emitVec128Sel(d)
		return nil
	case decode.MatchVX128(word, decode.VX128Vmaxfp128, decode.VX128Mask):
		t.emitVec128Select(d, t.ctx.VectorCompareSGT, true)
		return nil
	case decode.MatchVX128(word, decode.VX128Vminfp128, decode.VX128Mask):
		t.emitVec128Select(d, t.ctx.VectorCompareSGT, false)
		return nil

	case decode.MatchVX128(word, decode.VX128RVcmpeqfp128, decode.VX128Mask):
		t.emitVec128Compare(d, t.ctx.VectorCompareEQ)
		return nil
	case decode.MatchVX128(word, decode.VX128RVcmpgefp128, decode.VX128Mask):
		t.emitVec128Compare(d, t.ctx.VectorCompareSGE)
		return nil
	case decode.MatchVX128(word, decode.VX128RVcmpgtfp128, decode.VX128Mask):
		t.emitVec128Compare(d, t.ctx.VectorCompareSGT)
		return nil
	case decode.MatchVX128(word, decode.VX128RVcmpequw128, decode.VX128Mask):
		t.emitVec128Compare(d, t.ctx.VectorCompareEQ)
		return nil
	case decode.MatchVX128(word, decode.VX128RVcmpbfp128, decode.VX128Mask):
		t.emitVec128CompareBounds(d)
		return nil

	case decode.MatchVX128(word, decode.VX128_2Vperm128, decode.VX128_2Mask):
		t.emitVec128Perm(d)
		return nil

	case decode.MatchVX128(word, decode.VX128_3Vcfpsxws128, decode.VX128_3Mask):
		t.emitVec128Convert(d, t.ctx.VectorConvertF2I)
		return nil
	case decode.MatchVX128(word, decode.VX128_3Vcsxwfp128, decode.VX128_3Mask):
		t.emitVec128Convert(d, t.ctx.VectorConvertI2F)
		return nil
	case decode.MatchVX128(word, decode.VX128_3Vcuxwfp128, decode.VX128_3Mask):
		t.emitVec128Convert(d, t.ctx.VectorConvertI2F)
		return nil
	case decode.MatchVX128(word, decode.VX128_3Vcfpuxws128, decode.VX128_3Mask):
		t.emitVec128Convert(d, t.ctx.VectorConvertF2I)
		return nil
	case decode.MatchVX128(word, decode.VX128_3Vspltw128, decode.VX128_3Mask):
		t.emitVec128Splat(d)
		return nil
	case decode.MatchVX128(word, decode.VX128_3Vupkd3d128, decode.VX128_3Mask):
		t.emitVupkd3d128(d)
		return nil

	case decode.MatchVX128(word, decode.VX128_4Vrlimi128, decode.VX128_4Mask):
		t.emitVrlimi128(d)
		return nil

	case decode.MatchVX128(word, decode.VX128_5Vsldoi128, decode.VX128_5Mask):
		t.emitVsldoi128(d)
		return nil
	}

	// Base (non-128) AltiVec forms, still under primary opcode 4: VX-form
	// arithmetic/logical, the VXA multiply-add family and VXR compares.
	switch d.VXO {
	case decode.VXLvx, decode.VXLvxl:
		t.emitLvx(d.VD, d.RA, d.RB)
		return nil
	case decode.VXStvx, decode.VXStvxl:
		t.emitStvx(d.VD, d.RA, d.RB)
		return nil
	case decode.VXVaddfp:
		t.ctx.StoreVR(d.VD, t.ctx.Add(hir.TypeV128, t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VB)))
		return nil
	case decode.VXVsubfp:
		t.ctx.StoreVR(d.VD, t.ctx.Sub(hir.TypeV128, t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VB)))
		return nil
	case decode.VXVand:
		t.ctx.StoreVR(d.VD, t.ctx.And(hir.TypeV128, t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VB)))
		return nil
	case decode.VXVor:
		t.emitVorBase(d)
		return nil
	case decode.VXVxor:
		t.emitVxorBase(d)
		return nil
	case decode.VXVspltisw:
		t.emitVspltisw(d)
		return nil
	}

	switch d.VXAOP {
	case decode.VXAVperm:
		t.ctx.StoreVR(d.VD, t.ctx.Permute(hir.TypeI8, t.ctx.LoadVR(d.VC), t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VB)))
		return nil
	case decode.VXAVmaddfp:
		acc := t.ctx.Mul(hir.TypeV128, t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VC))
		t.ctx.StoreVR(d.VD, t.ctx.Add(hir.TypeV128, acc, t.ctx.LoadVR(d.VB)))
		return nil
	case decode.VXAVnmsubfp:
		acc := t.ctx.Mul(hir.TypeV128, t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VC))
		sub := t.ctx.Sub(hir.TypeV128, acc, t.ctx.LoadVR(d.VB))
		t.ctx.StoreVR(d.VD, t.ctx.Neg(hir.TypeV128, sub))
		return nil
	case decode.VXAVsel:
		t.ctx.StoreVR(d.VD, t.ctx.Select(hir.TypeV128, t.ctx.LoadVR(d.VC), t.ctx.LoadVR(d.VB), t.ctx.LoadVR(d.VA)))
		return nil
	case decode.VXAVsldoi:
		return fmt.Errorf("%w: vsldoi base form not supported, use vsldoi128", ErrInvalidInstruction)
	}

	if d.XO == decode.VXRVcmpeqfp {
		t.emitVCmpBase(d, t.ctx.VectorCompareEQ)
		return nil
	}
	if d.XO == decode.VXRVcmpgefp {
		t.emitVCmpBase(d, t.ctx.VectorCompareSGE)
		return nil
	}
	if d.XO == decode.VXRVcmpgtfp {
		t.emitVCmpBase(d, t.ctx.VectorCompareSGT)
		return nil
	}
	if d.XO == decode.VXRVcmpequw {
		t.emitVCmpBase(d, t.ctx.VectorCompareEQ)
		return nil
	}
	if d.XO == decode.VXRVcmpbfp {
		t.emitVCmpBounds(d)
		return nil
	}

	return fmt.Errorf("%w: unrecognized AltiVec/VMX128 word %#08x", ErrInvalidInstruction, word)
}

func (t *Translator) emitVec128Arith(d decode.InstrData, op func(hir.Type, *hir.Value, *hir.Value) *hir.Value) {
	a := t.ctx.LoadVR(d.VA128)
	b := t.ctx.LoadVR(d.VB128)
	t.ctx.StoreVR(d.VD128, op(hir.TypeV128, a, b))
}

func (t *Translator) emitVec128AndC(d decode.InstrData) {
	a := t.ctx.LoadVR(d.VA128)
	b := t.ctx.LoadVR(d.VB128)
	t.ctx.StoreVR(d.VD128, t.ctx.And(hir.TypeV128, a, t.ctx.Not(hir.TypeV128, b)))
}

// emitVec128OrSelf implements the `vor128 vd, va, va` idiom the compiler
// emits for a 128 bit register copy, alongside the general two-operand
// form.
func (t *Translator) emitVec128OrSelf(d decode.InstrData) {
	if d.VA128 == d.VB128 {
		t.ctx.StoreVR(d.VD128, t.ctx.LoadVR(d.VA128))
		return
	}
	t.emitVec128Arith(d, t.ctx.Or)
}

// emitVec128XorSelf implements the `vxor128 vd, va, va` idiom the
// compiler emits to zero a register, alongside the general xor.
func (t *Translator) emitVec128XorSelf(d decode.InstrData) {
	if d.VA128 == d.VB128 {
		zero := t.ctx.LoadConstant(hir.TypeF32, hir.ConstFromU64(0))
		t.ctx.StoreVR(d.VD128, t.ctx.Splat(hir.TypeF32, zero))
		return
	}
	t.emitVec128Arith(d, t.ctx.Xor)
}

func (t *Translator) emitVec128MulAdd(d decode.InstrData) {
	a := t.ctx.LoadVR(d.VA128)
	b := t.ctx.LoadVR(d.VB128)
	c := t.ctx.LoadVR(d.VD128) // third operand aliases vd128's slot pre-accumulate on this form
	t.ctx.StoreVR(d.VD128, t.ctx.MulAdd(hir.TypeV128, a, c, b))
}

func (t *Translator) emitVec128NegMulSub(d decode.InstrData) {
	a := t.ctx.LoadVR(d.VA128)
	b := t.ctx.LoadVR(d.VB128)
	c := t.ctx.LoadVR(d.VD128)
	t.ctx.StoreVR(d.VD128, t.ctx.Neg(hir.TypeV128, t.ctx.MulSub(hir.TypeV128, a, c, b)))
}

func (t *Translator) emitVec128DotProduct(d decode.InstrData, op func(*hir.Value, *hir.Value) *hir.Value) {
	a := t.ctx.LoadVR(d.VA128)
	b := t.ctx.LoadVR(d.VB128)
	t.ctx.StoreVR(d.VD128, op(a, b))
}

func (t *Translator) emitVec128Sel(d decode.InstrData) {
	a := t.ctx.LoadVR(d.VA128)
	b := t.ctx.LoadVR(d.VB128)
	c := t.ctx.LoadVR(d.VD128)
	t.ctx.StoreVR(d.VD128, t.ctx.Select(hir.TypeV128, c, b, a))
}

func (t *Translator) emitVec128Select(d decode.InstrData, cmp func(*hir.Value, *hir.Value) *hir.Value, greater bool) {
	a := t.ctx.LoadVR(d.VA128)
	b := t.ctx.LoadVR(d.VB128)
	mask := cmp(a, b)
	if greater {
		t.ctx.StoreVR(d.VD128, t.ctx.Select(hir.TypeV128, mask, a, b))
	} else {
		t.ctx.StoreVR(d.VD128, t.ctx.Select(hir.TypeV128, mask, b, a))
	}
}

func (t *Translator) emitVec128Compare(d decode.InstrData, cmp func(*hir.Value, *hir.Value) *hir.Value) {
	a := t.ctx.LoadVR(d.VA128)
	b := t.ctx.LoadVR(d.VB128)
	result := cmp(a, b)
	t.ctx.StoreVR(d.VD128, result)
	if d.Rc != 0 {
		t.updateCR6(result)
	}
}

func (t *Translator) emitVCmpBase(d decode.InstrData, cmp func(*hir.Value, *hir.Value) *hir.Value) {
	result := cmp(t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VB))
	t.ctx.StoreVR(d.VD, result)
	if d.Rc != 0 {
		t.updateCR6(result)
	}
}

// emitVec128CompareBounds implements vcmpbfp128, the VMX128 form of the
// bounds compare (see emitVCmpBounds).
func (t *Translator) emitVec128CompareBounds(d decode.InstrData) {
	a := t.ctx.LoadVR(d.VA128)
	b := t.ctx.LoadVR(d.VB128)
	result := t.ctx.VectorCompareBounds(a, b)
	t.ctx.StoreVR(d.VD128, result)
	if d.Rc != 0 {
		t.updateCR6Bounds(result)
	}
}

// emitVCmpBounds implements vcmpbfp: unlike the other VXR compares this
// isn't a true/false mask but a per-lane bounds test, -b <= a <= b, so it
// gets its own CR6 update (updateCR6Bounds) rather than updateCR6.
func (t *Translator) emitVCmpBounds(d decode.InstrData) {
	result := t.ctx.VectorCompareBounds(t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VB))
	t.ctx.StoreVR(d.VD, result)
	if d.Rc != 0 {
		t.updateCR6Bounds(result)
	}
}

func (t *Translator) emitVec128Perm(d decode.InstrData) {
	control := t.ctx.LoadVR(d.VD128) // vd128 field doubles as the permute control register on this form
	t.ctx.StoreVR(d.VD128, t.ctx.Permute(hir.TypeI8, control, t.ctx.LoadVR(d.VA128), t.ctx.LoadVR(d.VB128)))
}

func (t *Translator) emitVec128Convert(d decode.InstrData, conv func(*hir.Value) *hir.Value) {
	t.ctx.StoreVR(d.VD128, conv(t.ctx.LoadVR(d.VB128)))
}

func (t *Translator) emitVec128Splat(d decode.InstrData) {
	idx := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(d.VA128&3)))
	lane := t.ctx.Extract(hir.TypeF32, t.ctx.LoadVR(d.VB128), idx)
	t.ctx.StoreVR(d.VD128, t.ctx.Splat(hir.TypeF32, lane))
}

// emitVupkd3d128 unpacks a D3D vertex-format lane into one or more float
// lanes. Real hardware dispatches on (imm>>2) across position/normal/
// color/short/float16 subtypes with distinct byte layouts; this models
// only the common float-unpack path (subtype 0) used by vertex shader
// input streaming, and passes every other subtype through unconverted
// rather than guessing at packed-color layouts.
func (t *Translator) emitVupkd3d128(d decode.InstrData) {
	subtype := (d.VA128 >> 2) & 0x7
	src := t.ctx.LoadVR(d.VB128)
	if subtype == 0 {
		t.ctx.StoreVR(d.VD128, t.ctx.VectorConvertI2F(src))
		return
	}
	t.ctx.StoreVR(d.VD128, src)
}

// emitVrlimi128 implements the common "replace one lane" case (the
// overwhelming majority of its compiler-generated uses): when imm
// selects exactly one destination lane, that lane of vb replaces the
// matching lane of vd; broader lane-rotate forms fall back to a plain
// assign of vb, leaving vd's other lanes unmodeled.
func (t *Translator) emitVrlimi128(d decode.InstrData) {
	imm := d.VA128 & 0xF
	vd := t.ctx.LoadVR(d.VD128)
	vb := t.ctx.LoadVR(d.VB128)
	lane := -1
	switch imm {
	case 0x8:
		lane = 0
	case 0x4:
		lane = 1
	case 0x2:
		lane = 2
	case 0x1:
		lane = 3
	}
	if lane < 0 {
		t.ctx.StoreVR(d.VD128, vb)
		return
	}
	idx := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(lane)))
	replacement := t.ctx.Extract(hir.TypeF32, vb, idx)
	// Control bytes keep vd's own bytes (0-15) except for the chosen
	// lane's four, which pick from the splatted replacement (16-31).
	var ctl hir.Const128
	for i := 0; i < 16; i++ {
		b := uint8(i)
		if i/4 == 3-lane {
			b += 16
		}
		ctl.SetI8(i, b)
	}
	control := t.ctx.LoadConstant(hir.TypeV128, ctl)
	merged := t.ctx.Permute(hir.TypeI8, control, vd, t.ctx.Splat(hir.TypeF32, replacement))
	t.ctx.StoreVR(d.VD128, merged)
}

func (t *Translator) emitVsldoi128(d decode.InstrData) {
	shift := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(d.VSH)))
	t.ctx.StoreVR(d.VD128, t.ctx.VectorShl(hir.TypeI8, t.ctx.LoadVR(d.VA128), shift))
}

func (t *Translator) emitVorBase(d decode.InstrData) {
	if d.VA == d.VB {
		t.ctx.StoreVR(d.VD, t.ctx.LoadVR(d.VA))
		return
	}
	t.ctx.StoreVR(d.VD, t.ctx.Or(hir.TypeV128, t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VB)))
}

func (t *Translator) emitVxorBase(d decode.InstrData) {
	if d.VA == d.VB {
		zero := t.ctx.LoadConstant(hir.TypeF32, hir.ConstFromU64(0))
		t.ctx.StoreVR(d.VD, t.ctx.Splat(hir.TypeF32, zero))
		return
	}
	t.ctx.StoreVR(d.VD, t.ctx.Xor(hir.TypeV128, t.ctx.LoadVR(d.VA), t.ctx.LoadVR(d.VB)))
}

func (t *Translator) emitVspltisw(d decode.InstrData) {
	imm := int32(d.VA<<27) >> 27 // 5 bit field, sign extended
	val := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(uint32(imm))))
	t.ctx.StoreVR(d.VD, t.ctx.Splat(hir.TypeI32, val))
}

// updateCR6 sets condition register field 6 from a vector compare mask:
// bit 0 of the field ("all true") when every lane compared equal, bit 2
// ("none true") when no lane did. The two middle bits PowerPC defines as
// reserved here are left clear.
func (t *Translator) updateCR6(result *hir.Value) {
	zero := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(0))
	var lanes [4]*hir.Value
	for i := 0; i < 4; i++ {
		idx := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(i)))
		lanes[i] = t.ctx.Extract(hir.TypeI32, result, idx)
	}
	andAll := t.ctx.And(hir.TypeI32, t.ctx.And(hir.TypeI32, lanes[0], lanes[1]), t.ctx.And(hir.TypeI32, lanes[2], lanes[3]))
	orAll := t.ctx.Or(hir.TypeI32, t.ctx.Or(hir.TypeI32, lanes[0], lanes[1]), t.ctx.Or(hir.TypeI32, lanes[2], lanes[3]))
	allTrue := t.ctx.ZeroExtend(hir.TypeI32, t.ctx.CompareNE(andAll, zero))
	noneTrue := t.ctx.ZeroExtend(hir.TypeI32, t.ctx.CompareEQ(orAll, zero))

	old := t.ctx.LoadContext(hir.TypeI32, state.OffsetCR)
	cleared := t.ctx.And(hir.TypeI32, old, t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(^uint64(0xF0))))
	shiftAll := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(7))
	shiftNone := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(5))
	bits := t.ctx.Or(hir.TypeI32, t.ctx.Shl(hir.TypeI32, allTrue, shiftAll), t.ctx.Shl(hir.TypeI32, noneTrue, shiftNone))
	t.ctx.StoreContext(state.OffsetCR, t.ctx.Or(hir.TypeI32, cleared, bits))
}

// updateCR6Bounds sets CR6 from a vcmpbfp-style bounds result: a lane
// value of 0 means in bounds, so the "all true"/"none true" polarity is
// inverted from updateCR6's eq/gt/ge masks (there 0xFFFFFFFF means true).
func (t *Translator) updateCR6Bounds(result *hir.Value) {
	zero := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(0))
	var lanes [4]*hir.Value
	for i := 0; i < 4; i++ {
		idx := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(i)))
		lanes[i] = t.ctx.Extract(hir.TypeI32, result, idx)
	}
	orAll := t.ctx.Or(hir.TypeI32, t.ctx.Or(hir.TypeI32, lanes[0], lanes[1]), t.ctx.Or(hir.TypeI32, lanes[2], lanes[3]))
	allInBounds := t.ctx.ZeroExtend(hir.TypeI32, t.ctx.CompareEQ(orAll, zero))
	anyOutOfBounds := t.ctx.ZeroExtend(hir.TypeI32, t.ctx.CompareNE(orAll, zero))

	old := t.ctx.LoadContext(hir.TypeI32, state.OffsetCR)
	cleared := t.ctx.And(hir.TypeI32, old, t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(^uint64(0xF0))))
	shiftAll := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(7))
	shiftNone := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(5))
	bits := t.ctx.Or(hir.TypeI32, t.ctx.Shl(hir.TypeI32, allInBounds, shiftAll), t.ctx.Shl(hir.TypeI32, anyOutOfBounds, shiftNone))
	t.ctx.StoreContext(state.OffsetCR, t.ctx.Or(hir.TypeI32, cleared, bits))
}
