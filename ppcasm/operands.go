/*
   ppcasm: per-form operand scanners.

   Copyright (c) 2024, the ppcjit authors.
*/

package ppcasm

import "fmt"

// assembleD handles "op rt, ra, imm" - addi/addis/ori/xori/andi. Only
// andi. sets Rc, and it always does regardless of a trailing '.' on the
// line (there is no non-dot form of it).
func assembleD(m mnemonic, rest string, _ bool) (uint32, error) {
	rt, ra, imm, err := scanRtRaImm(rest)
	if err != nil {
		return 0, err
	}
	w := dForm(m.op, rt, ra, imm)
	if m.rcOnly {
		w |= field(0, 0, 1)
	}
	return w, nil
}

func scanRtRaImm(rest string) (rt, ra uint32, imm int32, err error) {
	tok, rest := getWord(rest)
	rt, err = gpr(tok)
	if err != nil {
		return 0, 0, 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, 0, 0, err
	}
	tok, rest = getWord(rest)
	ra, err = gpr(tok)
	if err != nil {
		return 0, 0, 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, 0, 0, err
	}
	tok, _ = getWord(rest)
	imm, err = signed(tok)
	return rt, ra, imm, err
}

// assembleLoadStore handles "op rt, d(ra)".
func assembleLoadStore(m mnemonic, rest string) (uint32, error) {
	tok, rest := getWord(rest)
	rt, err := gpr(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}

	rest = skipSpace(rest)
	var disp int32
	if rest != "" && rest[0] != '(' {
		tok, rest = getWord(rest)
		disp, err = signed(tok)
		if err != nil {
			return 0, err
		}
	}
	rest, err = expect(rest, '(')
	if err != nil {
		return 0, err
	}
	tok, rest = getWord(rest)
	ra, err := gpr(tok)
	if err != nil {
		return 0, err
	}
	if _, err := expect(rest, ')'); err != nil {
		return 0, err
	}
	return dForm(m.op, rt, ra, disp), nil
}

// assembleX handles "op rt, ra, rb" Family 31 arithmetic/logical/indexed
// load-store forms.
func assembleX(m mnemonic, rest string, rc bool) (uint32, error) {
	rt, ra, rb, err := scanThreeGPR(rest)
	if err != nil {
		return 0, err
	}
	return xoForm(m.op, rt, ra, rb, m.xo, m.oe, rc), nil
}

func scanThreeGPR(rest string) (a, b, c uint32, err error) {
	tok, rest := getWord(rest)
	a, err = gpr(tok)
	if err != nil {
		return 0, 0, 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, 0, 0, err
	}
	tok, rest = getWord(rest)
	b, err = gpr(tok)
	if err != nil {
		return 0, 0, 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, 0, 0, err
	}
	tok, _ = getWord(rest)
	c, err = gpr(tok)
	return a, b, c, err
}

// assembleUnaryX handles "op rt, ra" (neg/extsb/extsh/cntlzw): rb is
// unused on these forms, left zero.
func assembleUnaryX(m mnemonic, rest string, rc bool) (uint32, error) {
	tok, rest := getWord(rest)
	rt, err := gpr(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, _ = getWord(rest)
	ra, err := gpr(tok)
	if err != nil {
		return 0, err
	}
	return xoForm(m.op, rt, ra, 0, m.xo, m.oe, rc), nil
}

// assembleMfcr handles "mfcr rt".
func assembleMfcr(m mnemonic, rest string) (uint32, error) {
	tok, _ := getWord(rest)
	rt, err := gpr(tok)
	if err != nil {
		return 0, err
	}
	return xForm(m.op, rt, 0, 0, m.xo, false), nil
}

// assembleMtcrf handles "mtcrf crm, rs": crm is an 8 bit field mask
// packed at the field-mask-register position (bits 19-12, which the
// frontend's emitMtcrf and ppcdisasm read straight from the raw word as
// (Word>>12)&0xFF, since Decode never special-cases mtcrf).
func assembleMtcrf(m mnemonic, rest string) (uint32, error) {
	tok, rest := getWord(rest)
	crm, err := unsigned(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, _ = getWord(rest)
	rs, err := gpr(tok)
	if err != nil {
		return 0, err
	}
	return primaryOp(m.op) | field(25, 21, rs) | field(19, 12, crm) | field(10, 1, m.xo), nil
}

// assembleBranchI handles "b target", "ba target", "bl target",
// "bla target": AA/LK come from letters appended to the base mnemonic. A
// non-absolute target is encoded as a displacement from pc, the address
// this instruction will occupy.
func assembleBranchI(m mnemonic, rest string, pc uint64, resolve func(string) (uint64, bool)) (uint32, error) {
	target, err := scanTarget(rest, resolve)
	if err != nil {
		return 0, err
	}
	li := target
	if !m.aa {
		li = target - pc
	}
	return iForm(uint32(li), m.aa, m.lk), nil
}

// assembleBranchB handles "bc bo, bi, target".
func assembleBranchB(m mnemonic, rest string, pc uint64, resolve func(string) (uint64, bool)) (uint32, error) {
	tok, rest := getWord(rest)
	bo, err := unsigned(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, rest = getWord(rest)
	bi, err := unsigned(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	target, err := scanTarget(rest, resolve)
	if err != nil {
		return 0, err
	}
	bd := target
	if !m.aa {
		bd = target - pc
	}
	return bForm(bo, bi, uint32(bd), m.aa, m.lk), nil
}

func scanTarget(rest string, resolve func(string) (uint64, bool)) (uint64, error) {
	tok, _ := getWord(rest)
	if v, err := unsigned(tok); err == nil {
		return uint64(v), nil
	}
	if resolve == nil {
		return 0, fmt.Errorf("ppcasm: no label resolver for %q", tok)
	}
	addr, ok := resolve(tok)
	if !ok {
		return 0, fmt.Errorf("ppcasm: undefined label %q", tok)
	}
	return addr, nil
}

// assembleXLReg handles "op crt, cra, crb" CR logical instructions.
func assembleXLReg(m mnemonic, rest string) (uint32, error) {
	a, b, c, err := scanThreeGPR(rest)
	if err != nil {
		return 0, err
	}
	return xlForm(m.op, a, b, c, m.xo, false), nil
}

// assembleVXLoadStore handles "op vd, ra, rb" (lvx/stvx).
func assembleVXLoadStore(m mnemonic, rest string) (uint32, error) {
	vd, ra, rb, err := scanVdTwoGPR(rest)
	if err != nil {
		return 0, err
	}
	return vxForm(vd, ra, rb, m.xo), nil
}

func scanVdTwoGPR(rest string) (vd, ra, rb uint32, err error) {
	tok, rest := getWord(rest)
	vd, err = vreg(tok)
	if err != nil {
		return 0, 0, 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, 0, 0, err
	}
	tok, rest = getWord(rest)
	ra, err = gpr(tok)
	if err != nil {
		return 0, 0, 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, 0, 0, err
	}
	tok, _ = getWord(rest)
	rb, err = gpr(tok)
	return vd, ra, rb, err
}

func scanThreeVR(rest string) (a, b, c uint32, err error) {
	tok, rest := getWord(rest)
	a, err = vreg(tok)
	if err != nil {
		return 0, 0, 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, 0, 0, err
	}
	tok, rest = getWord(rest)
	b, err = vreg(tok)
	if err != nil {
		return 0, 0, 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, 0, 0, err
	}
	tok, _ = getWord(rest)
	c, err = vreg(tok)
	return a, b, c, err
}

func scanTwoVR(rest string) (a, b uint32, err error) {
	tok, rest := getWord(rest)
	a, err = vreg(tok)
	if err != nil {
		return 0, 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, 0, err
	}
	tok, _ = getWord(rest)
	b, err = vreg(tok)
	return a, b, err
}

// assembleVXArith handles "op vd, va, vb" base AltiVec arithmetic.
func assembleVXArith(m mnemonic, rest string) (uint32, error) {
	vd, va, vb, err := scanThreeVR(rest)
	if err != nil {
		return 0, err
	}
	return vxForm(vd, va, vb, m.xo), nil
}

// assembleVXUnary handles "vspltisw vd, simm": a 5 bit signed splat
// immediate packed at VA's field position, matching decode.go's d.VA
// read in emitVspltisw.
func assembleVXUnary(m mnemonic, rest string) (uint32, error) {
	tok, rest := getWord(rest)
	vd, err := vreg(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, _ = getWord(rest)
	imm, err := signed(tok)
	if err != nil {
		return 0, err
	}
	return vxForm(vd, uint32(imm)&0x1F, 0, m.xo), nil
}

// assembleVXA handles "op vd, va, vb, vc".
func assembleVXA(m mnemonic, rest string) (uint32, error) {
	tok, rest := getWord(rest)
	vd, err := vreg(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	va, vb, vc, err := scanThreeVR(rest)
	if err != nil {
		return 0, err
	}
	return vxaForm(vd, va, vb, vc, m.xo), nil
}

// assembleVXR handles "op vd, va, vb" VXR compare forms.
func assembleVXR(m mnemonic, rest string, rc bool) (uint32, error) {
	vd, va, vb, err := scanThreeVR(rest)
	if err != nil {
		return 0, err
	}
	return vxrForm(vd, va, vb, m.xo, rc), nil
}

// assembleVX128Arith handles "op vd128, va128, vb128" for every VX128
// family compound op whose frontend emitter reads both register sources
// independently (the "vor128 vd,va,va" self-copy idiom is just this form
// called with matching va/vb operands).
func assembleVX128Arith(m mnemonic, rest string) (uint32, error) {
	vd, va, vb, err := scanThreeVR(rest)
	if err != nil {
		return 0, err
	}
	return m.xo | vx128VD(vd) | vx128VA(va) | vx128VB(vb), nil
}

// assembleVX128Unary handles "op vd128, vb128" convert/unpack forms.
func assembleVX128Unary(m mnemonic, rest string) (uint32, error) {
	vd, vb, err := scanTwoVR(rest)
	if err != nil {
		return 0, err
	}
	return m.xo | vx128VD(vd) | vx128VB(vb), nil
}

// assembleVX128Splat handles "vspltw128 vd128, vb128, lane".
func assembleVX128Splat(m mnemonic, rest string) (uint32, error) {
	tok, rest := getWord(rest)
	vd, err := vreg(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, rest = getWord(rest)
	vb, err := vreg(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, _ = getWord(rest)
	lane, err := unsigned(tok)
	if err != nil {
		return 0, err
	}
	return m.xo | vx128VD(vd) | vx128VB(vb) | vx128VA(lane&3), nil
}

// assembleVX128MulAdd handles "op vd128, va128, vb128" multiply-add/
// dot-product forms, where vd128 doubles as the pre-accumulate third
// operand the frontend's emitVec128MulAdd reads before overwriting it.
func assembleVX128MulAdd(m mnemonic, rest string) (uint32, error) {
	return assembleVX128Arith(m, rest)
}

// assembleVX128Sel handles "op vd128, va128, vb128" select/permute forms
// where vd128 doubles as the mask/control operand, same shape as
// assembleVX128MulAdd.
func assembleVX128Sel(m mnemonic, rest string) (uint32, error) {
	return assembleVX128Arith(m, rest)
}

// assembleVX128Rlimi handles "vrlimi128 vd128, vb128, imm": the lane
// select immediate is packed into VA128's field, per emitVrlimi128's
// "imm := d.VA128 & 0xF" reinterpretation of that operand.
func assembleVX128Rlimi(m mnemonic, rest string) (uint32, error) {
	tok, rest := getWord(rest)
	vd, err := vreg(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, rest = getWord(rest)
	vb, err := vreg(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, _ = getWord(rest)
	imm, err := unsigned(tok)
	if err != nil {
		return 0, err
	}
	return m.xo | vx128VD(vd) | vx128VB(vb) | vx128VA(imm&0xF), nil
}

// assembleVX128Sldoi handles "vsldoi128 vd128, va128, vb128, shift": the 4
// bit shift count lands in the VSH field (bits 9-6), the only field the
// VX128_5 sub-mask leaves free.
func assembleVX128Sldoi(_ mnemonic, rest string) (uint32, error) {
	tok, rest := getWord(rest)
	vd, err := vreg(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, rest = getWord(rest)
	va, err := vreg(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, rest = getWord(rest)
	vb, err := vreg(tok)
	if err != nil {
		return 0, err
	}
	rest, err = expect(rest, ',')
	if err != nil {
		return 0, err
	}
	tok, _ = getWord(rest)
	shift, err := unsigned(tok)
	if err != nil {
		return 0, err
	}
	return vx128_5(4, 16) | vx128VD(vd) | vx128VA(va) | vx128VB(vb) | field(9, 6, shift), nil
}
