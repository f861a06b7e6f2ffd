/*
   x64: instruction emitters built on regs.go's REX/ModRM primitives.

   Copyright (c) 2024, the ppcjit authors.

   Covers only the fixed subset lower.go actually needs: 64 bit GPR
   moves/arithmetic/compares, conditional jumps, direct/indirect calls,
   push/pop, and the narrow load/store widths PPC memory access needs.
*/

package x64

// movRegReg: mov dst, src (64 bit).
func (c *codeBuffer) movRegReg(dst, src reg) {
	c.rex(src, dst)
	c.emit(0x89)
	c.modrmRegReg(src, dst)
}

// movRegImm64: mov dst, imm64.
func (c *codeBuffer) movRegImm64(dst reg, imm uint64) {
	c.rexB(dst)
	c.emit(0xB8 | byte(dst&7))
	c.emit(imm64Bytes(imm)...)
}

// movRegImm32 zero-extends imm into dst (32 bit form, clears the upper
// 32 bits of the 64 bit register - the standard x86-64 mov-to-32
// zero-extension rule).
func (c *codeBuffer) movRegImm32(dst reg, imm uint32) {
	if dst >= 8 {
		c.emit(rexByte(false, false, false, true))
	}
	c.emit(0xB8 | byte(dst&7))
	c.emit(imm32Bytes(int32(imm))...)
}

// loadMem64/32/16/8: mov dst, [base+disp] at the named width, zero
// extending narrower widths into the full 64 bit register - matching
// the unsigned load semantics backend/interp's opLoad uses for everything
// except the sign-extend opcode, which lower.go handles as a separate
// step after the plain load.
func (c *codeBuffer) loadMem64(dst, base reg, disp int32) {
	c.rex(dst, base)
	c.emit(0x8B)
	c.modrmRegMem(dst, base, disp)
}

func (c *codeBuffer) loadMem32(dst, base reg, disp int32) {
	if dst >= 8 || base >= 8 {
		c.emit(rexByte(false, dst >= 8, false, base >= 8))
	}
	c.emit(0x8B)
	c.modrmRegMem(dst, base, disp)
}

func (c *codeBuffer) loadMem16(dst, base reg, disp int32) {
	c.emit(0x66)
	c.rex(dst, base)
	c.emit(0x0F, 0xB7)
	c.modrmRegMem(dst, base, disp)
}

func (c *codeBuffer) loadMem8(dst, base reg, disp int32) {
	c.rex(dst, base)
	c.emit(0x0F, 0xB6)
	c.modrmRegMem(dst, base, disp)
}

// storeMem64/32/16/8: mov [base+disp], src.
func (c *codeBuffer) storeMem64(base reg, disp int32, src reg) {
	c.rex(src, base)
	c.emit(0x89)
	c.modrmRegMem(src, base, disp)
}

func (c *codeBuffer) storeMem32(base reg, disp int32, src reg) {
	if src >= 8 || base >= 8 {
		c.emit(rexByte(false, src >= 8, false, base >= 8))
	}
	c.emit(0x89)
	c.modrmRegMem(src, base, disp)
}

func (c *codeBuffer) storeMem16(base reg, disp int32, src reg) {
	c.emit(0x66)
	if src >= 8 || base >= 8 {
		c.emit(rexByte(false, src >= 8, false, base >= 8))
	}
	c.emit(0x89)
	c.modrmRegMem(src, base, disp)
}

func (c *codeBuffer) storeMem8(base reg, disp int32, src reg) {
	c.rex(src, base) // always emit REX: needed to address sil/dil/bpl/spl as byte regs
	c.emit(0x88)
	c.modrmRegMem(src, base, disp)
}

// Binary ALU ops (64 bit, register form): add/sub/and/or/xor/cmp dst, src.
type aluOp byte

const (
	aluAdd aluOp = 0x01
	aluSub aluOp = 0x29
	aluAnd aluOp = 0x21
	aluOr  aluOp = 0x09
	aluXor aluOp = 0x31
	aluCmp aluOp = 0x39
)

func (c *codeBuffer) alu(op aluOp, dst, src reg) {
	c.rex(src, dst)
	c.emit(byte(op))
	c.modrmRegReg(src, dst)
}

func (c *codeBuffer) testRegReg(a, b reg) {
	c.rex(b, a)
	c.emit(0x85)
	c.modrmRegReg(b, a)
}

func (c *codeBuffer) negReg(r reg) {
	c.rexB(r)
	c.emit(0xF7)
	c.emit(0xD8 | byte(r&7))
}

func (c *codeBuffer) notReg(r reg) {
	c.rexB(r)
	c.emit(0xF7)
	c.emit(0xD0 | byte(r&7))
}

func (c *codeBuffer) imulRegReg(dst, src reg) {
	c.rex(dst, src)
	c.emit(0x0F, 0xAF)
	c.modrmRegReg(dst, src)
}

// shift by CL: shl/shr/sar dst, cl. CL must already hold the count.
type shiftKind byte

const (
	shiftLeft     shiftKind = 4 // /4 = shl
	shiftRightUns shiftKind = 5 // /5 = shr
	shiftRightArith shiftKind = 7 // /7 = sar
	shiftRotl     shiftKind = 0 // /0 = rol
)

func (c *codeBuffer) shiftByCL(kind shiftKind, dst reg) {
	c.rexB(dst)
	c.emit(0xD3)
	c.emit(0xC0 | (byte(kind) << 3) | byte(dst&7))
}

// andRegImm32: and dst, imm32 - lower.go's width-masking primitive.
func (c *codeBuffer) andRegImm32(dst reg, imm uint32) {
	if imm == 0xFFFFFFFF {
		// The imm32 form sign-extends, so this mask would keep all 64
		// bits; a 32 bit mov of dst onto itself clears the upper half.
		if dst >= 8 {
			c.emit(rexByte(false, true, false, true))
		}
		c.emit(0x89)
		c.modrmRegReg(dst, dst)
		return
	}
	c.rexB(dst)
	c.emit(0x81)
	c.emit(0xE0 | byte(dst&7))
	c.emit(imm32Bytes(int32(imm))...)
}

// shiftImm8: shl/shr/sar dst, imm8 - the fixed-count form lower.go uses
// for sign extension (shl then sar by 64-width), in SIGN_EXTEND and ahead
// of SHA's variable-count shift.
func (c *codeBuffer) shiftImm8(kind shiftKind, dst reg, count uint8) {
	c.rexB(dst)
	c.emit(0xC1)
	c.emit(0xC0 | (byte(kind) << 3) | byte(dst&7))
	c.emit(count)
}

// bswapReg: bswap dst (32 or 64 bit, selected by w).
func (c *codeBuffer) bswapReg(dst reg, w bool) {
	c.emit(rexByte(w, false, false, dst >= 8))
	c.emit(0x0F, 0xC8|byte(dst&7))
}

// swap16Reg: rol dst, 8 at 16 bit operand size - BSWAP has no 16 bit
// form, this is the standard substitute for swapping a word's two bytes.
func (c *codeBuffer) swap16Reg(dst reg) {
	c.emit(0x66)
	if dst >= 8 {
		c.emit(rexByte(false, false, false, true))
	}
	c.emit(0xC1)
	c.emit(0xC0 | byte(dst&7))
	c.emit(8)
}

// setcc dst (8 bit, zero-extended by a following movzx in lower.go when
// a full 64 bit boolean is needed).
type cc byte

const (
	ccE  cc = 0x4 // ZF=1 (equal / zero)
	ccNE cc = 0x5
	ccL  cc = 0xC // signed <
	ccLE cc = 0xE
	ccG  cc = 0xF
	ccGE cc = 0xD
	ccB  cc = 0x2 // unsigned <
	ccBE cc = 0x6
	ccA  cc = 0x7
	ccAE cc = 0x3
)

func (c *codeBuffer) setcc(cond cc, dst reg) {
	if dst >= 8 {
		c.emit(rexByte(false, false, false, true))
	} else if dst >= 4 {
		c.emit(rexByte(false, false, false, false)) // force REX so spl/bpl/sil/dil work
	}
	c.emit(0x0F, 0x90|byte(cond))
	c.emit(0xC0 | byte(dst&7))
}

func (c *codeBuffer) movzxReg8(dst, src reg) {
	c.rex(dst, src)
	c.emit(0x0F, 0xB6)
	c.modrmRegReg(dst, src)
}

// jcc: near conditional jump, always the 6 byte rel32 encoding so
// lower.go's two-pass label resolution never has to worry about a short
// form not reaching. Returns the offset of the rel32 field, for the
// caller to patch once the target's address is known.
func (c *codeBuffer) jcc(cond cc) int {
	c.emit(0x0F, 0x80|byte(cond))
	off := c.pos()
	c.emit(0, 0, 0, 0)
	return off
}

// jmp: unconditional near jump, same rel32-always convention as jcc.
func (c *codeBuffer) jmp() int {
	c.emit(0xE9)
	off := c.pos()
	c.emit(0, 0, 0, 0)
	return off
}

// callReg: call dst (indirect, register form).
func (c *codeBuffer) callReg(dst reg) {
	if dst >= 8 {
		c.emit(rexByte(false, false, false, true))
	}
	c.emit(0xFF)
	c.emit(0xD0 | byte(dst&7))
}

func (c *codeBuffer) ret() { c.emit(0xC3) }

func (c *codeBuffer) pushReg(r reg) {
	if r >= 8 {
		c.emit(rexByte(false, false, false, true))
	}
	c.emit(0x50 | byte(r&7))
}

func (c *codeBuffer) popReg(r reg) {
	if r >= 8 {
		c.emit(rexByte(false, false, false, true))
	}
	c.emit(0x58 | byte(r&7))
}

// leaRegMem: lea dst, [base+disp].
func (c *codeBuffer) leaRegMem(dst, base reg, disp int32) {
	c.rex(dst, base)
	c.emit(0x8D)
	c.modrmRegMem(dst, base, disp)
}

// subRegImm32/addRegImm32: add/sub dst, imm32 (used only for the rsp
// frame adjustment in the prologue/epilogue, where dst is always rsp).
func (c *codeBuffer) subRegImm32(dst reg, imm int32) {
	c.rexB(dst)
	c.emit(0x81)
	c.emit(0xE8 | byte(dst&7))
	c.emit(imm32Bytes(imm)...)
}

func (c *codeBuffer) addRegImm32(dst reg, imm int32) {
	c.rexB(dst)
	c.emit(0x81)
	c.emit(0xC0 | byte(dst&7))
	c.emit(imm32Bytes(imm)...)
}

// ud2: a guaranteed-trap 2 byte instruction. lower.go emits none: it
// bails out to the interpreter before emitting anything for a function
// it cannot fully lower.
func (c *codeBuffer) ud2() { c.emit(0x0F, 0x0B) }
