/*
   x64: register numbering and the REX/ModRM encoding primitives every
   instruction emitter in asm.go builds on.

   Copyright (c) 2024, the ppcjit authors.

   Byte-level encoding in the style of the pack's own raw x86-64 emitters
   (scm-jit's amd64 codegen, tinyrange's linux_x64 backend): explicit
   REX/ModRM/SIB construction rather than a third-party assembler, since
   the instruction subset this backend needs is small and fixed.
*/

package x64

// reg is an x86-64 general-purpose register number 0-15 (rax..r15); the
// high bit (>= 8) is folded into REX.B/R/X by the emitters below.
type reg uint8

const (
	rax reg = iota
	rcx
	rdx
	rbx
	rsp
	rbp
	rsi
	rdi
	r8
	r9
	r10
	r11
	r12
	r13
	r14
	r15
)

// Calling convention for a compiled function's native entry point,
// fixed by trampoline_amd64.s: rcx holds the *state.ThreadState pointer,
// rdx holds the *memory.Flat backing array pointer. rax carries the
// return value (the continuation guest address). r11 is this backend's
// reserved scratch register and is never used to hold a live stack slot.
const (
	regThreadState reg = rcx
	regMemBase     reg = rdx
	regScratch     reg = r11
)

func rexByte(w, r, x, b bool) byte {
	rex := byte(0x40)
	if w {
		rex |= 0x08
	}
	if r {
		rex |= 0x04
	}
	if x {
		rex |= 0x02
	}
	if b {
		rex |= 0x01
	}
	return rex
}

// rex emits a REX prefix for a reg-reg form instruction operating on two
// registers (dst as ModRM.reg, src as ModRM.rm), in 64 bit operand size.
func (c *codeBuffer) rex(dst, src reg) {
	c.emit(rexByte(true, dst >= 8, false, src >= 8))
}

// rexB emits a REX prefix for an instruction with a single register
// operand encoded in ModRM.rm (or opcode+reg form).
func (c *codeBuffer) rexB(r reg) {
	c.emit(rexByte(true, false, false, r >= 8))
}

// modrmRegReg emits a ModRM byte for the register-direct addressing mode
// (mod=11): reg field is dst, rm field is src.
func (c *codeBuffer) modrmRegReg(dst, src reg) {
	c.emit(0xC0 | (byte(dst&7) << 3) | byte(src&7))
}

// modrmRegMem emits a ModRM(+SIB if needed)+disp32 for [base+disp32],
// reg field carrying r. rsp/r12 as base require a SIB byte (mod|100 is
// otherwise the SIB escape), rbp/r13 as base with disp8==0 is ambiguous
// with the no-base encoding, so this always emits a disp32 to sidestep
// both special cases.
func (c *codeBuffer) modrmRegMem(r, base reg, disp int32) {
	c.emit(0x80 | (byte(r&7) << 3) | byte(base&7))
	if base&7 == 4 { // rsp/r12 need a SIB byte naming themselves as base, no index
		c.emit(0x24)
	}
	c.emit(byte(disp), byte(disp>>8), byte(disp>>16), byte(disp>>24))
}

func imm32Bytes(v int32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func imm64Bytes(v uint64) []byte {
	return []byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	}
}
