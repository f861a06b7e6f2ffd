/*
   x64: single-pass HIR to machine code lowering.

   Copyright (c) 2024, the ppcjit authors.

   Scope cut, recorded here rather than spread across comments: this
   backend only compiles scalar-integer, call-free functions. Any
   function touching a float/vector typed value, a CALL/CALL_INDIRECT
   (resolving those requires calling back into registry.Runtime, a Go
   call-stack/GC boundary a hand-written leaf-function emitter has no
   business crossing), LOAD_CLOCK, or one of the handful of arithmetic
   ops whose correct flag semantics aren't worth the encoding complexity
   here (MULHI, CNTLZ, ADD_CARRY, carry-producing ADD/SUB) bails out of
   lowering entirely - backend.go falls the whole function back to
   backend/interp in that case. This mirrors a common tiered-JIT split:
   a fast path for integer-only hot code, an unconditionally correct
   slow path for everything else.

   Values live in fixed stack slots (no register allocation - every
   instruction loads its operands from the stack, computes in rax/rbx,
   and stores the result back), the same trade of simplicity for
   register efficiency the teacher's interpreter already makes by
   keeping everything in a flat slice rather than allocating real
   machine registers.
*/

package x64

import (
	"fmt"

	"github.com/rcornwell/ppcjit/hir"
	"github.com/rcornwell/ppcjit/state"
)

// fixup records a branch/jmp/jcc whose rel32 field needs patching once
// every block's start offset is known.
type fixup struct {
	patchOffset int
	target      *hir.Block
}

type lowerer struct {
	fn        *hir.Function
	code      *codeBuffer
	numSlots  int
	blockAddr map[*hir.Block]int
	fixups    []fixup
}

func scalarOnly(t hir.Type) bool {
	return t == hir.TypeI8 || t == hir.TypeI16 || t == hir.TypeI32 || t == hir.TypeI64
}

// lowerFunction attempts to compile fn to machine code. ok is false (with
// a nil buffer) whenever fn uses anything outside the supported scalar
// integer, call-free subset; the caller falls back to interpretation in
// that case rather than treating it as an error.
func lowerFunction(fn *hir.Function) (*codeBuffer, bool, error) {
	l := &lowerer{fn: fn, blockAddr: map[*hir.Block]int{}}
	if !l.supported() {
		return nil, false, nil
	}

	frameSize := (l.assignSlots() * 8)
	frameSize = (frameSize + 15) &^ 15 // 16 byte align the frame, standard x86-64 ABI hygiene

	code, err := newCodeBuffer(4096)
	if err != nil {
		return nil, false, err
	}
	l.code = code

	code.pushReg(rbp)
	code.movRegReg(rbp, rsp)
	if frameSize > 0 {
		code.subRegImm32(rsp, int32(frameSize))
	}

	for _, b := range fn.Blocks() {
		l.blockAddr[b] = code.pos()
		for _, instr := range b.Instrs() {
			l.lowerInstr(instr, frameSize)
		}
	}

	for _, fx := range l.fixups {
		target, ok := l.blockAddr[fx.target]
		if !ok {
			return nil, false, fmt.Errorf("x64: branch target block never laid out")
		}
		rel := int32(target - (fx.patchOffset + 4))
		code.patch32(fx.patchOffset, rel)
	}

	return code, true, nil
}

// supported pre-scans the whole function so lowering never has to abort
// partway through with an already-written, now-wasted code buffer.
func (l *lowerer) supported() bool {
	for _, instr := range l.fn.Instrs() {
		if instr.Dest != nil && !scalarOnly(instr.Dest.Type()) {
			return false
		}
		for _, op := range []hir.Operand{instr.Src1, instr.Src2, instr.Src3} {
			if op.Value != nil && !scalarOnly(op.Value.Type()) {
				return false
			}
		}
		switch instr.Op {
		case hir.OpCall, hir.OpCallTrue, hir.OpCallIndirect, hir.OpCallIndirectTrue,
			hir.OpLoadClock, hir.OpMulHi, hir.OpCntlz, hir.OpAddCarry,
			hir.OpDotProduct3, hir.OpDotProduct4, hir.OpSqrt, hir.OpRSqrt, hir.OpAbs,
			hir.OpDiv, hir.OpMulAdd, hir.OpMulSub,
			hir.OpExtract, hir.OpSplat, hir.OpPermute, hir.OpSwizzle,
			hir.OpVectorConvertI2F, hir.OpVectorConvertF2I,
			hir.OpVectorCompareEQ, hir.OpVectorCompareSGT, hir.OpVectorCompareSGE,
			hir.OpVectorCompareUGT, hir.OpVectorCompareUGE, hir.OpVectorCompareBounds,
			hir.OpVectorShl, hir.OpVectorShr, hir.OpVectorSha,
			hir.OpInsert, hir.OpPack, hir.OpUnpack,
			hir.OpCompareExchange, hir.OpAtomicExchange, hir.OpAtomicAdd, hir.OpAtomicSub,
			hir.OpLoadVectorShl, hir.OpLoadVectorShr,
			hir.OpMax, hir.OpMin:
			return false
		case hir.OpAdd, hir.OpSub:
			if instr.Flags&hir.FlagArithSetCarry != 0 {
				return false
			}
		case hir.OpByteSwap:
			if instr.Dest.Type() == hir.TypeI8 || instr.Dest.Type() == hir.TypeI16 {
				return false
			}
		case hir.OpLoadContext, hir.OpStoreContext:
			if _, ok := resolveContext(instr.Src1.Offset); !ok {
				return false
			}
		}
	}
	return true
}

// assignSlots numbers every dynamic Value's stack slot via its Tag
// field, the same scheme backend/interp's assignSlots uses (see that
// package's function.go) - just spent on stack offsets instead of a
// register-file index.
func (l *lowerer) assignSlots() int {
	slot := 1
	for _, instr := range l.fn.Instrs() {
		if instr.Dest != nil {
			instr.Dest.Tag = slot
			slot++
		}
	}
	l.numSlots = slot - 1
	return l.numSlots
}

func slotOffset(v *hir.Value) int32 { return -int32(v.Tag) * 8 }

func maskImm(t hir.Type) uint32 {
	switch t {
	case hir.TypeI8:
		return 0xFF
	case hir.TypeI16:
		return 0xFFFF
	case hir.TypeI32:
		return 0xFFFFFFFF
	default:
		return 0
	}
}

// loadOperand materializes op's Value into r: an immediate load for a
// compile-time constant, a stack load for a dynamic value.
func (l *lowerer) loadOperand(v *hir.Value, r reg) {
	if v.IsConstant() {
		l.code.movRegImm64(r, v.Constant().Lo)
		return
	}
	l.code.loadMem64(r, rbp, slotOffset(v))
}

func (l *lowerer) storeResult(dest *hir.Value, r reg) {
	if m := maskImm(dest.Type()); m != 0 {
		l.code.andRegImm32(r, m)
	}
	l.code.storeMem64(rbp, slotOffset(dest), r)
}

// epilogue restores rsp/rbp and returns, with the guest continuation
// address already sitting in rax.
func (l *lowerer) epilogue(frameSize int) {
	if frameSize > 0 {
		l.code.addRegImm32(rsp, int32(frameSize))
	}
	l.code.popReg(rbp)
	l.code.ret()
}

func (l *lowerer) lowerInstr(instr *hir.Instr, frameSize int) {
	c := l.code
	switch instr.Op {
	case hir.OpComment, hir.OpSourceOffset, hir.OpNop, hir.OpPrefetch,
		hir.OpDebugBreak, hir.OpInvalid:
		// OpInvalid ends the block same as RETURN below; handled there too
		// for blocks that have no other terminator.
		if instr.Op == hir.OpInvalid {
			c.movRegImm32(rax, 0)
			l.epilogue(frameSize)
		}
	case hir.OpDebugBreakTrue:
		// nothing to break into at this tier; operand has no side effect

	case hir.OpBranch:
		off := c.jmp()
		l.fixups = append(l.fixups, fixup{off, instr.Src1.Label.Block})
	case hir.OpBranchIf:
		l.loadOperand(instr.Src1.Value, rax)
		c.testRegReg(rax, rax)
		off := c.jcc(ccNE)
		l.fixups = append(l.fixups, fixup{off, instr.Src2.Label.Block})
		off2 := c.jmp()
		l.fixups = append(l.fixups, fixup{off2, instr.Src3.Label.Block})
	case hir.OpBranchTrue:
		l.loadOperand(instr.Src1.Value, rax)
		c.testRegReg(rax, rax)
		off := c.jcc(ccNE)
		l.fixups = append(l.fixups, fixup{off, instr.Src2.Label.Block})
	case hir.OpBranchFalse:
		l.loadOperand(instr.Src1.Value, rax)
		c.testRegReg(rax, rax)
		off := c.jcc(ccE)
		l.fixups = append(l.fixups, fixup{off, instr.Src2.Label.Block})

	case hir.OpReturn:
		f, _ := resolveContext(state.OffsetLR)
		c.loadMem64(rax, regThreadState, f.offset)
		l.epilogue(frameSize)
	case hir.OpReturnTrue:
		l.loadOperand(instr.Src1.Value, rbx)
		c.testRegReg(rbx, rbx)
		skip := c.jcc(ccE)
		f, _ := resolveContext(state.OffsetLR)
		c.loadMem64(rax, regThreadState, f.offset)
		l.epilogue(frameSize)
		c.patch32(skip, int32(c.pos()-(skip+4)))
	case hir.OpTrap, hir.OpTrapTrue:
		if instr.Op == hir.OpTrapTrue {
			l.loadOperand(instr.Src1.Value, rbx)
			c.testRegReg(rbx, rbx)
			skip := c.jcc(ccE)
			c.movRegImm32(rax, 0)
			l.epilogue(frameSize)
			c.patch32(skip, int32(c.pos()-(skip+4)))
		} else {
			c.movRegImm32(rax, 0)
			l.epilogue(frameSize)
		}

	case hir.OpAssign, hir.OpCast, hir.OpTruncate:
		l.loadOperand(instr.Src1.Value, rax)
		l.storeResult(instr.Dest, rax)
	case hir.OpZeroExtend:
		l.loadOperand(instr.Src1.Value, rax)
		if m := maskImm(instr.Src1.Value.Type()); m != 0 {
			c.andRegImm32(rax, m)
		}
		l.storeResult(instr.Dest, rax)
	case hir.OpSignExtend:
		l.loadOperand(instr.Src1.Value, rax)
		shiftCount := uint8(64 - instr.Src1.Value.Type().Bits())
		c.shiftImm8(shiftLeft, rax, shiftCount)
		c.shiftImm8(shiftRightArith, rax, shiftCount)
		l.storeResult(instr.Dest, rax)

	case hir.OpLoadContext:
		f, _ := resolveContext(instr.Src1.Offset)
		c.loadMem64(rax, regThreadState, f.offset)
		l.storeResult(instr.Dest, rax)
	case hir.OpStoreContext:
		f, _ := resolveContext(instr.Src1.Offset)
		l.loadOperand(instr.Src2.Value, rax)
		switch f.typ {
		case hir.TypeI32:
			c.storeMem32(regThreadState, f.offset, rax)
		default:
			c.storeMem64(regThreadState, f.offset, rax)
		}

	case hir.OpLoad:
		// Guest memory is big endian (memory.Flat, grounded on the PowerPC
		// convention) but every load/store here is a native little endian
		// x86 move, so every width wider than a byte needs an explicit
		// swap to land on the same value backend/interp computes via
		// encoding/binary.BigEndian.
		l.loadOperand(instr.Src1.Value, rax)
		c.andRegImm32(rax, 0xFFFFFFFF) // guest addresses are 32 bit
		c.alu(aluAdd, rax, regMemBase)
		switch instr.Dest.Type() {
		case hir.TypeI8:
			c.loadMem8(rax, rax, 0)
		case hir.TypeI16:
			c.loadMem16(rax, rax, 0)
			c.swap16Reg(rax)
		case hir.TypeI32:
			c.loadMem32(rax, rax, 0)
			c.bswapReg(rax, false)
		default:
			c.loadMem64(rax, rax, 0)
			c.bswapReg(rax, true)
		}
		l.storeResult(instr.Dest, rax)
	case hir.OpStore:
		l.loadOperand(instr.Src1.Value, rax)
		c.andRegImm32(rax, 0xFFFFFFFF)
		c.alu(aluAdd, rax, regMemBase)
		l.loadOperand(instr.Src2.Value, rbx)
		switch instr.Src2.Value.Type() {
		case hir.TypeI8:
			c.storeMem8(rax, 0, rbx)
		case hir.TypeI16:
			c.swap16Reg(rbx)
			c.storeMem16(rax, 0, rbx)
		case hir.TypeI32:
			c.bswapReg(rbx, false)
			c.storeMem32(rax, 0, rbx)
		default:
			c.bswapReg(rbx, true)
			c.storeMem64(rax, 0, rbx)
		}

	case hir.OpSelect:
		l.loadOperand(instr.Src1.Value, rax)
		c.testRegReg(rax, rax)
		elseJ := c.jcc(ccE)
		l.loadOperand(instr.Src2.Value, rbx)
		doneJ := c.jmp()
		c.patch32(elseJ, int32(c.pos()-(elseJ+4)))
		l.loadOperand(instr.Src3.Value, rbx)
		c.patch32(doneJ, int32(c.pos()-(doneJ+4)))
		l.storeResult(instr.Dest, rbx)

	case hir.OpIsTrue, hir.OpIsFalse:
		l.loadOperand(instr.Src1.Value, rax)
		c.testRegReg(rax, rax)
		want := ccNE
		if instr.Op == hir.OpIsFalse {
			want = ccE
		}
		c.setcc(want, rax)
		c.movzxReg8(rax, rax)
		l.storeResult(instr.Dest, rax)

	case hir.OpCompareEQ, hir.OpCompareNE, hir.OpCompareSLT, hir.OpCompareSLE,
		hir.OpCompareSGT, hir.OpCompareSGE, hir.OpCompareULT, hir.OpCompareULE,
		hir.OpCompareUGT, hir.OpCompareUGE:
		l.lowerCompare(instr)

	case hir.OpDidCarry:
		c.loadMem8(rax, regThreadState, realOffsetDidCarry)
		l.storeResult(instr.Dest, rax)
	case hir.OpDidOverflow:
		c.loadMem8(rax, regThreadState, realOffsetDidOverflow)
		l.storeResult(instr.Dest, rax)

	case hir.OpAdd:
		l.binAlu(instr, aluAdd)
	case hir.OpSub:
		l.binAlu(instr, aluSub)
	case hir.OpAnd:
		l.binAlu(instr, aluAnd)
	case hir.OpOr:
		l.binAlu(instr, aluOr)
	case hir.OpXor:
		l.binAlu(instr, aluXor)
	case hir.OpMul:
		l.loadOperand(instr.Src1.Value, rax)
		l.loadOperand(instr.Src2.Value, rbx)
		c.imulRegReg(rax, rbx)
		l.storeResult(instr.Dest, rax)
	case hir.OpNeg:
		l.loadOperand(instr.Src1.Value, rax)
		c.negReg(rax)
		l.storeResult(instr.Dest, rax)
	case hir.OpNot:
		l.loadOperand(instr.Src1.Value, rax)
		c.notReg(rax)
		l.storeResult(instr.Dest, rax)
	case hir.OpShl:
		l.shiftOp(instr, shiftLeft)
	case hir.OpShr:
		l.shiftOp(instr, shiftRightUns)
	case hir.OpSha:
		l.shiftArith(instr)
	case hir.OpRotateLeft:
		l.shiftOp(instr, shiftRotl)
	case hir.OpByteSwap:
		l.loadOperand(instr.Src1.Value, rax)
		c.bswapReg(rax, instr.Dest.Type() == hir.TypeI64)
		l.storeResult(instr.Dest, rax)
	}
}

func (l *lowerer) lowerCompare(instr *hir.Instr) {
	c := l.code
	l.loadOperand(instr.Src1.Value, rax)
	l.loadOperand(instr.Src2.Value, rbx)
	c.alu(aluCmp, rax, rbx)
	var cond cc
	switch instr.Op {
	case hir.OpCompareEQ:
		cond = ccE
	case hir.OpCompareNE:
		cond = ccNE
	case hir.OpCompareSLT:
		cond = ccL
	case hir.OpCompareSLE:
		cond = ccLE
	case hir.OpCompareSGT:
		cond = ccG
	case hir.OpCompareSGE:
		cond = ccGE
	case hir.OpCompareULT:
		cond = ccB
	case hir.OpCompareULE:
		cond = ccBE
	case hir.OpCompareUGT:
		cond = ccA
	case hir.OpCompareUGE:
		cond = ccAE
	}
	c.setcc(cond, rax)
	c.movzxReg8(rax, rax)
	l.storeResult(instr.Dest, rax)
}

func (l *lowerer) binAlu(instr *hir.Instr, op aluOp) {
	c := l.code
	l.loadOperand(instr.Src1.Value, rax)
	l.loadOperand(instr.Src2.Value, rbx)
	c.alu(op, rax, rbx)
	l.storeResult(instr.Dest, rax)
}

// shiftOp handles SHL/SHR/ROTATE_LEFT: the count operand is moved
// through rcx (required by the variable-count shift form), with the
// thread-state pointer rcx otherwise holds saved in the scratch register
// around the shift.
func (l *lowerer) shiftOp(instr *hir.Instr, kind shiftKind) {
	c := l.code
	l.loadOperand(instr.Src1.Value, rax)
	l.loadOperand(instr.Src2.Value, rbx)
	c.movRegReg(regScratch, regThreadState)
	c.movRegReg(regThreadState, rbx) // rcx = count
	c.shiftByCL(kind, rax)
	c.movRegReg(regThreadState, regScratch) // restore ts pointer
	l.storeResult(instr.Dest, rax)
}

// shiftArith is SHA: an arithmetic (sign-propagating) right shift, which
// needs its operand sign-extended to 64 bits first whenever its type is
// narrower than I64 - otherwise the sign bit the shift propagates is
// bit 63 instead of the operand's true top bit.
func (l *lowerer) shiftArith(instr *hir.Instr) {
	c := l.code
	l.loadOperand(instr.Src1.Value, rax)
	if bits := instr.Src1.Value.Type().Bits(); bits < 64 {
		c.shiftImm8(shiftLeft, rax, uint8(64-bits))
		c.shiftImm8(shiftRightArith, rax, uint8(64-bits))
	}
	l.loadOperand(instr.Src2.Value, rbx)
	c.movRegReg(regScratch, regThreadState)
	c.movRegReg(regThreadState, rbx)
	c.shiftByCL(shiftRightArith, rax)
	c.movRegReg(regThreadState, regScratch)
	l.storeResult(instr.Dest, rax)
}
