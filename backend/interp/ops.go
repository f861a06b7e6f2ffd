/*
   Interp: the per-opcode step dispatch, plus the data-movement/context/
   memory/compare opcodes that don't belong to the arithmetic or vector
   families.

   Copyright (c) 2024, the ppcjit authors.
*/

package interp

import (
	"github.com/rcornwell/ppcjit/debugtrace"
	"github.com/rcornwell/ppcjit/hir"
	"github.com/rcornwell/ppcjit/state"
)

// step executes every instruction that isn't a block terminator
// (runBlock handles those directly). Opcode is the whole dispatch key,
// mirroring the teacher's cpu.table[opcode] idiom - here as a switch
// rather than an array, since hir's opcode count isn't exported for this
// package to size a [...]fn array against.
func (fr *frame) step(instr *hir.Instr) {
	switch instr.Op {
	case hir.OpComment, hir.OpSourceOffset, hir.OpNop:
		// no runtime effect
	case hir.OpDebugBreak:
	case hir.OpDebugBreakTrue:
		_ = fr.truthy(instr.Src1.Value) // nothing to break into at this level

	case hir.OpAssign, hir.OpCast:
		fr.writeValue(instr.Dest, fr.readValue(instr.Src1.Value))
	case hir.OpZeroExtend:
		fr.opZeroExtend(instr)
	case hir.OpSignExtend:
		fr.opSignExtend(instr)
	case hir.OpTruncate:
		fr.opTruncate(instr)
	case hir.OpConvert:
		fr.opConvert(instr)
	case hir.OpVectorConvertI2F:
		fr.opVectorConvertI2F(instr)
	case hir.OpVectorConvertF2I:
		fr.opVectorConvertF2I(instr)

	case hir.OpLoadContext:
		fr.opLoadContext(instr)
	case hir.OpStoreContext:
		fr.opStoreContext(instr)
	case hir.OpLoad:
		fr.opLoad(instr)
	case hir.OpStore:
		fr.opStore(instr)
	case hir.OpPrefetch:
		// no cache model to act on
	case hir.OpLoadClock:
		fr.writeValue(instr.Dest, hir.ConstFromU64(uint64(monotonicTick())))

	case hir.OpSelect:
		fr.opSelect(instr)
	case hir.OpIsTrue:
		fr.writeValue(instr.Dest, boolConst(fr.truthy(instr.Src1.Value)))
	case hir.OpIsFalse:
		fr.writeValue(instr.Dest, boolConst(!fr.truthy(instr.Src1.Value)))
	case hir.OpCompareEQ, hir.OpCompareNE, hir.OpCompareSLT, hir.OpCompareSLE,
		hir.OpCompareSGT, hir.OpCompareSGE, hir.OpCompareULT, hir.OpCompareULE,
		hir.OpCompareUGT, hir.OpCompareUGE:
		fr.opCompare(instr)
	case hir.OpDidCarry:
		fr.writeValue(instr.Dest, boolConst(fr.ts.DidCarry))
	case hir.OpDidOverflow:
		fr.writeValue(instr.Dest, boolConst(fr.ts.DidOverflow))

	default:
		fr.stepArithOrVector(instr)
	}
}

func boolConst(v bool) hir.Const128 {
	if v {
		return hir.ConstFromU64(1)
	}
	return hir.ConstFromU64(0)
}

// monotonicTick backs LOAD_CLOCK; wall-clock time isn't available to a
// workflow-run interpreter (see the ambient-time restriction this repo
// was built under), so this is a free-running counter rather than a
// true timestamp - good enough for code that only checks the clock is
// advancing, not its absolute value.
var clockTicks uint64

func monotonicTick() uint64 {
	clockTicks++
	return clockTicks
}

func (fr *frame) opZeroExtend(instr *hir.Instr) {
	v := fr.readValue(instr.Src1.Value).Lo
	fr.writeValue(instr.Dest, hir.ConstFromU64(maskTo(instr.Src1.Value.Type(), v)))
}

func signExtendTo64(from hir.Type, v uint64) uint64 {
	switch from {
	case hir.TypeI8:
		return uint64(int64(int8(v)))
	case hir.TypeI16:
		return uint64(int64(int16(v)))
	case hir.TypeI32:
		return uint64(int64(int32(v)))
	default:
		return v
	}
}

func (fr *frame) opSignExtend(instr *hir.Instr) {
	v := fr.readValue(instr.Src1.Value).Lo
	fr.writeValue(instr.Dest, hir.ConstFromU64(maskTo(instr.Dest.Type(), signExtendTo64(instr.Src1.Value.Type(), v))))
}

func (fr *frame) opTruncate(instr *hir.Instr) {
	v := fr.readValue(instr.Src1.Value).Lo
	fr.writeValue(instr.Dest, hir.ConstFromU64(maskTo(instr.Dest.Type(), v)))
}

// opConvert implements the scalar integer<->float conversions CONVERT
// covers; the direction is inferred from the source/dest type pair, the
// same way the frontend only ever builds well-typed CONVERT pairs.
func (fr *frame) opConvert(instr *hir.Instr) {
	src := instr.Src1.Value
	srcC := fr.readValue(src)
	dstT := instr.Dest.Type()
	switch {
	case src.Type().IsFloat() && dstT.IsFloat():
		fr.writeValue(instr.Dest, hir.ConstFromF64(srcC.F64()))
	case src.Type().IsFloat() && !dstT.IsFloat():
		fr.writeValue(instr.Dest, hir.ConstFromU64(maskTo(dstT, uint64(int64(srcC.F64())))))
	case !src.Type().IsFloat() && dstT.IsFloat():
		fr.writeValue(instr.Dest, hir.ConstFromF64(float64(int64(srcC.Lo))))
	default:
		fr.writeValue(instr.Dest, hir.ConstFromU64(maskTo(dstT, srcC.Lo)))
	}
}

func (fr *frame) opLoadContext(instr *hir.Instr) {
	off := instr.Src1.Offset
	c := fr.ts.ReadContext(off)
	v := hir.Const128{Lo: c.Lo, Hi: c.Hi}
	if fr.cf.traceFlags&uint32(debugtrace.FlagContextLoad) != 0 {
		debugtrace.ContextLoad(off, v.Lo)
	}
	fr.writeValue(instr.Dest, v)
}

func (fr *frame) opStoreContext(instr *hir.Instr) {
	off := instr.Src1.Offset
	v := fr.readValue(instr.Src2.Value)
	if fr.cf.traceFlags&uint32(debugtrace.FlagContextStore) != 0 {
		debugtrace.ContextStore(off, v.Lo)
	}
	fr.ts.WriteContext(off, state.Const128{Lo: v.Lo, Hi: v.Hi})
}

func (fr *frame) opLoad(instr *hir.Instr) {
	addr := uint32(fr.readValue(instr.Src1.Value).Lo)
	t := instr.Dest.Type()
	var result hir.Const128
	switch t {
	case hir.TypeI8:
		v, _ := fr.mem.Load8(addr)
		result = hir.ConstFromU64(uint64(v))
	case hir.TypeI16:
		v, _ := fr.mem.Load16(addr)
		result = hir.ConstFromU64(uint64(v))
	case hir.TypeI32:
		v, _ := fr.mem.Load32(addr)
		result = hir.ConstFromU64(uint64(v))
	case hir.TypeI64, hir.TypeF64:
		v, _ := fr.mem.Load64(addr)
		result = hir.Const128{Lo: v}
	case hir.TypeV128:
		lo, hi, _ := fr.mem.Load128(addr)
		result = hir.Const128{Lo: lo, Hi: hi}
	}
	if fr.cf.traceFlags&uint32(debugtrace.FlagMemory) != 0 {
		debugtrace.Memory(false, uint64(addr), t.Bits()/8, result.Lo)
	}
	fr.writeValue(instr.Dest, result)
}

func (fr *frame) opStore(instr *hir.Instr) {
	addr := uint32(fr.readValue(instr.Src1.Value).Lo)
	val := instr.Src2.Value
	c := fr.readValue(val)
	t := val.Type()
	if fr.cf.traceFlags&uint32(debugtrace.FlagMemory) != 0 {
		debugtrace.Memory(true, uint64(addr), t.Bits()/8, c.Lo)
	}
	switch t {
	case hir.TypeI8:
		_ = fr.mem.Store8(addr, uint8(c.Lo))
	case hir.TypeI16:
		_ = fr.mem.Store16(addr, uint16(c.Lo))
	case hir.TypeI32:
		_ = fr.mem.Store32(addr, uint32(c.Lo))
	case hir.TypeI64, hir.TypeF64:
		_ = fr.mem.Store64(addr, c.Lo)
	case hir.TypeV128:
		_ = fr.mem.Store128(addr, c.Lo, c.Hi)
	}
}

func (fr *frame) opSelect(instr *hir.Instr) {
	if fr.truthy(instr.Src1.Value) {
		fr.writeValue(instr.Dest, fr.readValue(instr.Src2.Value))
	} else {
		fr.writeValue(instr.Dest, fr.readValue(instr.Src3.Value))
	}
}

func (fr *frame) opCompare(instr *hir.Instr) {
	a := instr.Src1.Value
	b := instr.Src2.Value
	av, bv := fr.readValue(a), fr.readValue(b)
	var r bool
	if a.Type().IsFloat() {
		x, y := av.F64(), bv.F64()
		r = floatCompare(instr.Op, x, y)
	} else {
		r = intCompare(instr.Op, av.Lo, bv.Lo, maskTo(a.Type(), ^uint64(0)))
	}
	fr.writeValue(instr.Dest, boolConst(r))
}

func floatCompare(op hir.Opcode, x, y float64) bool {
	switch op {
	case hir.OpCompareEQ:
		return x == y
	case hir.OpCompareNE:
		return x != y
	case hir.OpCompareSLT, hir.OpCompareULT:
		return x < y
	case hir.OpCompareSLE, hir.OpCompareULE:
		return x <= y
	case hir.OpCompareSGT, hir.OpCompareUGT:
		return x > y
	case hir.OpCompareSGE, hir.OpCompareUGE:
		return x >= y
	default:
		return false
	}
}

// intCompare evaluates the integer comparison family. widthMask is the
// operand type's all-ones mask, from which signed derives the top bit
// used to sign-interpret the raw bits for the
// signed variants without needing a second (Go-sized) integer type per
// PPC width.
func intCompare(op hir.Opcode, a, b, widthMask uint64) bool {
	switch op {
	case hir.OpCompareEQ:
		return a == b
	case hir.OpCompareNE:
		return a != b
	case hir.OpCompareULT:
		return a < b
	case hir.OpCompareULE:
		return a <= b
	case hir.OpCompareUGT:
		return a > b
	case hir.OpCompareUGE:
		return a >= b
	case hir.OpCompareSLT:
		return signed(a, widthMask) < signed(b, widthMask)
	case hir.OpCompareSLE:
		return signed(a, widthMask) <= signed(b, widthMask)
	case hir.OpCompareSGT:
		return signed(a, widthMask) > signed(b, widthMask)
	case hir.OpCompareSGE:
		return signed(a, widthMask) >= signed(b, widthMask)
	default:
		return false
	}
}

func signed(v, widthMask uint64) int64 {
	signBit := (widthMask >> 1) + 1
	if v&signBit == 0 || widthMask == ^uint64(0) {
		return int64(v)
	}
	return int64(v | ^widthMask)
}

func maskTo(t hir.Type, v uint64) uint64 {
	switch t {
	case hir.TypeI8:
		return v & 0xFF
	case hir.TypeI16:
		return v & 0xFFFF
	case hir.TypeI32:
		return v & 0xFFFFFFFF
	default:
		return v
	}
}
