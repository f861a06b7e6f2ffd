/*
   Interp: CALL/CALL_INDIRECT dispatch.

   Copyright (c) 2024, the ppcjit authors.

   A non-tail CALL recurses: it resolves the target, runs it to
   completion via its own Execute (which itself absorbs any tail calls
   the callee makes), and then keeps going in this block, trusting the
   callee to have returned to the address this call site left in LR. A
   tail CALL instead ends this invocation outright and hands the target
   address upward, exactly like RETURN does with LR - the one difference
   being where the address comes from. This mirrors the CompiledFunction
   contract: only a tail exit (CALL with FlagCallTail, or RETURN) ever
   produces a continuation address that escapes this frame.
*/

package interp

import (
	"github.com/rcornwell/ppcjit/debugtrace"
	"github.com/rcornwell/ppcjit/hir"
)

// execCall handles one CALL/CALL_INDIRECT instruction. It reports
// (addr, true) when the call ends this invocation (a tail call), and
// (_, false) when the call was absorbed locally and the block should
// keep executing.
func (fr *frame) execCall(instr *hir.Instr) (uint64, bool) {
	if (instr.Op == hir.OpCallTrue || instr.Op == hir.OpCallIndirectTrue) && !fr.truthy(instr.Src1.Value) {
		return 0, false
	}

	var target uint64
	switch instr.Op {
	case hir.OpCall:
		target = instr.Src1.Symbol.Address
	case hir.OpCallTrue:
		target = instr.Src2.Symbol.Address
	case hir.OpCallIndirect:
		target = fr.readValue(instr.Src1.Value).Lo
	case hir.OpCallIndirectTrue:
		target = fr.readValue(instr.Src2.Value).Lo
	}

	tail := instr.Flags&hir.FlagCallTail != 0
	if fr.cf.traceFlags&uint32(debugtrace.FlagCall) != 0 {
		debugtrace.Call(fr.cf.fn.Address, target, tail)
	}

	if tail {
		return target, true
	}

	fr.invoke(target)
	return 0, false
}

// invoke resolves target through the owning runtime and runs it against
// this same ThreadState/Flat pair, discarding the continuation address
// it reports: a correctly generated `bl`/`blr` pair always returns to
// the address this call site already stored in LR before calling.
func (fr *frame) invoke(target uint64) {
	if fr.cf.rt == nil {
		return
	}
	info, err := fr.cf.rt.ResolveFunction(target, fr.cf.debugInfoFlags, fr.cf.traceFlags)
	if err != nil {
		return
	}
	if info.IsExtern() {
		info.ExternHandler(fr.ts, info.ExternArg0, info.ExternArg1)
		return
	}
	info.Function().Execute(fr.ts, fr.mem)
}
