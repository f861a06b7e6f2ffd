/*
   x64: mapping LOAD_CONTEXT/STORE_CONTEXT offsets to real ThreadState
   byte offsets.

   Copyright (c) 2024, the ppcjit authors.

   state.OffsetGPR0 and friends are a symbolic numbering scheme, not true
   struct offsets: backend/interp never does unsafe pointer arithmetic
   with them, it only range-compares (see state.ReadContext). Go's
   compiler inserts padding ahead of ThreadState.LR to satisfy its 8 byte
   alignment, so the symbolic OffsetLR/OffsetCTR constants land 4 bytes
   short of where LR/CTR actually live in memory. Code that issues a raw
   `mov [rcx+disp], reg` has to use the real offsets, computed once via
   unsafe.Offsetof rather than assumed equal to the symbolic ones.
*/

package x64

import (
	"unsafe"

	"github.com/rcornwell/ppcjit/hir"
	"github.com/rcornwell/ppcjit/state"
)

var (
	realOffsetGPR0  = int32(unsafe.Offsetof(state.ThreadState{}.GPR))
	realOffsetFPR0  = int32(unsafe.Offsetof(state.ThreadState{}.FPR))
	realOffsetVR0   = int32(unsafe.Offsetof(state.ThreadState{}.VR))
	realOffsetCR    = int32(unsafe.Offsetof(state.ThreadState{}.CR))
	realOffsetXER   = int32(unsafe.Offsetof(state.ThreadState{}.XER))
	realOffsetFPSCR = int32(unsafe.Offsetof(state.ThreadState{}.FPSCR))
	realOffsetLR    = int32(unsafe.Offsetof(state.ThreadState{}.LR))
	realOffsetCTR   = int32(unsafe.Offsetof(state.ThreadState{}.CTR))

	realOffsetDidCarry    = int32(unsafe.Offsetof(state.ThreadState{}.DidCarry))
	realOffsetDidOverflow = int32(unsafe.Offsetof(state.ThreadState{}.DidOverflow))
)

// ctxField describes one addressable scalar context field: its real
// byte offset into ThreadState and the HIR type it carries. VR (V128)
// is deliberately excluded - LOAD_CONTEXT/STORE_CONTEXT on a vector
// register is one of the cases lower.go bails out on, falling the whole
// function back to the interpreter, since this backend's stack-slot
// model only ever holds a single 64 bit GPR-sized value per slot.
type ctxField struct {
	offset int32
	typ    hir.Type
}

// resolveContext translates a LOAD_CONTEXT/STORE_CONTEXT symbolic offset
// into its real ThreadState field, or ok=false for VR/unrecognized
// ranges that this backend doesn't lower directly.
func resolveContext(symbolic uint64) (ctxField, bool) {
	switch {
	case symbolic < state.OffsetFPR0:
		idx := int32((symbolic - state.OffsetGPR0) / 8)
		return ctxField{realOffsetGPR0 + idx*8, hir.TypeI64}, true
	case symbolic < state.OffsetVR0:
		idx := int32((symbolic - state.OffsetFPR0) / 8)
		return ctxField{realOffsetFPR0 + idx*8, hir.TypeF64}, true
	case symbolic < state.OffsetCR:
		return ctxField{}, false
	case symbolic == state.OffsetCR:
		return ctxField{realOffsetCR, hir.TypeI32}, true
	case symbolic == state.OffsetXER:
		return ctxField{realOffsetXER, hir.TypeI32}, true
	case symbolic == state.OffsetFPSCR:
		return ctxField{realOffsetFPSCR, hir.TypeI32}, true
	case symbolic == state.OffsetLR:
		return ctxField{realOffsetLR, hir.TypeI64}, true
	case symbolic == state.OffsetCTR:
		return ctxField{realOffsetCTR, hir.TypeI64}, true
	default:
		return ctxField{}, false
	}
}
