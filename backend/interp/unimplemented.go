/*
   Interp: opcodes no current frontend emitter produces.

   Copyright (c) 2024, the ppcjit authors.

   INSERT/PACK/UNPACK back the VMX128 lane-insert and format-conversion
   instructions the frontend doesn't decode yet (vpkd3d128 and friends);
   COMPARE_EXCHANGE/ATOMIC_* back the lwarx/stwcx reservation pair, also
   not yet decoded. Each panics loudly rather than silently miscomputing,
   so the day the frontend starts emitting one of these it fails at the
   first call instead of producing a wrong answer that passes review.
   LOAD_VECTOR_SHL/SHR used to live on this list too, but they have fixed
   ISA-defined semantics independent of any call site, so vector.go gives
   them a real lvsl/lvsr implementation instead of a stub.
*/

package interp

import (
	"fmt"

	"github.com/rcornwell/ppcjit/hir"
)

func (fr *frame) stepUnimplemented(instr *hir.Instr) {
	panic(fmt.Sprintf("interp: opcode %s has no interpreter handler", instr.Op))
}
