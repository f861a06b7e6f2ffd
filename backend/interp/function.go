/*
   Interp: compiled-function container and the block execution loop.

   Copyright (c) 2024, the ppcjit authors.
*/

package interp

import (
	"github.com/rcornwell/ppcjit/hir"
	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/registry"
	"github.com/rcornwell/ppcjit/state"
)

// compiledFunction is what DefineFunction hands back: the translated HIR
// plus everything Execute needs to interpret it against a live
// ThreadState/Flat pair.
type compiledFunction struct {
	fn             *hir.Function
	rt             *registry.Runtime
	debugInfoFlags uint32
	traceFlags     uint32
	numSlots       int
}

// assignSlots is the interpreter's one-time "lowering" pass: every
// dynamic Value gets a register-file slot number stashed in its own Tag
// field (see hir.Value's doc comment), so Execute never has to walk the
// def-use graph again. Constants are never slotted; reads go through
// Value.Constant() instead.
func (cf *compiledFunction) assignSlots() {
	slot := 1
	for _, instr := range cf.fn.Instrs() {
		if instr.Dest != nil {
			instr.Dest.Tag = slot
			slot++
		}
	}
	cf.numSlots = slot - 1
}

// frame is one Execute call's mutable interpretation state: the register
// slots assignSlots numbered, plus the guest thread/memory it runs
// against.
type frame struct {
	cf   *compiledFunction
	ts   *state.ThreadState
	mem  *memory.Flat
	regs []hir.Const128
}

// Execute runs the function to completion and returns the guest address
// execution should continue at: its own return address (from RETURN,
// read out of LR), or a tail-call target (from a tail CALL/CALL_INDIRECT).
// Non-tail calls are resolved and interpreted recursively in place - see
// control.go - so by the time Execute returns, every nested non-tail call
// this invocation made has already run to completion.
func (cf *compiledFunction) Execute(ts *state.ThreadState, mem *memory.Flat) uint64 {
	fr := &frame{cf: cf, ts: ts, mem: mem, regs: make([]hir.Const128, cf.numSlots)}
	block := cf.fn.Entry()
	for {
		addr, next, done := fr.runBlock(block)
		if done {
			return addr
		}
		block = next
	}
}

// readValue resolves an operand Value to its Const128 payload: constants
// read straight off the Value, dynamic values come out of this frame's
// register file at their assigned slot.
func (fr *frame) readValue(v *hir.Value) hir.Const128 {
	if v == nil {
		return hir.Const128{}
	}
	if v.IsConstant() {
		return v.Constant()
	}
	return fr.regs[v.Tag-1]
}

func (fr *frame) writeValue(v *hir.Value, c hir.Const128) {
	fr.regs[v.Tag-1] = c
}

// runBlock interprets b's instructions in order. It returns (addr, nil,
// true) when b ends execution outright (RETURN/tail CALL/TRAP), or
// (0, next, false) when control continues at next within this same
// invocation (BRANCH family, or a fallen-through non-terminator block
// boundary that never actually occurs since every block here ends in a
// terminator by construction).
func (fr *frame) runBlock(b *hir.Block) (uint64, *hir.Block, bool) {
	for _, instr := range b.Instrs() {
		switch instr.Op {
		case hir.OpBranch:
			return 0, instr.Src1.Label.Block, false
		case hir.OpBranchIf:
			if fr.truthy(instr.Src1.Value) {
				return 0, instr.Src2.Label.Block, false
			}
			return 0, instr.Src3.Label.Block, false
		case hir.OpBranchTrue:
			if fr.truthy(instr.Src1.Value) {
				return 0, instr.Src2.Label.Block, false
			}
		case hir.OpBranchFalse:
			if !fr.truthy(instr.Src1.Value) {
				return 0, instr.Src2.Label.Block, false
			}
		case hir.OpCall, hir.OpCallTrue, hir.OpCallIndirect, hir.OpCallIndirectTrue:
			if addr, done := fr.execCall(instr); done {
				return addr, nil, true
			}
		case hir.OpReturn:
			return fr.ts.LR, nil, true
		case hir.OpReturnTrue:
			if fr.truthy(instr.Src1.Value) {
				return fr.ts.LR, nil, true
			}
		case hir.OpTrap, hir.OpTrapTrue:
			if instr.Op == hir.OpTrapTrue && !fr.truthy(instr.Src1.Value) {
				continue
			}
			// No OS/syscall model at this level: surface a sentinel
			// continuation address rather than panicking, leaving the
			// decision of what to do with an `sc` to the caller of
			// Execute.
			return 0, nil, true
		case hir.OpInvalid:
			return 0, nil, true
		default:
			fr.step(instr)
		}
	}
	// A well-formed function never falls off the end of a block without
	// a terminator; treat it the same as RETURN rather than panicking.
	return fr.ts.LR, nil, true
}

// truthy mirrors IS_TRUE: any nonzero low bits.
func (fr *frame) truthy(v *hir.Value) bool {
	return fr.readValue(v).Lo != 0
}
