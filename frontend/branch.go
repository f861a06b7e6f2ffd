/*
   Frontend: branch emitters.

   Copyright (c) 2024, the ppcjit authors.
*/

package frontend

import (
	"fmt"

	"github.com/rcornwell/ppcjit/decode"
	"github.com/rcornwell/ppcjit/hir"
	"github.com/rcornwell/ppcjit/state"
)

// externalTargets caches the synthetic blocks built for branch targets
// that fall outside the translation window: a tail call out, then return.
func (t *Translator) externalTarget(target uint64) *hir.Label {
	if t.externals == nil {
		t.externals = map[uint64]*hir.Block{}
	}
	if b, ok := t.externals[target]; ok {
		return b.Label
	}
	saved := t.ctx.Block()
	b := t.fn.NewBlock()
	t.externals[target] = b
	t.ctx.SetBlock(b)
	t.ctx.Call(&hir.Symbol{Address: target}, true)
	t.ctx.Return()
	t.ctx.SetBlock(saved)
	return b.Label
}

func (t *Translator) labelFor(target uint64) *hir.Label {
	if b, ok := t.blocks[target]; ok {
		return b.Label
	}
	return t.externalTarget(target)
}

func (t *Translator) emitB(addr uint64, d decode.InstrData) {
	target := computeTarget(addr, d, true)
	if d.LK != 0 {
		t.setLinkRegister(addr + 4)
		t.ctx.Call(&hir.Symbol{Address: target}, false)
		return
	}
	if b, ok := t.blocks[target]; ok {
		t.ctx.Branch(b.Label)
		return
	}
	t.ctx.Call(&hir.Symbol{Address: target}, true)
	t.ctx.Return()
}

// setLinkRegister stores the return address a `bl`/`bcl`/`bclrl`/`bcctrl`
// leaves behind, mirroring the ABI contract blr later reads back.
func (t *Translator) setLinkRegister(retAddr uint64) {
	t.ctx.StoreContext(state.OffsetLR, t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(retAddr)))
}

// conditionValue implements the common BO encodings that test a single CR
// bit directly (branch-if-set / branch-if-clear), the overwhelming
// majority of compiler-generated `bc`. The CTR-decrementing BO forms
// (bdnz/bdz and their CR-combined variants) are not modeled; unrecognized
// BO values fall back to "always taken", matching an unconditional branch
// rather than silently miscompiling a conditional one undetected.
func (t *Translator) conditionValue(BO, BI uint32) *hir.Value {
	cr := t.ctx.LoadContext(hir.TypeI32, state.OffsetCR)
	shift := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(31-BI)))
	bit := t.ctx.And(hir.TypeI32, t.ctx.Shr(hir.TypeI32, cr, shift), t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(1)))
	zero := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(0))
	switch BO {
	case 12, 14, 15: // branch if CR bit set (BO bit 3 and BO bit 4 variants used by bt)
		return t.ctx.CompareNE(bit, zero)
	case 4, 6, 7: // branch if CR bit clear (bf)
		return t.ctx.CompareEQ(bit, zero)
	default:
		return t.ctx.LoadConstant(hir.TypeI8, hir.ConstFromU64(1))
	}
}

func (t *Translator) emitBC(addr uint64, d decode.InstrData) {
	taken := computeTarget(addr, d, false)
	fallthroughAddr := addr + 4
	cond := t.conditionValue(d.BO, d.BI)
	t.ctx.BranchIf(cond, t.labelFor(taken), t.labelFor(fallthroughAddr))
}

// crBit loads CR bit i (0 = the CR0:LT bit, PPC MSB-first numbering) as
// a 0/1 TypeI32 value.
func (t *Translator) crBit(i uint32) *hir.Value {
	cr := t.ctx.LoadContext(hir.TypeI32, state.OffsetCR)
	shift := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(31-i)))
	return t.ctx.And(hir.TypeI32, t.ctx.Shr(hir.TypeI32, cr, shift), t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(1)))
}

func (t *Translator) storeCRBit(i uint32, bit *hir.Value) {
	cr := t.ctx.LoadContext(hir.TypeI32, state.OffsetCR)
	mask := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(^(uint64(1) << (31 - i))))
	cleared := t.ctx.And(hir.TypeI32, cr, mask)
	shift := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(31-i)))
	t.ctx.StoreContext(state.OffsetCR, t.ctx.Or(hir.TypeI32, cleared, t.ctx.Shl(hir.TypeI32, bit, shift)))
}

// emitXL handles primary opcode 19: branch-to-LR/CTR and the CR logical
// ops, all sharing the X/XO bitfield layout decode.InstrData.XO already
// extracts. bclr/bcctr's BO-conditional forms fall back to "always taken",
// the same simplification conditionValue documents for bc.
func (t *Translator) emitXL(d decode.InstrData) error {
	switch d.XO {
	case decode.XLBclr:
		t.ctx.Return()
	case decode.XLBcctr:
		target := t.ctx.LoadContext(hir.TypeI64, state.OffsetCTR)
		t.ctx.CallIndirect(target, true)
		t.ctx.Return()
	case decode.XLCrand, decode.XLCror, decode.XLCrxor, decode.XLCrnand,
		decode.XLCrnor, decode.XLCreqv, decode.XLCrandc, decode.XLCrorc:
		a := t.crBit(d.RA)
		b := t.crBit(d.RB)
		var r *hir.Value
		switch d.XO {
		case decode.XLCrand:
			r = t.ctx.And(hir.TypeI32, a, b)
		case decode.XLCror:
			r = t.ctx.Or(hir.TypeI32, a, b)
		case decode.XLCrxor:
			r = t.ctx.Xor(hir.TypeI32, a, b)
		case decode.XLCrnand:
			r = t.ctx.Not(hir.TypeI32, t.ctx.And(hir.TypeI32, a, b))
		case decode.XLCrnor:
			r = t.ctx.Not(hir.TypeI32, t.ctx.Or(hir.TypeI32, a, b))
		case decode.XLCreqv:
			r = t.ctx.Not(hir.TypeI32, t.ctx.Xor(hir.TypeI32, a, b))
		case decode.XLCrandc:
			r = t.ctx.And(hir.TypeI32, a, t.ctx.Not(hir.TypeI32, b))
		case decode.XLCrorc:
			r = t.ctx.Or(hir.TypeI32, a, t.ctx.Not(hir.TypeI32, b))
		}
		t.storeCRBit(d.RT, t.ctx.And(hir.TypeI32, r, t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(1))))
	case decode.XLIsync:
		// no-op at this abstraction level: no speculative execution to flush.
	default:
		return fmt.Errorf("%w: XL form XO %d", ErrInvalidInstruction, d.XO)
	}
	return nil
}
