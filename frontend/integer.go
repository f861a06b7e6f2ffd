/*
   Frontend: integer arithmetic and logical emitters.

   Copyright (c) 2024, the ppcjit authors.
*/

package frontend

import (
	"github.com/rcornwell/ppcjit/decode"
	"github.com/rcornwell/ppcjit/hir"
	"github.com/rcornwell/ppcjit/state"
)

const crOffset = state.OffsetCR

func (t *Translator) emitAddi(d decode.InstrData) {
	base := t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(0))
	if d.RA != 0 {
		base = t.ctx.LoadGPR(d.RA)
	}
	imm := t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(uint64(int64(d.D))))
	t.ctx.StoreGPR(d.RT, t.ctx.Add(hir.TypeI64, base, imm))
}

func (t *Translator) emitAddis(d decode.InstrData) {
	base := t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(0))
	if d.RA != 0 {
		base = t.ctx.LoadGPR(d.RA)
	}
	imm := t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(uint64(int64(d.D)<<16)))
	t.ctx.StoreGPR(d.RT, t.ctx.Add(hir.TypeI64, base, imm))
}

// emitAdd implements `add` and, when setCarry is true, `addc`, the
// FAM-31 XO record that sets XER[CA]: the spec's AddSetCarry
// contract attaches a DID_CARRY companion read immediately after.
func (t *Translator) emitAdd(d decode.InstrData, setCarry bool) {
	a := t.ctx.LoadGPR(d.RA)
	b := t.ctx.LoadGPR(d.RB)
	var result *hir.Value
	if setCarry {
		result = t.ctx.AddSetCarry(hir.TypeI64, a, b)
		carry := t.ctx.DidCarry()
		t.storeCarryFlag(carry)
	} else {
		result = t.ctx.Add(hir.TypeI64, a, b)
	}
	t.ctx.StoreGPR(d.RT, result)
}

// emitSubf implements `subf`/`subfc`: dest = rb - ra, the reversed
// operand order PPC's SUB_T always uses. setCarry mirrors emitAdd's
// AddSetCarry/DID_CARRY companion-read pattern for the carry-producing
// `subfc` form.
func (t *Translator) emitSubf(d decode.InstrData, setCarry bool) {
	a := t.ctx.LoadGPR(d.RA)
	b := t.ctx.LoadGPR(d.RB)
	var result *hir.Value
	if setCarry {
		result = t.ctx.SubSetCarry(hir.TypeI64, b, a)
		carry := t.ctx.DidCarry()
		t.storeCarryFlag(carry)
	} else {
		result = t.ctx.Sub(hir.TypeI64, b, a)
	}
	t.ctx.StoreGPR(d.RT, result)
}

func (t *Translator) emitMullw(d decode.InstrData) {
	a := t.ctx.SignExtend(hir.TypeI64, t.ctx.Truncate(hir.TypeI32, t.ctx.LoadGPR(d.RA)))
	b := t.ctx.SignExtend(hir.TypeI64, t.ctx.Truncate(hir.TypeI32, t.ctx.LoadGPR(d.RB)))
	t.ctx.StoreGPR(d.RT, t.ctx.Mul(hir.TypeI64, a, b))
}

func (t *Translator) emitLogical(d decode.InstrData, op func(hir.Type, *hir.Value, *hir.Value) *hir.Value) {
	a := t.ctx.LoadGPR(d.RS)
	b := t.ctx.LoadGPR(d.RB)
	t.ctx.StoreGPR(d.RA, op(hir.TypeI64, a, b))
}

func (t *Translator) emitAndiDot(d decode.InstrData) {
	a := t.ctx.LoadGPR(d.RS)
	imm := t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(uint64(uint16(d.Word))))
	t.ctx.StoreGPR(d.RA, t.ctx.And(hir.TypeI64, a, imm))
}

func (t *Translator) emitOri(d decode.InstrData) {
	a := t.ctx.LoadGPR(d.RS)
	imm := t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(uint64(uint16(d.Word))))
	t.ctx.StoreGPR(d.RA, t.ctx.Or(hir.TypeI64, a, imm))
}

func (t *Translator) emitXori(d decode.InstrData) {
	a := t.ctx.LoadGPR(d.RS)
	imm := t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(uint64(uint16(d.Word))))
	t.ctx.StoreGPR(d.RA, t.ctx.Xor(hir.TypeI64, a, imm))
}

func (t *Translator) emitExtsb(d decode.InstrData) {
	v := t.ctx.Truncate(hir.TypeI8, t.ctx.LoadGPR(d.RS))
	t.ctx.StoreGPR(d.RA, t.ctx.SignExtend(hir.TypeI64, v))
}

func (t *Translator) emitExtsh(d decode.InstrData) {
	v := t.ctx.Truncate(hir.TypeI16, t.ctx.LoadGPR(d.RS))
	t.ctx.StoreGPR(d.RA, t.ctx.SignExtend(hir.TypeI64, v))
}

func (t *Translator) emitNeg(d decode.InstrData) {
	t.ctx.StoreGPR(d.RT, t.ctx.Neg(hir.TypeI64, t.ctx.LoadGPR(d.RA)))
}

func (t *Translator) emitCntlzw(d decode.InstrData) {
	v := t.ctx.Truncate(hir.TypeI32, t.ctx.LoadGPR(d.RS))
	t.ctx.StoreGPR(d.RA, t.ctx.ZeroExtend(hir.TypeI64, t.ctx.CountLeadingZeros(hir.TypeI32, v)))
}

// emitMfcr copies the whole condition register into RT, matching the
// common (non field-selecting) compiler-generated form.
func (t *Translator) emitMfcr(d decode.InstrData) {
	cr := t.ctx.LoadContext(hir.TypeI32, crOffset)
	t.ctx.StoreGPR(d.RT, t.ctx.ZeroExtend(hir.TypeI64, cr))
}

// emitMtcrf writes RS into every CR field selected by the FXM mask (bits
// 12-19 of the word); the common case used by compilers sets FXM = 0xFF,
// replacing the whole register.
func (t *Translator) emitMtcrf(d decode.InstrData) {
	fxm := (d.Word >> 12) & 0xFF
	mask := uint32(0)
	for i := 0; i < 8; i++ {
		if fxm&(1<<uint(7-i)) != 0 {
			mask |= 0xF << uint(4*(7-i))
		}
	}
	old := t.ctx.LoadContext(hir.TypeI32, crOffset)
	rs := t.ctx.Truncate(hir.TypeI32, t.ctx.LoadGPR(d.RS))
	maskVal := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(uint64(mask)))
	merged := t.ctx.Or(hir.TypeI32,
		t.ctx.And(hir.TypeI32, old, t.ctx.Not(hir.TypeI32, maskVal)),
		t.ctx.And(hir.TypeI32, rs, maskVal))
	t.ctx.StoreContext(crOffset, merged)
}
