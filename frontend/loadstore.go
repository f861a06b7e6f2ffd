/*
   Frontend: memory access emitters.

   Copyright (c) 2024, the ppcjit authors.
*/

package frontend

import (
	"github.com/rcornwell/ppcjit/decode"
	"github.com/rcornwell/ppcjit/hir"
)

// emitLoad handles the D-form scalar loads (lwz/lbz/lhz/lha).
func (t *Translator) emitLoad(d decode.InstrData, ty hir.Type, signed bool) {
	addr := t.ctx.EffectiveAddressD(d.RA, d.D)
	v := t.ctx.Load(ty, addr)
	if signed {
		v = t.ctx.SignExtend(hir.TypeI64, v)
	} else {
		v = t.ctx.ZeroExtend(hir.TypeI64, v)
	}
	t.ctx.StoreGPR(d.RT, v)
}

func (t *Translator) emitStore(d decode.InstrData, ty hir.Type) {
	addr := t.ctx.EffectiveAddressD(d.RA, d.D)
	v := t.ctx.Truncate(ty, t.ctx.LoadGPR(d.RS))
	t.ctx.Store(addr, v)
}

// emitLoadUpdate handles the D-form update loads (lwzu/lbzu/lhzu/lhau):
// identical to emitLoad, but the computed effective address also
// replaces RA, the same write-back lwzu etc. rely on for array-walking
// loops.
func (t *Translator) emitLoadUpdate(d decode.InstrData, ty hir.Type, signed bool) {
	addr := t.ctx.EffectiveAddressD(d.RA, d.D)
	v := t.ctx.Load(ty, addr)
	if signed {
		v = t.ctx.SignExtend(hir.TypeI64, v)
	} else {
		v = t.ctx.ZeroExtend(hir.TypeI64, v)
	}
	t.ctx.StoreGPR(d.RT, v)
	t.ctx.StoreGPR(d.RA, addr)
}

// emitStoreUpdate handles the D-form update stores (stwu/stbu/sthu).
func (t *Translator) emitStoreUpdate(d decode.InstrData, ty hir.Type) {
	addr := t.ctx.EffectiveAddressD(d.RA, d.D)
	v := t.ctx.Truncate(ty, t.ctx.LoadGPR(d.RS))
	t.ctx.Store(addr, v)
	t.ctx.StoreGPR(d.RA, addr)
}

// emitLmw implements `lmw rt,d(ra)`: loads consecutive words starting at
// EA into rt, rt+1, ..., r31.
func (t *Translator) emitLmw(d decode.InstrData) {
	base := t.ctx.EffectiveAddressD(d.RA, d.D)
	for r := d.RT; r <= 31; r++ {
		off := t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(uint64(r-d.RT)*4))
		addr := t.ctx.Add(hir.TypeI64, base, off)
		v := t.ctx.Load(hir.TypeI32, addr)
		t.ctx.StoreGPR(r, t.ctx.ZeroExtend(hir.TypeI64, v))
	}
}

// emitStmw implements `stmw rs,d(ra)`: the inverse of emitLmw.
func (t *Translator) emitStmw(d decode.InstrData) {
	base := t.ctx.EffectiveAddressD(d.RA, d.D)
	for r := d.RT; r <= 31; r++ {
		off := t.ctx.LoadConstant(hir.TypeI64, hir.ConstFromU64(uint64(r-d.RT)*4))
		addr := t.ctx.Add(hir.TypeI64, base, off)
		v := t.ctx.Truncate(hir.TypeI32, t.ctx.LoadGPR(r))
		t.ctx.Store(addr, v)
	}
}

// emitLoadIndexed handles the X-form indexed loads (lwzx/lbzx/...).
func (t *Translator) emitLoadIndexed(d decode.InstrData, ty hir.Type, signed bool) {
	addr := t.ctx.EffectiveAddress(d.RA, d.RB)
	v := t.ctx.Load(ty, addr)
	if signed {
		v = t.ctx.SignExtend(hir.TypeI64, v)
	} else {
		v = t.ctx.ZeroExtend(hir.TypeI64, v)
	}
	t.ctx.StoreGPR(d.RT, v)
}

func (t *Translator) emitStoreIndexed(d decode.InstrData, ty hir.Type) {
	addr := t.ctx.EffectiveAddress(d.RA, d.RB)
	v := t.ctx.Truncate(ty, t.ctx.LoadGPR(d.RS))
	t.ctx.Store(addr, v)
}

// emitLvx implements `lvx vd, ra, rb`: EA = ra? GPR[ra]+GPR[rb] : GPR[rb];
// VR[vd] = ByteSwap(Load128(EA)). The host is little-endian relative to
// the big-endian guest, so a ByteSwap always follows a V128 memory load;
// 16 byte alignment is enforced by the memory layer itself (see
// memory.Flat.Load128), which masks the low address bits.
func (t *Translator) emitLvx(vd, ra, rb uint32) {
	addr := t.ctx.EffectiveAddress(ra, rb)
	v := t.ctx.Load(hir.TypeV128, addr)
	t.ctx.StoreVR(vd, t.ctx.ByteSwap(hir.TypeV128, v))
}

// emitStvx implements `stvx vd, ra, rb`: the inverse of emitLvx.
func (t *Translator) emitStvx(vd, ra, rb uint32) {
	addr := t.ctx.EffectiveAddress(ra, rb)
	v := t.ctx.ByteSwap(hir.TypeV128, t.ctx.LoadVR(vd))
	t.ctx.Store(addr, v)
}
