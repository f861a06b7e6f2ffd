/*
   Frontend: PPC -> HIR translation loop.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on the teacher's main fetch/execute loop (emu/cpu/cpu.go) and
   its createTable()-built opcode dispatch (cpu.table [256]func(*stepInfo)
   uint16): here the dispatch table is built once over the PPC primary
   opcode plus a handful of per-family secondary tables, and instead of
   interpreting each instruction it emits HIR for it.
*/

package frontend

import (
	"fmt"

	"github.com/rcornwell/ppcjit/decode"
	"github.com/rcornwell/ppcjit/hir"
	"github.com/rcornwell/ppcjit/state"
)

// ErrInvalidInstruction is returned when Translate hits a bit pattern it
// doesn't recognize; the caller (registry's Backend.DefineFunction) marks
// the function FAILED.
var ErrInvalidInstruction = fmt.Errorf("frontend: invalid instruction")

// Translator turns a window of PPC instruction words, starting at a guest
// address, into an hir.Function. It supports straight-line code plus
// internal conditional/unconditional branches that target another word
// within the same window; branches outside the window, calls and returns
// terminate the function.
type Translator struct {
	fn     *hir.Function
	ctx    *Context
	words  []uint32
	base   uint64 // guest address of words[0]
	blocks map[uint64]*hir.Block

	// externals caches synthetic tail-call-out blocks built lazily for
	// branch targets outside the translation window, see branch.go.
	externals map[uint64]*hir.Block
}

// NewTranslator starts a translation unit for the guest function whose
// body is words, located at guest address base.
func NewTranslator(name string, base uint64, words []uint32) *Translator {
	fn := hir.NewFunction(base, name)
	t := &Translator{fn: fn, words: words, base: base, blocks: map[uint64]*hir.Block{}}
	t.blocks[base] = fn.Entry()
	t.ctx = NewContext(hir.NewBuilder(fn))
	return t
}

func (t *Translator) addrOf(index int) uint64 { return t.base + uint64(index)*4 }

// discoverBlockStarts finds every address that must begin a new basic
// block: the entry, and every branch target/fallthrough that lands
// inside the window.
func (t *Translator) discoverBlockStarts() {
	for i, w := range t.words {
		d := decode.Decode(w)
		op := decode.Opcode(w)
		switch op {
		case decode.PrimB:
			target := computeTarget(t.addrOf(i), d, true)
			t.ensureBlock(target)
		case decode.PrimBC:
			target := computeTarget(t.addrOf(i), d, false)
			t.ensureBlock(target)
			if i+1 < len(t.words) {
				t.ensureBlock(t.addrOf(i + 1))
			}
		}
	}
}

func computeTarget(pc uint64, d decode.InstrData, absolute bool) uint64 {
	if absolute {
		if d.AA != 0 {
			return uint64(int64(int32(d.LI)))
		}
		return uint64(int64(pc) + int64(int32(d.LI)))
	}
	if d.AA != 0 {
		return uint64(int64(int32(d.BD)))
	}
	return uint64(int64(pc) + int64(int32(d.BD)))
}

func (t *Translator) ensureBlock(addr uint64) *hir.Block {
	if b, ok := t.blocks[addr]; ok {
		return b
	}
	// Targets outside [base, base+len) are external; they get no block of
	// their own here (the frontend emits a CALL/BRANCH with a Symbol, not
	// a local Label, for those).
	if addr < t.base || addr >= t.base+uint64(len(t.words))*4 {
		return nil
	}
	b := t.fn.NewBlock()
	t.blocks[addr] = b
	return b
}

// Translate runs the full two-pass translation and returns the finished
// function, or ErrInvalidInstruction if a word couldn't be decoded into
// any recognized form.
func (t *Translator) Translate() (*hir.Function, error) {
	t.discoverBlockStarts()

	for i, w := range t.words {
		addr := t.addrOf(i)
		if b, ok := t.blocks[addr]; ok && i != 0 {
			t.ctx.SetBlock(b)
		}
		d := decode.Decode(w)
		if err := t.emit(addr, d); err != nil {
			t.ctx.Invalid(addr - t.base)
			return t.fn, err
		}
	}
	return t.fn, nil
}

func (t *Translator) storeCarryFlag(carry *hir.Value) {
	old := t.ctx.LoadContext(hir.TypeI32, state.OffsetXER)
	bit := t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(1<<29))
	cleared := t.ctx.And(hir.TypeI32, old, t.ctx.Not(hir.TypeI32, bit))
	widenedCarry := t.ctx.ZeroExtend(hir.TypeI32, carry)
	shifted := t.ctx.Shl(hir.TypeI32, widenedCarry, t.ctx.LoadConstant(hir.TypeI32, hir.ConstFromU64(29)))
	t.ctx.StoreContext(state.OffsetXER, t.ctx.Or(hir.TypeI32, cleared, shifted))
}

// emit dispatches a single decoded instruction to its opcode-specific
// emitter, mirroring the primary-opcode-then-secondary-opcode two-level
// decode the spec names for 4.A.
func (t *Translator) emit(addr uint64, d decode.InstrData) error {
	t.ctx.SourceOffset(addr - t.base)

	op := decode.Opcode(d.Word)
	switch op {
	case decode.PrimAddi:
		t.emitAddi(d)
	case decode.PrimAddis:
		t.emitAddis(d)
	case decode.PrimOri:
		t.emitOri(d)
	case decode.PrimXori:
		t.emitXori(d)
	case decode.PrimAndiDot:
		t.emitAndiDot(d)
	case decode.PrimLwz:
		t.emitLoad(d, hir.TypeI32, false)
	case decode.PrimLbz:
		t.emitLoad(d, hir.TypeI8, false)
	case decode.PrimLhz:
		t.emitLoad(d, hir.TypeI16, false)
	case decode.PrimLha:
		t.emitLoad(d, hir.TypeI16, true)
	case decode.PrimStw:
		t.emitStore(d, hir.TypeI32)
	case decode.PrimStb:
		t.emitStore(d, hir.TypeI8)
	case decode.PrimSth:
		t.emitStore(d, hir.TypeI16)
	case decode.PrimLwzu:
		t.emitLoadUpdate(d, hir.TypeI32, false)
	case decode.PrimLbzu:
		t.emitLoadUpdate(d, hir.TypeI8, false)
	case decode.PrimLhzu:
		t.emitLoadUpdate(d, hir.TypeI16, false)
	case decode.PrimLhau:
		t.emitLoadUpdate(d, hir.TypeI16, true)
	case decode.PrimStwu:
		t.emitStoreUpdate(d, hir.TypeI32)
	case decode.PrimStbu:
		t.emitStoreUpdate(d, hir.TypeI8)
	case decode.PrimSthu:
		t.emitStoreUpdate(d, hir.TypeI16)
	case decode.PrimLmw:
		t.emitLmw(d)
	case decode.PrimStmw:
		t.emitStmw(d)
	case decode.PrimB:
		t.emitB(addr, d)
	case decode.PrimBC:
		t.emitBC(addr, d)
	case decode.PrimSC:
		t.ctx.Trap()
	case decode.PrimCR:
		return t.emitXL(d)
	case decode.Prim31:
		return t.emitFam31(d)
	case decode.PrimAltivecVX, 5, 6:
		return t.emitAltivec(d)
	default:
		return fmt.Errorf("%w: primary opcode %d at %#x", ErrInvalidInstruction, op, addr)
	}
	return nil
}

func (t *Translator) emitFam31(d decode.InstrData) error {
	switch d.XO {
	case decode.XOAdd:
		t.emitAdd(d, false)
	case decode.XOAddc:
		t.emitAdd(d, true)
	case decode.XOSubf:
		t.emitSubf(d, false)
	case decode.XOSubfc:
		t.emitSubf(d, true)
	case decode.XOMullw:
		t.emitMullw(d)
	case decode.XOAnd:
		t.emitLogical(d, t.ctx.And)
	case decode.XOOr:
		t.emitLogical(d, t.ctx.Or)
	case decode.XOXor:
		t.emitLogical(d, t.ctx.Xor)
	case decode.XONeg:
		t.emitNeg(d)
	case decode.XOExtsb:
		t.emitExtsb(d)
	case decode.XOExtsh:
		t.emitExtsh(d)
	case decode.XOCntlzw:
		t.emitCntlzw(d)
	case decode.XOLwzx:
		t.emitLoadIndexed(d, hir.TypeI32, false)
	case decode.XOStwx:
		t.emitStoreIndexed(d, hir.TypeI32)
	case decode.XOLbzx:
		t.emitLoadIndexed(d, hir.TypeI8, false)
	case decode.XOStbx:
		t.emitStoreIndexed(d, hir.TypeI8)
	case decode.XOMfcr:
		t.emitMfcr(d)
	case decode.XOMtcrf:
		t.emitMtcrf(d)
	default:
		return fmt.Errorf("%w: family-31 XO %d", ErrInvalidInstruction, d.XO)
	}
	return nil
}
