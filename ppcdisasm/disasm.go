/*
   ppcdisasm: PowerPC instruction text disassembly.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on emu/disassemble/disassemble.go: a per-form mnemonic table
   plus a switch-on-form formatter. The dispatch tree mirrors
   frontend/translator.go and frontend/altivec.go exactly - same primary
   switch, same Family-31 XO switch, same VX/VXA/VXR/VX128 matches - so a
   word this package can name is always one the frontend can also
   translate, and vice versa.
*/

package ppcdisasm

import (
	"fmt"

	"github.com/rcornwell/ppcjit/decode"
)

// Disassemble returns a textual mnemonic-and-operands rendering of word, as
// it would appear at address pc. Unrecognized words render as a raw ".long"
// directive rather than an error, so a caller walking a range of memory
// never has to special-case data mixed in with code.
func Disassemble(pc uint64, word uint32) string {
	d := decode.Decode(word)

	switch decode.Opcode(word) {
	case decode.PrimAddi:
		return dForm("addi", d)
	case decode.PrimAddis:
		return dForm("addis", d)
	case decode.PrimOri:
		return dForm("ori", d)
	case decode.PrimXori:
		return dForm("xori", d)
	case decode.PrimAndiDot:
		return dForm("andi.", d)

	case decode.PrimLwz:
		return loadStore("lwz", d)
	case decode.PrimLbz:
		return loadStore("lbz", d)
	case decode.PrimLhz:
		return loadStore("lhz", d)
	case decode.PrimLha:
		return loadStore("lha", d)
	case decode.PrimStw:
		return loadStore("stw", d)
	case decode.PrimStb:
		return loadStore("stb", d)
	case decode.PrimSth:
		return loadStore("sth", d)

	case decode.PrimLwzu:
		return loadStore("lwzu", d)
	case decode.PrimLbzu:
		return loadStore("lbzu", d)
	case decode.PrimLhzu:
		return loadStore("lhzu", d)
	case decode.PrimLhau:
		return loadStore("lhau", d)
	case decode.PrimStwu:
		return loadStore("stwu", d)
	case decode.PrimStbu:
		return loadStore("stbu", d)
	case decode.PrimSthu:
		return loadStore("sthu", d)
	case decode.PrimLmw:
		return loadStore("lmw", d)
	case decode.PrimStmw:
		return loadStore("stmw", d)

	case decode.PrimB:
		return branchI("b", d, pc)
	case decode.PrimBC:
		return branchB("bc", d, pc)
	case decode.PrimSC:
		return "sc"

	case decode.PrimCR:
		return xlForm(d)

	case decode.Prim31:
		return fam31(d)

	case decode.PrimAltivecVX, 5, 6:
		return altivec(word, d)
	}

	return fmt.Sprintf(".long 0x%08x", word)
}

func suffix(d decode.InstrData) string {
	s := ""
	if d.OE != 0 {
		s += "o"
	}
	if d.Rc != 0 {
		s += "."
	}
	return s
}

func dForm(name string, d decode.InstrData) string {
	return fmt.Sprintf("%s r%d,r%d,%d", name, d.RT, d.RA, d.D)
}

func loadStore(name string, d decode.InstrData) string {
	return fmt.Sprintf("%s r%d,%d(r%d)", name, d.RT, d.D, d.RA)
}

func branchI(name string, d decode.InstrData, pc uint64) string {
	target := pcRelative(d.AA, pc, int64(int32(d.LI)))
	return fmt.Sprintf("%s%s 0x%x", name, linkSuffix(d.AA, d.LK), target)
}

func branchB(name string, d decode.InstrData, pc uint64) string {
	target := pcRelative(d.AA, pc, int64(d.BD))
	return fmt.Sprintf("%s%s %d,%d,0x%x", name, linkSuffix(d.AA, d.LK), d.BO, d.BI, target)
}

func pcRelative(aa uint32, pc uint64, disp int64) uint64 {
	if aa != 0 {
		return uint64(disp)
	}
	return pc + uint64(disp)
}

func linkSuffix(aa, lk uint32) string {
	s := ""
	if aa != 0 {
		s += "a"
	}
	if lk != 0 {
		s += "l"
	}
	return s
}

// fam31 covers the X/XO form integer ops living under primary opcode 31.
func fam31(d decode.InstrData) string {
	switch d.XO {
	case decode.XOAdd:
		return fmt.Sprintf("add%s r%d,r%d,r%d", suffix(d), d.RT, d.RA, d.RB)
	case decode.XOAddc:
		return fmt.Sprintf("addc%s r%d,r%d,r%d", suffix(d), d.RT, d.RA, d.RB)
	case decode.XOSubf:
		return fmt.Sprintf("subf%s r%d,r%d,r%d", suffix(d), d.RT, d.RA, d.RB)
	case decode.XOSubfc:
		return fmt.Sprintf("subfc%s r%d,r%d,r%d", suffix(d), d.RT, d.RA, d.RB)
	case decode.XOMullw:
		return fmt.Sprintf("mullw%s r%d,r%d,r%d", suffix(d), d.RT, d.RA, d.RB)
	case decode.XOAnd:
		return fmt.Sprintf("and%s r%d,r%d,r%d", rcOnly(d), d.RT, d.RA, d.RB)
	case decode.XOOr:
		return fmt.Sprintf("or%s r%d,r%d,r%d", rcOnly(d), d.RT, d.RA, d.RB)
	case decode.XOXor:
		return fmt.Sprintf("xor%s r%d,r%d,r%d", rcOnly(d), d.RT, d.RA, d.RB)
	case decode.XONeg:
		return fmt.Sprintf("neg%s r%d,r%d", suffix(d), d.RT, d.RA)
	case decode.XOExtsb:
		return fmt.Sprintf("extsb%s r%d,r%d", rcOnly(d), d.RT, d.RA)
	case decode.XOExtsh:
		return fmt.Sprintf("extsh%s r%d,r%d", rcOnly(d), d.RT, d.RA)
	case decode.XOCntlzw:
		return fmt.Sprintf("cntlzw%s r%d,r%d", rcOnly(d), d.RT, d.RA)
	case decode.XOLwzx:
		return fmt.Sprintf("lwzx r%d,r%d,r%d", d.RT, d.RA, d.RB)
	case decode.XOStwx:
		return fmt.Sprintf("stwx r%d,r%d,r%d", d.RS, d.RA, d.RB)
	case decode.XOLbzx:
		return fmt.Sprintf("lbzx r%d,r%d,r%d", d.RT, d.RA, d.RB)
	case decode.XOStbx:
		return fmt.Sprintf("stbx r%d,r%d,r%d", d.RS, d.RA, d.RB)
	case decode.XOMfcr:
		return fmt.Sprintf("mfcr r%d", d.RT)
	case decode.XOMtcrf:
		return fmt.Sprintf("mtcrf 0x%x,r%d", (d.Word>>12)&0xFF, d.RS)
	}
	return fmt.Sprintf(".long 0x%08x", d.Word)
}

// rcOnly renders only the '.' Rc suffix, for X-form ops with no OE bit.
func rcOnly(d decode.InstrData) string {
	if d.Rc != 0 {
		return "."
	}
	return ""
}

func xlForm(d decode.InstrData) string {
	switch d.XO {
	case decode.XLBclr:
		return "blr"
	case decode.XLBcctr:
		return "bctr"
	case decode.XLCrand:
		return crOp("crand", d)
	case decode.XLCror:
		return crOp("cror", d)
	case decode.XLCrxor:
		return crOp("crxor", d)
	case decode.XLCrnand:
		return crOp("crnand", d)
	case decode.XLCrnor:
		return crOp("crnor", d)
	case decode.XLCreqv:
		return crOp("creqv", d)
	case decode.XLCrandc:
		return crOp("crandc", d)
	case decode.XLCrorc:
		return crOp("crorc", d)
	case decode.XLIsync:
		return "isync"
	}
	return fmt.Sprintf(".long 0x%08x", d.Word)
}

func crOp(name string, d decode.InstrData) string {
	return fmt.Sprintf("%s %d,%d,%d", name, d.RT, d.RA, d.RB)
}

// altivec covers primary opcode 4: base AltiVec VX/VXA/VXR forms plus the
// Xbox 360 VMX128 compound extensions, in that priority order, matching
// frontend/altivec.go's own dispatch order exactly.
func altivec(word uint32, d decode.InstrData) string {
	switch {
	case decode.MatchVX128(word, decode.VX128Vaddfp128, decode.VX128Mask):
		return vx128Arith("vaddfp128", d)
	case decode.MatchVX128(word, decode.VX128Vsubfp128, decode.VX128Mask):
		return vx128Arith("vsubfp128", d)
	case decode.MatchVX128(word, decode.VX128Vmulfp128, decode.VX128Mask):
		return vx128Arith("vmulfp128", d)
	case decode.MatchVX128(word, decode.VX128Vand128, decode.VX128Mask):
		return vx128Arith("vand128", d)
	case decode.MatchVX128(word, decode.VX128Vandc128, decode.VX128Mask):
		return vx128Arith("vandc128", d)
	case decode.MatchVX128(word, decode.VX128Vor128, decode.VX128Mask):
		return vx128Arith("vor128", d)
	case decode.MatchVX128(word, decode.VX128Vnor128, decode.VX128Mask):
		return vx128Arith("vnor128", d)
	case decode.MatchVX128(word, decode.VX128Vxor128, decode.VX128Mask):
		return vx128Arith("vxor128", d)
	case decode.MatchVX128(word, decode.VX128Vmaddfp128, decode.VX128Mask):
		return vx128Arith("vmaddfp128", d)
	case decode.MatchVX128(word, decode.VX128Vmaddcfp128, decode.VX128Mask):
		return vx128Arith("vmaddcfp128", d)
	case decode.MatchVX128(word, decode.VX128Vnmsubfp128, decode.VX128Mask):
		return vx128Arith("vnmsubfp128", d)
	case decode.MatchVX128(word, decode.VX128Vmsum3fp128, decode.VX128Mask):
		return vx128Arith("vmsum3fp128", d)
	case decode.MatchVX128(word, decode.VX128Vmsum4fp128, decode.VX128Mask):
		return vx128Arith("vmsum4fp128", d)
	case decode.MatchVX128(word, decode.VX128Vsel128, decode.VX128Mask):
		return vx128Arith("vsel128", d)
	case decode.MatchVX128(word, decode.VX128Vmaxfp128, decode.VX128Mask):
		return vx128Arith("vmaxfp128", d)
	case decode.MatchVX128(word, decode.VX128Vminfp128, decode.VX128Mask):
		return vx128Arith("vminfp128", d)
	case decode.MatchVX128(word, decode.VX128RVcmpeqfp128, decode.VX128Mask):
		return vx128Arith("vcmpeqfp128", d)
	case decode.MatchVX128(word, decode.VX128RVcmpgefp128, decode.VX128Mask):
		return vx128Arith("vcmpgefp128", d)
	case decode.MatchVX128(word, decode.VX128RVcmpgtfp128, decode.VX128Mask):
		return vx128Arith("vcmpgtfp128", d)
	case decode.MatchVX128(word, decode.VX128RVcmpequw128, decode.VX128Mask):
		return vx128Arith("vcmpequw128", d)
	case decode.MatchVX128(word, decode.VX128RVcmpbfp128, decode.VX128Mask):
		return vx128Arith("vcmpbfp128", d)
	case decode.MatchVX128(word, decode.VX128_2Vperm128, decode.VX128_2Mask):
		return vx128Arith("vperm128", d)
	case decode.MatchVX128(word, decode.VX128_3Vcfpsxws128, decode.VX128_3Mask):
		return vx128Unary("vcfpsxws128", d)
	case decode.MatchVX128(word, decode.VX128_3Vcsxwfp128, decode.VX128_3Mask):
		return vx128Unary("vcsxwfp128", d)
	case decode.MatchVX128(word, decode.VX128_3Vcuxwfp128, decode.VX128_3Mask):
		return vx128Unary("vcuxwfp128", d)
	case decode.MatchVX128(word, decode.VX128_3Vcfpuxws128, decode.VX128_3Mask):
		return vx128Unary("vcfpuxws128", d)
	case decode.MatchVX128(word, decode.VX128_3Vspltw128, decode.VX128_3Mask):
		return fmt.Sprintf("vspltw128 v%d,v%d,%d", d.VD128, d.VB128, d.VA128&0x3)
	case decode.MatchVX128(word, decode.VX128_3Vupkd3d128, decode.VX128_3Mask):
		return vx128Unary("vupkd3d128", d)
	case decode.MatchVX128(word, decode.VX128_4Vrlimi128, decode.VX128_4Mask):
		return fmt.Sprintf("vrlimi128 v%d,v%d,%d", d.VD128, d.VB128, d.VA128&0xF)
	case decode.MatchVX128(word, decode.VX128_5Vsldoi128, decode.VX128_5Mask):
		return fmt.Sprintf("vsldoi128 v%d,v%d,v%d,%d", d.VD128, d.VA128, d.VB128, d.VSH)
	}

	switch d.VXO {
	case decode.VXLvx, decode.VXLvxl:
		return fmt.Sprintf("lvx v%d,r%d,r%d", d.VD, d.VA, d.VB)
	case decode.VXStvx, decode.VXStvxl:
		return fmt.Sprintf("stvx v%d,r%d,r%d", d.VD, d.VA, d.VB)
	case decode.VXVaddfp:
		return vxArith("vaddfp", d)
	case decode.VXVsubfp:
		return vxArith("vsubfp", d)
	case decode.VXVand:
		return vxArith("vand", d)
	case decode.VXVor:
		return vxArith("vor", d)
	case decode.VXVxor:
		return vxArith("vxor", d)
	case decode.VXVspltisw:
		return fmt.Sprintf("vspltisw v%d,%d", d.VD, int32(int8(d.VA<<3)>>3))
	}

	switch d.VXAOP {
	case decode.VXAVperm:
		return fmt.Sprintf("vperm v%d,v%d,v%d,v%d", d.VD, d.VA, d.VB, d.VC)
	case decode.VXAVmaddfp:
		return fmt.Sprintf("vmaddfp v%d,v%d,v%d,v%d", d.VD, d.VA, d.VB, d.VC)
	case decode.VXAVnmsubfp:
		return fmt.Sprintf("vnmsubfp v%d,v%d,v%d,v%d", d.VD, d.VA, d.VB, d.VC)
	case decode.VXAVsel:
		return fmt.Sprintf("vsel v%d,v%d,v%d,v%d", d.VD, d.VA, d.VB, d.VC)
	}

	switch d.XO {
	case decode.VXRVcmpeqfp:
		return vxrCmp("vcmpeqfp", d)
	case decode.VXRVcmpgefp:
		return vxrCmp("vcmpgefp", d)
	case decode.VXRVcmpgtfp:
		return vxrCmp("vcmpgtfp", d)
	case decode.VXRVcmpequw:
		return vxrCmp("vcmpequw", d)
	case decode.VXRVcmpbfp:
		return vxrCmp("vcmpbfp", d)
	}

	return fmt.Sprintf(".long 0x%08x", word)
}

func vxArith(name string, d decode.InstrData) string {
	return fmt.Sprintf("%s v%d,v%d,v%d", name, d.VD, d.VA, d.VB)
}

func vxrCmp(name string, d decode.InstrData) string {
	return fmt.Sprintf("%s%s v%d,v%d,v%d", name, rcOnly(d), d.VD, d.VA, d.VB)
}

func vx128Arith(name string, d decode.InstrData) string {
	return fmt.Sprintf("%s v%d,v%d,v%d", name, d.VD128, d.VA128, d.VB128)
}

func vx128Unary(name string, d decode.InstrData) string {
	return fmt.Sprintf("%s v%d,v%d", name, d.VD128, d.VB128)
}
