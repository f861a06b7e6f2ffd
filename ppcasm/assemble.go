/*
   ppcasm: mnemonic assembler.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on emu/assemble/assemble.go's Assemble: an opMap keyed by
   mnemonic driving a switch over instruction format, each format calling
   its own fixed operand scanner. The format set here is narrowed to
   exactly the PowerPC forms frontend/translator.go and frontend/altivec.go
   currently recognize (see DESIGN.md's ppcasm entry) - there is no point
   assembling a mnemonic the frontend would reject as an invalid
   instruction.
*/

package ppcasm

import "fmt"

type form int

const (
	formD          form = iota // rt, ra, simm/uimm
	formLoadStore               // rt, d(ra)
	formX                       // rt, ra, rb  [Rc via trailing '.']
	formUnaryX                  // rt, ra      (extsb/extsh/neg/cntlzw)
	formMfcr                    // rt
	formMtcrf                   // crm, rs
	formBranchI                 // target      [a/l suffix]
	formBranchB                 // bo, bi, target [a/l suffix]
	formXLReg                   // crt, cra, crb
	formXLNoArgs                // isync
	formXLReturn                // blr
	formXLCount                 // bctr
	formVXLoadStore             // vd, ra, rb
	formVXArith                 // vd, va, vb
	formVXUnary                 // vd, va      (vspltisw: vd, simm)
	formVXA                     // vd, va, vb, vc
	formVXR                     // vd, va, vb  [Rc via trailing '.']
	formVX128Arith              // vd, va, vb
	formVX128Unary              // vd, vb
	formVX128Splat              // vd, vb, uimm
	formVX128MulAdd             // vd, va, vb  (vd doubles as the 3rd operand)
	formVX128Sel                // vd, va, vb  (vd doubles as the select mask)
	formVX128Rlimi              // vd, vb, uimm
	formVX128Sldoi              // vd, va, vb, uimm
)

type mnemonic struct {
	form   form
	op     uint32 // primary opcode
	xo     uint32 // secondary opcode / extended opcode, meaning depends on form
	oe     bool
	rcOnly bool // XO forms that always set Rc regardless of a trailing '.'
	aa, lk bool // absolute-address / link bits, for branch forms
}

var mnemonics = map[string]mnemonic{
	"addi":  {form: formD, op: 14},
	"addis": {form: formD, op: 15},
	"ori":   {form: formD, op: 24},
	"xori":  {form: formD, op: 26},
	"andi.": {form: formD, op: 28, rcOnly: true},

	"lwz": {form: formLoadStore, op: 32},
	"lbz": {form: formLoadStore, op: 34},
	"lhz": {form: formLoadStore, op: 40},
	"lha": {form: formLoadStore, op: 42},
	"stw": {form: formLoadStore, op: 36},
	"stb": {form: formLoadStore, op: 38},
	"sth": {form: formLoadStore, op: 44},

	"lwzu": {form: formLoadStore, op: 33},
	"lbzu": {form: formLoadStore, op: 35},
	"lhzu": {form: formLoadStore, op: 41},
	"lhau": {form: formLoadStore, op: 43},
	"stwu": {form: formLoadStore, op: 37},
	"stbu": {form: formLoadStore, op: 39},
	"sthu": {form: formLoadStore, op: 45},
	"lmw":  {form: formLoadStore, op: 46},
	"stmw": {form: formLoadStore, op: 47},

	"add":  {form: formX, op: 31, xo: 266},
	"addc": {form: formX, op: 31, xo: 10},
	"subf":  {form: formX, op: 31, xo: 40},
	"subfc": {form: formX, op: 31, xo: 8},
	"mullw": {form: formX, op: 31, xo: 235},
	"and":  {form: formX, op: 31, xo: 28},
	"or":   {form: formX, op: 31, xo: 444},
	"xor":  {form: formX, op: 31, xo: 316},

	"lwzx": {form: formX, op: 31, xo: 23},
	"stwx": {form: formX, op: 31, xo: 151},
	"lbzx": {form: formX, op: 31, xo: 87},
	"stbx": {form: formX, op: 31, xo: 215},

	"neg":    {form: formUnaryX, op: 31, xo: 104},
	"extsb":  {form: formUnaryX, op: 31, xo: 954},
	"extsh":  {form: formUnaryX, op: 31, xo: 922},
	"cntlzw": {form: formUnaryX, op: 31, xo: 26},

	"mfcr":  {form: formMfcr, op: 31, xo: 19},
	"mtcrf": {form: formMtcrf, op: 31, xo: 144},

	"b":    {form: formBranchI, op: 18},
	"ba":   {form: formBranchI, op: 18, aa: true},
	"bl":   {form: formBranchI, op: 18, lk: true},
	"bla":  {form: formBranchI, op: 18, aa: true, lk: true},
	"bc":   {form: formBranchB, op: 16},
	"bca":  {form: formBranchB, op: 16, aa: true},
	"bcl":  {form: formBranchB, op: 16, lk: true},
	"bcla": {form: formBranchB, op: 16, aa: true, lk: true},

	"blr":  {form: formXLReturn, op: 19, xo: 16},
	"bctr": {form: formXLCount, op: 19, xo: 528},

	"crand":  {form: formXLReg, op: 19, xo: 257},
	"cror":   {form: formXLReg, op: 19, xo: 449},
	"crxor":  {form: formXLReg, op: 19, xo: 193},
	"crnand": {form: formXLReg, op: 19, xo: 225},
	"crnor":  {form: formXLReg, op: 19, xo: 33},
	"creqv":  {form: formXLReg, op: 19, xo: 289},
	"crandc": {form: formXLReg, op: 19, xo: 129},
	"crorc":  {form: formXLReg, op: 19, xo: 417},
	"isync":  {form: formXLNoArgs, op: 19, xo: 150},

	"lvx":  {form: formVXLoadStore, xo: 206},
	"stvx": {form: formVXLoadStore, xo: 454},

	"vaddfp": {form: formVXArith, xo: 10},
	"vsubfp": {form: formVXArith, xo: 74},
	"vand":   {form: formVXArith, xo: 1028},
	"vor":    {form: formVXArith, xo: 1156},
	"vxor":   {form: formVXArith, xo: 1220},

	"vspltisw": {form: formVXUnary, xo: 908},

	"vperm":    {form: formVXA, xo: 43},
	"vmaddfp":  {form: formVXA, xo: 46},
	"vnmsubfp": {form: formVXA, xo: 47},
	"vsel":     {form: formVXA, xo: 42},

	"vcmpeqfp":  {form: formVXR, xo: 198},
	"vcmpgefp":  {form: formVXR, xo: 454},
	"vcmpgtfp":  {form: formVXR, xo: 710},
	"vcmpequw":  {form: formVXR, xo: 134},
	"vcmpbfp":   {form: formVXR, xo: 966},

	"vaddfp128":  {form: formVX128Arith, xo: vx128(5, 16)},
	"vsubfp128":  {form: formVX128Arith, xo: vx128(5, 80)},
	"vmulfp128":  {form: formVX128Arith, xo: vx128(5, 144)},
	"vand128":    {form: formVX128Arith, xo: vx128(5, 528)},
	"vandc128":   {form: formVX128Arith, xo: vx128(5, 592)},
	"vnor128":    {form: formVX128Arith, xo: vx128(5, 656)},
	"vmaxfp128":  {form: formVX128Arith, xo: vx128(6, 640)},
	"vminfp128":  {form: formVX128Arith, xo: vx128(6, 704)},

	"vor128":  {form: formVX128Arith, xo: vx128(5, 720)}, // vd,va,va encodes the self-copy idiom
	"vxor128": {form: formVX128Arith, xo: vx128(5, 784)}, // vd,va,va encodes the self-clear idiom

	"vmaddfp128":  {form: formVX128MulAdd, xo: vx128(5, 208)},
	"vmaddcfp128": {form: formVX128MulAdd, xo: vx128(5, 272)},
	"vnmsubfp128": {form: formVX128MulAdd, xo: vx128(5, 336)},

	"vmsum3fp128": {form: formVX128MulAdd, xo: vx128(5, 400)},
	"vmsum4fp128": {form: formVX128MulAdd, xo: vx128(5, 464)},

	"vsel128": {form: formVX128Sel, xo: vx128(5, 848)},

	"vcmpeqfp128": {form: formVX128Arith, xo: vx128r(6, 0)},
	"vcmpgefp128": {form: formVX128Arith, xo: vx128r(6, 128)},
	"vcmpgtfp128": {form: formVX128Arith, xo: vx128r(6, 256)},
	"vcmpequw128": {form: formVX128Arith, xo: vx128r(6, 512)},
	"vcmpbfp128":  {form: formVX128Arith, xo: vx128r(6, 384)},

	"vperm128": {form: formVX128Sel, xo: vx128_2(5, 0)},

	"vcfpsxws128": {form: formVX128Unary, xo: vx128_3(6, 560)},
	"vcsxwfp128":  {form: formVX128Unary, xo: vx128_3(6, 688)},
	"vcuxwfp128":  {form: formVX128Unary, xo: vx128_3(6, 752)},
	"vcfpuxws128": {form: formVX128Unary, xo: vx128_3(6, 624)},
	"vupkd3d128":  {form: formVX128Unary, xo: vx128_3(6, 2032)},

	"vspltw128": {form: formVX128Splat, xo: vx128_3(6, 1840)},

	"vrlimi128": {form: formVX128Rlimi, xo: vx128_4(6, 1808)},

	"vsldoi128": {form: formVX128Sldoi, xo: vx128_5(4, 16)},
}

// op packing for the VX128 family macros, reproducing decode.go's
// OP/VX128* helpers locally so ppcasm needs no import cycle back to decode.
func op(x uint32) uint32 { return (x & 0x3F) << 26 }

func vx128(opc, xop uint32) uint32   { return op(opc) | (xop & 0x3D0) }
func vx128_2(opc, xop uint32) uint32 { return op(opc) | (xop & 0x210) }
func vx128_3(opc, xop uint32) uint32 { return op(opc) | (xop & 0x7F0) }
func vx128_4(opc, xop uint32) uint32 { return op(opc) | (xop & 0x730) }
func vx128_5(opc, xop uint32) uint32 { return op(opc) | (xop & 0x010) }
func vx128r(opc, xop uint32) uint32  { return op(opc) | (xop & 0x3D0) } // VXR-form compounds use VX128's mask, as decode's VX128R* values do

// Assemble encodes a single line of PowerPC assembly, e.g. "addi r3,r1,16"
// or "vaddfp128 v0,v1,v2", into its 32 bit instruction word. resolve looks
// up a symbolic branch target by name; pass nil when every branch target
// on the line is already a numeric displacement or address.
func Assemble(line string, pc uint64, resolve func(label string) (uint64, bool)) (uint32, error) {
	mnem, rest := getWord(line)
	rc := false
	// A trailing '.' not already part of the mnemonic itself (e.g. andi.,
	// which is its own table entry) requests Rc=1 on an X/VXR form, per
	// the standard PowerPC assembler convention.
	m, ok := mnemonics[mnem]
	if !ok && len(mnem) > 1 && mnem[len(mnem)-1] == '.' {
		if base, baseOK := mnemonics[mnem[:len(mnem)-1]]; baseOK {
			m, ok, rc = base, true, true
		}
	}
	if !ok {
		return 0, fmt.Errorf("ppcasm: unknown mnemonic %q", mnem)
	}

	switch m.form {
	case formD:
		return assembleD(m, rest, rc)
	case formLoadStore:
		return assembleLoadStore(m, rest)
	case formX:
		return assembleX(m, rest, rc)
	case formUnaryX:
		return assembleUnaryX(m, rest, rc)
	case formMfcr:
		return assembleMfcr(m, rest)
	case formMtcrf:
		return assembleMtcrf(m, rest)
	case formBranchI:
		return assembleBranchI(m, rest, pc, resolve)
	case formBranchB:
		return assembleBranchB(m, rest, pc, resolve)
	case formXLReg:
		return assembleXLReg(m, rest)
	case formXLNoArgs:
		return xlForm(m.op, 0, 0, 0, m.xo, false), nil
	case formXLReturn:
		return xlForm(m.op, 20, 0, 0, m.xo, false), nil
	case formXLCount:
		return xlForm(m.op, 20, 0, 0, m.xo, false), nil
	case formVXLoadStore:
		return assembleVXLoadStore(m, rest)
	case formVXArith:
		return assembleVXArith(m, rest)
	case formVXUnary:
		return assembleVXUnary(m, rest)
	case formVXA:
		return assembleVXA(m, rest)
	case formVXR:
		return assembleVXR(m, rest, rc)
	case formVX128Arith:
		return assembleVX128Arith(m, rest)
	case formVX128Unary:
		return assembleVX128Unary(m, rest)
	case formVX128Splat:
		return assembleVX128Splat(m, rest)
	case formVX128MulAdd:
		return assembleVX128MulAdd(m, rest)
	case formVX128Sel:
		return assembleVX128Sel(m, rest)
	case formVX128Rlimi:
		return assembleVX128Rlimi(m, rest)
	case formVX128Sldoi:
		return assembleVX128Sldoi(m, rest)
	default:
		return 0, fmt.Errorf("ppcasm: unhandled form for %q", mnem)
	}
}
