/*
   Decode: opcode constants.

   Copyright (c) 2024, the ppcjit authors.
*/

package decode

// Primary (6 bit) opcodes, standard PowerPC encoding.
const (
	PrimTDI    = 2
	PrimTWI    = 3
	PrimMulli  = 7
	PrimSubfic = 8
	PrimCmpli  = 10
	PrimCmpi   = 11
	PrimAddic  = 12
	PrimAddicDot = 13
	PrimAddi   = 14
	PrimAddis  = 15
	PrimBC     = 16
	PrimSC     = 17
	PrimB      = 18
	PrimCR     = 19 // BCLR/BCCTR/CRAND/CROR/ISYNC live under XL form here
	PrimRlwimi = 20
	PrimRlwinm = 21
	PrimRlmi   = 22
	PrimRlwnm  = 23
	PrimOri    = 24
	PrimOris   = 25
	PrimXori   = 26
	PrimXoris  = 27
	PrimAndiDot  = 28
	PrimAndisDot = 29
	Prim30     = 30 // rldicl/rldicr/rldic/rldimi/rldcl/rldcr (64 bit rotate, unused on 32 bit PPC)
	Prim31     = 31 // X/XO form integer ops, and the base for AltiVec families 4/5/6/19
	PrimLwz    = 32
	PrimLwzu   = 33
	PrimLbz    = 34
	PrimLbzu   = 35
	PrimStw    = 36
	PrimStwu   = 37
	PrimStb    = 38
	PrimStbu   = 39
	PrimLhz    = 40
	PrimLhzu   = 41
	PrimLha    = 42
	PrimLhau   = 43
	PrimSth    = 44
	PrimSthu   = 45
	PrimLmw    = 46
	PrimStmw   = 47
	PrimLfs    = 48
	PrimLfsu   = 49
	PrimLfd    = 50
	PrimLfdu   = 51
	PrimStfs   = 52
	PrimStfsu  = 53
	PrimStfd   = 54
	PrimStfdu  = 55
	Prim59     = 59 // single-precision X-form FP arithmetic
	Prim63     = 63 // double-precision X-form FP arithmetic
	PrimAltivecVXOnLoadStore = 4  // lvebx/lvx/stvx/... share primary opcode 4 with VX/VX128 families
	PrimAltivecArith         = 4
	PrimAltivecVX            = 4
)

// Family 31 (X/XO form, primary opcode 31) extended opcodes: PPC bits
// 21-30, read as one 10 bit field by decode.InstrData.XO. Pure X-form
// ops (and/or/xor/...) publish their extended opcode as a 10 bit ISA
// number occupying this whole field. XO-form ops that carry an OE bit
// (add/subf/mullw/neg/...) publish a 9 bit number with OE=0 implied;
// since OE occupies this field's top bit, an OE=0 encoding's value
// equals the bare 9 bit ISA number directly, so one switch on the full
// 10 bit field serves both families without a second table.
const (
	XOAdd    = 266
	XOAddDot = 266
	XOAddc   = 10
	XOAdde   = 138
	XOSubf   = 40
	XOSubfc  = 8
	XOSubfe  = 136
	XOAnd    = 28
	XOOr     = 444
	XOXor    = 316
	XONand   = 476
	XONor    = 124
	XOAndc   = 60
	XOOrc    = 412
	XOEqv    = 284
	XOMullw  = 235
	XODivw   = 491
	XODivwu  = 459
	XOMulhw  = 75
	XOMulhwu = 11
	XONeg    = 104
	XOCmp    = 0
	XOCmpl   = 32
	XOExtsb  = 954
	XOExtsh  = 922
	XOSlw    = 24
	XOSrw    = 536
	XOSraw   = 792
	XOSrawi  = 824
	XOCntlzw = 26
	XOLwzx   = 23
	XOStwx   = 151
	XOLbzx   = 87
	XOStbx   = 215
	XOLhzx   = 279
	XOLhax   = 343
	XOSthx   = 407
	XOLwarx  = 20
	XOStwcx  = 150
	XOMfspr  = 339
	XOMtspr  = 467
	XOMfcr   = 19
	XOMtcrf  = 144
	XOMtmsr  = 146
)

// XL form (primary 19) extended opcodes: branch-register and
// condition-register logical instructions.
const (
	XLBclr  = 16
	XLBcctr = 528
	XLCrand  = 257
	XLCror   = 449
	XLCrxor  = 193
	XLCrnand = 225
	XLCrnor  = 33
	XLCreqv  = 289
	XLCrandc = 129
	XLCrorc  = 417
	XLIsync  = 150
)

// AltiVec (primary 4, VX form) extended opcodes: bits 0-10.
const (
	VXLvebx = 14
	VXLvehx = 46
	VXLvewx = 78
	VXLvx   = 206
	VXLvxl  = 710
	VXStvebx = 270
	VXStvehx = 334
	VXStvewx = 398
	VXStvx   = 454
	VXStvxl  = 966

	VXVaddubm = 0
	VXVadduhm = 64
	VXVadduwm = 128
	VXVaddfp  = 10
	VXVaddcuw = 384
	VXVaddsbs = 768
	VXVaddshs = 832
	VXVaddsws = 896
	VXVaddubs = 512
	VXVadduhs = 576
	VXVadduws = 640
	VXVand    = 1028
	VXVandc   = 1092
	VXVavgsb  = 1282
	VXVavgsh  = 1346
	VXVavgsw  = 1410
	VXVavgub  = 1026
	VXVavguh  = 1090
	VXVavguw  = 1154
	VXVcfsx   = 842
	VXVcfux   = 778
	VXVctsxs  = 970
	VXVctuxs  = 906
	VXVexptefp = 394
	VXVlogefp  = 458
	VXVmaxfp  = 1034
	VXVmaxsb  = 258
	VXVmaxsh  = 322
	VXVmaxsw  = 386
	VXVmaxub  = 2
	VXVmaxuh  = 66
	VXVmaxuw  = 130
	VXVminfp  = 1098
	VXVminsb  = 770
	VXVminsh  = 834
	VXVminsw  = 898
	VXVminub  = 514
	VXVminuh  = 578
	VXVminuw  = 642
	VXVmrghb  = 12
	VXVmrghh  = 76
	VXVmrghw  = 140
	VXVmrglb  = 268
	VXVmrglh  = 332
	VXVmrglw  = 396
	VXVmulesb = 776
	VXVmulesh = 840
	VXVmuleub = 520
	VXVmuleuh = 584
	VXVmulosb = 264
	VXVmulosh = 328
	VXVmuloub = 8
	VXVmulouh = 72
	VXVnor    = 1284
	VXVor     = 1156
	VXVxor    = 1220
	VXVpkpx   = 782
	VXVpkshss = 398
	VXVpkswss = 462
	VXVpkswus = 334
	VXVpkuhum = 14
	VXVpkuhus = 142
	VXVpkshus = 270
	VXVpkuwum = 78
	VXVpkuwus = 206
	VXVrefp   = 266
	VXVrfim   = 714
	VXVrfin   = 522
	VXVrfip   = 650
	VXVrfiz   = 586
	VXVrlb    = 4
	VXVrlh    = 68
	VXVrlw    = 132
	VXVrsqrtefp = 330
	VXVsl     = 452
	VXVslb    = 260
	VXVslh    = 324
	VXVslw    = 388
	VXVslo    = 1036
	VXVspltb  = 524
	VXVsplth  = 588
	VXVspltw  = 652
	VXVspltisb = 780
	VXVspltish = 844
	VXVspltisw = 908
	VXVsr     = 708
	VXVsrab   = 772
	VXVsrah   = 836
	VXVsraw   = 900
	VXVsrb    = 516
	VXVsrh    = 580
	VXVsro    = 1100
	VXVsrw    = 644
	VXVsubcuw = 1408
	VXVsubfp  = 74
	VXVsubsbs = 1792
	VXVsubshs = 1856
	VXVsubsws = 1920
	VXVsububm = 1024
	VXVsububs = 1536
	VXVsubuhm = 1088
	VXVsubuhs = 1600
	VXVsubuwm = 1152
	VXVsubuws = 1664
	VXVsumsws = 1928
	VXVsum2sws = 1672
	VXVsum4sbs = 1800
	VXVsum4shs = 1608
	VXVsum4ubs = 1544
	VXVupkhpx = 846
	VXVupkhsb = 526
	VXVupkhsh = 590
	VXVupklpx = 974
	VXVupklsb = 654
	VXVupklsh = 718
)

// VXA form (primary 4): multiply-add family, bits 0-5.
const (
	VXAVmaddfp   = 46
	VXAVmhaddshs = 32
	VXAVmhraddshs = 33
	VXAVmladduhm = 34
	VXAVmsummbm  = 37
	VXAVmsumshm  = 40
	VXAVmsumshs  = 41
	VXAVmsumubm  = 36
	VXAVmsumuhm  = 38
	VXAVmsumuhs  = 39
	VXAVnmsubfp  = 47
	VXAVperm     = 43
	VXAVsel      = 42
	VXAVsldoi    = 44
)

// VXR form (primary 4): compare family, bits 0-9 (Rc is bit 10).
const (
	VXRVcmpbfp   = 966
	VXRVcmpeqfp  = 198
	VXRVcmpgefp  = 454
	VXRVcmpgtfp  = 710
	VXRVcmpequb  = 6
	VXRVcmpequh  = 70
	VXRVcmpequw  = 134
	VXRVcmpgtsb  = 774
	VXRVcmpgtsh  = 838
	VXRVcmpgtsw  = 902
	VXRVcmpgtub  = 518
	VXRVcmpgtuh  = 582
	VXRVcmpgtuw  = 646
)

// VX128 family (primary 4) compound dispatch values, reproducing the
// Xbox 360 VMX128 xop assignments exactly.
var (
	VX128Lvewx128   = VX128_1(4, 131)
	VX128Lvx128     = VX128_1(4, 195)
	VX128Lvxl128    = VX128_1(4, 707)
	VX128Stvewx128  = VX128_1(4, 387)
	VX128Stvx128    = VX128_1(4, 451)
	VX128Stvxl128   = VX128_1(4, 963)

	VX128Vaddfp128  = VX128(5, 16)
	VX128Vand128    = VX128(5, 528)
	VX128Vandc128   = VX128(5, 592)
	VX128Vmaddfp128 = VX128(5, 208)
	VX128Vmaddcfp128 = VX128(5, 272)
	VX128Vmaxfp128  = VX128(6, 640)
	VX128Vminfp128  = VX128(6, 704)
	VX128Vmrghw128  = VX128(6, 768)
	VX128Vmrglw128  = VX128(6, 832)
	VX128Vmsum3fp128 = VX128(5, 400)
	VX128Vmsum4fp128 = VX128(5, 464)
	VX128Vmulfp128  = VX128(5, 144)
	VX128Vnmsubfp128 = VX128(5, 336)
	VX128Vnor128    = VX128(5, 656)
	VX128Vor128     = VX128(5, 720)
	VX128Vpkshss128 = VX128(5, 512)
	VX128Vpkshus128 = VX128(5, 576)
	VX128Vpkswss128 = VX128(5, 640)
	VX128Vpkswus128 = VX128(5, 704)
	VX128Vpkuhum128 = VX128(5, 768)
	VX128Vpkuhus128 = VX128(5, 832)
	VX128Vpkuwum128 = VX128(5, 896)
	VX128Vpkuwus128 = VX128(5, 960)
	VX128Vrlw128    = VX128(6, 80)
	VX128Vsel128    = VX128(5, 848)
	VX128Vslo128    = VX128(5, 912)
	VX128Vslw128    = VX128(6, 208)
	VX128Vsraw128   = VX128(6, 336)
	VX128Vsro128    = VX128(5, 976)
	VX128Vsrw128    = VX128(6, 464)
	VX128Vsubfp128  = VX128(5, 80)
	VX128Vupkhsb128 = VX128(6, 896)
	VX128Vupklsb128 = VX128(6, 960)
	VX128Vxor128    = VX128(5, 784)

	VX128RVcmpbfp128  = VX128(6, 384)
	VX128RVcmpeqfp128 = VX128(6, 0)
	VX128RVcmpgefp128 = VX128(6, 128)
	VX128RVcmpgtfp128 = VX128(6, 256)
	VX128RVcmpequw128 = VX128(6, 512)

	VX128_2Vperm128 = VX128_2(5, 0)

	VX128_PVpermwi128 = VX128_P(6, 528)

	VX128_3Vcsxwfp128    = VX128_3(6, 688)
	VX128_3Vcfpsxws128   = VX128_3(6, 560)
	VX128_3Vcuxwfp128    = VX128_3(6, 752)
	VX128_3Vcfpuxws128   = VX128_3(6, 624)
	VX128_3Vexptefp128   = VX128_3(6, 1712)
	VX128_3Vlogefp128    = VX128_3(6, 1776)
	VX128_3Vrefp128      = VX128_3(6, 1584)
	VX128_3Vrfim128      = VX128_3(6, 816)
	VX128_3Vrfin128      = VX128_3(6, 880)
	VX128_3Vrfip128      = VX128_3(6, 944)
	VX128_3Vrfiz128      = VX128_3(6, 1008)
	VX128_3Vrsqrtefp128  = VX128_3(6, 1648)
	VX128_3Vspltw128     = VX128_3(6, 1840)
	VX128_3Vspltisw128   = VX128_3(6, 1904)
	VX128_3Vupkd3d128    = VX128_3(6, 2032)

	VX128_4Vpkd3d128  = VX128_4(6, 1552)
	VX128_4Vrlimi128  = VX128_4(6, 1808)

	VX128_5Vsldoi128 = VX128_5(4, 16)
)
