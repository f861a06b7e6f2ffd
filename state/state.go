/*
   State: guest CPU register file and backend context header.

   Copyright (c) 2024, the ppcjit authors.

   Layout is grounded on the teacher's cpuState (emu/cpu/cpudefs.go): one
   flat struct carrying every architected register plus the scratch fields
   a dispatch loop needs, built once per guest thread.
*/

package state

import "math"

// Const128 mirrors hir.Const128's lane layout for a 128 bit vector
// register; state avoids importing hir to keep the dependency direction
// frontend/backend -> state, not state -> hir.
type Const128 struct {
	Lo, Hi uint64
}

// ThreadState holds one guest hardware thread's full architected
// register file: 32 general-purpose, 32 floating point, 128 AltiVec/VMX128
// vector registers (the Xbox 360 extends VMX to 128 128-bit registers),
// plus the condition/exception/special registers PPC code reads and writes
// through LOAD_CONTEXT/STORE_CONTEXT.
type ThreadState struct {
	GPR [32]uint64
	FPR [32]float64
	VR  [128]Const128

	CR    uint32 // condition register, 8 4-bit fields CR0..CR7
	XER   uint32 // fixed point exception register (carry, overflow, summary)
	FPSCR uint32 // floating point status and control register
	LR    uint64 // link register
	CTR   uint64 // count register

	// DidCarry/DidOverflow are set by the last ADD/SUB with
	// FlagArithSetCarry and consumed by DID_CARRY/DID_OVERFLOW.
	DidCarry    bool
	DidOverflow bool

	ThreadID uint32
}

// Context layout: byte offsets into ThreadState published as compile-time
// constants so the frontend's LoadGPR/StoreGPR and friends can emit
// LOAD_CONTEXT/STORE_CONTEXT with stable offsets, independent of any
// particular backend's register allocation.
const (
	OffsetGPR0 = 0
	gprStride  = 8
	OffsetFPR0 = OffsetGPR0 + 32*gprStride
	fprStride  = 8
	OffsetVR0  = OffsetFPR0 + 32*fprStride
	vrStride   = 16
	OffsetCR     = OffsetVR0 + 128*vrStride
	OffsetXER    = OffsetCR + 4
	OffsetFPSCR  = OffsetXER + 4
	OffsetLR     = OffsetFPSCR + 4
	OffsetCTR    = OffsetLR + 8
)

// GPROffset returns the byte offset of general-purpose register r.
func GPROffset(r uint32) uint64 { return uint64(OffsetGPR0 + int(r)*gprStride) }

// FPROffset returns the byte offset of floating point register r.
func FPROffset(r uint32) uint64 { return uint64(OffsetFPR0 + int(r)*fprStride) }

// VROffset returns the byte offset of AltiVec/VMX128 vector register r.
func VROffset(r uint32) uint64 { return uint64(OffsetVR0 + int(r)*vrStride) }

// ReadContext and WriteContext are the byte-offset accessors an
// interpreting backend needs for LOAD_CONTEXT/STORE_CONTEXT: the offset
// alone determines which physical field is hit, since each field range
// only ever carries the one HIR type the frontend emits for it (GPR/LR/
// CTR as I64, FPR as F64, VR as V128, CR/XER/FPSCR as I32).
func (ts *ThreadState) ReadContext(off uint64) Const128 {
	switch {
	case off < OffsetFPR0:
		return Const128{Lo: ts.GPR[(off-OffsetGPR0)/gprStride]}
	case off < OffsetVR0:
		return Const128{Lo: math.Float64bits(ts.FPR[(off-OffsetFPR0)/fprStride])}
	case off < OffsetCR:
		return ts.VR[(off-OffsetVR0)/vrStride]
	case off == OffsetCR:
		return Const128{Lo: uint64(ts.CR)}
	case off == OffsetXER:
		return Const128{Lo: uint64(ts.XER)}
	case off == OffsetFPSCR:
		return Const128{Lo: uint64(ts.FPSCR)}
	case off == OffsetLR:
		return Const128{Lo: ts.LR}
	case off == OffsetCTR:
		return Const128{Lo: ts.CTR}
	default:
		return Const128{}
	}
}

// WriteContext is ReadContext's inverse.
func (ts *ThreadState) WriteContext(off uint64, v Const128) {
	switch {
	case off < OffsetFPR0:
		ts.GPR[(off-OffsetGPR0)/gprStride] = v.Lo
	case off < OffsetVR0:
		ts.FPR[(off-OffsetFPR0)/fprStride] = math.Float64frombits(v.Lo)
	case off < OffsetCR:
		ts.VR[(off-OffsetVR0)/vrStride] = v
	case off == OffsetCR:
		ts.CR = uint32(v.Lo)
	case off == OffsetXER:
		ts.XER = uint32(v.Lo)
	case off == OffsetFPSCR:
		ts.FPSCR = uint32(v.Lo)
	case off == OffsetLR:
		ts.LR = v.Lo
	case off == OffsetCTR:
		ts.CTR = v.Lo
	}
}
