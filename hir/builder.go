/*
   HIR: function builder with build-time constant folding.

   Copyright (c) 2024, the ppcjit authors.

   Add, Sub, Mul, Neg, Abs, And, Or, Xor, Not, Shl, Shr, Assign, Cast,
   ZeroExtend, SignExtend and Truncate check whether every input is a
   constant before emitting anything; if so the result is materialized
   directly as a new constant Value and no instruction is produced. The
   other methods (Div, MulAdd/MulSub, Sqrt/RSqrt, Sha, RotateLeft,
   ByteSwap, CountLeadingZeros, Convert, the compares, the vector
   operations and the SetCarry variants) always emit an instruction. This
   is the whole of the "optimizer": there is no separate dead-code or
   constant-propagation pass, see SPEC_FULL.md component D.
*/

package hir

import "math"

// Builder assembles a single Function, one instruction at a time, into
// its current block.
type Builder struct {
	Func    *Function
	current *Block
}

// NewBuilder starts building fn at its entry block.
func NewBuilder(fn *Function) *Builder {
	return &Builder{Func: fn, current: fn.Entry()}
}

// SetBlock redirects subsequent emission to b.
func (b *Builder) SetBlock(blk *Block) { b.current = blk }

// Block returns the block currently being appended to.
func (b *Builder) Block() *Block { return b.current }

// NewBlock creates and switches to a fresh block.
func (b *Builder) NewBlock() *Block {
	blk := b.Func.NewBlock()
	b.current = blk
	return blk
}

func (b *Builder) emit(op Opcode, flags InstrFlag, destType Type, s1, s2, s3 Operand) *Instr {
	instr := &Instr{Op: op, Flags: flags, Src1: s1, Src2: s2, Src3: s3}
	info := op.Info()
	if info.Signature.Dest != SigX {
		instr.Dest = NewValue(destType, instr)
	}
	b.current.append(instr)
	return instr
}

// LoadConstant materializes a compile-time-known value.
func (b *Builder) LoadConstant(t Type, c Const128) *Value {
	return NewConstant(t, c)
}

func (b *Builder) constU64(t Type, v uint64) *Value { return NewConstant(t, ConstFromU64(v)) }
func (b *Builder) constF64(t Type, v float64) *Value {
	if t == TypeF32 {
		var c Const128
		c.SetF32(0, float32(v))
		return NewConstant(t, c)
	}
	return NewConstant(t, ConstFromF64(v))
}

// truncate masks a raw 64 bit computation down to t's width.
func truncate(t Type, v uint64) uint64 {
	switch t {
	case TypeI8:
		return v & 0xFF
	case TypeI16:
		return v & 0xFFFF
	case TypeI32:
		return v & 0xFFFFFFFF
	default:
		return v
	}
}

// foldBinaryInt attempts constant folding for an integer binary op; ok is
// false if either operand isn't a foldable scalar constant.
func foldBinaryInt(t Type, a, bb *Value, fn func(x, y uint64) uint64) (*Value, bool) {
	if a == nil || bb == nil || !a.IsConstant() || !bb.IsConstant() || t == TypeV128 {
		return nil, false
	}
	if t.IsFloat() {
		return nil, false
	}
	return NewConstant(t, ConstFromU64(truncate(t, fn(a.AsU64(), bb.AsU64())))), true
}

func foldBinaryFloat(t Type, a, bb *Value, fn func(x, y float64) float64) (*Value, bool) {
	if a == nil || bb == nil || !a.IsConstant() || !bb.IsConstant() || !t.IsFloat() {
		return nil, false
	}
	r := fn(a.AsF64(), bb.AsF64())
	if t == TypeF32 {
		var c Const128
		c.SetF32(0, float32(r))
		return NewConstant(t, c), true
	}
	return NewConstant(t, ConstFromF64(r)), true
}

// Add builds dest = a + b, folding when both operands are constant.
func (b *Builder) Add(t Type, a, bb *Value) *Value {
	if t.IsFloat() {
		if v, ok := foldBinaryFloat(t, a, bb, func(x, y float64) float64 { return x + y }); ok {
			return v
		}
	} else if v, ok := foldBinaryInt(t, a, bb, func(x, y uint64) uint64 { return x + y }); ok {
		return v
	}
	return b.emit(OpAdd, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

// AddSetCarry is Add with the carry-producing flag set; never folded
// since callers need the DID_CARRY companion instruction.
func (b *Builder) AddSetCarry(t Type, a, bb *Value) *Value {
	return b.emit(OpAdd, FlagArithSetCarry, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) Sub(t Type, a, bb *Value) *Value {
	if t.IsFloat() {
		if v, ok := foldBinaryFloat(t, a, bb, func(x, y float64) float64 { return x - y }); ok {
			return v
		}
	} else if v, ok := foldBinaryInt(t, a, bb, func(x, y uint64) uint64 { return x - y }); ok {
		return v
	}
	return b.emit(OpSub, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

// SubSetCarry is Sub with the carry-producing flag set, the subf/subfc
// sibling of AddSetCarry; never folded since callers need the DID_CARRY
// companion instruction.
func (b *Builder) SubSetCarry(t Type, a, bb *Value) *Value {
	return b.emit(OpSub, FlagArithSetCarry, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) Mul(t Type, a, bb *Value) *Value {
	if t.IsFloat() {
		if v, ok := foldBinaryFloat(t, a, bb, func(x, y float64) float64 { return x * y }); ok {
			return v
		}
	} else if v, ok := foldBinaryInt(t, a, bb, func(x, y uint64) uint64 { return x * y }); ok {
		return v
	}
	return b.emit(OpMul, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) Div(t Type, a, bb *Value) *Value {
	return b.emit(OpDiv, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

// MulAdd builds dest = (a*b)+c.
func (b *Builder) MulAdd(t Type, a, bb, c *Value) *Value {
	return b.emit(OpMulAdd, 0, t, ValueOperand(a), ValueOperand(bb), ValueOperand(c)).Dest
}

func (b *Builder) MulSub(t Type, a, bb, c *Value) *Value {
	return b.emit(OpMulSub, 0, t, ValueOperand(a), ValueOperand(bb), ValueOperand(c)).Dest
}

func (b *Builder) Neg(t Type, a *Value) *Value {
	if a != nil && a.IsConstant() {
		if t.IsFloat() {
			return b.constF64(t, -a.AsF64())
		}
		return b.constU64(t, truncate(t, -a.AsU64()))
	}
	return b.emit(OpNeg, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) Abs(t Type, a *Value) *Value {
	if a != nil && a.IsConstant() {
		if t.IsFloat() {
			return b.constF64(t, math.Abs(a.AsF64()))
		}
		v := int64(a.AsU64())
		if v < 0 {
			v = -v
		}
		return b.constU64(t, truncate(t, uint64(v)))
	}
	return b.emit(OpAbs, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) Sqrt(t Type, a *Value) *Value {
	return b.emit(OpSqrt, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) RSqrt(t Type, a *Value) *Value {
	return b.emit(OpRSqrt, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) DotProduct3(a, bb *Value) *Value {
	return b.emit(OpDotProduct3, 0, TypeV128, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) DotProduct4(a, bb *Value) *Value {
	return b.emit(OpDotProduct4, 0, TypeV128, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) And(t Type, a, bb *Value) *Value {
	if v, ok := foldBinaryInt(t, a, bb, func(x, y uint64) uint64 { return x & y }); ok {
		return v
	}
	return b.emit(OpAnd, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) Or(t Type, a, bb *Value) *Value {
	if v, ok := foldBinaryInt(t, a, bb, func(x, y uint64) uint64 { return x | y }); ok {
		return v
	}
	return b.emit(OpOr, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) Xor(t Type, a, bb *Value) *Value {
	if v, ok := foldBinaryInt(t, a, bb, func(x, y uint64) uint64 { return x ^ y }); ok {
		return v
	}
	return b.emit(OpXor, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) Not(t Type, a *Value) *Value {
	if a != nil && a.IsConstant() && !t.IsFloat() {
		return b.constU64(t, truncate(t, ^a.AsU64()))
	}
	return b.emit(OpNot, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) Shl(t Type, a, bb *Value) *Value {
	if v, ok := foldBinaryInt(t, a, bb, func(x, y uint64) uint64 { return x << (y & 63) }); ok {
		return v
	}
	return b.emit(OpShl, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) Shr(t Type, a, bb *Value) *Value {
	if v, ok := foldBinaryInt(t, a, bb, func(x, y uint64) uint64 { return x >> (y & 63) }); ok {
		return v
	}
	return b.emit(OpShr, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) Sha(t Type, a, bb *Value) *Value {
	return b.emit(OpSha, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) VectorShl(elem Type, a, bb *Value) *Value {
	return b.emit(OpVectorShl, WithElementType(0, elem), TypeV128, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) VectorShr(elem Type, a, bb *Value) *Value {
	return b.emit(OpVectorShr, WithElementType(0, elem), TypeV128, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) RotateLeft(t Type, a, bb *Value) *Value {
	return b.emit(OpRotateLeft, 0, t, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) ByteSwap(t Type, a *Value) *Value {
	return b.emit(OpByteSwap, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) CountLeadingZeros(t Type, a *Value) *Value {
	return b.emit(OpCntlz, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

// Extract pulls lane index (a constant or dynamic Value) of element type
// elem out of vec.
func (b *Builder) Extract(elem Type, vec, index *Value) *Value {
	return b.emit(OpExtract, WithElementType(0, elem), elem, ValueOperand(vec), ValueOperand(index), Operand{}).Dest
}

// Splat broadcasts scalar into all lanes of a V128 of element type elem.
func (b *Builder) Splat(elem Type, scalar *Value) *Value {
	return b.emit(OpSplat, WithElementType(0, elem), TypeV128, ValueOperand(scalar), Operand{}, Operand{}).Dest
}

// Permute selects bytes of data1/data2 using control.
func (b *Builder) Permute(elem Type, control, data1, data2 *Value) *Value {
	return b.emit(OpPermute, WithElementType(0, elem), TypeV128, ValueOperand(control), ValueOperand(data1), ValueOperand(data2)).Dest
}

// Swizzle rearranges vec's lanes according to the 8 bit control packed
// into flags.
func (b *Builder) Swizzle(control uint8, vec *Value) *Value {
	return b.emit(OpSwizzle, InstrFlag(control), TypeV128, ValueOperand(vec), Operand{}, Operand{}).Dest
}

func (b *Builder) VectorConvertI2F(a *Value) *Value {
	return b.emit(OpVectorConvertI2F, 0, TypeV128, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) VectorConvertF2I(a *Value) *Value {
	return b.emit(OpVectorConvertF2I, 0, TypeV128, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) vectorCompare(op Opcode, a, bb *Value) *Value {
	return b.emit(op, 0, TypeV128, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) VectorCompareEQ(a, bb *Value) *Value  { return b.vectorCompare(OpVectorCompareEQ, a, bb) }
func (b *Builder) VectorCompareSGT(a, bb *Value) *Value { return b.vectorCompare(OpVectorCompareSGT, a, bb) }
func (b *Builder) VectorCompareSGE(a, bb *Value) *Value { return b.vectorCompare(OpVectorCompareSGE, a, bb) }
func (b *Builder) VectorCompareUGT(a, bb *Value) *Value { return b.vectorCompare(OpVectorCompareUGT, a, bb) }
func (b *Builder) VectorCompareUGE(a, bb *Value) *Value { return b.vectorCompare(OpVectorCompareUGE, a, bb) }

// VectorCompareBounds is vcmpbfp's "bounds compare": per lane, bit 31 of
// the result is set when a > b and bit 30 when a < -b, zero in both tests
// meaning -b <= a <= b. Unlike the other VectorCompare* forms
// this is not a uniform true/false mask.
func (b *Builder) VectorCompareBounds(a, bb *Value) *Value {
	return b.vectorCompare(OpVectorCompareBounds, a, bb)
}

func (b *Builder) compare(op Opcode, a, bb *Value) *Value {
	return b.emit(op, 0, TypeI8, ValueOperand(a), ValueOperand(bb), Operand{}).Dest
}

func (b *Builder) CompareEQ(a, bb *Value) *Value  { return b.compare(OpCompareEQ, a, bb) }
func (b *Builder) CompareNE(a, bb *Value) *Value  { return b.compare(OpCompareNE, a, bb) }
func (b *Builder) CompareSLT(a, bb *Value) *Value { return b.compare(OpCompareSLT, a, bb) }
func (b *Builder) CompareSLE(a, bb *Value) *Value { return b.compare(OpCompareSLE, a, bb) }
func (b *Builder) CompareSGT(a, bb *Value) *Value { return b.compare(OpCompareSGT, a, bb) }
func (b *Builder) CompareSGE(a, bb *Value) *Value { return b.compare(OpCompareSGE, a, bb) }
func (b *Builder) CompareULT(a, bb *Value) *Value { return b.compare(OpCompareULT, a, bb) }
func (b *Builder) CompareULE(a, bb *Value) *Value { return b.compare(OpCompareULE, a, bb) }
func (b *Builder) CompareUGT(a, bb *Value) *Value { return b.compare(OpCompareUGT, a, bb) }
func (b *Builder) CompareUGE(a, bb *Value) *Value { return b.compare(OpCompareUGE, a, bb) }

func (b *Builder) DidCarry() *Value {
	return b.emit(OpDidCarry, 0, TypeI8, Operand{}, Operand{}, Operand{}).Dest
}

func (b *Builder) DidOverflow() *Value {
	return b.emit(OpDidOverflow, 0, TypeI8, Operand{}, Operand{}, Operand{}).Dest
}

// Select picks a if cond is true else b2, matching cond's truthiness as
// defined by IS_TRUE.
func (b *Builder) Select(t Type, cond, a, b2 *Value) *Value {
	return b.emit(OpSelect, 0, t, ValueOperand(cond), ValueOperand(a), ValueOperand(b2)).Dest
}

func (b *Builder) Assign(t Type, a *Value) *Value {
	if a != nil && a.IsConstant() {
		return NewConstant(t, a.Constant())
	}
	return b.emit(OpAssign, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) Cast(t Type, a *Value) *Value {
	if a != nil && a.IsConstant() {
		return NewConstant(t, a.Constant())
	}
	return b.emit(OpCast, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) ZeroExtend(t Type, a *Value) *Value {
	if a != nil && a.IsConstant() {
		return b.constU64(t, truncate(t, a.AsU64()))
	}
	return b.emit(OpZeroExtend, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) SignExtend(t Type, a *Value) *Value {
	if a != nil && a.IsConstant() {
		return b.constU64(t, truncate(t, signExtendTo64(a.Type(), a.AsU64())))
	}
	return b.emit(OpSignExtend, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func signExtendTo64(from Type, v uint64) uint64 {
	switch from {
	case TypeI8:
		return uint64(int64(int8(v)))
	case TypeI16:
		return uint64(int64(int16(v)))
	case TypeI32:
		return uint64(int64(int32(v)))
	default:
		return v
	}
}

func (b *Builder) Truncate(t Type, a *Value) *Value {
	if a != nil && a.IsConstant() {
		return b.constU64(t, truncate(t, a.AsU64()))
	}
	return b.emit(OpTruncate, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

func (b *Builder) Convert(t Type, a *Value) *Value {
	return b.emit(OpConvert, 0, t, ValueOperand(a), Operand{}, Operand{}).Dest
}

// LoadContext reads the guest register file at byte offset off.
func (b *Builder) LoadContext(t Type, off uint64) *Value {
	return b.emit(OpLoadContext, 0, t, OffsetOperand(off), Operand{}, Operand{}).Dest
}

// StoreContext writes val to the guest register file at byte offset off.
func (b *Builder) StoreContext(off uint64, val *Value) {
	b.emit(OpStoreContext, 0, val.Type(), OffsetOperand(off), ValueOperand(val), Operand{})
}

// Load reads guest memory at the address held in addr.
func (b *Builder) Load(t Type, addr *Value) *Value {
	return b.emit(OpLoad, 0, t, ValueOperand(addr), Operand{}, Operand{}).Dest
}

// Store writes val to guest memory at the address held in addr.
func (b *Builder) Store(addr, val *Value) {
	b.emit(OpStore, 0, val.Type(), ValueOperand(addr), ValueOperand(val), Operand{})
}

func (b *Builder) Prefetch(addr *Value, size uint64) {
	b.emit(OpPrefetch, 0, 0, ValueOperand(addr), OffsetOperand(size), Operand{})
}

func (b *Builder) LoadClock() *Value {
	return b.emit(OpLoadClock, 0, TypeI64, Operand{}, Operand{}, Operand{}).Dest
}

// Call emits a direct call to sym. tail marks it as a tail call.
func (b *Builder) Call(sym *Symbol, tail bool) {
	flags := InstrFlag(0)
	if tail {
		flags |= FlagCallTail
	}
	b.emit(OpCall, flags, 0, SymbolOperand(sym), Operand{}, Operand{})
}

// CallIndirect emits a call through a dynamic guest address.
func (b *Builder) CallIndirect(target *Value, tail bool) {
	flags := InstrFlag(0)
	if tail {
		flags |= FlagCallTail
	}
	b.emit(OpCallIndirect, flags, 0, ValueOperand(target), Operand{}, Operand{})
}

func (b *Builder) Return() {
	b.emit(OpReturn, 0, 0, Operand{}, Operand{}, Operand{})
}

func (b *Builder) Branch(target *Label) {
	b.emit(OpBranch, 0, 0, LabelOperand(target), Operand{}, Operand{})
}

// BranchIf jumps to ifTrue when cond is true, otherwise to ifFalse.
func (b *Builder) BranchIf(cond *Value, ifTrue, ifFalse *Label) {
	b.emit(OpBranchIf, 0, 0, ValueOperand(cond), LabelOperand(ifTrue), LabelOperand(ifFalse))
}

func (b *Builder) BranchTrue(cond *Value, target *Label) {
	b.emit(OpBranchTrue, 0, 0, ValueOperand(cond), LabelOperand(target), Operand{})
}

func (b *Builder) BranchFalse(cond *Value, target *Label) {
	b.emit(OpBranchFalse, 0, 0, ValueOperand(cond), LabelOperand(target), Operand{})
}

func (b *Builder) DebugBreak() {
	b.emit(OpDebugBreak, 0, 0, Operand{}, Operand{}, Operand{})
}

func (b *Builder) Trap() {
	b.emit(OpTrap, 0, 0, Operand{}, Operand{}, Operand{})
}

// Invalid marks an unrecognized instruction encoding at the given guest
// offset; the runtime treats a function containing one as FAILED.
func (b *Builder) Invalid(offset uint64) {
	b.emit(OpInvalid, 0, 0, OffsetOperand(offset), Operand{}, Operand{})
}

func (b *Builder) Comment(offset uint64) {
	b.emit(OpComment, 0, 0, OffsetOperand(offset), Operand{}, Operand{})
}

func (b *Builder) SourceOffset(offset uint64) {
	b.emit(OpSourceOffset, 0, 0, OffsetOperand(offset), Operand{}, Operand{})
}
