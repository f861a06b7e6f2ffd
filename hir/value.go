/*
   HIR: typed SSA values.

   Copyright (c) 2024, the ppcjit authors.

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
*/

package hir

import "math"

// Type is the scalar/vector type carried by a Value.
type Type uint8

const (
	TypeI8 Type = iota
	TypeI16
	TypeI32
	TypeI64
	TypeF32
	TypeF64
	TypeV128
	MaxTypeName = int(TypeV128) + 1 // 7
)

func (t Type) String() string {
	switch t {
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeV128:
		return "v128"
	default:
		return "?"
	}
}

// IsFloat reports whether t is a floating point scalar type.
func (t Type) IsFloat() bool {
	return t == TypeF32 || t == TypeF64
}

// IsVector reports whether t is the 128 bit vector type.
func (t Type) IsVector() bool {
	return t == TypeV128
}

// Bits returns the width of t in bits.
func (t Type) Bits() int {
	switch t {
	case TypeI8:
		return 8
	case TypeI16:
		return 16
	case TypeI32, TypeF32:
		return 32
	case TypeI64, TypeF64:
		return 64
	case TypeV128:
		return 128
	default:
		return 0
	}
}

// Flags modify how a Value or the instruction that produced it is
// interpreted.
type Flag uint32

const (
	FlagIsConstant Flag = 1 << iota
	FlagArithmeticSetCarry
	FlagArithmeticUnsigned
)

// Const128 is a 128 bit constant with overlapping lane views, wide enough
// to also hold any narrower scalar constant in its low bits.
type Const128 struct {
	Lo uint64
	Hi uint64
}

// I32 returns lane i (0..3) interpreted as a 32 bit integer.
func (c Const128) I32(i int) uint32 {
	if i < 2 {
		return uint32(c.Lo >> (uint(i) * 32))
	}
	return uint32(c.Hi >> (uint(i-2) * 32))
}

// SetI32 sets lane i (0..3) to v.
func (c *Const128) SetI32(i int, v uint32) {
	shift := uint(i%2) * 32
	mask := uint64(0xFFFFFFFF) << shift
	if i < 2 {
		c.Lo = (c.Lo &^ mask) | (uint64(v) << shift)
	} else {
		c.Hi = (c.Hi &^ mask) | (uint64(v) << shift)
	}
}

// F32 returns lane i (0..3) interpreted as float32.
func (c Const128) F32(i int) float32 {
	return math.Float32frombits(c.I32(i))
}

// SetF32 sets lane i (0..3) to v.
func (c *Const128) SetF32(i int, v float32) {
	c.SetI32(i, math.Float32bits(v))
}

// I8 returns byte lane i (0..15).
func (c Const128) I8(i int) uint8 {
	if i < 8 {
		return uint8(c.Lo >> (uint(i) * 8))
	}
	return uint8(c.Hi >> (uint(i-8) * 8))
}

// SetI8 sets byte lane i (0..15) to v.
func (c *Const128) SetI8(i int, v uint8) {
	shift := uint(i%8) * 8
	mask := uint64(0xFF) << shift
	if i < 8 {
		c.Lo = (c.Lo &^ mask) | (uint64(v) << shift)
	} else {
		c.Hi = (c.Hi &^ mask) | (uint64(v) << shift)
	}
}

// U64 returns the scalar constant truncated/zero-extended from the low 64
// bits, for non-vector types.
func (c Const128) U64() uint64 {
	return c.Lo
}

// F64 returns the low 64 bits interpreted as a double.
func (c Const128) F64() float64 {
	return math.Float64frombits(c.Lo)
}

// ConstFromU64 builds a scalar constant in the low 64 bits.
func ConstFromU64(v uint64) Const128 {
	return Const128{Lo: v}
}

// ConstFromF64 builds a scalar double constant.
func ConstFromF64(v float64) Const128 {
	return Const128{Lo: math.Float64bits(v)}
}

// Value is a typed SSA result: either a constant or the single definition
// site of a dynamic value. Once IsConstant is set the Constant field is
// immutable; non-constant values are written exactly once by their
// producing Instr.
type Value struct {
	typ      Type
	flags    Flag
	constant Const128

	// Tag is backend scratch space: the interpreter stores 1+register-slot
	// (0 means "unassigned"). Labels keep their resolved/unresolved bit in
	// Label's own Tag field, see label.go.
	Tag int

	def *Instr // instruction that produced this value, nil for constants
}

// NewConstant builds a constant Value of type t.
func NewConstant(t Type, c Const128) *Value {
	return &Value{typ: t, flags: FlagIsConstant, constant: c}
}

// NewValue builds a fresh dynamic (non-constant) Value defined by def.
func NewValue(t Type, def *Instr) *Value {
	return &Value{typ: t, def: def}
}

func (v *Value) Type() Type       { return v.typ }
func (v *Value) IsConstant() bool { return v.flags&FlagIsConstant != 0 }
func (v *Value) Constant() Const128 {
	return v.constant
}
func (v *Value) Def() *Instr { return v.def }

// AsU64 returns the constant's scalar value; callers must check
// IsConstant first.
func (v *Value) AsU64() uint64 { return v.constant.U64() }

// AsF64 returns the constant's float64 value.
func (v *Value) AsF64() float64 { return v.constant.F64() }
