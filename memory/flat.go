/*
   Memory: flat guest address space.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on the teacher's emu/memory/memory.go: a single flat backing
   array addressed directly by the guest, with no page table layer. The
   Xbox 360's 32 bit guest address space is far larger than the S370's
   24 bit one, so Flat takes its size at construction instead of hardcoding
   an array length, but the access pattern is the same: mask/shift straight
   into a slice behind one range check per access, no page-table or
   object model.
*/

package memory

import (
	"encoding/binary"
	"errors"
)

// ErrOutOfRange is returned when a guest address falls outside the backing
// array.
var ErrOutOfRange = errors.New("memory: address out of range")

// Flat is guest physical memory: one big-endian byte slice, matching the
// PowerPC's big-endian addressing. Backends read/write it directly through
// the membase pointer convention described in SPEC_FULL.md component D.
type Flat struct {
	bytes []byte
}

// NewFlat allocates size bytes of zeroed guest memory.
func NewFlat(size uint32) *Flat {
	return &Flat{bytes: make([]byte, size)}
}

// Bytes exposes the backing slice, e.g. for an x64 backend to take its
// address as the membase register value.
func (f *Flat) Bytes() []byte { return f.bytes }

// Size returns the number of addressable bytes.
func (f *Flat) Size() uint32 { return uint32(len(f.bytes)) }

func (f *Flat) bounds(addr uint32, n uint32) bool {
	return uint64(addr)+uint64(n) <= uint64(len(f.bytes))
}

func (f *Flat) Load8(addr uint32) (uint8, error) {
	if !f.bounds(addr, 1) {
		return 0, ErrOutOfRange
	}
	return f.bytes[addr], nil
}

func (f *Flat) Store8(addr uint32, v uint8) error {
	if !f.bounds(addr, 1) {
		return ErrOutOfRange
	}
	f.bytes[addr] = v
	return nil
}

func (f *Flat) Load16(addr uint32) (uint16, error) {
	if !f.bounds(addr, 2) {
		return 0, ErrOutOfRange
	}
	return binary.BigEndian.Uint16(f.bytes[addr:]), nil
}

func (f *Flat) Store16(addr uint32, v uint16) error {
	if !f.bounds(addr, 2) {
		return ErrOutOfRange
	}
	binary.BigEndian.PutUint16(f.bytes[addr:], v)
	return nil
}

func (f *Flat) Load32(addr uint32) (uint32, error) {
	if !f.bounds(addr, 4) {
		return 0, ErrOutOfRange
	}
	return binary.BigEndian.Uint32(f.bytes[addr:]), nil
}

func (f *Flat) Store32(addr uint32, v uint32) error {
	if !f.bounds(addr, 4) {
		return ErrOutOfRange
	}
	binary.BigEndian.PutUint32(f.bytes[addr:], v)
	return nil
}

func (f *Flat) Load64(addr uint32) (uint64, error) {
	if !f.bounds(addr, 8) {
		return 0, ErrOutOfRange
	}
	return binary.BigEndian.Uint64(f.bytes[addr:]), nil
}

func (f *Flat) Store64(addr uint32, v uint64) error {
	if !f.bounds(addr, 8) {
		return ErrOutOfRange
	}
	binary.BigEndian.PutUint64(f.bytes[addr:], v)
	return nil
}

// Load128 reads a 16 byte-aligned vector (lvx semantics): the low 4 bits of
// addr are masked off before the read, matching the frontend's
// address-masking contract for V128 memory round-trips.
func (f *Flat) Load128(addr uint32) (lo, hi uint64, err error) {
	addr &^= 0xF
	if !f.bounds(addr, 16) {
		return 0, 0, ErrOutOfRange
	}
	hi = binary.BigEndian.Uint64(f.bytes[addr:])
	lo = binary.BigEndian.Uint64(f.bytes[addr+8:])
	return lo, hi, nil
}

// Store128 writes a 16 byte-aligned vector (stvx semantics).
func (f *Flat) Store128(addr uint32, lo, hi uint64) error {
	addr &^= 0xF
	if !f.bounds(addr, 16) {
		return ErrOutOfRange
	}
	binary.BigEndian.PutUint64(f.bytes[addr:], hi)
	binary.BigEndian.PutUint64(f.bytes[addr+8:], lo)
	return nil
}
