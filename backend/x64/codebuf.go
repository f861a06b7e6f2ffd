/*
   x64: executable memory allocation.

   Copyright (c) 2024, the ppcjit authors.

   Go gives no portable way to mark a byte slice executable; the standard
   idiom for an in-process JIT is an anonymous mmap opened RW, written
   into, then remapped RX once the code is final. golang.org/x/sys/unix
   is already this module's indirect syscall dependency (pulled in by
   peterh/liner); this promotes it to a direct one.
*/

package x64

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// codeBuffer is a growable RW mmap that becomes a fixed RX mapping once
// finalize is called. The zero value is not usable; use newCodeBuffer.
type codeBuffer struct {
	mem []byte
	len int
}

func newCodeBuffer(capacity int) (*codeBuffer, error) {
	if capacity < unix.Getpagesize() {
		capacity = unix.Getpagesize()
	}
	mem, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("x64: mmap code buffer: %w", err)
	}
	return &codeBuffer{mem: mem}, nil
}

func (c *codeBuffer) emit(b ...byte) {
	if c.len+len(b) > len(c.mem) {
		bigger, err := unix.Mmap(-1, 0, 2*len(c.mem)+len(b), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
		if err != nil {
			panic(fmt.Errorf("x64: grow code buffer: %w", err))
		}
		copy(bigger, c.mem[:c.len])
		_ = unix.Munmap(c.mem)
		c.mem = bigger
	}
	c.len += copy(c.mem[c.len:], b)
}

// pos is the current write offset, used by branch/call fixups to record
// where an instruction's relative displacement field lives.
func (c *codeBuffer) pos() int { return c.len }

// patch32 overwrites the 4 bytes at off with v, little endian - used to
// back-patch a branch/call displacement once its target is known.
func (c *codeBuffer) patch32(off int, v int32) {
	c.mem[off] = byte(v)
	c.mem[off+1] = byte(v >> 8)
	c.mem[off+2] = byte(v >> 16)
	c.mem[off+3] = byte(v >> 24)
}

// finalize remaps the buffer executable and returns a pointer to its
// first byte, ready to be handed to the native-call trampoline. The
// mapping is never unmapped: compiled functions live for the process's
// remaining lifetime, the same assumption registry.Runtime's function
// cache already makes about interpreted ones.
func (c *codeBuffer) finalize() (uintptr, error) {
	if err := unix.Mprotect(c.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return 0, fmt.Errorf("x64: mprotect code buffer executable: %w", err)
	}
	return uintptr(unsafe.Pointer(&c.mem[0])), nil
}
