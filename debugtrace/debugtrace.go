/*
   debugtrace: bitmask-gated execution tracing.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on the teacher's util/debug: a package-level sink plus a set
   of mask-gated Xxxf functions, one per trace category, rather than a
   single generic log call — callers name the category they're tracing so
   a single bit in the mask enables/disables it.
*/

package debugtrace

import (
	"fmt"
	"io"
	"os"
)

// Flag selects one category of execution trace. Bits compose into a
// single mask, matching the debug_info_flags/trace_flags config keys.
type Flag uint32

const (
	FlagInstr Flag = 1 << iota
	FlagContextLoad
	FlagContextStore
	FlagMemory
	FlagCall
	FlagBranch
)

var sink io.Writer = os.Stderr
var mask Flag

// SetOutput redirects trace output; nil restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	sink = w
}

// SetMask replaces the active trace category mask.
func SetMask(m Flag) { mask = m }

// Enabled reports whether f is active in the current mask.
func Enabled(f Flag) bool { return mask&f != 0 }

func emit(format string, a ...interface{}) {
	fmt.Fprintf(sink, format+"\n", a...)
}

// Instr traces one PPC instruction's decode.
func Instr(pc uint64, mnemonic string) {
	if mask&FlagInstr != 0 {
		emit("%08X: %s", pc, mnemonic)
	}
}

// ContextLoad traces a LOAD_CONTEXT hit, the guest register file offset
// being read and the value produced.
func ContextLoad(offset uint64, value uint64) {
	if mask&FlagContextLoad != 0 {
		emit("ctx+%#x -> %#x", offset, value)
	}
}

// ContextStore traces a STORE_CONTEXT write.
func ContextStore(offset uint64, value uint64) {
	if mask&FlagContextStore != 0 {
		emit("ctx+%#x <- %#x", offset, value)
	}
}

// Memory traces a guest LOAD/STORE.
func Memory(write bool, addr uint64, size int, value uint64) {
	if mask&FlagMemory == 0 {
		return
	}
	dir := "load"
	if write {
		dir = "store"
	}
	emit("mem %s%d %#x = %#x", dir, size*8, addr, value)
}

// Call traces a CALL/CALL_INDIRECT dispatch.
func Call(from, to uint64, tail bool) {
	if mask&FlagCall != 0 {
		emit("call %#x -> %#x tail=%v", from, to, tail)
	}
}

// Branch traces a resolved BRANCH/BRANCH_IF/BRANCH_TRUE/BRANCH_FALSE.
func Branch(from, to uint64, taken bool) {
	if mask&FlagBranch != 0 {
		emit("branch %#x -> %#x taken=%v", from, to, taken)
	}
}
