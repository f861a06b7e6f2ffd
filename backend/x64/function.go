/*
   x64: the CompiledFunction a successful lowering produces.

   Copyright (c) 2024, the ppcjit authors.
*/

package x64

import (
	"unsafe"

	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/state"
)

// compiledFunction is a finalized, executable machine code buffer.
type compiledFunction struct {
	entry uintptr
	code  *codeBuffer // kept alive so the mmap backing it is never GC'd away
}

// Execute implements registry.CompiledFunction by handing control to the
// native entry point through the trampoline, passing the live
// ThreadState/Flat pair in this backend's fixed rcx/rdx convention.
func (cf *compiledFunction) Execute(ts *state.ThreadState, mem *memory.Flat) uint64 {
	membase := uintptr(unsafe.Pointer(&mem.Bytes()[0]))
	return callNative(cf.entry, uintptr(unsafe.Pointer(ts)), membase)
}
