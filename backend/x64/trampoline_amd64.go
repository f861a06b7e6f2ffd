/*
   x64: declaration for the native-call trampoline implemented in
   trampoline_amd64.s.

   Copyright (c) 2024, the ppcjit authors.

   callNative has no Go body; it's the small, fixed, hand-written bridge
   between Go's call convention and this backend's own (rcx=ThreadState
   pointer, rdx=Flat's backing array pointer, rax=return value) - the
   same kind of assembly stub any Go JIT needs to invoke code the Go
   compiler didn't itself emit, since there is no portable, ABI-stable
   way to call an arbitrary function pointer from pure Go.
*/

package x64

func callNative(code, ts, membase uintptr) uint64
