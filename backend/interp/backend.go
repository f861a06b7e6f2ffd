/*
   Interp: a direct HIR-interpreting registry.Backend.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on the teacher's createTable()-built cpu.table dispatch
   (emu/cpu/cpu.go): where the teacher interprets PPC^H^HIBM370 opcodes
   directly off the raw instruction stream, this backend interprets HIR
   directly instead of lowering it to a second bytecode form first - the
   frontend's two-pass translation already did the one lowering step this
   port needs.
*/

package interp

import (
	"fmt"

	"github.com/rcornwell/ppcjit/decode"
	"github.com/rcornwell/ppcjit/frontend"
	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/registry"
)

// maxScanWords bounds DeclareFunction's search for a function's blr
// terminator, guarding against a malformed image that never returns.
const maxScanWords = 1 << 14

// Backend is a registry.Backend that walks guest memory, translates it
// to HIR via the frontend package, and interprets the result directly
// rather than emitting machine code.
type Backend struct {
	mem *memory.Flat
	rt  *registry.Runtime
}

// NewBackend creates an interpreting backend over mem. Call SetRuntime
// once the owning registry.Runtime exists, before the first
// ResolveFunction call - the chicken-and-egg is the same one the
// teacher's own composition root has between cpu and sys_channel.
func NewBackend(mem *memory.Flat) *Backend {
	return &Backend{mem: mem}
}

// SetRuntime wires the runtime this backend resolves CALL/CALL_INDIRECT
// targets through.
func (b *Backend) SetRuntime(rt *registry.Runtime) { b.rt = rt }

// DeclareFunction scans forward from info.Address for the first bclr
// word (blr, the common-case PowerPC function terminator, or any
// conditional bclr form), and
// records the word just past it as EndAddress. Functions whose only exit
// is a tail branch out (handled by the frontend as a CALL+RETURN pair)
// are also covered, since that CALL target lies outside this scan
// entirely - EndAddress only needs to bound the *local* decode window.
func (b *Backend) DeclareFunction(info *registry.FunctionInfo) error {
	addr := uint32(info.Address)
	for i := 0; i < maxScanWords; i++ {
		word, err := b.mem.Load32(addr)
		if err != nil {
			return fmt.Errorf("interp: scanning for end of function at %#x: %w", info.Address, err)
		}
		if decode.Opcode(word) == decode.PrimCR && decode.Decode(word).XO == decode.XLBclr {
			info.EndAddress = uint64(addr) + 4
			return nil
		}
		addr += 4
	}
	info.EndAddress = uint64(addr)
	return nil
}

// DefineFunction loads info's word range and translates it to HIR, then
// wraps the result as a CompiledFunction that interprets it directly.
func (b *Backend) DefineFunction(info *registry.FunctionInfo, debugInfoFlags, traceFlags uint32) (registry.CompiledFunction, error) {
	var words []uint32
	for addr := uint32(info.Address); addr < uint32(info.EndAddress); addr += 4 {
		word, err := b.mem.Load32(addr)
		if err != nil {
			return nil, fmt.Errorf("interp: reading guest word at %#x: %w", addr, err)
		}
		words = append(words, word)
	}

	fn, err := frontend.NewTranslator(info.Name, info.Address, words).Translate()
	if err != nil {
		return nil, err
	}

	cf := &compiledFunction{
		fn:             fn,
		rt:             b.rt,
		debugInfoFlags: debugInfoFlags,
		traceFlags:     traceFlags,
	}
	cf.assignSlots()
	return cf, nil
}
