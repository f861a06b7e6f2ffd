/*
   x64: a registry.Backend that compiles scalar integer, call-free guest
   functions to native machine code and falls back to backend/interp for
   everything else.

   Copyright (c) 2024, the ppcjit authors.

   Grounded the same way backend/interp is grounded on the teacher's
   cpu.table dispatch (see that package's backend.go): DeclareFunction's
   blr scan is identical scanning logic, so it's simply delegated to an
   embedded interpreting backend rather than duplicated.
*/

package x64

import (
	"github.com/rcornwell/ppcjit/backend/interp"
	"github.com/rcornwell/ppcjit/frontend"
	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/registry"
)

// Backend translates guest functions to HIR via the frontend and, when
// the result fits this backend's scalar-integer/call-free subset (see
// lower.go), emits native x86-64 machine code for it. Anything wider -
// float, vector, dynamic calls - is defined by the embedded interpreting
// backend instead, so DefineFunction never has to fail just because one
// function happens to use AltiVec.
type Backend struct {
	mem      *memory.Flat
	rt       *registry.Runtime
	fallback *interp.Backend
}

// NewBackend creates a native-code backend over mem. Call SetRuntime once
// the owning registry.Runtime exists, same two-step composition
// backend/interp's NewBackend documents.
func NewBackend(mem *memory.Flat) *Backend {
	return &Backend{mem: mem, fallback: interp.NewBackend(mem)}
}

// SetRuntime wires the runtime both this backend and its interpreting
// fallback resolve CALL/CALL_INDIRECT targets through.
func (b *Backend) SetRuntime(rt *registry.Runtime) {
	b.rt = rt
	b.fallback.SetRuntime(rt)
}

// DeclareFunction delegates to the interpreting backend's identical blr
// scan - the function's extent doesn't depend on which backend will go
// on to define it.
func (b *Backend) DeclareFunction(info *registry.FunctionInfo) error {
	return b.fallback.DeclareFunction(info)
}

// DefineFunction translates info to HIR, attempts native lowering, and
// falls back to interpretation when lowering declines (not errors) the
// function.
func (b *Backend) DefineFunction(info *registry.FunctionInfo, debugInfoFlags, traceFlags uint32) (registry.CompiledFunction, error) {
	var words []uint32
	for addr := uint32(info.Address); addr < uint32(info.EndAddress); addr += 4 {
		word, err := b.mem.Load32(addr)
		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}

	fn, err := frontend.NewTranslator(info.Name, info.Address, words).Translate()
	if err != nil {
		return nil, err
	}

	code, ok, err := lowerFunction(fn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return b.fallback.DefineFunction(info, debugInfoFlags, traceFlags)
	}

	entry, err := code.finalize()
	if err != nil {
		return nil, err
	}
	return &compiledFunction{entry: entry, code: code}, nil
}
