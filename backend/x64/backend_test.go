/*
   x64: end to end backend tests, including interpreter fallback.

   Copyright (c) 2024, the ppcjit authors.
*/

package x64

import (
	"testing"

	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/ppcasm"
	"github.com/rcornwell/ppcjit/registry"
	"github.com/rcornwell/ppcjit/state"
)

func newTestRuntime(t *testing.T, base uint64, src string) (*registry.Runtime, *memory.Flat) {
	t.Helper()
	words, err := ppcasm.AssembleProgram(base, src)
	if err != nil {
		t.Fatalf("AssembleProgram: %v", err)
	}

	mem := memory.NewFlat(1 << 20)
	addr := uint32(base)
	for _, w := range words {
		if err := mem.Store32(addr, w); err != nil {
			t.Fatalf("Store32: %v", err)
		}
		addr += 4
	}

	b := NewBackend(mem)
	rt := registry.NewRuntime(mem, b)
	b.SetRuntime(rt)
	rt.AddModule(registry.NewModule("test", base, uint64(len(words))*4))
	return rt, mem
}

// TestScalarFunctionCompilesNative checks that a call-free, scalar
// integer function is handed back as this backend's own
// *compiledFunction rather than falling through to the interpreter.
func TestScalarFunctionCompilesNative(t *testing.T) {
	rt, mem := newTestRuntime(t, 0x1000, `
		addi r3,r0,5
		addi r4,r0,7
		add r3,r3,r4
		blr
	`)

	ts := &state.ThreadState{LR: 0xDEADBEEF}
	info, err := rt.ResolveFunction(0x1000, 0, 0)
	if err != nil {
		t.Fatalf("ResolveFunction: %v", err)
	}
	if _, ok := info.Function().(*compiledFunction); !ok {
		t.Fatalf("expected a native *compiledFunction, got %T", info.Function())
	}

	ret := info.Function().Execute(ts, mem)
	if ret != 0xDEADBEEF {
		t.Fatalf("expected blr to return to LR=0xDEADBEEF, got %#x", ret)
	}
	if ts.GPR[3] != 12 {
		t.Fatalf("expected r3=12, got %d", ts.GPR[3])
	}
}

// TestCarryProducingAddFallsBackToInterp checks that addc - whose flag
// semantics lowerFunction declines to lower (see lower.go's supported) -
// is handed to the embedded interpreting backend instead, and still
// executes correctly there.
func TestCarryProducingAddFallsBackToInterp(t *testing.T) {
	rt, mem := newTestRuntime(t, 0x2000, `
		addi r3,r0,-1
		addi r4,r0,1
		addc r5,r3,r4
		blr
	`)

	ts := &state.ThreadState{LR: 0}
	info, err := rt.ResolveFunction(0x2000, 0, 0)
	if err != nil {
		t.Fatalf("ResolveFunction: %v", err)
	}
	if _, ok := info.Function().(*compiledFunction); ok {
		t.Fatalf("expected addc to decline native lowering, got a native *compiledFunction")
	}

	info.Function().Execute(ts, mem)
	if ts.GPR[5] != 0 {
		t.Fatalf("expected r5=0 from -1+1 wraparound, got %d", ts.GPR[5])
	}
	if !ts.DidCarry {
		t.Fatalf("expected carry to be recorded for -1+1")
	}
}

// TestVectorFunctionFallsBackToInterp checks that a function touching
// AltiVec state - outside this backend's scalar-only subset - is
// defined by the interpreter and still produces correct results.
func TestVectorFunctionFallsBackToInterp(t *testing.T) {
	rt, mem := newTestRuntime(t, 0x3000, `
		vspltisw v4,3
		vaddfp v5,v4,v4
		blr
	`)

	ts := &state.ThreadState{LR: 0xCAFEBABE}
	info, err := rt.ResolveFunction(0x3000, 0, 0)
	if err != nil {
		t.Fatalf("ResolveFunction: %v", err)
	}
	if _, ok := info.Function().(*compiledFunction); ok {
		t.Fatalf("expected a vector function to decline native lowering")
	}

	ret := info.Function().Execute(ts, mem)
	if ret != 0xCAFEBABE {
		t.Fatalf("expected return to LR, got %#x", ret)
	}
}
