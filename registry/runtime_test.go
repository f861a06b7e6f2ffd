package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/state"
)

type fakeCompiled struct{ addr uint64 }

func (f *fakeCompiled) Execute(_ *state.ThreadState, _ *memory.Flat) uint64 { return 0 }

type countingBackend struct {
	defineCalls int32
}

func (b *countingBackend) DeclareFunction(info *FunctionInfo) error {
	info.EndAddress = info.Address + 4
	return nil
}

func (b *countingBackend) DefineFunction(info *FunctionInfo, _, _ uint32) (CompiledFunction, error) {
	atomic.AddInt32(&b.defineCalls, 1)
	return &fakeCompiled{addr: info.Address}, nil
}

func TestResolveFunctionOnce(t *testing.T) {
	backend := &countingBackend{}
	rt := NewRuntime(memory.NewFlat(0x10000), backend)
	rt.AddModule(NewModule("main", 0, 0x10000))

	const n = 32
	var wg sync.WaitGroup
	results := make([]*FunctionInfo, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fi, err := rt.ResolveFunction(0x100, 0, 0)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = fi
		}(i)
	}
	wg.Wait()

	if backend.defineCalls != 1 {
		t.Fatalf("DefineFunction called %d times, want 1", backend.defineCalls)
	}
	for _, fi := range results {
		if fi != results[0] {
			t.Fatalf("concurrent ResolveFunction returned different FunctionInfo pointers")
		}
	}
}

func TestResolveFunctionNoModule(t *testing.T) {
	backend := &countingBackend{}
	rt := NewRuntime(memory.NewFlat(0x10000), backend)
	if _, err := rt.ResolveFunction(0x500, 0, 0); err == nil {
		t.Fatal("expected error for address with no owning module")
	}
}

func TestDefineBuiltin(t *testing.T) {
	backend := &countingBackend{}
	rt := NewRuntime(memory.NewFlat(0x10000), backend)
	called := false
	fi, err := rt.DefineBuiltin("HostPrint", func(_ *state.ThreadState, _, _ uintptr) { called = true }, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Address < builtinBase {
		t.Fatalf("builtin address %#x below base %#x", fi.Address, builtinBase)
	}
	fi.ExternHandler(nil, 0, 0)
	if !called {
		t.Fatal("extern handler not invoked")
	}
	resolved, err := rt.ResolveFunction(fi.Address, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != fi {
		t.Fatal("ResolveFunction on a builtin address should return the same FunctionInfo without compiling")
	}
}
