/*
   Registry: modules.

   Copyright (c) 2024, the ppcjit authors.
*/

package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Module owns a contiguous guest address range and the FunctionInfo
// records declared within it. Declaring a FunctionInfo (adding it to the
// module's map) is serialized by mu, the per-module lock named in
// SPEC_FULL.md; the DECLARED -> DEFINED transition is guarded separately
// by each FunctionInfo's own defineMu (function.go).
type Module struct {
	name string
	base uint64
	size uint64

	mu        sync.Mutex
	functions map[uint64]*FunctionInfo
}

// NewModule creates a module owning [base, base+size).
func NewModule(name string, base, size uint64) *Module {
	return &Module{name: name, base: base, size: size, functions: map[uint64]*FunctionInfo{}}
}

func (m *Module) Name() string { return m.name }

// Base and Size report the address range this module owns, for tooling
// that needs to print it (console's "modules" command).
func (m *Module) Base() uint64 { return m.base }
func (m *Module) Size() uint64 { return m.size }

// ContainsAddress reports whether addr falls within this module's range.
func (m *Module) ContainsAddress(addr uint64) bool {
	return addr >= m.base && addr < m.base+m.size
}

// declareLocked returns the existing FunctionInfo at addr, or creates one
// in StatusDeclared. Either way the caller gets back a FunctionInfo whose
// status is at least StatusDeclared.
func (m *Module) declareLocked(addr uint64) *FunctionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fi, ok := m.functions[addr]; ok {
		return fi
	}
	fi := &FunctionInfo{Address: addr, status: StatusDeclared}
	m.functions[addr] = fi
	return fi
}

// lookup returns the FunctionInfo at addr if one has been declared.
func (m *Module) lookup(addr uint64) (*FunctionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fi, ok := m.functions[addr]
	return fi, ok
}

// functionsAt returns every FunctionInfo registered at addr in this
// module — always at most one, since addresses are the map key, but kept
// as a slice so Runtime.FindFunctionsWithAddress can concatenate across
// modules uniformly.
func (m *Module) functionsAt(addr uint64) []*FunctionInfo {
	if fi, ok := m.lookup(addr); ok {
		return []*FunctionInfo{fi}
	}
	return nil
}

// BuiltinModule owns the synthetic address range above 0xFFFF0000 used
// for extern bindings created by DefineBuiltin. Its address allocator is
// an atomic monotone counter, matching the invariant in SPEC_FULL.md that
// it must be safe to call DefineBuiltin concurrently.
type BuiltinModule struct {
	*Module
	next uint64
}

const builtinBase = 0xFFFF0000

// NewBuiltinModule creates the well-known builtin address space module.
func NewBuiltinModule() *BuiltinModule {
	return &BuiltinModule{
		Module: NewModule("builtin", builtinBase, 0x10000),
		next:   builtinBase,
	}
}

// Allocate reserves and returns the next synthetic guest address.
func (b *BuiltinModule) Allocate() (uint64, error) {
	addr := atomic.AddUint64(&b.next, 1) - 1
	if addr >= builtinBase+0x10000 {
		return 0, fmt.Errorf("registry: builtin address space exhausted")
	}
	return addr, nil
}

// Define registers an extern binding at a freshly allocated address and
// marks it ready for dispatch immediately — builtins need no translation.
func (b *BuiltinModule) Define(name string, handler ExternHandler, arg0, arg1 uintptr) (*FunctionInfo, error) {
	addr, err := b.Allocate()
	if err != nil {
		return nil, err
	}
	fi := &FunctionInfo{
		Address:       addr,
		EndAddress:    addr,
		Name:          name,
		ExternHandler: handler,
		ExternArg0:    arg0,
		ExternArg1:    arg1,
		status:        StatusDefined,
	}
	b.mu.Lock()
	b.functions[addr] = fi
	b.mu.Unlock()
	return fi, nil
}
