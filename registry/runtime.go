/*
   Registry: the runtime entry table and ResolveFunction.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on the teacher's concurrency style in emu/core/core.go (a
   small owning struct around a lock plus channels) and emu/sys_channel's
   global unit table, adapted here to the two-level lock the spec
   demands: the entry table's own lock protects the NEW->READY|FAILED
   transition, while each FunctionInfo's own lock (function.go) protects
   DECLARED->DEFINED so a function reachable from two different entries
   still only gets translated once.
*/

package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rcornwell/ppcjit/debugtrace"
	"github.com/rcornwell/ppcjit/memory"
)

// ErrResolutionFailed is returned by ResolveFunction for an address whose
// translation previously failed; callers must not retry it.
var ErrResolutionFailed = errors.New("registry: function resolution failed")

// entryStatus is the entry table's own coarser status, distinct from a
// FunctionInfo's lifecycle: it only needs to know whether *this* entry's
// slot has something usable in it yet.
type entryStatus int

const (
	entryNew entryStatus = iota
	entryReady
	entryFailed
)

type entry struct {
	mu     sync.Mutex
	status entryStatus
	info   *FunctionInfo
}

// DebugHook is notified whenever a function finishes translation, for a
// console or external tool to react to.
type DebugHook interface {
	OnFunctionDefined(info *FunctionInfo)
}

// ExportResolver maps a host import name to a builtin FunctionInfo
// address, used when wiring extern calls from Module metadata.
type ExportResolver func(name string) (uint64, bool)

// Runtime is the top-level composition root: memory, a translation
// backend, the module list, and the entry table that makes ResolveFunction
// safe under concurrent guest threads.
type Runtime struct {
	Memory  *memory.Flat
	Backend Backend
	Debug   DebugHook
	Exports ExportResolver

	modulesMu sync.Mutex
	modules   []*Module
	builtin   *BuiltinModule

	entriesMu sync.Mutex
	entries   map[uint64]*entry
}

// NewRuntime builds a Runtime over the given memory and backend. The
// builtin module is always present so DefineBuiltin works immediately.
func NewRuntime(mem *memory.Flat, backend Backend) *Runtime {
	builtin := NewBuiltinModule()
	return &Runtime{
		Memory:  mem,
		Backend: backend,
		builtin: builtin,
		modules: []*Module{builtin.Module},
		entries: map[uint64]*entry{},
	}
}

// Modules returns a snapshot of every registered module, builtin included —
// tooling support for console's "modules" command, not on the hot path.
func (r *Runtime) Modules() []*Module {
	r.modulesMu.Lock()
	defer r.modulesMu.Unlock()
	return append([]*Module(nil), r.modules...)
}

// AddModule registers a module for address-range ownership.
func (r *Runtime) AddModule(m *Module) {
	r.modulesMu.Lock()
	defer r.modulesMu.Unlock()
	r.modules = append(r.modules, m)
}

// ModuleByName looks up a module case-sensitively by name.
func (r *Runtime) ModuleByName(name string) (*Module, bool) {
	r.modulesMu.Lock()
	defer r.modulesMu.Unlock()
	for _, m := range r.modules {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}

func (r *Runtime) moduleContaining(addr uint64) (*Module, bool) {
	r.modulesMu.Lock()
	defer r.modulesMu.Unlock()
	for _, m := range r.modules {
		if m.ContainsAddress(addr) {
			return m, true
		}
	}
	return nil, false
}

// FindFunctionsWithAddress returns every registered FunctionInfo at addr
// across all modules — tooling support, not on the hot translation path.
func (r *Runtime) FindFunctionsWithAddress(addr uint64) []*FunctionInfo {
	r.modulesMu.Lock()
	mods := append([]*Module(nil), r.modules...)
	r.modulesMu.Unlock()

	var out []*FunctionInfo
	for _, m := range mods {
		out = append(out, m.functionsAt(addr)...)
	}
	return out
}

// DefineBuiltin binds a host handler to a fresh synthetic address in the
// builtin module, ready for immediate dispatch.
func (r *Runtime) DefineBuiltin(name string, handler ExternHandler, arg0, arg1 uintptr) (*FunctionInfo, error) {
	fi, err := r.builtin.Define(name, handler, arg0, arg1)
	if err != nil {
		return nil, err
	}
	r.entriesMu.Lock()
	r.entries[fi.Address] = &entry{status: entryReady, info: fi}
	r.entriesMu.Unlock()
	return fi, nil
}

func (r *Runtime) getOrCreateEntry(addr uint64) *entry {
	r.entriesMu.Lock()
	defer r.entriesMu.Unlock()
	e, ok := r.entries[addr]
	if !ok {
		e = &entry{status: entryNew}
		r.entries[addr] = e
	}
	return e
}

// ResolveFunction is the runtime's core operation: return the translated
// function at addr, compiling it at most once even under concurrent
// callers racing on the same address (see the invariants in
// SPEC_FULL.md and the test in registry/runtime_test.go).
func (r *Runtime) ResolveFunction(addr uint64, debugInfoFlags, traceFlags uint32) (*FunctionInfo, error) {
	e := r.getOrCreateEntry(addr)

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.status {
	case entryReady:
		return e.info, nil
	case entryFailed:
		return nil, ErrResolutionFailed
	}

	mod, ok := r.moduleContaining(addr)
	if !ok {
		e.status = entryFailed
		return nil, fmt.Errorf("registry: no module contains address %#x", addr)
	}

	info := mod.declareLocked(addr)

	if err := r.Backend.DeclareFunction(info); err != nil {
		e.status = entryFailed
		return nil, err
	}

	if err := r.demandFunction(info, debugInfoFlags, traceFlags); err != nil {
		e.status = entryFailed
		return nil, err
	}

	e.status = entryReady
	e.info = info
	return info, nil
}

// demandFunction acquires info's own define lock so that even if two
// entries somehow alias the same FunctionInfo (e.g. an indirect call
// racing a direct one to the same guest address before either entry
// exists), DefineFunction still runs at most once for it.
func (r *Runtime) demandFunction(info *FunctionInfo, debugInfoFlags, traceFlags uint32) error {
	info.defineMu.Lock()
	defer info.defineMu.Unlock()

	if info.status == StatusDefined {
		return nil
	}
	if info.status == StatusFailed {
		return ErrResolutionFailed
	}

	fn, err := r.Backend.DefineFunction(info, debugInfoFlags, traceFlags)
	if err != nil {
		info.status = StatusFailed
		return err
	}
	info.function = fn
	info.status = StatusDefined
	debugtrace.Call(0, info.Address, false)
	if r.Debug != nil {
		r.Debug.OnFunctionDefined(info)
	}
	return nil
}
