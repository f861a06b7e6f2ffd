/*
   Registry: function bookkeeping.

   Copyright (c) 2024, the ppcjit authors.

   FunctionInfo mirrors the guest-function bookkeeping record kept by the
   original runtime (see SPEC_FULL.md's module-parity note): one record per
   guest address, independent of whether it has been translated yet.
*/

package registry

import (
	"sync"

	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/state"
)

// Status is a FunctionInfo's position in the declare/define lifecycle.
type Status int

const (
	StatusNew Status = iota
	StatusDeclared
	StatusDefined
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusDeclared:
		return "DECLARED"
	case StatusDefined:
		return "DEFINED"
	case StatusFailed:
		return "FAILED"
	default:
		return "?"
	}
}

// CompiledFunction is whatever a backend produces from DefineFunction: a
// unit of translated guest code ready to run. Execute returns the guest
// address execution should continue at next (its own return address, or a
// tail-call target), so the runtime's dispatch loop never needs to know
// which backend produced it.
type CompiledFunction interface {
	Execute(ts *state.ThreadState, mem *memory.Flat) uint64
}

// ExternHandler is a host function bound to a synthetic guest address via
// DefineBuiltin.
type ExternHandler func(ts *state.ThreadState, arg0, arg1 uintptr)

// FunctionInfo is the per-guest-address bookkeeping record: where it
// starts and (once known) ends, its declare/define status, and either its
// translated Function or an extern handler.
type FunctionInfo struct {
	Address    uint64
	EndAddress uint64
	Name       string

	ExternHandler ExternHandler
	ExternArg0    uintptr
	ExternArg1    uintptr

	// defineMu guards the DECLARED -> DEFINED transition: demandFunction
	// takes this lock so concurrent ResolveFunction calls for the same
	// address race here, not at the entry-table level, matching the
	// "DefineFunction called at most once" invariant even when two
	// entries momentarily point at the same FunctionInfo.
	defineMu sync.Mutex
	status   Status
	function CompiledFunction
}

// Status returns the current lifecycle status.
func (fi *FunctionInfo) Status() Status { return fi.status }

// Function returns the translated function once status is StatusDefined.
func (fi *FunctionInfo) Function() CompiledFunction { return fi.function }

// IsExtern reports whether this FunctionInfo is a builtin extern binding.
func (fi *FunctionInfo) IsExtern() bool { return fi.ExternHandler != nil }
