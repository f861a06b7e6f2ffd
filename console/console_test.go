/*
   Console: REPL dispatch tests.

   Copyright (c) 2024, the ppcjit authors.
*/

package console

import (
	"os"
	"strings"
	"testing"

	"github.com/rcornwell/ppcjit/backend/interp"
	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/ppcasm"
	"github.com/rcornwell/ppcjit/registry"
)

func newTestConsole(t *testing.T) *Console {
	t.Helper()
	mem := memory.NewFlat(1 << 20)

	words, err := ppcasm.AssembleProgram(0x1000, `
		addi r3,r0,5
		addi r4,r0,7
		add r3,r3,r4
		blr
	`)
	if err != nil {
		t.Fatalf("AssembleProgram: %v", err)
	}
	addr := uint32(0x1000)
	for _, w := range words {
		if err := mem.Store32(addr, w); err != nil {
			t.Fatalf("Store32: %v", err)
		}
		addr += 4
	}

	b := interp.NewBackend(mem)
	rt := registry.NewRuntime(mem, b)
	b.SetRuntime(rt)
	rt.AddModule(registry.NewModule("test", 0x1000, uint64(len(words))*4))

	return New(rt, mem)
}

// captureStdout runs fn with os.Stdout redirected and returns what it
// printed, the way an interactive console's "print the result" commands
// need checking.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	saved := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = saved }()

	fn()

	w.Close()
	os.Stdout = saved

	out := make([]byte, 1<<16)
	n, _ := r.Read(out)
	return string(out[:n])
}

func TestProcessCommandEmptyLine(t *testing.T) {
	c := newTestConsole(t)
	quit, err := c.ProcessCommand("")
	if err != nil || quit {
		t.Fatalf("expected no-op for an empty line, got quit=%v err=%v", quit, err)
	}
}

func TestProcessCommandUnknown(t *testing.T) {
	c := newTestConsole(t)
	if _, err := c.ProcessCommand("bogus"); err == nil {
		t.Fatalf("expected an error for an unknown command")
	}
}

func TestProcessCommandAmbiguousPrefix(t *testing.T) {
	c := newTestConsole(t)
	// "h" matches both "help" and "hir", each with min=1, so a bare "h"
	// is ambiguous between them.
	_, err := c.ProcessCommand("h")
	if err == nil {
		t.Fatalf("expected an ambiguous-command error for 'h'")
	}
}

func TestProcessCommandQuit(t *testing.T) {
	c := newTestConsole(t)
	quit, err := c.ProcessCommand("quit")
	if err != nil || !quit {
		t.Fatalf("expected quit=true for 'quit', got quit=%v err=%v", quit, err)
	}
	quit, err = c.ProcessCommand("exit")
	if err != nil || !quit {
		t.Fatalf("expected quit=true for 'exit', got quit=%v err=%v", quit, err)
	}
}

func TestProcessCommandModulesLists(t *testing.T) {
	c := newTestConsole(t)
	out := captureStdout(t, func() {
		if _, err := c.ProcessCommand("modules"); err != nil {
			t.Fatalf("modules: %v", err)
		}
	})
	if !strings.Contains(out, "test") {
		t.Fatalf("expected module name in output, got %q", out)
	}
}

func TestProcessCommandResolve(t *testing.T) {
	c := newTestConsole(t)
	out := captureStdout(t, func() {
		if _, err := c.ProcessCommand("resolve 0x1000"); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	})
	if !strings.Contains(out, "0x00001000") {
		t.Fatalf("expected address in output, got %q", out)
	}
}

func TestProcessCommandDisas(t *testing.T) {
	c := newTestConsole(t)
	out := captureStdout(t, func() {
		if _, err := c.ProcessCommand("disas 0x1000 0x1004"); err != nil {
			t.Fatalf("disas: %v", err)
		}
	})
	if !strings.Contains(out, "addi") {
		t.Fatalf("expected a disassembled mnemonic in output, got %q", out)
	}
}

func TestProcessCommandHIR(t *testing.T) {
	c := newTestConsole(t)
	out := captureStdout(t, func() {
		if _, err := c.ProcessCommand("hir 0x1000 0x100c"); err != nil {
			t.Fatalf("hir: %v", err)
		}
	})
	if out == "" {
		t.Fatalf("expected a non-empty HIR dump")
	}
}

func TestProcessCommandTraceClearAndSet(t *testing.T) {
	c := newTestConsole(t)
	if _, err := c.ProcessCommand("trace instr call"); err != nil {
		t.Fatalf("trace: %v", err)
	}
	if _, err := c.ProcessCommand("trace clear"); err != nil {
		t.Fatalf("trace clear: %v", err)
	}
}

func TestProcessCommandTraceUnknownCategory(t *testing.T) {
	c := newTestConsole(t)
	if _, err := c.ProcessCommand("trace nonsense"); err == nil {
		t.Fatalf("expected an error for an unknown trace category")
	}
}

func TestCompleteCmdTopLevel(t *testing.T) {
	c := newTestConsole(t)
	matches := c.CompleteCmd("mo")
	found := false
	for _, m := range matches {
		if m == "modules" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'modules' among completions for 'mo', got %v", matches)
	}
}
