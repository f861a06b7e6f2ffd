/*
   ppcdisasm: disassembly tests.

   Copyright (c) 2024, the ppcjit authors.
*/

package ppcdisasm

import (
	"testing"

	"github.com/rcornwell/ppcjit/ppcasm"
)

func TestDisassembleRoundTrip(t *testing.T) {
	cases := []string{
		"addi r3,r4,10",
		"lwz r5,8(r6)",
		"add r1,r2,r3",
		"and. r1,r2,r3",
		"bl 0x2000",
		"bc 12,2,0x1010",
		"blr",
		"bctr",
		"crand 1,2,3",
		"mfcr r7",
		"vaddfp v1,v2,v3",
		"vspltisw v4,-1",
		"vperm v1,v2,v3,v4",
		"vcmpeqfp. v1,v2,v3",
		"vaddfp128 v10,v20,v30",
		"vmaddfp128 v1,v2,v3",
		"vsldoi128 v1,v2,v3,5",
		"vrlimi128 v1,v2,5",
		"vspltw128 v1,v2,3",
		"lwzu r3,4(r4)",
		"stwu r3,4(r4)",
		"lmw r14,8(r1)",
		"stmw r14,8(r1)",
	}
	for _, line := range cases {
		w, err := ppcasm.Assemble(line, 0x1000, nil)
		if err != nil {
			t.Fatalf("Assemble(%q): %v", line, err)
		}
		text := Disassemble(0x1000, w)
		w2, err := ppcasm.Assemble(text, 0x1000, nil)
		if err != nil {
			t.Fatalf("re-Assemble(%q) (from %q): %v", text, line, err)
		}
		if w2 != w {
			t.Fatalf("round trip mismatch for %q: %#x -> %q -> %#x", line, w, text, w2)
		}
	}
}

func TestDisassembleUnknownWord(t *testing.T) {
	text := Disassemble(0, 0xFFFFFFFF)
	if text != ".long 0xffffffff" {
		t.Fatalf("expected a raw .long rendering, got %q", text)
	}
}

func TestDisassembleBranchTarget(t *testing.T) {
	w, err := ppcasm.Assemble("b 0x1008", 0x1000, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	text := Disassemble(0x1000, w)
	want := "b 0x1008"
	if text != want {
		t.Fatalf("expected %q, got %q", want, text)
	}
}
