/*
   Console: HIR text dump.

   Copyright (c) 2024, the ppcjit authors.

   A plain textual rendering of a translated function's blocks and
   instructions, for the "hir" command and debugging - not a format any
   other part of the module parses back in.
*/

package console

import (
	"fmt"
	"strings"

	"github.com/rcornwell/ppcjit/hir"
)

// dumpFunction renders fn as one line per block label plus one line per
// instruction, numbering every dynamic Value in appearance order so
// operands can be cross-referenced as %0, %1, ...
func dumpFunction(fn *hir.Function) string {
	var b strings.Builder
	ids := map[*hir.Value]int{}
	next := 0
	nameFor := func(v *hir.Value) string {
		if v == nil {
			return "?"
		}
		if v.IsConstant() {
			return fmt.Sprintf("#%#x", v.AsU64())
		}
		id, ok := ids[v]
		if !ok {
			id = next
			next++
			ids[v] = id
		}
		return fmt.Sprintf("%%%d:%s", id, v.Type())
	}

	fmt.Fprintf(&b, "function %s @ %#08x\n", fn.Name, fn.Address)
	for bi, block := range fn.Blocks() {
		fmt.Fprintf(&b, "block%d:\n", bi)
		for _, instr := range block.Instrs() {
			dest := ""
			if instr.Dest != nil {
				dest = nameFor(instr.Dest) + " = "
			}
			fmt.Fprintf(&b, "  %s%s %s\n", dest, instr.Op, operandString(instr, nameFor))
		}
	}
	return b.String()
}

func operandString(instr *hir.Instr, nameFor func(*hir.Value) string) string {
	var parts []string
	sig := instr.Op.Info().Signature
	ops := [3]struct {
		kind hir.SigType
		op   hir.Operand
	}{
		{sig.Src1, instr.Src1},
		{sig.Src2, instr.Src2},
		{sig.Src3, instr.Src3},
	}
	for _, o := range ops {
		switch o.kind {
		case hir.SigV:
			parts = append(parts, nameFor(o.op.Value))
		case hir.SigL:
			parts = append(parts, fmt.Sprintf("block(%p)", o.op.Label.Block))
		case hir.SigO:
			parts = append(parts, fmt.Sprintf("%#x", o.op.Offset))
		case hir.SigS:
			if o.op.Symbol != nil {
				parts = append(parts, fmt.Sprintf("%s@%#x", o.op.Symbol.Name, o.op.Symbol.Address))
			}
		}
	}
	return strings.Join(parts, ", ")
}
