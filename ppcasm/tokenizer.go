/*
   ppcasm: line tokenizer.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on emu/assemble/assemble.go's hand-rolled scanner
   (skipSpace/getName/getNumber/getHex/getNext) - a recursive-descent walk
   over the remaining string rather than a regexp or token slice, the same
   style carried over here for PowerPC mnemonic syntax.
*/

package ppcasm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

func skipSpace(s string) string {
	for i := range s {
		if !unicode.IsSpace(rune(s[i])) {
			return s[i:]
		}
	}
	return ""
}

// getWord returns the next run of non-space, non-comma, non-paren
// characters, and the remainder of the line.
func getWord(s string) (string, string) {
	s = skipSpace(s)
	for i, r := range s {
		if unicode.IsSpace(r) || r == ',' || r == '(' || r == ')' {
			return s[:i], s[i:]
		}
	}
	return s, ""
}

// expect consumes a single expected separator byte (',', '(', or ')'),
// skipping leading space first.
func expect(s string, b byte) (string, error) {
	s = skipSpace(s)
	if s == "" || s[0] != b {
		return s, fmt.Errorf("ppcasm: expected %q", b)
	}
	return s[1:], nil
}

// gpr parses a general-purpose register operand: "r5", "R5", or a bare
// "5".
func gpr(tok string) (uint32, error) {
	tok = strings.TrimPrefix(strings.TrimPrefix(tok, "r"), "R")
	return parseUint(tok, 31)
}

// vreg parses an AltiVec vector register operand: "v12" or "V12".
func vreg(tok string) (uint32, error) {
	tok = strings.TrimPrefix(strings.TrimPrefix(tok, "v"), "V")
	return parseUint(tok, 127)
}

func parseUint(tok string, max uint32) (uint32, error) {
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("ppcasm: bad register %q: %w", tok, err)
	}
	if uint32(v) > max {
		return 0, fmt.Errorf("ppcasm: register %q out of range", tok)
	}
	return uint32(v), nil
}

// signed parses a decimal or 0x-prefixed hex signed immediate.
func signed(tok string) (int32, error) {
	v, err := strconv.ParseInt(tok, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("ppcasm: bad immediate %q: %w", tok, err)
	}
	return int32(v), nil
}

// unsigned parses a decimal or 0x-prefixed hex unsigned immediate.
func unsigned(tok string) (uint32, error) {
	v, err := strconv.ParseUint(tok, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("ppcasm: bad immediate %q: %w", tok, err)
	}
	return uint32(v), nil
}
