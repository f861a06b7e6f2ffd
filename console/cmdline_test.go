/*
   Console: command-line tokenizer tests.

   Copyright (c) 2024, the ppcjit authors.
*/

package console

import "testing"

func TestGetWordSplitsOnSpace(t *testing.T) {
	l := cmdLine{line: "resolve 1000 extra"}
	if w := l.getWord(false); w != "resolve" {
		t.Fatalf("expected %q, got %q", "resolve", w)
	}
	if w := l.getWord(false); w != "1000" {
		t.Fatalf("expected %q, got %q", "1000", w)
	}
	if l.isEOL() {
		t.Fatalf("expected more input before 'extra'")
	}
}

func TestGetHexAcceptsPrefix(t *testing.T) {
	l := cmdLine{line: "0x1000"}
	v, err := l.getHex()
	if err != nil {
		t.Fatalf("getHex: %v", err)
	}
	if v != 0x1000 {
		t.Fatalf("expected 0x1000, got %#x", v)
	}
}

func TestGetHexWithoutPrefix(t *testing.T) {
	l := cmdLine{line: "1000"}
	v, err := l.getHex()
	if err != nil {
		t.Fatalf("getHex: %v", err)
	}
	if v != 0x1000 {
		t.Fatalf("expected 0x1000, got %#x", v)
	}
}

func TestGetUint(t *testing.T) {
	l := cmdLine{line: "42"}
	v, err := l.getUint()
	if err != nil {
		t.Fatalf("getUint: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestGetHexErrorsOnGarbage(t *testing.T) {
	l := cmdLine{line: "not-hex"}
	if _, err := l.getHex(); err == nil {
		t.Fatalf("expected an error for a non-hex token")
	}
}

func TestIsEOLOnEmptyLine(t *testing.T) {
	l := cmdLine{line: "   "}
	if !l.isEOL() {
		// skipSpace only runs inside getWord/getHex/getUint, so a line of
		// pure whitespace is not EOL until something consumes it.
		l.skipSpace()
	}
	if !l.isEOL() {
		t.Fatalf("expected EOL after skipping an all-space line")
	}
}
