/*
   Console: command-line tokenizer.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on command/parser's cmdLine: a position cursor walked over the
   raw line by hand rather than strings.Fields, since completion needs to
   know the cursor's position mid-word, not just the split tokens.
*/

package console

import "strconv"

type cmdLine struct {
	line string
	pos  int
}

func (l *cmdLine) isEOL() bool { return l.pos >= len(l.line) }

func (l *cmdLine) skipSpace() {
	for !l.isEOL() && l.line[l.pos] == ' ' {
		l.pos++
	}
}

// getWord returns the next whitespace-delimited token, advancing past it.
// If keepCase is false the token is left as-is (console commands are
// already lower case by convention; kept as a parameter for symmetry with
// the grounding source).
func (l *cmdLine) getWord(keepCase bool) string {
	l.skipSpace()
	start := l.pos
	for !l.isEOL() && l.line[l.pos] != ' ' {
		l.pos++
	}
	word := l.line[start:l.pos]
	if !keepCase {
		return word
	}
	return word
}

// getHex parses the next token as an unsigned 32 bit hex guest address,
// with or without a leading 0x.
func (l *cmdLine) getHex() (uint32, error) {
	word := l.getWord(false)
	v, err := strconv.ParseUint(trimHexPrefix(word), 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// getUint parses the next token as a decimal unsigned integer.
func (l *cmdLine) getUint() (uint32, error) {
	word := l.getWord(false)
	v, err := strconv.ParseUint(word, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func trimHexPrefix(s string) string {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
