package memory

import "testing"

func TestLoadStoreWord(t *testing.T) {
	m := NewFlat(0x1000)
	if err := m.Store32(0x20, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	v, err := m.Load32(0x20)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("Load32 = %#x, want 0xDEADBEEF", v)
	}
}

func TestLoadStore128Alignment(t *testing.T) {
	m := NewFlat(0x1000)
	// stvx at an unaligned address is masked down to the 16 byte boundary.
	if err := m.Store128(0x207, 0x1122334455667788, 0x99AABBCCDDEEFF00); err != nil {
		t.Fatal(err)
	}
	lo, hi, err := m.Load128(0x200)
	if err != nil {
		t.Fatal(err)
	}
	if lo != 0x1122334455667788 || hi != 0x99AABBCCDDEEFF00 {
		t.Fatalf("Load128 = %#x/%#x, want 0x1122334455667788/0x99AABBCCDDEEFF00", lo, hi)
	}
}

func TestOutOfRange(t *testing.T) {
	m := NewFlat(0x10)
	if _, err := m.Load32(0x100); err != ErrOutOfRange {
		t.Fatalf("Load32 out of range = %v, want ErrOutOfRange", err)
	}
}
