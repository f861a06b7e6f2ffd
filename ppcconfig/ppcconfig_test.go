package ppcconfig

import (
	"strings"
	"testing"
)

func TestParseOverridesDefaults(t *testing.T) {
	src := "# comment\nruntime_backend = x64\ntrace_flags = 0x3\n"
	cfg, err := Parse(strings.NewReader(src), Default())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RuntimeBackend != BackendX64 {
		t.Fatalf("RuntimeBackend = %q, want x64", cfg.RuntimeBackend)
	}
	if cfg.TraceFlags != 3 {
		t.Fatalf("TraceFlags = %d, want 3", cfg.TraceFlags)
	}
	if cfg.MemorySizeBytes != Default().MemorySizeBytes {
		t.Fatalf("MemorySizeBytes should be unchanged from default")
	}
}

func TestParseRejectsUnknownKey(t *testing.T) {
	if _, err := Parse(strings.NewReader("bogus = 1\n"), Default()); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
