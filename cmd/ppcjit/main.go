/*
   ppcjit: command line entry point.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on the teacher's main.go: getopt-parsed flags, an xlog logger
   set as the process default, and a signal-driven shutdown. Generalized
   from S370's config-file-plus-telnet-servers startup to loading a flat
   PPC image into guest memory and driving it through a registry.Runtime
   instead of spinning up channel/device I/O.
*/

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/ppcjit/backend/interp"
	"github.com/rcornwell/ppcjit/backend/x64"
	"github.com/rcornwell/ppcjit/console"
	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/ppcconfig"
	"github.com/rcornwell/ppcjit/registry"
	"github.com/rcornwell/ppcjit/state"
	"github.com/rcornwell/ppcjit/xlog"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optImage := getopt.StringLong("image", 'i', "", "Flat PPC image to load")
	optBase := getopt.StringLong("base", 'b', "0x1000", "Guest load address (hex)")
	optEntry := getopt.StringLong("entry", 'e', "", "Guest entry address (hex); defaults to base")
	optLog := getopt.StringLong("log", 'l', "", "Log file (defaults to stderr only)")
	optDebug := getopt.BoolLong("debug", 'd', "Mirror log output to stderr")
	optConsole := getopt.BoolLong("console", 0, "Drop into the inspection console instead of running")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logWriter io.Writer
	if *optLog != "" {
		f, err := os.Create(*optLog)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ppcjit:", err)
			os.Exit(1)
		}
		defer f.Close()
		logWriter = f
	}
	logger := xlog.New(logWriter, *optDebug)
	slog.SetDefault(logger)

	if *optImage == "" {
		logger.Error("no image specified, use -i/--image")
		os.Exit(1)
	}

	cfg := ppcconfig.Default()
	if *optConfig != "" {
		f, err := os.Open(*optConfig)
		if err != nil {
			logger.Error("opening config file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		cfg, err = ppcconfig.Parse(f, cfg)
		if err != nil {
			logger.Error("parsing config file", "error", err)
			os.Exit(1)
		}
	}

	base, err := parseHex(*optBase)
	if err != nil {
		logger.Error("bad base address", "error", err)
		os.Exit(1)
	}
	entry := base
	if *optEntry != "" {
		entry, err = parseHex(*optEntry)
		if err != nil {
			logger.Error("bad entry address", "error", err)
			os.Exit(1)
		}
	}

	image, err := os.ReadFile(*optImage)
	if err != nil {
		logger.Error("reading image", "error", err)
		os.Exit(1)
	}

	mem := memory.NewFlat(cfg.MemorySizeBytes)
	if err := loadImage(mem, uint32(base), image); err != nil {
		logger.Error("loading image", "error", err)
		os.Exit(1)
	}

	rt, err := newRuntime(cfg, mem)
	if err != nil {
		logger.Error("constructing runtime", "error", err)
		os.Exit(1)
	}
	rt.AddModule(registry.NewModule("image", base, uint64(len(image))))

	if *optConsole {
		console.New(rt, mem).Run()
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)
	go func() { done <- run(rt, mem, entry, cfg) }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("guest execution stopped", "error", err)
			os.Exit(1)
		}
	case <-sigChan:
		logger.Info("interrupted")
	}
}

// run drives a single guest hardware thread from entry until it returns
// to the host. LR is seeded with a builtin "host return" function's
// address so a correctly generated entry point's eventual blr hands
// control back here cleanly instead of resolving into unmapped memory.
func run(rt *registry.Runtime, mem *memory.Flat, entry uint64, cfg ppcconfig.Config) error {
	halted := false
	hostReturn, err := rt.DefineBuiltin("host_return", func(_ *state.ThreadState, _, _ uintptr) {
		halted = true
	}, 0, 0)
	if err != nil {
		return err
	}

	ts := &state.ThreadState{LR: hostReturn.Address}
	addr := entry
	for !halted {
		info, err := rt.ResolveFunction(addr, cfg.DebugInfoFlags, cfg.TraceFlags)
		if err != nil {
			return fmt.Errorf("ppcjit: resolving %#x: %w", addr, err)
		}
		if info.IsExtern() {
			info.ExternHandler(ts, info.ExternArg0, info.ExternArg1)
			if halted {
				return nil
			}
			continue
		}
		addr = info.Function().Execute(ts, mem)
	}
	return nil
}

func newRuntime(cfg ppcconfig.Config, mem *memory.Flat) (*registry.Runtime, error) {
	switch cfg.RuntimeBackend {
	case ppcconfig.BackendX64:
		b := x64.NewBackend(mem)
		rt := registry.NewRuntime(mem, b)
		b.SetRuntime(rt)
		return rt, nil
	case ppcconfig.BackendInterpreter:
		b := interp.NewBackend(mem)
		rt := registry.NewRuntime(mem, b)
		b.SetRuntime(rt)
		return rt, nil
	default:
		return nil, fmt.Errorf("ppcjit: unknown runtime backend %q", cfg.RuntimeBackend)
	}
}

func loadImage(mem *memory.Flat, base uint32, image []byte) error {
	dst := mem.Bytes()
	if uint64(base)+uint64(len(image)) > uint64(len(dst)) {
		return fmt.Errorf("ppcjit: image of %d bytes at %#x exceeds %d byte address space", len(image), base, len(dst))
	}
	copy(dst[base:], image)
	return nil
}

func parseHex(s string) (uint64, error) {
	s = trimHex(s)
	var v uint64
	_, err := fmt.Sscanf(s, "%x", &v)
	return v, err
}

func trimHex(s string) string {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
