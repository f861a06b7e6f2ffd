/*
   Console: command table and handlers.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on command/parser's cmd table and prefix-matching dispatch
   (parser.go's cmdList/matchCommand), generalized from S370 device
   commands to the inspection operations this runtime actually needs:
   module listing, on-demand resolution, HIR dumps and trace toggling.
*/

package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rcornwell/ppcjit/debugtrace"
	"github.com/rcornwell/ppcjit/frontend"
	"github.com/rcornwell/ppcjit/ppcdisasm"
)

type cmd struct {
	name     string
	min      int
	process  func(*cmdLine, *Console) (bool, error)
	complete func(*cmdLine, *Console) []string
}

var cmdList = []cmd{
	{name: "help", min: 1, process: cmdHelp},
	{name: "quit", min: 1, process: cmdQuit},
	{name: "exit", min: 1, process: cmdQuit},
	{name: "modules", min: 2, process: cmdModules},
	{name: "resolve", min: 3, process: cmdResolve},
	{name: "status", min: 2, process: cmdStatus},
	{name: "hir", min: 1, process: cmdHIR},
	{name: "disas", min: 2, process: cmdDisas},
	{name: "memory", min: 1, process: cmdMemory},
	{name: "trace", min: 2, process: cmdTrace, complete: traceComplete},
}

// matchList returns every command whose name has name as a prefix at
// least match.min characters long, the same ambiguity-detection rule
// command/parser's matchCommand uses.
func matchList(name string) []cmd {
	var out []cmd
	for _, c := range cmdList {
		if len(name) < 1 || len(name) > len(c.name) {
			continue
		}
		if c.name[:len(name)] != name {
			continue
		}
		if len(name) >= c.min {
			out = append(out, c)
		}
	}
	return out
}

func cmdHelp(_ *cmdLine, _ *Console) (bool, error) {
	fmt.Println("commands: help quit modules resolve <addr> status <addr> hir <addr> <end> disas <addr> <end> memory <addr> <count> trace <flag...|clear|all>")
	return false, nil
}

func cmdQuit(_ *cmdLine, _ *Console) (bool, error) {
	return true, nil
}

func cmdModules(_ *cmdLine, c *Console) (bool, error) {
	for _, m := range c.rt.Modules() {
		fmt.Printf("%-16s %#010x - %#010x\n", m.Name(), m.Base(), m.Base()+m.Size())
	}
	return false, nil
}

func cmdResolve(line *cmdLine, c *Console) (bool, error) {
	addr, err := line.getHex()
	if err != nil {
		return false, fmt.Errorf("console: bad address: %w", err)
	}
	info, err := c.rt.ResolveFunction(uint64(addr), 0, 0)
	if err != nil {
		return false, err
	}
	fmt.Printf("%#010x %s status=%s extern=%v\n", info.Address, info.Name, info.Status(), info.IsExtern())
	return false, nil
}

func cmdStatus(line *cmdLine, c *Console) (bool, error) {
	addr, err := line.getHex()
	if err != nil {
		return false, fmt.Errorf("console: bad address: %w", err)
	}
	found := c.rt.FindFunctionsWithAddress(uint64(addr))
	if len(found) == 0 {
		fmt.Println("not yet declared")
		return false, nil
	}
	for _, info := range found {
		fmt.Printf("%#010x %s status=%s extern=%v\n", info.Address, info.Name, info.Status(), info.IsExtern())
	}
	return false, nil
}

// cmdHIR translates [addr, end) fresh through the frontend and dumps the
// resulting HIR, independent of whatever the registry has already
// resolved - useful to inspect a function's translation before deciding
// whether to exercise it through resolve.
func cmdHIR(line *cmdLine, c *Console) (bool, error) {
	addr, err := line.getHex()
	if err != nil {
		return false, fmt.Errorf("console: bad address: %w", err)
	}
	end, err := line.getHex()
	if err != nil || end <= addr {
		return false, errors.New("console: hir needs a start and end address, end > start")
	}

	var words []uint32
	for a := addr; a < end; a += 4 {
		w, err := c.mem.Load32(a)
		if err != nil {
			return false, err
		}
		words = append(words, w)
	}

	fn, err := frontend.NewTranslator(fmt.Sprintf("fn_%08x", addr), uint64(addr), words).Translate()
	if err != nil {
		return false, err
	}
	fmt.Print(dumpFunction(fn))
	return false, nil
}

// cmdDisas renders [addr, end) as PowerPC mnemonic text, one instruction
// per line, independent of whether the frontend has translated it yet.
func cmdDisas(line *cmdLine, c *Console) (bool, error) {
	addr, err := line.getHex()
	if err != nil {
		return false, fmt.Errorf("console: bad address: %w", err)
	}
	end, err := line.getHex()
	if err != nil || end <= addr {
		return false, errors.New("console: disas needs a start and end address, end > start")
	}

	for a := addr; a < end; a += 4 {
		w, err := c.mem.Load32(a)
		if err != nil {
			return false, err
		}
		fmt.Printf("%#010x: %08x  %s\n", a, w, ppcdisasm.Disassemble(uint64(a), w))
	}
	return false, nil
}

func cmdMemory(line *cmdLine, c *Console) (bool, error) {
	addr, err := line.getHex()
	if err != nil {
		return false, fmt.Errorf("console: bad address: %w", err)
	}
	count, err := line.getUint()
	if err != nil {
		count = 16
	}

	for i := uint32(0); i < count; i += 16 {
		fmt.Printf("%#010x:", addr+i)
		for j := uint32(0); j < 16 && i+j < count; j += 4 {
			w, err := c.mem.Load32(addr + i + j)
			if err != nil {
				fmt.Print(" <out of range>")
				break
			}
			fmt.Printf(" %08x", w)
		}
		fmt.Println()
	}
	return false, nil
}

var traceFlagNames = map[string]debugtrace.Flag{
	"instr":         debugtrace.FlagInstr,
	"contextload":   debugtrace.FlagContextLoad,
	"contextstore":  debugtrace.FlagContextStore,
	"memory":        debugtrace.FlagMemory,
	"call":          debugtrace.FlagCall,
	"branch":        debugtrace.FlagBranch,
}

// cmdTrace sets debugtrace's active category mask: "trace clear" turns
// everything off, "trace all" turns everything on, and otherwise the
// categories named on the line become the whole mask, replacing whatever
// was on before (debugtrace's SetMask replaces the mask; there is no
// per-flag off).
func cmdTrace(line *cmdLine, _ *Console) (bool, error) {
	line.skipSpace()
	if line.isEOL() {
		fmt.Println("usage: trace <instr|contextload|contextstore|memory|call|branch|all|clear> ...")
		return false, nil
	}

	var mask debugtrace.Flag
	for !line.isEOL() {
		name := strings.ToLower(line.getWord(false))
		switch name {
		case "clear":
			debugtrace.SetMask(0)
			fmt.Println("trace mask cleared")
			return false, nil
		case "all":
			for _, f := range traceFlagNames {
				mask |= f
			}
		default:
			f, ok := traceFlagNames[name]
			if !ok {
				return false, fmt.Errorf("console: unknown trace category %q", name)
			}
			mask |= f
		}
	}
	debugtrace.SetMask(mask)
	fmt.Printf("trace mask now %#x\n", uint32(mask))
	return false, nil
}

func traceComplete(line *cmdLine, _ *Console) []string {
	line.skipSpace()
	prefix := line.getWord(false)
	var out []string
	for name := range traceFlagNames {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	if strings.HasPrefix("all", prefix) {
		out = append(out, "all")
	}
	if strings.HasPrefix("clear", prefix) {
		out = append(out, "clear")
	}
	return out
}
