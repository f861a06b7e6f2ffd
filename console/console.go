/*
   Console: interactive inspection REPL.

   Copyright (c) 2024, the ppcjit authors.

   Grounded on command/reader's ConsoleReader: a peterh/liner prompt loop
   with history and tab completion, dispatching each line through a
   prefix-matching command table. Generalized here from S370's device
   attach/set/show vocabulary to inspecting a running registry.Runtime -
   modules, function resolution status, HIR dumps, and debugtrace's flag
   mask - per the module/function/HIR inspection surface this runtime
   needs instead of a simulator console's I/O device surface.
*/

package console

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/peterh/liner"

	"github.com/rcornwell/ppcjit/memory"
	"github.com/rcornwell/ppcjit/registry"
)

// Console is the REPL's state: the runtime and memory it inspects.
type Console struct {
	rt  *registry.Runtime
	mem *memory.Flat
}

// New creates a console over rt's address space.
func New(rt *registry.Runtime, mem *memory.Flat) *Console {
	return &Console{rt: rt, mem: mem}
}

// ProcessCommand runs one command line, returning quit=true once the
// session should end.
func (c *Console) ProcessCommand(commandLine string) (bool, error) {
	line := cmdLine{line: commandLine}
	name := line.getWord(false)
	if name == "" {
		return false, nil
	}

	match := matchList(name)
	if len(match) == 0 {
		return false, fmt.Errorf("console: command not found: %s", name)
	}
	if len(match) > 1 {
		return false, fmt.Errorf("console: ambiguous command: %s", name)
	}
	return match[0].process(&line, c)
}

// CompleteCmd implements liner's tab-completion callback.
func (c *Console) CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord(false)

	if !line.isEOL() {
		match := matchList(name)
		if len(match) != 1 || match[0].complete == nil {
			return nil
		}
		return match[0].complete(&line, c)
	}

	var matches []string
	for _, m := range cmdList {
		if len(name) <= len(m.name) && m.name[:len(name)] == name {
			matches = append(matches, m.name)
		}
	}
	return matches
}

// Run drives the REPL until the user quits or aborts with ctrl-D/ctrl-C.
func (c *Console) Run() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(c.CompleteCmd)

	for {
		command, err := line.Prompt("ppcjit> ")
		if err == nil {
			line.AppendHistory(command)
			quit, err := c.ProcessCommand(command)
			if err != nil {
				fmt.Println("error: " + err.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("console: error reading line", "error", err)
		return
	}
}
