/*
   Monitor: line-edited interactive debug console for the emulator.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

package monitor

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/rcornwell/mipsemu/internal/bus"
	"github.com/rcornwell/mipsemu/internal/cpu"
	"github.com/rcornwell/mipsemu/internal/device"
)

// Monitor is a single-stepping debug console wrapped around a running CPU.
type Monitor struct {
	cpu *cpu.CPU
	bus *bus.Bus

	stop chan struct{} // non-nil while a "continue" is running in the background
}

// New builds a Monitor over an already-constructed machine.
func New(c *cpu.CPU, b *bus.Bus) *Monitor {
	return &Monitor{cpu: c, bus: b}
}

type command func(m *Monitor, args []string) (bool, error)

var commands = map[string]command{
	"examine": cmdExamine,
	"e":       cmdExamine,
	"deposit": cmdDeposit,
	"d":       cmdDeposit,
	"print":   cmdPrint,
	"p":       cmdPrint,
	"step":     cmdStep,
	"s":        cmdStep,
	"continue": cmdContinue,
	"c":        cmdContinue,
	"stop":     cmdStop,
	"reset":    cmdReset,
	"quit":     cmdQuit,
	"q":        cmdQuit,
}

var commandNames = func() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	return names
}()

// Run drives the REPL on stdin/stdout until the user quits or aborts with
// ^D. Unrecognized commands and execution errors are reported and do not
// end the session.
func (m *Monitor) Run() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		var matches []string
		for _, name := range commandNames {
			if strings.HasPrefix(name, partial) {
				matches = append(matches, name)
			}
		}
		return matches
	})

	for {
		input, err := line.Prompt("mipsemu> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return
			}
			fmt.Println("error reading line:", err)
			return
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		cmd, ok := commands[fields[0]]
		if !ok {
			fmt.Printf("unknown command: %s\n", fields[0])
			continue
		}
		quit, err := cmd(m, fields[1:])
		if err != nil {
			fmt.Println("error:", err)
		}
		if quit {
			return
		}
	}
}

func parseHex(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q: %w", s, err)
	}
	return uint32(v), nil
}

func cmdExamine(m *Monitor, args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: examine <addr>")
	}
	addr, err := parseHex(args[0])
	if err != nil {
		return false, err
	}
	v, err := m.bus.Read(addr, device.Word)
	if err != nil {
		return false, err
	}
	fmt.Printf("%08x: %08x\n", addr, v)
	return false, nil
}

func cmdDeposit(m *Monitor, args []string) (bool, error) {
	if len(args) != 2 {
		return false, errors.New("usage: deposit <addr> <value>")
	}
	addr, err := parseHex(args[0])
	if err != nil {
		return false, err
	}
	v, err := parseHex(args[1])
	if err != nil {
		return false, err
	}
	return false, m.bus.Write(addr, v, device.Word)
}

func cmdPrint(m *Monitor, _ []string) (bool, error) {
	s := m.cpu.Snapshot()
	fmt.Printf("pc=%08x hi=%08x lo=%08x\n", s.PC, s.HI, s.LO)
	for i := 0; i < 32; i += 4 {
		fmt.Printf("r%-2d=%08x r%-2d=%08x r%-2d=%08x r%-2d=%08x\n",
			i, s.Registers[i], i+1, s.Registers[i+1], i+2, s.Registers[i+2], i+3, s.Registers[i+3])
	}
	return false, nil
}

func cmdStep(m *Monitor, args []string) (bool, error) {
	n := 1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid step count %q: %w", args[0], err)
		}
		n = v
	}
	m.cpu.RunN(n)
	return cmdPrint(m, nil)
}

// cmdContinue runs the CPU in the background until "stop" or the process
// exits; the REPL stays responsive to accept that command.
func cmdContinue(m *Monitor, _ []string) (bool, error) {
	if m.stop != nil {
		return false, errors.New("already running, use \"stop\" first")
	}
	m.stop = make(chan struct{})
	go m.cpu.Run(m.stop)
	return false, nil
}

func cmdStop(m *Monitor, _ []string) (bool, error) {
	if m.stop == nil {
		return false, errors.New("not running")
	}
	close(m.stop)
	m.stop = nil
	return false, nil
}

func cmdReset(m *Monitor, _ []string) (bool, error) {
	if m.stop != nil {
		return false, errors.New("stop the machine before resetting it")
	}
	m.cpu.Reset()
	return false, nil
}

func cmdQuit(_ *Monitor, _ []string) (bool, error) {
	return true, nil
}
