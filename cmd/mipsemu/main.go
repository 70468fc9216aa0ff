/*
 * Mipsemu - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"golang.org/x/term"

	config "github.com/rcornwell/mipsemu/config/configparser"
	"github.com/rcornwell/mipsemu/internal/bus"
	"github.com/rcornwell/mipsemu/internal/cp0"
	"github.com/rcornwell/mipsemu/internal/cpu"
	"github.com/rcornwell/mipsemu/internal/dram"
	"github.com/rcornwell/mipsemu/internal/elfload"
	"github.com/rcornwell/mipsemu/internal/monitor"
	"github.com/rcornwell/mipsemu/internal/paging"
	"github.com/rcornwell/mipsemu/internal/rom"
	"github.com/rcornwell/mipsemu/internal/uart"
	"github.com/rcornwell/mipsemu/internal/virtio"
	logger "github.com/rcornwell/mipsemu/util/logger"
)

var Logger *slog.Logger

// machineConfig collects the options a .cfg file or the command line can
// set before the machine is built.
type machineConfig struct {
	kernel  string
	console string
}

func registerConfigOptions(cfg *machineConfig) {
	config.RegisterOption("kernel", func(v string) error {
		cfg.kernel = v
		return nil
	})
	config.RegisterOption("console", func(v string) error {
		cfg.console = v
		return nil
	})
	config.RegisterOption("memsize", func(string) error {
		// DRAM is a fixed 2 GiB window (internal/dram.Size); MEMSIZE is
		// accepted for config-file compatibility and otherwise ignored.
		return nil
	})
	config.RegisterOption("logfile", func(string) error {
		return nil
	})
}

func main() {
	optConfig := getopt.StringLong("config", 'c', "mipsemu.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optKernel := getopt.StringLong("kernel", 'k', "", "Kernel ELF image")
	optTicks := getopt.IntLong("ticks", 'n', 0, "Run N ticks then exit, instead of dropping to the monitor")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	debug := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel}, &debug))
	slog.SetDefault(Logger)
	Logger.Info("mipsemu started")

	cfg := &machineConfig{console: "stdio"}
	registerConfigOptions(cfg)
	if _, err := os.Stat(*optConfig); err == nil {
		if err := config.LoadConfigFile(*optConfig); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}
	if *optKernel != "" {
		cfg.kernel = *optKernel
	}
	if cfg.kernel == "" {
		Logger.Error("no kernel image specified (-k or KERNEL in the config file)")
		os.Exit(1)
	}

	d := dram.New()
	if err := paging.BuildBootstrapTable(d); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}
	if err := elfload.LoadKernel(d, cfg.kernel); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	var restoreTerm func()
	if term.IsTerminal(int(os.Stdin.Fd())) {
		prev, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			Logger.Warn("failed to set raw terminal mode", "error", err)
		} else {
			restoreTerm = func() { _ = term.Restore(int(os.Stdin.Fd()), prev) }
		}
	}
	if restoreTerm != nil {
		defer restoreTerm()
	}

	c := cp0.New()
	defer c.Shutdown()
	u := uart.New(os.Stdin, os.Stdout)
	defer u.Shutdown()
	b := bus.New(d, rom.New(), c, u, virtio.New())
	m := cpu.New(b, c)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nGot quit signal")
		printRegisters(m)
		if restoreTerm != nil {
			restoreTerm()
		}
		os.Exit(0)
	}()

	if *optTicks > 0 {
		m.RunN(*optTicks)
		printRegisters(m)
		return
	}

	monitor.New(m, b).Run()
	printRegisters(m)
	Logger.Info("mipsemu shut down")
}

func printRegisters(c *cpu.CPU) {
	s := c.Snapshot()
	fmt.Printf("pc=%08x hi=%08x lo=%08x\n", s.PC, s.HI, s.LO)
	for i := 0; i < 32; i += 4 {
		fmt.Printf("r%-2d=%08x r%-2d=%08x r%-2d=%08x r%-2d=%08x\n",
			i, s.Registers[i], i+1, s.Registers[i+1], i+2, s.Registers[i+2], i+3, s.Registers[i+3])
	}
}
