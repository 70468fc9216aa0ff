/*
   Coprocessor0: system register bank, owned timer thread, interrupt
   injection into CAUSE.

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

package cp0

import (
	"sync"
	"time"

	"github.com/rcornwell/mipsemu/internal/bitutil"
	"github.com/rcornwell/mipsemu/internal/device"
)

// Register slots, named per spec.
const (
	PTBASE  = 4
	COUNT   = 9
	COMPARE = 11
	SR      = 12
	CAUSE   = 13
	EPC     = 14
	EBASE   = 15
)

// SR bits.
const (
	srIE   uint32 = 1 << 0 // Global interrupt enable.
	srEXC  uint32 = 1 << 1 // Exception in progress.
	srUser uint32 = 1 << 4 // User mode.
)

// Page-table flag bits, duplicated here (and in internal/paging) because
// PTBASE's initial value is expressed in terms of them.
const (
	ptePresent = 1 << 5
	pteValid   = 1 << 4
	pteRead    = 1 << 2
	pteWrite   = 1 << 1
)

// TimerLevel is the CAUSE interrupt-pending bit the timer sets (bit 8+5).
const TimerLevel = 5

const timerInterval = 10 * time.Millisecond

// regCell is one independently-locked 32-bit register.
type regCell struct {
	mu    sync.Mutex
	value uint32
}

func (c *regCell) load() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *regCell) store(v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}

// Coprocessor0 holds 32 independently-locked registers and the background
// timer goroutine that mutates COUNT and CAUSE.
type Coprocessor0 struct {
	regs [32]*regCell

	wg      sync.WaitGroup
	done    chan struct{}
	ticker  *time.Ticker
	running bool
}

// New constructs Coprocessor0 with its documented initial register values
// and starts the timer thread.
func New() *Coprocessor0 {
	c := &Coprocessor0{done: make(chan struct{})}
	for i := range c.regs {
		c.regs[i] = &regCell{}
	}
	c.regs[PTBASE].value = ptePresent | pteValid | pteRead | pteWrite
	c.regs[SR].value = 0x0000ff01
	c.regs[EBASE].value = 0x80000000

	c.wg.Add(1)
	go c.runTimer()
	return c
}

// runTimer sleeps 10ms between ticks, incrementing COUNT and, on equality
// with COMPARE, setting the timer interrupt bit in CAUSE and clearing the
// exception code. The CAUSE update is a single read-modify-write under
// CAUSE's own lock, preserving atomicity with respect to CPU reads.
func (c *Coprocessor0) runTimer() {
	defer c.wg.Done()
	c.ticker = time.NewTicker(timerInterval)
	defer c.ticker.Stop()

	for {
		select {
		case <-c.ticker.C:
			count := c.regs[COUNT]
			compare := c.regs[COMPARE].load()

			count.mu.Lock()
			count.value++
			fired := count.value == compare
			if fired {
				count.value = 0
			}
			count.mu.Unlock()

			if fired {
				cause := c.regs[CAUSE]
				cause.mu.Lock()
				cause.value = (cause.value | (1 << (8 + TimerLevel))) & 0xffff_ff83
				cause.mu.Unlock()
			}
		case <-c.done:
			return
		}
	}
}

// Shutdown stops the timer goroutine and waits for it to exit.
func (c *Coprocessor0) Shutdown() {
	close(c.done)
	c.wg.Wait()
}

// LoadWord reads a register by index, bypassing the bus address window.
// Used internally by the CPU and paging code, which address CP0 registers
// symbolically rather than by bus offset.
func (c *Coprocessor0) LoadWord(reg int) uint32 {
	return c.regs[reg].load()
}

// StoreWord writes a register by index.
func (c *Coprocessor0) StoreWord(reg int, v uint32) {
	c.regs[reg].store(v)
}

// Read implements device.Device for the coprocessor's bus window.
func (c *Coprocessor0) Read(addr uint32, size device.Size) (uint32, error) {
	base := addr >> 2
	offset := uint8(addr & 0x3)
	if base >= uint32(len(c.regs)) {
		return 0, device.New(device.LoadIllegalAddress)
	}
	val := c.regs[base].load()
	switch size {
	case device.Byte:
		return uint32(bitutil.ByteOfWord(val, offset)), nil
	case device.Halfword:
		if offset != 0 && offset != 2 {
			return 0, device.New(device.LoadIllegalAddress)
		}
		return uint32(bitutil.HalfOfWord(val, offset)), nil
	case device.Word:
		if offset != 0 {
			return 0, device.New(device.LoadIllegalAddress)
		}
		return val, nil
	default:
		return 0, device.New(device.LoadIllegalAddress)
	}
}

// Write implements device.Device for the coprocessor's bus window.
func (c *Coprocessor0) Write(addr uint32, data uint32, size device.Size) error {
	base := addr >> 2
	offset := uint8(addr & 0x3)
	if base >= uint32(len(c.regs)) {
		return device.New(device.LoadIllegalAddress)
	}
	cell := c.regs[base]
	switch size {
	case device.Byte:
		cell.mu.Lock()
		cell.value = bitutil.SetByteOfWord(cell.value, offset, byte(data))
		cell.mu.Unlock()
		return nil
	case device.Halfword:
		if offset != 0 && offset != 2 {
			return device.New(device.LoadIllegalAddress)
		}
		cell.mu.Lock()
		cell.value = bitutil.SetHalfOfWord(cell.value, offset, uint16(data))
		cell.mu.Unlock()
		return nil
	case device.Word:
		if offset != 0 {
			return device.New(device.LoadIllegalAddress)
		}
		cell.store(data)
		return nil
	default:
		return device.New(device.LoadIllegalAddress)
	}
}
