/*
   Bus: physical address-range dispatch and the LL/SC reservation slot.

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

// Package bus routes physical addresses to one of five fixed windows and
// tracks the single-hart LL/SC reservation, per the address-to-handler
// dispatch style of the teacher's system channel.
package bus

import (
	"github.com/rcornwell/mipsemu/internal/cp0"
	"github.com/rcornwell/mipsemu/internal/device"
	"github.com/rcornwell/mipsemu/internal/dram"
	"github.com/rcornwell/mipsemu/internal/rom"
	"github.com/rcornwell/mipsemu/internal/uart"
	"github.com/rcornwell/mipsemu/internal/virtio"
)

// Window bases, per the physical address map.
const (
	coprocessorBase uint32 = 0xffff_c000
	uartBase        uint32 = 0xffff_d000
	virtioBase      uint32 = 0xffff_e000
	romBase         uint32 = 0xffff_f000
)

// Bus owns every memory-mapped component and the reservation slot shared
// by LL/SC. It is exercised by exactly one hart, so the slot needs no lock
// of its own beyond what the CPU's single-threaded tick loop already gives it.
type Bus struct {
	Dram *dram.Dram
	Rom  *rom.Rom
	CP0  *cp0.Coprocessor0
	Uart *uart.Uart
	Virt *virtio.Device

	reserved   uint32
	reservedOK bool
}

// New assembles a bus over the given components.
func New(d *dram.Dram, r *rom.Rom, c *cp0.Coprocessor0, u *uart.Uart, v *virtio.Device) *Bus {
	return &Bus{Dram: d, Rom: r, CP0: c, Uart: u, Virt: v}
}

// route returns the device and the address translated into its local
// window, or ok=false if the address falls outside every mapped range.
func (b *Bus) route(addr uint32) (device.Device, uint32, bool) {
	switch {
	case addr < dram.Size:
		return b.Dram, addr, true
	case addr >= coprocessorBase && addr < coprocessorBase+0x80:
		return b.CP0, addr - coprocessorBase, true
	case addr >= uartBase && addr < uartBase+uart.Size:
		return b.Uart, addr - uartBase, true
	case addr >= virtioBase && addr < virtioBase+virtio.Size:
		return b.Virt, addr - virtioBase, true
	case addr >= romBase: // the ROM window runs to the top of the address space
		return b.Rom, addr - romBase, true
	default:
		return nil, 0, false
	}
}

// Read dispatches to the owning device. An address outside every window
// is a LoadIllegalAddress.
func (b *Bus) Read(addr uint32, size device.Size) (uint32, error) {
	dev, local, ok := b.route(addr)
	if !ok {
		return 0, device.New(device.LoadIllegalAddress)
	}
	return dev.Read(local, size)
}

// Write unconditionally clears the reservation for this exact physical
// address before dispatch — invariant 2 of the data model — then routes
// the store. An address outside every window is a StoreIllegalAddress.
func (b *Bus) Write(addr uint32, data uint32, size device.Size) error {
	if b.reservedOK && b.reserved == addr {
		b.reservedOK = false
	}
	dev, local, ok := b.route(addr)
	if !ok {
		return device.New(device.StoreIllegalAddress)
	}
	return dev.Write(local, data, size)
}

// Reserve records addr as held load-linked, replacing any prior reservation.
func (b *Bus) Reserve(addr uint32) {
	b.reserved = addr
	b.reservedOK = true
}

// CheckAndClear reports whether addr is currently reserved, clearing the
// reservation unconditionally (SC always consumes the slot, win or lose).
func (b *Bus) CheckAndClear(addr uint32) bool {
	ok := b.reservedOK && b.reserved == addr
	b.reservedOK = false
	return ok
}
