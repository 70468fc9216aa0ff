/*
   Paging: two-level page walk, protection accumulation, dirty propagation,
   and the bootstrap page table installed once at boot.

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

package paging

import (
	"github.com/rcornwell/mipsemu/internal/cp0"
	"github.com/rcornwell/mipsemu/internal/device"
)

// PTE bit layout, [PFN:31..12][HUGE:6][PRESENT:5][VALID:4][USER:3][READ:2][WRITE:1][DIRTY:0].
const (
	Huge    uint32 = 1 << 6
	Present uint32 = 1 << 5
	Valid   uint32 = 1 << 4
	User    uint32 = 1 << 3
	Read    uint32 = 1 << 2
	Write   uint32 = 1 << 1
	Dirty   uint32 = 1 << 0

	pfnMask uint32 = 0xffff_f000
)

func pfn(entry uint32) uint32 { return entry & pfnMask }

// physReader/physWriter are the bus's word-access surface, kept narrow so
// paging can be exercised against an in-memory stub in tests.
type physReader interface {
	Read(addr uint32, size device.Size) (uint32, error)
}

type physWriter interface {
	physReader
	Write(addr uint32, data uint32, size device.Size) error
}

// Frame bundles a translated physical address with the access rights
// accumulated along the walk that produced it.
type Frame struct {
	Paddr uint32
	User  bool
	Read  bool
	Write bool
}

func readEntry(bus physReader, addr uint32) (uint32, error) {
	return bus.Read(addr, device.Word)
}

// Walk performs the two-level page-table descent described by the data
// model's PTE layout, returning the translated physical address and the
// AND-accumulated protection bits. A level that is not VALID fails with
// LoadIllegalAddress; one that is VALID but not PRESENT fails with PageFault.
func Walk(cp *cp0.Coprocessor0, bus physReader, vaddr uint32) (Frame, error) {
	entry := cp.LoadWord(cp0.PTBASE)
	user, read, write := true, true, true

	for _, shift := range [2]uint{22, 12} {
		if entry&Valid == 0 {
			return Frame{}, device.New(device.LoadIllegalAddress)
		}
		if entry&Present == 0 {
			return Frame{}, device.New(device.PageFault)
		}

		offset := ((vaddr >> shift) & 0x3ff) << 2
		next, err := readEntry(bus, pfn(entry)|offset)
		if err != nil {
			return Frame{}, err
		}

		user = user && next&User != 0
		read = read && next&Read != 0
		write = write && next&Write != 0

		if shift == 22 && next&Huge != 0 {
			return Frame{
				Paddr: next | (vaddr & 0x3f_ffff),
				User:  user, Read: read, Write: write,
			}, nil
		}
		entry = next
	}

	return Frame{
		Paddr: pfn(entry) | (vaddr & 0xfff),
		User:  user, Read: read, Write: write,
	}, nil
}

// MarkDirty sets the DIRTY bit on PTBASE and on every PTE traversed while
// translating vaddr, stopping after a HUGE PTE. It re-walks rather than
// reusing a prior Walk's result, since the two operations are issued from
// different call sites (store completion vs. translation) in the CPU.
func MarkDirty(cp *cp0.Coprocessor0, bus physWriter, vaddr uint32) error {
	entry := cp.LoadWord(cp0.PTBASE)
	cp.StoreWord(cp0.PTBASE, entry|Dirty)

	for _, shift := range [2]uint{22, 12} {
		offset := ((vaddr >> shift) & 0x3ff) << 2
		addr := pfn(entry) | offset
		next, err := readEntry(bus, addr)
		if err != nil {
			return err
		}
		if err := bus.Write(addr, next|Dirty, device.Word); err != nil {
			return err
		}
		if next&Huge != 0 {
			return nil
		}
		entry = next
	}
	return nil
}

// dramWriter is the narrow surface BuildBootstrapTable needs: word-writes
// into frames 0 and 1 of DRAM, before any device other than DRAM exists.
type dramWriter interface {
	Write(addr uint32, data uint32, size device.Size) error
}

// Bus physical base addresses the bootstrap table's level-2 entries point
// at. Mirrored from internal/bus to avoid an import cycle (bus depends on
// every device; paging must not depend on bus).
const (
	romBase    uint32 = 0xffff_f000
	virtioBase uint32 = 0xffff_e000
	uartBase   uint32 = 0xffff_d000
)

// BuildBootstrapTable installs the boot-time identity/device page table
// into DRAM frame 0: entry 0 is a level-2 table at 0x1000 mapping virtual
// page 0 to ROM, page 1 to virtio, page 2 to UART; entries 0x200..0x400
// are HUGE identity mappings covering the first 2 GiB from 0x8000_0000.
func BuildBootstrapTable(dram dramWriter) error {
	rw := Present | Valid | Read | Write
	ro := Present | Valid | Read

	if err := dram.Write(0, 0x0000_1000|rw, device.Word); err != nil {
		return err
	}
	if err := dram.Write(0x1000, romBase|ro, device.Word); err != nil {
		return err
	}
	if err := dram.Write(0x1004, virtioBase|rw, device.Word); err != nil {
		return err
	}
	if err := dram.Write(0x1008, uartBase|rw, device.Word); err != nil {
		return err
	}

	for i := uint32(0x200); i < 0x400; i++ {
		addr := i << 2
		entry := ((i - 0x200) << 22) | Huge | rw
		if err := dram.Write(addr, entry, device.Word); err != nil {
			return err
		}
	}
	return nil
}
