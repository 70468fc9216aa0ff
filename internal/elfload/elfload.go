/*
   Elfload: kernel image loader, mapping a big-endian MIPS ELF's .text and
   .data sections into DRAM behind a bump-allocated page table.

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

package elfload

import (
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/rcornwell/mipsemu/internal/device"
	"github.com/rcornwell/mipsemu/internal/dram"
	"github.com/rcornwell/mipsemu/internal/paging"
)

// Fixed virtual base addresses the loader maps .text and .data at. A kernel
// built for this machine is linked to expect them here.
const (
	TextBase uint32 = 0x0040_0000
	DataBase uint32 = 0x1000_0000
	HeapBase uint32 = 0x1000_8000
)

// allocator bump-allocates physical frames for page tables and leaf pages.
// Frames 0 and 1 are reserved by the bootstrap table (the level-1 table and
// its device-window level-2 table), so allocation starts at frame 2.
type allocator struct {
	next uint32
}

func newAllocator() *allocator {
	return &allocator{next: 2}
}

// kalloc installs a present/valid/read/write leaf PTE for vaddr's page,
// allocating an intermediate level-1 table entry first if none exists yet,
// and returns the physical base address of the newly allocated leaf frame.
// vaddr must be page-aligned.
func (a *allocator) kalloc(d *dram.Dram, vaddr uint32) (uint32, error) {
	if vaddr&0xfff != 0 {
		return 0, fmt.Errorf("elfload: kalloc: vaddr %#x is not page-aligned", vaddr)
	}
	rw := paging.Present | paging.Valid | paging.Read | paging.Write

	l1Offset := ((vaddr >> 22) & 0x3ff) << 2
	l1Entry, err := d.Read(l1Offset, device.Word)
	if err != nil {
		return 0, err
	}

	var l2Base uint32
	if l1Entry&paging.Valid != 0 {
		if l1Entry&paging.Huge != 0 {
			return 0, fmt.Errorf("elfload: kalloc: vaddr %#x already huge-mapped", vaddr)
		}
		l2Base = l1Entry & 0xffff_f000
	} else {
		l2Base = a.next << 12
		if err := d.Write(l1Offset, l2Base|rw, device.Word); err != nil {
			return 0, err
		}
		a.next++
	}

	l2Offset := ((vaddr >> 12) & 0x3ff) << 2
	l2Entry, err := d.Read(l2Base|l2Offset, device.Word)
	if err != nil {
		return 0, err
	}
	if l2Entry&paging.Valid != 0 {
		return 0, fmt.Errorf("elfload: kalloc: vaddr %#x already mapped", vaddr)
	}

	frame := a.next << 12
	if err := d.Write(l2Base|l2Offset, frame|rw, device.Word); err != nil {
		return 0, err
	}
	a.next++
	return frame, nil
}

// loadSection copies a big-endian-encoded instruction/data section into
// DRAM starting at base, allocating a fresh leaf page every 4 KiB.
func loadSection(a *allocator, d *dram.Dram, base uint32, section []byte) error {
	var pbase uint32
	for ptr := 0; ptr < len(section); ptr += 4 {
		vaddr := base + uint32(ptr)
		if ptr&0xfff == 0 {
			frame, err := a.kalloc(d, vaddr)
			if err != nil {
				return err
			}
			pbase = frame
		}
		word := binary.BigEndian.Uint32(section[ptr : ptr+4])
		paddr := pbase + uint32(ptr&0xfff)
		if err := d.Write(paddr, word, device.Word); err != nil {
			return err
		}
	}
	return nil
}

// LoadKernel reads a MIPS big-endian ELF image from filename and maps its
// .text section at TextBase and, if present, its .data section at DataBase,
// installing page-table entries for each page as it goes.
func LoadKernel(d *dram.Dram, filename string) error {
	f, err := elf.Open(filename)
	if err != nil {
		return fmt.Errorf("elfload: open %s: %w", filename, err)
	}
	defer f.Close()

	a := newAllocator()

	text := f.Section(".text")
	if text == nil {
		return fmt.Errorf("elfload: %s has no .text section", filename)
	}
	textBytes, err := text.Data()
	if err != nil {
		return fmt.Errorf("elfload: read .text: %w", err)
	}
	if err := loadSection(a, d, TextBase, textBytes); err != nil {
		return err
	}

	if data := f.Section(".data"); data != nil {
		dataBytes, err := data.Data()
		if err != nil {
			return fmt.Errorf("elfload: read .data: %w", err)
		}
		if err := loadSection(a, d, DataBase, dataBytes); err != nil {
			return err
		}
	}
	return nil
}
