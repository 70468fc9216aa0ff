/*
   DRAM: flat byte-addressed system memory.

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

package dram

import (
	"github.com/rcornwell/mipsemu/internal/bitutil"
	"github.com/rcornwell/mipsemu/internal/device"
)

// Size is the physical window size mapped at DRAM_BASE: 2 GiB.
const Size uint32 = 0x8000_0000

// Dram is a flat byte array mapped at physical address 0.
type Dram struct {
	content []byte
}

// New allocates a DRAM backing store of the full 2 GiB window.
func New() *Dram {
	return &Dram{content: make([]byte, Size)}
}

func (d *Dram) Read(addr uint32, size device.Size) (uint32, error) {
	if addr >= uint32(len(d.content)) {
		return 0, device.New(device.LoadIllegalAddress)
	}
	switch size {
	case device.Byte:
		return uint32(d.content[addr]), nil
	case device.Halfword:
		if addr%2 != 0 {
			return 0, device.New(device.LoadIllegalAddress)
		}
		return uint32(bitutil.ConcatHalf(d.content[addr], d.content[addr+1])), nil
	case device.Word:
		if addr%4 != 0 {
			return 0, device.New(device.LoadIllegalAddress)
		}
		return bitutil.ConcatWord(d.content[addr], d.content[addr+1], d.content[addr+2], d.content[addr+3]), nil
	default:
		return 0, device.New(device.LoadIllegalAddress)
	}
}

func (d *Dram) Write(addr uint32, data uint32, size device.Size) error {
	if addr >= uint32(len(d.content)) {
		return device.New(device.LoadIllegalAddress)
	}
	switch size {
	case device.Byte:
		d.content[addr] = byte(data)
	case device.Halfword:
		if addr%2 != 0 {
			return device.New(device.LoadIllegalAddress)
		}
		d.content[addr] = bitutil.ByteOfWord(uint32(uint16(data)), 0)
		d.content[addr+1] = bitutil.ByteOfWord(uint32(uint16(data)), 1)
	case device.Word:
		if addr%4 != 0 {
			return device.New(device.LoadIllegalAddress)
		}
		d.content[addr] = bitutil.ByteOfWord(data, 0)
		d.content[addr+1] = bitutil.ByteOfWord(data, 1)
		d.content[addr+2] = bitutil.ByteOfWord(data, 2)
		d.content[addr+3] = bitutil.ByteOfWord(data, 3)
	default:
		return device.New(device.LoadIllegalAddress)
	}
	return nil
}
