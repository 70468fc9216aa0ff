/*
   ROM: flat byte-addressed boot memory, pre-seeded with the reboot jump.

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

package rom

import (
	"github.com/rcornwell/mipsemu/internal/bitutil"
	"github.com/rcornwell/mipsemu/internal/device"
	"github.com/rcornwell/mipsemu/internal/isa"
)

// Size is the ROM window: 4 KiB.
const Size uint32 = 0x1000

// kernelJumpImm26 is the boot jump's 26-bit target field; the virtual text
// address it reaches is imm26 << 2 == 0x100000 << 2 == 0x400000.
const kernelJumpImm26 uint32 = 0x100000

// Rom is a flat byte array mapped at physical 0xffff_f000.
type Rom struct {
	content []byte
}

// New builds a ROM pre-seeded with `j 0x100000`, the jump that sends the
// reboot vector (mapped through the bootstrap page table) to the kernel's
// virtual text base.
func New() *Rom {
	r := &Rom{content: make([]byte, Size)}
	boot := isa.Instruction{Form: isa.FormJ, Opcode: isa.OpJ, Imm26: kernelJumpImm26}
	_ = r.Write(0, isa.Encode(boot), device.Word)
	return r
}

// LoadImage overwrites ROM content with a raw boot image, for tests and
// alternate bootstraps. Returns an error if the image does not fit.
func (r *Rom) LoadImage(data []byte) error {
	if uint32(len(data)) > Size {
		return device.New(device.StoreIllegalAddress)
	}
	copy(r.content, data)
	return nil
}

func (r *Rom) Read(addr uint32, size device.Size) (uint32, error) {
	if addr >= Size {
		return 0, device.New(device.LoadIllegalAddress)
	}
	switch size {
	case device.Byte:
		return uint32(r.content[addr]), nil
	case device.Halfword:
		if addr%2 != 0 {
			return 0, device.New(device.LoadIllegalAddress)
		}
		return uint32(bitutil.ConcatHalf(r.content[addr], r.content[addr+1])), nil
	case device.Word:
		if addr%4 != 0 {
			return 0, device.New(device.LoadIllegalAddress)
		}
		return bitutil.ConcatWord(r.content[addr], r.content[addr+1], r.content[addr+2], r.content[addr+3]), nil
	default:
		return 0, device.New(device.LoadIllegalAddress)
	}
}

func (r *Rom) Write(addr uint32, data uint32, size device.Size) error {
	if addr >= Size {
		return device.New(device.LoadIllegalAddress)
	}
	switch size {
	case device.Byte:
		r.content[addr] = byte(data)
	case device.Halfword:
		if addr%2 != 0 {
			return device.New(device.LoadIllegalAddress)
		}
		r.content[addr] = bitutil.ByteOfWord(uint32(uint16(data)), 0)
		r.content[addr+1] = bitutil.ByteOfWord(uint32(uint16(data)), 1)
	case device.Word:
		if addr%4 != 0 {
			return device.New(device.LoadIllegalAddress)
		}
		r.content[addr] = bitutil.ByteOfWord(data, 0)
		r.content[addr+1] = bitutil.ByteOfWord(data, 1)
		r.content[addr+2] = bitutil.ByteOfWord(data, 2)
		r.content[addr+3] = bitutil.ByteOfWord(data, 3)
	default:
		return device.New(device.LoadIllegalAddress)
	}
	return nil
}
