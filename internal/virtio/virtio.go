/*
   Virtio: opaque device window. Contents are not interpreted by the core.

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

package virtio

import (
	"github.com/rcornwell/mipsemu/internal/bitutil"
	"github.com/rcornwell/mipsemu/internal/device"
)

// Size is the virtio window: 4 KiB, opaque to the core.
const Size uint32 = 0x1000

// Device is a byte-addressable scratch window. No virtqueue semantics are
// modeled; the machine never interprets its contents (spec Non-goals).
type Device struct {
	content [Size]byte
}

func New() *Device {
	return &Device{}
}

func (v *Device) Read(addr uint32, size device.Size) (uint32, error) {
	if addr >= Size {
		return 0, device.New(device.LoadIllegalAddress)
	}
	switch size {
	case device.Byte:
		return uint32(v.content[addr]), nil
	case device.Halfword:
		if addr%2 != 0 {
			return 0, device.New(device.LoadIllegalAddress)
		}
		return uint32(bitutil.ConcatHalf(v.content[addr], v.content[addr+1])), nil
	case device.Word:
		if addr%4 != 0 {
			return 0, device.New(device.LoadIllegalAddress)
		}
		return bitutil.ConcatWord(v.content[addr], v.content[addr+1], v.content[addr+2], v.content[addr+3]), nil
	default:
		return 0, device.New(device.LoadIllegalAddress)
	}
}

func (v *Device) Write(addr uint32, data uint32, size device.Size) error {
	if addr >= Size {
		return device.New(device.StoreIllegalAddress)
	}
	switch size {
	case device.Byte:
		v.content[addr] = byte(data)
	case device.Halfword:
		if addr%2 != 0 {
			return device.New(device.StoreIllegalAddress)
		}
		v.content[addr] = bitutil.ByteOfWord(uint32(uint16(data)), 0)
		v.content[addr+1] = bitutil.ByteOfWord(uint32(uint16(data)), 1)
	case device.Word:
		if addr%4 != 0 {
			return device.New(device.StoreIllegalAddress)
		}
		v.content[addr] = bitutil.ByteOfWord(data, 0)
		v.content[addr+1] = bitutil.ByteOfWord(data, 1)
		v.content[addr+2] = bitutil.ByteOfWord(data, 2)
		v.content[addr+3] = bitutil.ByteOfWord(data, 3)
	default:
		return device.New(device.StoreIllegalAddress)
	}
	return nil
}
