/*
   Bit utilities: endian-aware pack/unpack of bytes, halfwords and words.

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

// Package bitutil holds small byte-slicing helpers shared by the bus-facing
// devices. The machine's bus is little-endian: offset 0 of a word is its
// least significant byte.
package bitutil

// ByteOfWord returns byte `offset` (0 = least significant) of src.
func ByteOfWord(src uint32, offset uint8) uint8 {
	return uint8(src >> (offset << 3) & 0xff)
}

// SetByteOfWord returns src with byte `offset` replaced by data.
func SetByteOfWord(src uint32, offset uint8, data uint8) uint32 {
	shift := offset << 3
	return src&^(0xff<<shift) | (uint32(data) << shift)
}

// HalfOfWord returns halfword `offset` (0 or 2) of src.
func HalfOfWord(src uint32, offset uint8) uint16 {
	return uint16(src >> (offset << 3) & 0xffff)
}

// SetHalfOfWord returns src with halfword `offset` replaced by data.
func SetHalfOfWord(src uint32, offset uint8, data uint16) uint32 {
	shift := offset << 3
	return src&^(0xffff<<shift) | (uint32(data) << shift)
}

// ConcatWord packs 4 bytes, little-endian, into a word.
func ConcatWord(b0, b1, b2, b3 byte) uint32 {
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
}

// ConcatHalf packs 2 bytes, little-endian, into a halfword.
func ConcatHalf(b0, b1 byte) uint16 {
	return uint16(b0) | uint16(b1)<<8
}

// SignExtend16 sign-extends a 16-bit immediate to a signed 32-bit value.
func SignExtend16(imm uint16) int32 {
	return int32(int16(imm))
}
