/*
   ISA: R/I/J instruction encode and decode.

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

package isa

// Form classifies a decoded instruction's encoding shape.
type Form int

const (
	FormR Form = iota
	FormI
	FormJ
	FormUndefined
)

// Opcode definitions, named in the teacher's opcode-table convention.
const (
	OpSPECIAL = 0x00 // R form
	OpJ       = 0x02
	OpJAL     = 0x03
	OpBEQ     = 0x04
	OpBNE     = 0x05
	OpADDI    = 0x08
	OpADDIU   = 0x09
	OpSLTI    = 0x0a
	OpSLTIU   = 0x0b
	OpANDI    = 0x0c
	OpORI     = 0x0d
	OpXORI    = 0x0e
	OpLUI     = 0x0f
	OpCOP0    = 0x10 // R form (coprocessor)
	OpLW      = 0x23
	OpLBU     = 0x24
	OpLHU     = 0x25
	OpSB      = 0x28
	OpSH      = 0x29
	OpSW      = 0x2b
	OpLL      = 0x30
	OpSC      = 0x38
)

// Funct codes under OpSPECIAL (opcode 0).
const (
	FnSLL     = 0x00
	FnSRL     = 0x02
	FnSRA     = 0x03
	FnSYSCALL = 0x0c
	FnMFHI    = 0x10
	FnMTHI    = 0x11
	FnMFLO    = 0x12
	FnMTLO    = 0x13
	FnMULT    = 0x18
	FnMULTU   = 0x19
	FnDIV     = 0x1a
	FnDIVU    = 0x1b
	FnADD     = 0x20
	FnADDU    = 0x21
	FnSUB     = 0x22
	FnSUBU    = 0x23
	FnAND     = 0x24
	FnOR      = 0x25
	FnXOR     = 0x26
	FnNOR     = 0x27
	FnSLT     = 0x2a
	FnSLTU    = 0x2b
)

// rs sub-opcodes under OpCOP0.
const (
	CP0MFC0 = 0x00
	CP0MTC0 = 0x04
	CP0ERET = 0x10
)

// Instruction is a decoded instruction in any of the three shapes. Unused
// fields for a given Form are zero.
type Instruction struct {
	Form   Form
	Opcode uint8
	Rs     uint8
	Rt     uint8
	Rd     uint8
	Shamt  uint8
	Funct  uint8
	Imm16  uint16
	Imm26  uint32
}

// iSet is the set of opcodes recognized as I-form instructions.
var iSet = map[uint8]bool{
	0x4: true, 0x5: true, 0x8: true, 0x9: true, 0xa: true, 0xb: true,
	0xc: true, 0xd: true, 0xe: true, 0xf: true,
	0x23: true, 0x24: true, 0x25: true,
	0x28: true, 0x29: true, 0x2b: true,
	0x30: true, 0x38: true,
}

// Decode splits a 32-bit big-endian-from-the-ISA's-viewpoint instruction
// word into its R, I or J fields, classifying by opcode per spec.
func Decode(word uint32) Instruction {
	opcode := uint8(word >> 26)
	rs := uint8((word >> 21) & 0x1f)
	rt := uint8((word >> 16) & 0x1f)
	rd := uint8((word >> 11) & 0x1f)
	shamt := uint8((word >> 6) & 0x1f)
	funct := uint8(word & 0x3f)
	imm16 := uint16(word & 0xffff)
	imm26 := word & 0x03ff_ffff

	switch {
	case opcode == OpSPECIAL || opcode == OpCOP0:
		return Instruction{Form: FormR, Opcode: opcode, Rs: rs, Rt: rt, Rd: rd, Shamt: shamt, Funct: funct}
	case opcode == OpJ || opcode == OpJAL:
		return Instruction{Form: FormJ, Opcode: opcode, Imm26: imm26}
	case iSet[opcode]:
		return Instruction{Form: FormI, Opcode: opcode, Rs: rs, Rt: rt, Imm16: imm16}
	default:
		return Instruction{Form: FormUndefined, Opcode: opcode, Imm26: imm26}
	}
}

// Encode packs an Instruction back into its 32-bit word form.
func Encode(i Instruction) uint32 {
	switch i.Form {
	case FormR:
		return uint32(i.Opcode)<<26 | uint32(i.Rs)<<21 | uint32(i.Rt)<<16 |
			uint32(i.Rd)<<11 | uint32(i.Shamt)<<6 | uint32(i.Funct)
	case FormI:
		return uint32(i.Opcode)<<26 | uint32(i.Rs)<<21 | uint32(i.Rt)<<16 | uint32(i.Imm16)
	case FormJ:
		return uint32(i.Opcode)<<26 | (i.Imm26 & 0x03ff_ffff)
	default:
		return uint32(i.Opcode)<<26 | (i.Imm26 & 0x03ff_ffff)
	}
}
