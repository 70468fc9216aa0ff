package isa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcornwell/mipsemu/internal/isa"
)

func TestDecodeEncodeRoundTripR(t *testing.T) {
	in := isa.Instruction{Form: isa.FormR, Opcode: isa.OpSPECIAL, Rs: 1, Rt: 2, Rd: 3, Shamt: 4, Funct: isa.FnADD}
	word := isa.Encode(in)
	out := isa.Decode(word)
	assert.Equal(t, in, out)
}

func TestDecodeEncodeRoundTripI(t *testing.T) {
	in := isa.Instruction{Form: isa.FormI, Opcode: isa.OpADDI, Rs: 5, Rt: 6, Imm16: 0xfffe}
	word := isa.Encode(in)
	out := isa.Decode(word)
	assert.Equal(t, in, out)
}

func TestDecodeEncodeRoundTripJ(t *testing.T) {
	in := isa.Instruction{Form: isa.FormJ, Opcode: isa.OpJAL, Imm26: 0x100000}
	word := isa.Encode(in)
	out := isa.Decode(word)
	assert.Equal(t, in, out)
}

func TestDecodeClassifiesUndefined(t *testing.T) {
	word := uint32(0x3f) << 26 // opcode 0x3f is not in any recognized set
	out := isa.Decode(word)
	assert.Equal(t, isa.FormUndefined, out.Form)
}

func TestDecodeClassifiesCoprocessorAsR(t *testing.T) {
	word := uint32(isa.OpCOP0) << 26
	out := isa.Decode(word)
	assert.Equal(t, isa.FormR, out.Form)
}
