package rom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/mipsemu/internal/device"
	"github.com/rcornwell/mipsemu/internal/isa"
	"github.com/rcornwell/mipsemu/internal/rom"
)

func TestBootJumpSeeded(t *testing.T) {
	r := rom.New()
	word, err := r.Read(0, device.Word)
	require.NoError(t, err)
	inst := isa.Decode(word)
	assert.Equal(t, isa.FormJ, inst.Form)
	assert.Equal(t, uint8(isa.OpJ), inst.Opcode)
	assert.Equal(t, uint32(0x100000), inst.Imm26)
}

func TestOutOfRange(t *testing.T) {
	r := rom.New()
	_, err := r.Read(rom.Size, device.Byte)
	require.Error(t, err)
}

func TestWriteWordRoundTrip(t *testing.T) {
	r := rom.New()
	require.NoError(t, r.Write(0x100, 0xdeadbeef, device.Word))
	v, err := r.Read(0x100, device.Word)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)
}

func TestWriteWordMisalignment(t *testing.T) {
	r := rom.New()
	err := r.Write(0x102, 1, device.Word)
	require.Error(t, err)
	ex, ok := err.(*device.Exception)
	require.True(t, ok)
	assert.Equal(t, device.LoadIllegalAddress, ex.Code)
}

func TestWriteOutOfRange(t *testing.T) {
	r := rom.New()
	err := r.Write(rom.Size, 1, device.Byte)
	require.Error(t, err)
	ex, ok := err.(*device.Exception)
	require.True(t, ok)
	assert.Equal(t, device.LoadIllegalAddress, ex.Code)
}
