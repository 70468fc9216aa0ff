package elfload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/mipsemu/internal/device"
	"github.com/rcornwell/mipsemu/internal/dram"
	"github.com/rcornwell/mipsemu/internal/paging"
)

func TestKallocInstallsLevel1AndLeaf(t *testing.T) {
	d := dram.New()
	a := newAllocator()

	frame, err := a.kalloc(d, TextBase)
	require.NoError(t, err)
	assert.Equal(t, uint32(3<<12), frame, "frame 2 goes to the level-2 table, frame 3 to the leaf")

	l1Offset := ((TextBase >> 22) & 0x3ff) << 2
	l1Entry, err := d.Read(l1Offset, device.Word)
	require.NoError(t, err)
	assert.Equal(t, uint32(2<<12), l1Entry&0xffff_f000)
	assert.NotEqual(t, uint32(0), l1Entry&paging.Present)
}

func TestKallocSecondPageReusesLevel2Table(t *testing.T) {
	d := dram.New()
	a := newAllocator()

	_, err := a.kalloc(d, TextBase)
	require.NoError(t, err)
	frame, err := a.kalloc(d, TextBase+0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(4<<12), frame, "no second level-2 table allocated for the same 4 MiB region")
}

func TestKallocRejectsUnalignedAddress(t *testing.T) {
	d := dram.New()
	a := newAllocator()
	_, err := a.kalloc(d, TextBase+4)
	assert.Error(t, err)
}

func TestKallocRejectsDoubleMapping(t *testing.T) {
	d := dram.New()
	a := newAllocator()
	_, err := a.kalloc(d, TextBase)
	require.NoError(t, err)
	_, err = a.kalloc(d, TextBase)
	assert.Error(t, err)
}

func TestLoadSectionWritesWordsAndInstallsMapping(t *testing.T) {
	d := dram.New()
	a := newAllocator()
	section := []byte{
		0x00, 0x00, 0x00, 0x20, // word 0
		0x00, 0x00, 0x00, 0x21, // word 1
	}
	require.NoError(t, loadSection(a, d, TextBase, section))

	frame, err := a.kalloc(d, TextBase+0x1000)
	require.NoError(t, err)

	l1Offset := ((TextBase >> 22) & 0x3ff) << 2
	l1Entry, err := d.Read(l1Offset, device.Word)
	require.NoError(t, err)
	l2Offset := ((TextBase >> 12) & 0x3ff) << 2
	leaf, err := d.Read((l1Entry&0xffff_f000)|l2Offset, device.Word)
	require.NoError(t, err)
	base := leaf & 0xffff_f000

	w0, err := d.Read(base, device.Word)
	require.NoError(t, err)
	w1, err := d.Read(base+4, device.Word)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20), w0)
	assert.Equal(t, uint32(0x21), w1)
	assert.Equal(t, uint32(4<<12), frame, "loadSection's own page left the next frame free")
}

func TestLoadKernelMissingFileErrors(t *testing.T) {
	d := dram.New()
	err := LoadKernel(d, "/nonexistent/path/to/kernel.elf")
	assert.Error(t, err)
}
