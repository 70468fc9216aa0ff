package bus_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/mipsemu/internal/bus"
	"github.com/rcornwell/mipsemu/internal/cp0"
	"github.com/rcornwell/mipsemu/internal/device"
	"github.com/rcornwell/mipsemu/internal/dram"
	"github.com/rcornwell/mipsemu/internal/rom"
	"github.com/rcornwell/mipsemu/internal/uart"
	"github.com/rcornwell/mipsemu/internal/virtio"
)

func newTestBus(t *testing.T) *bus.Bus {
	t.Helper()
	c := cp0.New()
	u := uart.New(strings.NewReader(""), &bytes.Buffer{})
	t.Cleanup(func() {
		c.Shutdown()
		u.Shutdown()
	})
	return bus.New(dram.New(), rom.New(), c, u, virtio.New())
}

func TestDramWindow(t *testing.T) {
	b := newTestBus(t)
	require.NoError(t, b.Write(0x100, 0xdeadbeef, device.Word))
	v, err := b.Read(0x100, device.Word)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)
}

func TestRomWindowReadsBootJump(t *testing.T) {
	b := newTestBus(t)
	v, err := b.Read(0xffff_f000, device.Word)
	require.NoError(t, err)
	assert.NotEqual(t, uint32(0), v)
}

func TestUnmappedAddressErrors(t *testing.T) {
	b := newTestBus(t)
	_, err := b.Read(0x9000_0000, device.Word)
	require.Error(t, err)

	err = b.Write(0x9000_0000, 1, device.Word)
	require.Error(t, err)
}

func TestLLSCSuccess(t *testing.T) {
	b := newTestBus(t)
	require.NoError(t, b.Write(0, 1, device.Word))

	b.Reserve(0)
	ok := b.CheckAndClear(0)
	assert.True(t, ok)

	ok = b.CheckAndClear(0)
	assert.False(t, ok, "reservation consumed by first check")
}

func TestForeignStoreClearsReservation(t *testing.T) {
	b := newTestBus(t)
	b.Reserve(0)
	require.NoError(t, b.Write(0, 42, device.Word))

	ok := b.CheckAndClear(0)
	assert.False(t, ok, "store to the reserved address must clear it")
}

func TestStoreToOtherAddressLeavesReservation(t *testing.T) {
	b := newTestBus(t)
	b.Reserve(0)
	require.NoError(t, b.Write(4, 42, device.Word))

	ok := b.CheckAndClear(0)
	assert.True(t, ok)
}
