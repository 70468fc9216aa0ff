package cp0_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/mipsemu/internal/cp0"
	"github.com/rcornwell/mipsemu/internal/device"
)

func TestInitialValues(t *testing.T) {
	c := cp0.New()
	defer c.Shutdown()

	assert.Equal(t, uint32(0x0000ff01), c.LoadWord(cp0.SR))
	assert.Equal(t, uint32(0x80000000), c.LoadWord(cp0.EBASE))
	assert.NotEqual(t, uint32(0), c.LoadWord(cp0.PTBASE))
	assert.Equal(t, uint32(0), c.LoadWord(cp0.COUNT))
}

func TestStoreWordRoundTrip(t *testing.T) {
	c := cp0.New()
	defer c.Shutdown()

	c.StoreWord(cp0.EPC, 0x12345678)
	assert.Equal(t, uint32(0x12345678), c.LoadWord(cp0.EPC))
}

func TestDeviceReadWriteWord(t *testing.T) {
	c := cp0.New()
	defer c.Shutdown()

	require.NoError(t, c.Write(cp0.EPC<<2, 0xdeadbeef, device.Word))
	v, err := c.Read(cp0.EPC<<2, device.Word)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)
}

func TestDeviceOutOfRange(t *testing.T) {
	c := cp0.New()
	defer c.Shutdown()

	_, err := c.Read(32<<2, device.Word)
	require.Error(t, err)
}

func TestDeviceWriteOutOfRange(t *testing.T) {
	c := cp0.New()
	defer c.Shutdown()

	err := c.Write(32<<2, 1, device.Word)
	require.Error(t, err)
	ex, ok := err.(*device.Exception)
	require.True(t, ok)
	assert.Equal(t, device.LoadIllegalAddress, ex.Code)
}

func TestDeviceWriteWordMisalignment(t *testing.T) {
	c := cp0.New()
	defer c.Shutdown()

	err := c.Write((cp0.EPC<<2)+1, 1, device.Word)
	require.Error(t, err)
	ex, ok := err.(*device.Exception)
	require.True(t, ok)
	assert.Equal(t, device.LoadIllegalAddress, ex.Code)
}

func TestTimerFiresOnCompareMatch(t *testing.T) {
	c := cp0.New()
	defer c.Shutdown()

	c.StoreWord(cp0.COMPARE, 1)

	require.Eventually(t, func() bool {
		cause := c.LoadWord(cp0.CAUSE)
		return cause&(1<<(8+cp0.TimerLevel)) != 0
	}, time.Second, time.Millisecond)
}

func TestShutdownStopsTimer(t *testing.T) {
	c := cp0.New()
	c.Shutdown()

	before := c.LoadWord(cp0.COUNT)
	time.Sleep(30 * time.Millisecond)
	after := c.LoadWord(cp0.COUNT)
	assert.Equal(t, before, after)
}
