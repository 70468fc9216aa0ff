package uart_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/mipsemu/internal/device"
	"github.com/rcornwell/mipsemu/internal/uart"
)

func TestTransmitWritesToOutput(t *testing.T) {
	var out bytes.Buffer
	u := uart.New(strings.NewReader(""), &out)
	defer u.Shutdown()

	require.NoError(t, u.Write(0, uint32('A'), device.Byte))
	assert.Equal(t, "A", out.String())
}

func TestReceiveSetsLSRAndClearsOnRead(t *testing.T) {
	u := uart.New(strings.NewReader("z"), &bytes.Buffer{})
	defer u.Shutdown()

	require.Eventually(t, func() bool {
		lsr, err := u.Read(5, device.Byte)
		return err == nil && lsr&1 != 0
	}, time.Second, time.Millisecond)

	v, err := u.Read(0, device.Byte)
	require.NoError(t, err)
	assert.Equal(t, uint32('z'), v)

	lsr, err := u.Read(5, device.Byte)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), lsr&1)
}

func TestWordSizeRejected(t *testing.T) {
	u := uart.New(strings.NewReader(""), &bytes.Buffer{})
	defer u.Shutdown()

	_, err := u.Read(0, device.Word)
	require.Error(t, err)
}
