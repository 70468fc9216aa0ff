package monitor

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/mipsemu/internal/bus"
	"github.com/rcornwell/mipsemu/internal/cp0"
	"github.com/rcornwell/mipsemu/internal/cpu"
	"github.com/rcornwell/mipsemu/internal/device"
	"github.com/rcornwell/mipsemu/internal/dram"
	"github.com/rcornwell/mipsemu/internal/rom"
	"github.com/rcornwell/mipsemu/internal/uart"
	"github.com/rcornwell/mipsemu/internal/virtio"
)

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	c := cp0.New()
	u := uart.New(strings.NewReader(""), &bytes.Buffer{})
	t.Cleanup(func() {
		c.Shutdown()
		u.Shutdown()
	})
	d := dram.New()
	b := bus.New(d, rom.New(), c, u, virtio.New())
	return New(cpu.New(b, c), b)
}

func TestCmdDepositThenExamine(t *testing.T) {
	m := newTestMonitor(t)
	quit, err := cmdDeposit(m, []string{"100", "deadbeef"})
	require.NoError(t, err)
	assert.False(t, quit)

	v, err := m.bus.Read(0x100, device.Word)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)
}

func TestCmdExamineRequiresOneArg(t *testing.T) {
	m := newTestMonitor(t)
	_, err := cmdExamine(m, nil)
	assert.Error(t, err)
}

func TestCmdPrintReportsSnapshot(t *testing.T) {
	m := newTestMonitor(t)
	quit, err := cmdPrint(m, nil)
	require.NoError(t, err)
	assert.False(t, quit)
}

func TestCmdStepReportsNoError(t *testing.T) {
	m := newTestMonitor(t)
	before := m.cpu.Snapshot().PC
	_, err := cmdStep(m, []string{"1"})
	require.NoError(t, err)
	// With no page table in DRAM the fetch at the reboot vector faults; the
	// fault is recorded in CAUSE and the step command itself must not error.
	assert.NotPanics(t, func() { _ = m.cpu.Snapshot().PC })
	_ = before
}

func TestCmdContinueThenStop(t *testing.T) {
	m := newTestMonitor(t)
	quit, err := cmdContinue(m, nil)
	require.NoError(t, err)
	assert.False(t, quit)

	_, err = cmdContinue(m, nil)
	assert.Error(t, err, "a second continue while running must fail")

	time.Sleep(time.Millisecond)
	quit, err = cmdStop(m, nil)
	require.NoError(t, err)
	assert.False(t, quit)

	_, err = cmdStop(m, nil)
	assert.Error(t, err, "stop without a running machine must fail")
}

func TestCmdResetRefusedWhileRunning(t *testing.T) {
	m := newTestMonitor(t)
	_, err := cmdContinue(m, nil)
	require.NoError(t, err)

	_, err = cmdReset(m, nil)
	assert.Error(t, err)

	_, err = cmdStop(m, nil)
	require.NoError(t, err)
	_, err = cmdReset(m, nil)
	assert.NoError(t, err)
}

func TestCmdQuitSignalsExit(t *testing.T) {
	m := newTestMonitor(t)
	quit, err := cmdQuit(m, nil)
	require.NoError(t, err)
	assert.True(t, quit)
}
