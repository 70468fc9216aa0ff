package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleWritesInfoToFile(t *testing.T) {
	var file bytes.Buffer
	debug := false
	h := NewHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}, &debug)
	logger := slog.New(h)

	logger.Info("machine started", "kernel", "kernel.elf")

	out := file.String()
	assert.Contains(t, out, "machine started")
	assert.Contains(t, out, "kernel.elf")
	assert.True(t, strings.Contains(out, "INFO:"))
}

func TestHandleDebugToFileWhenDebugDisabled(t *testing.T) {
	var file bytes.Buffer
	debug := false
	h := NewHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}, &debug)
	logger := slog.New(h)

	logger.Debug("tick 1")
	assert.Contains(t, file.String(), "tick 1")
}
