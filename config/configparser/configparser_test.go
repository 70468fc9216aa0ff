/*
 * Mipsemu - Configuration file parser test set.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package configparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lastValue string
var lastSwitch bool

func resetTest() {
	lastValue = ""
	lastSwitch = false
}

func cleanUpConfig() {
	models = map[string]modelDef{}
	resetTest()
}

func captureOption(value string) error {
	lastValue = value
	return nil
}

func captureSwitch(string) error {
	lastSwitch = true
	return nil
}

func TestParseLineSwitch(t *testing.T) {
	cleanUpConfig()
	RegisterSwitch("testswitch", captureSwitch)

	line := optionLine{line: "testSwitch"}
	require.NoError(t, line.parseLine())
	assert.True(t, lastSwitch)

	resetTest()
	line = optionLine{line: "testSwitch  # comment"}
	require.NoError(t, line.parseLine())
	assert.True(t, lastSwitch)

	resetTest()
	line = optionLine{line: "testSwitch extra"}
	assert.Error(t, line.parseLine())
	assert.False(t, lastSwitch)
}

func TestParseLineOptionBareValue(t *testing.T) {
	cleanUpConfig()
	RegisterOption("testoption", captureOption)

	line := optionLine{line: "testOption enable  # comment"}
	require.NoError(t, line.parseLine())
	assert.Equal(t, "enable", lastValue)
}

func TestParseLineOptionQuotedValue(t *testing.T) {
	cleanUpConfig()
	RegisterOption("kernel", captureOption)

	line := optionLine{line: `KERNEL "path with spaces/kernel.elf"`}
	require.NoError(t, line.parseLine())
	assert.Equal(t, "path with spaces/kernel.elf", lastValue)
}

func TestParseLineOptionRequiresValue(t *testing.T) {
	cleanUpConfig()
	RegisterOption("testoption", captureOption)

	line := optionLine{line: "testOption"}
	assert.Error(t, line.parseLine())
}

func TestParseLineUnknownOptionErrors(t *testing.T) {
	cleanUpConfig()
	line := optionLine{line: "nosuchoption value"}
	assert.Error(t, line.parseLine())
}

func TestParseLineCommentOnly(t *testing.T) {
	cleanUpConfig()
	line := optionLine{line: "  # just a comment"}
	assert.NoError(t, line.parseLine())
}

func TestLoadConfigFile(t *testing.T) {
	cleanUpConfig()

	var memsize, kernel, console string
	RegisterOption("memsize", func(v string) error { memsize = v; return nil })
	RegisterOption("kernel", func(v string) error { kernel = v; return nil })
	RegisterOption("console", func(v string) error { console = v; return nil })

	dir := t.TempDir()
	path := filepath.Join(dir, "mipsemu.cfg")
	content := "# sample machine config\n" +
		"MEMSIZE 67108864\n" +
		"KERNEL \"kernel.elf\"\n" +
		"CONSOLE stdio\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, LoadConfigFile(path))
	assert.Equal(t, "67108864", memsize)
	assert.Equal(t, "kernel.elf", kernel)
	assert.Equal(t, "stdio", console)
}

func TestLoadConfigFileMissing(t *testing.T) {
	cleanUpConfig()
	assert.Error(t, LoadConfigFile("/nonexistent/mipsemu.cfg"))
}
