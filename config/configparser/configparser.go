/*
 * Mipsemu - Configuration file parser
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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <name> <whitespace> <value> |
 *            <name>
 * <name>  ::= *(<letter> | <number>)
 * <value> ::= <string> | '"' *(<letter> | <whitespace>) '"'
 *
 * A name registered with RegisterSwitch takes no value; a name registered
 * with RegisterOption requires exactly one.
 */

const (
	TypeOption = 1 + iota // Accepts a single value parameter.
	TypeSwitch            // Option only used to set a flag, takes no value.
)

type modelDef struct {
	create func(value string) error
	ty     int
}

var models = map[string]modelDef{}

var lineNumber int

// RegisterOption registers name as an option that requires one value, e.g.
// `KERNEL "path/to/kernel.elf"`. Call from an init function.
func RegisterOption(name string, fn func(value string) error) {
	models[strings.ToUpper(name)] = modelDef{create: fn, ty: TypeOption}
}

// RegisterSwitch registers name as a bare flag that takes no value.
func RegisterSwitch(name string, fn func(value string) error) {
	models[strings.ToUpper(name)] = modelDef{create: fn, ty: TypeSwitch}
}

// LoadConfigFile reads name line by line, dispatching each recognized
// option to its registered callback.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		line := optionLine{}
		var err error
		line.line, err = reader.ReadString('\n')
		lineNumber++
		if len(line.line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if err := line.parseLine(); err != nil {
			return err
		}
	}
	return nil
}

// optionLine is the current line being scanned and its cursor position.
type optionLine struct {
	line string
	pos  int
}

func (l *optionLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *optionLine) isEOL() bool {
	return l.pos >= len(l.line) || l.line[l.pos] == '#'
}

// getName reads a contiguous run of letters/digits starting at the cursor.
func (l *optionLine) getName() string {
	start := l.pos
	for l.pos < len(l.line) {
		by := l.line[l.pos]
		if !unicode.IsLetter(rune(by)) && !unicode.IsNumber(rune(by)) {
			break
		}
		l.pos++
	}
	return l.line[start:l.pos]
}

// getValue reads the remainder of the option's value: a quoted string if
// the next non-space character is `"`, otherwise the rest of the line up
// to any trailing comment, trimmed of surrounding whitespace.
func (l *optionLine) getValue() (string, error) {
	l.skipSpace()
	if l.isEOL() {
		return "", nil
	}
	if l.line[l.pos] != '"' {
		end := strings.IndexByte(l.line[l.pos:], '#')
		var rest string
		if end < 0 {
			rest = l.line[l.pos:]
		} else {
			rest = l.line[l.pos : l.pos+end]
		}
		l.pos = len(l.line)
		return strings.TrimSpace(rest), nil
	}

	l.pos++ // skip opening quote
	start := l.pos
	for l.pos < len(l.line) && l.line[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.line) {
		return "", fmt.Errorf("configparser: unterminated quoted value, line %d", lineNumber)
	}
	value := l.line[start:l.pos]
	l.pos++ // skip closing quote
	return value, nil
}

// parseLine dispatches one line to its registered option, if any.
func (l *optionLine) parseLine() error {
	l.skipSpace()
	if l.isEOL() {
		return nil
	}

	name := l.getName()
	if name == "" {
		return fmt.Errorf("configparser: invalid option, line %d", lineNumber)
	}

	model, ok := models[strings.ToUpper(name)]
	if !ok {
		return fmt.Errorf("configparser: unknown option %q, line %d", name, lineNumber)
	}

	switch model.ty {
	case TypeSwitch:
		l.skipSpace()
		if !l.isEOL() {
			return fmt.Errorf("configparser: switch %q takes no value, line %d", name, lineNumber)
		}
		return model.create("")
	case TypeOption:
		value, err := l.getValue()
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("configparser: option %q requires a value, line %d", name, lineNumber)
		}
		return model.create(value)
	default:
		return fmt.Errorf("configparser: option %q has no registered type, line %d", name, lineNumber)
	}
}
