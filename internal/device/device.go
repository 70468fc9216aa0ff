/*
   Device: uniform bus-facing read/write contract and exception taxonomy.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

package device

import "fmt"

// Size is the width of a bus access.
type Size int

const (
	Byte Size = 1 << iota
	Halfword
	Word
)

// Device is the contract every bus-mapped component implements.
type Device interface {
	Read(addr uint32, size Size) (uint32, error)
	Write(addr uint32, data uint32, size Size) error
}

// Code is a CAUSE exception code, per the machine's exception taxonomy.
type Code uint16

const (
	Interrupt            Code = 0
	PageFault            Code = 1
	LoadIllegalAddress   Code = 4
	StoreIllegalAddress  Code = 5
	InstructionBusError  Code = 6
	DataBusError         Code = 7
	Syscall              Code = 8
	Break                Code = 9
	Reserved             Code = 10
	Overflow             Code = 12
)

// Exception is the error type carried out of any bus or CPU operation that
// fails. Its Code is written into CAUSE bits 2..6 by the CPU's tick loop.
type Exception struct {
	Code Code
}

func (e *Exception) Error() string {
	return fmt.Sprintf("exception code %d", e.Code)
}

// New builds an *Exception for the given code, as a convenience for
// returning from Device implementations.
func New(code Code) *Exception {
	return &Exception{Code: code}
}
