/*
   UART: 16550-style console device, asynchronous ingress, synchronous egress.

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

package uart

import (
	"bufio"
	"io"
	"log/slog"
	"sync"

	"github.com/rcornwell/mipsemu/internal/device"
)

// Size is the UART register window: 256 bytes.
const Size uint32 = 0x100

const (
	regRHR = 0 // Receive holding register (read).
	regTHR = 0 // Transmit holding register (write).
	regLSR = 5 // Line status register.

	lsrRX uint8 = 1      // Bit 0: RX ready.
	lsrTX uint8 = 1 << 5 // Bit 5: TX empty, always set here.
)

// Uart is a 256-byte register file behind one lock and one condition
// variable, plus an interrupt-pending flag swapped across thread boundaries.
type Uart struct {
	mu      sync.Mutex
	cond    *sync.Cond
	regs    [Size]byte
	irqFlag bool

	wg   sync.WaitGroup
	done chan struct{}
	out  io.Writer
}

// New builds a UART reading console input from in and writing output to out.
// The owned ingress goroutine starts immediately and runs until Shutdown.
func New(in io.Reader, out io.Writer) *Uart {
	u := &Uart{
		done: make(chan struct{}),
		out:  out,
	}
	u.cond = sync.NewCond(&u.mu)
	u.regs[regLSR] = lsrTX

	u.wg.Add(1)
	go u.readLoop(in)
	return u
}

// readLoop reads one byte at a time from the console, storing it into RHR
// once the previous byte has been consumed.
func (u *Uart) readLoop(in io.Reader) {
	defer u.wg.Done()
	r := bufio.NewReaderSize(in, 1)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			if err != io.EOF {
				slog.Warn("uart: read error", "error", err)
			}
			return
		}
		if n == 0 {
			continue
		}

		u.mu.Lock()
		for u.regs[regLSR]&lsrRX != 0 {
			u.cond.Wait()
			select {
			case <-u.done:
				u.mu.Unlock()
				return
			default:
			}
		}
		u.regs[regRHR] = buf[0]
		u.regs[regLSR] |= lsrRX
		u.irqFlag = true
		u.mu.Unlock()

		select {
		case <-u.done:
			return
		default:
		}
	}
}

// IsInterrupting reports and clears the pending-interrupt flag.
func (u *Uart) IsInterrupting() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	pending := u.irqFlag
	u.irqFlag = false
	return pending
}

// Shutdown stops the ingress goroutine. It does not block on a blocked
// console read; the goroutine exits on the next byte or EOF.
func (u *Uart) Shutdown() {
	close(u.done)
	u.mu.Lock()
	u.cond.Broadcast()
	u.mu.Unlock()
}

func (u *Uart) Read(addr uint32, size device.Size) (uint32, error) {
	if size != device.Byte {
		return 0, device.New(device.LoadIllegalAddress)
	}
	if addr >= Size {
		return 0, device.New(device.LoadIllegalAddress)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if addr == regRHR {
		v := u.regs[regRHR]
		u.regs[regLSR] &^= lsrRX
		u.cond.Signal()
		return uint32(v), nil
	}
	return uint32(u.regs[addr]), nil
}

func (u *Uart) Write(addr uint32, data uint32, size device.Size) error {
	if size != device.Byte {
		return device.New(device.StoreIllegalAddress)
	}
	if addr >= Size {
		return device.New(device.StoreIllegalAddress)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if addr == regTHR {
		if u.out != nil {
			_, _ = u.out.Write([]byte{byte(data)})
		}
		return nil
	}
	u.regs[addr] = byte(data)
	return nil
}
