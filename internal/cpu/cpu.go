/*
   CPU: register file, tick loop, exception dispatch, and the R/I/J
   instruction interpreter.

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

package cpu

import (
	"github.com/rcornwell/mipsemu/internal/bitutil"
	"github.com/rcornwell/mipsemu/internal/bus"
	"github.com/rcornwell/mipsemu/internal/cp0"
	"github.com/rcornwell/mipsemu/internal/device"
	"github.com/rcornwell/mipsemu/internal/isa"
	"github.com/rcornwell/mipsemu/internal/paging"
)

// General-purpose register names, per MIPS o32 convention.
const (
	ZERO = 0
	AT   = 1
	V0   = 2
	V1   = 3
	A0   = 4
	A1   = 5
	A2   = 6
	A3   = 7
	T0   = 8
	T1   = 9
	GP   = 28
	SP   = 29
	FP   = 30
	RA   = 31
)

// RebootVector is the PC value on construction and after a double fault.
const RebootVector uint32 = 0x0

// Snapshot is a read-only register dump for the monitor and the CLI's
// exit-time status print.
type Snapshot struct {
	Registers [32]uint32
	PC, HI, LO uint32
}

// CPU holds the register file, PC, HI/LO, and references to the shared bus
// and coprocessor. It is driven by exactly one goroutine (the "hart").
type CPU struct {
	regs [32]uint32
	pc   uint32
	hi   uint32
	lo   uint32

	bus *bus.Bus
	cp0 *cp0.Coprocessor0
}

// New constructs a CPU at the reboot vector with a zeroed register file.
func New(b *bus.Bus, c *cp0.Coprocessor0) *CPU {
	return &CPU{bus: b, cp0: c, pc: RebootVector}
}

// Snapshot returns a copy of the CPU's visible state.
func (c *CPU) Snapshot() Snapshot {
	s := Snapshot{PC: c.pc, HI: c.hi, LO: c.lo}
	copy(s.Registers[:], c.regs[:])
	return s
}

// Reset returns the CPU to the reboot vector, as happens on construction
// and on a double fault. Register contents are left untouched to mirror
// the original machine's reset vector semantics (only PC is reset).
func (c *CPU) Reset() {
	c.pc = RebootVector
}

// SetPC, SetReg and SetHILO let the monitor and tests deposit state
// directly, bypassing the instruction interpreter.
func (c *CPU) SetPC(pc uint32)        { c.pc = pc }
func (c *CPU) SetReg(i uint8, v uint32) { c.regs[i] = v }
func (c *CPU) SetHILO(hi, lo uint32)  { c.hi, c.lo = hi, lo }

// Run polls stop between ticks, terminating once it is closed or receives
// a value. A double fault observed by Tick resets PC rather than stopping
// the loop.
func (c *CPU) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if err := c.Tick(); err != nil {
			c.Reset()
		}
	}
}

// RunN executes up to n ticks, stopping early on a double fault. Used by
// the monitor's step command and by the CLI's -n mode.
func (c *CPU) RunN(n int) {
	for i := 0; i < n; i++ {
		if err := c.Tick(); err != nil {
			c.Reset()
			return
		}
	}
}

func (c *CPU) reg(i uint8) uint32 { return c.regs[i] }

func (c *CPU) setReg(i uint8, v uint32) {
	// Register 0 is an ordinary writable slot here, not hardwired to zero;
	// callers must not depend on it reading back as zero.
	c.regs[i] = v
}

// Tick implements one iteration of the driver loop: vector a pending
// interrupt or prior exception, or else execute one instruction and
// advance PC. A failure that escapes execute() itself sets SR's
// exception-in-progress bit and writes the fault code into CAUSE; it is
// never returned to the caller. Tick only returns an error for a genuine
// double fault, at which point the caller should treat the machine as reset.
func (c *CPU) Tick() error {
	cause := c.cp0.LoadWord(cp0.CAUSE)
	sr := c.cp0.LoadWord(cp0.SR)

	pending := (cause >> 8) & 0xff
	code := (cause >> 2) & 0x1f
	interruptEnabled := sr&1 != 0 && sr&2 == 0
	mask := (sr >> 8) & 0xff

	switch {
	case interruptEnabled && pending&mask != 0 && code == 0:
		c.cp0.StoreWord(cp0.EPC, c.pc)
		c.pc = c.cp0.LoadWord(cp0.EBASE)
		return nil

	case code != 0:
		c.cp0.StoreWord(cp0.EPC, c.pc+4)
		c.pc = c.cp0.LoadWord(cp0.EBASE)
		return nil

	default:
		nextPC, err := c.execute()
		if err == nil {
			c.pc = nextPC
			return nil
		}
		exc, ok := err.(*device.Exception)
		if !ok {
			return err
		}
		c.cp0.StoreWord(cp0.SR, sr|0x2)
		c.cp0.StoreWord(cp0.CAUSE, (cause&0xffff_ff83)|(uint32(exc.Code)<<2))
		return nil
	}
}

// userMode reports SR bit 4.
func (c *CPU) userMode() bool {
	return c.cp0.LoadWord(cp0.SR)>>4&1 != 0
}

// fetch translates PC and reads the instruction word. The protection check
// is written operand-swapped relative to translateLoad but is the same
// condition: it faults when SR says user mode and the resolved page is NOT
// user, or when the page is not readable.
func (c *CPU) fetch() (uint32, error) {
	frame, err := paging.Walk(c.cp0, c.bus, c.pc)
	if err != nil {
		return 0, err
	}
	if (!frame.User && c.userMode()) || !frame.Read {
		return 0, device.New(device.LoadIllegalAddress)
	}
	return c.bus.Read(frame.Paddr, device.Word)
}

// translateLoad walks vaddr and applies the load-side protection check.
func (c *CPU) translateLoad(vaddr uint32) (uint32, error) {
	frame, err := paging.Walk(c.cp0, c.bus, vaddr)
	if err != nil {
		return 0, err
	}
	if (c.userMode() && !frame.User) || !frame.Read {
		return 0, device.New(device.LoadIllegalAddress)
	}
	return frame.Paddr, nil
}

// translateStore walks vaddr and applies the store-side protection check.
func (c *CPU) translateStore(vaddr uint32) (uint32, error) {
	frame, err := paging.Walk(c.cp0, c.bus, vaddr)
	if err != nil {
		return 0, err
	}
	if (c.userMode() && !frame.User) || !frame.Write {
		return 0, device.New(device.StoreIllegalAddress)
	}
	return frame.Paddr, nil
}

// execute decodes and runs the instruction at PC, returning the next PC on
// success. Default next-PC is PC+4; branches, jumps and ERET override it.
func (c *CPU) execute() (uint32, error) {
	word, err := c.fetch()
	if err != nil {
		return 0, err
	}
	inst := isa.Decode(word)

	switch inst.Form {
	case isa.FormR:
		return c.executeR(inst)
	case isa.FormI:
		return c.executeI(inst)
	case isa.FormJ:
		return c.executeJ(inst)
	default:
		return 0, device.New(device.InstructionBusError)
	}
}

func (c *CPU) executeR(inst isa.Instruction) (uint32, error) {
	if inst.Opcode == isa.OpCOP0 {
		return c.executeCOP0(inst)
	}

	rs, rt := c.reg(inst.Rs), c.reg(inst.Rt)
	switch inst.Funct {
	case isa.FnSLL:
		c.setReg(inst.Rd, rt<<inst.Shamt)
	case isa.FnSRL:
		c.setReg(inst.Rd, rt>>inst.Shamt)
	case isa.FnSRA:
		// Implemented as a logical shift, not arithmetic: observed source
		// behavior, preserved rather than "fixed".
		c.setReg(inst.Rd, rt>>inst.Shamt)
	case isa.FnSYSCALL:
		return 0, device.New(device.Syscall)
	case isa.FnMFHI:
		c.setReg(inst.Rd, c.hi)
	case isa.FnMTHI:
		c.hi = c.reg(inst.Rd)
	case isa.FnMFLO:
		c.setReg(inst.Rd, c.lo)
	case isa.FnMTLO:
		c.lo = c.reg(inst.Rd)
	case isa.FnMULT:
		v := int64(int32(rs)) * int64(int32(rt))
		c.hi, c.lo = uint32(v>>32), uint32(v)
	case isa.FnMULTU:
		v := uint64(rs) * uint64(rt)
		c.hi, c.lo = uint32(v>>32), uint32(v)
	case isa.FnDIV:
		c.lo = uint32(int32(rs) / int32(rt))
		c.hi = uint32(int32(rs) % int32(rt))
	case isa.FnDIVU:
		c.lo = rs / rt
		c.hi = rs % rt
	case isa.FnADD:
		c.setReg(inst.Rd, uint32(int32(rs)+int32(rt)))
	case isa.FnADDU:
		c.setReg(inst.Rd, rs+rt)
	case isa.FnSUB:
		c.setReg(inst.Rd, uint32(int32(rs)-int32(rt)))
	case isa.FnSUBU:
		c.setReg(inst.Rd, rs-rt)
	case isa.FnAND:
		c.setReg(inst.Rd, rs&rt)
	case isa.FnOR:
		c.setReg(inst.Rd, rs|rt)
	case isa.FnXOR:
		c.setReg(inst.Rd, rs^rt)
	case isa.FnNOR:
		c.setReg(inst.Rd, ^(rs | rt))
	case isa.FnSLT:
		c.setReg(inst.Rd, boolWord(int32(rs) < int32(rt)))
	case isa.FnSLTU:
		c.setReg(inst.Rd, boolWord(rs < rt))
	default:
		return 0, device.New(device.InstructionBusError)
	}
	return c.pc + 4, nil
}

func (c *CPU) executeCOP0(inst isa.Instruction) (uint32, error) {
	switch inst.Rs {
	case isa.CP0MFC0:
		c.setReg(inst.Rt, c.cp0.LoadWord(int(inst.Rd)))
	case isa.CP0MTC0:
		c.cp0.StoreWord(int(inst.Rd), c.reg(inst.Rt))
	case isa.CP0ERET:
		sr := c.cp0.LoadWord(cp0.SR)
		c.cp0.StoreWord(cp0.SR, sr&0xffff_fffd)
		return c.cp0.LoadWord(cp0.EPC), nil
	default:
		return 0, device.New(device.InstructionBusError)
	}
	return c.pc + 4, nil
}

func (c *CPU) executeI(inst isa.Instruction) (uint32, error) {
	rs, rt := c.reg(inst.Rs), c.reg(inst.Rt)
	sext := uint32(bitutil.SignExtend16(inst.Imm16))
	branchTarget := uint32(int32(c.pc) + 4 + (bitutil.SignExtend16(inst.Imm16) << 2))

	switch inst.Opcode {
	case isa.OpBEQ:
		if rs == rt {
			return branchTarget, nil
		}
	case isa.OpBNE:
		if rs != rt {
			return branchTarget, nil
		}
	case isa.OpADDI:
		c.setReg(inst.Rt, rs+sext)
	case isa.OpADDIU:
		c.setReg(inst.Rt, rs+uint32(inst.Imm16))
	case isa.OpSLTI:
		c.setReg(inst.Rt, boolWord(int32(rs) < int32(sext)))
	case isa.OpSLTIU:
		c.setReg(inst.Rt, boolWord(rs < uint32(inst.Imm16)))
	case isa.OpANDI:
		c.setReg(inst.Rt, rs&uint32(inst.Imm16))
	case isa.OpORI:
		c.setReg(inst.Rt, rs|uint32(inst.Imm16))
	case isa.OpXORI:
		c.setReg(inst.Rt, rs^uint32(inst.Imm16))
	case isa.OpLUI:
		c.setReg(inst.Rt, uint32(inst.Imm16)<<16)
	case isa.OpLW, isa.OpLBU, isa.OpLHU, isa.OpLL:
		return c.pc + 4, c.executeLoad(inst, rs+sext)
	case isa.OpSB, isa.OpSH, isa.OpSW:
		return c.pc + 4, c.executeStore(inst, rs+sext)
	case isa.OpSC:
		return c.pc + 4, c.executeStoreConditional(inst, rs+sext)
	default:
		return 0, device.New(device.InstructionBusError)
	}
	return c.pc + 4, nil
}

func (c *CPU) executeLoad(inst isa.Instruction, vaddr uint32) error {
	paddr, err := c.translateLoad(vaddr)
	if err != nil {
		return err
	}

	var size device.Size
	switch inst.Opcode {
	case isa.OpLBU:
		size = device.Byte
	case isa.OpLHU:
		size = device.Halfword
	default: // OpLW, OpLL
		size = device.Word
	}

	v, err := c.bus.Read(paddr, size)
	if err != nil {
		return err
	}
	c.setReg(inst.Rt, v)

	if inst.Opcode == isa.OpLL {
		c.bus.Reserve(paddr)
	}
	return nil
}

func (c *CPU) executeStore(inst isa.Instruction, vaddr uint32) error {
	paddr, err := c.translateStore(vaddr)
	if err != nil {
		return err
	}

	rt := c.reg(inst.Rt)
	var size device.Size
	var data uint32
	switch inst.Opcode {
	case isa.OpSB:
		size, data = device.Byte, rt&0xff
	case isa.OpSH:
		size, data = device.Halfword, rt&0xffff
	default: // OpSW
		size, data = device.Word, rt
	}

	if err := c.bus.Write(paddr, data, size); err != nil {
		return err
	}
	return paging.MarkDirty(c.cp0, c.bus, vaddr)
}

func (c *CPU) executeStoreConditional(inst isa.Instruction, vaddr uint32) error {
	paddr, err := c.translateStore(vaddr)
	if err != nil {
		return err
	}

	if c.bus.CheckAndClear(paddr) {
		if err := c.bus.Write(paddr, c.reg(inst.Rt), device.Word); err != nil {
			return err
		}
		c.setReg(inst.Rt, 1)
	} else {
		c.setReg(inst.Rt, 0)
	}
	return nil
}

func (c *CPU) executeJ(inst isa.Instruction) (uint32, error) {
	target := ((c.pc + 4) & 0xf000_0000) | (inst.Imm26 << 2)
	if inst.Opcode == isa.OpJAL {
		c.setReg(RA, c.pc+8)
	}
	return target, nil
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
