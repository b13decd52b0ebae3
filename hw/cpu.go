package hw

import (
	"fmt"
	"io"

	"nescore/emu/log"
	"nescore/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

const (
	resetCycles     = 8 // cycles burnt after reset before fetching the first opcode
	interruptCycles = 7 // cycles taken to service NMI and IRQ

	maxDiagnostics = 64
)

// An OpcodeError reports the execution of an opcode with no defined
// behavior. The CPU treats it as a one cycle NOP.
type OpcodeError struct {
	Opcode uint8
	PC     uint16 // address of the opcode
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("unimplemented opcode $%02X at $%04X", e.Opcode, e.PC)
}

type CPU struct {
	Bus *hwio.Table

	// cpu registers
	A, X, Y, SP uint8
	PC          uint16
	P           P

	Cycles       int64 // CPU cycles
	Instructions int64 // executed instructions

	// cycles left before the next instruction can be fetched.
	debt int

	// operand of the current instruction.
	operand uint16
	accmode bool // the instruction operates on the accumulator
	extra   int  // cycles added by the instruction itself (branches)

	// interrupt lines, latched until the next instruction boundary.
	nmiPending bool
	irqPending bool

	diags []error

	// Non-nil when execution tracing is enabled.
	tracer *tracer
	// Returns the PPU position for the execution trace, if any.
	ppuPos func() (scanline, cycle int)
}

// NewCPU creates a new CPU connected to the given bus, which is shared with
// the rest of the system.
func NewCPU(bus *hwio.Table) *CPU {
	return &CPU{
		Bus: bus,
		SP:  0xFD,
		P:   Reserved | Interrupt,
	}
}

// Reset puts the CPU in its power-up state, and loads the program counter
// from the reset vector.
func (c *CPU) Reset() {
	c.A = 0x00
	c.X = 0x00
	c.Y = 0x00
	c.SP = 0xFD
	c.P = Reserved | Interrupt

	// Directly read from the bus to avoid side effects.
	c.PC = hwio.Read16(c.Bus, ResetVector)

	c.nmiPending = false
	c.irqPending = false
	c.accmode = false
	c.extra = 0

	// After a reset/power up, the CPU burns 8 cycles before going on with ROM
	// execution. Cycles starts at -1 so that the first instruction is fetched
	// at cycle 7.
	c.debt = resetCycles
	c.Cycles = -1
}

// NMI requests a non-maskable interrupt, serviced at the next instruction
// boundary.
func (c *CPU) NMI() {
	c.nmiPending = true
}

// IRQ requests a maskable interrupt, serviced at the next instruction
// boundary unless the interrupt disable flag is set then.
func (c *CPU) IRQ() {
	c.irqPending = true
}

// Busy reports whether the current instruction is still executing, that is
// the next Tick won't fetch a new opcode.
func (c *CPU) Busy() bool {
	return c.debt > 0
}

// Tick advances the CPU by one cycle. When the previous instruction has
// completed, the pending interrupt or the next instruction is executed at
// once and its cost becomes the number of cycles to wait before the
// following one.
func (c *CPU) Tick() {
	if c.debt == 0 {
		switch {
		case c.nmiPending:
			c.nmiPending = false
			c.interrupt(NMIVector)
			c.debt = interruptCycles
		case c.irqPending && !c.P.I():
			c.irqPending = false
			c.interrupt(IRQVector)
			c.debt = interruptCycles
		default:
			c.irqPending = false
			c.step()
		}
	}

	c.debt--
	c.Cycles++
}

// step fetches, decodes and executes one instruction.
func (c *CPU) step() {
	c.traceOp()

	pc := c.PC
	opcode := c.Read8(pc)
	c.PC++

	op := &ops[opcode]
	if op.exec == nil {
		c.unimplemented(opcode, pc)
		c.debt = 1
		return
	}

	var crossed bool
	c.operand, crossed = c.resolve(op.mode, c.PC)
	c.PC += uint16(op.mode.operandSize())
	c.accmode = op.mode == ACC
	c.extra = 0

	op.exec(c)

	c.debt = int(op.cycles) + c.extra
	if crossed && op.pagePenalty {
		c.debt++
	}
	c.Instructions++
}

func (c *CPU) unimplemented(opcode uint8, pc uint16) {
	err := &OpcodeError{Opcode: opcode, PC: pc}
	if len(c.diags) == maxDiagnostics {
		copy(c.diags, c.diags[1:])
		c.diags = c.diags[:maxDiagnostics-1]
	}
	c.diags = append(c.diags, err)

	log.ModCPU.WarnZ("unimplemented opcode").
		Hex8("opcode", opcode).
		Hex16("PC", pc).
		End()
}

// Diagnostics returns the last non-fatal errors encountered during execution,
// oldest first.
func (c *CPU) Diagnostics() []error {
	return append([]error(nil), c.diags...)
}

func (c *CPU) interrupt(vector uint16) {
	c.push16(c.PC)
	c.push8(c.P.pushed(false))
	c.P.setI(true)
	c.PC = c.Read16(vector)
}

func (c *CPU) Read8(addr uint16) uint8 {
	return c.Bus.Read8(addr, false)
}

func (c *CPU) Write8(addr uint16, val uint8) {
	c.Bus.Write8(addr, val)
}

func (c *CPU) Read16(addr uint16) uint16 {
	lo := c.Read8(addr)
	hi := c.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

/* stack operations */

func (c *CPU) push8(val uint8) {
	top := uint16(c.SP) + 0x0100
	c.Write8(top, val)
	c.SP--
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val & 0xff))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	top := uint16(c.SP) + 0x0100
	return c.Read8(top)
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

/* operand access */

// fetch returns the operand value, either the accumulator or the memory
// location pointed to by the effective address.
func (c *CPU) fetch() uint8 {
	if c.accmode {
		return c.A
	}
	return c.Read8(c.operand)
}

// store writes back the result of a read-modify-write instruction.
func (c *CPU) store(val uint8) {
	if c.accmode {
		c.A = val
		return
	}
	c.Write8(c.operand, val)
}

/* tracing */

func (c *CPU) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w, d: c}
}

func (c *CPU) traceOp() {
	if c.tracer == nil {
		return
	}
	state := cpuState{
		A:     c.A,
		X:     c.X,
		Y:     c.Y,
		P:     c.P,
		SP:    c.SP,
		Clock: c.Cycles,
		PC:    c.PC,
	}
	if c.ppuPos != nil {
		state.Scanline, state.PPUCycle = c.ppuPos()
	}
	c.tracer.write(state)
}

// Disasm disassembles the instruction at pc, without side effects.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	return disasm(c.Bus, pc)
}
