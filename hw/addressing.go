package hw

//go:generate go tool stringer -type=AddrMode

// AddrMode is an addressing mode, the rule used to compute the effective
// address of an instruction operand.
type AddrMode uint8

const (
	IMP AddrMode = iota // implied
	ACC                 // accumulator
	IMM                 // #$nn
	ZPG                 // $nn
	ZPX                 // $nn,X
	ZPY                 // $nn,Y
	REL                 // branch displacement
	ABS                 // $nnnn
	ABX                 // $nnnn,X
	ABY                 // $nnnn,Y
	IND                 // ($nnnn)
	IZX                 // ($nn,X)
	IZY                 // ($nn),Y
)

// operandSize returns the number of bytes following the opcode.
func (m AddrMode) operandSize() int {
	switch m {
	case IMP, ACC:
		return 0
	case ABS, ABX, ABY, IND:
		return 2
	}
	return 1
}

func pageCrossed(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

// resolve computes the effective address of the operand of an instruction
// using the given addressing mode, pc being the address of the first byte
// following the opcode. It also reports whether indexing crossed a page.
// resolve doesn't modify the CPU state.
//
// For immediate mode, the effective address is pc itself. For relative mode
// it's the branch target.
func (c *CPU) resolve(mode AddrMode, pc uint16) (addr uint16, crossed bool) {
	switch mode {
	case IMP, ACC:
		return 0, false

	case IMM:
		return pc, false

	case ZPG:
		return uint16(c.Read8(pc)), false

	case ZPX:
		return uint16(c.Read8(pc) + c.X), false

	case ZPY:
		return uint16(c.Read8(pc) + c.Y), false

	case REL:
		off := int8(c.Read8(pc))
		next := pc + 1
		addr = next + uint16(off)
		return addr, pageCrossed(next, addr)

	case ABS:
		return c.Read16(pc), false

	case ABX:
		base := c.Read16(pc)
		addr = base + uint16(c.X)
		return addr, pageCrossed(base, addr)

	case ABY:
		base := c.Read16(pc)
		addr = base + uint16(c.Y)
		return addr, pageCrossed(base, addr)

	case IND:
		// The high byte is always fetched from the same page as the low byte,
		// so JMP ($xxFF) reads its high byte from $xx00.
		ptr := c.Read16(pc)
		lo := c.Read8(ptr)
		hi := c.Read8(ptr&0xFF00 | uint16(uint8(ptr)+1))
		return uint16(hi)<<8 | uint16(lo), false

	case IZX:
		zp := c.Read8(pc) + c.X
		lo := c.Read8(uint16(zp))
		hi := c.Read8(uint16(zp + 1))
		return uint16(hi)<<8 | uint16(lo), false

	case IZY:
		zp := c.Read8(pc)
		lo := c.Read8(uint16(zp))
		hi := c.Read8(uint16(zp + 1))
		base := uint16(hi)<<8 | uint16(lo)
		addr = base + uint16(c.Y)
		return addr, pageCrossed(base, addr)
	}

	panic("unknown addressing mode " + mode.String())
}
