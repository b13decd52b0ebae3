package hw

import (
	"bytes"
	"fmt"

	"nescore/hw/hwio"
)

type DisasmOp struct {
	Opcode     string
	Oper       string
	Buf        []byte
	PC         uint16
	Unofficial bool
}

// Len returns the size of the instruction in bytes.
func (d DisasmOp) Len() int {
	return len(d.Buf)
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// Bytes returns the representation of a DisasmOp, in a fixed-width format
// suitable for the execution tracer.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 48
	buf := make([]byte, totalLen, totalLen+16)

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4] = ' '
	buf[5] = ' '

	off := 6
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}
	for ; off < 16; off++ {
		buf[off] = ' '
	}
	if d.Unofficial {
		buf[15] = '*'
	}

	buf = append(buf[:off], d.Opcode...)
	if d.Oper != "" {
		buf = append(buf, ' ')
		buf = append(buf, d.Oper...)
	}

	if len(buf) >= totalLen {
		return append(buf, ' ')
	}
	for len(buf) < totalLen {
		buf = append(buf, ' ')
	}
	return buf
}

func (d DisasmOp) String() string {
	return string(bytes.TrimRight(d.Bytes(), " "))
}

var addressLabels = map[uint16]string{
	0x2000: "PpuControl_2000",
	0x2001: "PpuMask_2001",
	0x2002: "PpuStatus_2002",
	0x2003: "OamAddr_2003",
	0x2004: "OamData_2004",
	0x2005: "PpuScroll_2005",
	0x2006: "PpuAddr_2006",
	0x2007: "PpuData_2007",
	0x4014: "SpriteDma_4014",
	0x4016: "Ctrl1_4016",
	0x4017: "Ctrl2_4017",
}

func formatAddr(addr uint16) string {
	if label, ok := addressLabels[addr]; ok {
		return label
	}
	return fmt.Sprintf("$%04X", addr)
}

func formatOperand(mode AddrMode, pc uint16, buf []byte) string {
	var addr uint16
	if len(buf) == 3 {
		addr = uint16(buf[2])<<8 | uint16(buf[1])
	}

	switch mode {
	case IMP:
		return ""
	case ACC:
		return "A"
	case IMM:
		return fmt.Sprintf("#$%02X", buf[1])
	case ZPG:
		return fmt.Sprintf("$%02X", buf[1])
	case ZPX:
		return fmt.Sprintf("$%02X,X", buf[1])
	case ZPY:
		return fmt.Sprintf("$%02X,Y", buf[1])
	case REL:
		return fmt.Sprintf("$%04X", pc+2+uint16(int8(buf[1])))
	case ABS:
		return formatAddr(addr)
	case ABX:
		return formatAddr(addr) + ",X"
	case ABY:
		return formatAddr(addr) + ",Y"
	case IND:
		return "(" + formatAddr(addr) + ")"
	case IZX:
		return fmt.Sprintf("($%02X,X)", buf[1])
	case IZY:
		return fmt.Sprintf("($%02X),Y", buf[1])
	}
	return ""
}

// disasm decodes the instruction at pc, only peeking at the bus.
func disasm(bus *hwio.Table, pc uint16) DisasmOp {
	opcode := bus.Peek8(pc)
	d := DisasmOp{
		PC:  pc,
		Buf: []byte{opcode},
	}

	op := ops[opcode]
	if op.exec == nil {
		d.Opcode = "???"
		d.Unofficial = true
		return d
	}

	for i := 1; i <= op.mode.operandSize(); i++ {
		d.Buf = append(d.Buf, bus.Peek8(pc+uint16(i)))
	}
	d.Opcode = op.name
	d.Unofficial = unofficial[opcode]
	d.Oper = formatOperand(op.mode, pc, d.Buf)
	return d
}
