package hw

import (
	"fmt"
	"io"
)

// cpuState stores the CPU state for the execution trace.
type cpuState struct {
	A, X, Y uint8
	P       P
	SP      uint8
	PC      uint16

	Clock    int64
	PPUCycle int
	Scanline int
}

type disasmer interface {
	Disasm(pc uint16) DisasmOp
}

// tracer writes an execution trace in the format of nestest.log.
type tracer struct {
	d disasmer
	w io.Writer
}

func appendReg(buf []byte, name string, v byte) []byte {
	var hex [2]byte
	hexEncode(hex[:], v)
	buf = append(buf, name...)
	buf = append(buf, ':')
	buf = append(buf, hex[:]...)
	return append(buf, ' ')
}

// write the execution trace for the instruction about to be executed.
func (t *tracer) write(state cpuState) {
	buf := t.d.Disasm(state.PC).Bytes()

	buf = appendReg(buf, "A", state.A)
	buf = appendReg(buf, "X", state.X)
	buf = appendReg(buf, "Y", state.Y)
	buf = appendReg(buf, "P", byte(state.P))
	buf = appendReg(buf, "SP", state.SP)

	buf = fmt.Appendf(buf, "PPU:%3d,%3d CYC:%d\n", state.Scanline, state.PPUCycle, state.Clock)
	t.w.Write(buf)
}
