package hw

import (
	"errors"
	"testing"

	"nescore/hw/hwio"
)

// testCPU is a CPU connected to 64KB of flat RAM. The program is loaded at
// $8000, which is also the reset vector.
type testCPU struct {
	*CPU
	mem []byte
}

func newTestCPU(tb testing.TB, prog ...byte) *testCPU {
	tb.Helper()

	mem := make([]byte, 0x10000)
	bus := hwio.NewTable("test")
	bus.MapMemorySlice(0x0000, 0xFFFF, mem, false)

	copy(mem[0x8000:], prog)
	mem[0xFFFC] = 0x00
	mem[0xFFFD] = 0x80

	c := NewCPU(bus)
	c.Reset()
	for c.Busy() {
		c.Tick()
	}
	return &testCPU{CPU: c, mem: mem}
}

// run1 runs an instruction (or services an interrupt) to completion and
// returns the number of cycles it took.
func (tc *testCPU) run1() int {
	n := 1
	tc.Tick()
	for tc.Busy() {
		tc.Tick()
		n++
	}
	return n
}

func (tc *testCPU) runN(n int) {
	for range n {
		tc.run1()
	}
}

func TestPString(t *testing.T) {
	p := P(0b00110100)
	if got := p.String(); got != "nvUBdIzc" {
		t.Errorf("got P = %s, want %s", got, "nvUBdIzc")
	}
	p = P(0b00000100)
	if p.String() != "nvubdIzc" {
		t.Errorf("got P = %s, want %s", p.String(), "nvubdIzc")
	}
}

func TestPushedPulled(t *testing.T) {
	p := Carry | Negative
	if got := p.pushed(true); got != 0xB1 {
		t.Errorf("pushed(true) = %02X, want B1", got)
	}
	if got := p.pushed(false); got != 0xA1 {
		t.Errorf("pushed(false) = %02X, want A1", got)
	}
	if got := pulled(0xFF); got != 0xEF {
		t.Errorf("pulled(FF) = %02X, want EF", uint8(got))
	}
	if got := pulled(0x00); got != Reserved {
		t.Errorf("pulled(00) = %02X, want 20", uint8(got))
	}
}

func TestReset(t *testing.T) {
	tc := newTestCPU(t)
	if tc.PC != 0x8000 {
		t.Errorf("PC = %04X, want 8000", tc.PC)
	}
	if tc.SP != 0xFD {
		t.Errorf("SP = %02X, want FD", tc.SP)
	}
	if tc.P != 0x24 {
		t.Errorf("P = %02X, want 24", uint8(tc.P))
	}
	if tc.Cycles != 7 {
		t.Errorf("Cycles = %d, want 7", tc.Cycles)
	}
}

func TestLoadFlags(t *testing.T) {
	tc := newTestCPU(t, 0xA9, 0x00)
	for v := range 256 {
		tc.mem[0x8001] = uint8(v)
		tc.PC = 0x8000
		tc.run1()

		if tc.A != uint8(v) {
			t.Fatalf("LDA #$%02X: A = %02X", v, tc.A)
		}
		if got, want := tc.P.Z(), v == 0; got != want {
			t.Errorf("LDA #$%02X: Z = %t, want %t", v, got, want)
		}
		if got, want := tc.P.N(), v&0x80 != 0; got != want {
			t.Errorf("LDA #$%02X: N = %t, want %t", v, got, want)
		}
	}
}

func TestLDAImmediateZero(t *testing.T) {
	tc := newTestCPU(t, 0xA9, 0x00)
	tc.A = 0x42
	tc.P.setN(true)

	cycles := tc.run1()

	if tc.A != 0 {
		t.Errorf("A = %02X, want 00", tc.A)
	}
	if !tc.P.Z() {
		t.Error("Z should be set")
	}
	if tc.P.N() {
		t.Error("N should be clear")
	}
	if tc.PC != 0x8002 {
		t.Errorf("PC = %04X, want 8002", tc.PC)
	}
	if cycles != 2 {
		t.Errorf("took %d cycles, want 2", cycles)
	}
	if tc.Instructions != 1 {
		t.Errorf("Instructions = %d, want 1", tc.Instructions)
	}
}

func TestADCSignedOverflow(t *testing.T) {
	tc := newTestCPU(t, 0x69, 0x01)
	tc.A = 0x7F
	tc.P.setC(false)

	tc.run1()

	if tc.A != 0x80 {
		t.Errorf("A = %02X, want 80", tc.A)
	}
	if !tc.P.N() {
		t.Error("N should be set")
	}
	if !tc.P.V() {
		t.Error("V should be set")
	}
	if tc.P.C() {
		t.Error("C should be clear")
	}
	if tc.P.Z() {
		t.Error("Z should be clear")
	}
}

func TestADCSBCRoundTrip(t *testing.T) {
	tc := newTestCPU(t,
		0x18,       // CLC
		0x69, 0x00, // ADC #m
		0x38,       // SEC
		0xE9, 0x00, // SBC #m
	)

	for a := range 256 {
		for m := range 256 {
			tc.mem[0x8002] = uint8(m)
			tc.mem[0x8005] = uint8(m)
			tc.PC = 0x8000
			tc.A = uint8(a)
			tc.runN(4)

			if tc.A != uint8(a) {
				t.Fatalf("a=%02X m=%02X: A = %02X after round trip", a, m, tc.A)
			}
			// Borrow only happens when the addition wrapped.
			if got, want := tc.P.C(), a+m <= 0xFF; got != want {
				t.Fatalf("a=%02X m=%02X: C = %t, want %t", a, m, got, want)
			}
		}
	}
}

func TestStackDiscipline(t *testing.T) {
	tc := newTestCPU(t)

	for n := 1; n <= 16; n++ {
		sp := tc.SP
		for i := range n {
			tc.push8(uint8(i * 3))
		}
		for i := n - 1; i >= 0; i-- {
			if got := tc.pull8(); got != uint8(i*3) {
				t.Fatalf("n=%d: pulled %02X, want %02X", n, got, uint8(i*3))
			}
		}
		if tc.SP != sp {
			t.Fatalf("n=%d: SP = %02X, want %02X", n, tc.SP, sp)
		}
	}

	tc.push16(0xBEEF)
	if tc.mem[0x01FD] != 0xBE || tc.mem[0x01FC] != 0xEF {
		t.Errorf("push16 wrote %02X%02X, want BEEF", tc.mem[0x01FD], tc.mem[0x01FC])
	}
	if got := tc.pull16(); got != 0xBEEF {
		t.Errorf("pull16 = %04X, want BEEF", got)
	}
}

func TestPushPullInstructions(t *testing.T) {
	tc := newTestCPU(t,
		0xA9, 0x11, // LDA #$11
		0x48,       // PHA
		0xA9, 0x22, // LDA #$22
		0x48,       // PHA
		0x08,       // PHP
		0xA9, 0x00, // LDA #$00
		0x28,       // PLP
		0x68,       // PLA
		0x68,       // PLA
	)
	tc.runN(9)

	if tc.A != 0x11 {
		t.Errorf("A = %02X, want 11", tc.A)
	}
	if tc.SP != 0xFD {
		t.Errorf("SP = %02X, want FD", tc.SP)
	}
	if tc.P.B() {
		t.Error("B should not survive PLP")
	}
	if tc.mem[0x01FB] != 0x34 {
		t.Errorf("PHP pushed %02X, want 34", tc.mem[0x01FB])
	}
}

func TestBranchTiming(t *testing.T) {
	tests := []struct {
		name   string
		pc     uint16
		off    uint8
		zero   bool
		cycles int
		wantPC uint16
	}{
		{name: "not taken", pc: 0x8000, off: 0x10, zero: true, cycles: 2, wantPC: 0x8002},
		{name: "taken same page", pc: 0x8000, off: 0x10, zero: false, cycles: 3, wantPC: 0x8012},
		{name: "taken backward same page", pc: 0x8010, off: 0xF0, zero: false, cycles: 3, wantPC: 0x8002},
		{name: "taken page cross", pc: 0x80F0, off: 0x7F, zero: false, cycles: 4, wantPC: 0x8171},
		{name: "taken backward page cross", pc: 0x8000, off: 0xFC, zero: false, cycles: 4, wantPC: 0x7FFE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCPU(t)
			tc.mem[tt.pc] = 0xD0 // BNE
			tc.mem[tt.pc+1] = tt.off
			tc.PC = tt.pc
			tc.P.setZ(tt.zero)

			if got := tc.run1(); got != tt.cycles {
				t.Errorf("took %d cycles, want %d", got, tt.cycles)
			}
			if tc.PC != tt.wantPC {
				t.Errorf("PC = %04X, want %04X", tc.PC, tt.wantPC)
			}
		})
	}
}

func TestPageCrossPenalty(t *testing.T) {
	tests := []struct {
		name   string
		prog   []byte
		x, y   uint8
		cycles int
	}{
		{"LDA abs,X same page", []byte{0xBD, 0x00, 0x02}, 0x10, 0, 4},
		{"LDA abs,X crossed", []byte{0xBD, 0xF8, 0x02}, 0x10, 0, 5},
		{"LDA abs,Y crossed", []byte{0xB9, 0xF8, 0x02}, 0, 0x10, 5},
		{"STA abs,X crossed", []byte{0x9D, 0xF8, 0x02}, 0x10, 0, 5},
		{"STA abs,X same page", []byte{0x9D, 0x00, 0x02}, 0x10, 0, 5},
		{"LDA (zp),Y crossed", []byte{0xB1, 0x40}, 0, 0x10, 6},
		{"LDA (zp),Y same page", []byte{0xB1, 0x40}, 0, 0x01, 5},
		{"ASL abs,X crossed", []byte{0x1E, 0xF8, 0x02}, 0x10, 0, 7},
		{"NOP abs,X crossed", []byte{0x1C, 0xF8, 0x02}, 0x10, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCPU(t, tt.prog...)
			tc.mem[0x40] = 0xF8
			tc.mem[0x41] = 0x02
			tc.X = tt.x
			tc.Y = tt.y

			if got := tc.run1(); got != tt.cycles {
				t.Errorf("took %d cycles, want %d", got, tt.cycles)
			}
		})
	}
}

func TestJMPIndirectPageWrap(t *testing.T) {
	tc := newTestCPU(t, 0x6C, 0xFF, 0x02)
	tc.mem[0x02FF] = 0x34
	tc.mem[0x0200] = 0x12
	tc.mem[0x0300] = 0x56

	if got := tc.run1(); got != 5 {
		t.Errorf("took %d cycles, want 5", got)
	}
	if tc.PC != 0x1234 {
		t.Errorf("PC = %04X, want 1234", tc.PC)
	}
}

func TestJSRRTS(t *testing.T) {
	tc := newTestCPU(t, 0x20, 0x00, 0x90) // JSR $9000
	tc.mem[0x9000] = 0x60                  // RTS

	if got := tc.run1(); got != 6 {
		t.Errorf("JSR took %d cycles, want 6", got)
	}
	if tc.PC != 0x9000 {
		t.Errorf("PC = %04X, want 9000", tc.PC)
	}
	if tc.mem[0x01FD] != 0x80 || tc.mem[0x01FC] != 0x02 {
		t.Errorf("return address = %02X%02X, want 8002", tc.mem[0x01FD], tc.mem[0x01FC])
	}

	if got := tc.run1(); got != 6 {
		t.Errorf("RTS took %d cycles, want 6", got)
	}
	if tc.PC != 0x8003 {
		t.Errorf("PC = %04X, want 8003", tc.PC)
	}
}

func TestBRKRTI(t *testing.T) {
	tc := newTestCPU(t, 0x00, 0xEA) // BRK, padding
	tc.mem[0xFFFE] = 0x00
	tc.mem[0xFFFF] = 0x90
	tc.mem[0x9000] = 0x40 // RTI
	tc.P = Reserved | Carry

	if got := tc.run1(); got != 7 {
		t.Errorf("BRK took %d cycles, want 7", got)
	}
	if tc.PC != 0x9000 {
		t.Errorf("PC = %04X, want 9000", tc.PC)
	}
	if !tc.P.I() {
		t.Error("I should be set")
	}
	if got := tc.mem[0x01FB]; got != 0x31 {
		t.Errorf("pushed P = %02X, want 31", got)
	}
	if ret := uint16(tc.mem[0x01FD])<<8 | uint16(tc.mem[0x01FC]); ret != 0x8002 {
		t.Errorf("pushed PC = %04X, want 8002", ret)
	}

	if got := tc.run1(); got != 6 {
		t.Errorf("RTI took %d cycles, want 6", got)
	}
	if tc.PC != 0x8002 {
		t.Errorf("PC = %04X, want 8002", tc.PC)
	}
	if tc.P != Reserved|Carry {
		t.Errorf("P = %s, want %s", tc.P, Reserved|Carry)
	}
	if tc.SP != 0xFD {
		t.Errorf("SP = %02X, want FD", tc.SP)
	}
}

func TestNMI(t *testing.T) {
	tc := newTestCPU(t, 0xEA, 0xEA) // NOP, NOP
	tc.mem[0xFFFA] = 0x00
	tc.mem[0xFFFB] = 0xA0

	// Requested in the middle of an instruction, serviced after it.
	tc.Tick()
	tc.NMI()
	for tc.Busy() {
		tc.Tick()
	}
	if tc.PC != 0x8001 {
		t.Fatalf("PC = %04X, want 8001", tc.PC)
	}

	if got := tc.run1(); got != 7 {
		t.Errorf("NMI took %d cycles, want 7", got)
	}
	if tc.PC != 0xA000 {
		t.Errorf("PC = %04X, want A000", tc.PC)
	}
	if got := tc.mem[0x01FB]; got&uint8(Break) != 0 {
		t.Errorf("pushed P = %02X, B should be clear", got)
	}
	if ret := uint16(tc.mem[0x01FD])<<8 | uint16(tc.mem[0x01FC]); ret != 0x8001 {
		t.Errorf("pushed PC = %04X, want 8001", ret)
	}
	if tc.Instructions != 1 {
		t.Errorf("Instructions = %d, want 1", tc.Instructions)
	}
}

func TestIRQ(t *testing.T) {
	t.Run("masked", func(t *testing.T) {
		tc := newTestCPU(t, 0xEA)
		tc.P.setI(true)
		tc.IRQ()
		tc.run1()
		if tc.PC != 0x8001 {
			t.Errorf("PC = %04X, want 8001", tc.PC)
		}
		// A masked request is dropped.
		tc.P.setI(false)
		tc.mem[0x8001] = 0xEA
		tc.run1()
		if tc.PC != 0x8002 {
			t.Errorf("PC = %04X, want 8002", tc.PC)
		}
	})
	t.Run("serviced", func(t *testing.T) {
		tc := newTestCPU(t, 0xEA)
		tc.mem[0xFFFE] = 0x00
		tc.mem[0xFFFF] = 0xB0
		tc.P.setI(false)
		tc.IRQ()
		if got := tc.run1(); got != 7 {
			t.Errorf("IRQ took %d cycles, want 7", got)
		}
		if tc.PC != 0xB000 {
			t.Errorf("PC = %04X, want B000", tc.PC)
		}
		if !tc.P.I() {
			t.Error("I should be set")
		}
	})
}

func TestUnimplementedOpcode(t *testing.T) {
	tc := newTestCPU(t, 0x02, 0xA9, 0x07) // JAM, LDA #$07

	if got := tc.run1(); got != 1 {
		t.Errorf("took %d cycles, want 1", got)
	}
	if tc.PC != 0x8001 {
		t.Errorf("PC = %04X, want 8001", tc.PC)
	}

	diags := tc.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	var operr *OpcodeError
	if !errors.As(diags[0], &operr) {
		t.Fatalf("diagnostic is %T, want *OpcodeError", diags[0])
	}
	if operr.Opcode != 0x02 || operr.PC != 0x8000 {
		t.Errorf("got opcode %02X at %04X, want 02 at 8000", operr.Opcode, operr.PC)
	}

	// Execution goes on.
	tc.run1()
	if tc.A != 0x07 {
		t.Errorf("A = %02X, want 07", tc.A)
	}
}

func TestDiagnosticsBounded(t *testing.T) {
	tc := newTestCPU(t)
	for i := range maxDiagnostics + 10 {
		tc.mem[0x8000+i] = 0x02
	}
	tc.runN(maxDiagnostics + 10)

	diags := tc.Diagnostics()
	if len(diags) != maxDiagnostics {
		t.Fatalf("got %d diagnostics, want %d", len(diags), maxDiagnostics)
	}
	var operr *OpcodeError
	errors.As(diags[0], &operr)
	if operr.PC != 0x800A {
		t.Errorf("oldest diagnostic at %04X, want 800A", operr.PC)
	}
}

func TestReadModifyWrite(t *testing.T) {
	tests := []struct {
		name  string
		prog  []byte
		a     uint8
		mem   uint8
		wantA uint8
		wantM uint8
		wantP P
	}{
		{"ASL A", []byte{0x0A}, 0x81, 0, 0x02, 0, Reserved | Carry},
		{"LSR zp", []byte{0x46, 0x10}, 0, 0x01, 0, 0x00, Reserved | Carry | Zero},
		{"ROL zp", []byte{0x26, 0x10}, 0, 0x40, 0, 0x80, Reserved | Negative},
		{"ROR A", []byte{0x6A}, 0x01, 0, 0x00, 0, Reserved | Carry | Zero},
		{"INC zp", []byte{0xE6, 0x10}, 0, 0xFF, 0, 0x00, Reserved | Zero},
		{"DEC zp", []byte{0xC6, 0x10}, 0, 0x00, 0, 0xFF, Reserved | Negative},
		{"DCP zp", []byte{0xC7, 0x10}, 0x41, 0x42, 0x41, 0x41, Reserved | Carry | Zero},
		{"SLO zp", []byte{0x07, 0x10}, 0x01, 0x80, 0x01, 0x00, Reserved | Carry},
		{"LAX zp", []byte{0xA7, 0x10}, 0, 0x99, 0x99, 0x99, Reserved | Negative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCPU(t, tt.prog...)
			tc.P = Reserved
			tc.A = tt.a
			tc.mem[0x10] = tt.mem
			tc.run1()

			if tc.A != tt.wantA {
				t.Errorf("A = %02X, want %02X", tc.A, tt.wantA)
			}
			if tc.mem[0x10] != tt.wantM {
				t.Errorf("mem = %02X, want %02X", tc.mem[0x10], tt.wantM)
			}
			if tc.P != tt.wantP {
				t.Errorf("P = %s, want %s", tc.P, tt.wantP)
			}
		})
	}
}
