package hw

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/hw/snapshot"
)

// newTestNES returns a console running prog at $8000. The NMI handler, if
// any, is at $9000.
func newTestNES(tb testing.TB, prog, nmi []byte) *NES {
	tb.Helper()

	prg := make([]byte, 0x4000)
	copy(prg, prog)
	copy(prg[0x1000:], nmi)
	prg[0x3FFA], prg[0x3FFB] = 0x00, 0x90 // NMI
	prg[0x3FFC], prg[0x3FFD] = 0x00, 0x80 // RESET
	prg[0x3FFE], prg[0x3FFF] = 0x00, 0x90 // IRQ

	nes := NewNES()
	if err := nes.LoadProgram(prg); err != nil {
		tb.Fatal(err)
	}
	if err := nes.LoadPattern(make([]byte, 0x2000)); err != nil {
		tb.Fatal(err)
	}
	nes.Reset()
	return nes
}

// Enables NMI, then loops forever. The NMI handler increments $10.
var (
	nmiProg = []byte{
		0xA9, 0x80,       // LDA #$80
		0x8D, 0x00, 0x20, // STA $2000
		0x4C, 0x05, 0x80, // JMP $8005
	}
	nmiHandler = []byte{
		0xE6, 0x10, // INC $10
		0x40,       // RTI
	}
)

func TestLoadProgram(t *testing.T) {
	nes := NewNES()

	err := nes.LoadProgram(make([]byte, 0x3FFF))
	if !errors.Is(err, ErrShortProgram) {
		t.Errorf("got error %v, want %v", err, ErrShortProgram)
	}
	err = nes.LoadPattern(make([]byte, 0x1FFF))
	if !errors.Is(err, ErrShortPattern) {
		t.Errorf("got error %v, want %v", err, ErrShortPattern)
	}

	t.Run("16KB mirrored", func(t *testing.T) {
		prg := make([]byte, 0x4000)
		prg[0x0000] = 0x11
		prg[0x3FFF] = 0x22
		if err := nes.LoadProgram(prg); err != nil {
			t.Fatal(err)
		}
		for _, addr := range []uint16{0x8000, 0xC000} {
			if got := nes.Bus.Read8(addr, false); got != 0x11 {
				t.Errorf("$%04X = %02X, want 11", addr, got)
			}
		}
		for _, addr := range []uint16{0xBFFF, 0xFFFF} {
			if got := nes.Bus.Read8(addr, false); got != 0x22 {
				t.Errorf("$%04X = %02X, want 22", addr, got)
			}
		}
	})

	t.Run("32KB", func(t *testing.T) {
		prg := make([]byte, 0x8000)
		prg[0x0000] = 0x11
		prg[0x4000] = 0x33
		if err := nes.LoadProgram(prg); err != nil {
			t.Fatal(err)
		}
		if got := nes.Bus.Read8(0x8000, false); got != 0x11 {
			t.Errorf("$8000 = %02X, want 11", got)
		}
		if got := nes.Bus.Read8(0xC000, false); got != 0x33 {
			t.Errorf("$C000 = %02X, want 33", got)
		}
	})

	t.Run("read-only", func(t *testing.T) {
		nes.Bus.Write8(0x8000, 0xFF)
		if got := nes.Bus.Read8(0x8000, false); got != 0x11 {
			t.Errorf("$8000 = %02X, want 11", got)
		}
	})
}

func TestMemoryMap(t *testing.T) {
	nes := newTestNES(t, nil, nil)

	nes.Bus.Write8(0x0001, 0x42)
	for _, addr := range []uint16{0x0801, 0x1001, 0x1801} {
		if got := nes.Bus.Read8(addr, false); got != 0x42 {
			t.Errorf("RAM mirror $%04X = %02X, want 42", addr, got)
		}
	}

	nes.Bus.Write8(0x6000, 0x99)
	if nes.SRAM.Data[0] != 0x99 {
		t.Errorf("SRAM[0] = %02X, want 99", nes.SRAM.Data[0])
	}

	// PPU registers mirrored every 8 bytes.
	nes.Bus.Write8(0x3456, 0x21) // PPUADDR
	nes.Bus.Write8(0x2006, 0x08)
	if nes.PPU.vramAddr != 0x2108 {
		t.Errorf("v = %04X, want 2108", uint16(nes.PPU.vramAddr))
	}
}

func TestTickRatio(t *testing.T) {
	nes := newTestNES(t, []byte{0x4C, 0x00, 0x80}, nil) // JMP $8000

	cycles := nes.CPU.Cycles
	for range 3 * 1000 {
		nes.Tick()
	}
	if got := nes.CPU.Cycles - cycles; got != 1000 {
		t.Errorf("CPU ran %d cycles, want 1000", got)
	}
	if nes.Clock() != 3000 {
		t.Errorf("Clock = %d, want 3000", nes.Clock())
	}
	if got, want := nes.PPU.Scanline*NumCycles+nes.PPU.Cycle, (preRenderLine*NumCycles)+3000; got != want {
		t.Errorf("PPU position = %d, want %d", got, want)
	}
}

func TestOAMDMA(t *testing.T) {
	nes := newTestNES(t, []byte{
		0xA9, 0x02,       // LDA #$02
		0x8D, 0x14, 0x40, // STA $4014
		0x4C, 0x05, 0x80, // JMP $8005
	}, nil)
	for i := range 256 {
		nes.RAM.Data[0x200+i] = uint8(i ^ 0xA5)
	}

	for n := 0; !nes.DMA.inProgress; n++ {
		if n > 100 {
			t.Fatal("DMA not started")
		}
		nes.Tick()
	}

	instructions := nes.CPU.Instructions
	cycles := 0
	for nes.DMA.inProgress {
		if nes.clock%3 == 0 {
			cycles++
		}
		nes.Tick()
		if nes.CPU.Instructions != instructions {
			t.Fatal("CPU executed an instruction during DMA")
		}
	}

	if cycles != 513 && cycles != 514 {
		t.Errorf("DMA took %d cycles, want 513 or 514", cycles)
	}
	for i := range 256 {
		if got, want := nes.PPU.OAM[i], uint8(i^0xA5); got != want {
			t.Fatalf("OAM[%d] = %02X, want %02X", i, got, want)
		}
	}

	// The CPU resumes.
	for range 30 {
		nes.Tick()
	}
	if nes.CPU.Instructions == instructions {
		t.Error("CPU didn't resume after DMA")
	}
}

func TestNMIDelivery(t *testing.T) {
	nes := newTestNES(t, nmiProg, nmiHandler)

	for range 3 {
		nes.RunFrame()
	}

	if got := nes.RAM.Data[0x10]; got != 3 {
		t.Errorf("NMI handler ran %d times, want 3", got)
	}
	if nes.PPU.FrameCount() != 3 {
		t.Errorf("FrameCount = %d, want 3", nes.PPU.FrameCount())
	}
}

type fixedPads [2]uint8

func (p fixedPads) LoadState() (uint8, uint8) { return p[0], p[1] }

func TestInputPorts(t *testing.T) {
	nes := newTestNES(t, nil, nil)

	// Nothing plugged.
	nes.Bus.Write8(0x4016, 1)
	nes.Bus.Write8(0x4016, 0)
	if got := nes.Bus.Read8(0x4016, false); got != 0x40 {
		t.Errorf("$4016 = %02X, want 40", got)
	}

	nes.PlugInputDevice(fixedPads{PadA | PadStart | PadRight, PadB})
	nes.Bus.Write8(0x4016, 1)
	nes.Bus.Write8(0x4016, 0)

	var pad1, pad2 []uint8
	for range 9 {
		pad1 = append(pad1, nes.Bus.Read8(0x4016, false))
		pad2 = append(pad2, nes.Bus.Read8(0x4017, false))
	}

	want1 := []uint8{0x41, 0x40, 0x40, 0x41, 0x40, 0x40, 0x40, 0x41, 0x41}
	want2 := []uint8{0x40, 0x41, 0x40, 0x40, 0x40, 0x40, 0x40, 0x40, 0x41}
	if diff := cmp.Diff(want1, pad1); diff != "" {
		t.Errorf("pad 1 reads mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want2, pad2); diff != "" {
		t.Errorf("pad 2 reads mismatch (-want +got):\n%s", diff)
	}

	// While strobe is high, the A button is reported continuously.
	nes.Bus.Write8(0x4016, 1)
	for range 3 {
		if got := nes.Bus.Read8(0x4016, false); got != 0x41 {
			t.Errorf("strobed $4016 = %02X, want 41", got)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	nes := newTestNES(t, nmiProg, nmiHandler)
	nes.PPU.palettes[0] = 0x21
	nes.RunFrame()
	nes.RunFrame()
	for range 1000 {
		nes.Tick()
	}

	var buf bytes.Buffer
	if err := nes.Snapshot().Encode(&buf); err != nil {
		t.Fatal(err)
	}
	state, err := snapshot.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}

	restored := newTestNES(t, nmiProg, nmiHandler)
	if err := restored.Restore(state); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(nes.Snapshot(), restored.Snapshot()); diff != "" {
		t.Fatalf("restored state mismatch (-want +got):\n%s", diff)
	}

	for range 2 {
		nes.RunFrame()
		restored.RunFrame()
	}
	if diff := cmp.Diff(nes.Snapshot(), restored.Snapshot()); diff != "" {
		t.Errorf("state diverged after restore (-want +got):\n%s", diff)
	}
	if !bytes.Equal(nes.PPU.FrameBuffer(), restored.PPU.FrameBuffer()) {
		t.Error("frame buffers differ")
	}
}

func TestRestoreErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*snapshot.NES)
	}{
		{"version", func(s *snapshot.NES) { s.Version = 0 }},
		{"no ppu", func(s *snapshot.NES) { s.PPU = nil }},
		{"negative debt", func(s *snapshot.NES) { s.CPU.Debt = -1 }},
		{"debt too big", func(s *snapshot.NES) { s.CPU.Debt = 9 }},
		{"negative cycle", func(s *snapshot.NES) { s.PPU.Cycle = -1 }},
		{"cycle too big", func(s *snapshot.NES) { s.PPU.Cycle = NumCycles }},
		{"scanline too small", func(s *snapshot.NES) { s.PPU.Scanline = -2 }},
		{"scanline too big", func(s *snapshot.NES) { s.PPU.Scanline = 261 }},
		{"sprite count", func(s *snapshot.NES) { s.PPU.SpriteCount = 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nes := newTestNES(t, nmiProg, nmiHandler)
			nes.RunFrame()
			want := nes.Snapshot()

			state := nes.Snapshot()
			tt.modify(state)
			if err := nes.Restore(state); err == nil {
				t.Fatal("Restore succeeded, want error")
			}
			if diff := cmp.Diff(want, nes.Snapshot()); diff != "" {
				t.Errorf("rejected snapshot modified the state (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRestoreBoundaries(t *testing.T) {
	nes := newTestNES(t, nmiProg, nmiHandler)
	state := nes.Snapshot()
	state.CPU.Debt = 0
	state.PPU.Cycle = NumCycles - 1
	state.PPU.Scanline = 260
	if err := nes.Restore(state); err != nil {
		t.Fatal(err)
	}

	before := nes.CPU.Instructions
	for range 5 {
		nes.RunFrame()
	}
	if nes.CPU.Instructions == before {
		t.Error("CPU didn't execute any instruction after restore")
	}
}
