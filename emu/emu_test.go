package emu

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nescore/hw"
	"nescore/ines"
)

// testRom builds a mapper 0 ROM running prog at $8000, with the NMI handler at
// $9000.
func testRom(tb testing.TB, flags6 uint8, chrSize int, prog, nmi []byte) *ines.Rom {
	tb.Helper()

	prg := make([]byte, 0x4000)
	copy(prg, prog)
	copy(prg[0x1000:], nmi)
	prg[0x3FFA], prg[0x3FFB] = 0x00, 0x90 // NMI
	prg[0x3FFC], prg[0x3FFD] = 0x00, 0x80 // RESET
	prg[0x3FFE], prg[0x3FFF] = 0x00, 0x90 // IRQ

	chr := make([]byte, chrSize)
	for i := range chr {
		chr[i] = uint8(i)
	}

	var img bytes.Buffer
	img.WriteString(ines.Magic)
	img.Write([]byte{1, uint8(chrSize / ines.CHRBankSize), flags6, 0})
	img.Write(make([]byte, 8))
	img.Write(prg)
	img.Write(chr)

	rom := new(ines.Rom)
	if _, err := rom.ReadFrom(&img); err != nil {
		tb.Fatal(err)
	}
	return rom
}

// Enables NMI and background rendering, then loops forever. The NMI handler
// increments $10 and writes it to the backdrop color.
var (
	loopProg = []byte{
		0xA9, 0x80,       // LDA #$80
		0x8D, 0x00, 0x20, // STA $2000
		0xA9, 0x0A,       // LDA #$0A
		0x8D, 0x01, 0x20, // STA $2001
		0x4C, 0x0A, 0x80, // JMP $800A
	}
	colorHandler = []byte{
		0xE6, 0x10,       // INC $10
		0xA9, 0x3F,       // LDA #$3F
		0x8D, 0x06, 0x20, // STA $2006
		0xA9, 0x00,       // LDA #$00
		0x8D, 0x06, 0x20, // STA $2006
		0xA5, 0x10,       // LDA $10
		0x29, 0x3F,       // AND #$3F
		0x8D, 0x07, 0x20, // STA $2007
		0xA9, 0x00,       // LDA #$00
		0x8D, 0x06, 0x20, // STA $2006
		0x8D, 0x06, 0x20, // STA $2006
		0x40,             // RTI
	}
)

func TestPowerUp(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		nes, err := PowerUp(testRom(t, 0, ines.CHRBankSize, loopProg, colorHandler))
		if err != nil {
			t.Fatal(err)
		}
		if nes.CPU.PC != 0x8000 {
			t.Errorf("PC = %04X, want 8000", nes.CPU.PC)
		}
		if got := nes.PPU.PatternTables.Data[0x123]; got != 0x23 {
			t.Errorf("pattern table [0x123] = %02X, want 23", got)
		}
	})

	t.Run("vertical mirroring", func(t *testing.T) {
		if _, err := PowerUp(testRom(t, 0x01, ines.CHRBankSize, nil, nil)); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("mapper", func(t *testing.T) {
		_, err := PowerUp(testRom(t, 0x10, ines.CHRBankSize, nil, nil))
		if !errors.Is(err, ErrUnsupportedMapper) {
			t.Errorf("got error %v, want %v", err, ErrUnsupportedMapper)
		}
	})

	t.Run("no chr", func(t *testing.T) {
		_, err := PowerUp(testRom(t, 0, 0, nil, nil))
		if !errors.Is(err, hw.ErrShortPattern) {
			t.Errorf("got error %v, want %v", err, hw.ErrShortPattern)
		}
	})
}

func newTestEmulator(tb testing.TB, limit int64) *Emulator {
	tb.Helper()

	nes, err := PowerUp(testRom(tb, 0, ines.CHRBankSize, loopProg, colorHandler))
	if err != nil {
		tb.Fatal(err)
	}
	return NewEmulator(nes, EmulationConfig{FrameLimit: limit})
}

// runDigest runs the emulator until the frame limit and returns the digest of
// all frames.
func runDigest(tb testing.TB, e *Emulator) (*Digest, []int64) {
	tb.Helper()

	errc := make(chan error, 1)
	go func() { errc <- e.Run(context.Background()) }()

	var (
		d    Digest
		nums []int64
	)
	for frame := range e.Frames() {
		d.Add(frame.Video)
		nums = append(nums, frame.Number)
	}
	if err := <-errc; err != nil {
		tb.Fatal(err)
	}
	return &d, nums
}

func TestEmulatorFrameLimit(t *testing.T) {
	e := newTestEmulator(t, 5)

	d, nums := runDigest(t, e)

	if diff := cmp.Diff([]int64{1, 2, 3, 4, 5}, nums); diff != "" {
		t.Errorf("frame numbers mismatch (-want +got):\n%s", diff)
	}
	if d.Frames() != 5 {
		t.Errorf("digest has %d frames, want 5", d.Frames())
	}
	if e.FrameCount() != 5 {
		t.Errorf("FrameCount = %d, want 5", e.FrameCount())
	}
	if got := e.NES.RAM.Data[0x10]; got != 5 {
		t.Errorf("NMI handler ran %d times, want 5", got)
	}
}

func TestEmulatorDeterministic(t *testing.T) {
	d1, _ := runDigest(t, newTestEmulator(t, 10))
	d2, _ := runDigest(t, newTestEmulator(t, 10))
	if d1.Hash() != d2.Hash() {
		t.Errorf("digests differ: %s != %s", d1.Hash(), d2.Hash())
	}

	// The backdrop color changes every frame.
	d3, _ := runDigest(t, newTestEmulator(t, 11))
	if d1.Hash() == d3.Hash() {
		t.Errorf("digests of 10 and 11 frames are equal")
	}
}

func TestEmulatorCancel(t *testing.T) {
	e := newTestEmulator(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()

	// Consume a few frames, then stop consuming and cancel.
	for range 3 {
		<-e.Frames()
	}
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run didn't return after cancellation")
	}

	// Drain, the channel must be closed.
	for range e.Frames() {
	}
}

func TestEmulatorPause(t *testing.T) {
	e := newTestEmulator(t, 0)
	e.SetPause(true)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := e.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if e.FrameCount() != 0 {
		t.Errorf("paused emulator ran %d frames", e.FrameCount())
	}
	if !e.Paused() {
		t.Error("Paused() = false")
	}
}

func TestEmulatorReset(t *testing.T) {
	e := newTestEmulator(t, 3)
	e.Reset()

	runDigest(t, e)
	if e.reset.Load() {
		t.Error("reset request not consumed")
	}
	if e.NES.PPU.FrameCount() != 3 {
		t.Errorf("PPU FrameCount = %d, want 3", e.NES.PPU.FrameCount())
	}
}

func TestEmulatorPads(t *testing.T) {
	e := newTestEmulator(t, 0)
	e.Pads.Press(0, hw.PadA)

	bus := e.NES.Bus
	bus.Write8(0x4016, 1)
	bus.Write8(0x4016, 0)
	if got := bus.Read8(0x4016, false); got&1 != 1 {
		t.Errorf("$4016 = %02X, want A pressed", got)
	}
}
