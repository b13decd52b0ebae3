package emu

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/ines"
)

// ErrUnsupportedMapper is returned by PowerUp for cartridges using a bank
// switching scheme.
var ErrUnsupportedMapper = errors.New("unsupported mapper")

// PowerUp builds a console, loads the ROM in it and resets it.
func PowerUp(rom *ines.Rom) (*hw.NES, error) {
	if m := rom.Mapper(); m != 0 {
		return nil, fmt.Errorf("%w %d", ErrUnsupportedMapper, m)
	}
	if rom.VerticalMirroring() {
		log.ModEmu.WarnZ("Vertical mirroring not supported, using horizontal mirroring").End()
	}

	nes := hw.NewNES()
	if err := nes.LoadProgram(rom.PRG); err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}
	if err := nes.LoadPattern(rom.CHR); err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}
	nes.Reset()

	log.ModEmu.InfoZ("Power up").
		Int("prg", len(rom.PRG)).
		Int("chr", len(rom.CHR)).
		Hex16("pc", nes.CPU.PC).
		End()
	return nes, nil
}

type Emulator struct {
	NES  *hw.NES
	Pads *Pads

	out   *Output
	limit int64

	// These are accessed concurrently by the emulator loop and the UI.
	paused atomic.Bool
	reset  atomic.Bool
	frames atomic.Int64
}

// NewEmulator wraps a console into an emulator, with both controllers plugged.
func NewEmulator(nes *hw.NES, cfg EmulationConfig) *Emulator {
	e := &Emulator{
		NES:   nes,
		Pads:  new(Pads),
		out:   NewOutput(OutputConfig{NumVideoBuffers: 3}),
		limit: cfg.FrameLimit,
	}
	nes.PlugInputDevice(e.Pads)
	return e
}

// Frames returns the channel on which Run publishes completed frames. The
// channel must be drained for the emulation to progress.
func (e *Emulator) Frames() <-chan Frame {
	return e.out.Frames()
}

// FrameCount returns the number of frames emulated so far.
func (e *Emulator) FrameCount() int64 {
	return e.frames.Load()
}

// RunOneFrame emulates a frame into the next video buffer and publishes it.
func (e *Emulator) RunOneFrame(ctx context.Context) error {
	video := e.out.BeginFrame()
	e.NES.PPU.SetFrameBuffer(video)
	e.NES.RunFrame()
	e.frames.Add(1)
	return e.out.EndFrame(ctx, video)
}

// Run is the emulation loop. It runs until ctx is done or the frame limit is
// reached, then closes the frame channel.
func (e *Emulator) Run(ctx context.Context) error {
	defer e.out.close()

	start := time.Now()
	defer func() {
		log.ModEmu.InfoZ("Emulation loop exited").
			Int64("frames", e.frames.Load()).
			Duration("elapsed", time.Since(start)).
			End()
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		e.handleReset()

		if e.paused.Load() {
			// Don't burn cpu while paused.
			select {
			case <-ctx.Done():
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		if err := e.RunOneFrame(ctx); err != nil {
			return nil
		}
		if e.limit > 0 && e.frames.Load() >= e.limit {
			return nil
		}
	}
}

// SetPause and Reset allow to control the emulator loop in a concurrent-safe
// way.

func (e *Emulator) SetPause(pause bool) { e.paused.Store(pause) }
func (e *Emulator) Paused() bool        { return e.paused.Load() }
func (e *Emulator) Reset()              { e.reset.Store(true) }

func (e *Emulator) handleReset() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing reset").End()
		e.NES.Reset()
	}
}
