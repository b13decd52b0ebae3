package hw

import (
	"errors"
	"fmt"
	"io"

	"nescore/emu/log"
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

// ErrShortProgram is returned when loading less than 16KB of program data.
var ErrShortProgram = errors.New("program data shorter than 16KB")

const (
	prgBankSize = 0x4000

	// CPU cycles in a NTSC frame, rounded up.
	CPUCyclesPerFrame = 29781
)

// NES ties the CPU and the PPU together. The PPU runs 3 cycles per CPU cycle.
// OAM DMA transfers and NMI delivery are handled here.
type NES struct {
	CPU *CPU
	PPU *PPU
	Bus *hwio.Table // CPU bus

	RAM  hwio.Mem // $0000-$07FF, mirrored up to $1FFF
	SRAM hwio.Mem // $6000-$7FFF
	prg  []byte   // $8000-$FFFF

	DMA   ppuDMA
	Input InputPorts

	clock int64 // master clock, in PPU cycles
}

// NewNES builds a console with an empty cartridge. LoadProgram and
// LoadPattern must be called before Reset.
func NewNES() *NES {
	bus := hwio.NewTable("cpu")
	nes := &NES{
		CPU: NewCPU(bus),
		PPU: NewPPU(),
		Bus: bus,
	}
	nes.initBus()
	return nes
}

func (nes *NES) initBus() {
	nes.RAM = hwio.Mem{
		Name:  "ram",
		Data:  make([]byte, 0x800),
		VSize: 0x2000,
	}
	nes.Bus.MapMem(0x0000, &nes.RAM)

	nes.PPU.MapRegisters(nes.Bus)

	nes.DMA.initBus(nes.Bus, nes.PPU.OAM[:])
	nes.Bus.MapReg8(0x4014, &nes.DMA.OAMDMA)

	nes.Input.initBus()
	nes.Bus.MapReg8(0x4016, &nes.Input.In)
	nes.Bus.MapReg8(0x4017, &nes.Input.Out)

	nes.SRAM = hwio.Mem{
		Name: "sram",
		Data: make([]byte, 0x2000),
	}
	nes.Bus.MapMem(0x6000, &nes.SRAM)

	nes.CPU.ppuPos = func() (int, int) {
		return nes.PPU.Scanline, nes.PPU.Cycle
	}
}

// LoadProgram maps program ROM at $8000-$FFFF. A single 16KB bank is mirrored
// in both halves, bigger images are truncated to 32KB.
func (nes *NES) LoadProgram(prg []byte) error {
	if len(prg) < prgBankSize {
		return fmt.Errorf("%w: got %d bytes", ErrShortProgram, len(prg))
	}

	size := prgBankSize
	if len(prg) >= 2*prgBankSize {
		size = 2 * prgBankSize
	}
	nes.prg = make([]byte, size)
	copy(nes.prg, prg)
	nes.Bus.MapMemorySlice(0x8000, 0xFFFF, nes.prg, true)

	log.ModEmu.DebugZ("program loaded").Int("size", size).End()
	return nil
}

// LoadPattern loads 8KB of pattern data in the PPU pattern tables.
func (nes *NES) LoadPattern(chr []byte) error {
	return nes.PPU.LoadPattern(chr)
}

// Reset resets the CPU, the PPU and the DMA unit. Memories are preserved.
func (nes *NES) Reset() {
	nes.PPU.Reset()
	nes.DMA.reset()
	nes.CPU.Reset()
	nes.clock = 0
}

// PlugInputDevice connects the device read through $4016/$4017.
func (nes *NES) PlugInputDevice(dev InputDevice) {
	nes.Input.dev = dev
}

// SetTraceOutput enables CPU execution tracing, nil disables it.
func (nes *NES) SetTraceOutput(w io.Writer) {
	nes.CPU.SetTraceOutput(w)
}

// Clock returns the number of elapsed master cycles.
func (nes *NES) Clock() int64 {
	return nes.clock
}

// Tick advances the system by one PPU cycle. The CPU (or the DMA unit when a
// transfer is in progress) advances every third call.
func (nes *NES) Tick() {
	nes.PPU.Tick()

	if nes.clock%3 == 0 {
		if nes.DMA.inProgress {
			nes.DMA.process(nes.clock / 3)
		} else {
			nes.CPU.Tick()
		}
	}

	if nes.PPU.nmi {
		nes.PPU.nmi = false
		nes.CPU.NMI()
	}

	nes.clock++
}

// RunFrame ticks until the PPU completes the current frame.
func (nes *NES) RunFrame() {
	frame := nes.PPU.FrameCount()
	for nes.PPU.FrameCount() == frame {
		nes.Tick()
	}
}

// Snapshot captures the full state of the console.
func (nes *NES) Snapshot() *snapshot.NES {
	state := &snapshot.NES{
		Version: snapshot.Version,
		Clock:   nes.clock,
		CPU:     nes.CPU.State(),
		DMA:     nes.DMA.State(),
		PPU:     nes.PPU.State(),
		Input:   nes.Input.State(),
	}
	copy(state.RAM[:], nes.RAM.Data)
	copy(state.SRAM[:], nes.SRAM.Data)
	return state
}

// Restore restores a state previously captured with Snapshot. The cartridge
// is not part of the state.
func (nes *NES) Restore(state *snapshot.NES) error {
	if state.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version %d (want %d)", state.Version, snapshot.Version)
	}
	if state.CPU == nil || state.PPU == nil || state.DMA == nil || state.Input == nil {
		return errors.New("incomplete snapshot")
	}
	if err := checkState(state); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	nes.clock = state.Clock
	nes.CPU.SetState(state.CPU)
	nes.PPU.SetState(state.PPU)
	nes.DMA.SetState(state.DMA)
	nes.Input.SetState(state.Input)
	copy(nes.RAM.Data, state.RAM[:])
	copy(nes.SRAM.Data, state.SRAM[:])
	return nil
}

// checkState rejects the counter values the emulation can't resume from.
func checkState(state *snapshot.NES) error {
	if d := state.CPU.Debt; d < 0 || d > resetCycles {
		return fmt.Errorf("cpu cycle debt %d out of range [0, %d]", d, resetCycles)
	}
	if c := state.PPU.Cycle; c < 0 || c >= NumCycles {
		return fmt.Errorf("ppu cycle %d out of range [0, %d]", c, NumCycles-1)
	}
	if l := state.PPU.Scanline; l < preRenderLine || l > lastLine {
		return fmt.Errorf("ppu scanline %d out of range [-1, %d]", l, lastLine)
	}
	if n := state.PPU.SpriteCount; n < 0 || n > len(state.PPU.Sprites) {
		return fmt.Errorf("ppu sprite count %d out of range [0, %d]", n, len(state.PPU.Sprites))
	}
	return nil
}
