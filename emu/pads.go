package emu

import (
	"sync/atomic"

	"nescore/hw"
)

// Pads holds the button state of both standard controllers. The UI presses
// and releases buttons from its own goroutine while the emulator latches the
// state when the program strobes the controller port.
type Pads struct {
	state [2]atomic.Uint32
}

// LoadState implements hw.InputDevice.
func (p *Pads) LoadState() (uint8, uint8) {
	return uint8(p.state[0].Load()), uint8(p.state[1].Load())
}

// Press sets the given buttons (hw.PadA, hw.PadB...) of controller idx.
func (p *Pads) Press(idx int, btns uint8) {
	p.state[idx].Or(uint32(btns))
}

// Release clears the given buttons of controller idx.
func (p *Pads) Release(idx int, btns uint8) {
	p.state[idx].And(^uint32(btns))
}

// Set replaces the whole state of controller idx.
func (p *Pads) Set(idx int, btns uint8) {
	p.state[idx].Store(uint32(btns))
}

var _ hw.InputDevice = (*Pads)(nil)

var buttonNames = [8]string{"a", "b", "select", "start", "up", "down", "left", "right"}

// ButtonByName returns the controller bit for a button name, as used in the
// configuration file.
func ButtonByName(name string) (uint8, bool) {
	for i, n := range buttonNames {
		if n == name {
			return 1 << i, true
		}
	}
	return 0, false
}
