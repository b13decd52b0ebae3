package hw

import (
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

// an InputDevice is a generic interface for NES input devices.
type InputDevice interface {
	// LoadState captures the current state of both input devices.
	LoadState() (uint8, uint8)
}

// Controller buttons, in the order they are shifted out.
const (
	PadA uint8 = 1 << iota
	PadB
	PadSelect
	PadStart
	PadUp
	PadDown
	PadLeft
	PadRight
)

// InputPorts handles I/O with an InputDevice (such as standard NES controller
// for example).
type InputPorts struct {
	In  hwio.Reg8 // $4016
	Out hwio.Reg8 // $4017

	dev InputDevice

	prevStrobe, strobe bool     // to observe strobe falling edge.
	state              [2]uint8 // state shift registers.
}

func (ip *InputPorts) initBus() {
	ip.In = hwio.Reg8{
		Name:    "IN",
		ReadCb:  ip.ReadIN,
		WriteCb: ip.WriteIN,
	}
	// Writes to $4017 go to the APU frame counter.
	ip.Out = hwio.Reg8{
		Name:   "OUT",
		RoMask: 0xFF,
		ReadCb: ip.ReadOUT,
	}
}

func (ip *InputPorts) regval(port uint8) uint8 {
	ret := ip.state[port] & 1
	ip.state[port] >>= 1

	// After 8 bits are read, all subsequent bits will report 1 on a standard
	// NES controller, but third party and other controllers may report other
	// values here
	ip.state[port] |= 0x80

	// Emulate open bus behavior.
	return 0x40 | ret
}

// capture state of all connected input devices.
func (ip *InputPorts) loadstate() {
	if ip.dev == nil {
		// No controller is connected.
		ip.state[0] = 0x00
		ip.state[1] = 0x00
		return
	}

	ip.state[0], ip.state[1] = ip.dev.LoadState()
}

// In: $4016
func (ip *InputPorts) WriteIN(old, val uint8) {
	ip.prevStrobe = ip.strobe
	ip.strobe = val&1 == 1
	if ip.prevStrobe && !ip.strobe {
		ip.loadstate()
	}
}

func (ip *InputPorts) ReadIN(_ uint8, peek bool) uint8 {
	if peek {
		return 0x40 | ip.state[0]&1
	}
	if ip.strobe {
		ip.loadstate()
	}
	return ip.regval(0)
}

// Out: $4017
func (ip *InputPorts) ReadOUT(_ uint8, peek bool) uint8 {
	if peek {
		return 0x40 | ip.state[1]&1
	}
	if ip.strobe {
		ip.loadstate()
	}
	return ip.regval(1)
}

func (ip *InputPorts) State() *snapshot.Input {
	return &snapshot.Input{
		Strobe:     ip.strobe,
		PrevStrobe: ip.prevStrobe,
		State:      ip.state,
	}
}

func (ip *InputPorts) SetState(state *snapshot.Input) {
	ip.strobe = state.Strobe
	ip.prevStrobe = state.PrevStrobe
	ip.state = state.State
}
