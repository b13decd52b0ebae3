package hwio

import (
	"fmt"

	"nescore/emu/log"
)

// RWFlags restricts the direction of accesses to a register or device.
type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// readable reports whether a read is allowed, logging the rejected ones.
// Peeks are never logged.
func (f RWFlags) readable(kind, name string, addr uint16, peek bool) bool {
	if f&WriteOnlyFlag == 0 {
		return true
	}
	if !peek {
		log.ModHwIo.ErrorZ("Read8 from writeonly " + kind).
			String("name", name).
			Hex16("addr", addr).
			End()
	}
	return false
}

// writable reports whether a write is allowed, logging the rejected ones.
func (f RWFlags) writable(kind, name string, addr uint16, val uint8) bool {
	if f&ReadOnlyFlag == 0 {
		return true
	}
	log.ModHwIo.ErrorZ("Write8 to readonly "+kind).
		String("name", name).
		Hex16("addr", addr).
		Hex8("val", val).
		End()
	return false
}

// Reg8 is an 8-bit memory-mapped register. Bits set in RoMask keep their
// value on writes. ReadCb receives the stored value and returns what the
// CPU sees; WriteCb is called after the value has been stored.
type Reg8 struct {
	Name   string
	Value  uint8
	RoMask uint8

	Flags   RWFlags
	ReadCb  func(val uint8, peek bool) uint8
	WriteCb func(old, val uint8)
}

func (reg Reg8) String() string {
	cb := ""
	if reg.ReadCb != nil {
		cb += "r"
	}
	if reg.WriteCb != nil {
		cb += "w"
	}
	return fmt.Sprintf("%s{%02x %s}", reg.Name, reg.Value, cb)
}

func (reg *Reg8) Read8(addr uint16, peek bool) uint8 {
	switch {
	case !reg.Flags.readable("reg", reg.Name, addr, peek):
		return 0
	case reg.ReadCb != nil:
		return reg.ReadCb(reg.Value, peek)
	}
	return reg.Value
}

func (reg *Reg8) Write8(addr uint16, val uint8) {
	if !reg.Flags.writable("reg", reg.Name, addr, val) {
		return
	}

	old := reg.Value
	reg.Value = old&reg.RoMask | val&^reg.RoMask
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}
