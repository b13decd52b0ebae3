package hwio

import (
	"fmt"

	"nescore/emu/log"
)

// log unmapped accesses (useful for debugging but verbose since many games
// read from open bus)
const logUnmapped = false

type BankIO8 interface {
	// Read8 reads a byte from the given address. If peek is true, the read
	// must not have any side effect (debugging/tracing).
	Read8(addr uint16, peek bool) uint8
	Write8(addr uint16, val uint8)
}

func Write16(b BankIO8, addr uint16, val uint16) {
	lo := uint8(val & 0xff)
	hi := uint8(val >> 8)
	b.Write8(addr, lo)
	b.Write8(addr+1, hi)
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr, false)
	hi := b.Read8(addr+1, false)
	return uint16(hi)<<8 | uint16(lo)
}

// A Table is a 16-bit address space where each address is routed to the
// device, register or memory mapped at that location. The same device can be
// mapped at several locations, that's how mirrors are implemented.
type Table struct {
	Name string

	table8 []BankIO8
}

func NewTable(name string) *Table {
	t := &Table{Name: name}
	t.Reset()
	return t
}

// Reset unmaps everything.
func (t *Table) Reset() {
	t.table8 = make([]BankIO8, 0x10000)
}

func (t *Table) mapBus8(addr uint16, size int, io BankIO8) {
	if size <= 0 || int(addr)+size > 0x10000 {
		panic(fmt.Errorf("%s: invalid mapping at %04X (size %d)", t.Name, addr, size))
	}
	for i := range size {
		t.table8[int(addr)+i] = io
	}
}

func (t *Table) MapReg8(addr uint16, io *Reg8) {
	t.mapBus8(addr, 1, io)
}

func (t *Table) MapDevice(addr uint16, dev *Device) {
	log.ModHwIo.DebugZ("mapping device").
		Hex16("addr", addr).
		Int("size", dev.Size).
		String("area", dev.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, dev.Size, dev)
}

func (t *Table) MapMem(addr uint16, mem *Mem) {
	vsize := mem.VSize
	if vsize == 0 {
		vsize = len(mem.Data)
	}

	log.ModHwIo.DebugZ("mapping mem").
		Hex16("addr", addr).
		Int("size", vsize).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	t.mapBus8(addr, vsize, mem.bankIO8(addr))
}

// MapMemorySlice maps buf in the [addr, end] range, mirroring it if the range
// is bigger than the buffer.
func (t *Table) MapMemorySlice(addr, end uint16, buf []uint8, readonly bool) {
	var flags MemFlags
	if readonly {
		flags |= MemFlag8ReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  buf,
		Flags: flags,
		VSize: int(end) - int(addr) + 1,
	})
}

func (t *Table) Unmap(begin, end uint16) {
	for i := int(begin); i <= int(end); i++ {
		t.table8[i] = nil
	}
}

// Mapped reports whether something is mapped at addr.
func (t *Table) Mapped(addr uint16) bool {
	return t.table8[addr] != nil
}

// Read8 forwards the read to whatever is mapped at addr. Unmapped addresses
// read as 0.
func (t *Table) Read8(addr uint16, peek bool) uint8 {
	io := t.table8[addr]
	if io == nil {
		if logUnmapped && !peek {
			log.ModHwIo.ErrorZ("unmapped Read8").
				String("name", t.Name).
				Hex16("addr", addr).
				End()
		}
		return 0
	}
	return io.Read8(addr, peek)
}

// Peek8 is a convenience function.
func (t *Table) Peek8(addr uint16) uint8 {
	return t.Read8(addr, true)
}

func (t *Table) Write8(addr uint16, val uint8) {
	io := t.table8[addr]
	if io == nil {
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Write8").
				String("name", t.Name).
				Hex16("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	io.Write8(addr, val)
}
