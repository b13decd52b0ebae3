package hwio

import "nescore/emu/log"

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlag8ReadOnly MemFlags = (1 << iota) // read-only accesses
	MemFlagNoROLog                          // skip logging attempts to write when configured to readonly
)

// Mem is a linear memory area that can be mapped into a Table.
//
// The physical buffer must have a power of 2 size. When mapped over a bigger
// virtual size, the buffer is mirrored.
type Mem struct {
	Name    string              // name of the memory area (for debugging)
	Data    []byte              // actual memory buffer
	VSize   int                 // virtual size of the memory (can be bigger than physical size)
	Flags   MemFlags            // flags determining how the memory can be accessed
	WriteCb func(uint16, uint8) // optional write callback (called after the write)
}

func (m *Mem) bankIO8(base uint16) *mem {
	if len(m.Data) == 0 || len(m.Data)&(len(m.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		name:  m.Name,
		buf:   m.Data,
		base:  base,
		mask:  uint16(len(m.Data) - 1),
		wcb:   m.WriteCb,
		flags: m.Flags,
	}
}

// mem is a Mem mapped at a given base address.
type mem struct {
	name  string
	buf   []byte
	base  uint16
	mask  uint16
	wcb   func(uint16, uint8)
	flags MemFlags
}

func (m *mem) Read8(addr uint16, _ bool) uint8 {
	return m.buf[(addr-m.base)&m.mask]
}

func (m *mem) Write8(addr uint16, val uint8) {
	if m.flags&(MemFlag8ReadOnly|MemFlagNoROLog) != 0 {
		if m.flags&MemFlagNoROLog == 0 {
			log.ModHwIo.ErrorZ("Write8 to readonly memory").
				String("name", m.name).
				Hex8("val", val).
				Hex16("addr", addr).
				End()
		}
		return
	}

	m.buf[(addr-m.base)&m.mask] = val
	if m.wcb != nil {
		m.wcb(addr, val)
	}
}
