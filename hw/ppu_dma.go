package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
	"nescore/hw/snapshot"
)

// ppuDMA handles the DMA transfer of OAM (sprites attributes) to the PPU.
// While a transfer is in progress, the CPU is suspended.
type ppuDMA struct {
	oam    []byte
	cpuBus hwio.BankIO8

	page       uint8
	addr       uint8
	data       uint8
	inProgress bool

	OAMDMA hwio.Reg8

	// Since DMA can only be started on an even CPU cycle, we use a dummy cycle
	// to align the transfer with an even cycle.
	dummy bool
}

func (dma *ppuDMA) initBus(cpubus hwio.BankIO8, oam []byte) {
	dma.OAMDMA = hwio.Reg8{
		Name:    "OAMDMA",
		Flags:   hwio.WriteOnlyFlag,
		WriteCb: dma.WriteOAMDMA,
	}
	dma.cpuBus = cpubus
	dma.oam = oam
	dma.reset()
}

func (dma *ppuDMA) reset() {
	dma.page = 0x00
	dma.addr = 0x00
	dma.data = 0x00
	dma.dummy = true
	dma.inProgress = false
}

// OAMDMA: $4014
func (dma *ppuDMA) WriteOAMDMA(_, val uint8) {
	log.ModDMA.DebugZ("Write to OAMDMA reg").Hex8("val", val).End()
	dma.page = val
	dma.addr = 0x00
	dma.dummy = true
	dma.inProgress = true
}

// process runs one CPU cycle of the transfer. cpuTicks is the number of
// elapsed CPU cycles, giving the cycle parity.
func (dma *ppuDMA) process(cpuTicks int64) {
	if !dma.inProgress {
		return
	}

	const (
		even = 0
		odd  = 1
	)

	// The first cycle is always idle.
	// On odd cycle count we add an extra idle cycle.
	if dma.dummy {
		if cpuTicks%2 == odd {
			dma.dummy = false
			log.ModDMA.DebugZ("Begin PPU DMA transfer").
				Hex8("page", dma.page).
				Int64("ticks", cpuTicks).
				End()
		}
		return
	}

	switch cpuTicks % 2 {
	case even:
		// Read from CPU bus
		addr := uint16(dma.page)<<8 | uint16(dma.addr)
		dma.data = dma.cpuBus.Read8(addr, false)

	case odd:
		// Write to PPU OAM
		dma.oam[dma.addr] = dma.data
		dma.addr++
		// When this wraps around we know that 256 bytes have been written.
		if dma.addr == 0x00 {
			log.ModDMA.DebugZ("Ending PPU DMA transfer").
				Hex8("page", dma.page).
				Int64("ticks", cpuTicks).
				End()
			dma.inProgress = false
			dma.dummy = true
		}
	}
}

func (dma *ppuDMA) State() *snapshot.DMA {
	return &snapshot.DMA{
		InProgress: dma.inProgress,
		Dummy:      dma.dummy,
		Page:       dma.page,
		Addr:       dma.addr,
		Data:       dma.data,
	}
}

func (dma *ppuDMA) SetState(state *snapshot.DMA) {
	dma.inProgress = state.InProgress
	dma.dummy = state.Dummy
	dma.page = state.Page
	dma.addr = state.Addr
	dma.data = state.Data
}
