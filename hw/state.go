package hw

import "nescore/hw/snapshot"

func (c *CPU) State() *snapshot.CPU {
	return &snapshot.CPU{
		PC:           c.PC,
		SP:           c.SP,
		P:            uint8(c.P),
		A:            c.A,
		X:            c.X,
		Y:            c.Y,
		Cycles:       c.Cycles,
		Instructions: c.Instructions,
		Debt:         c.debt,
		NMIPending:   c.nmiPending,
		IRQPending:   c.irqPending,
	}
}

func (c *CPU) SetState(state *snapshot.CPU) {
	c.PC = state.PC
	c.SP = state.SP
	c.P = P(state.P)
	c.A = state.A
	c.X = state.X
	c.Y = state.Y
	c.Cycles = state.Cycles
	c.Instructions = state.Instructions
	c.debt = state.Debt
	c.nmiPending = state.NMIPending
	c.irqPending = state.IRQPending
}

func (p *PPU) State() *snapshot.PPU {
	state := &snapshot.PPU{
		Palette:      p.palettes,
		OAMMem:       p.OAM,
		Nametables:   p.nametables,
		SpriteCount:  p.spriteCount,
		Sprite0Next:  p.sprite0Next,
		Sprite0Shown: p.sprite0Shown,
		OpenBus:      p.openBus,
		OAMAddr:      p.OAMADDR.Value,
		VRAMAddr:     uint16(p.vramAddr),
		VRAMTemp:     uint16(p.vramTmp),
		WriteLatch:   p.writeLatch,
		PPUDataBuf:   p.ppuDataRbuf,
		PPUBgRegs: snapshot.PPUBgRegs{
			Finex:     p.bg.finex,
			NT:        p.bg.nt,
			AT:        p.bg.at,
			BgLo:      p.bg.lo,
			BgHi:      p.bg.hi,
			BgShiftLo: p.bg.patLo,
			BgShiftHi: p.bg.patHi,
			ATShiftLo: p.bg.attrLo,
			ATShiftHi: p.bg.attrHi,
		},
		PPUCTRL:    p.PPUCTRL.Value,
		PPUMASK:    p.PPUMASK.Value,
		PPUSTATUS:  p.PPUSTATUS.Value,
		Cycle:      p.Cycle,
		Scanline:   p.Scanline,
		FrameCount: p.frameCount,
		OddFrame:   p.oddFrame,
		NMI:        p.nmi,
	}
	for i, spr := range p.sprites {
		state.Sprites[i] = snapshot.Sprite{
			X:     spr.x,
			Y:     spr.y,
			Tile:  spr.id,
			Attr:  spr.attr,
			DataL: p.spriteLo[i],
			DataH: p.spriteHi[i],
		}
	}
	return state
}

func (p *PPU) SetState(state *snapshot.PPU) {
	p.palettes = state.Palette
	p.OAM = state.OAMMem
	p.nametables = state.Nametables
	p.spriteCount = state.SpriteCount
	p.sprite0Next = state.Sprite0Next
	p.sprite0Shown = state.Sprite0Shown
	p.openBus = state.OpenBus
	p.OAMADDR.Value = state.OAMAddr
	p.vramAddr = loopy(state.VRAMAddr)
	p.vramTmp = loopy(state.VRAMTemp)
	p.writeLatch = state.WriteLatch
	p.ppuDataRbuf = state.PPUDataBuf

	p.bg = bgRegs{
		finex:  state.PPUBgRegs.Finex,
		nt:     state.PPUBgRegs.NT,
		at:     state.PPUBgRegs.AT,
		lo:     state.PPUBgRegs.BgLo,
		hi:     state.PPUBgRegs.BgHi,
		patLo:  state.PPUBgRegs.BgShiftLo,
		patHi:  state.PPUBgRegs.BgShiftHi,
		attrLo: state.PPUBgRegs.ATShiftLo,
		attrHi: state.PPUBgRegs.ATShiftHi,
	}

	p.PPUCTRL.Value = state.PPUCTRL
	p.PPUMASK.Value = state.PPUMASK
	p.PPUSTATUS.Value = state.PPUSTATUS
	p.Cycle = state.Cycle
	p.Scanline = state.Scanline
	p.frameCount = state.FrameCount
	p.oddFrame = state.OddFrame
	p.nmi = state.NMI

	for i, spr := range state.Sprites {
		p.sprites[i] = sprite{y: spr.Y, id: spr.Tile, attr: spr.Attr, x: spr.X}
		p.spriteLo[i] = spr.DataL
		p.spriteHi[i] = spr.DataH
	}
}
