package hw

import (
	"errors"
	"fmt"

	"nescore/emu/log"
	"nescore/hw/hwio"
)

const (
	NumScanlines = 262 // Number of scanlines per frame.
	NumCycles    = 341 // Number of PPU cycles per scanline.

	ScreenWidth  = 256
	ScreenHeight = 240

	preRenderLine = -1
	lastLine      = 260
)

// ErrShortPattern is returned when loading less than 8KB of pattern data.
var ErrShortPattern = errors.New("pattern data shorter than 8KB")

// a sprite as stored in OAM.
type sprite struct {
	y, id, attr, x uint8
}

const (
	spriteAttrPalette  = 0x03
	spriteAttrPriority = 0x20 // 1: behind background
	spriteAttrFlipH    = 0x40
	spriteAttrFlipV    = 0x80
)

type PPU struct {
	Bus *hwio.Table // PPU bus

	Cycle    int // Current cycle/pixel in scanline (0-340)
	Scanline int // Current scanline being drawn (-1-260)

	oddFrame   bool
	frameCount int64

	//	$0000-$0FFF	$1000	Pattern table 0
	//	$1000-$1FFF	$1000	Pattern table 1
	PatternTables hwio.Mem

	// $2000-$27FF	Nametable 0 (mirrored)
	// $2800-$2FFF	Nametable 1 (mirrored)
	// $3000-$3EFF	Mirrors of $2000-$2EFF
	nametables [0x800]uint8
	NameTables hwio.Device

	// $3F00-$3F1F	Palette RAM indexes
	// $3F20-$3FFF	Mirrors of $3F00-$3F1F
	palettes [0x20]uint8
	Palettes hwio.Device

	OAM [0x100]uint8

	// CPU-exposed memory-mapped PPU registers
	// mapped from $2000 to $2007, mirrored up to $3fff
	PPUCTRL   hwio.Reg8
	PPUMASK   hwio.Reg8
	PPUSTATUS hwio.Reg8
	OAMADDR   hwio.Reg8
	OAMDATA   hwio.Reg8
	PPUSCROLL hwio.Reg8
	PPUADDR   hwio.Reg8
	PPUDATA   hwio.Reg8

	// VRAM read/write
	vramAddr    loopy
	vramTmp     loopy
	writeLatch  bool
	ppuDataRbuf uint8
	openBus     uint8

	bg bgRegs

	// sprites selected for the next scanline, and their pattern shifters.
	sprites      [8]sprite
	spriteCount  int
	spriteLo     [8]uint8
	spriteHi     [8]uint8
	sprite0Next  bool // sprite 0 is among the selected sprites
	sprite0Shown bool // sprite 0 provides the current pixel

	// an NMI is requested, the coordinator clears it.
	nmi bool

	video []byte // RGBA frame buffer
}

type bgRegs struct {
	finex uint8

	// next tile latches
	nt uint8
	at uint8
	lo uint8
	hi uint8

	// shift registers
	patLo  uint16
	patHi  uint16
	attrLo uint16
	attrHi uint16
}

func NewPPU() *PPU {
	p := &PPU{
		Bus:   hwio.NewTable("ppu"),
		video: make([]byte, ScreenWidth*ScreenHeight*4),
	}
	p.initBus()
	p.Reset()
	return p
}

func (p *PPU) initBus() {
	p.PatternTables = hwio.Mem{
		Name:  "chr",
		Data:  make([]byte, 0x2000),
		Flags: hwio.MemFlag8ReadOnly,
	}
	p.Bus.MapMem(0x0000, &p.PatternTables)

	p.NameTables = hwio.Device{
		Name: "nametables",
		Size: 0x1F00,
		ReadCb: func(addr uint16) uint8 {
			return p.nametables[ntIndex(addr)]
		},
		WriteCb: func(addr uint16, val uint8) {
			p.nametables[ntIndex(addr)] = val
		},
	}
	p.Bus.MapDevice(0x2000, &p.NameTables)

	p.Palettes = hwio.Device{
		Name:    "palettes",
		Size:    0x100,
		ReadCb:  p.readPalette,
		WriteCb: p.writePalette,
	}
	p.Bus.MapDevice(0x3F00, &p.Palettes)

	p.PPUCTRL = hwio.Reg8{Name: "PPUCTRL", ReadCb: p.readOpenBus, WriteCb: p.WritePPUCTRL}
	p.PPUMASK = hwio.Reg8{Name: "PPUMASK", ReadCb: p.readOpenBus, WriteCb: p.WritePPUMASK}
	p.PPUSTATUS = hwio.Reg8{Name: "PPUSTATUS", ReadCb: p.ReadPPUSTATUS, WriteCb: p.WritePPUSTATUS}
	p.OAMADDR = hwio.Reg8{Name: "OAMADDR", ReadCb: p.readOpenBus, WriteCb: p.WriteOAMADDR}
	p.OAMDATA = hwio.Reg8{Name: "OAMDATA", ReadCb: p.ReadOAMDATA, WriteCb: p.WriteOAMDATA}
	p.PPUSCROLL = hwio.Reg8{Name: "PPUSCROLL", ReadCb: p.readOpenBus, WriteCb: p.WritePPUSCROLL}
	p.PPUADDR = hwio.Reg8{Name: "PPUADDR", ReadCb: p.readOpenBus, WriteCb: p.WritePPUADDR}
	p.PPUDATA = hwio.Reg8{Name: "PPUDATA", ReadCb: p.ReadPPUDATA, WriteCb: p.WritePPUDATA}
}

// MapRegisters maps the PPU registers on the CPU bus, from $2000 to $3FFF.
func (p *PPU) MapRegisters(bus *hwio.Table) {
	regs := [8]*hwio.Reg8{
		&p.PPUCTRL, &p.PPUMASK, &p.PPUSTATUS, &p.OAMADDR,
		&p.OAMDATA, &p.PPUSCROLL, &p.PPUADDR, &p.PPUDATA,
	}
	for off := 0x2000; off < 0x4000; off += 8 {
		for i, reg := range regs {
			bus.MapReg8(uint16(off+i), reg)
		}
	}
}

// horizontal mirroring: $2000 and $2400 share the first physical nametable,
// $2800 and $2C00 the second one.
func ntIndex(addr uint16) uint16 {
	return (addr&0x0800)>>1 | addr&0x03FF
}

func paletteIndex(addr uint16) uint16 {
	addr &= 0x1F
	// $3F10/$3F14/$3F18/$3F1C mirror $3F00/$3F04/$3F08/$3F0C.
	if addr&0x13 == 0x10 {
		addr &^= 0x10
	}
	return addr
}

func (p *PPU) readPalette(addr uint16) uint8 {
	val := p.palettes[paletteIndex(addr)]
	if p.mask().gray() {
		return val & 0x30
	}
	return val & 0x3F
}

func (p *PPU) writePalette(addr uint16, val uint8) {
	p.palettes[paletteIndex(addr)] = val
}

// LoadPattern copies 8KB of pattern data (CHR-ROM) into the pattern tables.
func (p *PPU) LoadPattern(chr []byte) error {
	if len(chr) < len(p.PatternTables.Data) {
		return fmt.Errorf("%w: got %d bytes", ErrShortPattern, len(chr))
	}
	copy(p.PatternTables.Data, chr)
	return nil
}

func (p *PPU) ctrl() ppuctrl     { return ppuctrl(p.PPUCTRL.Value) }
func (p *PPU) mask() ppumask     { return ppumask(p.PPUMASK.Value) }
func (p *PPU) status() ppustatus { return ppustatus(p.PPUSTATUS.Value) }

func (p *PPU) setStatus(s ppustatus) { p.PPUSTATUS.Value = uint8(s) }

// Reset clears the scroll, shift and latch state as well as the control, mask
// and status registers. Memories are preserved.
func (p *PPU) Reset() {
	p.Scanline = preRenderLine
	p.Cycle = 0
	p.oddFrame = false
	p.frameCount = 0

	p.PPUCTRL.Value = 0
	p.PPUMASK.Value = 0
	p.PPUSTATUS.Value = 0
	p.OAMADDR.Value = 0

	p.vramAddr = 0
	p.vramTmp = 0
	p.writeLatch = false
	p.ppuDataRbuf = 0
	p.openBus = 0
	p.bg = bgRegs{}

	p.spriteCount = 0
	p.spriteLo = [8]uint8{}
	p.spriteHi = [8]uint8{}
	p.sprite0Next = false
	p.sprite0Shown = false
	p.nmi = false
}

// SetFrameBuffer sets the RGBA buffer the PPU renders into. It must hold
// ScreenWidth*ScreenHeight*4 bytes.
func (p *PPU) SetFrameBuffer(video []byte) {
	if len(video) < ScreenWidth*ScreenHeight*4 {
		panic("frame buffer too small")
	}
	p.video = video
}

// FrameBuffer returns the RGBA buffer the PPU is rendering into.
func (p *PPU) FrameBuffer() []byte {
	return p.video
}

// FrameCount returns the number of completed frames.
func (p *PPU) FrameCount() int64 {
	return p.frameCount
}

// OddFrame reports whether the current frame is odd.
func (p *PPU) OddFrame() bool {
	return p.oddFrame
}

func (p *PPU) read8(addr uint16) uint8 {
	return p.Bus.Read8(addr&0x3FFF, false)
}

// Tick advances the PPU by one pixel clock.
func (p *PPU) Tick() {
	if p.Scanline < 240 {
		p.renderTick()
	}

	if p.Scanline == 241 && p.Cycle == 1 {
		status := p.status()
		status.setVblank(true)
		p.setStatus(status)
		if p.ctrl().nmi() {
			p.nmi = true
		}
	}

	if p.Scanline >= 0 && p.Scanline < ScreenHeight && p.Cycle >= 1 && p.Cycle <= ScreenWidth {
		p.output()
	}

	p.Cycle++
	if p.Cycle >= NumCycles {
		p.Cycle = 0
		p.Scanline++
		if p.Scanline > lastLine {
			p.Scanline = preRenderLine
			p.oddFrame = !p.oddFrame
			p.frameCount++
		}
	}
}

// renderTick runs the background and sprite pipelines, on the pre-render and
// visible scanlines.
func (p *PPU) renderTick() {
	mask := p.mask()

	if p.Scanline == 0 && p.Cycle == 0 && p.oddFrame && mask.rendering() {
		// odd frames are one cycle shorter when rendering.
		p.Cycle = 1
	}

	if p.Scanline == preRenderLine && p.Cycle == 1 {
		status := p.status()
		status.setVblank(false)
		status.setSprite0Hit(false)
		status.setSpriteOverflow(false)
		p.setStatus(status)

		p.spriteCount = 0
		p.spriteLo = [8]uint8{}
		p.spriteHi = [8]uint8{}
	}

	if (p.Cycle >= 2 && p.Cycle < 258) || (p.Cycle >= 321 && p.Cycle < 338) {
		p.shift()

		switch (p.Cycle - 1) % 8 {
		case 0:
			p.loadShifters()
			p.fetchNT()
		case 2:
			p.fetchAT()
		case 4:
			p.bg.lo = p.read8(p.ctrl().bgTable() + uint16(p.bg.nt)<<4 + uint16(p.vramAddr.finey()))
		case 6:
			p.bg.hi = p.read8(p.ctrl().bgTable() + uint16(p.bg.nt)<<4 + uint16(p.vramAddr.finey()) + 8)
		case 7:
			p.incrementX()
		}
	}

	switch {
	case p.Cycle == 256:
		p.incrementY()
	case p.Cycle == 257:
		p.loadShifters()
		p.transferX()
	case p.Cycle == 338 || p.Cycle == 340:
		// unused nametable fetches
		p.fetchNT()
	}

	if p.Scanline == preRenderLine && p.Cycle >= 280 && p.Cycle < 305 {
		p.transferY()
	}

	if p.Cycle == 257 && p.Scanline >= 0 {
		p.evalSprites()
	}
	if p.Cycle == 340 {
		p.fetchSprites()
	}
}

func (p *PPU) fetchNT() {
	p.bg.nt = p.read8(0x2000 | p.vramAddr.addr()&0x0FFF)
}

func (p *PPU) fetchAT() {
	v := p.vramAddr
	addr := 0x23C0 |
		uint16(v.nametable())<<10 |
		uint16(v.coarsey()>>2)<<3 |
		uint16(v.coarsex()>>2)

	at := p.read8(addr)
	if v.coarsey()&0x02 != 0 {
		at >>= 4
	}
	if v.coarsex()&0x02 != 0 {
		at >>= 2
	}
	p.bg.at = at & 0x03
}

// loadShifters loads the next tile latches into the low byte of the shift
// registers.
func (p *PPU) loadShifters() {
	p.bg.patLo = p.bg.patLo&0xFF00 | uint16(p.bg.lo)
	p.bg.patHi = p.bg.patHi&0xFF00 | uint16(p.bg.hi)

	p.bg.attrLo &= 0xFF00
	if p.bg.at&0x01 != 0 {
		p.bg.attrLo |= 0xFF
	}
	p.bg.attrHi &= 0xFF00
	if p.bg.at&0x02 != 0 {
		p.bg.attrHi |= 0xFF
	}
}

func (p *PPU) shift() {
	mask := p.mask()
	if mask.bg() {
		p.bg.patLo <<= 1
		p.bg.patHi <<= 1
		p.bg.attrLo <<= 1
		p.bg.attrHi <<= 1
	}

	if mask.sprites() && p.Cycle >= 1 && p.Cycle < 258 {
		for i := range p.spriteCount {
			if p.sprites[i].x > 0 {
				p.sprites[i].x--
			} else {
				p.spriteLo[i] <<= 1
				p.spriteHi[i] <<= 1
			}
		}
	}
}

func (p *PPU) incrementX() {
	if !p.mask().rendering() {
		return
	}
	if p.vramAddr.coarsex() == 31 {
		p.vramAddr.setCoarsex(0)
		p.vramAddr.flipNtx()
	} else {
		p.vramAddr.setCoarsex(p.vramAddr.coarsex() + 1)
	}
}

func (p *PPU) incrementY() {
	if !p.mask().rendering() {
		return
	}

	if fy := p.vramAddr.finey(); fy < 7 {
		p.vramAddr.setFiney(fy + 1)
		return
	}

	p.vramAddr.setFiney(0)
	switch cy := p.vramAddr.coarsey(); cy {
	case 29:
		// last row of the nametable, the rest is attribute data.
		p.vramAddr.setCoarsey(0)
		p.vramAddr.flipNty()
	case 31:
		// coarse Y set out of bounds, wraps without switching nametable.
		p.vramAddr.setCoarsey(0)
	default:
		p.vramAddr.setCoarsey(cy + 1)
	}
}

func (p *PPU) transferX() {
	if !p.mask().rendering() {
		return
	}
	p.vramAddr.setCoarsex(p.vramTmp.coarsex())
	p.vramAddr.setNametable(p.vramAddr.nty()<<1 | p.vramTmp.ntx())
}

func (p *PPU) transferY() {
	if !p.mask().rendering() {
		return
	}
	p.vramAddr.setCoarsey(p.vramTmp.coarsey())
	p.vramAddr.setFiney(p.vramTmp.finey())
	p.vramAddr.setNametable(p.vramTmp.nty()<<1 | p.vramAddr.ntx())
}

// evalSprites selects the sprites to show on the next scanline.
func (p *PPU) evalSprites() {
	p.spriteCount = 0
	p.sprite0Next = false
	for i := range p.sprites {
		p.sprites[i] = sprite{0xFF, 0xFF, 0xFF, 0xFF}
		p.spriteLo[i] = 0
		p.spriteHi[i] = 0
	}

	height := p.ctrl().spriteHeight()
	for n := range 64 {
		spr := sprite{
			y:    p.OAM[n*4],
			id:   p.OAM[n*4+1],
			attr: p.OAM[n*4+2],
			x:    p.OAM[n*4+3],
		}
		diff := p.Scanline - int(spr.y)
		if diff < 0 || diff >= height {
			continue
		}
		if p.spriteCount == len(p.sprites) {
			status := p.status()
			status.setSpriteOverflow(true)
			p.setStatus(status)
			break
		}
		if n == 0 {
			p.sprite0Next = true
		}
		p.sprites[p.spriteCount] = spr
		p.spriteCount++
	}
}

// fetchSprites loads the pattern shifters of the selected sprites.
func (p *PPU) fetchSprites() {
	ctrl := p.ctrl()
	for i := range p.spriteCount {
		spr := p.sprites[i]
		row := uint16(p.Scanline - int(spr.y))
		flipv := spr.attr&spriteAttrFlipV != 0

		var addr uint16
		if !ctrl.bigSprites() {
			if flipv {
				row = 7 - row
			}
			addr = ctrl.spriteTable() | uint16(spr.id)<<4 | row
		} else {
			// 8x16 sprites take their bank from the tile index bit 0.
			table := uint16(spr.id&0x01) << 12
			tile := uint16(spr.id & 0xFE)
			top := row < 8
			if flipv {
				top = !top
			}
			if !top {
				tile++
			}
			fine := row & 0x07
			if flipv {
				fine = 7 - fine
			}
			addr = table | tile<<4 | fine
		}

		lo := p.read8(addr)
		hi := p.read8(addr + 8)
		if spr.attr&spriteAttrFlipH != 0 {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}
		p.spriteLo[i] = lo
		p.spriteHi[i] = hi
	}
}

func reverseBits(b uint8) uint8 {
	b = (b&0xF0)>>4 | (b&0x0F)<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

// output composites the background and sprite pixels at the current
// position and writes the resulting color into the frame buffer.
func (p *PPU) output() {
	mask := p.mask()
	leftCol := p.Cycle < 9

	var bgPixel, bgPalette uint8
	if mask.bg() && (mask.bgLeft() || !leftCol) {
		mux := uint16(0x8000) >> p.bg.finex
		bgPixel = b2u8(p.bg.patHi&mux != 0)<<1 | b2u8(p.bg.patLo&mux != 0)
		bgPalette = b2u8(p.bg.attrHi&mux != 0)<<1 | b2u8(p.bg.attrLo&mux != 0)
	}

	var fgPixel, fgPalette uint8
	var fgFront bool
	p.sprite0Shown = false
	if mask.sprites() && (mask.spriteLeft() || !leftCol) {
		for i := range p.spriteCount {
			if p.sprites[i].x != 0 {
				continue
			}
			fgPixel = (p.spriteHi[i]>>7)<<1 | p.spriteLo[i]>>7
			if fgPixel == 0 {
				continue
			}
			fgPalette = p.sprites[i].attr&spriteAttrPalette + 4
			fgFront = p.sprites[i].attr&spriteAttrPriority == 0
			p.sprite0Shown = i == 0 && p.sprite0Next
			break
		}
	}

	var pixel, palette uint8
	switch {
	case bgPixel == 0 && fgPixel == 0:
	case bgPixel == 0:
		pixel, palette = fgPixel, fgPalette
	case fgPixel == 0:
		pixel, palette = bgPixel, bgPalette
	default:
		if fgFront {
			pixel, palette = fgPixel, fgPalette
		} else {
			pixel, palette = bgPixel, bgPalette
		}
		// No hit is reported at x=255.
		if p.sprite0Shown && mask.bg() && mask.sprites() && p.Cycle < 256 {
			if (mask.bgLeft() && mask.spriteLeft()) || !leftCol {
				status := p.status()
				status.setSprite0Hit(true)
				p.setStatus(status)
			}
		}
	}

	r, g, b := Color(p.read8(0x3F00 + uint16(palette)<<2 + uint16(pixel)))
	off := (p.Scanline*ScreenWidth + p.Cycle - 1) * 4
	p.video[off+0] = r
	p.video[off+1] = g
	p.video[off+2] = b
	p.video[off+3] = 0xFF
}

/* CPU-exposed registers */

func (p *PPU) readOpenBus(_ uint8, _ bool) uint8 {
	return p.openBus
}

// PPUCTRL: $2000
func (p *PPU) WritePPUCTRL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUCTRL").Hex8("val", val).End()
	p.openBus = val

	// Transfer the nametable bits.
	p.vramTmp.setNametable(ppuctrl(val).nametable())

	// Enabling NMI during vblank raises it immediately.
	if !ppuctrl(old).nmi() && ppuctrl(val).nmi() && p.status().vblank() {
		p.nmi = true
	}
}

// PPUMASK: $2001
func (p *PPU) WritePPUMASK(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUMASK").Hex8("val", val).End()
	p.openBus = val
}

// PPUSTATUS: $2002
func (p *PPU) ReadPPUSTATUS(val uint8, peek bool) uint8 {
	ret := val&0xE0 | p.ppuDataRbuf&statusOpenBusMask
	if peek {
		return ret
	}

	status := ppustatus(val)
	status.setVblank(false)
	p.setStatus(status)
	p.writeLatch = false
	p.openBus = ret
	return ret
}

// PPUSTATUS is read-only, writes only reach the open bus latch.
func (p *PPU) WritePPUSTATUS(old, val uint8) {
	p.PPUSTATUS.Value = old
	p.openBus = val
}

// OAMADDR: $2003
func (p *PPU) WriteOAMADDR(old, val uint8) {
	p.openBus = val
}

// OAMDATA: $2004
func (p *PPU) ReadOAMDATA(_ uint8, peek bool) uint8 {
	val := p.OAM[p.OAMADDR.Value]
	if !peek {
		p.openBus = val
	}
	return val
}

func (p *PPU) WriteOAMDATA(old, val uint8) {
	p.openBus = val
	p.OAM[p.OAMADDR.Value] = val
	p.OAMADDR.Value++
}

// PPUSCROLL: $2005
func (p *PPU) WritePPUSCROLL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUSCROLL").Hex8("val", val).End()
	p.openBus = val

	if !p.writeLatch { // first write
		p.bg.finex = val & 0x07
		p.vramTmp.setCoarsex(val >> 3)
	} else { // second write
		p.vramTmp.setFiney(val & 0x07)
		p.vramTmp.setCoarsey(val >> 3)
	}

	p.writeLatch = !p.writeLatch
}

// PPUADDR: $2006
func (p *PPU) WritePPUADDR(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUADDR").Hex8("val", val).End()
	p.openBus = val

	if !p.writeLatch { // first write
		p.vramTmp.setHigh(val & 0x3F)
	} else { // second write
		p.vramTmp.setLow(val)
		p.vramAddr = p.vramTmp
	}

	p.writeLatch = !p.writeLatch
}

func (p *PPU) incrVRAM() {
	p.vramAddr = loopy(uint16(p.vramAddr)+p.ctrl().incr()) & loopyMask
}

// PPUDATA: $2007
func (p *PPU) ReadPPUDATA(_ uint8, peek bool) uint8 {
	addr := p.vramAddr.addr()
	if peek {
		if addr >= 0x3F00 {
			return p.Bus.Peek8(addr)
		}
		return p.ppuDataRbuf
	}

	// Reads are delayed by one, except for palette memory.
	val := p.ppuDataRbuf
	p.ppuDataRbuf = p.read8(addr)
	if addr >= 0x3F00 {
		val = p.ppuDataRbuf
	}
	p.incrVRAM()
	p.openBus = val
	return val
}

func (p *PPU) WritePPUDATA(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUDATA").
		Hex16("addr", p.vramAddr.addr()).
		Hex8("val", val).
		End()
	p.openBus = val

	p.Bus.Write8(p.vramAddr.addr(), val)
	p.incrVRAM()
}
