package hw

// loopy is the internal PPU VRAM address, used both for rendering (as the
// current scroll position) and for CPU accesses through PPUDATA.
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type loopy uint16

const (
	loopyCoarseXShift   = 0
	loopyCoarseXMask    = 0x1F
	loopyCoarseYShift   = 5
	loopyCoarseYMask    = 0x1F
	loopyNametableShift = 10
	loopyNametableMask  = 0x03
	loopyFineYShift     = 12
	loopyFineYMask      = 0x07

	loopyMask = 0x7FFF // 15 bits
)

func (l loopy) field(shift, mask uint16) uint8 {
	return uint8((uint16(l) >> shift) & mask)
}

func (l *loopy) setField(shift, mask uint16, v uint8) {
	*l = loopy((uint16(*l) &^ (mask << shift)) | (uint16(v)&mask)<<shift)
}

func (l loopy) coarsex() uint8   { return l.field(loopyCoarseXShift, loopyCoarseXMask) }
func (l loopy) coarsey() uint8   { return l.field(loopyCoarseYShift, loopyCoarseYMask) }
func (l loopy) nametable() uint8 { return l.field(loopyNametableShift, loopyNametableMask) }
func (l loopy) finey() uint8     { return l.field(loopyFineYShift, loopyFineYMask) }

func (l *loopy) setCoarsex(v uint8)   { l.setField(loopyCoarseXShift, loopyCoarseXMask, v) }
func (l *loopy) setCoarsey(v uint8)   { l.setField(loopyCoarseYShift, loopyCoarseYMask, v) }
func (l *loopy) setNametable(v uint8) { l.setField(loopyNametableShift, loopyNametableMask, v) }
func (l *loopy) setFiney(v uint8)     { l.setField(loopyFineYShift, loopyFineYMask, v) }

// nametable select bits, individually.
func (l loopy) ntx() uint8 { return l.nametable() & 1 }
func (l loopy) nty() uint8 { return l.nametable() >> 1 }

func (l *loopy) flipNtx() { *l ^= 1 << loopyNametableShift }
func (l *loopy) flipNty() { *l ^= 1 << (loopyNametableShift + 1) }

// low and high halves, as written through PPUADDR.
func (l loopy) low() uint8  { return uint8(l) }
func (l loopy) high() uint8 { return uint8(l>>8) & 0x7F }

func (l *loopy) setLow(v uint8)  { *l = (*l & 0x7F00) | loopy(v) }
func (l *loopy) setHigh(v uint8) { *l = (*l & 0x00FF) | loopy(v&0x7F)<<8 }

// addr returns the 14-bit address on the PPU bus.
func (l loopy) addr() uint16 { return uint16(l) & 0x3FFF }
func (l loopy) val() uint16  { return uint16(l) & loopyMask }

// ppuctrl is the PPUCTRL register ($2000).
type ppuctrl uint8

const (
	ctrlNametableMask = 0b11 // base nametable (0 = $2000; 1 = $2400; 2 = $2800; 3 = $2C00)
	ctrlIncr          = 2    // VRAM address increment per PPUDATA access (0: +1; 1: +32)
	ctrlSpriteTable   = 3    // sprite pattern table for 8x8 sprites (0: $0000; 1: $1000)
	ctrlBgTable       = 4    // background pattern table (0: $0000; 1: $1000)
	ctrlSpriteSize    = 5    // sprite size (0: 8x8; 1: 8x16)
	ctrlSlave         = 6    // PPU master/slave select
	ctrlNMI           = 7    // generate an NMI at the start of vblank
)

func (c ppuctrl) nametable() uint8 { return uint8(c) & ctrlNametableMask }

func (c ppuctrl) incr() uint16 {
	if c&(1<<ctrlIncr) != 0 {
		return 32
	}
	return 1
}

func (c ppuctrl) spriteTable() uint16 { return uint16(c>>ctrlSpriteTable&1) << 12 }
func (c ppuctrl) bgTable() uint16     { return uint16(c>>ctrlBgTable&1) << 12 }
func (c ppuctrl) bigSprites() bool    { return c&(1<<ctrlSpriteSize) != 0 }
func (c ppuctrl) slave() bool         { return c&(1<<ctrlSlave) != 0 }
func (c ppuctrl) nmi() bool           { return c&(1<<ctrlNMI) != 0 }

func (c ppuctrl) spriteHeight() int {
	if c.bigSprites() {
		return 16
	}
	return 8
}

// ppumask is the PPUMASK register ($2001).
type ppumask uint8

const (
	maskGray       = 0 // greyscale display
	maskBgLeft     = 1 // show background in leftmost 8 pixels
	maskSpriteLeft = 2 // show sprites in leftmost 8 pixels
	maskBg         = 3 // show background
	maskSprites    = 4 // show sprites
	maskRed        = 5 // emphasize red
	maskGreen      = 6 // emphasize green
	maskBlue       = 7 // emphasize blue
)

func (m ppumask) gray() bool       { return m&(1<<maskGray) != 0 }
func (m ppumask) bgLeft() bool     { return m&(1<<maskBgLeft) != 0 }
func (m ppumask) spriteLeft() bool { return m&(1<<maskSpriteLeft) != 0 }
func (m ppumask) bg() bool         { return m&(1<<maskBg) != 0 }
func (m ppumask) sprites() bool    { return m&(1<<maskSprites) != 0 }
func (m ppumask) red() bool        { return m&(1<<maskRed) != 0 }
func (m ppumask) green() bool      { return m&(1<<maskGreen) != 0 }
func (m ppumask) blue() bool       { return m&(1<<maskBlue) != 0 }

// rendering reports whether background or sprite rendering is enabled.
func (m ppumask) rendering() bool { return m.bg() || m.sprites() }

// ppustatus is the PPUSTATUS register ($2002).
type ppustatus uint8

const (
	statusOpenBusMask    = 0b11111 // stale PPU bus contents
	statusSpriteOverflow = 5       // more than 8 sprites on a scanline
	statusSprite0Hit     = 6       // sprite 0 opaque pixel overlapping opaque background
	statusVblank         = 7       // vertical blank has started
)

func (s ppustatus) spriteOverflow() bool { return s&(1<<statusSpriteOverflow) != 0 }
func (s ppustatus) sprite0Hit() bool     { return s&(1<<statusSprite0Hit) != 0 }
func (s ppustatus) vblank() bool         { return s&(1<<statusVblank) != 0 }

func (s *ppustatus) setBit(n uint, v bool) {
	if v {
		*s |= 1 << n
	} else {
		*s &^= 1 << n
	}
}

func (s *ppustatus) setSpriteOverflow(v bool) { s.setBit(statusSpriteOverflow, v) }
func (s *ppustatus) setSprite0Hit(v bool)     { s.setBit(statusSprite0Hit, v) }
func (s *ppustatus) setVblank(v bool)         { s.setBit(statusVblank, v) }
