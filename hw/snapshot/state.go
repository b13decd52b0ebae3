package snapshot

// Version is the current version of the snapshot format.
const Version = 1

type NES struct {
	Version int
	Clock   int64
	CPU     *CPU
	RAM     [0x800]uint8
	SRAM    [0x2000]uint8
	DMA     *DMA
	PPU     *PPU
	Input   *Input
}

type CPU struct {
	PC uint16
	SP uint8
	P  uint8
	A  uint8
	X  uint8
	Y  uint8

	Cycles       int64
	Instructions int64
	Debt         int

	NMIPending bool
	IRQPending bool
}

type DMA struct {
	InProgress bool
	Dummy      bool
	Page       uint8
	Addr       uint8
	Data       uint8
}

type Input struct {
	Strobe     bool
	PrevStrobe bool
	State      [2]uint8
}

type PPU struct {
	Palette    [0x20]uint8
	OAMMem     [0x100]uint8
	Nametables [0x800]uint8

	Sprites      [8]Sprite
	SpriteCount  int
	Sprite0Next  bool
	Sprite0Shown bool

	OpenBus    uint8
	OAMAddr    uint8
	VRAMAddr   uint16
	VRAMTemp   uint16
	WriteLatch bool
	PPUDataBuf uint8

	PPUBgRegs PPUBgRegs

	PPUCTRL   uint8
	PPUMASK   uint8
	PPUSTATUS uint8

	Cycle      int
	Scanline   int
	FrameCount int64
	OddFrame   bool
	NMI        bool
}

type Sprite struct {
	X     uint8
	Y     uint8
	Tile  uint8
	Attr  uint8
	DataL uint8
	DataH uint8
}

type PPUBgRegs struct {
	Finex uint8
	NT    uint8
	AT    uint8
	BgLo  uint8
	BgHi  uint8

	// shift registers.
	BgShiftLo uint16
	BgShiftHi uint16
	ATShiftLo uint16
	ATShiftHi uint16
}
