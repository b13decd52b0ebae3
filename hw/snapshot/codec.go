package snapshot

import (
	"fmt"
	"io"

	"github.com/bradleyjkemp/memviz"
	"github.com/go-faster/jx"
)

// Encode writes the snapshot as JSON.
func (s *NES) Encode(w io.Writer) error {
	var e jx.Encoder
	e.SetIdent(2)

	e.ObjStart()
	field(&e, "version", func(e *jx.Encoder) { e.Int(s.Version) })
	field(&e, "clock", func(e *jx.Encoder) { e.Int64(s.Clock) })
	field(&e, "ram", func(e *jx.Encoder) { e.Base64(s.RAM[:]) })
	field(&e, "sram", func(e *jx.Encoder) { e.Base64(s.SRAM[:]) })
	if s.CPU != nil {
		field(&e, "cpu", s.CPU.encode)
	}
	if s.DMA != nil {
		field(&e, "dma", s.DMA.encode)
	}
	if s.PPU != nil {
		field(&e, "ppu", s.PPU.encode)
	}
	if s.Input != nil {
		field(&e, "input", s.Input.encode)
	}
	e.ObjEnd()

	_, err := w.Write(e.Bytes())
	return err
}

// Decode reads a JSON snapshot.
func Decode(r io.Reader) (*NES, error) {
	s := new(NES)
	d := jx.Decode(r, 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "version":
			s.Version, err = d.Int()
			if err == nil && s.Version != Version {
				return fmt.Errorf("unsupported snapshot version %d", s.Version)
			}
		case "clock":
			s.Clock, err = d.Int64()
		case "ram":
			err = decodeBytes(d, s.RAM[:])
		case "sram":
			err = decodeBytes(d, s.SRAM[:])
		case "cpu":
			s.CPU = new(CPU)
			err = s.CPU.decode(d)
		case "dma":
			s.DMA = new(DMA)
			err = s.DMA.decode(d)
		case "ppu":
			s.PPU = new(PPU)
			err = s.PPU.decode(d)
		case "input":
			s.Input = new(Input)
			err = s.Input.decode(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// WriteGraph writes a Graphviz representation of the snapshot.
func (s *NES) WriteGraph(w io.Writer) {
	memviz.Map(w, s)
}

func field(e *jx.Encoder, name string, f func(e *jx.Encoder)) {
	e.FieldStart(name)
	f(e)
}

func decodeBytes(d *jx.Decoder, dst []byte) error {
	buf, err := d.Base64()
	if err != nil {
		return err
	}
	if len(buf) != len(dst) {
		return fmt.Errorf("got %d bytes, want %d", len(buf), len(dst))
	}
	copy(dst, buf)
	return nil
}

// decodeUint decodes a JSON number into an unsigned integer no greater than
// limit.
func decodeUint(d *jx.Decoder, limit int64) (uint64, error) {
	v, err := d.Int64()
	if err != nil {
		return 0, err
	}
	if v < 0 || v > limit {
		return 0, fmt.Errorf("value %d out of range [0, %d]", v, limit)
	}
	return uint64(v), nil
}

func decodeU8(d *jx.Decoder, dst *uint8) error {
	v, err := decodeUint(d, 0xFF)
	*dst = uint8(v)
	return err
}

func decodeU16(d *jx.Decoder, dst *uint16) error {
	v, err := decodeUint(d, 0xFFFF)
	*dst = uint16(v)
	return err
}

func decodeBool(d *jx.Decoder, dst *bool) error {
	v, err := d.Bool()
	*dst = v
	return err
}

func decodeInt(d *jx.Decoder, dst *int) error {
	v, err := d.Int()
	*dst = v
	return err
}

func decodeInt64(d *jx.Decoder, dst *int64) error {
	v, err := d.Int64()
	*dst = v
	return err
}

func (c *CPU) encode(e *jx.Encoder) {
	e.ObjStart()
	field(e, "pc", func(e *jx.Encoder) { e.Int(int(c.PC)) })
	field(e, "sp", func(e *jx.Encoder) { e.Int(int(c.SP)) })
	field(e, "p", func(e *jx.Encoder) { e.Int(int(c.P)) })
	field(e, "a", func(e *jx.Encoder) { e.Int(int(c.A)) })
	field(e, "x", func(e *jx.Encoder) { e.Int(int(c.X)) })
	field(e, "y", func(e *jx.Encoder) { e.Int(int(c.Y)) })
	field(e, "cycles", func(e *jx.Encoder) { e.Int64(c.Cycles) })
	field(e, "instructions", func(e *jx.Encoder) { e.Int64(c.Instructions) })
	field(e, "debt", func(e *jx.Encoder) { e.Int(c.Debt) })
	field(e, "nmi_pending", func(e *jx.Encoder) { e.Bool(c.NMIPending) })
	field(e, "irq_pending", func(e *jx.Encoder) { e.Bool(c.IRQPending) })
	e.ObjEnd()
}

func (c *CPU) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "pc":
			return decodeU16(d, &c.PC)
		case "sp":
			return decodeU8(d, &c.SP)
		case "p":
			return decodeU8(d, &c.P)
		case "a":
			return decodeU8(d, &c.A)
		case "x":
			return decodeU8(d, &c.X)
		case "y":
			return decodeU8(d, &c.Y)
		case "cycles":
			return decodeInt64(d, &c.Cycles)
		case "instructions":
			return decodeInt64(d, &c.Instructions)
		case "debt":
			return decodeInt(d, &c.Debt)
		case "nmi_pending":
			return decodeBool(d, &c.NMIPending)
		case "irq_pending":
			return decodeBool(d, &c.IRQPending)
		}
		return d.Skip()
	})
}

func (dma *DMA) encode(e *jx.Encoder) {
	e.ObjStart()
	field(e, "in_progress", func(e *jx.Encoder) { e.Bool(dma.InProgress) })
	field(e, "dummy", func(e *jx.Encoder) { e.Bool(dma.Dummy) })
	field(e, "page", func(e *jx.Encoder) { e.Int(int(dma.Page)) })
	field(e, "addr", func(e *jx.Encoder) { e.Int(int(dma.Addr)) })
	field(e, "data", func(e *jx.Encoder) { e.Int(int(dma.Data)) })
	e.ObjEnd()
}

func (dma *DMA) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "in_progress":
			return decodeBool(d, &dma.InProgress)
		case "dummy":
			return decodeBool(d, &dma.Dummy)
		case "page":
			return decodeU8(d, &dma.Page)
		case "addr":
			return decodeU8(d, &dma.Addr)
		case "data":
			return decodeU8(d, &dma.Data)
		}
		return d.Skip()
	})
}

func (in *Input) encode(e *jx.Encoder) {
	e.ObjStart()
	field(e, "strobe", func(e *jx.Encoder) { e.Bool(in.Strobe) })
	field(e, "prev_strobe", func(e *jx.Encoder) { e.Bool(in.PrevStrobe) })
	field(e, "state", func(e *jx.Encoder) { e.Base64(in.State[:]) })
	e.ObjEnd()
}

func (in *Input) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "strobe":
			return decodeBool(d, &in.Strobe)
		case "prev_strobe":
			return decodeBool(d, &in.PrevStrobe)
		case "state":
			return decodeBytes(d, in.State[:])
		}
		return d.Skip()
	})
}

func (p *PPU) encode(e *jx.Encoder) {
	e.ObjStart()
	field(e, "palette", func(e *jx.Encoder) { e.Base64(p.Palette[:]) })
	field(e, "oam", func(e *jx.Encoder) { e.Base64(p.OAMMem[:]) })
	field(e, "nametables", func(e *jx.Encoder) { e.Base64(p.Nametables[:]) })
	field(e, "sprites", func(e *jx.Encoder) {
		e.ArrStart()
		for i := range p.Sprites {
			p.Sprites[i].encode(e)
		}
		e.ArrEnd()
	})
	field(e, "sprite_count", func(e *jx.Encoder) { e.Int(p.SpriteCount) })
	field(e, "sprite0_next", func(e *jx.Encoder) { e.Bool(p.Sprite0Next) })
	field(e, "sprite0_shown", func(e *jx.Encoder) { e.Bool(p.Sprite0Shown) })
	field(e, "open_bus", func(e *jx.Encoder) { e.Int(int(p.OpenBus)) })
	field(e, "oam_addr", func(e *jx.Encoder) { e.Int(int(p.OAMAddr)) })
	field(e, "vram_addr", func(e *jx.Encoder) { e.Int(int(p.VRAMAddr)) })
	field(e, "vram_temp", func(e *jx.Encoder) { e.Int(int(p.VRAMTemp)) })
	field(e, "write_latch", func(e *jx.Encoder) { e.Bool(p.WriteLatch) })
	field(e, "data_buf", func(e *jx.Encoder) { e.Int(int(p.PPUDataBuf)) })
	field(e, "bg", p.PPUBgRegs.encode)
	field(e, "ctrl", func(e *jx.Encoder) { e.Int(int(p.PPUCTRL)) })
	field(e, "mask", func(e *jx.Encoder) { e.Int(int(p.PPUMASK)) })
	field(e, "status", func(e *jx.Encoder) { e.Int(int(p.PPUSTATUS)) })
	field(e, "cycle", func(e *jx.Encoder) { e.Int(p.Cycle) })
	field(e, "scanline", func(e *jx.Encoder) { e.Int(p.Scanline) })
	field(e, "frame_count", func(e *jx.Encoder) { e.Int64(p.FrameCount) })
	field(e, "odd_frame", func(e *jx.Encoder) { e.Bool(p.OddFrame) })
	field(e, "nmi", func(e *jx.Encoder) { e.Bool(p.NMI) })
	e.ObjEnd()
}

func (p *PPU) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "palette":
			return decodeBytes(d, p.Palette[:])
		case "oam":
			return decodeBytes(d, p.OAMMem[:])
		case "nametables":
			return decodeBytes(d, p.Nametables[:])
		case "sprites":
			i := 0
			return d.Arr(func(d *jx.Decoder) error {
				if i >= len(p.Sprites) {
					return fmt.Errorf("too many sprites")
				}
				err := p.Sprites[i].decode(d)
				i++
				return err
			})
		case "sprite_count":
			if err := decodeInt(d, &p.SpriteCount); err != nil {
				return err
			}
			if p.SpriteCount < 0 || p.SpriteCount > len(p.Sprites) {
				return fmt.Errorf("invalid sprite count %d", p.SpriteCount)
			}
			return nil
		case "sprite0_next":
			return decodeBool(d, &p.Sprite0Next)
		case "sprite0_shown":
			return decodeBool(d, &p.Sprite0Shown)
		case "open_bus":
			return decodeU8(d, &p.OpenBus)
		case "oam_addr":
			return decodeU8(d, &p.OAMAddr)
		case "vram_addr":
			return decodeU16(d, &p.VRAMAddr)
		case "vram_temp":
			return decodeU16(d, &p.VRAMTemp)
		case "write_latch":
			return decodeBool(d, &p.WriteLatch)
		case "data_buf":
			return decodeU8(d, &p.PPUDataBuf)
		case "bg":
			return p.PPUBgRegs.decode(d)
		case "ctrl":
			return decodeU8(d, &p.PPUCTRL)
		case "mask":
			return decodeU8(d, &p.PPUMASK)
		case "status":
			return decodeU8(d, &p.PPUSTATUS)
		case "cycle":
			return decodeInt(d, &p.Cycle)
		case "scanline":
			return decodeInt(d, &p.Scanline)
		case "frame_count":
			return decodeInt64(d, &p.FrameCount)
		case "odd_frame":
			return decodeBool(d, &p.OddFrame)
		case "nmi":
			return decodeBool(d, &p.NMI)
		}
		return d.Skip()
	})
}

func (s *Sprite) encode(e *jx.Encoder) {
	e.ArrStart()
	for _, v := range [...]uint8{s.X, s.Y, s.Tile, s.Attr, s.DataL, s.DataH} {
		e.Int(int(v))
	}
	e.ArrEnd()
}

func (s *Sprite) decode(d *jx.Decoder) error {
	fields := [...]*uint8{&s.X, &s.Y, &s.Tile, &s.Attr, &s.DataL, &s.DataH}
	i := 0
	return d.Arr(func(d *jx.Decoder) error {
		if i >= len(fields) {
			return fmt.Errorf("too many sprite fields")
		}
		err := decodeU8(d, fields[i])
		i++
		return err
	})
}

func (bg *PPUBgRegs) encode(e *jx.Encoder) {
	e.ObjStart()
	field(e, "finex", func(e *jx.Encoder) { e.Int(int(bg.Finex)) })
	field(e, "nt", func(e *jx.Encoder) { e.Int(int(bg.NT)) })
	field(e, "at", func(e *jx.Encoder) { e.Int(int(bg.AT)) })
	field(e, "lo", func(e *jx.Encoder) { e.Int(int(bg.BgLo)) })
	field(e, "hi", func(e *jx.Encoder) { e.Int(int(bg.BgHi)) })
	field(e, "shift_lo", func(e *jx.Encoder) { e.Int(int(bg.BgShiftLo)) })
	field(e, "shift_hi", func(e *jx.Encoder) { e.Int(int(bg.BgShiftHi)) })
	field(e, "at_shift_lo", func(e *jx.Encoder) { e.Int(int(bg.ATShiftLo)) })
	field(e, "at_shift_hi", func(e *jx.Encoder) { e.Int(int(bg.ATShiftHi)) })
	e.ObjEnd()
}

func (bg *PPUBgRegs) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "finex":
			return decodeU8(d, &bg.Finex)
		case "nt":
			return decodeU8(d, &bg.NT)
		case "at":
			return decodeU8(d, &bg.AT)
		case "lo":
			return decodeU8(d, &bg.BgLo)
		case "hi":
			return decodeU8(d, &bg.BgHi)
		case "shift_lo":
			return decodeU16(d, &bg.BgShiftLo)
		case "shift_hi":
			return decodeU16(d, &bg.BgShiftHi)
		case "at_shift_lo":
			return decodeU16(d, &bg.ATShiftLo)
		case "at_shift_hi":
			return decodeU16(d, &bg.ATShiftHi)
		}
		return d.Skip()
	})
}
