// Package ines reads cartridge images in the iNES file format, used for the
// distribution of NES programs.
package ines

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const Magic = "NES\x1a"

const (
	headerSize  = 16
	trainerSize = 512

	PRGBankSize = 0x4000
	CHRBankSize = 0x2000
)

var (
	ErrInvalidMagic = errors.New("invalid magic number")
	ErrTruncated    = errors.New("truncated image")
)

// A Rom is a decoded iNES image.
type Rom struct {
	header
	Trainer []byte // 512 bytes if present, or empty
	PRG     []byte // program ROM, multiple of 16KB
	CHR     []byte // pattern ROM, multiple of 8KB, empty if the cartridge uses CHR RAM
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface.
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if err := rom.decode(buf); err != nil {
		return int64(len(buf)), err
	}
	return int64(len(buf)), nil
}

func (rom *Rom) decode(buf []byte) error {
	if err := rom.header.decode(buf); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	off := headerSize

	section := func(name string, size int) ([]byte, error) {
		if len(buf) < off+size {
			return nil, fmt.Errorf("%w: incomplete %s section (%d/%d bytes)", ErrTruncated, name, len(buf)-off, size)
		}
		s := buf[off : off+size : off+size]
		off += size
		return s, nil
	}

	var err error
	if rom.HasTrainer() {
		if rom.Trainer, err = section("trainer", trainerSize); err != nil {
			return err
		}
	}
	if rom.PRG, err = section("PRG", rom.prgsz); err != nil {
		return err
	}
	if rom.CHR, err = section("CHR", rom.chrsz); err != nil {
		return err
	}
	return nil
}

type header struct {
	raw   [headerSize]byte
	prgsz int
	chrsz int
}

func (hdr *header) decode(p []byte) error {
	if len(p) < headerSize {
		return fmt.Errorf("%w: got %d bytes, need %d", ErrTruncated, len(p), headerSize)
	}
	if string(p[:4]) != Magic {
		return ErrInvalidMagic
	}
	copy(hdr.raw[:], p[:headerSize])

	hdr.prgsz = int(hdr.raw[4]) * PRGBankSize
	hdr.chrsz = int(hdr.raw[5]) * CHRBankSize
	return nil
}

// HasTrainer indicates the presence of a trainer section in the rom.
func (hdr *header) HasTrainer() bool {
	return hdr.raw[6]&0x04 != 0
}

// HasPersistent indicates the presence of battery-backed memory.
func (hdr *header) HasPersistent() bool {
	return hdr.raw[6]&0x02 != 0
}

// VerticalMirroring reports whether the nametables are mirrored vertically,
// rather than horizontally.
func (hdr *header) VerticalMirroring() bool {
	return hdr.raw[6]&0x01 != 0
}

// Mapper returns the mapper number. The upper nibble is ignored for images
// with garbage in bytes 7-15.
func (hdr *header) Mapper() uint8 {
	lo := hdr.raw[6] >> 4
	if hdr.dirty() {
		return lo
	}
	return hdr.raw[7]&0xF0 | lo
}

// dirty reports whether the header comes from an old dumping tool which wrote
// its signature in the unused bytes.
func (hdr *header) dirty() bool {
	for _, b := range hdr.raw[12:] {
		if b != 0 {
			return true
		}
	}
	return false
}

// PRGBanks returns the number of 16KB program banks.
func (hdr *header) PRGBanks() int { return int(hdr.raw[4]) }

// CHRBanks returns the number of 8KB pattern banks.
func (hdr *header) CHRBanks() int { return int(hdr.raw[5]) }
