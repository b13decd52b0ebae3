package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"nescore/ines"
)

func romInfosMain(args RomInfos, w io.Writer) {
	rom, err := ines.Open(args.RomPath)
	checkf(err, "failed to open rom")
	printRomInfos(w, rom)
}

func printRomInfos(w io.Writer, rom *ines.Rom) {
	mirroring := "horizontal"
	if rom.VerticalMirroring() {
		mirroring = "vertical"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "PRG ROM:\t%d x 16KB\n", rom.PRGBanks())
	fmt.Fprintf(tw, "CHR ROM:\t%d x 8KB\n", rom.CHRBanks())
	fmt.Fprintf(tw, "Mapper:\t%d\n", rom.Mapper())
	fmt.Fprintf(tw, "Mirroring:\t%s\n", mirroring)
	fmt.Fprintf(tw, "Trainer:\t%t\n", rom.HasTrainer())
	fmt.Fprintf(tw, "Battery:\t%t\n", rom.HasPersistent())
	tw.Flush()
}

// disasmMain disassembles the program, linearly, from the reset vector.
func disasmMain(args Disasm, w io.Writer) {
	nes := powerUp(args.RomPath)

	pc := nes.CPU.PC
	for range args.Count {
		op := nes.CPU.Disasm(pc)
		fmt.Fprintln(w, op.String())
		pc += uint16(op.Len())
	}
}
