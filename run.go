package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"runtime/pprof"

	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/sync/errgroup"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/hw"
	"nescore/ines"
	"nescore/ui"
)

func powerUp(path string) *hw.NES {
	rom, err := ines.Open(path)
	checkf(err, "failed to open rom")

	nes, err := emu.PowerUp(rom)
	checkf(err, "failed to start emulator")
	return nes
}

// openTrace returns the trace log destination, either from the command line
// or the configuration file, or nil if tracing is disabled.
func openTrace(flag *outfile, cfgpath string) *outfile {
	if flag != nil {
		return flag
	}
	if cfgpath == "" {
		return nil
	}
	f := new(outfile)
	checkf(f.open(cfgpath), "failed to open trace file")
	return f
}

// runMain runs the emulator in a window until the window is closed.
func runMain(ctx context.Context, args Run, cfg emu.Config) {
	nes := powerUp(args.RomPath)
	if trace := openTrace(args.Trace, cfg.Emulation.TraceFile); trace != nil {
		defer trace.Close()
		nes.SetTraceOutput(trace)
	}

	e := emu.NewEmulator(nes, cfg.Emulation)

	var err error
	sdl.Main(func() {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return e.Run(ctx)
		})
		g.Go(func() error {
			// Closing the window stops the emulation.
			defer cancel()
			return ui.Run(ctx, e, cfg)
		})
		err = g.Wait()
	})
	checkf(err, "emulation failed")
	reportDiagnostics(nes)
}

// headlessMain runs the emulator for a fixed number of frames, then saves
// what's been asked for.
func headlessMain(ctx context.Context, args Headless, cfg emu.Config) {
	if args.Frames <= 0 {
		fatalf("invalid number of frames: %d", args.Frames)
	}

	nes := powerUp(args.RomPath)
	if trace := openTrace(args.Trace, cfg.Emulation.TraceFile); trace != nil {
		defer trace.Close()
		nes.SetTraceOutput(trace)
	}

	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile file")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			fmt.Fprintln(os.Stderr, "CPU profile written to", args.CPUProfile)
		}()
	}

	ecfg := cfg.Emulation
	ecfg.FrameLimit = args.Frames
	e := emu.NewEmulator(nes, ecfg)

	var (
		digest emu.Digest
		last   []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.Run(gctx)
	})
	g.Go(func() error {
		for frame := range e.Frames() {
			digest.Add(frame.Video)
			last = append(last[:0], frame.Video...)
		}
		return nil
	})
	checkf(g.Wait(), "emulation failed")

	log.ModEmu.InfoZ("Headless run done").
		Int64("frames", e.FrameCount()).
		Int64("cycles", nes.CPU.Cycles).
		End()
	reportDiagnostics(nes)

	if args.Digest {
		fmt.Printf("%s  %d frames\n", digest.Hash(), digest.Frames())
	}
	if args.PNG != "" {
		checkf(savePNG(args.PNG, last), "failed to save screenshot")
	}
	if args.State != "" {
		checkf(createAndWrite(args.State, nes.Snapshot().Encode), "failed to save state")
	}
	if args.Graph != "" {
		checkf(createAndWrite(args.Graph, func(w io.Writer) error {
			nes.Snapshot().WriteGraph(w)
			return nil
		}), "failed to save state graph")
	}
}

func reportDiagnostics(nes *hw.NES) {
	for _, err := range nes.CPU.Diagnostics() {
		log.ModEmu.WarnZ("CPU diagnostic").Error("err", err).End()
	}
}

func savePNG(path string, video []byte) error {
	if video == nil {
		return errors.New("no frame rendered")
	}
	return createAndWrite(path, func(w io.Writer) error {
		return png.Encode(w, emu.Frame{Video: video}.Image())
	})
}

func createAndWrite(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
