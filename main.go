package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"nescore/emu"
	"nescore/emu/log"
)

const version = "0.1.0"

const statsviewAddr = "localhost:12600"

func main() {
	args := parseArgs(os.Args[1:])

	switch args.mode {
	case versionMode:
		fmt.Println("nescore", version)
		return
	case romInfosMode:
		romInfosMain(args.RomInfos, os.Stdout)
		return
	case disasmMode:
		disasmMain(args.Disasm, os.Stdout)
		return
	}

	cfg := loadConfig(args.Config)
	if args.Statsview {
		launchStatsview(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch args.mode {
	case headlessMode:
		headlessMain(ctx, args.Headless, cfg)
	case runMode:
		runMain(ctx, args.Run, cfg)
	}
}

// loadConfig loads the configuration file and enables the log modules it
// lists, in addition to those given on the command line.
func loadConfig(path string) emu.Config {
	if path == "" {
		var err error
		path, err = emu.DefaultConfigPath()
		checkf(err, "failed to locate configuration directory")
	}

	cfg, err := emu.LoadConfigOrDefault(path)
	checkf(err, "failed to load configuration")

	var mask log.ModuleMask
	for _, name := range cfg.Log.Modules {
		mod, _ := log.ModuleByName(name)
		mask |= mod.Mask()
	}
	if mask != 0 {
		log.EnableDebugModules(mask)
	}
	return cfg
}

// launchStatsview serves the runtime statistics in a new goroutine.
func launchStatsview(w io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsviewAddr))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(w, "stats server available at http://%s/debug/statsview\n", statsviewAddr)
}
