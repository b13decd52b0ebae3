package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"nescore/emu/log"
)

type mode byte

const (
	runMode      mode = iota // Run a ROM in a window
	headlessMode             // Run a ROM without presentation
	romInfosMode             // Show ROM infos
	disasmMode               // Disassemble a ROM
	versionMode              // Show version
)

type (
	CLI struct {
		Run      Run      `cmd:"" help:"Run ROM in emulator window."`
		Headless Headless `cmd:"" help:"Run ROM without window, for a number of frames."`
		RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		Disasm   Disasm   `cmd:"" help:"Disassemble ROM, from the reset vector."`
		Version  Version  `cmd:"" help:"Show nescore version."`

		Log       logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config    string     `help:"${config_help}" type:"path" placeholder:"FILE"`
		Statsview bool       `help:"${statsview_help}"`

		mode mode
	}

	Run struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" required:"true" type:"existingfile"`

		Trace *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
	}

	Headless struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"${rompath_help}" required:"true" type:"existingfile"`

		Frames     int64    `name:"frames" help:"Number of frames to run." default:"60"`
		PNG        string   `name:"png" help:"Save last frame as PNG." type:"path" placeholder:"FILE"`
		Digest     bool     `name:"digest" help:"Print the digest of all frames."`
		Trace      *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		State      string   `name:"state" help:"Save final state as JSON." type:"path" placeholder:"FILE"`
		Graph      string   `name:"graph" help:"Save final state as a Graphviz graph." type:"path" placeholder:"FILE"`
		CPUProfile string   `name:"cpuprofile" help:"${cpuprofile_help}" type:"path"`
	}

	RomInfos struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
	}

	Disasm struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`

		Count int `name:"count" help:"Number of instructions to disassemble." default:"32"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"rompath_help":    "Path to the iNES ROM file.",
	"cpuprofile_help": "Write CPU profile to file.",
	"log_help":        "Enable logging for specified modules.",
	"config_help":     "Configuration file (defaults to the user configuration directory).",
	"statsview_help":  "Serve runtime statistics at http://" + statsviewAddr + "/debug/statsview.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("nescore"),
		kong.Description("Cycle-accurate NES emulator core."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")

	switch ctx.Command() {
	case "headless </path/to/rom>":
		cfg.mode = headlessMode
	case "rom-infos </path/to/rom>":
		cfg.mode = romInfosMode
	case "disasm </path/to/rom>":
		cfg.mode = disasmMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm *logModMask) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	str, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected a list of log modules, got %v", tok.Value)
	}
	return lm.parse(str)
}

func (lm *logModMask) parse(list string) error {
	nolog := false
	allLogs := false

	for _, v := range strings.Split(list, ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			*lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if *lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		*lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(*lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	name, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected a file name, got %v", tok.Value)
	}
	return f.open(name)
}

func (f *outfile) open(name string) error {
	f.name = name
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n\t%s", append(args, err)...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
