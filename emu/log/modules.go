package log

import "gopkg.in/Sirupsen/logrus.v0"

type ModuleMask uint64
type Module uint

const (
	ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF
)

// Predefine the modules used by the emulator core. Packages outside the core
// can register additional modules through NewModule().
const (
	ModEmu Module = iota + 1
	ModCPU
	ModMem
	ModHwIo
	ModPPU
	ModDMA
	ModInput

	endStandardMods
)

var modCount = endStandardMods

var (
	modDebugMask ModuleMask = 0
	disabled     bool
)

var modNames = []string{
	"<error>", "emu", "cpu", "mem", "hwio", "ppu", "dma", "input",
}

func NewModule(name string) Module {
	mod := modCount
	modCount++
	modNames = append(modNames, name)
	return mod
}

func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if idx != 0 && s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the names of all registered modules.
func ModuleNames() []string {
	return append([]string(nil), modNames[1:]...)
}

func (mod Module) String() string {
	if int(mod) >= len(modNames) {
		return modNames[0]
	}
	return modNames[mod]
}

func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
	if modDebugMask != 0 {
		setBackendLevel(DebugLevel)
	}
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

// Disable turns off logging entirely, including warnings and errors.
func Disable() {
	disabled = true
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) Enabled(level Level) bool {
	if disabled {
		return false
	}
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

// printf-like family, for messages that aren't on a hot path.

func (mod Module) logf(lvl Level, format string, args ...any) {
	if !mod.Enabled(lvl) {
		return
	}
	entry := logrus.StandardLogger().WithField("_mod", mod.String())
	switch lvl {
	case DebugLevel:
		entry.Debugf(format, args...)
	case InfoLevel:
		entry.Infof(format, args...)
	case WarnLevel:
		entry.Warnf(format, args...)
	case ErrorLevel:
		entry.Errorf(format, args...)
	case FatalLevel:
		entry.Fatalf(format, args...)
	}
}

func (mod Module) Debugf(format string, args ...any) { mod.logf(DebugLevel, format, args...) }
func (mod Module) Infof(format string, args ...any)  { mod.logf(InfoLevel, format, args...) }
func (mod Module) Warnf(format string, args ...any)  { mod.logf(WarnLevel, format, args...) }
func (mod Module) Errorf(format string, args ...any) { mod.logf(ErrorLevel, format, args...) }
func (mod Module) Fatalf(format string, args ...any) { mod.logf(FatalLevel, format, args...) }

// Structured, allocation-free when disabled.

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if mod.Enabled(lvl) {
		e := entryPool.Get().(*EntryZ)
		e.lvl = lvl
		e.msg = msg
		e.mod = mod
		return e
	}
	return nil
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }
