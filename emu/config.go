package emu

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"nescore/emu/log"
)

type Config struct {
	Video     VideoConfig     `toml:"video"`
	Input     InputConfig     `toml:"input"`
	Emulation EmulationConfig `toml:"emulation"`
	Log       LogConfig       `toml:"log"`
}

type VideoConfig struct {
	Scale        int  `toml:"scale"`
	DisableVSync bool `toml:"disable_vsync"`
}

// InputConfig maps controller buttons to keyboard keys, for both pads. Keys
// are SDL key names, such as "Left" or "Return".
type InputConfig struct {
	Pad1 map[string]string `toml:"pad1"`
	Pad2 map[string]string `toml:"pad2"`
}

type EmulationConfig struct {
	FrameLimit int64  `toml:"frame_limit"` // stop after that many frames, 0 for no limit
	TraceFile  string `toml:"trace_file"`  // CPU trace log destination, empty to disable
}

type LogConfig struct {
	Modules []string `toml:"modules"` // modules with debug logs enabled
}

const DefaultFileMode = os.FileMode(0755)

func DefaultConfig() Config {
	return Config{
		Video: VideoConfig{
			Scale: 2,
		},
		Input: InputConfig{
			Pad1: map[string]string{
				"a":      "X",
				"b":      "Z",
				"select": "Right Shift",
				"start":  "Return",
				"up":     "Up",
				"down":   "Down",
				"left":   "Left",
				"right":  "Right",
			},
			Pad2: map[string]string{},
		},
	}
}

// DefaultConfigPath returns the path of the configuration file in the user
// configuration directory.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nescore", "config.toml"), nil
}

// Check validates the configuration values and fixes what can be fixed.
func (cfg *Config) Check() error {
	if cfg.Video.Scale < 1 {
		log.ModEmu.WarnZ("Invalid video scale, fallback to 1").Int("scale", cfg.Video.Scale).End()
		cfg.Video.Scale = 1
	}
	if cfg.Emulation.FrameLimit < 0 {
		return fmt.Errorf("negative frame limit: %d", cfg.Emulation.FrameLimit)
	}
	for i, pad := range []map[string]string{cfg.Input.Pad1, cfg.Input.Pad2} {
		for btn := range pad {
			if _, ok := ButtonByName(btn); !ok {
				return fmt.Errorf("pad%d: unknown button %q", i+1, btn)
			}
		}
	}
	for _, name := range cfg.Log.Modules {
		if _, ok := log.ModuleByName(name); !ok {
			return fmt.Errorf("unknown log module %q", name)
		}
	}
	return nil
}

// LoadConfigOrDefault loads the configuration at path. If the file doesn't
// exist, the default configuration is written there and returned.
func LoadConfigOrDefault(path string) (Config, error) {
	cfg := DefaultConfig()

	buf, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.ModEmu.InfoZ("Config file not found, creating default").String("path", path).End()
		if err := SaveConfig(path, cfg); err != nil {
			log.ModEmu.WarnZ("Failed to save default config").Error("err", err).End()
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	md, err := toml.Decode(string(buf), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.Warnf("%s: unknown config key %q", path, key)
	}
	if err := cfg.Check(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg at path, creating the parent directories if needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultFileMode); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
