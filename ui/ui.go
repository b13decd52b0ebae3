// Package ui shows the emulator frames in an SDL window and forwards the
// keyboard to the controllers.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/hw"
)

var modUI = log.NewModule("ui")

type binding struct {
	pad int
	btn uint8
}

// keyMap builds the scancode to controller button mapping from the key names
// found in the configuration.
func keyMap(cfg emu.InputConfig) (map[sdl.Scancode]binding, error) {
	km := make(map[sdl.Scancode]binding)
	for pad, keys := range []map[string]string{cfg.Pad1, cfg.Pad2} {
		for btnName, keyName := range keys {
			btn, ok := emu.ButtonByName(btnName)
			if !ok {
				return nil, fmt.Errorf("pad%d: unknown button %q", pad+1, btnName)
			}
			sc := sdl.GetScancodeFromName(keyName)
			if sc == sdl.SCANCODE_UNKNOWN {
				return nil, fmt.Errorf("pad%d: unknown key %q for button %q", pad+1, keyName, btnName)
			}
			km[sc] = binding{pad: pad, btn: btn}
		}
	}
	return km, nil
}

// hotkeys
const (
	keyQuit  = sdl.SCANCODE_ESCAPE
	keyPause = sdl.SCANCODE_F5
	keyReset = sdl.SCANCODE_F2
)

type UI struct {
	e      *emu.Emulator
	win    *window
	keymap map[sdl.Scancode]binding
	quit   bool
}

// Run opens the window and presents the emulator frames until the window is
// closed, ctx is done or the emulator stops publishing frames. It must be
// called from the function passed to sdl.Main.
func Run(ctx context.Context, e *emu.Emulator, cfg emu.Config) error {
	km, err := keyMap(cfg.Input)
	if err != nil {
		return err
	}

	ui := &UI{e: e, keymap: km}
	sdl.Do(func() {
		ui.win, err = newWindow("nescore", hw.ScreenWidth, hw.ScreenHeight, cfg.Video.Scale, !cfg.Video.DisableVSync)
	})
	if err != nil {
		return err
	}
	defer sdl.Do(func() { ui.win.Close() })

	modUI.InfoZ("Window opened").Int("scale", cfg.Video.Scale).End()

	// Events are still polled when no frame comes in, while paused.
	poll := time.NewTicker(20 * time.Millisecond)
	defer poll.Stop()

	for !ui.quit {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-e.Frames():
			if !ok {
				return nil
			}
			sdl.Do(func() {
				ui.win.draw(frame.Video)
				ui.pollEvents()
			})
		case <-poll.C:
			sdl.Do(ui.pollEvents)
		}
	}

	modUI.InfoZ("Window closed").End()
	return nil
}

func (ui *UI) pollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case sdl.QuitEvent:
			ui.quit = true
		case sdl.WindowEvent:
			if ev.Event == sdl.WINDOWEVENT_RESIZED {
				ui.win.resize(ev.Data1, ev.Data2)
			}
		case sdl.KeyboardEvent:
			ui.handleKey(ev)
		}
	}
}

func (ui *UI) handleKey(ev sdl.KeyboardEvent) {
	pressed := ev.State == sdl.PRESSED
	sc := ev.Keysym.Scancode

	if b, ok := ui.keymap[sc]; ok {
		if pressed {
			ui.e.Pads.Press(b.pad, b.btn)
		} else {
			ui.e.Pads.Release(b.pad, b.btn)
		}
		return
	}

	if !pressed || ev.Repeat != 0 {
		return
	}
	switch sc {
	case keyQuit:
		ui.quit = true
	case keyPause:
		paused := !ui.e.Paused()
		ui.e.SetPause(paused)
		modUI.InfoZ("Pause").Bool("paused", paused).End()
	case keyReset:
		ui.e.Reset()
	}
}
