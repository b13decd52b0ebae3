package emu

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"nescore/hw"
)

func TestOutputRing(t *testing.T) {
	out := NewOutput(OutputConfig{NumVideoBuffers: 1})
	if len(out.framebuf) != 3 {
		t.Fatalf("got %d video buffers, want 3", len(out.framebuf))
	}

	ctx := context.Background()

	// The consumer holds a frame while another one is queued: the next
	// buffer must be different from both.
	v1 := out.BeginFrame()
	if err := out.EndFrame(ctx, v1); err != nil {
		t.Fatal(err)
	}
	held := <-out.Frames()

	v2 := out.BeginFrame()
	if err := out.EndFrame(ctx, v2); err != nil {
		t.Fatal(err)
	}
	v3 := out.BeginFrame()

	if &v3[0] == &held.Video[0] || &v3[0] == &v2[0] {
		t.Error("buffer in use handed back to the emulator")
	}
	if held.Number != 1 {
		t.Errorf("frame number = %d, want 1", held.Number)
	}
}

func TestOutputEndFrameCanceled(t *testing.T) {
	out := NewOutput(OutputConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	// Fill the queue.
	if err := out.EndFrame(ctx, out.BeginFrame()); err != nil {
		t.Fatal(err)
	}

	cancel()
	if err := out.EndFrame(ctx, out.BeginFrame()); err != context.Canceled {
		t.Errorf("EndFrame returned %v, want %v", err, context.Canceled)
	}
}

func TestFrameImage(t *testing.T) {
	video := make([]byte, hw.ScreenWidth*hw.ScreenHeight*4)
	off := (10*hw.ScreenWidth + 20) * 4
	copy(video[off:], []byte{1, 2, 3, 4})

	img := Frame{Video: video}.Image()
	if got := img.RGBAAt(20, 10); !bytes.Equal([]byte{got.R, got.G, got.B, got.A}, []byte{1, 2, 3, 4}) {
		t.Errorf("pixel (20,10) = %v", got)
	}
	if img.Bounds().Dx() != hw.ScreenWidth || img.Bounds().Dy() != hw.ScreenHeight {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func TestDigest(t *testing.T) {
	a := bytes.Repeat([]byte{0xAA}, 64)
	b := bytes.Repeat([]byte{0xBB}, 64)

	var d1, d2, d3 Digest
	d1.Add(a)
	d1.Add(b)
	d2.Add(a)
	d2.Add(b)
	d3.Add(b)
	d3.Add(a)

	if d1.Hash() != d2.Hash() {
		t.Errorf("same frames, different digests: %s != %s", d1.Hash(), d2.Hash())
	}
	if d1.Hash() == d3.Hash() {
		t.Error("digest doesn't depend on frame order")
	}
	if len(d1.Hash()) != 40 {
		t.Errorf("hash length = %d, want 40", len(d1.Hash()))
	}
	if d1.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", d1.Frames())
	}

	d1.Reset()
	if d1.Frames() != 0 || d1.Hash() != strings.Repeat("0", 40) {
		t.Errorf("after reset: %d frames, hash %s", d1.Frames(), d1.Hash())
	}
}

func TestPads(t *testing.T) {
	var p Pads

	p.Press(0, hw.PadA|hw.PadStart)
	p.Press(1, hw.PadLeft)
	p.Release(0, hw.PadA)
	if p1, p2 := p.LoadState(); p1 != hw.PadStart || p2 != hw.PadLeft {
		t.Errorf("LoadState() = %02X, %02X, want %02X, %02X", p1, p2, hw.PadStart, hw.PadLeft)
	}

	p.Set(1, 0xFF)
	if _, p2 := p.LoadState(); p2 != 0xFF {
		t.Errorf("pad 2 = %02X, want FF", p2)
	}
}

func TestButtonByName(t *testing.T) {
	tests := map[string]uint8{
		"a": hw.PadA, "b": hw.PadB, "select": hw.PadSelect, "start": hw.PadStart,
		"up": hw.PadUp, "down": hw.PadDown, "left": hw.PadLeft, "right": hw.PadRight,
	}
	for name, want := range tests {
		if got, ok := ButtonByName(name); !ok || got != want {
			t.Errorf("ButtonByName(%q) = %02X, %t, want %02X", name, got, ok, want)
		}
	}
	if _, ok := ButtonByName("turbo"); ok {
		t.Error("ButtonByName(turbo) should fail")
	}
}
