package emu

import (
	"context"
	"image"

	"nescore/hw"
)

// A Frame is a completed picture, as published by the emulator.
type Frame struct {
	Video  []byte // RGBA pixels, hw.ScreenWidth*hw.ScreenHeight*4 bytes.
	Number int64  // 1 for the first emulated frame.
}

// Image wraps the frame pixels into an image, without copying them.
func (f Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Video,
		Stride: 4 * hw.ScreenWidth,
		Rect:   image.Rect(0, 0, hw.ScreenWidth, hw.ScreenHeight),
	}
}

type OutputConfig struct {
	// Number of video buffers in the ring. At least 3: one being rendered,
	// one being consumed, the rest queued.
	NumVideoBuffers int
}

// Output cycles through a ring of video buffers. The emulator renders into
// the buffer returned by BeginFrame, and EndFrame publishes it.
//
// A published buffer is only reused after NumVideoBuffers-1 other frames have
// been started, so the consumer owns a frame until it receives the next one.
type Output struct {
	framebufidx int
	framebuf    [][]byte

	framecounter int64
	framech      chan Frame
}

func NewOutput(cfg OutputConfig) *Output {
	if cfg.NumVideoBuffers < 3 {
		cfg.NumVideoBuffers = 3
	}
	vb := make([][]byte, cfg.NumVideoBuffers)
	for i := range vb {
		vb[i] = make([]byte, hw.ScreenWidth*hw.ScreenHeight*4)
	}
	return &Output{
		framebuf: vb,
		framech:  make(chan Frame, cfg.NumVideoBuffers-2),
	}
}

// Frames returns the channel on which completed frames are published. It is
// closed when the emulator loop exits.
func (o *Output) Frames() <-chan Frame {
	return o.framech
}

func (o *Output) BeginFrame() (video []byte) {
	o.framebufidx++
	if o.framebufidx == len(o.framebuf) {
		o.framebufidx = 0
	}
	return o.framebuf[o.framebufidx]
}

// EndFrame publishes video, blocking until the consumer has room for it or
// ctx is done.
func (o *Output) EndFrame(ctx context.Context, video []byte) error {
	o.framecounter++
	select {
	case o.framech <- Frame{Video: video, Number: o.framecounter}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Output) close() {
	close(o.framech)
}
