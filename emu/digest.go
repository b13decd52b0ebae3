package emu

import (
	"crypto/sha1"
	"fmt"
)

// Digest fingerprints a sequence of frames. Each frame is hashed together
// with the digest of the previous ones, so that the final value depends on
// every frame and their order.
//
// SHA-1 is fine here, this is not a cryptographic task.
type Digest struct {
	digest [sha1.Size]byte
	frames int
}

// Add chains the video buffer of a frame into the digest.
func (d *Digest) Add(video []byte) {
	h := sha1.New()
	h.Write(d.digest[:])
	h.Write(video)
	h.Sum(d.digest[:0])
	d.frames++
}

// Frames returns the number of frames added so far.
func (d *Digest) Frames() int {
	return d.frames
}

// Hash returns the hexadecimal digest.
func (d *Digest) Hash() string {
	return fmt.Sprintf("%x", d.digest)
}

func (d *Digest) Reset() {
	*d = Digest{}
}
