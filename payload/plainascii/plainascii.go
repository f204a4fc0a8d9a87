// Package plainascii implements the simplest payload variant: fixed-width,
// newline-terminated lines of random printable ASCII. It exists for
// deterministic-output tests (spec.md §8 scenario 2) where a minimal,
// easy-to-reason-about record shape is wanted.
package plainascii

import (
	"io"
	"math/rand"

	"github.com/lading-rig/lading/payload"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

// PlainASCII serialises fixed-length lines of random printable characters.
type PlainASCII struct {
	rng       *rand.Rand
	lineWidth int
}

var _ payload.Variant = (*PlainASCII)(nil)

// New constructs a PlainASCII variant. lineWidth is the payload length of
// each line, excluding its trailing newline; it must be positive.
func New(seed payload.Seed, lineWidth int) (*PlainASCII, error) {
	if lineWidth <= 0 {
		lineWidth = 64
	}
	return &PlainASCII{rng: payload.NewRand(seed), lineWidth: lineWidth}, nil
}

func (p *PlainASCII) MinRecordSize() int {
	return p.lineWidth + 1
}

func (p *PlainASCII) Serialize(w io.Writer, maxBytes int) (int, error) {
	bw := payload.NewBoundedWriter(w, maxBytes)
	line := make([]byte, p.lineWidth+1)
	line[p.lineWidth] = '\n'

	for {
		for i := 0; i < p.lineWidth; i++ {
			line[i] = alphabet[p.rng.Intn(len(alphabet))]
		}
		ok, err := bw.TryWrite(line)
		if err != nil {
			return bw.Written, err
		}
		if !ok {
			return bw.Written, nil
		}
	}
}
