// Package syslog implements an RFC3164-shaped payload variant: one
// "<PRI>TIMESTAMP HOST TAG: MESSAGE" line per record.
package syslog

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/lading-rig/lading/payload"
)

// Syslog serialises newline-terminated syslog-shaped lines.
type Syslog struct {
	rng  *rand.Rand
	host string
	tag  string
}

var _ payload.Variant = (*Syslog)(nil)

// New constructs a Syslog variant from a 32-byte seed.
func New(seed payload.Seed) (*Syslog, error) {
	rng := payload.NewRand(seed)
	return &Syslog{rng: rng, host: randomToken(rng, 6, 12), tag: randomToken(rng, 3, 8)}, nil
}

func (s *Syslog) MinRecordSize() int {
	return len("<0>Jan  1 00:00:00 h t:  \n")
}

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func (s *Syslog) Serialize(w io.Writer, maxBytes int) (int, error) {
	bw := payload.NewBoundedWriter(w, maxBytes)

	for {
		pri := s.rng.Intn(192)
		line := fmt.Sprintf("<%d>%s %2d %02d:%02d:%02d %s %s[%d]: %s\n",
			pri,
			months[s.rng.Intn(len(months))],
			1+s.rng.Intn(28),
			s.rng.Intn(24), s.rng.Intn(60), s.rng.Intn(60),
			s.host, s.tag, 1+s.rng.Intn(65000),
			randomToken(s.rng, 10, 80),
		)

		ok, err := bw.TryWrite([]byte(line))
		if err != nil {
			return bw.Written, err
		}
		if !ok {
			return bw.Written, nil
		}
	}
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomToken(rng *rand.Rand, minLen, maxLen int) string {
	n := minLen
	if maxLen > minLen {
		n += rng.Intn(maxLen - minLen + 1)
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[rng.Intn(len(tokenAlphabet))]
	}
	return string(b)
}
