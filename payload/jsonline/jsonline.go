// Package jsonline implements a JSON-lines payload variant: one compact JSON
// object per record, newline-terminated. Representative of structured log
// shippers in the wider lading generator set.
package jsonline

import (
	"encoding/json"
	"io"
	"math/rand"

	"github.com/lading-rig/lading/payload"
)

// JSONLine serialises newline-delimited JSON records.
type JSONLine struct {
	rng *rand.Rand
}

var _ payload.Variant = (*JSONLine)(nil)

// New constructs a JSONLine variant from a 32-byte seed.
func New(seed payload.Seed) (*JSONLine, error) {
	return &JSONLine{rng: payload.NewRand(seed)}, nil
}

func (j *JSONLine) MinRecordSize() int {
	return len(`{"ts":0,"lvl":"i","msg":""}`) + 1
}

type record struct {
	TS      int64   `json:"ts"`
	Level   string  `json:"lvl"`
	Message string  `json:"msg"`
	Value   float64 `json:"value"`
}

var levels = []string{"d", "i", "w", "e"}

func (j *JSONLine) Serialize(w io.Writer, maxBytes int) (int, error) {
	bw := payload.NewBoundedWriter(w, maxBytes)

	for {
		rec := record{
			TS:      j.rng.Int63n(2_000_000_000),
			Level:   levels[j.rng.Intn(len(levels))],
			Message: randomWord(j.rng),
			Value:   j.rng.Float64() * 1000,
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return bw.Written, err
		}
		b = append(b, '\n')

		ok, err := bw.TryWrite(b)
		if err != nil {
			return bw.Written, err
		}
		if !ok {
			return bw.Written, nil
		}
	}
}

const wordAlphabet = "abcdefghijklmnopqrstuvwxyz"

func randomWord(rng *rand.Rand) string {
	n := 4 + rng.Intn(12)
	b := make([]byte, n)
	for i := range b {
		b[i] = wordAlphabet[rng.Intn(len(wordAlphabet))]
	}
	return string(b)
}
