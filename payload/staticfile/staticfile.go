// Package staticfile implements the "static file" payload variant referenced
// in spec.md §3: it replays the bytes of a fixed file (or an in-memory
// template, for tests) rather than synthesising records. Determinism is
// trivial here — the same bytes are emitted every time — which is exactly
// why it is useful as a baseline for the cache's budget-bound tests.
package staticfile

import (
	"io"
	"os"

	"github.com/lading-rig/lading/payload"
)

// StaticFile replays the same byte template on every Serialize call,
// truncated (never split mid-copy beyond the budget) to fit maxBytes.
type StaticFile struct {
	template []byte
}

var _ payload.Variant = (*StaticFile)(nil)

// New constructs a StaticFile variant from the contents of path.
func New(path string) (*StaticFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewFromBytes(b), nil
}

// NewFromBytes constructs a StaticFile variant directly from a byte
// template, useful for tests that don't want to touch the filesystem.
func NewFromBytes(b []byte) *StaticFile {
	return &StaticFile{template: b}
}

func (s *StaticFile) MinRecordSize() int {
	if len(s.template) == 0 {
		return 1
	}
	return len(s.template)
}

// Serialize copies up to maxBytes of the template's whole-copy repetitions;
// a partial trailing copy is never written (spec.md §4.1's "partial writes
// of a record are forbidden").
func (s *StaticFile) Serialize(w io.Writer, maxBytes int) (int, error) {
	if len(s.template) == 0 {
		return 0, nil
	}

	bw := payload.NewBoundedWriter(w, maxBytes)
	for {
		ok, err := bw.TryWrite(s.template)
		if err != nil {
			return bw.Written, err
		}
		if !ok {
			return bw.Written, nil
		}
	}
}
