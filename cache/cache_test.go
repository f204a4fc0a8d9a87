package cache

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/lading-rig/lading/payload"
	"github.com/lading-rig/lading/size"
)

// fixedRecordVariant repeats the same record, never partially, until the
// next copy would overflow maxBytes.
type fixedRecordVariant struct {
	record []byte
}

var _ payload.Variant = fixedRecordVariant{}

func (v fixedRecordVariant) MinRecordSize() int { return len(v.record) }

func (v fixedRecordVariant) Serialize(w io.Writer, maxBytes int) (int, error) {
	bw := payload.NewBoundedWriter(w, maxBytes)
	for {
		ok, err := bw.TryWrite(v.record)
		if err != nil {
			return bw.Written, err
		}
		if !ok {
			return bw.Written, nil
		}
	}
}

func TestConstructRejectsEmptyBlockSizes(t *testing.T) {
	_, err := Construct(Config{
		BlockSizes:      nil,
		TotalByteBudget: size.SizeMega,
		Variant:         fixedRecordVariant{record: []byte("x")},
	})
	if err != ErrEmptyBlockSizes {
		t.Fatalf("got %v, want ErrEmptyBlockSizes", err)
	}
}

func TestConstructRejectsBudgetTooSmall(t *testing.T) {
	_, err := Construct(Config{
		BlockSizes:      []size.Size{size.SizeMega},
		TotalByteBudget: 10,
		Variant:         fixedRecordVariant{record: []byte("x")},
	})
	if err != ErrBudgetTooSmall {
		t.Fatalf("got %v, want ErrBudgetTooSmall", err)
	}
}

func TestConstructRejectsVariantTooLarge(t *testing.T) {
	_, err := Construct(Config{
		BlockSizes:      []size.Size{10},
		TotalByteBudget: size.SizeMega,
		Variant:         fixedRecordVariant{record: bytes.Repeat([]byte("x"), 100)},
	})
	if err != ErrVariantTooSmall {
		t.Fatalf("got %v, want ErrVariantTooSmall", err)
	}
}

func TestFixedCachePeekIsIdempotent(t *testing.T) {
	c, err := Construct(Config{
		Method:          Fixed,
		BlockSizes:      []size.Size{16},
		TotalByteBudget: 64,
		Variant:         fixedRecordVariant{record: []byte("0123456789ab")},
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	recv := c.Spin(ctx)

	first, err := recv.Peek(ctx)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	second, err := recv.Peek(ctx)
	if err != nil {
		t.Fatalf("Peek (again): %v", err)
	}
	if !bytes.Equal(first.Bytes, second.Bytes) {
		t.Fatalf("successive Peek calls returned different blocks")
	}

	committed, err := recv.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !bytes.Equal(first.Bytes, committed.Bytes) {
		t.Fatalf("Next after Peek returned a different block than the peeked one")
	}
}

func TestStreamingCacheProducesBlocks(t *testing.T) {
	c, err := Construct(Config{
		Method:          Streaming,
		BlockSizes:      []size.Size{16, 32},
		TotalByteBudget: size.SizeMega,
		Variant:         fixedRecordVariant{record: []byte("0123456789ab")},
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	recv := c.Spin(ctx)

	for i := 0; i < 5; i++ {
		b, err := recv.Next(ctx)
		if err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
		if b.TotalBytes == 0 {
			t.Fatalf("Next #%d returned an empty block", i)
		}
	}
}
