package generator

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	coderrors "github.com/lading-rig/lading/errors"

	"github.com/lading-rig/lading/block"
	"github.com/lading-rig/lading/cache"
	"github.com/lading-rig/lading/shutdown"
	"github.com/lading-rig/lading/telemetry"
	"github.com/lading-rig/lading/throttle"
)

// nopSink discards every metric; tests assert on behaviour, not on what
// gets reported.
type nopSink struct{}

func (nopSink) Counter(name string, labels telemetry.Labels) telemetry.Counter { return nopMetric{} }
func (nopSink) Gauge(name string, labels telemetry.Labels) telemetry.Gauge     { return nopMetric{} }

type nopMetric struct{}

func (nopMetric) Add(float64)   {}
func (nopMetric) Set(float64)   {}

// fixedCache hands out one repeating block forever, bypassing the real
// cache package so these tests exercise only the adapter loop.
type fixedCache struct {
	payload []byte
}

func (c fixedCache) Spin(ctx context.Context) cache.Receiver {
	out := make(chan block.Block, 1)
	go func() {
		defer close(out)
		for {
			select {
			case out <- block.Block{Bytes: c.payload, TotalBytes: len(c.payload)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return &testReceiver{ch: out}
}

type testReceiver struct {
	ch     <-chan block.Block
	peeked *block.Block
}

func (r *testReceiver) Peek(ctx context.Context) (block.Block, error) {
	if r.peeked != nil {
		return *r.peeked, nil
	}
	select {
	case b, ok := <-r.ch:
		if !ok {
			return block.Block{}, errors.New("closed")
		}
		r.peeked = &b
		return b, nil
	case <-ctx.Done():
		return block.Block{}, ctx.Err()
	}
}

func (r *testReceiver) Next(ctx context.Context) (block.Block, error) {
	if r.peeked != nil {
		b := *r.peeked
		r.peeked = nil
		return b, nil
	}
	return r.Peek(ctx)
}

// recordingTransport captures every byte slice written, for assertions.
type recordingTransport struct {
	mu      sync.Mutex
	writes  [][]byte
	connects int
}

func (t *recordingTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	t.connects++
	t.mu.Unlock()
	return nil
}

func (t *recordingTransport) Write(ctx context.Context, b []byte) (int, error) {
	t.mu.Lock()
	cp := append([]byte(nil), b...)
	t.writes = append(t.writes, cp)
	t.mu.Unlock()
	return len(b), nil
}

func (t *recordingTransport) Close() error { return nil }

func (t *recordingTransport) snapshot() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}

func TestGeneratorWritesBlocksUntilShutdown(t *testing.T) {
	th, err := throttle.New(1_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("throttle.New: %v", err)
	}
	notifier := shutdown.New()
	transport := &recordingTransport{}

	g := New(Config{
		Kind:           "test",
		Cache:          fixedCache{payload: []byte("hello")},
		Throttle:       th,
		Shutdown:       notifier.Subscribe(),
		Transport:      transport,
		BytesPerSecond: 1_000_000,
		Sink:           nopSink{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- g.Spin(ctx) }()

	// Let it run briefly, then shut down.
	time.Sleep(50 * time.Millisecond)
	notifier.Signal()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Spin: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Spin did not return after shutdown was signalled")
	}

	writes := transport.snapshot()
	if len(writes) == 0 {
		t.Fatalf("expected at least one write before shutdown")
	}
	for _, w := range writes {
		if !bytes.Equal(w, []byte("hello")) {
			t.Fatalf("unexpected write content: %q", w)
		}
	}
}

func TestGeneratorReconnectsOnConnectFailure(t *testing.T) {
	th, err := throttle.New(1_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("throttle.New: %v", err)
	}
	notifier := shutdown.New()

	ft := &failThenSucceedTransport{failures: 2}
	g := New(Config{
		Kind:             "test",
		Cache:            fixedCache{payload: []byte("x")},
		Throttle:         th,
		Shutdown:         notifier.Subscribe(),
		Transport:        ft,
		ReconnectBackoff: time.Millisecond,
		BytesPerSecond:   1_000_000,
		Sink:             nopSink{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- g.Spin(ctx) }()

	time.Sleep(50 * time.Millisecond)
	notifier.Signal()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Spin did not return")
	}

	if ft.attempts() < 3 {
		t.Fatalf("expected at least 3 connect attempts (2 failures + 1 success), got %d", ft.attempts())
	}
}

type failThenSucceedTransport struct {
	mu       sync.Mutex
	failures int
	tries    int
}

func (t *failThenSucceedTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tries++
	if t.tries <= t.failures {
		return errors.New("refused")
	}
	return nil
}

func (t *failThenSucceedTransport) Write(ctx context.Context, b []byte) (int, error) {
	return len(b), nil
}

func (t *failThenSucceedTransport) Close() error { return nil }

func (t *failThenSucceedTransport) attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tries
}

// A block larger than the throttle's burst capacity can never be admitted;
// Spin must report this as a fatal error rather than exit 0 as if shutdown
// had fired.
func TestGeneratorReturnsErrorWhenBlockExceedsBurst(t *testing.T) {
	th, err := throttle.New(1_000, 1_000)
	if err != nil {
		t.Fatalf("throttle.New: %v", err)
	}
	notifier := shutdown.New()
	transport := &recordingTransport{}

	g := New(Config{
		Kind:           "test",
		Cache:          fixedCache{payload: bytes.Repeat([]byte("x"), 2_000)},
		Throttle:       th,
		Shutdown:       notifier.Subscribe(),
		Transport:      transport,
		BytesPerSecond: 1_000,
		Sink:           nopSink{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- g.Spin(ctx) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("Spin: expected an error, got nil")
		}
		if coderrors.CodeOf(err) != coderrors.CodeBlockCreation {
			t.Fatalf("Spin: expected CodeBlockCreation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Spin did not return")
	}

	if len(transport.snapshot()) != 0 {
		t.Fatalf("expected no writes before the fatal error")
	}
}
