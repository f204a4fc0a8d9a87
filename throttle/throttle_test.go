package throttle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a concurrency-safe clock for tests that advance time from a
// different goroutine than the one blocked in WaitFor.
type fakeClock struct {
	nanos int64
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{nanos: t.UnixNano()}
}

func (c *fakeClock) now() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.nanos))
}

func (c *fakeClock) advance(d time.Duration) {
	atomic.AddInt64(&c.nanos, int64(d))
}

func TestNewRejectsZeroCapacity(t *testing.T) {
	if _, err := New(0, 0); err != ErrZeroCapacity {
		t.Fatalf("got %v, want ErrZeroCapacity", err)
	}
}

func TestWaitForRejectsRequestExceedingBurst(t *testing.T) {
	th, err := New(100, 100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := th.WaitFor(context.Background(), 1000); err != ErrRequestExceedsBurst {
		t.Fatalf("got %v, want ErrRequestExceedsBurst", err)
	}
}

func TestWaitForConsumesAvailableTokensImmediately(t *testing.T) {
	now := time.Unix(0, 0)
	th := newWithClock(100, 100, func() time.Time { return now })

	if err := th.WaitFor(context.Background(), 50); err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	if th.tokens != 50 {
		t.Fatalf("tokens = %v, want 50", th.tokens)
	}
}

func TestWaitForBlocksUntilRefilled(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	th := newWithClock(100, 100, clock.now)

	// Drain the bucket entirely.
	if err := th.WaitFor(context.Background(), 100); err != nil {
		t.Fatalf("WaitFor (drain): %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- th.WaitFor(context.Background(), 50) }()

	select {
	case <-done:
		t.Fatalf("WaitFor returned before enough time elapsed to refill")
	case <-time.After(50 * time.Millisecond):
	}

	clock.advance(time.Second) // refills to full capacity

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitFor: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("WaitFor never unblocked after refill")
	}
}

func TestWaitForSaturatesAtBurst(t *testing.T) {
	now := time.Unix(0, 0)
	th := newWithClock(100, 100, func() time.Time { return now })

	now = now.Add(10 * time.Second) // would refill far past capacity
	if err := th.WaitFor(context.Background(), 100); err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	if th.tokens != 0 {
		t.Fatalf("tokens = %v, want 0 after draining a saturated bucket", th.tokens)
	}
}

func TestWaitForRespectsContextCancellation(t *testing.T) {
	now := time.Unix(0, 0)
	th := newWithClock(1, 100, func() time.Time { return now })
	// Drain so the next request must wait.
	if err := th.WaitFor(context.Background(), 100); err != nil {
		t.Fatalf("WaitFor (drain): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := th.WaitFor(ctx, 50); err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if th.tokens != 0 {
		t.Fatalf("tokens = %v, want 0: a cancelled wait must not debit", th.tokens)
	}
}
