package shutdown

import (
	"context"
	"testing"
	"time"
)

func TestSignalIsIdempotent(t *testing.T) {
	n := New()
	n.Signal()
	n.Signal() // must not panic (close of closed channel) or block

	if !n.Signalled() {
		t.Fatalf("Signalled() = false after Signal()")
	}
}

func TestSubscriberSeesSignalBeforeAndAfterSubscribe(t *testing.T) {
	n := New()
	before := n.Subscribe()

	n.Signal()

	after := n.Subscribe()

	for name, sub := range map[string]*Subscriber{"before": before, "after": after} {
		select {
		case <-sub.Recv():
		default:
			t.Fatalf("%s subscriber did not observe the signal", name)
		}
	}
}

func TestWaitBlocksUntilSignalled(t *testing.T) {
	n := New()
	sub := n.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := sub.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("got %v, want DeadlineExceeded before Signal", err)
	}

	n.Signal()

	if err := sub.Wait(context.Background()); err != nil {
		t.Fatalf("Wait after Signal: %v", err)
	}
}

func TestNotifierWaitRespectsDeadline(t *testing.T) {
	n := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := n.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("got %v, want DeadlineExceeded", err)
	}
}
