package targetstart

import (
	"context"
	"testing"
	"time"

	"github.com/lading-rig/lading/target"
)

func TestSubscriptionSeesPublishedHandleBeforeAndAfterSubscribe(t *testing.T) {
	b := New()
	before := b.Subscribe()

	h := target.AttachPID(123)
	b.Publish(h)

	after := b.Subscribe()

	for name, sub := range map[string]*Subscription{"before": before, "after": after} {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		got, err := sub.Wait(ctx)
		cancel()
		if err != nil {
			t.Fatalf("%s: Wait: %v", name, err)
		}
		if got.PID != 123 {
			t.Fatalf("%s: got PID %d, want 123", name, got.PID)
		}
	}
}

func TestPublishIsIdempotent(t *testing.T) {
	b := New()
	b.Publish(target.AttachPID(1))
	b.Publish(target.AttachPID(2)) // must not panic, first call wins

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub := b.Subscribe()
	got, err := sub.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got.PID != 1 {
		t.Fatalf("got PID %d, want 1 (first Publish must win)", got.PID)
	}
}

func TestWaitRespectsContextWhenNeverPublished(t *testing.T) {
	b := New()
	sub := b.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := sub.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("got %v, want DeadlineExceeded", err)
	}
}
