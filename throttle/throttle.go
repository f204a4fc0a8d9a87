// Package throttle implements a byte-denominated token bucket rate limiter:
// the rig's single point of control over how fast a generator is allowed to
// push bytes at its target.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Throttle is a token bucket measured in bytes. Capacity saturates at Burst;
// it never goes negative and never exceeds Burst, regardless of how long a
// caller waits between refills.
type Throttle struct {
	bytesPerSecond float64
	burst          float64

	clock func() time.Time

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// New constructs a Throttle that refills at bytesPerSecond and can hold at
// most burst bytes before saturating. burst must be positive; a burst of
// zero or less defaults to one second's worth of bytesPerSecond.
func New(bytesPerSecond float64, burst float64) (*Throttle, error) {
	if bytesPerSecond <= 0 {
		return nil, ErrZeroCapacity
	}
	if burst <= 0 {
		burst = bytesPerSecond
	}
	return newWithClock(bytesPerSecond, burst, time.Now), nil
}

func newWithClock(bytesPerSecond, burst float64, clock func() time.Time) *Throttle {
	return &Throttle{
		bytesPerSecond: bytesPerSecond,
		burst:          burst,
		clock:          clock,
		tokens:         burst,
		last:           clock(),
	}
}

// WaitFor blocks until n bytes' worth of capacity is available, then debits
// it. It returns ErrRequestExceedsBurst immediately (without blocking) if n
// can never be satisfied because it exceeds the bucket's own burst
// capacity. A context cancellation or deadline aborts the wait without
// debiting any tokens, so WaitFor is safe to call from inside a select.
func (t *Throttle) WaitFor(ctx context.Context, n int) error {
	if float64(n) > t.burst {
		return ErrRequestExceedsBurst
	}

	for {
		wait, ok := t.tryAcquire(n)
		if ok {
			return nil
		}
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// tryAcquire refills the bucket for elapsed time, then either debits n and
// reports success, or reports how long the caller must wait for enough
// tokens to accrue.
func (t *Throttle) tryAcquire(n int) (wait time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	elapsed := now.Sub(t.last)
	if elapsed > 0 {
		t.tokens += elapsed.Seconds() * t.bytesPerSecond
		if t.tokens > t.burst {
			t.tokens = t.burst
		}
		t.last = now
	}

	need := float64(n)
	if t.tokens >= need {
		t.tokens -= need
		return 0, true
	}

	deficit := need - t.tokens
	return time.Duration(deficit / t.bytesPerSecond * float64(time.Second)), false
}
