// Package shutdown implements the rig's single broadcast fan-out: one
// signal, observed by every subscriber, with an idempotent Signal and a
// grace-period-bounded Wait for the orchestrator to use when draining.
package shutdown

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Notifier is the publisher side: call Signal once (or many times — it's
// idempotent) to wake every current and future Subscriber.
type Notifier struct {
	mu    sync.Mutex
	done  chan struct{}
	fired bool

	// outstanding counts Subscribers that have not yet called Release. The
	// orchestrator's Drain polls it down to zero, per spec.md §4.4's
	// wait(duration): "polls until every outstanding handle has been
	// dropped or duration elapses".
	outstanding int64
}

// New constructs an unfired Notifier.
func New() *Notifier {
	return &Notifier{done: make(chan struct{})}
}

// Signal broadcasts shutdown to every subscriber. Calling it more than once
// is a no-op; the first call wins.
func (n *Notifier) Signal() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fired {
		return
	}
	n.fired = true
	close(n.done)
}

// Signalled reports whether Signal has already fired.
func (n *Notifier) Signalled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fired
}

// Subscribe returns a Subscriber observing this Notifier. Subscribers
// obtained before or after Signal both see the same fired state. Callers
// must call Release when they are done handling shutdown (normally via
// defer in their run loop) so Drain can observe quiescence.
func (n *Notifier) Subscribe() *Subscriber {
	n.mu.Lock()
	defer n.mu.Unlock()
	atomic.AddInt64(&n.outstanding, 1)
	return &Subscriber{notifier: n, done: n.done}
}

// Drain polls until every Subscriber handed out by Subscribe has called
// Release, or until ctx is done, whichever comes first. It reports whether
// quiescence was observed (false means ctx ended first). This is the
// producer-side "wait(duration)" of spec.md §4.4: it does not force-cancel
// late subscribers, it simply returns control to the orchestrator.
func (n *Notifier) Drain(ctx context.Context) bool {
	const pollInterval = 10 * time.Millisecond

	if atomic.LoadInt64(&n.outstanding) <= 0 {
		return true
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if atomic.LoadInt64(&n.outstanding) <= 0 {
				return true
			}
		case <-ctx.Done():
			return false
		}
	}
}

// Wait blocks until Signal fires or ctx is done, whichever comes first. The
// orchestrator uses this with a grace-period-deadlined ctx to bound how long
// it waits for generators to notice shutdown and drain.
func (n *Notifier) Wait(ctx context.Context) error {
	n.mu.Lock()
	done := n.done
	n.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscriber is the consumer side handed to generators and other
// shutdown-aware components.
type Subscriber struct {
	notifier *Notifier
	done     chan struct{}

	releaseOnce sync.Once
}

// Recv returns a channel that closes when shutdown has been signalled; use
// it directly in a select alongside other work.
func (s *Subscriber) Recv() <-chan struct{} {
	return s.done
}

// Wait blocks until shutdown is signalled or ctx is done.
func (s *Subscriber) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release marks this Subscriber's owner as quiesced: it has observed
// shutdown and finished draining whatever work it was doing. Idempotent;
// safe to call from a defer even if the owner never saw Signal fire.
func (s *Subscriber) Release() {
	s.releaseOnce.Do(func() {
		if s.notifier != nil {
			atomic.AddInt64(&s.notifier.outstanding, -1)
		}
	})
}
