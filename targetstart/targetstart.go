// Package targetstart implements the rig's secondary broadcast channel: it
// carries an optional target.Handle to every subscriber once the target
// (or the lack of one) is known, so generators and the observer that block
// on target startup never deadlock (spec.md §9 "Target-start
// synchronisation"). It follows the same single-producer broadcast shape as
// package shutdown, with a payload attached to the fired state instead of a
// bare signal.
package targetstart

import (
	"context"
	"sync"

	"github.com/lading-rig/lading/target"
)

// Broadcast is the publisher side: call Publish exactly once.
type Broadcast struct {
	mu        sync.Mutex
	done      chan struct{}
	published bool
	handle    *target.Handle
}

// New constructs an unpublished Broadcast.
func New() *Broadcast {
	return &Broadcast{done: make(chan struct{})}
}

// Publish broadcasts h (which may be target.NewNone()) to every current and
// future Subscription. A second call is a no-op: publishing is a one-shot
// operation, exactly like shutdown.Signal.
func (b *Broadcast) Publish(h *target.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published {
		return
	}
	b.handle = h
	b.published = true
	close(b.done)
}

// Subscribe returns a Subscription observing this Broadcast.
func (b *Broadcast) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Subscription{broadcast: b, done: b.done}
}

// Subscription is the consumer side.
type Subscription struct {
	broadcast *Broadcast
	done      chan struct{}
}

// Wait blocks until Publish has been called (returning its handle) or ctx
// ends first.
func (s *Subscription) Wait(ctx context.Context) (*target.Handle, error) {
	select {
	case <-s.done:
		s.broadcast.mu.Lock()
		h := s.broadcast.handle
		s.broadcast.mu.Unlock()
		return h, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
