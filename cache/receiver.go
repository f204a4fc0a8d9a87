package cache

import (
	"context"

	"github.com/lading-rig/lading/block"
)

// Receiver is the consumer-facing handle onto a running Cache. Peek and Next
// give the generator a peek-then-commit contract: Peek may be called
// repeatedly and always returns the same block until Next (or another Peek)
// advances past it, so a generator that peeks a block, fails to send it, and
// retries never loses or duplicates that block.
type Receiver interface {
	// Peek returns the next block without consuming it. Calling Peek again
	// before Next returns the identical block.
	Peek(ctx context.Context) (block.Block, error)
	// Next consumes and returns the next block, fetching one first if
	// nothing has been peeked.
	Next(ctx context.Context) (block.Block, error)
}

// chanReceiver implements Receiver over a channel fed by a producer
// goroutine. It is shared by both Fixed and Streaming caches; what differs
// between them is how the channel gets filled (see fixed.go, streaming.go).
type chanReceiver struct {
	blocks <-chan block.Block
	peeked *block.Block
}

func newChanReceiver(blocks <-chan block.Block) *chanReceiver {
	return &chanReceiver{blocks: blocks}
}

func (r *chanReceiver) Peek(ctx context.Context) (block.Block, error) {
	if r.peeked != nil {
		return *r.peeked, nil
	}
	b, err := r.recv(ctx)
	if err != nil {
		return block.Block{}, err
	}
	r.peeked = &b
	return b, nil
}

func (r *chanReceiver) Next(ctx context.Context) (block.Block, error) {
	if r.peeked != nil {
		b := *r.peeked
		r.peeked = nil
		return b, nil
	}
	return r.recv(ctx)
}

func (r *chanReceiver) recv(ctx context.Context) (block.Block, error) {
	select {
	case b, ok := <-r.blocks:
		if !ok {
			return block.Block{}, ErrClosed
		}
		return b, nil
	case <-ctx.Done():
		return block.Block{}, ctx.Err()
	}
}
