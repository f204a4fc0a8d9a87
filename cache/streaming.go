package cache

import (
	"bytes"
	"context"
	"runtime"

	"github.com/lading-rig/lading/block"
	"github.com/lading-rig/lading/payload"
)

// defaultStreamingQueueDepth is the bounded channel capacity between the
// streaming producer and its consumer, chosen to absorb a generator's brief
// stalls without the producer racing arbitrarily far ahead.
const defaultStreamingQueueDepth = 1024

// streamingCache serialises a fresh block on every iteration, off the
// consumer's hot path, and hands finished blocks over a bounded channel.
type streamingCache struct {
	cfg        Config
	queueDepth int
}

func newStreamingCache(cfg Config) *streamingCache {
	depth := cfg.StreamingQueueDepth
	if depth <= 0 {
		depth = defaultStreamingQueueDepth
	}

	// A queue deep enough to hold depth copies of the largest configured
	// block would outgrow the total byte budget itself; shrink it so the
	// producer can never materialise more outstanding bytes than the rig
	// was configured to use in total.
	largest := cfg.BlockSizes[0]
	for _, s := range cfg.BlockSizes {
		if s > largest {
			largest = s
		}
	}
	if largest > 0 {
		if max := int(cfg.TotalByteBudget / largest); max > 0 && max < depth {
			depth = max
		}
	}
	if depth < 1 {
		depth = 1
	}

	return &streamingCache{cfg: cfg, queueDepth: depth}
}

func (c *streamingCache) Spin(ctx context.Context) Receiver {
	out := make(chan block.Block, c.queueDepth)
	rng := payload.NewRand(c.cfg.Seed)
	variant := c.cfg.Variant
	sizes := c.cfg.BlockSizes

	go func() {
		// Mirrors the dedicated-OS-thread producer in the original
		// implementation: pin this goroutine so its allocation-heavy loop
		// doesn't get rescheduled across P's mid-record.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(out)

		var buf bytes.Buffer
		for {
			want := sizes[rng.Intn(len(sizes))]
			buf.Reset()
			if _, err := variant.Serialize(&buf, int(want)); err != nil {
				return
			}
			if buf.Len() == 0 {
				continue
			}
			b, err := block.New(append([]byte(nil), buf.Bytes()...))
			if err != nil {
				continue
			}

			select {
			case out <- b:
			case <-ctx.Done():
				return
			}
		}
	}()

	return newChanReceiver(out)
}
