package cache

import (
	"bytes"
	"context"

	"github.com/lading-rig/lading/block"
	"github.com/lading-rig/lading/size"
)

// fixedCache precomputes its block pool once, at construction, and replays
// it forever in the same cyclic order.
type fixedCache struct {
	pool []block.Block
}

func newFixedCache(cfg Config) (*fixedCache, error) {
	// The variant's own RNG (seeded from cfg.Seed at its construction) drives
	// record content; block_sizes are drawn here by simple round-robin so
	// the pool's composition is reproducible independent of the variant.
	var pool []block.Block
	var used size.Size
	idx := 0
	for used < cfg.TotalByteBudget {
		want := cfg.BlockSizes[idx%len(cfg.BlockSizes)]
		idx++

		var buf bytes.Buffer
		if _, err := cfg.Variant.Serialize(&buf, int(want)); err != nil {
			return nil, err
		}
		if buf.Len() == 0 {
			// This block size couldn't fit even one record; skip it rather
			// than loop forever on an empty draw.
			continue
		}
		if used+size.Size(buf.Len()) > cfg.TotalByteBudget {
			break
		}

		b, err := block.New(buf.Bytes())
		if err != nil {
			return nil, err
		}
		pool = append(pool, b)
		used += size.Size(buf.Len())
	}

	if len(pool) == 0 {
		return nil, ErrBudgetTooSmall
	}
	return &fixedCache{pool: pool}, nil
}

func (c *fixedCache) Spin(ctx context.Context) Receiver {
	out := make(chan block.Block, 1024)
	go func() {
		defer close(out)
		i := 0
		for {
			select {
			case out <- c.pool[i%len(c.pool)].Clone():
				i++
			case <-ctx.Done():
				return
			}
		}
	}()
	return newChanReceiver(out)
}
