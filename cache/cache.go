// Package cache implements the rig's payload block cache: it turns a
// payload.Variant into a supply of ready-to-send block.Block values, either
// precomputed once and replayed (Fixed) or generated continuously off the
// consumer's hot path (Streaming).
package cache

import (
	"context"

	"github.com/lading-rig/lading/payload"
	"github.com/lading-rig/lading/size"
)

// Method selects how a Cache supplies blocks.
type Method uint8

const (
	// Fixed precomputes a bounded pool of blocks at construction time and
	// replays them forever in the same order. Cheap at send-time, bounded
	// memory, but the pool never refreshes its content.
	Fixed Method = iota
	// Streaming serialises a fresh block on every iteration from a
	// dedicated goroutine, handing finished blocks to the consumer over a
	// bounded channel. Higher entropy, a little more CPU per send.
	Streaming
)

// Config is everything Construct needs to build a Cache.
type Config struct {
	Method           Method
	Seed             payload.Seed
	TotalByteBudget  size.Size
	BlockSizes       []size.Size
	Variant          payload.Variant
	// StreamingQueueDepth overrides the default bounded-channel capacity
	// for Streaming caches; zero means "use the default" (see streaming.go).
	StreamingQueueDepth int
}

// Cache supplies a Receiver of blocks to a single consumer. Spin starts
// whatever background work the method needs (none, for Fixed) and must be
// called at most once.
type Cache interface {
	Spin(ctx context.Context) Receiver
}

// Construct validates cfg and builds the Cache it describes. It never
// spawns goroutines or blocks; call Spin to start production.
func Construct(cfg Config) (Cache, error) {
	if len(cfg.BlockSizes) == 0 {
		return nil, ErrEmptyBlockSizes
	}

	smallest := cfg.BlockSizes[0]
	for _, s := range cfg.BlockSizes {
		if s < smallest {
			smallest = s
		}
	}
	if cfg.TotalByteBudget < smallest {
		return nil, ErrBudgetTooSmall
	}
	if int64(cfg.Variant.MinRecordSize()) > int64(smallest) {
		return nil, ErrVariantTooSmall
	}

	switch cfg.Method {
	case Streaming:
		return newStreamingCache(cfg), nil
	default:
		return newFixedCache(cfg)
	}
}
