package orchestrator

import (
	"fmt"

	"github.com/lading-rig/lading/cache"
	"github.com/lading-rig/lading/config"
	coderrors "github.com/lading-rig/lading/errors"
	"github.com/lading-rig/lading/payload"
	"github.com/lading-rig/lading/payload/dogstatsd"
	"github.com/lading-rig/lading/payload/jsonline"
	"github.com/lading-rig/lading/payload/plainascii"
	"github.com/lading-rig/lading/payload/staticfile"
	"github.com/lading-rig/lading/payload/syslog"
	"github.com/lading-rig/lading/size"
)

// buildVariant constructs the payload.Variant named by gc.Variant, per
// spec.md §4.1's tagged-sum-type dispatch.
func buildVariant(seed payload.Seed, gc config.GeneratorConfig) (payload.Variant, error) {
	switch gc.Variant {
	case "dogstatsd":
		cfg := dogstatsd.DefaultConfig()
		if gc.DogStatsD.ContextsMinimum > 0 {
			cfg.ContextsMinimum = gc.DogStatsD.ContextsMinimum
		}
		if gc.DogStatsD.ContextsMaximum > 0 {
			cfg.ContextsMaximum = gc.DogStatsD.ContextsMaximum
		}
		if gc.DogStatsD.TagsPerMsgMinimum > 0 {
			cfg.TagsPerMsgMinimum = gc.DogStatsD.TagsPerMsgMinimum
		}
		if gc.DogStatsD.TagsPerMsgMaximum > 0 {
			cfg.TagsPerMsgMaximum = gc.DogStatsD.TagsPerMsgMaximum
		}
		if gc.DogStatsD.MultivaluePackProbability > 0 {
			cfg.MultivaluePackProbability = gc.DogStatsD.MultivaluePackProbability
		}
		if gc.DogStatsD.MultivalueCntMinimum > 0 {
			cfg.MultivalueCntMinimum = gc.DogStatsD.MultivalueCntMinimum
		}
		if gc.DogStatsD.MultivalueCntMaximum > 0 {
			cfg.MultivalueCntMaximum = gc.DogStatsD.MultivalueCntMaximum
		}
		return dogstatsd.New(seed, cfg)
	case "jsonline":
		return jsonline.New(seed)
	case "plainascii":
		return plainascii.New(seed, gc.PlainASCIILineWidth)
	case "syslog":
		return syslog.New(seed)
	case "staticfile":
		return staticfile.New(gc.StaticFilePath)
	default:
		return nil, fmt.Errorf("orchestrator: unknown payload variant %q", gc.Variant)
	}
}

// defaultBlockSizes returns the variant-specific default block-size
// distribution (spec.md §3): the file generator gets the 1-32 MiB series,
// every wire generator gets the 1/32-4 MiB series.
func defaultBlockSizes(gc config.GeneratorConfig) []size.Size {
	if gc.Transport == "file" {
		return size.DefaultFileBlockSizes()
	}
	return size.DefaultWireBlockSizes()
}

// buildBlockSizes parses gc.BlockSizes, falling back to the variant default
// when the config omits it.
func buildBlockSizes(gc config.GeneratorConfig) ([]size.Size, error) {
	if len(gc.BlockSizes) == 0 {
		return defaultBlockSizes(gc), nil
	}
	out := make([]size.Size, len(gc.BlockSizes))
	for i, s := range gc.BlockSizes {
		v, err := size.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: block_sizes[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// defaultTotalByteBudget bounds an omitted total_byte_budget: large enough
// for a useful Fixed pool or Streaming queue, small enough to never cause an
// unexpected multi-gigabyte allocation or startup stall (spec.md §4.2
// requires total_byte_budget to be a positive integer the operator sets
// deliberately; this is only the fallback for an omitted one).
const defaultTotalByteBudget = 64 * size.SizeMega

// buildCache constructs the block cache for one generator config.
func buildCache(gc config.GeneratorConfig) (cache.Cache, error) {
	seed := payload.ParseSeed(gc.Seed)
	variant, err := buildVariant(seed, gc)
	if err != nil {
		return nil, err
	}

	blockSizes, err := buildBlockSizes(gc)
	if err != nil {
		return nil, err
	}

	budget := defaultTotalByteBudget
	if gc.TotalByteBudget != "" {
		budget, err = size.Parse(gc.TotalByteBudget)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: total_byte_budget: %w", err)
		}
	}

	method := cache.Fixed
	if gc.CacheMethod == "streaming" {
		method = cache.Streaming
	}

	c, err := cache.Construct(cache.Config{
		Method:              method,
		Seed:                seed,
		TotalByteBudget:     budget,
		BlockSizes:          blockSizes,
		Variant:             variant,
		StreamingQueueDepth: gc.StreamingQueueDepth,
	})
	if err != nil {
		return nil, coderrors.Wrap(coderrors.CodeBlockCreation, err, "generator %s/%s: cache construction", gc.Transport, gc.ID)
	}
	return c, nil
}
